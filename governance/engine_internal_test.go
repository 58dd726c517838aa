// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package governance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/database/types"
)

// fakeTx implements just enough of Tx for the engine. Calling anything else
// panics on the nil embedded interface.
type fakeTx struct {
	Tx
	signers        map[string]*models.Signer
	proposal       *models.Proposal
	executions     map[string]models.Execution
	params         map[string]*models.ProtocolParameter
	movements      map[string]*models.TreasuryMovement
	setErr         error
	createMoveErr  error
	transitionMiss bool
	setCalls       int
}

func newFakeTx(action ActionType, params map[string]any) *fakeTx {
	return &fakeTx{
		signers: map[string]*models.Signer{
			"signer-1": {ID: "signer-1", Role: "founder", Active: true},
		},
		proposal: &models.Proposal{
			ID:                "proposal-1",
			ActionType:        string(action),
			Params:            types.JSONMap(params),
			Status:            models.ProposalStatusApproved,
			RequiredApprovals: 2,
			CurrentApprovals:  2,
		},
		executions: map[string]models.Execution{},
		params: map[string]*models.ProtocolParameter{
			models.ParamProtocolFeePercentage: {
				Name:  models.ParamProtocolFeePercentage,
				Value: "1",
			},
		},
		movements: map[string]*models.TreasuryMovement{},
	}
}

func (f *fakeTx) GetSigner(id string) (*models.Signer, error) {
	s, ok := f.signers[id]
	if !ok {
		return nil, models.ErrSignerNotFound
	}
	ret := *s
	return &ret, nil
}

func (f *fakeTx) GetProposal(id string, _ bool) (*models.Proposal, error) {
	if f.proposal == nil || f.proposal.ID != id {
		return nil, models.ErrProposalNotFound
	}
	ret := *f.proposal
	return &ret, nil
}

func (f *fakeTx) TransitionProposal(id, from, to string, _ map[string]any) (bool, error) {
	if f.transitionMiss || f.proposal.ID != id || f.proposal.Status != from {
		return false, nil
	}
	f.proposal.Status = to
	return true, nil
}

func (f *fakeTx) CreateExecution(exec *models.Execution) error {
	f.executions[exec.ID] = *exec
	return nil
}

func (f *fakeTx) SaveExecution(exec *models.Execution) error {
	if _, ok := f.executions[exec.ID]; !ok {
		return models.ErrExecutionNotFound
	}
	f.executions[exec.ID] = *exec
	return nil
}

func (f *fakeTx) GetParameter(name string) (*models.ProtocolParameter, error) {
	p, ok := f.params[name]
	if !ok {
		return nil, models.ErrParameterNotFound
	}
	ret := *p
	return &ret, nil
}

func (f *fakeTx) SetParameter(name, valueType, value, proposalID string, at time.Time) (bool, error) {
	f.setCalls++
	if f.setErr != nil {
		return false, f.setErr
	}
	p, ok := f.params[name]
	if ok && p.Value == value {
		return false, nil
	}
	next := &models.ProtocolParameter{
		Name:                name,
		Value:               value,
		ValueType:           valueType,
		UpdatedByProposalID: proposalID,
		UpdatedAt:           at,
	}
	if ok {
		prev := p.Value
		next.PreviousValue = &prev
	}
	f.params[name] = next
	return true, nil
}

func (f *fakeTx) GetTreasuryMovementByProposal(proposalID string) (*models.TreasuryMovement, error) {
	return f.movements[proposalID], nil
}

func (f *fakeTx) CreateTreasuryMovement(m *models.TreasuryMovement) error {
	if f.createMoveErr != nil {
		return f.createMoveErr
	}
	f.movements[m.ProposalID] = m
	return nil
}

// fakeStore runs every transaction against the same fakeTx without rollback
type fakeStore struct {
	tx *fakeTx
	mu sync.Mutex
}

func (s *fakeStore) Update(_ context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.tx)
}

func (s *fakeStore) View(_ context.Context, fn func(Tx) error) error {
	return s.Update(context.Background(), fn)
}

func newFakeEngine(t *testing.T, tx *fakeTx) *Engine {
	t.Helper()
	gov, err := New(Config{Store: &fakeStore{tx: tx}})
	require.NoError(t, err)
	return gov.Engine
}

func TestEngineRecordsSuccess(t *testing.T) {
	tx := newFakeTx(ActionUpdateProtocolFee, map[string]any{"value": "2.5"})
	engine := newFakeEngine(t, tx)

	exec, err := engine.ExecuteProposal(context.Background(), "proposal-1", "signer-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, exec.Status)
	assert.Equal(t, models.ProposalStatusExecuted, tx.proposal.Status)
	require.Len(t, tx.executions, 1)
	stored := tx.executions[exec.ID]
	assert.Equal(t, models.ExecutionStatusSuccess, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, "2.5", tx.params[models.ParamProtocolFeePercentage].Value)
	assert.Equal(t, "1", *tx.params[models.ParamProtocolFeePercentage].PreviousValue)
}

func TestEngineRecordsHandlerFailure(t *testing.T) {
	tx := newFakeTx(ActionUpdateProtocolFee, map[string]any{"value": "2.5"})
	tx.setErr = errors.New("disk full")
	engine := newFakeEngine(t, tx)

	exec, err := engine.ExecuteProposal(context.Background(), "proposal-1", "signer-1")
	require.ErrorIs(t, err, ErrExecutionFailure)
	require.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, exec)
	assert.Equal(t, 1, tx.setCalls)
	assert.Equal(t, models.ProposalStatusApproved, tx.proposal.Status)
	stored := tx.executions[exec.ID]
	assert.Equal(t, models.ExecutionStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "disk full")
	assert.Nil(t, stored.Result)

	// A retry once storage recovers applies the value once
	tx.setErr = nil
	exec, err = engine.ExecuteProposal(context.Background(), "proposal-1", "signer-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, exec.Status)
	assert.Len(t, tx.executions, 2)
	assert.Equal(t, "2.5", tx.params[models.ParamProtocolFeePercentage].Value)
}

func TestEngineConcurrentExecution(t *testing.T) {
	tx := newFakeTx(ActionEmergencyUnpause, nil)
	tx.transitionMiss = true
	engine := newFakeEngine(t, tx)

	exec, err := engine.ExecuteProposal(context.Background(), "proposal-1", "signer-1")
	require.ErrorIs(t, err, ErrConcurrentExecution)
	require.NotErrorIs(t, err, ErrExecutionFailure)
	assert.Nil(t, exec)
	require.Len(t, tx.executions, 1)
	for _, stored := range tx.executions {
		assert.Equal(t, models.ExecutionStatusFailed, stored.Status)
	}
}

func TestEnginePreconditions(t *testing.T) {
	testDefs := []struct {
		mutate func(*fakeTx)
		target error
		name   string
	}{
		{name: "inactive executor", mutate: func(f *fakeTx) { f.signers["signer-1"].Active = false }, target: ErrNotActiveSigner},
		{name: "not approved", mutate: func(f *fakeTx) { f.proposal.Status = models.ProposalStatusActive }, target: ErrProposalNotApproved},
		{name: "quorum not met", mutate: func(f *fakeTx) { f.proposal.CurrentApprovals = 1 }, target: ErrQuorumNotMet},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			tx := newFakeTx(ActionEmergencyPause, nil)
			testDef.mutate(tx)
			engine := newFakeEngine(t, tx)
			_, err := engine.ExecuteProposal(context.Background(), "proposal-1", "signer-1")
			require.ErrorIs(t, err, testDef.target)
			assert.Empty(t, tx.executions)
			assert.Equal(t, 0, tx.setCalls)
		})
	}
}

func TestTreasuryHandlerIsIdempotent(t *testing.T) {
	tx := newFakeTx(ActionTreasuryWithdrawal, nil)
	action := &TreasuryWithdrawal{
		Amount:    decimalPtr("250"),
		Currency:  "usd",
		Recipient: "did:grantee",
		Purpose:   "grant",
	}
	env := &actionEnv{
		treasury:   tx,
		proposalID: "proposal-1",
		now:        time.Now().UTC(),
	}

	result, err := action.apply(env)
	require.NoError(t, err)
	assert.Equal(t, false, result["already_recorded"])
	first := tx.movements["proposal-1"].ID

	result, err = action.apply(env)
	require.NoError(t, err)
	assert.Equal(t, true, result["already_recorded"])
	assert.Equal(t, first, result["movement_id"])
}

func TestTreasuryHandlerDuplicateWithoutMovement(t *testing.T) {
	tx := newFakeTx(ActionTreasuryWithdrawal, nil)
	tx.createMoveErr = models.ErrDuplicateTreasuryMovement
	action := &TreasuryWithdrawal{
		Amount:    decimalPtr("1"),
		Currency:  "usd",
		Recipient: "did:grantee",
		Purpose:   "grant",
	}
	env := &actionEnv{treasury: tx, proposalID: "proposal-1"}

	_, err := action.apply(env)
	require.ErrorIs(t, err, models.ErrDuplicateTreasuryMovement)
}

func TestSignerHandlersSkipRepeatedWork(t *testing.T) {
	tx := newFakeTx(ActionAddSigner, nil)
	tx.signers["signer-4"] = &models.Signer{
		ID:                "signer-4",
		Role:              "technical",
		Active:            true,
		AddedByProposalID: "proposal-1",
	}
	tx.signers["signer-5"] = &models.Signer{
		ID:                  "signer-5",
		Role:                "technical",
		RemovedByProposalID: "proposal-1",
	}
	env := &actionEnv{signers: tx, proposalID: "proposal-1"}

	result, err := (&AddSigner{SignerID: "signer-4", Role: "technical"}).apply(env)
	require.NoError(t, err)
	assert.Equal(t, false, result["changed"])

	result, err = (&RemoveSigner{SignerID: "signer-5", Reason: "left"}).apply(env)
	require.NoError(t, err)
	assert.Equal(t, false, result["changed"])

	env.proposalID = "proposal-2"
	_, err = (&AddSigner{SignerID: "signer-4", Role: "technical"}).apply(env)
	require.ErrorIs(t, err, ErrSignerExists)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
