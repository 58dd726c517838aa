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

package governance_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/event"
	"github.com/rangkai-protocol/rangkai-gov/governance"
)

func TestExecuteTwiceFailsFast(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	proposalID := env.approve(t, governance.ActionUpdateProtocolFee, map[string]any{"value": "3"})

	_, err := env.gov.Engine.ExecuteProposal(ctx, proposalID, signer1)
	require.NoError(t, err)
	_, err = env.gov.Engine.ExecuteProposal(ctx, proposalID, signer2)
	require.ErrorIs(t, err, governance.ErrProposalNotApproved)

	execs, err := env.gov.Engine.ListExecutions(ctx, proposalID)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, models.ExecutionStatusSuccess, execs[0].Status)
}

func TestSettingSameValueIsNoop(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	first := env.approve(t, governance.ActionUpdateProtocolFee, map[string]any{"value": "2.5"})
	_, err := env.gov.Engine.ExecuteProposal(ctx, first, signer1)
	require.NoError(t, err)

	second := env.approve(t, governance.ActionUpdateProtocolFee, map[string]any{"value": "2.50"})
	exec, err := env.gov.Engine.ExecuteProposal(ctx, second, signer1)
	require.NoError(t, err)
	assert.Equal(t, false, exec.Result["changed"])

	param := env.param(t, models.ParamProtocolFeePercentage)
	assert.Equal(t, "2.5", param.Value)
	require.NotNil(t, param.PreviousValue)
	assert.Equal(t, "1", *param.PreviousValue)
	assert.Equal(t, first, param.UpdatedByProposalID)
}

func TestRetryAfterFailedExecution(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	proposalID := env.approve(t, governance.ActionRemoveSigner, map[string]any{
		"signer_id": signer3,
		"reason":    "key compromised",
	})

	// Removing from a three member council breaks the floor
	exec, err := env.gov.Engine.ExecuteProposal(ctx, proposalID, signer1)
	require.ErrorIs(t, err, governance.ErrExecutionFailure)
	require.ErrorIs(t, err, governance.ErrSignerFloor)
	require.NotNil(t, exec)
	assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
	assert.NotEmpty(t, exec.Error)

	proposal, err := env.gov.Ledger.GetProposal(ctx, proposalID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusApproved, proposal.Status)
	active, err := env.gov.Registry.IsActiveSigner(ctx, signer3)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = env.gov.Registry.AddSigner(ctx, governance.SignerInput{ID: "did:rangkai:signer-4", Role: "technical"})
	require.NoError(t, err)

	exec, err = env.gov.Engine.ExecuteProposal(ctx, proposalID, signer1)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, exec.Status)

	removed, err := env.gov.Registry.GetSigner(ctx, signer3)
	require.NoError(t, err)
	assert.False(t, removed.Active)
	assert.Equal(t, proposalID, removed.RemovedByProposalID)
	assert.Equal(t, "key compromised", removed.RemovalReason)

	execs, err := env.gov.Engine.ListExecutions(ctx, proposalID)
	require.NoError(t, err)
	require.Len(t, execs, 2)
	assert.Equal(t, models.ExecutionStatusFailed, execs[0].Status)
	assert.Equal(t, models.ExecutionStatusSuccess, execs[1].Status)
}

func TestExecuteParameterActions(t *testing.T) {
	testDefs := []struct {
		action governance.ActionType
		params map[string]any
		name   string
		value  string
	}{
		{governance.ActionUpdateProtocolFee, map[string]any{"value": 0}, models.ParamProtocolFeePercentage, "0"},
		{governance.ActionUpdateClientFee, map[string]any{"value": "4.75"}, models.ParamClientFeePercentage, "4.75"},
		{governance.ActionUpdateEscrowDuration, map[string]any{"days": 30}, models.ParamEscrowDurationDays, "30"},
		{governance.ActionUpdateDisputeWindow, map[string]any{"days": 1}, models.ParamDisputeWindowDays, "1"},
		{governance.ActionEmergencyPause, map[string]any{"reason": "exploit"}, models.ParamProtocolPaused, "true"},
	}
	for _, testDef := range testDefs {
		t.Run(string(testDef.action), func(t *testing.T) {
			env := newCouncilEnv(t)
			proposalID := env.approve(t, testDef.action, testDef.params)
			exec, err := env.gov.Engine.ExecuteProposal(context.Background(), proposalID, signer2)
			require.NoError(t, err)
			assert.Equal(t, testDef.name, exec.Result["parameter"])
			assert.Equal(t, testDef.value, env.param(t, testDef.name).Value)
		})
	}
}

func TestPauseAndUnpause(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()

	pause := env.approve(t, governance.ActionEmergencyPause, nil)
	_, err := env.gov.Engine.ExecuteProposal(ctx, pause, signer1)
	require.NoError(t, err)
	paused, err := env.gov.Parameters.IsProtocolPaused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)

	unpause := env.approve(t, governance.ActionEmergencyUnpause, nil)
	_, err = env.gov.Engine.ExecuteProposal(ctx, unpause, signer1)
	require.NoError(t, err)
	paused, err = env.gov.Parameters.IsProtocolPaused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestExecuteTreasuryWithdrawal(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	proposalID := env.approve(t, governance.ActionTreasuryWithdrawal, map[string]any{
		"amount":    "1500.25",
		"currency":  "usdc",
		"recipient": "did:rangkai:grantee",
		"purpose":   "audit grant",
	})
	exec, err := env.gov.Engine.ExecuteProposal(ctx, proposalID, signer3)
	require.NoError(t, err)
	assert.Equal(t, false, exec.Result["already_recorded"])

	movements, err := env.gov.Engine.TreasuryMovements(ctx)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, proposalID, movements[0].ProposalID)
	assert.True(t, decimal.RequireFromString("1500.25").Equal(movements[0].Amount))
	assert.Equal(t, "USDC", movements[0].Currency)
	assert.Equal(t, models.TreasuryMovementStatusApproved, movements[0].Status)
}

func TestExecuteAddSigner(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	_, changedCh := bus.Subscribe(event.SignerChangedEventType)
	env := newCouncilEnv(t, func(cfg *governance.Config) {
		cfg.EventBus = bus
	})
	ctx := context.Background()
	// Drain the bootstrap events
	for range testCouncil {
		<-changedCh
	}

	proposalID := env.approve(t, governance.ActionAddSigner, map[string]any{
		"signer_id":  "did:rangkai:signer-4",
		"role":       "technical",
		"public_key": "",
	})
	_, err := env.gov.Engine.ExecuteProposal(ctx, proposalID, signer1)
	require.NoError(t, err)

	signer, err := env.gov.Registry.GetSigner(ctx, "did:rangkai:signer-4")
	require.NoError(t, err)
	assert.True(t, signer.Active)
	assert.Equal(t, proposalID, signer.AddedByProposalID)

	select {
	case evt := <-changedCh:
		data, ok := evt.Data.(event.SignerChangedEvent)
		require.True(t, ok)
		assert.Equal(t, "did:rangkai:signer-4", data.SignerID)
		assert.Equal(t, proposalID, data.ProposalID)
		assert.True(t, data.Active)
	case <-time.After(time.Second):
		t.Fatal("no signer changed event")
	}
}

func TestExecuteAddExistingSignerFails(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	proposalID := env.approve(t, governance.ActionAddSigner, map[string]any{
		"signer_id":  signer2,
		"role":       "technical",
		"public_key": "",
	})
	exec, err := env.gov.Engine.ExecuteProposal(ctx, proposalID, signer1)
	require.ErrorIs(t, err, governance.ErrExecutionFailure)
	require.ErrorIs(t, err, governance.ErrSignerExists)
	assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
}

func TestExecuteSchemaMigration(t *testing.T) {
	env := newCouncilEnv(t)
	proposalID := env.approve(t, governance.ActionSchemaMigration, map[string]any{
		"migration":   "0007_add_dispute_index",
		"description": "index disputes by order",
	})
	exec, err := env.gov.Engine.ExecuteProposal(context.Background(), proposalID, signer1)
	require.NoError(t, err)
	assert.Equal(t, "0007_add_dispute_index", exec.Result["migration"])
	assert.Equal(t, false, exec.Result["applied"])
}

func TestExecuteRequiresApproval(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	receipt := env.propose(t, signer1, governance.ActionEmergencyPause, nil)
	env.vote(t, receipt.ID, signer1, true)

	_, err := env.gov.Engine.ExecuteProposal(ctx, receipt.ID, signer1)
	require.ErrorIs(t, err, governance.ErrProposalNotApproved)

	_, err = env.gov.Engine.ExecuteProposal(ctx, "missing", signer1)
	require.ErrorIs(t, err, governance.ErrProposalNotFound)

	execs, err := env.gov.Engine.ListExecutions(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Empty(t, execs)
}

func TestExecutionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	env := newCouncilEnv(t, func(cfg *governance.Config) {
		cfg.PromRegistry = reg
	})
	ctx := context.Background()
	ok := env.approve(t, governance.ActionEmergencyPause, nil)
	_, err := env.gov.Engine.ExecuteProposal(ctx, ok, signer1)
	require.NoError(t, err)
	bad := env.approve(t, governance.ActionRemoveSigner, map[string]any{
		"signer_id": signer2,
		"reason":    "test",
	})
	_, err = env.gov.Engine.ExecuteProposal(ctx, bad, signer1)
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "rangkai_governance_executions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = testutil.GatherAndCount(reg, "rangkai_governance_proposals_created_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
