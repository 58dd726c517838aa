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
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

// actionEnv is the transaction-scoped view a handler runs against
type actionEnv struct {
	now        time.Time
	params     ParameterStore
	signers    SignerStore
	treasury   TreasuryStore
	proposalID string
	executedBy string
}

func (e *actionEnv) setParam(name, valueType, value string) (map[string]any, error) {
	var previous any
	current, err := e.params.GetParameter(name)
	switch {
	case err == nil:
		previous = current.Value
	case !errors.Is(err, models.ErrParameterNotFound):
		return nil, err
	}
	changed, err := e.params.SetParameter(
		name,
		valueType,
		value,
		e.proposalID,
		e.now,
	)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"parameter":      name,
		"previous_value": previous,
		"new_value":      value,
		"changed":        changed,
	}, nil
}

func (a *UpdateProtocolFee) apply(env *actionEnv) (map[string]any, error) {
	return env.setParam(
		models.ParamProtocolFeePercentage,
		models.ParameterTypeDecimal,
		a.Value.String(),
	)
}

func (a *UpdateClientFee) apply(env *actionEnv) (map[string]any, error) {
	return env.setParam(
		models.ParamClientFeePercentage,
		models.ParameterTypeDecimal,
		a.Value.String(),
	)
}

func (a *UpdateEscrowDuration) apply(env *actionEnv) (map[string]any, error) {
	return env.setParam(
		models.ParamEscrowDurationDays,
		models.ParameterTypeInteger,
		strconv.Itoa(*a.Days),
	)
}

func (a *UpdateDisputeWindow) apply(env *actionEnv) (map[string]any, error) {
	return env.setParam(
		models.ParamDisputeWindowDays,
		models.ParameterTypeInteger,
		strconv.Itoa(*a.Days),
	)
}

func (a *EmergencyPause) apply(env *actionEnv) (map[string]any, error) {
	result, err := env.setParam(
		models.ParamProtocolPaused,
		models.ParameterTypeBoolean,
		strconv.FormatBool(true),
	)
	if err != nil {
		return nil, err
	}
	if a.Reason != "" {
		result["reason"] = a.Reason
	}
	return result, nil
}

func (a *EmergencyUnpause) apply(env *actionEnv) (map[string]any, error) {
	return env.setParam(
		models.ParamProtocolPaused,
		models.ParameterTypeBoolean,
		strconv.FormatBool(false),
	)
}

// A movement is recorded at most once per proposal. Funds are settled
// outside governance.
func (a *TreasuryWithdrawal) apply(env *actionEnv) (map[string]any, error) {
	existing, err := env.treasury.GetTreasuryMovementByProposal(env.proposalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return movementResult(existing, true), nil
	}
	movement := &models.TreasuryMovement{
		ID:         uuid.NewString(),
		ProposalID: env.proposalID,
		Amount:     *a.Amount,
		Currency:   strings.ToUpper(strings.TrimSpace(a.Currency)),
		Recipient:  strings.TrimSpace(a.Recipient),
		Purpose:    a.Purpose,
		Status:     models.TreasuryMovementStatusApproved,
		CreatedAt:  env.now,
	}
	if err := env.treasury.CreateTreasuryMovement(movement); err != nil {
		if !errors.Is(err, models.ErrDuplicateTreasuryMovement) {
			return nil, err
		}
		existing, err = env.treasury.GetTreasuryMovementByProposal(env.proposalID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, models.ErrDuplicateTreasuryMovement
		}
		return movementResult(existing, true), nil
	}
	return movementResult(movement, false), nil
}

func movementResult(m *models.TreasuryMovement, alreadyRecorded bool) map[string]any {
	return map[string]any{
		"movement_id":      m.ID,
		"amount":           m.Amount.String(),
		"currency":         m.Currency,
		"recipient":        m.Recipient,
		"status":           m.Status,
		"already_recorded": alreadyRecorded,
	}
}

func (a *AddSigner) apply(env *actionEnv) (map[string]any, error) {
	in := a.input()
	existing, err := env.signers.GetSigner(in.ID)
	switch {
	case err == nil:
		if existing.AddedByProposalID == env.proposalID {
			return signerResult(existing, false), nil
		}
		return nil, ErrSignerExists
	case !errors.Is(err, models.ErrSignerNotFound):
		return nil, err
	}
	signer, err := addSigner(env.signers, in, env.proposalID, env.now)
	if err != nil {
		return nil, err
	}
	return signerResult(signer, true), nil
}

func (a *RemoveSigner) apply(env *actionEnv) (map[string]any, error) {
	id := strings.TrimSpace(a.SignerID)
	existing, err := env.signers.GetSigner(id)
	if err != nil {
		return nil, err
	}
	if !existing.Active && existing.RemovedByProposalID == env.proposalID {
		return signerResult(existing, false), nil
	}
	signer, err := removeSigner(env.signers, id, a.Reason, env.proposalID, env.now)
	if err != nil {
		return nil, err
	}
	return signerResult(signer, true), nil
}

func signerResult(s *models.Signer, changed bool) map[string]any {
	return map[string]any{
		"signer_id": s.ID,
		"role":      s.Role,
		"active":    s.Active,
		"changed":   changed,
	}
}

func (a *SchemaMigration) apply(env *actionEnv) (map[string]any, error) {
	return map[string]any{
		"migration":   strings.TrimSpace(a.Migration),
		"description": a.Description,
		"approved_by": env.executedBy,
		"applied":     false,
		"note":        "apply the migration manually",
	}, nil
}
