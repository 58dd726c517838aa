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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ActionType string

// Governed actions. The set is closed: proposals naming anything else are rejected.
const (
	ActionUpdateProtocolFee    ActionType = "update_protocol_fee"
	ActionUpdateClientFee      ActionType = "update_client_fee"
	ActionTreasuryWithdrawal   ActionType = "treasury_withdrawal"
	ActionEmergencyPause       ActionType = "emergency_pause"
	ActionEmergencyUnpause     ActionType = "emergency_unpause"
	ActionAddSigner            ActionType = "add_signer"
	ActionRemoveSigner         ActionType = "remove_signer"
	ActionUpdateEscrowDuration ActionType = "update_escrow_duration"
	ActionUpdateDisputeWindow  ActionType = "update_dispute_window"
	ActionSchemaMigration      ActionType = "schema_migration"
)

// ActionTypes lists every governed action
var ActionTypes = []ActionType{
	ActionUpdateProtocolFee,
	ActionUpdateClientFee,
	ActionTreasuryWithdrawal,
	ActionEmergencyPause,
	ActionEmergencyUnpause,
	ActionAddSigner,
	ActionRemoveSigner,
	ActionUpdateEscrowDuration,
	ActionUpdateDisputeWindow,
	ActionSchemaMigration,
}

var (
	maxProtocolFee = decimal.NewFromInt(10)
	maxClientFee   = decimal.NewFromInt(5)
)

const (
	minDurationDays = 1
	maxDurationDays = 30
)

// Action is the decoded, validated payload of a proposal. Each action type
// has its own parameter contract and its own handler.
type Action interface {
	Type() ActionType
	Validate() error
	// Params returns the canonical parameter map stored with the proposal
	Params() map[string]any
	apply(env *actionEnv) (map[string]any, error)
}

// NewAction returns an empty action of the given type
func NewAction(actionType ActionType) (Action, error) {
	switch actionType {
	case ActionUpdateProtocolFee:
		return &UpdateProtocolFee{}, nil
	case ActionUpdateClientFee:
		return &UpdateClientFee{}, nil
	case ActionTreasuryWithdrawal:
		return &TreasuryWithdrawal{}, nil
	case ActionEmergencyPause:
		return &EmergencyPause{}, nil
	case ActionEmergencyUnpause:
		return &EmergencyUnpause{}, nil
	case ActionAddSigner:
		return &AddSigner{}, nil
	case ActionRemoveSigner:
		return &RemoveSigner{}, nil
	case ActionUpdateEscrowDuration:
		return &UpdateEscrowDuration{}, nil
	case ActionUpdateDisputeWindow:
		return &UpdateDisputeWindow{}, nil
	case ActionSchemaMigration:
		return &SchemaMigration{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, string(actionType))
}

// DecodeAction decodes and validates the parameters of an action. Unknown
// parameter names are rejected.
func DecodeAction(actionType string, params map[string]any) (Action, error) {
	action, err := NewAction(ActionType(actionType))
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	buf, err := json.Marshal(params)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	if err := dec.Decode(action); err != nil {
		return nil, invalidParams("%s: %v", actionType, err)
	}
	if err := action.Validate(); err != nil {
		return nil, err
	}
	return action, nil
}

func validatePercentage(name string, value *decimal.Decimal, maxValue decimal.Decimal) error {
	if value == nil {
		return invalidParams("%s is required", name)
	}
	if value.IsNegative() || value.GreaterThan(maxValue) {
		return invalidParams(
			"%s must be between 0 and %s, got %s",
			name,
			maxValue.String(),
			value.String(),
		)
	}
	return nil
}

func validateDays(days *int) error {
	if days == nil {
		return invalidParams("days is required")
	}
	if *days < minDurationDays || *days > maxDurationDays {
		return invalidParams(
			"days must be between %d and %d, got %d",
			minDurationDays,
			maxDurationDays,
			*days,
		)
	}
	return nil
}

func requireText(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidParams("%s is required", name)
	}
	return nil
}

// UpdateProtocolFee sets the protocol fee percentage
type UpdateProtocolFee struct {
	Value *decimal.Decimal `json:"value"`
}

func (a *UpdateProtocolFee) Type() ActionType { return ActionUpdateProtocolFee }

func (a *UpdateProtocolFee) Validate() error {
	return validatePercentage("value", a.Value, maxProtocolFee)
}

func (a *UpdateProtocolFee) Params() map[string]any {
	return map[string]any{"value": a.Value.String()}
}

// UpdateClientFee sets the client fee percentage
type UpdateClientFee struct {
	Value *decimal.Decimal `json:"value"`
}

func (a *UpdateClientFee) Type() ActionType { return ActionUpdateClientFee }

func (a *UpdateClientFee) Validate() error {
	return validatePercentage("value", a.Value, maxClientFee)
}

func (a *UpdateClientFee) Params() map[string]any {
	return map[string]any{"value": a.Value.String()}
}

// TreasuryWithdrawal approves a payout. Settlement happens outside governance.
type TreasuryWithdrawal struct {
	Amount    *decimal.Decimal `json:"amount"`
	Currency  string           `json:"currency"`
	Recipient string           `json:"recipient"`
	Purpose   string           `json:"purpose"`
}

func (a *TreasuryWithdrawal) Type() ActionType { return ActionTreasuryWithdrawal }

func (a *TreasuryWithdrawal) Validate() error {
	if a.Amount == nil {
		return invalidParams("amount is required")
	}
	if !a.Amount.IsPositive() {
		return invalidParams("amount must be greater than 0, got %s", a.Amount.String())
	}
	if err := requireText("currency", a.Currency); err != nil {
		return err
	}
	if len(strings.TrimSpace(a.Currency)) > 16 {
		return invalidParams("currency must be at most 16 characters")
	}
	if err := requireText("recipient", a.Recipient); err != nil {
		return err
	}
	return requireText("purpose", a.Purpose)
}

func (a *TreasuryWithdrawal) Params() map[string]any {
	return map[string]any{
		"amount":    a.Amount.String(),
		"currency":  strings.ToUpper(strings.TrimSpace(a.Currency)),
		"recipient": strings.TrimSpace(a.Recipient),
		"purpose":   a.Purpose,
	}
}

// EmergencyPause halts the protocol
type EmergencyPause struct {
	Reason string `json:"reason,omitempty"`
}

func (a *EmergencyPause) Type() ActionType { return ActionEmergencyPause }

func (a *EmergencyPause) Validate() error { return nil }

func (a *EmergencyPause) Params() map[string]any {
	if a.Reason == "" {
		return map[string]any{}
	}
	return map[string]any{"reason": a.Reason}
}

// EmergencyUnpause resumes the protocol
type EmergencyUnpause struct{}

func (a *EmergencyUnpause) Type() ActionType { return ActionEmergencyUnpause }

func (a *EmergencyUnpause) Validate() error { return nil }

func (a *EmergencyUnpause) Params() map[string]any { return map[string]any{} }

// AddSigner admits a new council member
type AddSigner struct {
	SignerID  string `json:"signer_id"`
	Role      string `json:"role"`
	PublicKey string `json:"public_key"`
}

func (a *AddSigner) Type() ActionType { return ActionAddSigner }

func (a *AddSigner) Validate() error {
	if err := a.input().validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

func (a *AddSigner) input() SignerInput {
	return SignerInput{
		ID:        strings.TrimSpace(a.SignerID),
		Role:      strings.TrimSpace(a.Role),
		PublicKey: strings.TrimSpace(a.PublicKey),
	}
}

func (a *AddSigner) Params() map[string]any {
	in := a.input()
	return map[string]any{
		"signer_id":  in.ID,
		"role":       in.Role,
		"public_key": in.PublicKey,
	}
}

// RemoveSigner deactivates a council member
type RemoveSigner struct {
	SignerID string `json:"signer_id"`
	Reason   string `json:"reason"`
}

func (a *RemoveSigner) Type() ActionType { return ActionRemoveSigner }

func (a *RemoveSigner) Validate() error {
	if err := requireText("signer_id", a.SignerID); err != nil {
		return err
	}
	return requireText("reason", a.Reason)
}

func (a *RemoveSigner) Params() map[string]any {
	return map[string]any{
		"signer_id": strings.TrimSpace(a.SignerID),
		"reason":    a.Reason,
	}
}

// UpdateEscrowDuration sets how many days funds stay in escrow
type UpdateEscrowDuration struct {
	Days *int `json:"days"`
}

func (a *UpdateEscrowDuration) Type() ActionType { return ActionUpdateEscrowDuration }

func (a *UpdateEscrowDuration) Validate() error { return validateDays(a.Days) }

func (a *UpdateEscrowDuration) Params() map[string]any {
	return map[string]any{"days": *a.Days}
}

// UpdateDisputeWindow sets how many days buyers have to open a dispute
type UpdateDisputeWindow struct {
	Days *int `json:"days"`
}

func (a *UpdateDisputeWindow) Type() ActionType { return ActionUpdateDisputeWindow }

func (a *UpdateDisputeWindow) Validate() error { return validateDays(a.Days) }

func (a *UpdateDisputeWindow) Params() map[string]any {
	return map[string]any{"days": *a.Days}
}

// SchemaMigration records approval of a migration that operators apply by hand
type SchemaMigration struct {
	Migration   string `json:"migration"`
	Description string `json:"description"`
}

func (a *SchemaMigration) Type() ActionType { return ActionSchemaMigration }

func (a *SchemaMigration) Validate() error {
	return requireText("migration", a.Migration)
}

func (a *SchemaMigration) Params() map[string]any {
	return map[string]any{
		"migration":   strings.TrimSpace(a.Migration),
		"description": a.Description,
	}
}
