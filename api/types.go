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

package api

import (
	"time"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/governance"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Execution *ExecutionResponse `json:"execution,omitempty"`
	RequestID string             `json:"request_id"`
	Error     ErrorBody          `json:"error"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type SignerResponse struct {
	JoinedAt            time.Time  `json:"joined_at"`
	RemovedAt           *time.Time `json:"removed_at,omitempty"`
	ID                  string     `json:"id"`
	Role                string     `json:"role"`
	PublicKey           string     `json:"public_key,omitempty"`
	RemovalReason       string     `json:"removal_reason,omitempty"`
	AddedByProposalID   string     `json:"added_by_proposal_id,omitempty"`
	RemovedByProposalID string     `json:"removed_by_proposal_id,omitempty"`
	Active              bool       `json:"active"`
}

type QuorumResponse struct {
	ActiveSigners     int `json:"active_signers"`
	RequiredApprovals int `json:"required_approvals"`
}

type CreateProposalRequest struct {
	Params              map[string]any `json:"params"`
	VotingDurationHours *float64       `json:"voting_duration_hours,omitempty"`
	ActionType          string         `json:"action_type"`
	Rationale           string         `json:"rationale"`
}

type CreateProposalResponse struct {
	VotingEndsAt      time.Time `json:"voting_ends_at"`
	ID                string    `json:"id"`
	Number            string    `json:"number"`
	Status            string    `json:"status"`
	RequiredApprovals int       `json:"required_approvals"`
}

type ProposalResponse struct {
	VotingStartsAt    time.Time      `json:"voting_starts_at"`
	VotingEndsAt      time.Time      `json:"voting_ends_at"`
	CreatedAt         time.Time      `json:"created_at"`
	ApprovedAt        *time.Time     `json:"approved_at,omitempty"`
	ExecutedAt        *time.Time     `json:"executed_at,omitempty"`
	ExpiredAt         *time.Time     `json:"expired_at,omitempty"`
	Params            map[string]any `json:"params"`
	ID                string         `json:"id"`
	Number            string         `json:"number"`
	ActionType        string         `json:"action_type"`
	Rationale         string         `json:"rationale"`
	ProposedBy        string         `json:"proposed_by"`
	Status            string         `json:"status"`
	RequiredApprovals int            `json:"required_approvals"`
	CurrentApprovals  int            `json:"current_approvals"`
}

type ApprovalResponse struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	SignerID  string    `json:"signer_id"`
	Signature string    `json:"signature,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Approved  bool      `json:"approved"`
}

type ProposalSummaryResponse struct {
	TimeRemainingHours *float64           `json:"time_remaining_hours,omitempty"`
	Approvals          []ApprovalResponse `json:"approvals"`
	Approvers          []string           `json:"approvers"`
	Rejectors          []string           `json:"rejectors"`
	PendingSigners     []string           `json:"pending_signers"`
	Proposal           ProposalResponse   `json:"proposal"`
	CanExecute         bool               `json:"can_execute"`
}

type VoteRequest struct {
	Approved  *bool  `json:"approved"`
	Comment   string `json:"comment,omitempty"`
	Signature string `json:"signature,omitempty"`
}

type VoteResponse struct {
	VoteID            string `json:"vote_id"`
	ProposalStatus    string `json:"proposal_status"`
	CurrentApprovals  int    `json:"current_approvals"`
	RequiredApprovals int    `json:"required_approvals"`
}

type ExecutionResponse struct {
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	ID          string         `json:"execution_id"`
	ProposalID  string         `json:"proposal_id"`
	ActionType  string         `json:"action_type"`
	ExecutedBy  string         `json:"executed_by"`
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
}

type ExpireResponse struct {
	Expired []ProposalResponse `json:"expired"`
}

type ParameterResponse struct {
	UpdatedAt           time.Time `json:"updated_at"`
	PreviousValue       *string   `json:"previous_value,omitempty"`
	Name                string    `json:"name"`
	Value               string    `json:"value"`
	ValueType           string    `json:"value_type"`
	UpdatedByProposalID string    `json:"updated_by_proposal_id,omitempty"`
}

type ProtocolStatusResponse struct {
	Paused bool `json:"paused"`
}

type TreasuryMovementResponse struct {
	CreatedAt  time.Time `json:"created_at"`
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Recipient  string    `json:"recipient"`
	Purpose    string    `json:"purpose"`
	Status     string    `json:"status"`
}

func NewSignerResponse(s *models.Signer) SignerResponse {
	return SignerResponse{
		ID:                  s.ID,
		Role:                s.Role,
		PublicKey:           s.PublicKey,
		Active:              s.Active,
		JoinedAt:            s.JoinedAt,
		RemovedAt:           s.RemovedAt,
		RemovalReason:       s.RemovalReason,
		AddedByProposalID:   s.AddedByProposalID,
		RemovedByProposalID: s.RemovedByProposalID,
	}
}

func NewProposalResponse(p *models.Proposal) ProposalResponse {
	params := map[string]any(p.Params)
	if params == nil {
		params = map[string]any{}
	}
	return ProposalResponse{
		ID:                p.ID,
		Number:            p.Number,
		ActionType:        p.ActionType,
		Params:            params,
		Rationale:         p.Rationale,
		ProposedBy:        p.ProposedBy,
		Status:            p.Status,
		RequiredApprovals: p.RequiredApprovals,
		CurrentApprovals:  p.CurrentApprovals,
		VotingStartsAt:    p.VotingStartsAt,
		VotingEndsAt:      p.VotingEndsAt,
		CreatedAt:         p.CreatedAt,
		ApprovedAt:        p.ApprovedAt,
		ExecutedAt:        p.ExecutedAt,
		ExpiredAt:         p.ExpiredAt,
	}
}

func NewProposalsResponse(proposals []models.Proposal) []ProposalResponse {
	ret := make([]ProposalResponse, 0, len(proposals))
	for i := range proposals {
		ret = append(ret, NewProposalResponse(&proposals[i]))
	}
	return ret
}

func NewSummaryResponse(s *governance.ProposalSummary) ProposalSummaryResponse {
	approvals := make([]ApprovalResponse, 0, len(s.Approvals))
	for _, a := range s.Approvals {
		approvals = append(approvals, ApprovalResponse{
			ID:        a.ID,
			SignerID:  a.SignerID,
			Approved:  a.Approved,
			Signature: a.Signature,
			Comment:   a.Comment,
			CreatedAt: a.CreatedAt,
		})
	}
	return ProposalSummaryResponse{
		Proposal:           NewProposalResponse(&s.Proposal),
		Approvals:          approvals,
		Approvers:          s.Approvers,
		Rejectors:          s.Rejectors,
		PendingSigners:     s.PendingSigners,
		CanExecute:         s.CanExecute,
		TimeRemainingHours: s.TimeRemainingHours,
	}
}

func NewExecutionResponse(e *models.Execution) *ExecutionResponse {
	return &ExecutionResponse{
		ID:          e.ID,
		ProposalID:  e.ProposalID,
		ActionType:  e.ActionType,
		ExecutedBy:  e.ExecutedBy,
		Status:      e.Status,
		Result:      e.Result,
		Error:       e.Error,
		StartedAt:   e.StartedAt,
		CompletedAt: e.CompletedAt,
	}
}

func NewParameterResponse(p *models.ProtocolParameter) ParameterResponse {
	return ParameterResponse{
		Name:                p.Name,
		Value:               p.Value,
		ValueType:           p.ValueType,
		PreviousValue:       p.PreviousValue,
		UpdatedByProposalID: p.UpdatedByProposalID,
		UpdatedAt:           p.UpdatedAt,
	}
}

func NewTreasuryMovementResponse(m *models.TreasuryMovement) TreasuryMovementResponse {
	return TreasuryMovementResponse{
		ID:         m.ID,
		ProposalID: m.ProposalID,
		Amount:     m.Amount.String(),
		Currency:   m.Currency,
		Recipient:  m.Recipient,
		Purpose:    m.Purpose,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
	}
}
