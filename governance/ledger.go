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
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/event"
)

const proposalNumberRetries = 3

// CreateProposalInput describes a new proposal. A nil VotingDurationHours
// uses the configured voting window.
type CreateProposalInput struct {
	Params              map[string]any
	VotingDurationHours *float64
	ActionType          string
	Rationale           string
	ProposedBy          string
}

type ProposalReceipt struct {
	VotingEndsAt      time.Time
	ID                string
	Number            string
	Status            string
	RequiredApprovals int
}

type VoteInput struct {
	ProposalID string
	SignerID   string
	Comment    string
	Signature  string
	Approved   bool
}

type VoteReceipt struct {
	VoteID            string
	ProposalStatus    string
	CurrentApprovals  int
	RequiredApprovals int
}

// ProposalSummary is a proposal together with the state of its vote
type ProposalSummary struct {
	Proposal           models.Proposal
	TimeRemainingHours *float64
	Approvals          []models.Approval
	Approvers          []string
	Rejectors          []string
	PendingSigners     []string
	CanExecute         bool
}

// Ledger records proposals and the votes cast on them
type Ledger struct {
	*core
}

func formatProposalNumber(seq uint) string {
	return fmt.Sprintf("GOV-%03d", seq)
}

func (l *Ledger) votingWindow(hours *float64) (time.Duration, error) {
	if hours == nil {
		return l.votingDuration, nil
	}
	h := *hours
	if math.IsNaN(h) || h <= 0 || h > MaxVotingDurationHours {
		return 0, ErrInvalidVotingDuration
	}
	return time.Duration(h * float64(time.Hour)), nil
}

// CreateProposal opens a proposal for voting. The proposer must be an active
// signer and the action parameters must validate; the required approvals are
// fixed from the roster at this moment.
func (l *Ledger) CreateProposal(
	ctx context.Context,
	input CreateProposalInput,
) (*ProposalReceipt, error) {
	proposedBy := strings.TrimSpace(input.ProposedBy)
	var proposal *models.Proposal
	var err error
	for range proposalNumberRetries {
		proposal, err = l.createProposal(ctx, proposedBy, input)
		if !errors.Is(err, models.ErrDuplicateProposalNumber) {
			break
		}
		l.logger.Debug("proposal number taken, retrying")
	}
	if err != nil {
		return nil, err
	}
	l.metrics.proposalCreated(ActionType(proposal.ActionType))
	l.publish(event.ProposalCreatedEventType, event.ProposalCreatedEvent{
		ProposalID:        proposal.ID,
		Number:            proposal.Number,
		ActionType:        proposal.ActionType,
		ProposedBy:        proposal.ProposedBy,
		RequiredApprovals: proposal.RequiredApprovals,
		VotingEndsAt:      proposal.VotingEndsAt,
	})
	l.logger.Info(
		"proposal created",
		"proposal", proposal.ID,
		"number", proposal.Number,
		"action", proposal.ActionType,
		"proposer", proposal.ProposedBy,
		"required_approvals", proposal.RequiredApprovals,
	)
	return &ProposalReceipt{
		ID:                proposal.ID,
		Number:            proposal.Number,
		Status:            proposal.Status,
		RequiredApprovals: proposal.RequiredApprovals,
		VotingEndsAt:      proposal.VotingEndsAt,
	}, nil
}

func (l *Ledger) createProposal(
	ctx context.Context,
	proposedBy string,
	input CreateProposalInput,
) (*models.Proposal, error) {
	var proposal *models.Proposal
	err := l.update(ctx, func(tx Tx) error {
		if _, err := requireActiveSigner(tx, proposedBy); err != nil {
			return err
		}
		action, err := DecodeAction(input.ActionType, input.Params)
		if err != nil {
			return err
		}
		duration, err := l.votingWindow(input.VotingDurationHours)
		if err != nil {
			return err
		}
		active, err := tx.CountActiveSigners()
		if err != nil {
			return err
		}
		seq, err := tx.NextProposalSequence()
		if err != nil {
			return err
		}
		now := l.now()
		proposal = &models.Proposal{
			ID:                uuid.NewString(),
			Sequence:          seq,
			Number:            formatProposalNumber(seq),
			ActionType:        string(action.Type()),
			Params:            action.Params(),
			Rationale:         input.Rationale,
			ProposedBy:        proposedBy,
			Status:            models.ProposalStatusActive,
			RequiredApprovals: quorumFor(active),
			VotingStartsAt:    now,
			VotingEndsAt:      now.Add(duration),
		}
		return tx.CreateProposal(proposal)
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// ListProposals returns proposals newest first, optionally filtered by status
func (l *Ledger) ListProposals(
	ctx context.Context,
	statuses ...string,
) ([]models.Proposal, error) {
	for _, status := range statuses {
		if !slices.Contains(ProposalStatuses, status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
	}
	var proposals []models.Proposal
	err := l.view(ctx, func(tx Tx) error {
		var err error
		proposals, err = tx.ListProposals(statuses...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// ProposalStatuses lists every proposal status
var ProposalStatuses = []string{
	models.ProposalStatusDraft,
	models.ProposalStatusActive,
	models.ProposalStatusApproved,
	models.ProposalStatusExecuted,
	models.ProposalStatusRejected,
	models.ProposalStatusExpired,
}

func (l *Ledger) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	var proposal *models.Proposal
	err := l.view(ctx, func(tx Tx) error {
		var err error
		proposal, err = tx.GetProposal(id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

func (l *Ledger) GetProposalSummary(
	ctx context.Context,
	id string,
) (*ProposalSummary, error) {
	summary := &ProposalSummary{
		Approvers:      []string{},
		Rejectors:      []string{},
		PendingSigners: []string{},
	}
	err := l.view(ctx, func(tx Tx) error {
		proposal, err := tx.GetProposal(id, false)
		if err != nil {
			return err
		}
		approvals, err := tx.ListApprovals(id)
		if err != nil {
			return err
		}
		signers, err := tx.ListActiveSigners()
		if err != nil {
			return err
		}
		summary.Proposal = *proposal
		summary.Approvals = approvals
		voted := make(map[string]struct{}, len(approvals))
		for _, a := range approvals {
			voted[a.SignerID] = struct{}{}
			if a.Approved {
				summary.Approvers = append(summary.Approvers, a.SignerID)
			} else {
				summary.Rejectors = append(summary.Rejectors, a.SignerID)
			}
		}
		for _, s := range signers {
			if _, ok := voted[s.ID]; !ok {
				summary.PendingSigners = append(summary.PendingSigners, s.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p := &summary.Proposal
	summary.CanExecute = p.Status == models.ProposalStatusApproved &&
		p.CurrentApprovals >= p.RequiredApprovals
	if remaining := p.VotingEndsAt.Sub(l.now()); remaining > 0 {
		hours := remaining.Hours()
		summary.TimeRemainingHours = &hours
	}
	return summary, nil
}

// SubmitVote records one vote per signer per proposal. Approving votes are
// recounted from storage and the proposal is approved once the count reaches
// its required approvals.
func (l *Ledger) SubmitVote(ctx context.Context, input VoteInput) (*VoteReceipt, error) {
	signerID := strings.TrimSpace(input.SignerID)
	var receipt VoteReceipt
	var proposal *models.Proposal
	var reachedQuorum bool
	err := l.update(ctx, func(tx Tx) error {
		signer, err := requireActiveSigner(tx, signerID)
		if err != nil {
			return err
		}
		payload := VotePayload(input.ProposalID, signerID, input.Approved)
		if err := l.verifier.Verify(signer, payload, input.Signature); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}
		proposal, err = tx.GetProposal(input.ProposalID, true)
		if err != nil {
			return err
		}
		if proposal.Status != models.ProposalStatusActive {
			return fmt.Errorf("%w: status is %s", ErrProposalNotActive, proposal.Status)
		}
		now := l.now()
		if now.After(proposal.VotingEndsAt) {
			return ErrVotingClosed
		}
		voted, err := tx.HasApproval(proposal.ID, signerID)
		if err != nil {
			return err
		}
		if voted {
			return ErrDuplicateVote
		}
		approval := &models.Approval{
			ID:         uuid.NewString(),
			ProposalID: proposal.ID,
			SignerID:   signerID,
			Approved:   input.Approved,
			Signature:  input.Signature,
			Comment:    input.Comment,
			CreatedAt:  now,
		}
		if err := tx.CreateApproval(approval); err != nil {
			return err
		}
		receipt.VoteID = approval.ID
		if input.Approved {
			count, err := tx.CountApprovals(proposal.ID, true)
			if err != nil {
				return err
			}
			if err := tx.SetProposalApprovals(proposal.ID, count); err != nil {
				return err
			}
			proposal.CurrentApprovals = count
			if count >= proposal.RequiredApprovals {
				ok, err := tx.TransitionProposal(
					proposal.ID,
					models.ProposalStatusActive,
					models.ProposalStatusApproved,
					map[string]any{"approved_at": now},
				)
				if err != nil {
					return err
				}
				if !ok {
					return ErrProposalNotActive
				}
				proposal.Status = models.ProposalStatusApproved
				proposal.ApprovedAt = &now
				reachedQuorum = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	receipt.ProposalStatus = proposal.Status
	receipt.CurrentApprovals = proposal.CurrentApprovals
	receipt.RequiredApprovals = proposal.RequiredApprovals
	l.metrics.voteRecorded(input.Approved, reachedQuorum)
	l.publish(event.VoteSubmittedEventType, event.VoteSubmittedEvent{
		ProposalID:        proposal.ID,
		VoteID:            receipt.VoteID,
		SignerID:          signerID,
		Approved:          input.Approved,
		ProposalStatus:    proposal.Status,
		CurrentApprovals:  proposal.CurrentApprovals,
		RequiredApprovals: proposal.RequiredApprovals,
	})
	l.logger.Info(
		"vote recorded",
		"proposal", proposal.ID,
		"signer", signerID,
		"approved", input.Approved,
		"current_approvals", proposal.CurrentApprovals,
		"required_approvals", proposal.RequiredApprovals,
	)
	if reachedQuorum {
		l.publish(event.ProposalApprovedEventType, event.ProposalApprovedEvent{
			ProposalID:        proposal.ID,
			Number:            proposal.Number,
			CurrentApprovals:  proposal.CurrentApprovals,
			RequiredApprovals: proposal.RequiredApprovals,
		})
		l.logger.Info("proposal approved", "proposal", proposal.ID, "number", proposal.Number)
	}
	return &receipt, nil
}

// ExpireOldProposals closes every active proposal whose voting window has
// elapsed. Rejections never close a proposal early; only expiry does.
func (l *Ledger) ExpireOldProposals(ctx context.Context) ([]models.Proposal, error) {
	var expired []models.Proposal
	err := l.update(ctx, func(tx Tx) error {
		expired = expired[:0]
		now := l.now()
		candidates, err := tx.ListExpirableProposals(now)
		if err != nil {
			return err
		}
		for _, p := range candidates {
			ok, err := tx.TransitionProposal(
				p.ID,
				models.ProposalStatusActive,
				models.ProposalStatusExpired,
				map[string]any{"expired_at": now},
			)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			p.Status = models.ProposalStatusExpired
			p.ExpiredAt = &now
			expired = append(expired, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		l.metrics.proposalsExpired(len(expired))
		l.logger.Info("proposals expired", "count", len(expired))
	}
	for _, p := range expired {
		l.publish(event.ProposalExpiredEventType, event.ProposalExpiredEvent{
			ProposalID:   p.ID,
			Number:       p.Number,
			VotingEndsAt: p.VotingEndsAt,
		})
	}
	return expired, nil
}
