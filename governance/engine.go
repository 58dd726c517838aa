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
	"strings"

	"github.com/google/uuid"
	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/event"
)

// handlerError marks a failure raised by an action handler, as opposed to a
// failure of the surrounding bookkeeping
type handlerError struct {
	err error
}

func (e *handlerError) Error() string {
	return e.err.Error()
}

func (e *handlerError) Unwrap() error {
	return e.err
}

// Engine applies approved proposals
type Engine struct {
	*core
}

// ExecuteProposal applies an approved proposal's action. A pending execution
// record is committed first. The handler's writes, the success record and the
// approved to executed transition then commit together or not at all. When
// the handler fails the record is marked failed, the proposal stays approved
// and the returned error wraps ErrExecutionFailure.
func (e *Engine) ExecuteProposal(
	ctx context.Context,
	proposalID string,
	executorID string,
) (*models.Execution, error) {
	executorID = strings.TrimSpace(executorID)
	var exec *models.Execution
	err := e.update(ctx, func(tx Tx) error {
		if _, err := requireActiveSigner(tx, executorID); err != nil {
			return err
		}
		proposal, err := tx.GetProposal(proposalID, true)
		if err != nil {
			return err
		}
		if proposal.Status != models.ProposalStatusApproved {
			return fmt.Errorf(
				"%w: status is %s",
				ErrProposalNotApproved,
				proposal.Status,
			)
		}
		if proposal.CurrentApprovals < proposal.RequiredApprovals {
			return fmt.Errorf(
				"%w: %d of %d approvals",
				ErrQuorumNotMet,
				proposal.CurrentApprovals,
				proposal.RequiredApprovals,
			)
		}
		exec = &models.Execution{
			ID:         uuid.NewString(),
			ProposalID: proposal.ID,
			ActionType: proposal.ActionType,
			Params:     proposal.Params.Clone(),
			ExecutedBy: executorID,
			Status:     models.ExecutionStatusPending,
			StartedAt:  e.now(),
		}
		return tx.CreateExecution(exec)
	})
	if err != nil {
		return nil, err
	}

	var action Action
	err = e.update(ctx, func(tx Tx) error {
		proposal, err := tx.GetProposal(proposalID, true)
		if err != nil {
			return err
		}
		if proposal.Status != models.ProposalStatusApproved {
			return ErrConcurrentExecution
		}
		action, err = DecodeAction(proposal.ActionType, proposal.Params)
		if err != nil {
			return &handlerError{err: err}
		}
		now := e.now()
		result, err := action.apply(&actionEnv{
			now:        now,
			params:     tx,
			signers:    tx,
			treasury:   tx,
			proposalID: proposal.ID,
			executedBy: executorID,
		})
		if err != nil {
			return &handlerError{err: err}
		}
		exec.Status = models.ExecutionStatusSuccess
		exec.Result = result
		exec.CompletedAt = &now
		if err := tx.SaveExecution(exec); err != nil {
			return err
		}
		ok, err := tx.TransitionProposal(
			proposal.ID,
			models.ProposalStatusApproved,
			models.ProposalStatusExecuted,
			map[string]any{"executed_at": now},
		)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConcurrentExecution
		}
		return nil
	})
	if err != nil {
		return e.executionFailed(ctx, exec, err)
	}

	e.metrics.executionFinished(exec.ActionType, exec.Status)
	e.publish(event.ProposalExecutedEventType, event.ProposalExecutedEvent{
		ProposalID:  exec.ProposalID,
		ExecutionID: exec.ID,
		ActionType:  exec.ActionType,
		ExecutedBy:  exec.ExecutedBy,
		Result:      exec.Result,
	})
	e.rosterChanged(action, exec)
	e.logger.Info(
		"proposal executed",
		"proposal", exec.ProposalID,
		"execution", exec.ID,
		"action", exec.ActionType,
		"executor", exec.ExecutedBy,
	)
	return exec, nil
}

// executionFailed records the failed attempt. Only handler failures are
// reported as execution failures; anything else keeps its own category.
func (e *Engine) executionFailed(
	ctx context.Context,
	exec *models.Execution,
	cause error,
) (*models.Execution, error) {
	var herr *handlerError
	isHandlerErr := errors.As(cause, &herr)
	if isHandlerErr {
		cause = fmt.Errorf("%w: %w", ErrExecutionFailure, classify(herr.err))
	}
	now := e.now()
	exec.Status = models.ExecutionStatusFailed
	exec.Result = nil
	exec.Error = cause.Error()
	exec.CompletedAt = &now
	if err := e.update(ctx, func(tx Tx) error {
		return tx.SaveExecution(exec)
	}); err != nil {
		e.logger.Error(
			"failed to record execution failure",
			"execution", exec.ID,
			"error", err,
		)
		cause = errors.Join(cause, err)
	}
	e.metrics.executionFinished(exec.ActionType, exec.Status)
	e.publish(event.ExecutionFailedEventType, event.ExecutionFailedEvent{
		ProposalID:  exec.ProposalID,
		ExecutionID: exec.ID,
		ActionType:  exec.ActionType,
		ExecutedBy:  exec.ExecutedBy,
		Error:       exec.Error,
	})
	e.logger.Warn(
		"proposal execution failed",
		"proposal", exec.ProposalID,
		"execution", exec.ID,
		"action", exec.ActionType,
		"error", exec.Error,
	)
	if !isHandlerErr {
		return nil, cause
	}
	return exec, cause
}

func (e *Engine) rosterChanged(action Action, exec *models.Execution) {
	if changed, _ := exec.Result["changed"].(bool); !changed {
		return
	}
	switch a := action.(type) {
	case *AddSigner:
		in := a.input()
		e.signerChanged(&models.Signer{
			ID:     in.ID,
			Role:   in.Role,
			Active: true,
		}, exec.ProposalID, "")
	case *RemoveSigner:
		role, _ := exec.Result["role"].(string)
		e.signerChanged(&models.Signer{
			ID:   strings.TrimSpace(a.SignerID),
			Role: role,
		}, exec.ProposalID, a.Reason)
	}
}

// GetExecution returns one execution record
func (e *Engine) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	var exec *models.Execution
	err := e.view(ctx, func(tx Tx) error {
		var err error
		exec, err = tx.GetExecution(id)
		if errors.Is(err, models.ErrExecutionNotFound) {
			return fmt.Errorf("%w: execution", ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return exec, nil
}

// ListExecutions returns the execution attempts of a proposal, oldest first
func (e *Engine) ListExecutions(
	ctx context.Context,
	proposalID string,
) ([]models.Execution, error) {
	var execs []models.Execution
	err := e.view(ctx, func(tx Tx) error {
		if _, err := tx.GetProposal(proposalID, false); err != nil {
			return err
		}
		var err error
		execs, err = tx.ListExecutions(proposalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return execs, nil
}

// TreasuryMovements returns the approved treasury movements
func (e *Engine) TreasuryMovements(ctx context.Context) ([]models.TreasuryMovement, error) {
	var movements []models.TreasuryMovement
	err := e.view(ctx, func(tx Tx) error {
		var err error
		movements, err = tx.ListTreasuryMovements()
		return err
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}
