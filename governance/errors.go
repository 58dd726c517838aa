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
	"fmt"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

// Error categories. Every error returned by this package wraps exactly one of
// these so callers can decide between rejecting, refreshing and retrying.
var (
	ErrAuthorization    = errors.New("not authorized")
	ErrValidation       = errors.New("invalid request")
	ErrStateConflict    = errors.New("state conflict")
	ErrNotFound         = errors.New("not found")
	ErrExecutionFailure = errors.New("execution failed")
	ErrPersistence      = errors.New("storage unavailable")
)

var (
	ErrNotActiveSigner  = fmt.Errorf("%w: caller is not an active signer", ErrAuthorization)
	ErrInvalidSignature = fmt.Errorf("%w: vote signature rejected", ErrAuthorization)

	ErrCouncilSize           = fmt.Errorf("%w: council bootstrap requires exactly %d signers", ErrValidation, CouncilSize)
	ErrUnknownAction         = fmt.Errorf("%w: unknown action type", ErrValidation)
	ErrInvalidParams         = fmt.Errorf("%w: invalid action parameters", ErrValidation)
	ErrInvalidVotingDuration = fmt.Errorf("%w: voting duration must be greater than 0 and at most %d hours", ErrValidation, MaxVotingDurationHours)
	ErrInvalidSigner         = fmt.Errorf("%w: invalid signer", ErrValidation)

	ErrCouncilInitialized  = fmt.Errorf("%w: council already initialized", ErrStateConflict)
	ErrSignerExists        = fmt.Errorf("%w: signer already exists", ErrStateConflict)
	ErrSignerInactive      = fmt.Errorf("%w: signer already inactive", ErrStateConflict)
	ErrSignerFloor         = fmt.Errorf("%w: removal would leave %d or fewer active signers", ErrStateConflict, MinActiveSigners)
	ErrProposalNotActive   = fmt.Errorf("%w: proposal is not open for voting", ErrStateConflict)
	ErrVotingClosed        = fmt.Errorf("%w: voting window has closed", ErrStateConflict)
	ErrDuplicateVote       = fmt.Errorf("%w: signer already voted on this proposal", ErrStateConflict)
	ErrProposalNotApproved = fmt.Errorf("%w: proposal is not approved", ErrStateConflict)
	ErrQuorumNotMet        = fmt.Errorf("%w: proposal has not reached quorum", ErrStateConflict)
	ErrConcurrentExecution = fmt.Errorf("%w: proposal was executed concurrently", ErrStateConflict)

	ErrSignerNotFound    = fmt.Errorf("%w: signer", ErrNotFound)
	ErrProposalNotFound  = fmt.Errorf("%w: proposal", ErrNotFound)
	ErrParameterNotFound = fmt.Errorf("%w: protocol parameter", ErrNotFound)
)

var categories = []error{
	ErrAuthorization,
	ErrValidation,
	ErrStateConflict,
	ErrNotFound,
	ErrExecutionFailure,
	ErrPersistence,
}

// classify maps storage errors onto the governance taxonomy. Errors that are
// already categorized pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, category := range categories {
		if errors.Is(err, category) {
			return err
		}
	}
	switch {
	case errors.Is(err, models.ErrSignerNotFound):
		return ErrSignerNotFound
	case errors.Is(err, models.ErrProposalNotFound):
		return ErrProposalNotFound
	case errors.Is(err, models.ErrParameterNotFound):
		return ErrParameterNotFound
	case errors.Is(err, models.ErrDuplicateApproval):
		return ErrDuplicateVote
	case errors.Is(err, models.ErrDuplicateSigner):
		return ErrSignerExists
	case errors.Is(err, models.ErrCouncilInitialized):
		return ErrCouncilInitialized
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func invalidParams(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}
