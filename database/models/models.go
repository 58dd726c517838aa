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

package models

import "errors"

var (
	ErrSignerNotFound    = errors.New("signer not found")
	ErrProposalNotFound  = errors.New("proposal not found")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrParameterNotFound = errors.New("protocol parameter not found")

	// ErrDuplicateApproval is returned when the (proposal, signer) unique
	// index rejects a second approval row
	ErrDuplicateApproval = errors.New("approval already recorded for signer")

	// ErrDuplicateSigner is returned when a signer ID already exists
	ErrDuplicateSigner = errors.New("signer already exists")

	// ErrDuplicateProposalNumber is returned when two proposals race for the
	// same sequence number
	ErrDuplicateProposalNumber = errors.New("proposal number already taken")

	// ErrCouncilInitialized is returned when the genesis row already exists
	ErrCouncilInitialized = errors.New("council already initialized")

	// ErrDuplicateTreasuryMovement is returned when a proposal already has
	// a recorded treasury movement
	ErrDuplicateTreasuryMovement = errors.New(
		"treasury movement already recorded for proposal",
	)
)

// MigrateModels contains a list of model objects that should have DB migrations applied
var MigrateModels = []any{
	&Approval{},
	&CouncilGenesis{},
	&Execution{},
	&Proposal{},
	&ProtocolParameter{},
	&Signer{},
	&TreasuryMovement{},
}
