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
	"time"

	"github.com/rangkai-protocol/rangkai-gov/database"
	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

// SignerStore is the signer roster as seen from inside a transaction
type SignerStore interface {
	GetSigner(id string) (*models.Signer, error)
	ListActiveSigners() ([]models.Signer, error)
	CountActiveSigners() (int, error)
	CreateSigner(signer *models.Signer) error
	DeactivateSigner(id, reason, proposalID string, removedAt time.Time) (bool, error)
	CreateCouncilGenesis(genesis *models.CouncilGenesis) error
}

// ProposalStore holds proposals and their votes
type ProposalStore interface {
	CreateProposal(proposal *models.Proposal) error
	NextProposalSequence() (uint, error)
	GetProposal(id string, forUpdate bool) (*models.Proposal, error)
	ListProposals(statuses ...string) ([]models.Proposal, error)
	ListExpirableProposals(now time.Time) ([]models.Proposal, error)
	TransitionProposal(id, from, to string, updates map[string]any) (bool, error)
	SetProposalApprovals(id string, count int) error
	CreateApproval(approval *models.Approval) error
	HasApproval(proposalID, signerID string) (bool, error)
	ListApprovals(proposalID string) ([]models.Approval, error)
	CountApprovals(proposalID string, approved bool) (int, error)
}

// ExecutionStore holds the execution audit trail
type ExecutionStore interface {
	CreateExecution(execution *models.Execution) error
	SaveExecution(execution *models.Execution) error
	GetExecution(id string) (*models.Execution, error)
	ListExecutions(proposalID string) ([]models.Execution, error)
}

// ParameterStore holds the protocol parameters written by executions
type ParameterStore interface {
	GetParameter(name string) (*models.ProtocolParameter, error)
	ListParameters() ([]models.ProtocolParameter, error)
	SeedParameters(params []models.ProtocolParameter) error
	SetParameter(name, valueType, value, proposalID string, updatedAt time.Time) (bool, error)
}

// TreasuryStore records approved treasury withdrawals
type TreasuryStore interface {
	CreateTreasuryMovement(movement *models.TreasuryMovement) error
	GetTreasuryMovementByProposal(proposalID string) (*models.TreasuryMovement, error)
	ListTreasuryMovements() ([]models.TreasuryMovement, error)
}

// Tx is a transaction over every governance store
type Tx interface {
	SignerStore
	ProposalStore
	ExecutionStore
	ParameterStore
	TreasuryStore
}

// Store runs functions inside transactions. Update commits when fn returns
// nil and rolls back otherwise. View never commits.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

type databaseStore struct {
	db *database.Database
}

// NewDatabaseStore adapts a Database to the Store interface
func NewDatabaseStore(db *database.Database) Store {
	return &databaseStore{db: db}
}

func (s *databaseStore) Update(ctx context.Context, fn func(Tx) error) error {
	return s.db.Update(ctx, func(txn *database.Txn) error {
		return fn(txn)
	})
}

func (s *databaseStore) View(ctx context.Context, fn func(Tx) error) error {
	return s.db.View(ctx, func(txn *database.Txn) error {
		return fn(txn)
	})
}

var _ Tx = (*database.Txn)(nil)
