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

package database

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

// CreateProposal inserts a new proposal. Losing a race for the sequence
// number returns models.ErrDuplicateProposalNumber.
func (t *Txn) CreateProposal(proposal *models.Proposal) error {
	db, err := t.handle()
	if err != nil {
		return err
	}
	if result := db.Create(proposal); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return models.ErrDuplicateProposalNumber
		}
		return result.Error
	}
	return nil
}

// NextProposalSequence returns the sequence number for the next proposal
func (t *Txn) NextProposalSequence() (uint, error) {
	db, err := t.handle()
	if err != nil {
		return 0, err
	}
	var maxSeq int64
	err = db.Model(&models.Proposal{}).
		Select("COALESCE(MAX(sequence), 0)").
		Row().
		Scan(&maxSeq)
	if err != nil {
		return 0, err
	}
	return uint(maxSeq) + 1, nil
}

// GetProposal returns a proposal by ID. With forUpdate the row stays locked
// until the transaction ends on backends that support row locks.
func (t *Txn) GetProposal(id string, forUpdate bool) (*models.Proposal, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	if forUpdate {
		db = lockForUpdate(db)
	}
	var ret models.Proposal
	if result := db.Where("id = ?", id).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrProposalNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListProposals returns proposals newest first, optionally limited to the
// given statuses
func (t *Txn) ListProposals(statuses ...string) ([]models.Proposal, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	query := db.Order("sequence DESC")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var ret []models.Proposal
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// ListExpirableProposals returns active proposals whose voting window ended
// before now. The comparison happens here rather than in SQL because SQLite
// stores timestamps as text.
func (t *Txn) ListExpirableProposals(now time.Time) ([]models.Proposal, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var active []models.Proposal
	result := db.Where("status = ?", models.ProposalStatusActive).
		Order("sequence ASC").
		Find(&active)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make([]models.Proposal, 0, len(active))
	for _, p := range active {
		if p.VotingEndsAt.Before(now) {
			ret = append(ret, p)
		}
	}
	return ret, nil
}

// TransitionProposal moves a proposal from one status to another and applies
// the extra column updates. It reports false when the proposal was no longer
// in the expected status.
func (t *Txn) TransitionProposal(
	id string,
	from string,
	to string,
	updates map[string]any,
) (bool, error) {
	db, err := t.handle()
	if err != nil {
		return false, err
	}
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["status"] = to
	result := db.Model(&models.Proposal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetProposalApprovals stores the recounted number of approving votes
func (t *Txn) SetProposalApprovals(id string, count int) error {
	db, err := t.handle()
	if err != nil {
		return err
	}
	result := db.Model(&models.Proposal{}).
		Where("id = ?", id).
		Update("current_approvals", count)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrProposalNotFound
	}
	return nil
}
