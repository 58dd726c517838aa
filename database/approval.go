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
	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

// CreateApproval records a vote. The (proposal_id, signer_id) unique index
// turns a second vote by the same signer into models.ErrDuplicateApproval.
func (t *Txn) CreateApproval(approval *models.Approval) error {
	db, err := t.handle()
	if err != nil {
		return err
	}
	if result := db.Create(approval); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return models.ErrDuplicateApproval
		}
		return result.Error
	}
	return nil
}

// HasApproval reports whether the signer already voted on the proposal
func (t *Txn) HasApproval(proposalID, signerID string) (bool, error) {
	db, err := t.handle()
	if err != nil {
		return false, err
	}
	var count int64
	result := db.Model(&models.Approval{}).
		Where("proposal_id = ? AND signer_id = ?", proposalID, signerID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// ListApprovals returns all votes on a proposal in the order they were cast
func (t *Txn) ListApprovals(proposalID string) ([]models.Approval, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret []models.Approval
	result := db.Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountApprovals counts the votes on a proposal with the given outcome
func (t *Txn) CountApprovals(proposalID string, approved bool) (int, error) {
	db, err := t.handle()
	if err != nil {
		return 0, err
	}
	var count int64
	result := db.Model(&models.Approval{}).
		Where("proposal_id = ? AND approved = ?", proposalID, approved).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(count), nil
}
