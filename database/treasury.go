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

	"gorm.io/gorm"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

// CreateTreasuryMovement records an approved withdrawal. A second movement
// for the same proposal returns models.ErrDuplicateTreasuryMovement.
func (t *Txn) CreateTreasuryMovement(movement *models.TreasuryMovement) error {
	db, err := t.handle()
	if err != nil {
		return err
	}
	if result := db.Create(movement); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return models.ErrDuplicateTreasuryMovement
		}
		return result.Error
	}
	return nil
}

// GetTreasuryMovementByProposal returns the movement recorded for a proposal,
// or nil when there is none
func (t *Txn) GetTreasuryMovementByProposal(
	proposalID string,
) (*models.TreasuryMovement, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret models.TreasuryMovement
	result := db.Where("proposal_id = ?", proposalID).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListTreasuryMovements returns all recorded movements, oldest first
func (t *Txn) ListTreasuryMovements() ([]models.TreasuryMovement, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret []models.TreasuryMovement
	result := db.Order("created_at ASC").Order("id ASC").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
