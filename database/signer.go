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

// GetSigner returns a signer by ID regardless of its active flag
func (t *Txn) GetSigner(id string) (*models.Signer, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret models.Signer
	if result := db.Where("id = ?", id).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrSignerNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListActiveSigners returns the active signers in join order
func (t *Txn) ListActiveSigners() ([]models.Signer, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret []models.Signer
	result := db.Where("active = ?", true).
		Order("joined_at ASC").
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountActiveSigners returns the number of active signers
func (t *Txn) CountActiveSigners() (int, error) {
	db, err := t.handle()
	if err != nil {
		return 0, err
	}
	var count int64
	result := db.Model(&models.Signer{}).
		Where("active = ?", true).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(count), nil
}

// CreateSigner inserts a new signer. The primary key rejects reused IDs.
func (t *Txn) CreateSigner(signer *models.Signer) error {
	db, err := t.handle()
	if err != nil {
		return err
	}
	if result := db.Create(signer); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return models.ErrDuplicateSigner
		}
		return result.Error
	}
	return nil
}

// DeactivateSigner marks an active signer as removed. It reports false when
// the signer was not active.
func (t *Txn) DeactivateSigner(
	id string,
	reason string,
	proposalID string,
	removedAt time.Time,
) (bool, error) {
	db, err := t.handle()
	if err != nil {
		return false, err
	}
	result := db.Model(&models.Signer{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{
			"active":                 false,
			"removed_at":             removedAt,
			"removal_reason":         reason,
			"removed_by_proposal_id": proposalID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreateCouncilGenesis records the council bootstrap. A second bootstrap
// returns models.ErrCouncilInitialized.
func (t *Txn) CreateCouncilGenesis(genesis *models.CouncilGenesis) error {
	db, err := t.handle()
	if err != nil {
		return err
	}
	genesis.ID = models.CouncilGenesisID
	if result := db.Create(genesis); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return models.ErrCouncilInitialized
		}
		return result.Error
	}
	return nil
}
