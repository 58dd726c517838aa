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
	"gorm.io/gorm/clause"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

// GetParameter returns a protocol parameter by name
func (t *Txn) GetParameter(name string) (*models.ProtocolParameter, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret models.ProtocolParameter
	if result := db.Where("name = ?", name).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrParameterNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListParameters returns all protocol parameters ordered by name
func (t *Txn) ListParameters() ([]models.ProtocolParameter, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret []models.ProtocolParameter
	if result := db.Order("name ASC").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SeedParameters inserts the given parameters, leaving existing rows alone
func (t *Txn) SeedParameters(params []models.ProtocolParameter) error {
	if len(params) == 0 {
		return nil
	}
	db, err := t.handle()
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&params).Error
}

// SetParameter sets a parameter to value. Writing the value it already holds
// changes nothing, so the stored previous value survives a repeated write.
// It reports whether the stored value changed.
func (t *Txn) SetParameter(
	name string,
	valueType string,
	value string,
	proposalID string,
	updatedAt time.Time,
) (bool, error) {
	db, err := t.handle()
	if err != nil {
		return false, err
	}
	current, err := t.GetParameter(name)
	if err != nil {
		if !errors.Is(err, models.ErrParameterNotFound) {
			return false, err
		}
		param := &models.ProtocolParameter{
			Name:                name,
			Value:               value,
			ValueType:           valueType,
			UpdatedByProposalID: proposalID,
			UpdatedAt:           updatedAt,
		}
		if result := db.Create(param); result.Error != nil {
			return false, result.Error
		}
		return true, nil
	}
	if current.Value == value {
		return false, nil
	}
	previous := current.Value
	result := db.Model(&models.ProtocolParameter{}).
		Where("name = ? AND value = ?", name, current.Value).
		Updates(map[string]any{
			"value":                  value,
			"value_type":             valueType,
			"previous_value":         previous,
			"updated_by_proposal_id": proposalID,
			"updated_at":             updatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
