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

// CreateExecution inserts an execution record
func (t *Txn) CreateExecution(execution *models.Execution) error {
	db, err := t.handle()
	if err != nil {
		return err
	}
	return db.Create(execution).Error
}

// SaveExecution writes every column of an existing execution record
func (t *Txn) SaveExecution(execution *models.Execution) error {
	db, err := t.handle()
	if err != nil {
		return err
	}
	result := db.Model(execution).
		Select("*").
		Where("id = ?", execution.ID).
		Updates(execution)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrExecutionNotFound
	}
	return nil
}

// GetExecution returns an execution record by ID
func (t *Txn) GetExecution(id string) (*models.Execution, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret models.Execution
	if result := db.Where("id = ?", id).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrExecutionNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListExecutions returns every execution attempt for a proposal, oldest first
func (t *Txn) ListExecutions(proposalID string) ([]models.Execution, error) {
	db, err := t.handle()
	if err != nil {
		return nil, err
	}
	var ret []models.Execution
	result := db.Where("proposal_id = ?", proposalID).
		Order("started_at ASC").
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
