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

import (
	"time"

	"github.com/rangkai-protocol/rangkai-gov/database/types"
)

const (
	ExecutionStatusPending = "pending"
	ExecutionStatusSuccess = "success"
	ExecutionStatusFailed  = "failed"
)

// Execution is the audit record of one attempt to execute a proposal
type Execution struct {
	StartedAt   time.Time `gorm:"not null"`
	CompletedAt *time.Time
	Params      types.JSONMap `gorm:"type:text"`
	Result      types.JSONMap `gorm:"type:text"`
	ID          string        `gorm:"primarykey;size:36"`
	ProposalID  string        `gorm:"size:36;index;not null"`
	ActionType  string        `gorm:"size:64;not null"`
	ExecutedBy  string        `gorm:"size:255;not null"`
	Status      string        `gorm:"size:16;index;not null"`
	Error       string        `gorm:"type:text"`
}

func (Execution) TableName() string {
	return "governance_action_execution"
}
