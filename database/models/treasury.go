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

	"github.com/shopspring/decimal"
)

const TreasuryMovementStatusApproved = "approved"

// TreasuryMovement records an approved withdrawal. Settlement happens
// outside of governance; at most one movement exists per proposal.
type TreasuryMovement struct {
	CreatedAt  time.Time       `gorm:"not null"`
	Amount     decimal.Decimal `gorm:"type:varchar(78);not null"`
	ID         string          `gorm:"primarykey;size:36"`
	ProposalID string          `gorm:"size:36;uniqueIndex;not null"`
	Currency   string          `gorm:"size:16;not null"`
	Recipient  string          `gorm:"size:255;not null"`
	Purpose    string          `gorm:"type:text"`
	Status     string          `gorm:"size:16;not null"`
}

func (TreasuryMovement) TableName() string {
	return "treasury_movement"
}
