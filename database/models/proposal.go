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
	ProposalStatusDraft    = "draft"
	ProposalStatusActive   = "active"
	ProposalStatusApproved = "approved"
	ProposalStatusExecuted = "executed"
	ProposalStatusRejected = "rejected"
	ProposalStatusExpired  = "expired"
)

// Proposal is a request to change protocol state. RequiredApprovals is
// snapshotted when the proposal is created and never recomputed.
type Proposal struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	VotingStartsAt    time.Time `gorm:"not null"`
	VotingEndsAt      time.Time `gorm:"index;not null"`
	ApprovedAt        *time.Time
	ExecutedAt        *time.Time
	ExpiredAt         *time.Time
	Params            types.JSONMap `gorm:"type:text"`
	ID                string        `gorm:"primarykey;size:36"`
	Number            string        `gorm:"size:32;uniqueIndex;not null"`
	ActionType        string        `gorm:"size:64;index;not null"`
	Rationale         string        `gorm:"type:text"`
	ProposedBy        string        `gorm:"size:255;index;not null"`
	Status            string        `gorm:"size:16;index;not null"`
	Sequence          uint          `gorm:"uniqueIndex;not null"`
	RequiredApprovals int           `gorm:"not null"`
	CurrentApprovals  int           `gorm:"not null"`
}

func (Proposal) TableName() string {
	return "governance_proposal"
}

// IsTerminal reports whether no further transitions are possible
func (p *Proposal) IsTerminal() bool {
	switch p.Status {
	case ProposalStatusExecuted, ProposalStatusRejected, ProposalStatusExpired:
		return true
	default:
		return false
	}
}
