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

import "time"

// Approval is one signer's vote on one proposal. The composite unique index
// on (proposal_id, signer_id) is what enforces one vote per signer.
type Approval struct {
	CreatedAt  time.Time `gorm:"not null"`
	ID         string    `gorm:"primarykey;size:36"`
	ProposalID string    `gorm:"size:36;index:idx_approval_proposal;uniqueIndex:idx_approval_unique,priority:1;not null"`
	SignerID   string    `gorm:"size:255;uniqueIndex:idx_approval_unique,priority:2;not null"`
	Signature  string    `gorm:"type:text"`
	Comment    string    `gorm:"type:text"`
	Approved   bool      `gorm:"not null"`
}

func (Approval) TableName() string {
	return "governance_approval"
}
