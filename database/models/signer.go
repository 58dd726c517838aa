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

// Signer is a voting member of the governance council. Signers are never
// deleted, only deactivated.
type Signer struct {
	JoinedAt            time.Time  `gorm:"index;not null"`
	RemovedAt           *time.Time `gorm:"index"`
	ID                  string     `gorm:"primarykey;size:255"`
	Role                string     `gorm:"size:64;not null"`
	PublicKey           string     `gorm:"size:255"`
	RemovalReason       string     `gorm:"size:1024"`
	AddedByProposalID   string     `gorm:"size:36;index"`
	RemovedByProposalID string     `gorm:"size:36;index"`
	Active              bool       `gorm:"index;not null"`
}

func (Signer) TableName() string {
	return "governance_signer"
}
