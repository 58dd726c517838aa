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

// CouncilGenesisID is the only primary key a CouncilGenesis row can have
const CouncilGenesisID = 1

// CouncilGenesis marks the one-time council bootstrap. Its fixed primary key
// lets the database reject a second bootstrap racing the first.
type CouncilGenesis struct {
	CreatedAt time.Time `gorm:"not null"`
	SignerIDs string    `gorm:"type:text;not null"`
	ID        uint      `gorm:"primarykey;autoIncrement:false"`
}

func (CouncilGenesis) TableName() string {
	return "governance_council_genesis"
}
