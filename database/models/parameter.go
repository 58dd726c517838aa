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

const (
	ParameterTypeDecimal = "decimal"
	ParameterTypeInteger = "integer"
	ParameterTypeBoolean = "boolean"
)

// Well-known protocol parameter names
const (
	ParamProtocolFeePercentage = "protocol_fee_percentage"
	ParamClientFeePercentage   = "client_fee_percentage"
	ParamEscrowDurationDays    = "escrow_duration_days"
	ParamDisputeWindowDays     = "dispute_window_days"
	ParamProtocolPaused        = "protocol_paused"
)

// ProtocolParameter is a named setting that only governance execution writes.
// PreviousValue keeps the value that was replaced by the last change.
type ProtocolParameter struct {
	UpdatedAt           time.Time
	PreviousValue       *string `gorm:"size:255"`
	Name                string  `gorm:"primarykey;size:64"`
	Value               string  `gorm:"size:255;not null"`
	ValueType           string  `gorm:"size:16;not null"`
	UpdatedByProposalID string  `gorm:"size:36"`
}

func (ProtocolParameter) TableName() string {
	return "protocol_parameter"
}
