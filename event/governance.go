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

package event

import "time"

// Governance event types
const (
	ProposalCreatedEventType  = EventType("governance.proposal.created")
	VoteSubmittedEventType    = EventType("governance.vote.submitted")
	ProposalApprovedEventType = EventType("governance.proposal.approved")
	ProposalExecutedEventType = EventType("governance.proposal.executed")
	ExecutionFailedEventType  = EventType("governance.execution.failed")
	ProposalExpiredEventType  = EventType("governance.proposal.expired")
	SignerChangedEventType    = EventType("governance.signer.changed")
)

// ProposalCreatedEvent is emitted after a proposal opens for voting
type ProposalCreatedEvent struct {
	VotingEndsAt      time.Time
	ProposalID        string
	Number            string
	ActionType        string
	ProposedBy        string
	RequiredApprovals int
}

// VoteSubmittedEvent is emitted after a vote is committed
type VoteSubmittedEvent struct {
	ProposalID        string
	VoteID            string
	SignerID          string
	ProposalStatus    string
	CurrentApprovals  int
	RequiredApprovals int
	Approved          bool
}

// ProposalApprovedEvent is emitted when a proposal reaches its quorum
type ProposalApprovedEvent struct {
	ProposalID        string
	Number            string
	CurrentApprovals  int
	RequiredApprovals int
}

// ProposalExecutedEvent is emitted after an execution commits
type ProposalExecutedEvent struct {
	Result      map[string]any
	ProposalID  string
	ExecutionID string
	ActionType  string
	ExecutedBy  string
}

// ExecutionFailedEvent is emitted when an action handler fails. The proposal
// stays approved and may be executed again.
type ExecutionFailedEvent struct {
	ProposalID  string
	ExecutionID string
	ActionType  string
	ExecutedBy  string
	Error       string
}

// ProposalExpiredEvent is emitted for each proposal closed by an expiry sweep
type ProposalExpiredEvent struct {
	VotingEndsAt time.Time
	ProposalID   string
	Number       string
}

// SignerChangedEvent is emitted when the signer set changes
type SignerChangedEvent struct {
	SignerID   string
	Role       string
	ProposalID string
	Reason     string
	Active     bool
}
