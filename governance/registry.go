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

package governance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/event"
)

const (
	signerChangeAdded   = "added"
	signerChangeRemoved = "removed"
)

// SignerInput describes a signer to seat on the council
type SignerInput struct {
	ID        string `json:"id"        yaml:"id"`
	Role      string `json:"role"      yaml:"role"`
	PublicKey string `json:"publicKey" yaml:"publicKey"`
}

func (s SignerInput) normalize() SignerInput {
	return SignerInput{
		ID:        strings.TrimSpace(s.ID),
		Role:      strings.TrimSpace(s.Role),
		PublicKey: strings.TrimSpace(s.PublicKey),
	}
}

func (s SignerInput) validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSigner)
	}
	if len(s.ID) > 255 {
		return fmt.Errorf("%w: id must be at most 255 characters", ErrInvalidSigner)
	}
	if s.Role == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidSigner)
	}
	if len(s.Role) > 64 {
		return fmt.Errorf("%w: role must be at most 64 characters", ErrInvalidSigner)
	}
	return nil
}

// Registry maintains the council roster. Every call reads storage; nothing
// about signer state is cached.
type Registry struct {
	*core
}

// InitializeCouncil seats the genesis council. It succeeds once.
func (r *Registry) InitializeCouncil(
	ctx context.Context,
	inputs []SignerInput,
) ([]models.Signer, error) {
	if len(inputs) != CouncilSize {
		return nil, fmt.Errorf("%w, got %d", ErrCouncilSize, len(inputs))
	}
	seen := make(map[string]struct{}, len(inputs))
	normalized := make([]SignerInput, 0, len(inputs))
	for _, in := range inputs {
		in = in.normalize()
		if err := in.validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[in.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidSigner, in.ID)
		}
		seen[in.ID] = struct{}{}
		normalized = append(normalized, in)
	}
	now := r.now()
	signers := make([]models.Signer, 0, len(normalized))
	err := r.update(ctx, func(tx Tx) error {
		active, err := tx.CountActiveSigners()
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrCouncilInitialized
		}
		ids := make([]string, 0, len(normalized))
		for _, in := range normalized {
			ids = append(ids, in.ID)
		}
		// The genesis row has a fixed key, so a racing bootstrap fails here
		if err := tx.CreateCouncilGenesis(&models.CouncilGenesis{
			ID:        models.CouncilGenesisID,
			SignerIDs: strings.Join(ids, ","),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		for _, in := range normalized {
			signer, err := addSigner(tx, in, "", now)
			if err != nil {
				return err
			}
			signers = append(signers, *signer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range signers {
		r.signerChanged(&signers[i], "", "")
	}
	r.logger.Info(
		"council initialized",
		"signers", len(signers),
		"quorum", quorumFor(len(signers)),
	)
	return signers, nil
}

// GetActiveSigners returns active signers ordered by join time
func (r *Registry) GetActiveSigners(ctx context.Context) ([]models.Signer, error) {
	var signers []models.Signer
	err := r.view(ctx, func(tx Tx) error {
		var err error
		signers, err = tx.ListActiveSigners()
		return err
	})
	if err != nil {
		return nil, err
	}
	return signers, nil
}

// GetSigner returns a signer whether active or not
func (r *Registry) GetSigner(ctx context.Context, id string) (*models.Signer, error) {
	var signer *models.Signer
	err := r.view(ctx, func(tx Tx) error {
		var err error
		signer, err = tx.GetSigner(strings.TrimSpace(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return signer, nil
}

// IsActiveSigner reports false for unknown and inactive ids
func (r *Registry) IsActiveSigner(ctx context.Context, id string) (bool, error) {
	var active bool
	err := r.view(ctx, func(tx Tx) error {
		_, err := requireActiveSigner(tx, strings.TrimSpace(id))
		if err == nil {
			active = true
			return nil
		}
		if errors.Is(err, ErrNotActiveSigner) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, err
	}
	return active, nil
}

// AddSigner seats a new signer. Outside bootstrap this is reached through an
// executed add_signer proposal.
func (r *Registry) AddSigner(
	ctx context.Context,
	input SignerInput,
) (*models.Signer, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	var signer *models.Signer
	err := r.update(ctx, func(tx Tx) error {
		var err error
		signer, err = addSigner(tx, input, "", r.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	r.signerChanged(signer, "", "")
	return signer, nil
}

// RemoveSigner deactivates a signer. Signers are never deleted.
func (r *Registry) RemoveSigner(ctx context.Context, id, reason string) error {
	var signer *models.Signer
	err := r.update(ctx, func(tx Tx) error {
		var err error
		signer, err = removeSigner(tx, strings.TrimSpace(id), reason, "", r.now())
		return err
	})
	if err != nil {
		return err
	}
	r.signerChanged(signer, "", reason)
	return nil
}

// GetRequiredQuorum returns ceil(active/2) for the current roster
func (r *Registry) GetRequiredQuorum(ctx context.Context) (int, error) {
	var quorum int
	err := r.view(ctx, func(tx Tx) error {
		active, err := tx.CountActiveSigners()
		if err != nil {
			return err
		}
		quorum = quorumFor(active)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return quorum, nil
}

func (c *core) signerChanged(signer *models.Signer, proposalID, reason string) {
	change := signerChangeAdded
	if !signer.Active {
		change = signerChangeRemoved
	}
	c.metrics.signerChanged(change)
	c.publish(event.SignerChangedEventType, event.SignerChangedEvent{
		SignerID:   signer.ID,
		Role:       signer.Role,
		ProposalID: proposalID,
		Reason:     reason,
		Active:     signer.Active,
	})
	c.logger.Info(
		"signer "+change,
		"signer", signer.ID,
		"role", signer.Role,
		"proposal", proposalID,
	)
}

func addSigner(
	tx SignerStore,
	input SignerInput,
	proposalID string,
	now time.Time,
) (*models.Signer, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if _, err := tx.GetSigner(input.ID); err == nil {
		return nil, ErrSignerExists
	} else if !errors.Is(err, models.ErrSignerNotFound) {
		return nil, err
	}
	signer := &models.Signer{
		ID:                input.ID,
		Role:              input.Role,
		PublicKey:         input.PublicKey,
		Active:            true,
		JoinedAt:          now,
		AddedByProposalID: proposalID,
	}
	if err := tx.CreateSigner(signer); err != nil {
		return nil, err
	}
	return signer, nil
}

func removeSigner(
	tx SignerStore,
	id string,
	reason string,
	proposalID string,
	now time.Time,
) (*models.Signer, error) {
	signer, err := tx.GetSigner(id)
	if err != nil {
		return nil, err
	}
	if !signer.Active {
		return nil, ErrSignerInactive
	}
	active, err := tx.CountActiveSigners()
	if err != nil {
		return nil, err
	}
	if active-1 <= MinActiveSigners {
		return nil, fmt.Errorf("%w, %d active", ErrSignerFloor, active)
	}
	ok, err := tx.DeactivateSigner(id, reason, proposalID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSignerInactive
	}
	signer.Active = false
	signer.RemovedAt = &now
	signer.RemovalReason = reason
	signer.RemovedByProposalID = proposalID
	return signer, nil
}
