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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/event"
)

const (
	// CouncilSize is the number of signers seated at bootstrap
	CouncilSize = 3
	// MinActiveSigners is the floor a removal may never reach
	MinActiveSigners = 2
	// MaxVotingDurationHours caps the voting window of a proposal
	MaxVotingDurationHours = 720
	// DefaultVotingDuration is used when a proposal names no window
	DefaultVotingDuration = 72 * time.Hour
)

var ErrNilStore = errors.New("governance: store is required")

type Config struct {
	Store          Store
	EventBus       *event.EventBus
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	Verifier       SignatureVerifier
	Clock          func() time.Time
	VotingDuration time.Duration
}

// Governance bundles the signer registry, proposal ledger, execution engine
// and the read-only parameter view over a single store
type Governance struct {
	Registry   *Registry
	Ledger     *Ledger
	Engine     *Engine
	Parameters *Parameters
}

type core struct {
	store          Store
	eventBus       *event.EventBus
	logger         *slog.Logger
	metrics        *governanceMetrics
	verifier       SignatureVerifier
	clock          func() time.Time
	votingDuration time.Duration
}

func New(cfg Config) (*Governance, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Verifier == nil {
		cfg.Verifier = NoopVerifier{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.VotingDuration == 0 {
		cfg.VotingDuration = DefaultVotingDuration
	}
	if cfg.VotingDuration < 0 ||
		cfg.VotingDuration > MaxVotingDurationHours*time.Hour {
		return nil, ErrInvalidVotingDuration
	}
	c := &core{
		store:          cfg.Store,
		eventBus:       cfg.EventBus,
		logger:         cfg.Logger.With("component", "governance"),
		metrics:        newGovernanceMetrics(cfg.PromRegistry),
		verifier:       cfg.Verifier,
		clock:          cfg.Clock,
		votingDuration: cfg.VotingDuration,
	}
	return &Governance{
		Registry:   &Registry{core: c},
		Ledger:     &Ledger{core: c},
		Engine:     &Engine{core: c},
		Parameters: &Parameters{core: c},
	}, nil
}

func (c *core) now() time.Time {
	return c.clock().UTC()
}

func (c *core) publish(eventType event.EventType, data any) {
	if c.eventBus == nil {
		return
	}
	c.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func (c *core) update(ctx context.Context, fn func(Tx) error) error {
	return classify(c.store.Update(ctx, fn))
}

func (c *core) view(ctx context.Context, fn func(Tx) error) error {
	return classify(c.store.View(ctx, fn))
}

// requireActiveSigner loads the signer and fails unless it is active
func requireActiveSigner(tx SignerStore, id string) (*models.Signer, error) {
	signer, err := tx.GetSigner(id)
	if err != nil {
		if errors.Is(err, models.ErrSignerNotFound) {
			return nil, ErrNotActiveSigner
		}
		return nil, err
	}
	if !signer.Active {
		return nil, ErrNotActiveSigner
	}
	return signer, nil
}

// quorumFor is the number of approvals required with active signers seated
func quorumFor(active int) int {
	return (active + 1) / 2
}
