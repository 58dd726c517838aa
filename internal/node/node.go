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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rangkai-protocol/rangkai-gov/database"
	"github.com/rangkai-protocol/rangkai-gov/event"
	"github.com/rangkai-protocol/rangkai-gov/governance"
	"github.com/rangkai-protocol/rangkai-gov/internal/config"
)

// Node owns the storage, event bus and governance services built from a config
type Node struct {
	config       *config.Config
	logger       *slog.Logger
	db           *database.Database
	eventBus     *event.EventBus
	gov          *governance.Governance
	closeFuncs   []func(context.Context) error
	shutdownOnce sync.Once
}

// Open opens the database, seeds the genesis protocol parameters and builds
// the governance services. The caller must call Close.
func Open(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Node, error) {
	if cfg == nil {
		return nil, errors.New("no config provided")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	params, err := cfg.ParameterDefaults()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n := &Node{
		config: cfg,
		logger: logger.With("component", "node"),
	}
	db, err := database.New(&database.Config{
		DataDir:        cfg.DatabasePath,
		MetadataPlugin: cfg.MetadataPlugin,
		Logger:         logger,
		PromRegistry:   promRegistry,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	n.eventBus = event.NewEventBus(promRegistry, logger)
	var verifier governance.SignatureVerifier = governance.NoopVerifier{}
	if cfg.RequireSignatures {
		verifier = governance.Ed25519Verifier{}
	}
	gov, err := governance.New(governance.Config{
		Store:          governance.NewDatabaseStore(db),
		EventBus:       n.eventBus,
		Logger:         logger,
		PromRegistry:   promRegistry,
		Verifier:       verifier,
		VotingDuration: cfg.VotingDuration(),
	})
	if err != nil {
		return nil, errors.Join(err, n.Close())
	}
	n.gov = gov
	if err := gov.Parameters.SeedDefaults(ctx, params); err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to seed protocol parameters: %w", err),
			n.Close(),
		)
	}
	n.logger.Debug(
		"governance node opened",
		"metadata_plugin", cfg.MetadataPlugin,
		"data_dir", cfg.DatabasePath,
		"require_signatures", cfg.RequireSignatures,
	)
	return n, nil
}

func (n *Node) Governance() *governance.Governance {
	return n.gov
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Close releases everything Open acquired
func (n *Node) Close() error {
	return n.Shutdown(context.Background())
}

// Shutdown runs the registered shutdown functions, stops the event bus and
// closes the database. Calls after the first are no-ops.
func (n *Node) Shutdown(ctx context.Context) error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown(ctx)
	})
	return err
}

func (n *Node) onClose(fn func(context.Context) error) {
	n.closeFuncs = append(n.closeFuncs, fn)
}

func (n *Node) shutdown(ctx context.Context) error {
	var err error
	// Registered functions run in reverse order of registration
	for i := len(n.closeFuncs) - 1; i >= 0; i-- {
		if fnErr := n.closeFuncs[i](ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.closeFuncs = nil
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}
	return err
}
