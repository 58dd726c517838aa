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

package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/rangkai-protocol/rangkai-gov/database/plugin/metadata"
)

const DefaultMetadataPlugin = "sqlite"

// Config holds the settings used to open a Database
type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	DataDir        string
	MetadataPlugin string
}

type Database struct {
	logger   *slog.Logger
	metadata metadata.MetadataStore
	metrics  *databaseMetrics
	config   Config
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.config.DataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(ctx context.Context, readWrite bool) *Txn {
	return NewTxn(ctx, d, readWrite)
}

// Update runs fn in a read-write transaction that is committed when fn
// returns nil and rolled back otherwise
func (d *Database) Update(ctx context.Context, fn func(*Txn) error) error {
	return d.Transaction(ctx, true).Do(fn)
}

// View runs fn in a read-only transaction
func (d *Database) View(ctx context.Context, fn func(*Txn) error) error {
	txn := d.Transaction(ctx, false)
	defer txn.Release()
	return fn(txn)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metrics != nil {
		d.metrics.unregister()
	}
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	return err
}

func (d *Database) db() *gorm.DB {
	return d.metadata.DB()
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if d.config.PromRegistry != nil {
		m, err := newDatabaseMetrics(d.config.PromRegistry, d.db())
		if err != nil {
			return fmt.Errorf("register database metrics: %w", err)
		}
		d.metrics = m
	}
	return nil
}

// New opens the configured metadata store. An empty DataDir with the sqlite
// plugin gives a private in-memory database.
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	pluginName := cfg.MetadataPlugin
	if pluginName == "" {
		pluginName = DefaultMetadataPlugin
	}
	logger := cfg.Logger
	if logger != nil {
		logger = logger.With("component", "database")
	}
	metadataDb, err := metadata.New(pluginName, cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s metadata store: %w", pluginName, err)
	}
	db := &Database{
		logger:   logger,
		metadata: metadataDb,
		config:   *cfg,
	}
	db.config.MetadataPlugin = pluginName
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
