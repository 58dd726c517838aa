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
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/rangkai-protocol/rangkai-gov/database/types"
)

// Txn wraps a metadata store transaction. All governance queries run through
// a Txn so that a read and the write depending on it see the same snapshot.
type Txn struct {
	db        *Database
	tx        *gorm.DB
	beginErr  error
	lock      sync.Mutex
	finished  bool
	readWrite bool
}

var _ types.Txn = (*Txn)(nil)

func NewTxn(ctx context.Context, db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if db.metadata == nil || db.db() == nil {
		t.beginErr = types.ErrNoStoreAvailable
		return t
	}
	tx := db.db().WithContext(ctx).Begin()
	if tx.Error != nil {
		db.logger.Error(
			"failed to begin transaction",
			"error", tx.Error,
		)
		t.beginErr = tx.Error
		return t
	}
	t.tx = tx
	if db.metrics != nil {
		db.metrics.txnStarted.Inc()
	}
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying gorm transaction handle
func (t *Txn) Metadata() *gorm.DB {
	return t.tx
}

// Err returns the error encountered while starting the transaction, if any
func (t *Txn) Err() error {
	return t.beginErr
}

func (t *Txn) handle() (*gorm.DB, error) {
	if t.beginErr != nil {
		return nil, t.beginErr
	}
	if t.tx == nil {
		return nil, types.ErrNilTxn
	}
	t.lock.Lock()
	finished := t.finished
	t.lock.Unlock()
	if finished {
		return nil, types.ErrTxnFinished
	}
	return t.tx, nil
}

// Do executes the specified function in the context of the transaction. Any errors returned will result
// in the transaction being rolled back
func (t *Txn) Do(fn func(*Txn) error) error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if err := fn(t); err != nil {
		if err2 := t.Rollback(); err2 != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	// No need to commit for read-only, but we do want to free up resources
	if !t.readWrite {
		return t.rollback()
	}
	t.finished = true
	if err := t.tx.Commit().Error; err != nil {
		t.observe("commit_failed")
		return err
	}
	t.observe("committed")
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished || t.tx == nil {
		t.finished = true
		return nil
	}
	t.finished = true
	if t.readWrite {
		t.observe("rolled_back")
	}
	return t.tx.Rollback().Error
}

func (t *Txn) observe(outcome string) {
	if t.db.metrics != nil {
		t.db.metrics.txnFinished.WithLabelValues(outcome).Inc()
	}
}

// Release releases transaction resources. For read-only transactions, this
// releases locks and resources. For read-write transactions, this is equivalent
// to Rollback. Use this in defer statements for clean resource cleanup.
// Errors are logged but not returned, making this safe for deferred calls.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
