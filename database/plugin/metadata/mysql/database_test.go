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

package mysql

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOptionsDefaults(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost", m.host)
	assert.Equal(t, uint(3306), m.port)
	assert.Equal(t, "root", m.user)
	assert.Equal(t, "rangkai", m.database)
	assert.Equal(t, 20, m.maxConns)
	assert.NotNil(t, m.logger)
}

func TestConnStringFromFields(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("db.local"),
		WithPort(3307),
		WithUser("gov"),
		WithPassword("secret"),
		WithDatabase("council"),
		WithTLS("skip-verify"),
	)
	require.NoError(t, err)
	dsn, dbName := m.connString()
	assert.Equal(t, "council", dbName)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "gov", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "db.local:3307", cfg.Addr)
	assert.Equal(t, "council", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "skip-verify", cfg.TLSConfig)
}

func TestConnStringFromDSN(t *testing.T) {
	m, err := NewWithOptions(
		WithDatabase("ignored"),
		WithDSN("user:pass@tcp(example:3306)/treasury?parseTime=true"),
	)
	require.NoError(t, err)
	dsn, dbName := m.connString()
	assert.Equal(t, "user:pass@tcp(example:3306)/treasury?parseTime=true", dsn)
	assert.Equal(t, "treasury", dbName)
}

func TestCloseWithoutStart(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	require.NoError(t, m.Close())
}
