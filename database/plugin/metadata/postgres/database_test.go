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

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOptionsDefaults(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost", m.host)
	assert.Equal(t, uint(5432), m.port)
	assert.Equal(t, "postgres", m.user)
	assert.Equal(t, "rangkai", m.database)
	assert.Equal(t, "disable", m.sslMode)
	assert.Equal(t, 20, m.maxConns)
	assert.NotNil(t, m.logger)
	assert.Nil(t, m.DB())
}

func TestOptionsApplied(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("db.local"),
		WithPort(6543),
		WithUser("gov"),
		WithPassword("secret"),
		WithDatabase("council"),
		WithSSLMode("require"),
		WithMaxConnections(5),
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		"host=db.local user=gov password=secret dbname=council port=6543 sslmode=require TimeZone=UTC",
		m.connString(),
	)
	assert.Equal(t, 5, m.maxConns)
}

func TestDSNOverridesFields(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("ignored"),
		WithDSN("  postgres://u:p@example:5432/gov  "),
	)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@example:5432/gov", m.connString())
}

func TestCloseWithoutStart(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	require.NoError(t, m.Close())
}

func TestNewFromCmdlineOptions(t *testing.T) {
	p := NewFromCmdlineOptions()
	m, ok := p.(*MetadataStorePostgres)
	require.True(t, ok)
	assert.Equal(t, "rangkai", m.database)
}
