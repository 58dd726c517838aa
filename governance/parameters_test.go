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

package governance_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkai-protocol/rangkai-gov/database"
	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/governance"
)

func TestSeedDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	params, err := env.gov.Parameters.GetAllParameters(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		models.ParamProtocolFeePercentage: "1",
		models.ParamClientFeePercentage:   "1",
		models.ParamEscrowDurationDays:    "14",
		models.ParamDisputeWindowDays:     "7",
		models.ParamProtocolPaused:        "false",
	}, params)

	// Seeding again leaves existing values alone
	defaults := governance.DefaultParameters()
	defaults.EscrowDurationDays = 20
	require.NoError(t, env.gov.Parameters.SeedDefaults(ctx, defaults))
	assert.Equal(t, "14", env.param(t, models.ParamEscrowDurationDays).Value)
}

func TestSeedDefaultsValidation(t *testing.T) {
	env := newTestEnv(t)
	defaults := governance.DefaultParameters()
	defaults.ProtocolFeePercentage = decimal.NewFromInt(11)
	defaults.DisputeWindowDays = 0
	err := env.gov.Parameters.SeedDefaults(context.Background(), defaults)
	require.ErrorIs(t, err, governance.ErrInvalidParams)
}

func TestGetParameterNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.gov.Parameters.GetParameter(context.Background(), "max_listing_price")
	require.ErrorIs(t, err, governance.ErrParameterNotFound)
	require.ErrorIs(t, err, governance.ErrNotFound)
}

func TestIsProtocolPausedWithoutParameter(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gov, err := governance.New(governance.Config{Store: governance.NewDatabaseStore(db)})
	require.NoError(t, err)
	paused, err := gov.Parameters.IsProtocolPaused(context.Background())
	require.NoError(t, err)
	assert.False(t, paused)
}
