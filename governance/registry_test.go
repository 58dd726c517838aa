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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkai-protocol/rangkai-gov/database"
	"github.com/rangkai-protocol/rangkai-gov/governance"
)

func TestInitializeCouncil(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signers, err := env.gov.Registry.InitializeCouncil(ctx, testCouncil)
	require.NoError(t, err)
	require.Len(t, signers, 3)

	active, err := env.gov.Registry.GetActiveSigners(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	for i, s := range active {
		assert.Equal(t, testCouncil[i].ID, s.ID)
		assert.True(t, s.Active)
	}

	quorum, err := env.gov.Registry.GetRequiredQuorum(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, quorum)
}

func TestInitializeCouncilOnlyOnce(t *testing.T) {
	env := newCouncilEnv(t)
	_, err := env.gov.Registry.InitializeCouncil(context.Background(), []governance.SignerInput{
		{ID: "did:rangkai:other-1", Role: "founder"},
		{ID: "did:rangkai:other-2", Role: "founder"},
		{ID: "did:rangkai:other-3", Role: "founder"},
	})
	require.ErrorIs(t, err, governance.ErrCouncilInitialized)
	require.ErrorIs(t, err, governance.ErrStateConflict)

	ok, err := env.gov.Registry.IsActiveSigner(context.Background(), "did:rangkai:other-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitializeCouncilValidation(t *testing.T) {
	testDefs := []struct {
		name   string
		inputs []governance.SignerInput
	}{
		{name: "too few", inputs: testCouncil[:2]},
		{name: "too many", inputs: append(append([]governance.SignerInput{}, testCouncil...), governance.SignerInput{ID: "did:rangkai:x", Role: "founder"})},
		{name: "duplicate id", inputs: []governance.SignerInput{testCouncil[0], testCouncil[1], testCouncil[0]}},
		{name: "missing role", inputs: []governance.SignerInput{testCouncil[0], testCouncil[1], {ID: "did:rangkai:x"}}},
		{name: "blank id", inputs: []governance.SignerInput{testCouncil[0], testCouncil[1], {ID: "  ", Role: "founder"}}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.gov.Registry.InitializeCouncil(context.Background(), testDef.inputs)
			require.ErrorIs(t, err, governance.ErrValidation)
			active, err := env.gov.Registry.GetActiveSigners(context.Background())
			require.NoError(t, err)
			assert.Empty(t, active)
		})
	}
}

func TestIsActiveSigner(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()

	ok, err := env.gov.Registry.IsActiveSigner(ctx, signer1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.gov.Registry.IsActiveSigner(ctx, "did:rangkai:nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.gov.Registry.AddSigner(ctx, governance.SignerInput{ID: "did:rangkai:signer-4", Role: "technical"})
	require.NoError(t, err)
	require.NoError(t, env.gov.Registry.RemoveSigner(ctx, signer3, "rotated out"))

	ok, err = env.gov.Registry.IsActiveSigner(ctx, signer3)
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := env.gov.Registry.GetSigner(ctx, signer3)
	require.NoError(t, err)
	assert.False(t, removed.Active)
	assert.Equal(t, "rotated out", removed.RemovalReason)
	require.NotNil(t, removed.RemovedAt)
}

func TestAddSignerRejectsExistingID(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	_, err := env.gov.Registry.AddSigner(ctx, governance.SignerInput{ID: signer2, Role: "technical"})
	require.ErrorIs(t, err, governance.ErrSignerExists)

	// Inactive ids stay reserved
	_, err = env.gov.Registry.AddSigner(ctx, governance.SignerInput{ID: "did:rangkai:signer-4", Role: "technical"})
	require.NoError(t, err)
	require.NoError(t, env.gov.Registry.RemoveSigner(ctx, "did:rangkai:signer-4", "left"))
	_, err = env.gov.Registry.AddSigner(ctx, governance.SignerInput{ID: "did:rangkai:signer-4", Role: "technical"})
	require.ErrorIs(t, err, governance.ErrSignerExists)
}

func TestRemoveSignerFloor(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()

	// A three member council cannot shrink
	err := env.gov.Registry.RemoveSigner(ctx, signer1, "test")
	require.ErrorIs(t, err, governance.ErrSignerFloor)
	require.ErrorIs(t, err, governance.ErrStateConflict)

	_, err = env.gov.Registry.AddSigner(ctx, governance.SignerInput{ID: "did:rangkai:signer-4", Role: "technical"})
	require.NoError(t, err)
	require.NoError(t, env.gov.Registry.RemoveSigner(ctx, signer3, "test"))

	err = env.gov.Registry.RemoveSigner(ctx, signer3, "again")
	require.ErrorIs(t, err, governance.ErrSignerInactive)

	err = env.gov.Registry.RemoveSigner(ctx, "did:rangkai:nobody", "test")
	require.ErrorIs(t, err, governance.ErrNotFound)
}

func TestRemoveSignerWithTwoActive(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	// Bring the roster down to two by deactivating directly in storage
	require.NoError(t, env.db.Update(ctx, func(txn *database.Txn) error {
		_, err := txn.DeactivateSigner(signer3, "test setup", "", env.clock.Now())
		return err
	}))

	for _, id := range []string{signer1, signer2} {
		err := env.gov.Registry.RemoveSigner(ctx, id, "test")
		require.ErrorIs(t, err, governance.ErrSignerFloor)
	}
	active, err := env.gov.Registry.GetActiveSigners(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestRequiredQuorum(t *testing.T) {
	env := newCouncilEnv(t)
	ctx := context.Background()
	for i, expected := range []int{2, 2, 3, 3} {
		if i > 0 {
			_, err := env.gov.Registry.AddSigner(ctx, governance.SignerInput{
				ID:   "did:rangkai:extra-" + string(rune('a'+i)),
				Role: "technical",
			})
			require.NoError(t, err)
		}
		quorum, err := env.gov.Registry.GetRequiredQuorum(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, quorum, "active signers: %d", 3+i)
	}
}
