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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkai-protocol/rangkai-gov/api"
	"github.com/rangkai-protocol/rangkai-gov/governance"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "rangkai-gov.yaml")
	content := "databasePath: " + filepath.Join(dir, "db") + "\n" + extra
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath
}

func TestParseSignerFlags(t *testing.T) {
	inputs, err := parseSignerFlags([]string{
		"alice:founder",
		"bob:validator:a2V5",
	})
	require.NoError(t, err)
	assert.Equal(t, []governance.SignerInput{
		{ID: "alice", Role: "founder"},
		{ID: "bob", Role: "validator", PublicKey: "a2V5"},
	}, inputs)

	for _, value := range []string{"alice", ":founder", "alice:"} {
		_, err := parseSignerFlags([]string{value})
		assert.Error(t, err, value)
	}
}

func TestInitCouncilFromFlags(t *testing.T) {
	configPath := writeTestConfig(t, "")
	out, err := runCommand(
		t,
		"--config", configPath,
		"init-council",
		"--signer", "alice:founder",
		"--signer", "bob:validator",
		"--signer", "carol:community",
	)
	require.NoError(t, err)
	var seated []api.SignerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &seated))
	assert.Len(t, seated, 3)

	// The roster persists between invocations
	out, err = runCommand(t, "--config", configPath, "signers")
	require.NoError(t, err)
	var active []api.SignerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &active))
	ids := make([]string, 0, len(active))
	for _, signer := range active {
		ids = append(ids, signer.ID)
	}
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, ids)

	_, err = runCommand(
		t,
		"--config", configPath,
		"init-council",
		"--signer", "dave:founder",
		"--signer", "erin:validator",
		"--signer", "frank:community",
	)
	require.ErrorIs(t, err, governance.ErrCouncilInitialized)
}

func TestInitCouncilFromConfig(t *testing.T) {
	configPath := writeTestConfig(t, `council:
  - id: alice
    role: founder
  - id: bob
    role: validator
  - id: carol
    role: community
`)
	out, err := runCommand(t, "--config", configPath, "init-council")
	require.NoError(t, err)
	var seated []api.SignerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &seated))
	assert.Len(t, seated, 3)
}

func TestInitCouncilWrongSize(t *testing.T) {
	configPath := writeTestConfig(t, "council: []\n")
	_, err := runCommand(
		t,
		"--config", configPath,
		"init-council",
		"--signer", "alice:founder",
	)
	require.ErrorContains(t, err, "exactly 3 signers")
}

func TestParamsAndExpire(t *testing.T) {
	configPath := writeTestConfig(t, "protocolFeePercentage: \"3\"\n")
	out, err := runCommand(t, "--config", configPath, "params")
	require.NoError(t, err)
	var params []api.ParameterResponse
	require.NoError(t, json.Unmarshal([]byte(out), &params))
	values := make(map[string]string, len(params))
	for _, param := range params {
		values[param.Name] = param.Value
	}
	assert.Equal(t, "3", values["protocol_fee_percentage"])

	out, err = runCommand(t, "--config", configPath, "expire")
	require.NoError(t, err)
	var expired api.ExpireResponse
	require.NoError(t, json.Unmarshal([]byte(out), &expired))
	assert.Empty(t, expired.Expired)

	out, err = runCommand(t, "--config", configPath, "proposals", "--status", "active")
	require.NoError(t, err)
	var proposals []api.ProposalResponse
	require.NoError(t, json.Unmarshal([]byte(out), &proposals))
	assert.Empty(t, proposals)
}

func TestListPlugins(t *testing.T) {
	shouldExit, output := listPlugins("sqlite")
	assert.False(t, shouldExit)
	assert.Empty(t, output)

	shouldExit, output = listPlugins("list")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "sqlite")
}

func TestTableOutput(t *testing.T) {
	configPath := writeTestConfig(t, "")
	_, err := runCommand(
		t,
		"--config", configPath,
		"init-council",
		"--signer", "alice:founder",
		"--signer", "bob:validator",
		"--signer", "carol:community",
	)
	require.NoError(t, err)

	out, err := runCommand(t, "--config", configPath, "-o", "table", "signers")
	require.NoError(t, err)
	assert.Contains(t, out, "ROLE")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "community")

	out, err = runCommand(t, "--config", configPath, "--output", "table", "params")
	require.NoError(t, err)
	assert.Contains(t, out, "escrow_duration_days")

	_, err = runCommand(t, "--config", configPath, "-o", "yaml", "params")
	require.ErrorContains(t, err, "unknown output format")
}
