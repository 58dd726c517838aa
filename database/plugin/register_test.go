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

package plugin_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkai-protocol/rangkai-gov/database/plugin"
)

// Mock plugin implementation for testing
type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

func TestRegister(t *testing.T) {
	pluginName := "test-plugin-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               pluginName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})

	p := plugin.GetPlugin(plugin.PluginTypeMetadata, pluginName)
	if p == nil {
		t.Fatal("plugin not found")
	}
	if _, ok := p.(*mockPlugin); !ok {
		t.Errorf("Expected plugin of type *mockPlugin, got %T", p)
	}

	found := false
	for _, pl := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		if pl.Name == pluginName {
			found = true
			break
		}
	}
	if !found {
		t.Error("plugin not in GetPlugins list")
	}
}

func TestGetPluginNotFound(t *testing.T) {
	if p := plugin.GetPlugin(plugin.PluginTypeMetadata, "non-existent-"+t.Name()); p != nil {
		t.Errorf("Expected nil for non-existent plugin, got %v", p)
	}
	_, err := plugin.StartPlugin(plugin.PluginTypeMetadata, "non-existent-"+t.Name())
	require.Error(t, err)
}

func TestProcessEnvVars(t *testing.T) {
	var host string
	var port uint64
	pluginName := "env-test"
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               pluginName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "host",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: "localhost",
				CustomEnvVar: "ENV_TEST_HOST",
				Dest:         &host,
			},
			{
				Name:         "port",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(0),
				Dest:         &port,
			},
		},
	})
	t.Setenv("ENV_TEST_HOST", "db.internal")
	t.Setenv("RANGKAI_METADATA_ENV_TEST_PORT", "5433")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "db.internal", host)
	assert.Equal(t, uint64(5433), port)
}

func TestProcessConfig(t *testing.T) {
	var maxConns int
	var verbose bool
	pluginName := "config-test"
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               pluginName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name: "max-connections",
				Type: plugin.PluginOptionTypeInt,
				Dest: &maxConns,
			},
			{
				Name: "verbose",
				Type: plugin.PluginOptionTypeBool,
				Dest: &verbose,
			},
		},
	})
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			pluginName: {
				"max-connections": 4,
				"verbose":         true,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, maxConns)
	assert.True(t, verbose)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			pluginName: {
				"max-connections": "many",
			},
		},
	})
	require.Error(t, err)
}

func TestPopulateCmdlineOptions(t *testing.T) {
	var dsn string
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               "flag-test",
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "dsn",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: "",
				Dest:         &dsn,
			},
		},
	})
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	require.NoError(
		t,
		fs.Parse([]string{"--metadata-flag-test-dsn", "host=localhost"}),
	)
	assert.Equal(t, "host=localhost", dsn)
}
