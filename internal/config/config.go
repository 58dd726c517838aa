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

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rangkai-protocol/rangkai-gov/database/plugin"
	"github.com/rangkai-protocol/rangkai-gov/governance"
)

type ctxKey string

const configContextKey ctxKey = "rangkai.config"

const (
	DefaultShutdownTimeout     = "30s"
	DefaultExpirySweepInterval = "5m"
	DefaultMetadataPlugin      = "sqlite"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	MetadataPlugin        string `yaml:"metadataPlugin"        envconfig:"RANGKAI_DATABASE_METADATA_PLUGIN"`
	DatabasePath          string `yaml:"databasePath"                                                     split_words:"true"`
	BindAddr              string `yaml:"bindAddr"                                                         split_words:"true"`
	ShutdownTimeout       string `yaml:"shutdownTimeout"                                                  split_words:"true"`
	ExpirySweepInterval   string `yaml:"expirySweepInterval"                                              split_words:"true"`
	ProtocolFeePercentage string `yaml:"protocolFeePercentage"                                            split_words:"true"`
	ClientFeePercentage   string `yaml:"clientFeePercentage"                                              split_words:"true"`
	ApiPort               uint   `yaml:"apiPort"               envconfig:"port"`
	MetricsPort           uint   `yaml:"metricsPort"                                                      split_words:"true"`
	VotingDurationHours   uint   `yaml:"votingDurationHours"                                              split_words:"true"`
	EscrowDurationDays    int    `yaml:"escrowDurationDays"                                               split_words:"true"`
	DisputeWindowDays     int    `yaml:"disputeWindowDays"                                                split_words:"true"`
	RequireSignatures     bool   `yaml:"requireSignatures"                                                split_words:"true"`
	TracingEnabled        bool   `yaml:"tracingEnabled"        envconfig:"RANGKAI_TRACING"`
	TracingStdout         bool   `yaml:"tracingStdout"         envconfig:"RANGKAI_TRACING_STDOUT"`

	// Genesis council, used by init-council when no members are given on the command line
	Council []governance.SignerInput `yaml:"council" ignored:"true"`
}

// VotingDuration returns the default voting window for new proposals
func (c *Config) VotingDuration() time.Duration {
	return time.Duration(c.VotingDurationHours) * time.Hour
}

// SweepInterval returns the expiry sweeper period. Zero disables the sweeper.
func (c *Config) SweepInterval() (time.Duration, error) {
	if c.ExpirySweepInterval == "" || c.ExpirySweepInterval == "0" {
		return 0, nil
	}
	interval, err := time.ParseDuration(c.ExpirySweepInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid expirySweepInterval: %w", err)
	}
	if interval < 0 {
		return 0, fmt.Errorf("invalid expirySweepInterval: %s is negative", c.ExpirySweepInterval)
	}
	return interval, nil
}

// ParameterDefaults returns the genesis protocol parameters described by the config
func (c *Config) ParameterDefaults() (governance.ParameterDefaults, error) {
	ret := governance.DefaultParameters()
	if c.ProtocolFeePercentage != "" {
		fee, err := decimal.NewFromString(c.ProtocolFeePercentage)
		if err != nil {
			return ret, fmt.Errorf("invalid protocolFeePercentage: %w", err)
		}
		ret.ProtocolFeePercentage = fee
	}
	if c.ClientFeePercentage != "" {
		fee, err := decimal.NewFromString(c.ClientFeePercentage)
		if err != nil {
			return ret, fmt.Errorf("invalid clientFeePercentage: %w", err)
		}
		ret.ClientFeePercentage = fee
	}
	if c.EscrowDurationDays != 0 {
		ret.EscrowDurationDays = c.EscrowDurationDays
	}
	if c.DisputeWindowDays != 0 {
		ret.DisputeWindowDays = c.DisputeWindowDays
	}
	if err := ret.Validate(); err != nil {
		return ret, err
	}
	return ret, nil
}

// Validate checks the settings that can be checked without opening anything
func (c *Config) Validate() error {
	var errs []error
	if c.VotingDurationHours == 0 ||
		c.VotingDurationHours > governance.MaxVotingDurationHours {
		errs = append(
			errs,
			fmt.Errorf(
				"invalid votingDurationHours: %d (must be between 1 and %d)",
				c.VotingDurationHours,
				governance.MaxVotingDurationHours,
			),
		)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("invalid shutdownTimeout: %w", err))
	}
	if _, err := c.SweepInterval(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ParameterDefaults(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func defaultConfig() *Config {
	return &Config{
		MetadataPlugin:        DefaultMetadataPlugin,
		DatabasePath:          ".rangkai",
		BindAddr:              "0.0.0.0",
		ShutdownTimeout:       DefaultShutdownTimeout,
		ExpirySweepInterval:   DefaultExpirySweepInterval,
		ProtocolFeePercentage: "1",
		ClientFeePercentage:   "1",
		ApiPort:               8080,
		MetricsPort:           12798,
		VotingDurationHours:   72,
		EscrowDurationDays:    14,
		DisputeWindowDays:     7,
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.rangkai/rangkai-gov.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".rangkai", "rangkai-gov.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/rangkai/rangkai-gov.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/rangkai/rangkai-gov.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Values from a .env file in the working directory never override the
	// real environment
	loadEnvFile(".env")

	// Process environment variables
	err := envconfig.Process("rangkai", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	err = yaml.Unmarshal(buf, &tempCfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	if !tempCfg.Config.IsZero() {
		// Overlay the config section onto existing defaults
		if err := tempCfg.Config.Decode(globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		// Otherwise unmarshal the whole file as main config
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}

	metadataConfig := make(map[string]map[string]any)
	if tempCfg.Metadata != nil {
		maps.Copy(metadataConfig, tempCfg.Metadata)
	}
	if tempCfg.Database != nil && tempCfg.Database.Metadata != nil {
		// Extract plugin name if specified
		if pluginVal, exists := tempCfg.Database.Metadata["plugin"]; exists {
			if pluginName, ok := pluginVal.(string); ok {
				globalConfig.MetadataPlugin = pluginName
				delete(tempCfg.Database.Metadata, "plugin")
			}
		}
		for k, v := range tempCfg.Database.Metadata {
			val, ok := stringMap(v)
			if !ok {
				fmt.Fprintf(os.Stderr, "warning: skipping metadata config entry %q: expected map, got %T\n", k, v)
				continue
			}
			metadataConfig[k] = val
		}
	}
	if len(metadataConfig) > 0 {
		err = plugin.ProcessConfig(
			map[string]map[string]map[string]any{
				plugin.PluginTypeName(plugin.PluginTypeMetadata): metadataConfig,
			},
		)
		if err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

func loadEnvFile(envFile string) {
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", envFile, err)
	}
}

func stringMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case map[any]any:
		ret := make(map[string]any, len(val))
		for vk, vv := range val {
			if keyStr, ok := vk.(string); ok {
				ret[keyStr] = vv
			}
		}
		return ret, true
	default:
		return nil, false
	}
}

func GetConfig() *Config {
	return globalConfig
}
