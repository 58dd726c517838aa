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

package metadata

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rangkai-protocol/rangkai-gov/database/plugin"
	"github.com/rangkai-protocol/rangkai-gov/database/plugin/metadata/mysql"
	"github.com/rangkai-protocol/rangkai-gov/database/plugin/metadata/postgres"
	"github.com/rangkai-protocol/rangkai-gov/database/plugin/metadata/sqlite"
	"gorm.io/gorm"
)

var ErrUnknownPlugin = errors.New("unknown metadata plugin")

// MetadataStore is a started relational backend holding governance state
type MetadataStore interface {
	plugin.Plugin
	Close() error
	DB() *gorm.DB
}

type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// New starts the named metadata plugin. The sqlite plugin is built directly
// from dataDir, other plugins take their settings from the plugin registry.
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
) (MetadataStore, error) {
	var store MetadataStore
	switch pluginName {
	case "", "sqlite":
		s, err := sqlite.NewWithOptions(
			sqlite.WithDataDir(dataDir),
			sqlite.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		p := plugin.GetPlugin(plugin.PluginTypeMetadata, pluginName)
		if p == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, pluginName)
		}
		s, ok := p.(MetadataStore)
		if !ok {
			// ErrorPlugin surfaces its construction error from Start
			if err := p.Start(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf(
				"plugin %s does not provide a metadata store",
				pluginName,
			)
		}
		store = s
	}
	if ls, ok := store.(loggerSetter); ok && logger != nil {
		ls.SetLogger(logger)
	}
	if err := store.Start(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

var (
	_ MetadataStore = (*sqlite.MetadataStoreSqlite)(nil)
	_ MetadataStore = (*postgres.MetadataStorePostgres)(nil)
	_ MetadataStore = (*mysql.MetadataStoreMysql)(nil)
)
