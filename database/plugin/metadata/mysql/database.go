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
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/rangkai-protocol/rangkai-gov/database/plugin/metadata/internal/gormutil"
)

// errUnknownDatabase is the server error number for a missing schema
const errUnknownDatabase = 1049

// MetadataStoreMysql keeps governance state in MySQL
type MetadataStoreMysql struct {
	db       *gorm.DB
	logger   *slog.Logger
	host     string
	port     uint
	user     string
	password string
	database string
	tls      string
	dsn      string // Data source name (MySQL connection string)
	maxConns int
}

// NewWithOptions creates a new MySQL store. The connection is opened by Start.
func NewWithOptions(opts ...MysqlOptionFunc) (*MetadataStoreMysql, error) {
	d := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(d)
	}
	// Set defaults after options are applied (no side effects)
	if d.host == "" {
		d.host = "localhost"
	}
	if d.port == 0 {
		d.port = 3306
	}
	if d.user == "" {
		d.user = "root"
	}
	if d.database == "" {
		d.database = "rangkai"
	}
	if d.maxConns <= 0 {
		d.maxConns = 20
	}
	if d.logger == nil {
		d.logger = gormutil.DiscardLogger()
	}
	return d, nil
}

// SetLogger replaces the logger used by the store
func (d *MetadataStoreMysql) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// connString returns the DSN and the database name it targets
func (d *MetadataStoreMysql) connString() (string, string) {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return dsn, d.database
		}
		return dsn, cfg.DBName
	}
	cfg := mysql.NewConfig()
	cfg.User = d.user
	cfg.Passwd = d.password
	cfg.Net = "tcp"
	cfg.Addr = d.host + ":" + strconv.FormatUint(uint64(d.port), 10)
	cfg.DBName = d.database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.TLSConfig = d.tls
	return cfg.FormatDSN(), d.database
}

// Start implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Start() error {
	if d.db != nil {
		return nil
	}
	dsn, dbName := d.connString()
	db, err := gorm.Open(gormmysql.Open(dsn), gormutil.Config(true))
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if !errors.As(err, &mysqlErr) || mysqlErr.Number != errUnknownDatabase {
			return err
		}
		if err := d.ensureDatabaseExists(dsn, dbName); err != nil {
			return err
		}
		db, err = gorm.Open(gormmysql.Open(dsn), gormutil.Config(true))
		if err != nil {
			return err
		}
	}
	d.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"host", d.host,
		"port", d.port,
		"database", dbName,
	)
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(min(10, d.maxConns))
	sqlDB.SetMaxOpenConns(d.maxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	d.db = db
	return gormutil.Init(d.db, d.logger)
}

func (d *MetadataStoreMysql) ensureDatabaseExists(dsn, dbName string) error {
	if dbName == "" {
		return errors.New("mysql DSN does not name a database")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("parse mysql DSN: %w", err)
	}
	cfg.DBName = ""
	adminDb, err := gorm.Open(
		gormmysql.Open(cfg.FormatDSN()),
		gormutil.Config(false),
	)
	if err != nil {
		return err
	}
	defer gormutil.Close(adminDb) //nolint:errcheck
	return adminDb.Exec(
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName),
	).Error
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

// Close closes the connection pool
func (d *MetadataStoreMysql) Close() error {
	db := d.db
	d.db = nil
	return gormutil.Close(db)
}

// DB returns the database handle
func (d *MetadataStoreMysql) DB() *gorm.DB {
	return d.db
}
