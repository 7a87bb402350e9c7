/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"errors"
	"fmt"
	"strings"

	"token-wallet-go/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// dialect captures the differences between the supported SQL backends.
// Queries are written once with $n placeholders, which both drivers accept.
type dialect struct {
	name          string
	driverName    string
	gooseDialect  string
	migrationsDir string
	// lockSuffix is appended to row-locking selects. SQLite serializes writers
	// through BEGIN IMMEDIATE instead of row locks.
	lockSuffix string
	// seqColumn increases with every insert and breaks created_at ties.
	// SQLite reuses the implicit rowid; postgres carries a bigserial column.
	seqColumn string
}

var (
	sqliteDialect = dialect{
		name:          "sqlite",
		driverName:    DriverSQLite,
		gooseDialect:  "sqlite3",
		migrationsDir: "sqlite",
		seqColumn:     "rowid",
	}
	postgresDialect = dialect{
		name:          "postgres",
		driverName:    DriverPostgres,
		gooseDialect:  "pgx",
		migrationsDir: "postgres",
		lockSuffix:    " FOR UPDATE",
		seqColumn:     "seq",
	}
)

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite, "sqlite":
		return sqliteDialect, nil
	case DriverPostgres, "postgres", "postgresql":
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func (d dialect) dsn(cfg models.DatabaseConfig) (string, error) {
	if d.driverName == DriverPostgres {
		if cfg.URL == "" {
			return "", fmt.Errorf("database URL cannot be empty for driver %s", cfg.Driver)
		}
		return cfg.URL, nil
	}
	if cfg.Path == "" {
		return "", fmt.Errorf("database path cannot be empty")
	}
	return cfg.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", nil
}

func (d dialect) forUpdate(query string) string {
	return query + d.lockSuffix
}

// inInsertOrder substitutes the dialect's insertion sequence for {seq}.
func (d dialect) inInsertOrder(query string) string {
	return strings.ReplaceAll(query, "{seq}", d.seqColumn)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isCheckViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return false
}
