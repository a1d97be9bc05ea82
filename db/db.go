// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package db opens the single-file SQLite store and carries its versioned,
// idempotent migration protocol.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// TargetVersion is the schema version this build of ctdata expects. It is
// recorded in PRAGMA user_version.
const TargetVersion = 6

// Open connects to the single-file relational store at path, creating the
// parent directory if necessary, and applies the WAL/foreign-key PRAGMAs
// every ctdata connection relies on.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// sqlite is effectively single-writer; keep the pool small so writers
	// serialize instead of contending for file locks.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate database %s: %w", path, err)
	}

	return conn, nil
}

// Version reads the integer schema version pragma.
func Version(conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func setVersion(conn *sql.DB, v int) error {
	_, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", v))
	return err
}

// Migrate reads the version pragma, applies the next idempotent migration
// function while version < TargetVersion, then runs the full base schema
// (also IF-NOT-EXISTS guarded) to close any gaps, then runs the
// reference-data populators.
func Migrate(conn *sql.DB) error {
	version, err := Version(conn)
	if err != nil {
		return err
	}

	for version < len(migrations) {
		log.Debug().Int("fromVersion", version).Msg("applying migration")
		if err := migrations[version](conn); err != nil {
			return fmt.Errorf("migration %d: %w", version+1, err)
		}
		version++
		if err := setVersion(conn, version); err != nil {
			return err
		}
	}

	if _, err := conn.Exec(baseSchema); err != nil {
		return fmt.Errorf("base schema: %w", err)
	}

	if err := populateReferenceData(conn); err != nil {
		return fmt.Errorf("populate reference data: %w", err)
	}

	if version < TargetVersion {
		if err := setVersion(conn, TargetVersion); err != nil {
			return err
		}
	}

	return nil
}

// addColumnIfMissing runs an ADD COLUMN statement and swallows the
// "duplicate column" error SQLite raises on a second application, making
// the migration idempotent without an information_schema query.
func addColumnIfMissing(conn *sql.DB, stmt string) error {
	_, err := conn.Exec(stmt)
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate column") || strings.Contains(msg, "already exists") {
		return nil
	}
	return err
}
