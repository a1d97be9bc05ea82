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

// Package store is the single owner of the relational store. Every write
// method opens exactly one transaction; reads do not require one. The
// store is not shared across goroutines for writes — enrichment pipelines
// funnel results to a single writer holding the *Store.
package store

import (
	"database/sql"
	"fmt"

	"github.com/capitoltrades/ctdata/db"
	"github.com/capitoltrades/ctdata/model"
)

// Store wraps the single-file database connection and exposes the narrow,
// sentinel-aware update operations the enrichment pipelines need.
type Store struct {
	Path string
	conn *sql.DB
}

// Open connects to (and migrates) the store at path.
func Open(path string) (*Store, error) {
	conn, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{Path: path, conn: conn}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn exposes the raw connection for callers (e.g. healthcheck, VACUUM)
// that need it; the narrow update methods below should be preferred by
// enrichment code.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", model.ErrStore, op, err)
}
