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
package store

import (
	"context"
	"database/sql"
)

// IngestMeta reads a single key/value cutoff entry, e.g. the latest trade
// publication date the syncer should resume after. ok=false means the
// key has never been set, which callers treat as "sync everything".
func (s *Store) IngestMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM ingest_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapStoreErr("IngestMeta", err)
	}
	return value, true, nil
}

// SetIngestMeta writes a cutoff value, overwriting any prior one.
func (s *Store) SetIngestMeta(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO ingest_meta (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value
`, key, value)
	return wrapStoreErr("SetIngestMeta", err)
}

// Summary is a point-in-time row count snapshot, the data behind the
// "ctdata info" command.
type Summary struct {
	Trades           int64
	Politicians      int64
	Issuers          int64
	ClosedPositions  int64
	LastTradePubDate string
}

// Summarize gathers row counts across the core tables plus the
// incremental sync cutoff.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var sm Summary
	rows := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM trades`, &sm.Trades},
		{`SELECT COUNT(*) FROM politicians`, &sm.Politicians},
		{`SELECT COUNT(*) FROM issuers`, &sm.Issuers},
		{`SELECT COUNT(*) FROM issuer_performance`, &sm.ClosedPositions},
	}
	for _, r := range rows {
		if err := s.conn.QueryRowContext(ctx, r.query).Scan(r.dest); err != nil {
			return Summary{}, wrapStoreErr("Summarize", err)
		}
	}

	cutoff, ok, err := s.IngestMeta(ctx, "last_trade_pub_date")
	if err != nil {
		return Summary{}, err
	}
	if ok {
		sm.LastTradePubDate = cutoff
	}
	return sm, nil
}
