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

	"github.com/capitoltrades/ctdata/model"
)

// ReplacePoliticianCommittees refreshes the derived membership set for a
// politician. This is DELETE+INSERT only when the incoming set is
// non-empty; an empty set is a no-op, never a clear, because the upstream
// source may simply not have returned committees on a given call rather
// than confirming the politician now serves on none.
func (s *Store) ReplacePoliticianCommittees(ctx context.Context, politicianID string, memberships []model.PoliticianCommittee) error {
	if len(memberships) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("ReplacePoliticianCommittees begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM politician_committees WHERE politician_id = ?`, politicianID); err != nil {
		return wrapStoreErr("ReplacePoliticianCommittees delete", err)
	}

	for _, m := range memberships {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO politician_committees (politician_id, committee_code, committee_name, class)
VALUES (?, ?, ?, ?)`, politicianID, m.CommitteeCode, m.CommitteeName, string(m.Class)); err != nil {
			return wrapStoreErr("ReplacePoliticianCommittees insert", err)
		}
	}

	return wrapStoreErr("ReplacePoliticianCommittees commit", tx.Commit())
}

// PoliticianCommittees reads the cached (tier-2) committee membership for
// a politician.
func (s *Store) PoliticianCommittees(ctx context.Context, politicianID string) ([]model.PoliticianCommittee, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT politician_id, committee_code, COALESCE(committee_name, ''), class
FROM politician_committees WHERE politician_id = ?`, politicianID)
	if err != nil {
		return nil, wrapStoreErr("PoliticianCommittees", err)
	}
	defer rows.Close()

	var out []model.PoliticianCommittee
	for rows.Next() {
		var m model.PoliticianCommittee
		var class string
		if err := rows.Scan(&m.PoliticianID, &m.CommitteeCode, &m.CommitteeName, &class); err != nil {
			return nil, wrapStoreErr("PoliticianCommittees scan", err)
		}
		m.Class = model.CommitteeClass(class)
		out = append(out, m)
	}
	return out, wrapStoreErr("PoliticianCommittees rows", rows.Err())
}

// CommitteeJurisdictions reads the static committee-code -> GICS-sector
// jurisdiction map used by analytics.Conflict.
func (s *Store) CommitteeJurisdictions(ctx context.Context) (map[string][]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT committee_code, gics_sector FROM committee_jurisdictions`)
	if err != nil {
		return nil, wrapStoreErr("CommitteeJurisdictions", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var code, sector string
		if err := rows.Scan(&code, &sector); err != nil {
			return nil, wrapStoreErr("CommitteeJurisdictions scan", err)
		}
		out[code] = append(out[code], sector)
	}
	return out, wrapStoreErr("CommitteeJurisdictions rows", rows.Err())
}

// ReplaceCommitteeJurisdictions inserts every committee-code -> GICS-sector
// pair it is given into the jurisdiction map, keeping rows already present
// and deleting none. The repository embeds no jurisdiction data and nothing
// in it calls this method, so CommitteeJurisdictions returns an empty map
// unless a caller has written pairs here.
func (s *Store) ReplaceCommitteeJurisdictions(ctx context.Context, jurisdictions map[string][]string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("ReplaceCommitteeJurisdictions begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for code, sectors := range jurisdictions {
		for _, sector := range sectors {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO committee_jurisdictions (committee_code, gics_sector) VALUES (?, ?)
ON CONFLICT DO NOTHING`, code, sector); err != nil {
				return wrapStoreErr("ReplaceCommitteeJurisdictions insert", err)
			}
		}
	}

	return wrapStoreErr("ReplaceCommitteeJurisdictions commit", tx.Commit())
}
