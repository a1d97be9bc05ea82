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
	"time"

	"github.com/capitoltrades/ctdata/model"
)

// UpsertPolitician inserts or refreshes a politician row. Nullable fields
// use COALESCE(new, old) sentinel protection.
func (s *Store) UpsertPolitician(ctx context.Context, p *model.Politician) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO politicians (politician_id, state, party, chamber, first_name, last_name, dob, gender)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (politician_id) DO UPDATE SET
	state      = COALESCE(NULLIF(excluded.state, ''), politicians.state),
	party      = COALESCE(NULLIF(excluded.party, ''), politicians.party),
	chamber    = excluded.chamber,
	first_name = COALESCE(NULLIF(excluded.first_name, ''), politicians.first_name),
	last_name  = COALESCE(NULLIF(excluded.last_name, ''), politicians.last_name),
	dob        = COALESCE(NULLIF(excluded.dob, ''), politicians.dob),
	gender     = COALESCE(NULLIF(excluded.gender, ''), politicians.gender)
`, p.PoliticianID, p.State, p.Party, string(p.Chamber), p.FirstName, p.LastName, p.DOB, p.Gender)
	return wrapStoreErr("UpsertPolitician", err)
}

// UpsertIssuer inserts or refreshes an issuer by name, returning its
// issuer_id. Ticker/sector are sentinel-protected via COALESCE.
func (s *Store) UpsertIssuer(ctx context.Context, iss *model.Issuer) (int64, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapStoreErr("UpsertIssuer begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
INSERT INTO issuers (name, ticker, sector)
SELECT ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM issuers WHERE name = ?)`, iss.Name, nullIfEmpty(iss.Ticker), nullIfEmpty(iss.Sector), iss.Name)
	if err != nil {
		return 0, wrapStoreErr("UpsertIssuer insert", err)
	}

	_, err = tx.ExecContext(ctx, `
UPDATE issuers SET
	ticker = COALESCE(NULLIF(?, ''), ticker),
	sector = COALESCE(NULLIF(?, ''), sector)
WHERE name = ?`, iss.Ticker, iss.Sector, iss.Name)
	if err != nil {
		return 0, wrapStoreErr("UpsertIssuer update", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT issuer_id FROM issuers WHERE name = ?`, iss.Name).Scan(&id); err != nil {
		return 0, wrapStoreErr("UpsertIssuer select id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, wrapStoreErr("UpsertIssuer commit", err)
	}
	return id, nil
}

// UpsertAsset inserts or refreshes an asset by ticker. Asset-type upgrades
// are one-way: only 'unknown' can be replaced, never overwritten once
// known.
func (s *Store) UpsertAsset(ctx context.Context, a *model.Asset) (int64, error) {
	assetType := a.Type
	if assetType == "" {
		assetType = model.AssetUnknown
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapStoreErr("UpsertAsset begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
INSERT INTO assets (type, ticker, instrument)
SELECT ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM assets WHERE ticker = ?)`, string(assetType), a.Ticker, a.Instrument, a.Ticker)
	if err != nil {
		return 0, wrapStoreErr("UpsertAsset insert", err)
	}

	_, err = tx.ExecContext(ctx, `
UPDATE assets SET
	type = CASE WHEN type = 'unknown' AND ? <> 'unknown' THEN ? ELSE type END,
	instrument = COALESCE(NULLIF(?, ''), instrument)
WHERE ticker = ?`, string(assetType), string(assetType), a.Instrument, a.Ticker)
	if err != nil {
		return 0, wrapStoreErr("UpsertAsset update", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT asset_id FROM assets WHERE ticker = ?`, a.Ticker).Scan(&id); err != nil {
		return 0, wrapStoreErr("UpsertAsset select id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, wrapStoreErr("UpsertAsset commit", err)
	}
	return id, nil
}

// UpdateIssuerSectors writes the GICS sector resolved for an issuer and
// sets its enrichment timestamp, on both success and definitive failure
// (gicsSector == "" means "looked up, no sector known").
func (s *Store) UpdateIssuerSectors(ctx context.Context, issuerID int64, gicsSector string) error {
	_, err := s.conn.ExecContext(ctx, `
UPDATE issuers SET gics_sector = NULLIF(?, ''), enriched_at = ?
WHERE issuer_id = ?`, gicsSector, formatTime(time.Now()), issuerID)
	return wrapStoreErr("UpdateIssuerSectors", err)
}

// UpdateCurrentPrice writes the most recently observed market price for a
// ticker into issuer_eod_price keyed on today's date, giving callers a
// queryable "as of now" snapshot distinct from the historical trade-date
// price series.
func (s *Store) UpdateCurrentPrice(ctx context.Context, issuerID int64, price *float64, asOf string) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO issuer_eod_price (issuer_id, date, close) VALUES (?, ?, ?)
ON CONFLICT (issuer_id, date) DO UPDATE SET close = COALESCE(excluded.close, issuer_eod_price.close)
`, issuerID, asOf, price)
	return wrapStoreErr("UpdateCurrentPrice", err)
}

// IssuersMissingSector returns issuers that have not yet had a sector
// enrichment attempt (enriched_at IS NULL), bounded to limit rows.
func (s *Store) IssuersMissingSector(ctx context.Context, limit int) ([]model.Issuer, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT issuer_id, name, COALESCE(ticker, ''), COALESCE(sector, '')
FROM issuers WHERE enriched_at IS NULL AND ticker IS NOT NULL AND ticker <> ''
LIMIT ?`, limit)
	if err != nil {
		return nil, wrapStoreErr("IssuersMissingSector", err)
	}
	defer rows.Close()

	var out []model.Issuer
	for rows.Next() {
		var iss model.Issuer
		if err := rows.Scan(&iss.IssuerID, &iss.Name, &iss.Ticker, &iss.Sector); err != nil {
			return nil, wrapStoreErr("IssuersMissingSector scan", err)
		}
		out = append(out, iss)
	}
	return out, wrapStoreErr("IssuersMissingSector rows", rows.Err())
}

// IssuerIDByTicker resolves a ticker to its issuer row, ok=false when no
// issuer carries that ticker.
func (s *Store) IssuerIDByTicker(ctx context.Context, ticker string) (int64, bool, error) {
	var id int64
	err := s.conn.QueryRowContext(ctx, `SELECT issuer_id FROM issuers WHERE ticker = ?`, ticker).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapStoreErr("IssuerIDByTicker", err)
	}
	return id, true, nil
}

// IssuerByID fetches a single issuer row.
func (s *Store) IssuerByID(ctx context.Context, id int64) (*model.Issuer, error) {
	var iss model.Issuer
	var ticker, sector, gics sql.NullString
	err := s.conn.QueryRowContext(ctx, `SELECT issuer_id, name, ticker, sector, gics_sector FROM issuers WHERE issuer_id = ?`, id).
		Scan(&iss.IssuerID, &iss.Name, &ticker, &sector, &gics)
	if err != nil {
		return nil, wrapStoreErr("IssuerByID", err)
	}
	iss.Ticker, iss.Sector, iss.GICSSector = ticker.String, sector.String, gics.String
	return &iss, nil
}

// PoliticianByID fetches a single politician row.
func (s *Store) PoliticianByID(ctx context.Context, politicianID string) (*model.Politician, error) {
	var p model.Politician
	var state, party, chamber, dob, gender sql.NullString
	err := s.conn.QueryRowContext(ctx, `
SELECT politician_id, state, party, chamber, first_name, last_name, dob, gender
FROM politicians WHERE politician_id = ?`, politicianID).
		Scan(&p.PoliticianID, &state, &party, &chamber, &p.FirstName, &p.LastName, &dob, &gender)
	if err != nil {
		return nil, wrapStoreErr("PoliticianByID", err)
	}
	p.State, p.Party, p.DOB, p.Gender = state.String, party.String, dob.String, gender.String
	p.Chamber = model.Chamber(chamber.String)
	return &p, nil
}
