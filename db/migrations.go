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
package db

import "database/sql"

// migrations is the ordered list of idempotent migration steps. Each
// function must be safe to re-run: CREATE TABLE IF NOT EXISTS, CREATE
// INDEX IF NOT EXISTS, and ADD COLUMN guarded via addColumnIfMissing.
// index i upgrades a database at version i to version i+1.
var migrations = []func(*sql.DB) error{
	migrate1CoreTables,
	migrate2PriceEnrichment,
	migrate3Committees,
	migrate4FEC,
	migrate5Positions,
	migrate6Indexes,
}

func migrate1CoreTables(conn *sql.DB) error {
	_, err := conn.Exec(`
CREATE TABLE IF NOT EXISTS assets (
	asset_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	type       TEXT NOT NULL DEFAULT 'unknown',
	ticker     TEXT,
	instrument TEXT
);

CREATE TABLE IF NOT EXISTS issuers (
	issuer_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL,
	ticker    TEXT,
	sector    TEXT
);

CREATE TABLE IF NOT EXISTS politicians (
	politician_id TEXT PRIMARY KEY,
	state         TEXT,
	party         TEXT,
	chamber       TEXT NOT NULL CHECK (chamber IN ('house', 'senate')),
	first_name    TEXT,
	last_name     TEXT,
	dob           TEXT,
	gender        TEXT
);

CREATE TABLE IF NOT EXISTS trades (
	tx_id         INTEGER PRIMARY KEY,
	politician_id TEXT NOT NULL REFERENCES politicians(politician_id),
	asset_id      INTEGER REFERENCES assets(asset_id),
	issuer_id     INTEGER REFERENCES issuers(issuer_id),
	pub_date      TEXT,
	filing_date   TEXT,
	tx_date       TEXT,
	tx_type       TEXT NOT NULL,
	size          REAL,
	size_range_low  INTEGER,
	size_range_high INTEGER,
	price         REAL,
	value         INTEGER NOT NULL DEFAULT 0,
	filing_id     INTEGER NOT NULL DEFAULT 0,
	filing_url    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS trade_committees (
	tx_id         INTEGER NOT NULL REFERENCES trades(tx_id),
	committee_code TEXT NOT NULL,
	PRIMARY KEY (tx_id, committee_code)
);

CREATE TABLE IF NOT EXISTS trade_labels (
	tx_id INTEGER NOT NULL REFERENCES trades(tx_id),
	label TEXT NOT NULL,
	PRIMARY KEY (tx_id, label)
);

CREATE TABLE IF NOT EXISTS ingest_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`)
	return err
}

func migrate2PriceEnrichment(conn *sql.DB) error {
	stmts := []string{
		`ALTER TABLE trades ADD COLUMN trade_date_price REAL`,
		`ALTER TABLE trades ADD COLUMN estimated_shares REAL`,
		`ALTER TABLE trades ADD COLUMN estimated_value REAL`,
		`ALTER TABLE trades ADD COLUMN benchmark_price REAL`,
		`ALTER TABLE trades ADD COLUMN price_source TEXT`,
		`ALTER TABLE trades ADD COLUMN detail_enriched_at TEXT`,
		`ALTER TABLE trades ADD COLUMN price_enriched_at TEXT`,
		`ALTER TABLE trades ADD COLUMN benchmark_enriched_at TEXT`,
		`ALTER TABLE issuers ADD COLUMN gics_sector TEXT`,
		`ALTER TABLE issuers ADD COLUMN enriched_at TEXT`,
	}
	for _, s := range stmts {
		if err := addColumnIfMissing(conn, s); err != nil {
			return err
		}
	}
	return nil
}

func migrate3Committees(conn *sql.DB) error {
	_, err := conn.Exec(`
CREATE TABLE IF NOT EXISTS politician_committees (
	politician_id  TEXT NOT NULL REFERENCES politicians(politician_id),
	committee_code TEXT NOT NULL,
	committee_name TEXT,
	class          TEXT NOT NULL DEFAULT 'other',
	PRIMARY KEY (politician_id, committee_code)
);

CREATE TABLE IF NOT EXISTS committee_jurisdictions (
	committee_code TEXT NOT NULL,
	gics_sector    TEXT NOT NULL,
	PRIMARY KEY (committee_code, gics_sector)
);
`)
	return err
}

func migrate4FEC(conn *sql.DB) error {
	_, err := conn.Exec(`
CREATE TABLE IF NOT EXISTS fec_mappings (
	politician_id    TEXT NOT NULL REFERENCES politicians(politician_id),
	fec_candidate_id TEXT NOT NULL,
	bioguide_id      TEXT,
	PRIMARY KEY (politician_id, fec_candidate_id)
);

CREATE TABLE IF NOT EXISTS fec_committees (
	committee_id   TEXT PRIMARY KEY,
	candidate_id   TEXT NOT NULL,
	name           TEXT,
	designation    TEXT,
	committee_type TEXT
);

CREATE TABLE IF NOT EXISTS donations (
	sub_id                 TEXT PRIMARY KEY,
	committee_id           TEXT NOT NULL REFERENCES fec_committees(committee_id),
	contributor_name       TEXT,
	contributor_employer   TEXT,
	contributor_occupation TEXT,
	contributor_state      TEXT,
	contributor_zip        TEXT,
	amount                 REAL NOT NULL DEFAULT 0,
	date                   TEXT,
	cycle                  INTEGER
);

CREATE TABLE IF NOT EXISTS donation_sync_meta (
	politician_id                  TEXT NOT NULL,
	committee_id                   TEXT NOT NULL,
	last_index                     INTEGER NOT NULL DEFAULT 0,
	last_contribution_receipt_date TEXT NOT NULL DEFAULT '',
	total_synced                   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (politician_id, committee_id)
);

CREATE TABLE IF NOT EXISTS employer_mappings (
	employer   TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	match_type TEXT
);

CREATE TABLE IF NOT EXISTS employer_lookups (
	raw_employer    TEXT PRIMARY KEY,
	normalized_form TEXT NOT NULL
);
`)
	return err
}

func migrate5Positions(conn *sql.DB) error {
	_, err := conn.Exec(`
CREATE TABLE IF NOT EXISTS positions (
	politician_id TEXT NOT NULL,
	issuer_ticker TEXT NOT NULL,
	shares_held   REAL NOT NULL DEFAULT 0,
	cost_basis    REAL NOT NULL DEFAULT 0,
	realized_pnl  REAL NOT NULL DEFAULT 0,
	last_updated  TEXT,
	PRIMARY KEY (politician_id, issuer_ticker)
);

CREATE TABLE IF NOT EXISTS sector_benchmarks (
	sector        TEXT PRIMARY KEY,
	benchmark_etf TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS politician_stats (
	politician_id      TEXT PRIMARY KEY,
	committee_trading_pct REAL,
	anomaly_score      REAL,
	last_computed      TEXT
);

CREATE TABLE IF NOT EXISTS issuer_stats (
	issuer_id     INTEGER PRIMARY KEY,
	num_trades    INTEGER NOT NULL DEFAULT 0,
	last_computed TEXT
);

CREATE TABLE IF NOT EXISTS issuer_performance (
	issuer_id        INTEGER NOT NULL,
	politician_id    TEXT NOT NULL,
	entry_date       TEXT,
	exit_date        TEXT,
	absolute_return  REAL,
	annualized_return REAL,
	alpha            REAL,
	PRIMARY KEY (issuer_id, politician_id, entry_date)
);

CREATE TABLE IF NOT EXISTS issuer_eod_price (
	issuer_id INTEGER NOT NULL,
	date      TEXT NOT NULL,
	close     REAL,
	PRIMARY KEY (issuer_id, date)
);
`)
	return err
}

func migrate6Indexes(conn *sql.DB) error {
	_, err := conn.Exec(`
CREATE INDEX IF NOT EXISTS idx_trades_politician_id ON trades(politician_id);
CREATE INDEX IF NOT EXISTS idx_trades_asset_id ON trades(asset_id);
CREATE INDEX IF NOT EXISTS idx_trades_issuer_id ON trades(issuer_id);
CREATE INDEX IF NOT EXISTS idx_trades_detail_enriched_at ON trades(detail_enriched_at);
CREATE INDEX IF NOT EXISTS idx_trades_price_enriched_at ON trades(price_enriched_at);
CREATE INDEX IF NOT EXISTS idx_trades_benchmark_enriched_at ON trades(benchmark_enriched_at);
CREATE INDEX IF NOT EXISTS idx_issuers_enriched_at ON issuers(enriched_at);
CREATE INDEX IF NOT EXISTS idx_donations_committee_id ON donations(committee_id);
CREATE INDEX IF NOT EXISTS idx_donations_date ON donations(date);
CREATE INDEX IF NOT EXISTS idx_donations_cycle ON donations(cycle);
`)
	return err
}

// baseSchema re-runs every CREATE TABLE/INDEX IF NOT EXISTS statement after
// the migration loop, closing any gap left by a database that was created
// out-of-band or by a migration that was skipped on a previous partial run.
const baseSchema = `
CREATE TABLE IF NOT EXISTS assets (
	asset_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	type       TEXT NOT NULL DEFAULT 'unknown',
	ticker     TEXT,
	instrument TEXT
);
CREATE TABLE IF NOT EXISTS issuers (
	issuer_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	ticker      TEXT,
	sector      TEXT,
	gics_sector TEXT,
	enriched_at TEXT
);
CREATE TABLE IF NOT EXISTS politicians (
	politician_id TEXT PRIMARY KEY,
	state         TEXT,
	party         TEXT,
	chamber       TEXT NOT NULL CHECK (chamber IN ('house', 'senate')),
	first_name    TEXT,
	last_name     TEXT,
	dob           TEXT,
	gender        TEXT
);
CREATE TABLE IF NOT EXISTS trades (
	tx_id         INTEGER PRIMARY KEY,
	politician_id TEXT NOT NULL REFERENCES politicians(politician_id),
	asset_id      INTEGER REFERENCES assets(asset_id),
	issuer_id     INTEGER REFERENCES issuers(issuer_id),
	pub_date      TEXT,
	filing_date   TEXT,
	tx_date       TEXT,
	tx_type       TEXT NOT NULL,
	size          REAL,
	size_range_low  INTEGER,
	size_range_high INTEGER,
	price         REAL,
	value         INTEGER NOT NULL DEFAULT 0,
	filing_id     INTEGER NOT NULL DEFAULT 0,
	filing_url    TEXT NOT NULL DEFAULT '',
	trade_date_price REAL,
	estimated_shares REAL,
	estimated_value  REAL,
	benchmark_price  REAL,
	price_source     TEXT,
	detail_enriched_at    TEXT,
	price_enriched_at     TEXT,
	benchmark_enriched_at TEXT
);
CREATE TABLE IF NOT EXISTS trade_committees (
	tx_id          INTEGER NOT NULL REFERENCES trades(tx_id),
	committee_code TEXT NOT NULL,
	PRIMARY KEY (tx_id, committee_code)
);
CREATE TABLE IF NOT EXISTS trade_labels (
	tx_id INTEGER NOT NULL REFERENCES trades(tx_id),
	label TEXT NOT NULL,
	PRIMARY KEY (tx_id, label)
);
CREATE TABLE IF NOT EXISTS ingest_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS politician_committees (
	politician_id  TEXT NOT NULL REFERENCES politicians(politician_id),
	committee_code TEXT NOT NULL,
	committee_name TEXT,
	class          TEXT NOT NULL DEFAULT 'other',
	PRIMARY KEY (politician_id, committee_code)
);
CREATE TABLE IF NOT EXISTS committee_jurisdictions (
	committee_code TEXT NOT NULL,
	gics_sector    TEXT NOT NULL,
	PRIMARY KEY (committee_code, gics_sector)
);
CREATE TABLE IF NOT EXISTS fec_mappings (
	politician_id    TEXT NOT NULL REFERENCES politicians(politician_id),
	fec_candidate_id TEXT NOT NULL,
	bioguide_id      TEXT,
	PRIMARY KEY (politician_id, fec_candidate_id)
);
CREATE TABLE IF NOT EXISTS fec_committees (
	committee_id   TEXT PRIMARY KEY,
	candidate_id   TEXT NOT NULL,
	name           TEXT,
	designation    TEXT,
	committee_type TEXT
);
CREATE TABLE IF NOT EXISTS donations (
	sub_id                 TEXT PRIMARY KEY,
	committee_id           TEXT NOT NULL REFERENCES fec_committees(committee_id),
	contributor_name       TEXT,
	contributor_employer   TEXT,
	contributor_occupation TEXT,
	contributor_state      TEXT,
	contributor_zip        TEXT,
	amount                 REAL NOT NULL DEFAULT 0,
	date                   TEXT,
	cycle                  INTEGER
);
CREATE TABLE IF NOT EXISTS donation_sync_meta (
	politician_id                  TEXT NOT NULL,
	committee_id                   TEXT NOT NULL,
	last_index                     INTEGER NOT NULL DEFAULT 0,
	last_contribution_receipt_date TEXT NOT NULL DEFAULT '',
	total_synced                   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (politician_id, committee_id)
);
CREATE TABLE IF NOT EXISTS employer_mappings (
	employer   TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	match_type TEXT
);
CREATE TABLE IF NOT EXISTS employer_lookups (
	raw_employer    TEXT PRIMARY KEY,
	normalized_form TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	politician_id TEXT NOT NULL,
	issuer_ticker TEXT NOT NULL,
	shares_held   REAL NOT NULL DEFAULT 0,
	cost_basis    REAL NOT NULL DEFAULT 0,
	realized_pnl  REAL NOT NULL DEFAULT 0,
	last_updated  TEXT,
	PRIMARY KEY (politician_id, issuer_ticker)
);
CREATE TABLE IF NOT EXISTS sector_benchmarks (
	sector        TEXT PRIMARY KEY,
	benchmark_etf TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS politician_stats (
	politician_id         TEXT PRIMARY KEY,
	committee_trading_pct REAL,
	anomaly_score         REAL,
	last_computed         TEXT
);
CREATE TABLE IF NOT EXISTS issuer_stats (
	issuer_id     INTEGER PRIMARY KEY,
	num_trades    INTEGER NOT NULL DEFAULT 0,
	last_computed TEXT
);
CREATE TABLE IF NOT EXISTS issuer_performance (
	issuer_id         INTEGER NOT NULL,
	politician_id     TEXT NOT NULL,
	entry_date        TEXT,
	exit_date         TEXT,
	absolute_return   REAL,
	annualized_return REAL,
	alpha             REAL,
	PRIMARY KEY (issuer_id, politician_id, entry_date)
);
CREATE TABLE IF NOT EXISTS issuer_eod_price (
	issuer_id INTEGER NOT NULL,
	date      TEXT NOT NULL,
	close     REAL,
	PRIMARY KEY (issuer_id, date)
);
CREATE INDEX IF NOT EXISTS idx_trades_politician_id ON trades(politician_id);
CREATE INDEX IF NOT EXISTS idx_trades_asset_id ON trades(asset_id);
CREATE INDEX IF NOT EXISTS idx_trades_issuer_id ON trades(issuer_id);
CREATE INDEX IF NOT EXISTS idx_trades_detail_enriched_at ON trades(detail_enriched_at);
CREATE INDEX IF NOT EXISTS idx_trades_price_enriched_at ON trades(price_enriched_at);
CREATE INDEX IF NOT EXISTS idx_trades_benchmark_enriched_at ON trades(benchmark_enriched_at);
CREATE INDEX IF NOT EXISTS idx_issuers_enriched_at ON issuers(enriched_at);
CREATE INDEX IF NOT EXISTS idx_donations_committee_id ON donations(committee_id);
CREATE INDEX IF NOT EXISTS idx_donations_date ON donations(date);
CREATE INDEX IF NOT EXISTS idx_donations_cycle ON donations(cycle);
`

// populateReferenceData seeds the GICS sector/benchmark table the first
// time the schema is created. It checks row count first so a later run
// with a customized table is left untouched.
func populateReferenceData(conn *sql.DB) error {
	var count int
	if err := conn.QueryRow(`SELECT count(*) FROM sector_benchmarks`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT INTO sector_benchmarks (sector, benchmark_etf) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for sector, etf := range defaultSectorBenchmarks {
		if _, err := stmt.Exec(sector, etf); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// defaultSectorBenchmarks is the 12-row GICS sector -> benchmark ETF table
// (the 11 GICS sectors plus the "Market" sentinel), seeded on first init.
// priceenrich.SectorETFTable (loaded by priceenrich.LoadSectorETFTable
// from the embedded refdata/sector_etfs.yaml) is the authoritative source;
// this copy exists purely so a fresh database is queryable before the
// first enrichment pass runs.
var defaultSectorBenchmarks = map[string]string{
	"Market":                 "SPY",
	"Energy":                 "XLE",
	"Materials":              "XLB",
	"Industrials":            "XLI",
	"Consumer Discretionary": "XLY",
	"Consumer Staples":       "XLP",
	"Health Care":            "XLV",
	"Financials":             "XLF",
	"Information Technology": "XLK",
	"Communication Services": "XLC",
	"Utilities":              "XLU",
	"Real Estate":            "XLRE",
}
