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

// ReplacePosition writes the FIFO engine's current open-lot summary for a
// (politician, ticker) pair. Positions are fully recomputed per run, so
// this is an upsert rather than an incremental adjustment.
func (s *Store) ReplacePosition(ctx context.Context, p model.Position) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO positions (politician_id, issuer_ticker, shares_held, cost_basis, realized_pnl, last_updated)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (politician_id, issuer_ticker) DO UPDATE SET
	shares_held  = excluded.shares_held,
	cost_basis   = excluded.cost_basis,
	realized_pnl = excluded.realized_pnl,
	last_updated = excluded.last_updated
`, p.PoliticianID, p.IssuerTicker, p.SharesHeld, p.CostBasis, p.RealizedPnL, formatTime(p.LastUpdated))
	return wrapStoreErr("ReplacePosition", err)
}

// PositionsByPolitician returns every open/closed position row tracked
// for a politician.
func (s *Store) PositionsByPolitician(ctx context.Context, politicianID string) ([]model.Position, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT politician_id, issuer_ticker, shares_held, cost_basis, realized_pnl, COALESCE(last_updated, '')
FROM positions WHERE politician_id = ?`, politicianID)
	if err != nil {
		return nil, wrapStoreErr("PositionsByPolitician", err)
	}
	defer rows.Close()

	var out []model.Position
	for rows.Next() {
		var p model.Position
		var updated string
		if err := rows.Scan(&p.PoliticianID, &p.IssuerTicker, &p.SharesHeld, &p.CostBasis, &p.RealizedPnL, &updated); err != nil {
			return nil, wrapStoreErr("PositionsByPolitician scan", err)
		}
		p.LastUpdated = parseTime(updated)
		out = append(out, p)
	}
	return out, wrapStoreErr("PositionsByPolitician rows", rows.Err())
}

// DistinctPoliticianIDs returns every politician with at least one
// disclosed trade, the fan-out set for per-politician FIFO and analytics
// recomputation.
func (s *Store) DistinctPoliticianIDs(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT DISTINCT politician_id FROM trades ORDER BY politician_id`)
	if err != nil {
		return nil, wrapStoreErr("DistinctPoliticianIDs", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapStoreErr("DistinctPoliticianIDs scan", err)
		}
		out = append(out, id)
	}
	return out, wrapStoreErr("DistinctPoliticianIDs rows", rows.Err())
}

// SectorBenchmarks returns the GICS sector -> benchmark ETF reference
// table used for alpha computation and the "Market" sentinel fallback.
func (s *Store) SectorBenchmarks(ctx context.Context) ([]model.SectorBenchmark, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT sector, benchmark_etf FROM sector_benchmarks`)
	if err != nil {
		return nil, wrapStoreErr("SectorBenchmarks", err)
	}
	defer rows.Close()

	var out []model.SectorBenchmark
	for rows.Next() {
		var b model.SectorBenchmark
		if err := rows.Scan(&b.Sector, &b.BenchmarkETF); err != nil {
			return nil, wrapStoreErr("SectorBenchmarks scan", err)
		}
		out = append(out, b)
	}
	return out, wrapStoreErr("SectorBenchmarks rows", rows.Err())
}

// SaveIssuerPerformance persists one performance row for a FIFO-closed
// lot (absolute return, annualized return, and the alpha the caller
// supplies; a nil alpha is stored as NULL).
func (s *Store) SaveIssuerPerformance(ctx context.Context, issuerID int64, politicianID, entryDate, exitDate string, absoluteReturn, annualizedReturn, alpha *float64) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO issuer_performance (issuer_id, politician_id, entry_date, exit_date, absolute_return, annualized_return, alpha)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (issuer_id, politician_id, entry_date) DO UPDATE SET
	exit_date         = excluded.exit_date,
	absolute_return   = excluded.absolute_return,
	annualized_return = excluded.annualized_return,
	alpha             = excluded.alpha
`, issuerID, politicianID, entryDate, nullIfEmpty(exitDate), absoluteReturn, annualizedReturn, alpha)
	return wrapStoreErr("SaveIssuerPerformance", err)
}

// SavePoliticianStats persists the composite anomaly/committee-trading
// statistics for a politician.
func (s *Store) SavePoliticianStats(ctx context.Context, politicianID string, committeeTradingPct, anomalyScore *float64, computedAt string) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO politician_stats (politician_id, committee_trading_pct, anomaly_score, last_computed)
VALUES (?, ?, ?, ?)
ON CONFLICT (politician_id) DO UPDATE SET
	committee_trading_pct = excluded.committee_trading_pct,
	anomaly_score         = excluded.anomaly_score,
	last_computed         = excluded.last_computed
`, politicianID, committeeTradingPct, anomalyScore, computedAt)
	return wrapStoreErr("SavePoliticianStats", err)
}

// SaveIssuerStats persists the per-issuer trade-count rollup. The anomaly
// kernel does not read it; its z-score works from trade values directly.
func (s *Store) SaveIssuerStats(ctx context.Context, issuerID int64, numTrades int, computedAt string) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO issuer_stats (issuer_id, num_trades, last_computed) VALUES (?, ?, ?)
ON CONFLICT (issuer_id) DO UPDATE SET
	num_trades    = excluded.num_trades,
	last_computed = excluded.last_computed
`, issuerID, numTrades, computedAt)
	return wrapStoreErr("SaveIssuerStats", err)
}

// IssuerEODPrice reads the stored historical closing price for an issuer
// on a given date, ok=false when no price has been recorded for that
// (issuer, date) pair yet.
func (s *Store) IssuerEODPrice(ctx context.Context, issuerID int64, date string) (float64, bool, error) {
	var price float64
	err := s.conn.QueryRowContext(ctx, `SELECT close FROM issuer_eod_price WHERE issuer_id = ? AND date = ?`, issuerID, date).Scan(&price)
	if err != nil {
		return 0, false, nil
	}
	return price, true, nil
}
