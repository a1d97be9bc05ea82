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

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpsertTrade inserts a trade or updates it in place. Sentinel protection:
// filing_id (sentinel 0) and filing_url (sentinel "") only overwrite the
// stored value when the incoming value is non-sentinel, so a column once
// populated is never clobbered back to unknown. Idempotent: applying the
// same trade twice leaves the store in the same state.
func (s *Store) UpsertTrade(ctx context.Context, t *model.Trade) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("UpsertTrade begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
INSERT INTO trades (
	tx_id, politician_id, asset_id, issuer_id, pub_date, filing_date, tx_date,
	tx_type, size, size_range_low, size_range_high, price, value, filing_id, filing_url
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (tx_id) DO UPDATE SET
	politician_id   = excluded.politician_id,
	asset_id        = excluded.asset_id,
	issuer_id       = excluded.issuer_id,
	pub_date        = excluded.pub_date,
	filing_date     = excluded.filing_date,
	tx_date         = excluded.tx_date,
	tx_type         = excluded.tx_type,
	size            = COALESCE(excluded.size, trades.size),
	size_range_low  = COALESCE(excluded.size_range_low, trades.size_range_low),
	size_range_high = COALESCE(excluded.size_range_high, trades.size_range_high),
	price           = COALESCE(excluded.price, trades.price),
	value           = excluded.value,
	filing_id       = CASE WHEN excluded.filing_id <> 0 THEN excluded.filing_id ELSE trades.filing_id END,
	filing_url      = CASE WHEN excluded.filing_url <> '' THEN excluded.filing_url ELSE trades.filing_url END
`,
		t.TxID, t.PoliticianID, t.AssetID, t.IssuerID, formatTime(t.PubDate), formatTime(t.FilingDate), formatTime(t.TxDate),
		string(t.TxType), t.Size, t.SizeRangeLow, t.SizeRangeHigh, t.Price, t.Value, t.FilingID, t.FilingURL,
	)
	if err != nil {
		return wrapStoreErr("UpsertTrade", err)
	}

	return wrapStoreErr("UpsertTrade commit", tx.Commit())
}

// UpdateTradeDetail writes filing metadata, asset type, size range, price,
// and committee/label joins recovered from the scrape detail call.
// Asset-type upgrades are one-way (sentinel 'unknown' -> concrete); the
// many-to-many refresh is a no-op when the incoming set is empty, so an
// "absent on this payload" response can never clear a previously known
// set.
func (s *Store) UpdateTradeDetail(ctx context.Context, txID int64, assetType model.AssetType, filingID int64, filingURL string, sizeLow, sizeHigh *int64, price *float64, committees, labels []string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("UpdateTradeDetail begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var assetID sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT asset_id FROM trades WHERE tx_id = ?`, txID).Scan(&assetID); err != nil {
		return wrapStoreErr("UpdateTradeDetail lookup asset", err)
	}

	if assetID.Valid && assetType != "" {
		// asset-type upgrades are one-way: only unknown -> concrete.
		_, err = tx.ExecContext(ctx, `
UPDATE assets SET type = CASE WHEN type = 'unknown' AND ? <> 'unknown' THEN ? ELSE type END
WHERE asset_id = ?`, string(assetType), string(assetType), assetID.Int64)
		if err != nil {
			return wrapStoreErr("UpdateTradeDetail asset type", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
UPDATE trades SET
	filing_id       = CASE WHEN ? <> 0 THEN ? ELSE filing_id END,
	filing_url      = CASE WHEN ? <> '' THEN ? ELSE filing_url END,
	size_range_low  = COALESCE(?, size_range_low),
	size_range_high = COALESCE(?, size_range_high),
	price           = COALESCE(?, price),
	detail_enriched_at = ?
WHERE tx_id = ?`,
		filingID, filingID, filingURL, filingURL, sizeLow, sizeHigh, price, formatTime(time.Now()), txID)
	if err != nil {
		return wrapStoreErr("UpdateTradeDetail trade", err)
	}

	if len(committees) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trade_committees WHERE tx_id = ?`, txID); err != nil {
			return wrapStoreErr("UpdateTradeDetail delete committees", err)
		}
		for _, c := range committees {
			if _, err := tx.ExecContext(ctx, `INSERT INTO trade_committees (tx_id, committee_code) VALUES (?, ?)`, txID, c); err != nil {
				return wrapStoreErr("UpdateTradeDetail insert committee", err)
			}
		}
	}

	if len(labels) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trade_labels WHERE tx_id = ?`, txID); err != nil {
			return wrapStoreErr("UpdateTradeDetail delete labels", err)
		}
		for _, l := range labels {
			if _, err := tx.ExecContext(ctx, `INSERT INTO trade_labels (tx_id, label) VALUES (?, ?)`, txID, l); err != nil {
				return wrapStoreErr("UpdateTradeDetail insert label", err)
			}
		}
	}

	return wrapStoreErr("UpdateTradeDetail commit", tx.Commit())
}

// SelectPendingDetail returns trade IDs that have never had a detail
// fetch attempted, bounded to limit rows so a resumed run makes
// progress without re-selecting already-enriched trades.
func (s *Store) SelectPendingDetail(ctx context.Context, limit int) ([]int64, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT tx_id FROM trades WHERE detail_enriched_at IS NULL ORDER BY tx_id LIMIT ?`, limit)
	if err != nil {
		return nil, wrapStoreErr("SelectPendingDetail", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var txID int64
		if err := rows.Scan(&txID); err != nil {
			return nil, wrapStoreErr("SelectPendingDetail scan", err)
		}
		out = append(out, txID)
	}
	return out, wrapStoreErr("SelectPendingDetail rows", rows.Err())
}

// MarkDetailEnriched stamps detail_enriched_at without touching any other
// column, used when a detail fetch definitively returns NoData (e.g. a
// filing the upstream source has since withdrawn).
func (s *Store) MarkDetailEnriched(ctx context.Context, txID int64) error {
	_, err := s.conn.ExecContext(ctx, `UPDATE trades SET detail_enriched_at = ? WHERE tx_id = ?`, formatTime(time.Now()), txID)
	return wrapStoreErr("MarkDetailEnriched", err)
}

// TradePriceUpdate carries the result of phase 1 historical price
// enrichment for a single trade.
type TradePriceUpdate struct {
	TxID            int64
	TradeDatePrice  *float64 // nil when the trade is a definitive no-data case
	EstimatedShares *float64
	EstimatedValue  *float64
	PriceSource     string
}

// UpdateTradePrices writes the historical price, share/value estimates,
// and price source, and sets price_enriched_at. Called on both success
// and definitive (NoData) outcomes so the resumability predicate
// (`WHERE price_enriched_at IS NULL`) never re-selects the row.
func (s *Store) UpdateTradePrices(ctx context.Context, u TradePriceUpdate) error {
	_, err := s.conn.ExecContext(ctx, `
UPDATE trades SET
	trade_date_price  = ?,
	estimated_shares  = ?,
	estimated_value   = ?,
	price_source      = ?,
	price_enriched_at = ?
WHERE tx_id = ?`,
		u.TradeDatePrice, u.EstimatedShares, u.EstimatedValue, nullIfEmpty(u.PriceSource), formatTime(time.Now()), u.TxID)
	return wrapStoreErr("UpdateTradePrices", err)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// UpdateBenchmarkPrice writes a trade's benchmark price (the sector or
// market ETF's close on the trade date) and sets benchmark_enriched_at.
func (s *Store) UpdateBenchmarkPrice(ctx context.Context, txID int64, benchmarkPrice *float64) error {
	_, err := s.conn.ExecContext(ctx, `
UPDATE trades SET benchmark_price = ?, benchmark_enriched_at = ?
WHERE tx_id = ?`, benchmarkPrice, formatTime(time.Now()), txID)
	return wrapStoreErr("UpdateBenchmarkPrice", err)
}

// PendingHistoricalPrice is a trade awaiting phase-1 price enrichment.
type PendingHistoricalPrice struct {
	TxID          int64
	Ticker        string
	TxDate        time.Time
	SizeRangeLow  *int64
	SizeRangeHigh *int64
}

// SelectPendingHistoricalPrices returns trades with no phase-1 attempt
// yet (price_enriched_at is null) whose issuer carries a non-null ticker,
// the phase-1 historical price
// enrichment candidate set.
func (s *Store) SelectPendingHistoricalPrices(ctx context.Context, limit int) ([]PendingHistoricalPrice, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT t.tx_id, i.ticker, t.tx_date, t.size_range_low, t.size_range_high
FROM trades t
JOIN issuers i ON i.issuer_id = t.issuer_id
WHERE t.price_enriched_at IS NULL AND i.ticker IS NOT NULL AND i.ticker <> ''
ORDER BY t.tx_id
LIMIT ?`, limit)
	if err != nil {
		return nil, wrapStoreErr("SelectPendingHistoricalPrices", err)
	}
	defer rows.Close()

	var out []PendingHistoricalPrice
	for rows.Next() {
		var p PendingHistoricalPrice
		var txDate string
		if err := rows.Scan(&p.TxID, &p.Ticker, &txDate, &p.SizeRangeLow, &p.SizeRangeHigh); err != nil {
			return nil, wrapStoreErr("SelectPendingHistoricalPrices scan", err)
		}
		p.TxDate = parseTime(txDate)
		out = append(out, p)
	}
	return out, wrapStoreErr("SelectPendingHistoricalPrices rows", rows.Err())
}

// PendingCurrentPrice is a trade awaiting phase-2 current-price
// enrichment, grouped by resolved ticker only.
type PendingCurrentPrice struct {
	TxID     int64
	IssuerID int64
	Ticker   string
}

// SelectPendingCurrentPrices returns trades whose historical phase has
// already settled (Phase 1 completes before Phase 2 starts) grouped by
// resolved ticker for the caller's runner. Unlike phases 1
// and 3, a current price is a moving target rather than a fixed
// historical fact, so this selection has no done-once sentinel of its
// own: every sync run that reaches Phase 2 re-quotes each ticker still
// present in the trade book.
func (s *Store) SelectPendingCurrentPrices(ctx context.Context, limit int) ([]PendingCurrentPrice, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT t.tx_id, i.issuer_id, i.ticker
FROM trades t
JOIN issuers i ON i.issuer_id = t.issuer_id
WHERE t.price_enriched_at IS NOT NULL AND i.ticker IS NOT NULL AND i.ticker <> ''
ORDER BY t.tx_id
LIMIT ?`, limit)
	if err != nil {
		return nil, wrapStoreErr("SelectPendingCurrentPrices", err)
	}
	defer rows.Close()

	var out []PendingCurrentPrice
	for rows.Next() {
		var p PendingCurrentPrice
		if err := rows.Scan(&p.TxID, &p.IssuerID, &p.Ticker); err != nil {
			return nil, wrapStoreErr("SelectPendingCurrentPrices scan", err)
		}
		out = append(out, p)
	}
	return out, wrapStoreErr("SelectPendingCurrentPrices rows", rows.Err())
}

// PendingBenchmarkPrice is a trade awaiting phase-3 benchmark enrichment.
type PendingBenchmarkPrice struct {
	TxID   int64
	Sector string // may be empty -> use the market sentinel
	TxDate time.Time
}

// SelectPendingBenchmarkPrices returns priced trades still missing a
// benchmark price, the phase-3 benchmark enrichment candidate set.
func (s *Store) SelectPendingBenchmarkPrices(ctx context.Context, limit int) ([]PendingBenchmarkPrice, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT t.tx_id, COALESCE(i.gics_sector, ''), t.tx_date
FROM trades t
JOIN issuers i ON i.issuer_id = t.issuer_id
WHERE t.price_enriched_at IS NOT NULL AND t.benchmark_enriched_at IS NULL
ORDER BY t.tx_id
LIMIT ?`, limit)
	if err != nil {
		return nil, wrapStoreErr("SelectPendingBenchmarkPrices", err)
	}
	defer rows.Close()

	var out []PendingBenchmarkPrice
	for rows.Next() {
		var p PendingBenchmarkPrice
		var txDate string
		if err := rows.Scan(&p.TxID, &p.Sector, &txDate); err != nil {
			return nil, wrapStoreErr("SelectPendingBenchmarkPrices scan", err)
		}
		p.TxDate = parseTime(txDate)
		out = append(out, p)
	}
	return out, wrapStoreErr("SelectPendingBenchmarkPrices rows", rows.Err())
}

// MarkBenchmarkEnriched records that phase 3 has processed a trade,
// regardless of whether a benchmark price was found, so re-runs skip it.
func (s *Store) MarkBenchmarkEnriched(ctx context.Context, txID int64) error {
	_, err := s.conn.ExecContext(ctx, `UPDATE trades SET benchmark_enriched_at = ? WHERE tx_id = ?`, formatTime(time.Now()), txID)
	return wrapStoreErr("MarkBenchmarkEnriched", err)
}

// RetryFailed clears price_enriched_at for trades whose trade_date_price
// is still null, an explicit "retry-failed" mode that re-queues only
// trades that never got a usable price, leaving successfully priced
// trades untouched.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `
UPDATE trades SET price_enriched_at = NULL
WHERE price_enriched_at IS NOT NULL AND trade_date_price IS NULL`)
	if err != nil {
		return 0, wrapStoreErr("RetryFailed", err)
	}
	n, err := res.RowsAffected()
	return n, wrapStoreErr("RetryFailed rows affected", err)
}

// TradeForFIFO is the minimal projection the FIFO engine needs, read in
// chronological order for a given politician.
type TradeForFIFO struct {
	TxID     int64
	Ticker   string
	TxDate   time.Time
	TxType   model.TxType
	Shares   float64
	Price    float64
	Benchmark *float64
}

// TradesForFIFO returns every trade for politicianID in chronological
// order, ready for fifo.Run. Trades with no estimated share count or no
// trade-date price come back with 0 in those fields.
func (s *Store) TradesForFIFO(ctx context.Context, politicianID string) ([]TradeForFIFO, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT t.tx_id, i.ticker, t.tx_date, t.tx_type,
       COALESCE(t.estimated_shares, 0), COALESCE(t.trade_date_price, 0), t.benchmark_price
FROM trades t
JOIN issuers i ON i.issuer_id = t.issuer_id
WHERE t.politician_id = ? AND i.ticker IS NOT NULL AND i.ticker <> ''
ORDER BY t.tx_date ASC, t.tx_id ASC`, politicianID)
	if err != nil {
		return nil, wrapStoreErr("TradesForFIFO", err)
	}
	defer rows.Close()

	var out []TradeForFIFO
	for rows.Next() {
		var t TradeForFIFO
		var txDate, txType string
		if err := rows.Scan(&t.TxID, &t.Ticker, &txDate, &txType, &t.Shares, &t.Price, &t.Benchmark); err != nil {
			return nil, wrapStoreErr("TradesForFIFO scan", err)
		}
		t.TxDate = parseTime(txDate)
		t.TxType = model.TxType(txType)
		out = append(out, t)
	}
	return out, wrapStoreErr("TradesForFIFO rows", rows.Err())
}

// TradeForAnalytics is the minimal projection the conflict and anomaly
// kernels need for one politician's trade history.
type TradeForAnalytics struct {
	TxID       int64
	IssuerID   int64
	Ticker     string
	GICSSector string
	Value      int64
	TxDate     time.Time
}

// TradesForAnalytics returns every trade for politicianID with its
// resolved issuer and GICS sector, the input the conflict and anomaly
// kernels run over.
func (s *Store) TradesForAnalytics(ctx context.Context, politicianID string) ([]TradeForAnalytics, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT t.tx_id, i.issuer_id, COALESCE(i.ticker, ''), COALESCE(i.gics_sector, ''), t.value, t.tx_date
FROM trades t
JOIN issuers i ON i.issuer_id = t.issuer_id
WHERE t.politician_id = ?
ORDER BY t.tx_date ASC, t.tx_id ASC`, politicianID)
	if err != nil {
		return nil, wrapStoreErr("TradesForAnalytics", err)
	}
	defer rows.Close()

	var out []TradeForAnalytics
	for rows.Next() {
		var t TradeForAnalytics
		var txDate string
		if err := rows.Scan(&t.TxID, &t.IssuerID, &t.Ticker, &t.GICSSector, &t.Value, &txDate); err != nil {
			return nil, wrapStoreErr("TradesForAnalytics scan", err)
		}
		t.TxDate = parseTime(txDate)
		out = append(out, t)
	}
	return out, wrapStoreErr("TradesForAnalytics rows", rows.Err())
}
