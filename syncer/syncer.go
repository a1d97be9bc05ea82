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

// Package syncer composes the scrape client, the store, price and FEC
// enrichment, the committee resolver, the FIFO engine, and the analytics
// kernels into the single operation a scheduled run performs: pull every
// trade newer than the last sync, enrich it, and recompute derived state.
package syncer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/capitoltrades/ctdata/analytics"
	"github.com/capitoltrades/ctdata/committee"
	"github.com/capitoltrades/ctdata/fec"
	"github.com/capitoltrades/ctdata/fifo"
	"github.com/capitoltrades/ctdata/model"
	"github.com/capitoltrades/ctdata/price"
	"github.com/capitoltrades/ctdata/priceenrich"
	"github.com/capitoltrades/ctdata/runner"
	"github.com/capitoltrades/ctdata/scrape"
	"github.com/capitoltrades/ctdata/store"
)

// lastTradePubDateKey is the ingest_meta key carrying the incremental
// sync cutoff.
const lastTradePubDateKey = "last_trade_pub_date"

// Options tunes one Sync call. EnrichDetail gates the optional per-trade
// detail fetch (filing metadata, asset type, committees, labels); it is
// off by default because it costs one HTTP round trip per new trade,
// unlike the unconditional committee refresh. SyncDonations gates the
// Schedule A donation pull, off by default for the same reason: it costs
// at least one HTTP round trip per (politician, committee) pair.
type Options struct {
	EnrichDetail  bool
	SyncDonations bool
	BatchLimit    int
	RunnerConfig  runner.Config
}

func (o Options) withDefaults() Options {
	if o.BatchLimit <= 0 {
		o.BatchLimit = 500
	}
	return o
}

// Syncer wires every enrichment dependency behind one Sync call.
type Syncer struct {
	st         *store.Store
	scrapeCli  *scrape.Client
	yahoo      price.Source
	tiingo     price.Source
	resolver   *committee.Resolver
	fecCli     *fec.Client
	aliases    *priceenrich.AliasTable
	etfs       *priceenrich.SectorETFTable
	sectorRef  *priceenrich.SectorReference
}

// New builds a Syncer from its already-constructed dependencies. Callers
// (the CLI's wiring code) own constructing the store, HTTP clients, and
// reference tables; New just holds onto them.
func New(st *store.Store, scrapeCli *scrape.Client, yahoo, tiingo price.Source, resolver *committee.Resolver, fecCli *fec.Client, aliases *priceenrich.AliasTable, etfs *priceenrich.SectorETFTable, sectorRef *priceenrich.SectorReference) *Syncer {
	return &Syncer{
		st:        st,
		scrapeCli: scrapeCli,
		yahoo:     yahoo,
		fecCli:    fecCli,
		tiingo:    tiingo,
		resolver:  resolver,
		aliases:   aliases,
		etfs:      etfs,
		sectorRef: sectorRef,
	}
}

// Result summarizes one Sync call for logging/CLI display.
type Result struct {
	RunID          string
	TradesIngested int
	PoliticiansRun int
}

// Sync runs the full pipeline once: ingest new trades, optionally enrich
// their detail, refresh committee memberships, run the three price
// enrichment phases plus sector resolution, recompute FIFO positions, and
// recompute the analytics kernels. Each stage commits its own writes
// through the store so a mid-run cancellation leaves a consistent,
// resumable state.
func (s *Syncer) Sync(ctx context.Context, opts Options) (Result, error) {
	opts = opts.withDefaults()
	runID := uuid.NewString()
	log.Info().Str("runId", runID).Msg("sync starting")

	ingested, err := s.ingestTrades(ctx, opts)
	if err != nil {
		return Result{}, fmt.Errorf("ingest trades: %w", err)
	}

	if opts.EnrichDetail {
		if err := s.enrichDetail(ctx, opts); err != nil {
			return Result{}, fmt.Errorf("enrich detail: %w", err)
		}
	}

	politicianIDs, err := s.st.DistinctPoliticianIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list politicians: %w", err)
	}

	// Committee refresh runs unconditionally: one resolver call per
	// politician already known to the store, each guarded by the
	// resolver's own memory/store/remote tiers, so a run touching no new
	// politicians costs nothing beyond the memory-tier lookups.
	for _, politicianID := range politicianIDs {
		if _, err := s.resolver.Resolve(ctx, politicianID); err != nil {
			log.Warn().Str("politicianId", politicianID).Err(err).Msg("committee resolve failed")
		}
	}

	if opts.SyncDonations {
		if err := s.syncDonations(ctx, politicianIDs); err != nil {
			log.Warn().Err(err).Msg("donation sync failed")
		}
	}

	if err := s.runPriceEnrichment(ctx, opts); err != nil {
		return Result{}, fmt.Errorf("price enrichment: %w", err)
	}

	for _, politicianID := range politicianIDs {
		if err := s.recomputeFIFO(ctx, politicianID); err != nil {
			log.Warn().Str("politicianId", politicianID).Err(err).Msg("fifo recompute failed")
			continue
		}
		if err := s.recomputeAnalytics(ctx, politicianID); err != nil {
			log.Warn().Str("politicianId", politicianID).Err(err).Msg("analytics recompute failed")
		}
	}

	log.Info().Str("runId", runID).Int("tradesIngested", ingested).Int("politicians", len(politicianIDs)).Msg("sync complete")
	return Result{RunID: runID, TradesIngested: ingested, PoliticiansRun: len(politicianIDs)}, nil
}

// ingestTrades pages through every trade newer than the stored cutoff,
// upserting each page in turn, and advances the cutoff to the newest
// pub_date seen.
func (s *Syncer) ingestTrades(ctx context.Context, opts Options) (int, error) {
	cutoffStr, ok, err := s.st.IngestMeta(ctx, lastTradePubDateKey)
	if err != nil {
		return 0, err
	}
	var cutoff time.Time
	if ok {
		cutoff, _ = time.Parse(time.RFC3339, cutoffStr)
	}

	filter := scrape.TradeFilter{Since: cutoff}
	var newest time.Time
	var count int
	var errs *multierror.Error
	token := ""
	for {
		page, err := s.scrapeCli.FetchTradesPage(ctx, token, filter)
		if err != nil {
			return count, err
		}

		// A bad row doesn't sink the rest of the page: failed upserts are
		// aggregated and logged, successful ones still advance count and
		// the pub_date cutoff.
		for _, t := range page.Items {
			if err := s.upsertTradeSummary(ctx, t); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("trade %d: %w", t.TxID, err))
				continue
			}
			count++
			if t.PubDate.After(newest) {
				newest = t.PubDate
			}
		}

		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	if !newest.IsZero() {
		if err := s.st.SetIngestMeta(ctx, lastTradePubDateKey, newest.UTC().Format(time.RFC3339)); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if errs.ErrorOrNil() != nil {
		log.Warn().Err(errs).Int("ingested", count).Msg("some trades failed to ingest")
	}
	return count, nil
}

// upsertTradeSummary writes the politician, issuer, asset, and trade rows
// a single listing-page entry carries. Fields the listing page doesn't
// provide (filing metadata, committees, labels, asset type beyond the
// 'unknown' sentinel) are left for the detail enrichment stage.
func (s *Syncer) upsertTradeSummary(ctx context.Context, t scrape.TradeSummary) error {
	politician := &model.Politician{PoliticianID: t.PoliticianID, Chamber: t.Chamber}
	if err := s.st.UpsertPolitician(ctx, politician); err != nil {
		return err
	}

	issuerID, err := s.st.UpsertIssuer(ctx, &model.Issuer{Name: t.IssuerName, Ticker: t.Ticker})
	if err != nil {
		return err
	}

	assetID, err := s.st.UpsertAsset(ctx, &model.Asset{Ticker: t.Ticker, Type: model.AssetUnknown})
	if err != nil {
		return err
	}

	trade := &model.Trade{
		TxID:         t.TxID,
		PoliticianID: t.PoliticianID,
		AssetID:      assetID,
		IssuerID:     issuerID,
		PubDate:      t.PubDate,
		TxDate:       t.TxDate,
		TxType:       t.TxType,
	}
	return s.st.UpsertTrade(ctx, trade)
}

// enrichDetail runs the bounded-concurrency runner template over every
// trade lacking a detail fetch, one task per trade (the detail endpoint
// is keyed by tx_id, so there is no batching to group by).
func (s *Syncer) enrichDetail(ctx context.Context, opts Options) error {
	pending, err := s.st.SelectPendingDetail(ctx, opts.BatchLimit)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	tasks := make([]runner.Task[int64, int64], 0, len(pending))
	for _, txID := range pending {
		tasks = append(tasks, runner.Task[int64, int64]{Key: txID, Items: []int64{txID}})
	}

	fetch := func(ctx context.Context, txID int64, _ []int64) (scrape.ScrapedTradeDetail, error) {
		return s.scrapeCli.FetchTradeDetail(ctx, txID)
	}
	apply := func(ctx context.Context, txID int64, _ []int64, detail scrape.ScrapedTradeDetail, noData bool) error {
		if noData {
			return s.st.MarkDetailEnriched(ctx, txID)
		}
		return s.st.UpdateTradeDetail(ctx, txID, detail.AssetType, detail.FilingID, detail.FilingURL,
			detail.SizeLow, detail.SizeHigh, detail.Price, detail.Committees, detail.Labels)
	}

	return runner.Run(ctx, opts.RunnerConfig, tasks, fetch, apply, runner.NewLogProgress("detail"))
}

// runPriceEnrichment resolves GICS sectors first (Phase 3's benchmark
// lookup depends on them), then runs the three price phases in their
// fixed order.
func (s *Syncer) runPriceEnrichment(ctx context.Context, opts Options) error {
	if err := priceenrich.EnrichSectors(ctx, s.st, s.sectorRef, opts.BatchLimit); err != nil {
		return fmt.Errorf("enrich sectors: %w", err)
	}
	if err := priceenrich.Phase1(ctx, s.st, s.aliases, s.yahoo, s.tiingo, opts.RunnerConfig, runner.NewLogProgress("price-historical"), opts.BatchLimit); err != nil {
		return fmt.Errorf("phase1: %w", err)
	}
	if err := priceenrich.Phase2(ctx, s.st, s.aliases, s.yahoo, s.tiingo, opts.RunnerConfig, runner.NewLogProgress("price-current"), opts.BatchLimit); err != nil {
		return fmt.Errorf("phase2: %w", err)
	}
	if err := priceenrich.Phase3(ctx, s.st, s.etfs, s.yahoo, s.tiingo, opts.RunnerConfig, runner.NewLogProgress("price-benchmark"), opts.BatchLimit); err != nil {
		return fmt.Errorf("phase3: %w", err)
	}
	return nil
}

// recomputeFIFO runs the FIFO engine over one politician's full trade
// history and replaces its stored positions. Oversold conditions
// are logged, not fatal: fifo.Run already isolates them per ticker.
func (s *Syncer) recomputeFIFO(ctx context.Context, politicianID string) error {
	trades, err := s.st.TradesForFIFO(ctx, politicianID)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}

	input := make([]fifo.Trade, 0, len(trades))
	for _, t := range trades {
		input = append(input, fifo.Trade{
			Ticker:    t.Ticker,
			TxDate:    t.TxDate,
			TxType:    t.TxType,
			Shares:    t.Shares,
			Price:     t.Price,
			Benchmark: t.Benchmark,
		})
	}

	results, runErr := fifo.Run(politicianID, input)
	if runErr != nil {
		log.Warn().Str("politicianId", politicianID).Err(runErr).Msg("fifo oversold condition")
	}

	now := time.Now()
	for ticker, r := range results {
		pos := model.Position{
			PoliticianID: politicianID,
			IssuerTicker: ticker,
			SharesHeld:   r.SharesHeld(),
			CostBasis:    r.AvgCostBasis(),
			RealizedPnL:  r.RealizedPnL,
			LastUpdated:  now,
		}
		if err := s.st.ReplacePosition(ctx, pos); err != nil {
			return err
		}
	}

	return s.saveClosedTradePerformance(ctx, politicianID, results)
}

// saveClosedTradePerformance converts each ticker's closed lots into
// performance rows. Market/sector alpha are left nil here: computing them
// needs the benchmark price at entry and exit, which lives on the trade
// row the closed lot was built from, not on fifo.ClosedTrade itself;
// ExitBenchmark carries the exit side already, recomputeFIFO only has
// the exit leg of each closed lot to work with.
func (s *Syncer) saveClosedTradePerformance(ctx context.Context, politicianID string, results map[string]*fifo.Result) error {
	for _, r := range results {
		issuerID, ok, err := s.st.IssuerIDByTicker(ctx, r.Ticker)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for _, c := range r.Closed {
			perf := analytics.ComputePerformance(c, analytics.ClosedTradeBenchmarks{})
			entryDate := c.EntryDate.UTC().Format("2006-01-02")
			exitDate := c.ExitDate.UTC().Format("2006-01-02")
			if err := s.st.SaveIssuerPerformance(ctx, issuerID, politicianID, entryDate, exitDate,
				&perf.AbsoluteReturn, &perf.AnnualizedReturn, perf.MarketAlpha); err != nil {
				return err
			}
		}
	}
	return nil
}

// recomputeAnalytics runs the conflict and anomaly kernels over one
// politician's trade history and persists the composite scores.
func (s *Syncer) recomputeAnalytics(ctx context.Context, politicianID string) error {
	trades, err := s.st.TradesForAnalytics(ctx, politicianID)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}

	memberships, err := s.resolver.Resolve(ctx, politicianID)
	if err != nil {
		return err
	}
	jurisdictions, err := s.st.CommitteeJurisdictions(ctx)
	if err != nil {
		return err
	}

	conflictTrades := make([]analytics.ConflictTrade, 0, len(trades))
	anomalyTrades := make([]analytics.AnomalyTrade, 0, len(trades))
	for _, t := range trades {
		conflictTrades = append(conflictTrades, analytics.ConflictTrade{TxID: t.TxID, GICSSector: t.GICSSector})
		anomalyTrades = append(anomalyTrades, analytics.AnomalyTrade{
			Value:      math.Abs(float64(t.Value)),
			GICSSector: t.GICSSector,
			// No movement calendar is wired yet (would need the issuer
			// performance series from FetchIssuerDetail), so the pre-move
			// sub-score stays inert and the composite leans on unusual
			// volume and sector concentration.
		})
	}

	conflict := analytics.Conflict(politicianID, memberships, jurisdictions, conflictTrades)
	anomalyScore := analytics.Anomaly(anomalyTrades, analytics.DefaultAnomalyWeights)

	computedAt := time.Now().UTC().Format(time.RFC3339)
	pct := conflict.CommitteeTradingPct
	score := anomalyScore
	if err := s.st.SavePoliticianStats(ctx, politicianID, &pct, &score, computedAt); err != nil {
		return err
	}

	counts := make(map[int64]int)
	for _, t := range trades {
		counts[t.IssuerID]++
	}
	for issuerID, n := range counts {
		if err := s.st.SaveIssuerStats(ctx, issuerID, n, computedAt); err != nil {
			return err
		}
	}
	return nil
}

// scheduleAPageSize is the per-request row count for the Schedule A
// donation pull.
const scheduleAPageSize = 100

// syncDonations pages through Schedule A contributions for every
// committee any known politician is currently linked to, resuming each
// (politician, committee) pair from its own saved keyset cursor.
func (s *Syncer) syncDonations(ctx context.Context, politicianIDs []string) error {
	var errs *multierror.Error
	for _, politicianID := range politicianIDs {
		memberships, err := s.resolver.Resolve(ctx, politicianID)
		if err != nil {
			log.Warn().Str("politicianId", politicianID).Err(err).Msg("committee resolve failed for donation sync")
			continue
		}
		for _, m := range memberships {
			if err := s.syncDonationsForCommittee(ctx, politicianID, m.CommitteeCode); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("politician %s committee %s: %w", politicianID, m.CommitteeCode, err))
			}
		}
	}
	return errs.ErrorOrNil()
}

// syncDonationsForCommittee pages GetScheduleA forward from the last
// saved cursor, upserting every contribution and persisting the cursor
// after each page so a cancelled run resumes instead of re-fetching.
func (s *Syncer) syncDonationsForCommittee(ctx context.Context, politicianID, committeeID string) error {
	saved, _, err := s.st.DonationSyncCursor(ctx, politicianID, committeeID)
	if err != nil {
		return err
	}
	cursor := fec.ScheduleACursor{
		LastIndex:                   saved.LastIndex,
		LastContributionReceiptDate: saved.LastContributionReceiptDate,
	}
	total := saved.TotalSynced

	for {
		page, err := s.fecCli.GetScheduleA(ctx, committeeID, cursor, scheduleAPageSize)
		if err != nil {
			return err
		}
		for _, c := range page.Contributions {
			date, _ := time.Parse("2006-01-02", c.ContributionReceiptDt)
			if err := s.st.UpsertDonation(ctx, model.Donation{
				SubID:                 c.SubID,
				CommitteeID:           c.CommitteeID,
				ContributorName:       c.ContributorName,
				ContributorEmployer:   c.ContributorEmployer,
				ContributorOccupation: c.ContributorOccupation,
				ContributorState:      c.ContributorState,
				ContributorZip:        c.ContributorZip,
				Amount:                c.ContributionReceiptAmt,
				Date:                  date,
				Cycle:                 c.TwoYearTransactionPd,
			}); err != nil {
				return err
			}
			total++
		}

		done := page.NextCursor == (fec.ScheduleACursor{}) || len(page.Contributions) == 0
		cursor = page.NextCursor
		if err := s.st.SaveDonationSyncCursor(ctx, model.DonationSyncMeta{
			PoliticianID:                politicianID,
			CommitteeID:                 committeeID,
			LastIndex:                   cursor.LastIndex,
			LastContributionReceiptDate: cursor.LastContributionReceiptDate,
			TotalSynced:                 total,
		}); err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
