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
package cmd

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/capitoltrades/ctdata/committee"
	"github.com/capitoltrades/ctdata/fec"
	"github.com/capitoltrades/ctdata/price"
	"github.com/capitoltrades/ctdata/priceenrich"
	"github.com/capitoltrades/ctdata/runner"
	"github.com/capitoltrades/ctdata/scrape"
	"github.com/capitoltrades/ctdata/store"
	"github.com/capitoltrades/ctdata/syncer"
)

var (
	syncSchedule     string
	syncEnrichDetail bool
	syncDonations    bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scrape, enrich, and score congressional stock-trade disclosures",
	Long: `sync runs one full pass of the pipeline: ingest new disclosures since
the last run, refresh committee memberships, backfill prices, replay FIFO
lots, and recompute conflict and anomaly scores.

If --schedule is given, sync runs as a long-lived process, triggering a new
pass on the given cron schedule instead of exiting after the first one.`,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := buildSyncer()
		if err != nil {
			log.Fatal().Err(err).Msg("could not build syncer")
		}

		if syncSchedule == "" {
			runOnce(s)
			return
		}

		c := cron.New()
		if _, err := c.AddFunc(syncSchedule, func() { runOnce(s) }); err != nil {
			log.Fatal().Err(err).Str("schedule", syncSchedule).Msg("invalid cron schedule")
		}
		log.Info().Str("schedule", syncSchedule).Msg("running sync on a schedule, ctrl-c to stop")
		c.Run()
	},
}

func runOnce(s *syncer.Syncer) {
	ctx := context.Background()
	result, err := s.Sync(ctx, syncer.Options{
		EnrichDetail:  syncEnrichDetail,
		SyncDonations: syncDonations,
		RunnerConfig: runner.Config{
			PoolSize:         appConfig.PoolSize,
			BreakerThreshold: appConfig.BreakerThreshold,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("sync run failed")
		return
	}
	log.Info().
		Str("runId", result.RunID).
		Int("tradesIngested", result.TradesIngested).
		Int("politiciansProcessed", result.PoliticiansRun).
		Msg("sync run complete")
}

func buildSyncer() (*syncer.Syncer, error) {
	st, err := store.Open(appConfig.DBPath)
	if err != nil {
		return nil, err
	}

	scrapeCli := scrape.New(appConfig.ScrapeBaseURL)

	cache := price.NewCache()
	yahoo := price.NewYahoo(cache)

	var tiingo price.Source = yahoo
	if appConfig.TiingoAPIKey != "" {
		t, err := price.NewTiingo(appConfig.TiingoAPIKey, 50, cache)
		if err != nil {
			return nil, err
		}
		tiingo = t
	}

	fecCli := fec.New(appConfig.FECAPIKey, appConfig.FECBudgetPerHour)
	resolver := committee.NewResolver(st, fecCli)

	aliases, err := priceenrich.LoadAliasTable()
	if err != nil {
		return nil, err
	}
	etfs, err := priceenrich.LoadSectorETFTable()
	if err != nil {
		return nil, err
	}
	sectorRef, err := priceenrich.LoadSectorReference()
	if err != nil {
		return nil, err
	}

	return syncer.New(st, scrapeCli, yahoo, tiingo, resolver, fecCli, aliases, etfs, sectorRef), nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncSchedule, "schedule", "", "run continuously on this cron schedule instead of once (e.g. \"0 */6 * * *\")")
	syncCmd.Flags().BoolVar(&syncEnrichDetail, "enrich-detail", false, "fetch per-trade filing detail (asset type, size range, committees, labels)")
	syncCmd.Flags().BoolVar(&syncDonations, "sync-donations", false, "pull Schedule A donations for every known committee (one or more HTTP round trips per politician)")
}
