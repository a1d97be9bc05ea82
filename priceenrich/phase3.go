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
package priceenrich

import (
	"context"
	"fmt"

	"github.com/capitoltrades/ctdata/model"
	"github.com/capitoltrades/ctdata/price"
	"github.com/capitoltrades/ctdata/runner"
	"github.com/capitoltrades/ctdata/store"
)

// Phase3 prices each trade against its sector (or market, when the issuer
// carries no resolved sector) benchmark ETF on the trade date, grouped by
// (etf_ticker, tx_date) exactly as Phase 1 groups by (ticker, tx_date).
func Phase3(ctx context.Context, st *store.Store, etfs *SectorETFTable, yahoo, tiingo price.Source, cfg runner.Config, progress runner.Progress, batchLimit int) error {
	pending, err := st.SelectPendingBenchmarkPrices(ctx, batchLimit)
	if err != nil {
		return err
	}

	groups := make(map[historicalKey][]store.PendingBenchmarkPrice)
	for _, p := range pending {
		etf := etfs.Benchmark(p.Sector)
		if etf == "" {
			if err := st.MarkBenchmarkEnriched(ctx, p.TxID); err != nil {
				return err
			}
			continue
		}
		key := historicalKey{Ticker: etf, Date: p.TxDate}
		groups[key] = append(groups[key], p)
	}

	tasks := make([]runner.Task[historicalKey, store.PendingBenchmarkPrice], 0, len(groups))
	for key, items := range groups {
		tasks = append(tasks, runner.Task[historicalKey, store.PendingBenchmarkPrice]{Key: key, Items: items})
	}

	fetch := func(ctx context.Context, key historicalKey, items []store.PendingBenchmarkPrice) (price.Quote, error) {
		quote, err := yahoo.PriceOnDate(ctx, key.Ticker, key.Date)
		if err != nil {
			return price.Quote{}, err
		}
		if quote == nil && tiingo != nil {
			quote, err = tiingo.PriceOnDate(ctx, key.Ticker, key.Date)
			if err != nil {
				return price.Quote{}, err
			}
		}
		if quote == nil {
			return price.Quote{}, fmt.Errorf("%w: no benchmark price for %s on %s", model.ErrNoData, key.Ticker, key.Date.Format("2006-01-02"))
		}
		return *quote, nil
	}

	apply := func(ctx context.Context, key historicalKey, items []store.PendingBenchmarkPrice, result price.Quote, noData bool) error {
		for _, item := range items {
			var benchmarkPrice *float64
			if !noData {
				p := result.Price
				benchmarkPrice = &p
			}
			if err := st.UpdateBenchmarkPrice(ctx, item.TxID, benchmarkPrice); err != nil {
				return err
			}
		}
		return nil
	}

	return runner.Run(ctx, cfg, tasks, fetch, apply, progress)
}
