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
	"time"

	"github.com/capitoltrades/ctdata/model"
	"github.com/capitoltrades/ctdata/price"
	"github.com/capitoltrades/ctdata/runner"
	"github.com/capitoltrades/ctdata/store"
)

// historicalKey is the unit-of-work for Phase 1: a group of trades
// sharing a resolved ticker and transaction date need exactly one price
// fetch.
type historicalKey struct {
	Ticker string
	Date   time.Time
}

// Phase1 enriches trades with their trade-date price, estimated shares,
// and estimated value, consulting Yahoo first and falling back to Tiingo
// (when configured) on NoData.
func Phase1(ctx context.Context, st *store.Store, aliases *AliasTable, yahoo, tiingo price.Source, cfg runner.Config, progress runner.Progress, batchLimit int) error {
	pending, err := st.SelectPendingHistoricalPrices(ctx, batchLimit)
	if err != nil {
		return err
	}

	groups := make(map[historicalKey][]store.PendingHistoricalPrice)
	for _, p := range pending {
		resolved := aliases.Resolve(p.Ticker)
		if resolved == UnenrichableTicker {
			if err := st.UpdateTradePrices(ctx, store.TradePriceUpdate{TxID: p.TxID}); err != nil {
				return err
			}
			continue
		}
		key := historicalKey{Ticker: resolved, Date: p.TxDate}
		groups[key] = append(groups[key], p)
	}

	tasks := make([]runner.Task[historicalKey, store.PendingHistoricalPrice], 0, len(groups))
	for key, items := range groups {
		tasks = append(tasks, runner.Task[historicalKey, store.PendingHistoricalPrice]{Key: key, Items: items})
	}

	fetch := func(ctx context.Context, key historicalKey, items []store.PendingHistoricalPrice) (price.Quote, error) {
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
			return price.Quote{}, fmt.Errorf("%w: no price for %s on %s", model.ErrNoData, key.Ticker, key.Date.Format("2006-01-02"))
		}
		return *quote, nil
	}

	apply := func(ctx context.Context, key historicalKey, items []store.PendingHistoricalPrice, result price.Quote, noData bool) error {
		for _, item := range items {
			if noData {
				if err := st.UpdateTradePrices(ctx, store.TradePriceUpdate{TxID: item.TxID}); err != nil {
					return err
				}
				continue
			}

			update := store.TradePriceUpdate{
				TxID:           item.TxID,
				TradeDatePrice: floatPtr(result.Price),
				PriceSource:    result.Source,
			}

			shares, value, ok := estimateSharesAndValue(item.SizeRangeLow, item.SizeRangeHigh, result.Price)
			if ok {
				update.EstimatedShares = floatPtr(shares)
				update.EstimatedValue = floatPtr(value)
			}

			if err := st.UpdateTradePrices(ctx, update); err != nil {
				return err
			}
		}
		return nil
	}

	return runner.Run(ctx, cfg, tasks, fetch, apply, progress)
}

// estimateSharesAndValue computes estimated_shares = midpoint(low,high)/price
// and estimated_value = estimated_shares * price, returning ok=false when
// the size range is absent or the resulting value falls outside
// [low, high] — on that violation the caller still stores the price but
// leaves the estimates null.
func estimateSharesAndValue(low, high *int64, price float64) (shares, value float64, ok bool) {
	if low == nil || high == nil || price <= 0 {
		return 0, 0, false
	}
	mid := float64(*low+*high) / 2
	shares = mid / price
	value = shares * price
	if value < float64(*low) || value > float64(*high) {
		return 0, 0, false
	}
	return shares, value, true
}

func floatPtr(f float64) *float64 { return &f }
