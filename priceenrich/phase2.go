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

// Phase2 refreshes each ticker's current price once per run and fans the
// result out to every issuer that shares it: trades whose Phase 1 attempt
// has settled are grouped by resolved ticker only, one current price is
// fetched per ticker, and that quote is written once per distinct issuer
// in the group to issuer_eod_price under today's date. No per-trade column
// is written. Unlike
// Phase 1, there is no batch-exhaustion notion of "done" here: every call
// re-quotes whatever is in the book.
func Phase2(ctx context.Context, st *store.Store, aliases *AliasTable, yahoo, tiingo price.Source, cfg runner.Config, progress runner.Progress, batchLimit int) error {
	pending, err := st.SelectPendingCurrentPrices(ctx, batchLimit)
	if err != nil {
		return err
	}

	groups := make(map[string][]store.PendingCurrentPrice)
	for _, p := range pending {
		resolved := aliases.Resolve(p.Ticker)
		if resolved == UnenrichableTicker {
			continue
		}
		groups[resolved] = append(groups[resolved], p)
	}

	tasks := make([]runner.Task[string, store.PendingCurrentPrice], 0, len(groups))
	for ticker, items := range groups {
		tasks = append(tasks, runner.Task[string, store.PendingCurrentPrice]{Key: ticker, Items: items})
	}

	fetch := func(ctx context.Context, ticker string, items []store.PendingCurrentPrice) (price.Quote, error) {
		quote, err := yahoo.CurrentPrice(ctx, ticker)
		if err != nil {
			return price.Quote{}, err
		}
		if quote == nil && tiingo != nil {
			quote, err = tiingo.CurrentPrice(ctx, ticker)
			if err != nil {
				return price.Quote{}, err
			}
		}
		if quote == nil {
			return price.Quote{}, fmt.Errorf("%w: no current price for %s", model.ErrNoData, ticker)
		}
		return *quote, nil
	}

	apply := func(ctx context.Context, ticker string, items []store.PendingCurrentPrice, result price.Quote, noData bool) error {
		asOf := time.Now().UTC().Format("2006-01-02")
		seen := make(map[int64]bool, len(items))
		for _, item := range items {
			if seen[item.IssuerID] {
				continue
			}
			seen[item.IssuerID] = true

			var priceOut *float64
			if !noData {
				p := result.Price
				priceOut = &p
			}
			if err := st.UpdateCurrentPrice(ctx, item.IssuerID, priceOut, asOf); err != nil {
				return err
			}
		}
		return nil
	}

	return runner.Run(ctx, cfg, tasks, fetch, apply, progress)
}
