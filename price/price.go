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

// Package price fetches per-ticker, per-date closing prices from Yahoo
// and Tiingo, with weekend/holiday fallback and an in-process cache
// collapsing duplicate work within a single enrichment run.
package price

import (
	"context"
	"time"
)

// Quote is a single resolved closing price; a nil *Quote from a lookup
// method means the upstream source has no data for that query, a
// definitive, non-error outcome.
type Quote struct {
	Price  float64
	Date   time.Time
	Source string
}

// Source looks up historical and current closing prices for a ticker.
type Source interface {
	Name() string
	PriceOnDate(ctx context.Context, ticker string, date time.Time) (*Quote, error)
	CurrentPrice(ctx context.Context, ticker string) (*Quote, error)
}
