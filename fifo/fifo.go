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

// Package fifo computes per-(politician, ticker) holdings, average cost,
// and realized P&L over a chronologically ordered trade sequence. It is a
// pure function over its input slice: no I/O, no store access.
package fifo

import (
	"fmt"
	"time"

	"github.com/capitoltrades/ctdata/model"
	"github.com/hashicorp/go-multierror"
)

// epsilon is the floating-point equality tolerance for share quantities.
const epsilon = 1e-4

// Lot is an open buy/receive not yet fully consumed by a later sell.
type Lot struct {
	Shares     float64
	CostBasis  float64
	TxDate     time.Time
}

// ClosedTrade pairs a sell against the FIFO-matched buy lot(s) it
// consumed, one entry per lot partially or fully closed.
type ClosedTrade struct {
	Ticker         string
	EntryPrice     float64
	EntryDate      time.Time
	ExitPrice      float64
	ExitDate       time.Time
	Shares         float64
	ExitBenchmark  *float64
}

// Result is the terminal state for one (politician, ticker) lot queue.
type Result struct {
	Ticker      string
	Lots        []Lot
	RealizedPnL float64
	Closed      []ClosedTrade
}

// SharesHeld sums the remaining open lots.
func (r Result) SharesHeld() float64 {
	var total float64
	for _, l := range r.Lots {
		total += l.Shares
	}
	return total
}

// AvgCostBasis is the shares-weighted average cost of open lots, 0 when
// no shares remain.
func (r Result) AvgCostBasis() float64 {
	held := r.SharesHeld()
	if held <= epsilon {
		return 0
	}
	var weighted float64
	for _, l := range r.Lots {
		weighted += l.Shares * l.CostBasis
	}
	return weighted / held
}

// OversoldError reports a sell that exceeded the open lot queue; the
// caller must not panic on this — it is a data-quality condition, not a
// programming error.
type OversoldError struct {
	PoliticianID    string
	Ticker          string
	RemainingShares float64
}

func (e *OversoldError) Error() string {
	return fmt.Sprintf("politician %s oversold %s by %.4f shares", e.PoliticianID, e.Ticker, e.RemainingShares)
}

// Trade is the minimal per-lot input the engine consumes, independent of
// the store's wire representation.
type Trade struct {
	Ticker    string
	TxDate    time.Time
	TxType    model.TxType
	Shares    float64
	Price     float64
	Benchmark *float64
}

// Run replays trades (already sorted chronologically, as store.TradesForFIFO
// guarantees) for a single politician, grouped internally by ticker.
// Oversold conditions are collected rather than aborting the run: the
// caller sees every ticker's final state plus the list of oversold
// events encountered along the way, so subsequent trades for other
// tickers still get processed.
func Run(politicianID string, trades []Trade) (map[string]*Result, error) {
	results := make(map[string]*Result)
	var oversold *multierror.Error

	for _, t := range trades {
		r, ok := results[t.Ticker]
		if !ok {
			r = &Result{Ticker: t.Ticker}
			results[t.Ticker] = r
		}

		switch t.TxType {
		case model.TxBuy, model.TxReceive:
			r.Lots = append(r.Lots, Lot{Shares: t.Shares, CostBasis: t.Price, TxDate: t.TxDate})

		case model.TxSell:
			remaining := t.Shares
			for remaining > epsilon && len(r.Lots) > 0 {
				lot := r.Lots[0]
				k := min(remaining, lot.Shares)

				r.RealizedPnL += k * (t.Price - lot.CostBasis)
				r.Closed = append(r.Closed, ClosedTrade{
					Ticker:        t.Ticker,
					EntryPrice:    lot.CostBasis,
					EntryDate:     lot.TxDate,
					ExitPrice:     t.Price,
					ExitDate:      t.TxDate,
					Shares:        k,
					ExitBenchmark: t.Benchmark,
				})

				remaining -= k
				lot.Shares -= k

				if lot.Shares > epsilon {
					r.Lots[0] = lot
				} else {
					r.Lots = r.Lots[1:]
				}
			}

			if remaining > epsilon {
				oversold = multierror.Append(oversold, &OversoldError{
					PoliticianID:    politicianID,
					Ticker:          t.Ticker,
					RemainingShares: remaining,
				})
			}

		case model.TxExchange:
			// no-op: an exchange neither adds nor consumes a lot.

		default:
			// unknown tx_type: skip with no state change (caller logs the warning).
		}
	}

	return results, oversold.ErrorOrNil()
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
