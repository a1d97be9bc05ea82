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

// Package analytics computes performance, committee-conflict, and
// anomaly scores as pure functions over rows the store supplies. None of
// these kernels perform I/O.
package analytics

import (
	"math"
	"time"

	"github.com/capitoltrades/ctdata/fifo"
)

// Performance is a single closed trade's return, annualized return, and
// alpha against both the market and sector benchmark.
type Performance struct {
	Ticker           string
	EntryDate        time.Time
	ExitDate         time.Time
	AbsoluteReturn   float64
	AnnualizedReturn float64
	MarketAlpha      *float64
	SectorAlpha      *float64
}

// ClosedTradeBenchmarks carries the benchmark closes needed to compute
// alpha for one closed trade: the market (SPY) and sector ETF price on
// both the entry and exit dates.
type ClosedTradeBenchmarks struct {
	MarketEntry, MarketExit *float64
	SectorEntry, SectorExit *float64
}

// ComputePerformance derives absolute return, annualized return, and
// alpha for a single FIFO-matched closed trade.
func ComputePerformance(c fifo.ClosedTrade, b ClosedTradeBenchmarks) Performance {
	p := Performance{
		Ticker:    c.Ticker,
		EntryDate: c.EntryDate,
		ExitDate:  c.ExitDate,
	}

	if c.EntryPrice == 0 {
		return p
	}

	p.AbsoluteReturn = (c.ExitPrice - c.EntryPrice) / c.EntryPrice

	daysHeld := c.ExitDate.Sub(c.EntryDate).Hours() / 24
	if daysHeld > 0 {
		p.AnnualizedReturn = math.Pow(1+p.AbsoluteReturn, 365/daysHeld) - 1
	}

	if market := benchmarkReturn(b.MarketEntry, b.MarketExit); market != nil {
		alpha := p.AbsoluteReturn - *market
		p.MarketAlpha = &alpha
	}
	if sector := benchmarkReturn(b.SectorEntry, b.SectorExit); sector != nil {
		alpha := p.AbsoluteReturn - *sector
		p.SectorAlpha = &alpha
	}

	return p
}

func benchmarkReturn(entry, exit *float64) *float64 {
	if entry == nil || exit == nil || *entry == 0 {
		return nil
	}
	r := (*exit - *entry) / *entry
	return &r
}
