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
package analytics

import (
	"testing"
	"time"

	"github.com/capitoltrades/ctdata/fifo"
	"github.com/capitoltrades/ctdata/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePerformanceAlphaAgainstBothBenchmarks(t *testing.T) {
	entry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exit := entry.AddDate(0, 0, 365)

	closed := fifo.ClosedTrade{
		Ticker:     "AAPL",
		EntryPrice: 100,
		EntryDate:  entry,
		ExitPrice:  150,
		ExitDate:   exit,
	}

	marketEntry, marketExit := 400.0, 440.0 // +10%
	sectorEntry, sectorExit := 200.0, 180.0 // -10%

	perf := ComputePerformance(closed, ClosedTradeBenchmarks{
		MarketEntry: &marketEntry, MarketExit: &marketExit,
		SectorEntry: &sectorEntry, SectorExit: &sectorExit,
	})

	assert.InDelta(t, 0.5, perf.AbsoluteReturn, 1e-9)
	require.NotNil(t, perf.MarketAlpha)
	assert.InDelta(t, 0.4, *perf.MarketAlpha, 1e-9)
	require.NotNil(t, perf.SectorAlpha)
	assert.InDelta(t, 0.6, *perf.SectorAlpha, 1e-9)
}

func TestConflictScoresOverlappingSectorTrades(t *testing.T) {
	memberships := []model.PoliticianCommittee{{PoliticianID: "P000001", CommitteeCode: "HSBA"}}
	jurisdictions := map[string][]string{"HSBA": {"Financials"}}
	trades := []ConflictTrade{
		{TxID: 1, GICSSector: "Financials"},
		{TxID: 2, GICSSector: "Energy"},
	}

	result := Conflict("P000001", memberships, jurisdictions, trades)
	assert.Equal(t, []int64{1}, result.ConflictTxIDs)
	assert.InDelta(t, 0.5, result.CommitteeTradingPct, 1e-9)
}

func TestConflictNoMembershipsScoresZero(t *testing.T) {
	trades := []ConflictTrade{{TxID: 1, GICSSector: "Financials"}}
	result := Conflict("P000002", nil, map[string][]string{}, trades)
	assert.Empty(t, result.ConflictTxIDs)
	assert.Zero(t, result.CommitteeTradingPct)
}

func TestAnomalyFullyConcentratedSectorScoresMaxConcentration(t *testing.T) {
	trades := []AnomalyTrade{
		{Value: 1000, GICSSector: "Energy"},
		{Value: 1000, GICSSector: "Energy"},
	}
	score := sectorConcentrationScore(trades)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestAnomalyCompositeClampedToUnitInterval(t *testing.T) {
	days := 1
	trades := []AnomalyTrade{
		{Value: 100, GICSSector: "Energy", DaysToNextMovement: &days},
		{Value: 100000, GICSSector: "Energy", DaysToNextMovement: &days},
	}
	score := Anomaly(trades, DefaultAnomalyWeights)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}
