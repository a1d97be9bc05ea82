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
package fifo

import (
	"testing"
	"time"

	"github.com/capitoltrades/ctdata/model"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRunPartialSaleAcrossTwoLots(t *testing.T) {
	trades := []Trade{
		{Ticker: "AAPL", TxDate: date("2024-01-01"), TxType: model.TxBuy, Shares: 10, Price: 100},
		{Ticker: "AAPL", TxDate: date("2024-02-01"), TxType: model.TxBuy, Shares: 5, Price: 120},
		{Ticker: "AAPL", TxDate: date("2024-03-01"), TxType: model.TxSell, Shares: 12, Price: 150},
	}

	results, err := Run("P000001", trades)
	require.NoError(t, err)

	r := results["AAPL"]
	require.NotNil(t, r)
	assert.InDelta(t, 3.0, r.SharesHeld(), epsilon)
	assert.InDelta(t, 120.0, r.AvgCostBasis(), epsilon)
	assert.InDelta(t, 560.0, r.RealizedPnL, epsilon)
}

func TestRunOversoldStopsTickerButNotOthers(t *testing.T) {
	trades := []Trade{
		{Ticker: "AAPL", TxDate: date("2024-01-01"), TxType: model.TxBuy, Shares: 5, Price: 100},
		{Ticker: "AAPL", TxDate: date("2024-02-01"), TxType: model.TxSell, Shares: 10, Price: 150},
		{Ticker: "MSFT", TxDate: date("2024-01-15"), TxType: model.TxBuy, Shares: 3, Price: 200},
	}

	results, err := Run("P000002", trades)
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 1)

	oversoldErr, ok := merr.Errors[0].(*OversoldError)
	require.True(t, ok)
	assert.Equal(t, "AAPL", oversoldErr.Ticker)
	assert.InDelta(t, 5.0, oversoldErr.RemainingShares, epsilon)

	aapl := results["AAPL"]
	require.NotNil(t, aapl)
	assert.InDelta(t, 0.0, aapl.SharesHeld(), epsilon)
	assert.InDelta(t, 250.0, aapl.RealizedPnL, epsilon)

	msft := results["MSFT"]
	require.NotNil(t, msft)
	assert.InDelta(t, 3.0, msft.SharesHeld(), epsilon)
}

func TestRunExchangeIsNoOp(t *testing.T) {
	trades := []Trade{
		{Ticker: "AAPL", TxDate: date("2024-01-01"), TxType: model.TxBuy, Shares: 10, Price: 100},
		{Ticker: "AAPL", TxDate: date("2024-01-15"), TxType: model.TxExchange, Shares: 999, Price: 0},
	}

	results, err := Run("P000003", trades)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, results["AAPL"].SharesHeld(), epsilon)
}
