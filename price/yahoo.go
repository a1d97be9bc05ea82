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
package price

import (
	"context"
	"fmt"
	"time"

	"github.com/capitoltrades/ctdata/model"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s"

// Yahoo is the no-authentication public per-ticker quote source.
type Yahoo struct {
	http  *resty.Client
	cache *Cache
}

// NewYahoo builds a Yahoo client sharing cache with other price sources
// in the same enrichment run.
func NewYahoo(cache *Cache) *Yahoo {
	return &Yahoo{
		http:  resty.New().SetRetryCount(3).SetRetryWaitTime(time.Second).SetRetryMaxWaitTime(30 * time.Second),
		cache: cache,
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PriceOnDate resolves a closing price for ticker on date, falling back
// to the previous trading day within a 7-day window for weekends and
// holidays.
func (y *Yahoo) PriceOnDate(ctx context.Context, ticker string, date time.Time) (*Quote, error) {
	if q, ok := y.cache.GetHistorical(ticker, date); ok {
		return q, nil
	}

	windowStart := date.AddDate(0, 0, -7)
	var parsed yahooChartResponse
	resp, err := y.http.R().SetContext(ctx).
		SetQueryParam("period1", fmt.Sprintf("%d", windowStart.Unix())).
		SetQueryParam("period2", fmt.Sprintf("%d", date.AddDate(0, 0, 1).Unix())).
		SetQueryParam("interval", "1d").
		SetResult(&parsed).
		Get(fmt.Sprintf(yahooChartURL, ticker))
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo price on date %s %s: %v", model.ErrNetwork, ticker, date.Format("2006-01-02"), err)
	}
	if resp.StatusCode() == 404 {
		y.cache.PutHistorical(ticker, date, nil)
		return nil, nil
	}
	if resp.StatusCode() == 429 {
		return nil, fmt.Errorf("%w: yahoo price on date %s", model.ErrRateLimited, ticker)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("%w: yahoo price on date %s: status %d", model.ErrNetwork, ticker, resp.StatusCode())
	}
	if parsed.Chart.Error != nil || len(parsed.Chart.Result) == 0 {
		y.cache.PutHistorical(ticker, date, nil)
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		y.cache.PutHistorical(ticker, date, nil)
		return nil, nil
	}

	closes := result.Indicators.Quote[0].Close
	var best *Quote
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := time.Unix(ts, 0).UTC()
		if day.After(date) {
			continue
		}
		best = &Quote{Price: *closes[i], Date: day, Source: y.Name()}
	}

	if best == nil {
		log.Debug().Str("ticker", ticker).Str("date", date.Format("2006-01-02")).Msg("yahoo returned no closing price within lookback window")
	}

	y.cache.PutHistorical(ticker, date, best)
	return best, nil
}

// CurrentPrice resolves the latest available closing price for ticker.
func (y *Yahoo) CurrentPrice(ctx context.Context, ticker string) (*Quote, error) {
	if q, ok := y.cache.GetCurrent(ticker); ok {
		return q, nil
	}

	var parsed yahooChartResponse
	resp, err := y.http.R().SetContext(ctx).
		SetQueryParam("interval", "1d").
		SetQueryParam("range", "5d").
		SetResult(&parsed).
		Get(fmt.Sprintf(yahooChartURL, ticker))
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo current price %s: %v", model.ErrNetwork, ticker, err)
	}
	if resp.StatusCode() == 404 {
		y.cache.PutCurrent(ticker, nil)
		return nil, nil
	}
	if resp.StatusCode() == 429 {
		return nil, fmt.Errorf("%w: yahoo current price %s", model.ErrRateLimited, ticker)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("%w: yahoo current price %s: status %d", model.ErrNetwork, ticker, resp.StatusCode())
	}
	if parsed.Chart.Error != nil || len(parsed.Chart.Result) == 0 {
		y.cache.PutCurrent(ticker, nil)
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 || len(result.Timestamp) == 0 {
		y.cache.PutCurrent(ticker, nil)
		return nil, nil
	}

	closes := result.Indicators.Quote[0].Close
	var latest *Quote
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != nil {
			latest = &Quote{Price: *closes[i], Date: time.Unix(result.Timestamp[i], 0).UTC(), Source: y.Name()}
			break
		}
	}

	y.cache.PutCurrent(ticker, latest)
	return latest, nil
}
