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
	"golang.org/x/time/rate"
)

// Tiingo is the fallback price source consulted when Yahoo returns
// NoData. Its shape — resty client, query-param API key, rate limiter,
// NYC-close normalization — mirrors a typical EOD downloader.
type Tiingo struct {
	http    *resty.Client
	limiter *rate.Limiter
	nyc     *time.Location
	cache   *Cache
}

// NewTiingo builds a Tiingo client paced to ratePerMinute requests per
// minute.
func NewTiingo(apiKey string, ratePerMinute int, cache *Cache) (*Tiingo, error) {
	if ratePerMinute <= 0 {
		ratePerMinute = 5000
	}
	nyc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("%w: load America/New_York timezone: %v", model.ErrParse, err)
	}
	return &Tiingo{
		http:    resty.New().SetQueryParam("token", apiKey),
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), 1),
		nyc:     nyc,
		cache:   cache,
	}, nil
}

func (t *Tiingo) Name() string { return "tiingo" }

type tiingoEOD struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// PriceOnDate resolves a closing price for ticker near date via Tiingo's
// daily-prices endpoint, falling back across the same 7-day lookback
// window as Yahoo.
func (t *Tiingo) PriceOnDate(ctx context.Context, ticker string, date time.Time) (*Quote, error) {
	if q, ok := t.cache.GetHistorical(ticker, date); ok {
		return q, nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: tiingo rate limiter: %v", model.ErrNetwork, err)
	}

	startDate := date.AddDate(0, 0, -7)
	respContent := make([]tiingoEOD, 0)
	resp, err := t.http.R().SetContext(ctx).
		SetQueryParam("startDate", startDate.Format("2006-01-02")).
		SetQueryParam("endDate", date.Format("2006-01-02")).
		SetResult(&respContent).
		Get(fmt.Sprintf("https://api.tiingo.com/tiingo/daily/%s/prices", ticker))
	if err != nil {
		return nil, fmt.Errorf("%w: tiingo price on date %s: %v", model.ErrNetwork, ticker, err)
	}
	if resp.StatusCode() == 404 {
		t.cache.PutHistorical(ticker, date, nil)
		return nil, nil
	}
	if resp.StatusCode() == 429 {
		return nil, fmt.Errorf("%w: tiingo price on date %s", model.ErrRateLimited, ticker)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("%w: tiingo price on date %s: status %d", model.ErrNetwork, ticker, resp.StatusCode())
	}
	if len(respContent) == 0 {
		t.cache.PutHistorical(ticker, date, nil)
		return nil, nil
	}

	last := respContent[len(respContent)-1]
	quoteDate, err := time.Parse(time.RFC3339Nano, last.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: tiingo quote date %q: %v", model.ErrParse, last.Date, err)
	}
	quoteDate = time.Date(quoteDate.Year(), quoteDate.Month(), quoteDate.Day(), 16, 0, 0, 0, t.nyc)

	quote := &Quote{Price: last.Close, Date: quoteDate, Source: t.Name()}
	t.cache.PutHistorical(ticker, date, quote)
	return quote, nil
}

// CurrentPrice resolves the most recent available closing price.
func (t *Tiingo) CurrentPrice(ctx context.Context, ticker string) (*Quote, error) {
	if q, ok := t.cache.GetCurrent(ticker); ok {
		return q, nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: tiingo rate limiter: %v", model.ErrNetwork, err)
	}

	respContent := make([]tiingoEOD, 0)
	resp, err := t.http.R().SetContext(ctx).
		SetQueryParam("startDate", time.Now().AddDate(0, 0, -7).Format("2006-01-02")).
		SetResult(&respContent).
		Get(fmt.Sprintf("https://api.tiingo.com/tiingo/daily/%s/prices", ticker))
	if err != nil {
		return nil, fmt.Errorf("%w: tiingo current price %s: %v", model.ErrNetwork, ticker, err)
	}
	if resp.StatusCode() == 404 {
		t.cache.PutCurrent(ticker, nil)
		return nil, nil
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("%w: tiingo current price %s: status %d", model.ErrNetwork, ticker, resp.StatusCode())
	}
	if len(respContent) == 0 {
		t.cache.PutCurrent(ticker, nil)
		return nil, nil
	}

	last := respContent[len(respContent)-1]
	quoteDate, err := time.Parse(time.RFC3339Nano, last.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: tiingo quote date %q: %v", model.ErrParse, last.Date, err)
	}
	quoteDate = time.Date(quoteDate.Year(), quoteDate.Month(), quoteDate.Day(), 16, 0, 0, 0, t.nyc)

	quote := &Quote{Price: last.Close, Date: quoteDate, Source: t.Name()}
	t.cache.PutCurrent(ticker, quote)
	return quote, nil
}
