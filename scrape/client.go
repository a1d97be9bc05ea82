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

// Package scrape fetches the public trade-disclosure web source and
// extracts the server-rendered component payloads embedded in its HTML
// into typed records.
package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/capitoltrades/ctdata/model"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Client wraps a resty handle pointed at the trade-disclosure site.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New builds a Client against baseURL, retrying transport errors and 5xx
// responses up to 3 times with backoff capped at 30s.
func New(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})
	return &Client{http: http, baseURL: baseURL}
}

// Clone returns a Client sharing the underlying resty transport rather
// than dialing a new one per request.
func (c *Client) Clone() *Client {
	return &Client{http: c.http, baseURL: c.baseURL}
}

// nonRetryableStatus reports whether resp is a 4xx other than 404 — those
// bubble up as non-retryable (a 404 is treated as NoData, not a fault).
func nonRetryableStatus(code int) bool {
	return code >= 400 && code < 500 && code != 404
}

// Page holds a fetched listing page plus its next-page cursor token; an
// empty NextToken means the caller has reached the end.
type Page[T any] struct {
	Items     []T
	NextToken string
}

// TradeFilter narrows fetch_trades_page by politician, chamber, or date
// range; zero values mean "no filter."
type TradeFilter struct {
	PoliticianID string
	Chamber      model.Chamber
	Since        time.Time
}

type tradesListEnvelope struct {
	Trades   []tradeSummaryPayload `json:"trades"`
	NextPage string                `json:"nextPage"`
}

type tradeSummaryPayload struct {
	TxID         int64  `json:"txId"`
	PoliticianID string `json:"politicianId"`
	Chamber      string `json:"chamber"`
	IssuerName   string `json:"issuerName"`
	Ticker       string `json:"ticker"`
	PubDate      string `json:"pubDate"`
	TxDate       string `json:"txDate"`
	TxType       string `json:"txType"`
}

// TradeSummary is one row of a fetched listing page.
type TradeSummary struct {
	TxID         int64
	PoliticianID string
	Chamber      model.Chamber
	IssuerName   string
	Ticker       string
	PubDate      time.Time
	TxDate       time.Time
	TxType       model.TxType
}

// FetchTradesPage retrieves one page of the trade listing, applying
// filter and resuming from token (empty token starts from the first
// page).
func (c *Client) FetchTradesPage(ctx context.Context, token string, filter TradeFilter) (Page[TradeSummary], error) {
	req := c.http.R().SetContext(ctx).SetQueryParam("cursor", token)
	if filter.PoliticianID != "" {
		req.SetQueryParam("politicianId", filter.PoliticianID)
	}
	if filter.Chamber != "" {
		req.SetQueryParam("chamber", string(filter.Chamber))
	}
	if !filter.Since.IsZero() {
		req.SetQueryParam("since", filter.Since.Format("2006-01-02"))
	}

	resp, err := req.Get("/trades")
	if err != nil {
		return Page[TradeSummary]{}, fmt.Errorf("%w: fetch trades page: %v", model.ErrNetwork, err)
	}
	if nonRetryableStatus(resp.StatusCode()) {
		return Page[TradeSummary]{}, fmt.Errorf("%w: fetch trades page: status %d", model.ErrInvalidInput, resp.StatusCode())
	}
	if resp.StatusCode() >= 400 {
		return Page[TradeSummary]{}, fmt.Errorf("%w: fetch trades page: status %d", model.ErrNetwork, resp.StatusCode())
	}

	envelope, err := ExtractByNeedle[tradesListEnvelope](resp.Body(), `"trades"`)
	if err != nil {
		return Page[TradeSummary]{}, err
	}

	items := make([]TradeSummary, 0, len(envelope.Trades))
	for _, t := range envelope.Trades {
		items = append(items, TradeSummary{
			TxID:         t.TxID,
			PoliticianID: t.PoliticianID,
			Chamber:      model.Chamber(t.Chamber),
			IssuerName:   t.IssuerName,
			Ticker:       t.Ticker,
			PubDate:      parseLooseDate(t.PubDate),
			TxDate:       parseLooseDate(t.TxDate),
			TxType:       model.TxType(t.TxType),
		})
	}
	return Page[TradeSummary]{Items: items, NextToken: envelope.NextPage}, nil
}

// FetchTradeDetail resolves filing metadata, asset type, size range,
// price, committees, and labels for a single disclosure.
func (c *Client) FetchTradeDetail(ctx context.Context, txID int64) (ScrapedTradeDetail, error) {
	resp, err := c.http.R().SetContext(ctx).Get(fmt.Sprintf("/trades/%d", txID))
	if err != nil {
		return ScrapedTradeDetail{}, fmt.Errorf("%w: fetch trade detail %d: %v", model.ErrNetwork, txID, err)
	}
	if resp.StatusCode() == 404 {
		return ScrapedTradeDetail{}, fmt.Errorf("%w: trade detail %d", model.ErrNoData, txID)
	}
	if nonRetryableStatus(resp.StatusCode()) {
		return ScrapedTradeDetail{}, fmt.Errorf("%w: fetch trade detail %d: status %d", model.ErrInvalidInput, txID, resp.StatusCode())
	}
	if resp.StatusCode() >= 400 {
		return ScrapedTradeDetail{}, fmt.Errorf("%w: fetch trade detail %d: status %d", model.ErrNetwork, txID, resp.StatusCode())
	}

	detail, err := parseTradeDetail(resp.Body())
	if err != nil {
		log.Debug().Int64("txId", txID).Err(err).Msg("trade detail payload did not match any known shape")
		return ScrapedTradeDetail{}, err
	}
	return detail, nil
}

// FetchIssuerDetail resolves an issuer's historical performance series
// and EOD price history.
func (c *Client) FetchIssuerDetail(ctx context.Context, issuerID int64) (ScrapedIssuerDetail, error) {
	resp, err := c.http.R().SetContext(ctx).Get(fmt.Sprintf("/issuers/%d", issuerID))
	if err != nil {
		return ScrapedIssuerDetail{}, fmt.Errorf("%w: fetch issuer detail %d: %v", model.ErrNetwork, issuerID, err)
	}
	if resp.StatusCode() == 404 {
		return ScrapedIssuerDetail{}, fmt.Errorf("%w: issuer detail %d", model.ErrNoData, issuerID)
	}
	if resp.StatusCode() >= 400 {
		return ScrapedIssuerDetail{}, fmt.Errorf("%w: fetch issuer detail %d: status %d", model.ErrNetwork, issuerID, resp.StatusCode())
	}

	return parseIssuerDetail(resp.Body())
}

type politiciansByCommitteeEnvelope struct {
	Politicians []string `json:"politicianIds"`
	NextPage    string   `json:"nextPage"`
}

// FetchPoliticiansByCommittee lists politician IDs the upstream source
// currently associates with a committee code, one page at a time.
func (c *Client) FetchPoliticiansByCommittee(ctx context.Context, code, token string) (Page[string], error) {
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("committee", code).
		SetQueryParam("cursor", token).
		Get("/committees/politicians")
	if err != nil {
		return Page[string]{}, fmt.Errorf("%w: fetch politicians by committee %s: %v", model.ErrNetwork, code, err)
	}
	if resp.StatusCode() >= 400 {
		return Page[string]{}, fmt.Errorf("%w: fetch politicians by committee %s: status %d", model.ErrNetwork, code, resp.StatusCode())
	}

	envelope, err := ExtractByNeedle[politiciansByCommitteeEnvelope](resp.Body(), `"politicianIds"`)
	if err != nil {
		return Page[string]{}, err
	}
	return Page[string]{Items: envelope.Politicians, NextToken: envelope.NextPage}, nil
}

func parseLooseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
