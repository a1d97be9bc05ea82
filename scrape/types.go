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
package scrape

import (
	"fmt"
	"strings"
	"time"

	"github.com/capitoltrades/ctdata/model"
	json "github.com/goccy/go-json"
)

// ScrapedTradeDetail is the canonical, shape-independent record produced
// from a trade detail payload regardless of which field-name variant the
// upstream source served.
type ScrapedTradeDetail struct {
	FilingID   int64
	FilingURL  string
	AssetType  model.AssetType
	SizeLow    *int64
	SizeHigh   *int64
	Price      *float64
	Committees []string
	Labels     []string
}

// ScrapedIssuerDetail is the canonical record for an issuer's historical
// performance and EOD price series.
type ScrapedIssuerDetail struct {
	Ticker      string
	Performance []IssuerPerformancePoint
	EODPrices   []EODPricePoint
}

// IssuerPerformancePoint is one historical return observation.
type IssuerPerformancePoint struct {
	Date   time.Time
	Return float64
}

// EODPricePoint is one historical closing-price observation.
type EODPricePoint struct {
	Date  time.Time
	Close float64
}

// rawTradeDetail captures every field-name variant the upstream source is
// known to emit. Both filingUrl/filingURL and flat/nested assetType are
// present so one unmarshal pass can see whichever shape showed up.
type rawTradeDetail struct {
	FilingID    int64           `json:"filingId"`
	FilingURL1  string          `json:"filingUrl"`
	FilingURL2  string          `json:"filingURL"`
	AssetType   json.RawMessage `json:"assetType"`
	SizeLow     *int64          `json:"sizeLow"`
	SizeHigh    *int64          `json:"sizeHigh"`
	Price       *float64        `json:"price"`
	Committees  []string        `json:"committees"`
	Labels      []string        `json:"labels"`
}

type nestedAssetType struct {
	Value string `json:"value"`
}

// resolveAssetType tries, in priority order: a flat string, then a
// nested {"value": "..."} object, then falls back to the unknown
// sentinel — never an error, since an unrecognized asset type is a valid
// (if uninformative) outcome, not a parse failure.
func resolveAssetType(raw json.RawMessage) model.AssetType {
	if len(raw) == 0 {
		return model.AssetUnknown
	}

	var flat string
	if err := json.Unmarshal(raw, &flat); err == nil && flat != "" {
		return normalizeAssetType(flat)
	}

	var nested nestedAssetType
	if err := json.Unmarshal(raw, &nested); err == nil && nested.Value != "" {
		return normalizeAssetType(nested.Value)
	}

	return model.AssetUnknown
}

func normalizeAssetType(s string) model.AssetType {
	switch strings.ToLower(s) {
	case "stock", "common stock":
		return model.AssetStock
	case "option", "options":
		return model.AssetOption
	case "etf", "fund":
		return model.AssetETF
	case "crypto", "cryptocurrency":
		return model.AssetCrypto
	default:
		return model.AssetUnknown
	}
}

// parseTradeDetail extracts the balanced trade-detail object and folds
// its field-shape variants into ScrapedTradeDetail. It tries the
// filingUrl needle first, then filingURL, tolerating whichever shape the
// page actually embeds.
func parseTradeDetail(body []byte) (ScrapedTradeDetail, error) {
	var raw rawTradeDetail
	var err error
	for _, needle := range []string{`"filingUrl"`, `"filingURL"`, `"filingId"`} {
		raw, err = ExtractByNeedle[rawTradeDetail](body, needle)
		if err == nil {
			break
		}
	}
	if err != nil {
		return ScrapedTradeDetail{}, err
	}

	filingURL := raw.FilingURL1
	if filingURL == "" {
		filingURL = raw.FilingURL2
	}

	return ScrapedTradeDetail{
		FilingID:   raw.FilingID,
		FilingURL:  filingURL,
		AssetType:  resolveAssetType(raw.AssetType),
		SizeLow:    raw.SizeLow,
		SizeHigh:   raw.SizeHigh,
		Price:      raw.Price,
		Committees: raw.Committees,
		Labels:     raw.Labels,
	}, nil
}

type rawIssuerDetail struct {
	Ticker      string `json:"ticker"`
	Performance []struct {
		Date   string  `json:"date"`
		Return float64 `json:"return"`
	} `json:"performance"`
	EODPrices []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"eodPrices"`
}

func parseIssuerDetail(body []byte) (ScrapedIssuerDetail, error) {
	raw, err := ExtractByNeedle[rawIssuerDetail](body, `"eodPrices"`)
	if err != nil {
		return ScrapedIssuerDetail{}, err
	}

	detail := ScrapedIssuerDetail{Ticker: raw.Ticker}
	for _, p := range raw.Performance {
		t, perr := time.Parse("2006-01-02", p.Date)
		if perr != nil {
			return ScrapedIssuerDetail{}, fmt.Errorf("%w: issuer performance date %q: %v", model.ErrParse, p.Date, perr)
		}
		detail.Performance = append(detail.Performance, IssuerPerformancePoint{Date: t, Return: p.Return})
	}
	for _, p := range raw.EODPrices {
		t, perr := time.Parse("2006-01-02", p.Date)
		if perr != nil {
			return ScrapedIssuerDetail{}, fmt.Errorf("%w: issuer eod price date %q: %v", model.ErrParse, p.Date, perr)
		}
		detail.EODPrices = append(detail.EODPrices, EODPricePoint{Date: t, Close: p.Close})
	}
	return detail, nil
}
