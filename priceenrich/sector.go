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
	_ "embed"
	"fmt"

	"github.com/gocarina/gocsv"

	"github.com/capitoltrades/ctdata/store"
)

//go:embed refdata/sector_reference.csv
var sectorReferenceCSV []byte

type sectorReferenceRow struct {
	Ticker     string `csv:"ticker"`
	GICSSector string `csv:"gics_sector"`
}

// gicsSectors is the 11 GICS sector names the reference table and the
// benchmark ETF table are both keyed on. MarketSentinelSector is a
// fallback sentinel, not a GICS sector, and is deliberately excluded.
var gicsSectors = map[string]bool{
	"Energy":                  true,
	"Materials":               true,
	"Industrials":             true,
	"Consumer Discretionary":  true,
	"Consumer Staples":        true,
	"Health Care":             true,
	"Financials":              true,
	"Information Technology":  true,
	"Communication Services":  true,
	"Utilities":               true,
	"Real Estate":             true,
}

// SectorReference resolves a ticker to its GICS sector from the embedded
// reference table.
type SectorReference struct {
	bySector map[string]string
}

// LoadSectorReference parses the embedded ticker->GICS-sector CSV,
// rejecting any row whose sector falls outside the 11-name GICS
// vocabulary and any ticker that repeats.
func LoadSectorReference() (*SectorReference, error) {
	var rows []sectorReferenceRow
	if err := gocsv.UnmarshalBytes(sectorReferenceCSV, &rows); err != nil {
		return nil, fmt.Errorf("parse embedded sector reference csv: %w", err)
	}

	bySector := make(map[string]string, len(rows))
	for _, r := range rows {
		if !gicsSectors[r.GICSSector] {
			return nil, fmt.Errorf("sector reference: %q has unrecognized GICS sector %q", r.Ticker, r.GICSSector)
		}
		if _, dup := bySector[r.Ticker]; dup {
			return nil, fmt.Errorf("sector reference: duplicate ticker %q", r.Ticker)
		}
		bySector[r.Ticker] = r.GICSSector
	}
	return &SectorReference{bySector: bySector}, nil
}

// Lookup returns the GICS sector for ticker, ok=false when the ticker is
// not in the reference table.
func (r *SectorReference) Lookup(ticker string) (string, bool) {
	sector, ok := r.bySector[ticker]
	return sector, ok
}

// EnrichSectors resolves the GICS sector for every issuer still missing
// one, writing both successful matches and definitive misses via
// store.UpdateIssuerSectors so re-runs never re-select a settled issuer
// (the same resumability discipline price enrichment uses).
func EnrichSectors(ctx context.Context, st *store.Store, ref *SectorReference, batchLimit int) error {
	issuers, err := st.IssuersMissingSector(ctx, batchLimit)
	if err != nil {
		return err
	}

	for _, iss := range issuers {
		sector, _ := ref.Lookup(iss.Ticker)
		if err := st.UpdateIssuerSectors(ctx, iss.IssuerID, sector); err != nil {
			return err
		}
	}
	return nil
}
