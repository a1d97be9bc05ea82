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

import "github.com/capitoltrades/ctdata/model"

// ConflictTrade is the minimal per-trade projection the conflict kernel
// needs: which sector the traded issuer sits in.
type ConflictTrade struct {
	TxID       int64
	GICSSector string
}

// ConflictResult is the per-politician conflict summary.
type ConflictResult struct {
	PoliticianID        string
	Jurisdiction        map[string]bool // sectors the politician's committees oversee
	ConflictTxIDs       []int64
	CommitteeTradingPct float64
}

// Conflict scores each trade 1 if the politician sits on a committee
// whose jurisdiction overlaps the traded issuer's GICS sector, else 0,
// and rolls the per-trade scores up into committee-trading percentage.
func Conflict(politicianID string, memberships []model.PoliticianCommittee, jurisdictions map[string][]string, trades []ConflictTrade) ConflictResult {
	jurisdiction := make(map[string]bool)
	for _, m := range memberships {
		for _, sector := range jurisdictions[m.CommitteeCode] {
			jurisdiction[sector] = true
		}
	}

	result := ConflictResult{PoliticianID: politicianID, Jurisdiction: jurisdiction}
	if len(trades) == 0 {
		return result
	}

	for _, t := range trades {
		if t.GICSSector != "" && jurisdiction[t.GICSSector] {
			result.ConflictTxIDs = append(result.ConflictTxIDs, t.TxID)
		}
	}

	result.CommitteeTradingPct = float64(len(result.ConflictTxIDs)) / float64(len(trades))
	return result
}

// DonorOverlayHit flags a trade whose issuer ticker correlates with a
// donor's mapped employer, an optional overlay layered on top of the
// committee-jurisdiction conflict score.
type DonorOverlayHit struct {
	TxID             int64
	Ticker           string
	DonorEmployer    string
	DonorConfidence  float64
	DonorMatchType   string
}

// DonorOverlay correlates donations (keyed by normalized employer, via
// employerByTicker) against trades on the same ticker, surfacing
// donor-context flags. employerByTicker maps a ticker to the strongest
// employer-mapping match found for it.
func DonorOverlay(trades []ConflictTradeTicker, employerByTicker map[string]model.EmployerMapping) []DonorOverlayHit {
	var hits []DonorOverlayHit
	for _, t := range trades {
		mapping, ok := employerByTicker[t.Ticker]
		if !ok {
			continue
		}
		hits = append(hits, DonorOverlayHit{
			TxID:            t.TxID,
			Ticker:          t.Ticker,
			DonorEmployer:   mapping.Employer,
			DonorConfidence: mapping.Confidence,
			DonorMatchType:  mapping.MatchType,
		})
	}
	return hits
}

// ConflictTradeTicker is the minimal per-trade projection the donor
// overlay needs.
type ConflictTradeTicker struct {
	TxID   int64
	Ticker string
}
