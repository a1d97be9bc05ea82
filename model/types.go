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

// Package model holds the plain entity types persisted by the store. It
// carries no persistence or HTTP logic of its own.
package model

import "time"

type AssetType string

const (
	AssetStock   AssetType = "stock"
	AssetOption  AssetType = "option"
	AssetETF     AssetType = "etf"
	AssetCrypto  AssetType = "crypto"
	AssetUnknown AssetType = "unknown"
)

type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

type TxType string

const (
	TxBuy      TxType = "buy"
	TxSell     TxType = "sell"
	TxExchange TxType = "exchange"
	TxReceive  TxType = "receive"
)

// Asset is a tradeable instrument referenced by a trade.
type Asset struct {
	AssetID    int64
	Type       AssetType
	Ticker     string
	Instrument string
}

// Issuer is the company or fund behind a traded asset.
type Issuer struct {
	IssuerID       int64
	Name           string
	Ticker         string
	Sector         string
	GICSSector     string
	EnrichedAt     *time.Time
}

// HasTicker reports whether the issuer carries the non-null ticker the
// analytics-eligibility invariant requires.
func (i *Issuer) HasTicker() bool {
	return i.Ticker != ""
}

// Politician is a member of Congress who filed one or more trades.
type Politician struct {
	PoliticianID string // format "P" + 6 digits
	State        string
	Party        string
	Chamber      Chamber
	FirstName    string
	LastName     string
	DOB          string
	Gender       string
}

// Trade is a single disclosed transaction.
type Trade struct {
	TxID            int64
	PoliticianID    string
	AssetID         int64
	IssuerID        int64
	PubDate         time.Time
	FilingDate      time.Time
	TxDate          time.Time
	TxType          TxType
	Size            *float64
	SizeRangeLow    *int64
	SizeRangeHigh   *int64
	Price           *float64
	Value           int64

	FilingID  int64  // sentinel 0 == unknown
	FilingURL string // sentinel "" == unknown

	TradeDatePrice   *float64
	EstimatedShares  *float64
	EstimatedValue   *float64
	BenchmarkPrice   *float64
	PriceSource      string

	DetailEnrichedAt     *time.Time
	PriceEnrichedAt      *time.Time
	BenchmarkEnrichedAt  *time.Time
}

// SizeRangeValid reports whether the disclosed size range is sane: when
// both bounds are present, low must not exceed high.
func (t *Trade) SizeRangeValid() bool {
	if t.SizeRangeLow == nil || t.SizeRangeHigh == nil {
		return true
	}
	return *t.SizeRangeLow <= *t.SizeRangeHigh
}

// TradeCommittee is a many-to-many join row between a trade and a
// committee code active on it.
type TradeCommittee struct {
	TxID          int64
	CommitteeCode string
}

// TradeLabel is a many-to-many join row between a trade and a free-form
// label (e.g. "Late Filing").
type TradeLabel struct {
	TxID  int64
	Label string
}

// PoliticianCommittee is a derived membership row populated by the
// committee resolver.
type PoliticianCommittee struct {
	PoliticianID  string
	CommitteeCode string
	CommitteeName string
	Class         CommitteeClass
}

// Position is the materialized FIFO holding for a (politician, ticker)
// pair.
type Position struct {
	PoliticianID string
	IssuerTicker string
	SharesHeld   float64
	CostBasis    float64
	RealizedPnL  float64
	LastUpdated  time.Time
}

// IngestMeta is the key/value incremental-cutoff store.
type IngestMeta struct {
	Key   string
	Value string
}

// FECMapping links a politician to a FEC candidate ID across cycles.
type FECMapping struct {
	PoliticianID    string
	FECCandidateID  string
	BioguideID      string
}

// FECCommittee is a candidate's authorized/associated committee.
type FECCommittee struct {
	CommitteeID   string
	CandidateID   string
	Name          string
	Designation   string
	CommitteeType string
}

// Donation is a Schedule A contribution record.
type Donation struct {
	SubID              string
	CommitteeID        string
	ContributorName    string
	ContributorEmployer string
	ContributorOccupation string
	ContributorState   string
	ContributorZip     string
	Amount             float64
	Date               time.Time
	Cycle              int
}

// DonationSyncMeta tracks the Schedule A keyset cursor for a
// (politician, committee) pair.
type DonationSyncMeta struct {
	PoliticianID                string
	CommitteeID                 string
	LastIndex                   int64
	LastContributionReceiptDate string
	TotalSynced                 int64
}

// EmployerMapping links a normalized employer name to a ticker.
type EmployerMapping struct {
	Employer   string
	Ticker     string
	Confidence float64
	MatchType  string
}

// EmployerLookup normalizes a raw employer string into canonical form.
type EmployerLookup struct {
	RawEmployer   string
	NormalizedForm string
}

// SectorBenchmark maps a GICS sector (or the "Market" sentinel) to its
// benchmark ETF ticker.
type SectorBenchmark struct {
	Sector       string
	BenchmarkETF string
}

const MarketSentinelSector = "Market"

// CommitteeClass classifies a committee using a designation-first,
// type-second priority table.
type CommitteeClass string

const (
	ClassCampaign         CommitteeClass = "campaign"
	ClassLeadershipPac    CommitteeClass = "leadership_pac"
	ClassJointFundraising CommitteeClass = "joint_fundraising"
	ClassParty            CommitteeClass = "party"
	ClassPac              CommitteeClass = "pac"
	ClassOther            CommitteeClass = "other"
)
