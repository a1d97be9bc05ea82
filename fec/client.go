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

// Package fec provides typed access to the OpenFEC v1 API: candidate
// search, candidate→committee lookup, and keyset-paginated Schedule A
// contributions.
package fec

import (
	"context"
	"fmt"

	"github.com/capitoltrades/ctdata/model"
	"github.com/go-resty/resty/v2"
)

const baseURL = "https://api.open.fec.gov/v1"

// Client is a resty-based OpenFEC handle built around a query-builder and
// a rate-limited batch pattern.
type Client struct {
	http    *resty.Client
	apiKey  string
	limiter *Limiter
}

// New builds a Client pacing requests to budgetPerHour (default 900 of
// OpenFEC's free-tier 1,000/hr cap).
func New(apiKey string, budgetPerHour int) *Client {
	if budgetPerHour <= 0 {
		budgetPerHour = 900
	}
	return &Client{
		http:    resty.New(),
		apiKey:  apiKey,
		limiter: NewLimiter(budgetPerHour),
	}
}

func statusErr(op string, code int) error {
	switch {
	case code == 429:
		return fmt.Errorf("%w: %s", model.ErrRateLimited, op)
	case code == 403:
		return fmt.Errorf("%w: %s", model.ErrInvalidAPIKey, op)
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: %s: status %d", model.ErrInvalidInput, op, code)
	case code >= 500:
		return fmt.Errorf("%w: %s: status %d", model.ErrNetwork, op, code)
	default:
		return nil
	}
}

// Candidate is one OpenFEC candidate-search result.
type Candidate struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	Office      string `json:"office"`
}

type candidateSearchResponse struct {
	Results []Candidate `json:"results"`
}

// SearchCandidates looks up candidates by name and, when provided, state.
func (c *Client) SearchCandidates(ctx context.Context, name, state string) ([]Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: search candidates limiter: %v", model.ErrNetwork, err)
	}

	req := c.http.R().SetContext(ctx).
		SetQueryParam("api_key", c.apiKey).
		SetQueryParam("q", name)
	if state != "" {
		req.SetQueryParam("state", state)
	}

	var out candidateSearchResponse
	resp, err := req.SetResult(&out).Get(baseURL + "/candidates/search")
	if err != nil {
		return nil, fmt.Errorf("%w: search candidates: %v", model.ErrNetwork, err)
	}
	if err := statusErr("search candidates", resp.StatusCode()); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Committee is a candidate's authorized or associated committee.
type Committee struct {
	CommitteeID   string `json:"committee_id"`
	Name          string `json:"name"`
	Designation   string `json:"designation"`
	CommitteeType string `json:"committee_type"`
}

type candidateCommitteesResponse struct {
	Results []Committee `json:"results"`
}

// GetCandidateCommittees lists every committee associated with a
// candidate ID.
func (c *Client) GetCandidateCommittees(ctx context.Context, candidateID string) ([]Committee, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: get candidate committees limiter: %v", model.ErrNetwork, err)
	}

	var out candidateCommitteesResponse
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("api_key", c.apiKey).
		SetResult(&out).
		Get(fmt.Sprintf("%s/candidate/%s/committees", baseURL, candidateID))
	if err != nil {
		return nil, fmt.Errorf("%w: get candidate committees %s: %v", model.ErrNetwork, candidateID, err)
	}
	if err := statusErr("get candidate committees", resp.StatusCode()); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ScheduleACursor is the keyset cursor carried between pages of a
// Schedule A query. A zero-value cursor requests the first page.
type ScheduleACursor struct {
	LastIndex                   int64
	LastContributionReceiptDate string
}

// Contribution is one Schedule A donation row.
type Contribution struct {
	SubID                  string  `json:"sub_id"`
	CommitteeID            string  `json:"committee_id"`
	ContributorName        string  `json:"contributor_name"`
	ContributorEmployer    string  `json:"contributor_employer"`
	ContributorOccupation  string  `json:"contributor_occupation"`
	ContributorState       string  `json:"contributor_state"`
	ContributorZip         string  `json:"contributor_zip"`
	ContributionReceiptAmt float64 `json:"contribution_receipt_amount"`
	ContributionReceiptDt  string  `json:"contribution_receipt_date"`
	TwoYearTransactionPd   int     `json:"two_year_transaction_period"`
}

type scheduleAResponse struct {
	Results    []Contribution `json:"results"`
	Pagination struct {
		LastIndexes struct {
			LastIndex                   int64  `json:"last_index"`
			LastContributionReceiptDate string `json:"last_contribution_receipt_date"`
		} `json:"last_indexes"`
	} `json:"pagination"`
}

// ScheduleAPage is one page of Schedule A results plus the cursor to
// pass into the next request; a zero-value NextCursor means there is no
// next page.
type ScheduleAPage struct {
	Contributions []Contribution
	NextCursor    ScheduleACursor
}

// GetScheduleA fetches one page of contributions to committeeID,
// resuming from cursor. This endpoint is keyset paginated only — the
// query it builds never carries a `page` parameter, enforced by
// buildScheduleAQuery's own unit test.
func (c *Client) GetScheduleA(ctx context.Context, committeeID string, cursor ScheduleACursor, perPage int) (ScheduleAPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return ScheduleAPage{}, fmt.Errorf("%w: schedule a limiter: %v", model.ErrNetwork, err)
	}

	req := buildScheduleAQuery(c.http.R().SetContext(ctx), c.apiKey, committeeID, cursor, perPage)

	var out scheduleAResponse
	resp, err := req.SetResult(&out).Get(baseURL + "/schedules/schedule_a")
	if err != nil {
		return ScheduleAPage{}, fmt.Errorf("%w: schedule a %s: %v", model.ErrNetwork, committeeID, err)
	}
	if err := statusErr("schedule a", resp.StatusCode()); err != nil {
		return ScheduleAPage{}, err
	}

	next := ScheduleACursor{
		LastIndex:                   out.Pagination.LastIndexes.LastIndex,
		LastContributionReceiptDate: out.Pagination.LastIndexes.LastContributionReceiptDate,
	}
	return ScheduleAPage{Contributions: out.Results, NextCursor: next}, nil
}

// buildScheduleAQuery assembles the Schedule A request parameters. It is
// factored out of GetScheduleA so a unit test can inspect the built
// request without a live HTTP call: no `page` parameter may ever appear
// in a Schedule A query, since pagination runs entirely on the
// last_index/last_contribution_receipt_date keyset cursor.
func buildScheduleAQuery(req *resty.Request, apiKey, committeeID string, cursor ScheduleACursor, perPage int) *resty.Request {
	req.SetQueryParam("api_key", apiKey)
	req.SetQueryParam("committee_id", committeeID)
	req.SetQueryParam("sort", "contribution_receipt_date")
	req.SetQueryParam("per_page", fmt.Sprintf("%d", perPage))
	if cursor.LastIndex != 0 {
		req.SetQueryParam("last_index", fmt.Sprintf("%d", cursor.LastIndex))
	}
	if cursor.LastContributionReceiptDate != "" {
		req.SetQueryParam("last_contribution_receipt_date", cursor.LastContributionReceiptDate)
	}
	return req
}
