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
package store

import (
	"context"
	"database/sql"

	"github.com/capitoltrades/ctdata/model"
)

// UpsertFECMapping links a politician to a candidate ID, once resolved.
func (s *Store) UpsertFECMapping(ctx context.Context, m model.FECMapping) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO fec_mappings (politician_id, fec_candidate_id, bioguide_id) VALUES (?, ?, ?)
ON CONFLICT (politician_id, fec_candidate_id) DO UPDATE SET
	bioguide_id = COALESCE(NULLIF(excluded.bioguide_id, ''), fec_mappings.bioguide_id)
`, m.PoliticianID, m.FECCandidateID, nullIfEmpty(m.BioguideID))
	return wrapStoreErr("UpsertFECMapping", err)
}

// FECCandidateIDs returns every candidate ID mapped to a politician.
func (s *Store) FECCandidateIDs(ctx context.Context, politicianID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT fec_candidate_id FROM fec_mappings WHERE politician_id = ?`, politicianID)
	if err != nil {
		return nil, wrapStoreErr("FECCandidateIDs", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapStoreErr("FECCandidateIDs scan", err)
		}
		out = append(out, id)
	}
	return out, wrapStoreErr("FECCandidateIDs rows", rows.Err())
}

// UpsertFECCommittee records a candidate's authorized/associated
// committee with its designation and type.
func (s *Store) UpsertFECCommittee(ctx context.Context, c model.FECCommittee) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO fec_committees (committee_id, candidate_id, name, designation, committee_type)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (committee_id) DO UPDATE SET
	candidate_id   = excluded.candidate_id,
	name           = COALESCE(NULLIF(excluded.name, ''), fec_committees.name),
	designation    = COALESCE(NULLIF(excluded.designation, ''), fec_committees.designation),
	committee_type = COALESCE(NULLIF(excluded.committee_type, ''), fec_committees.committee_type)
`, c.CommitteeID, c.CandidateID, c.Name, c.Designation, c.CommitteeType)
	return wrapStoreErr("UpsertFECCommittee", err)
}

// FECCommitteesForCandidate returns every committee known for a
// candidate ID, in no particular order.
func (s *Store) FECCommitteesForCandidate(ctx context.Context, candidateID string) ([]model.FECCommittee, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT committee_id, candidate_id, COALESCE(name, ''), COALESCE(designation, ''), COALESCE(committee_type, '')
FROM fec_committees WHERE candidate_id = ?`, candidateID)
	if err != nil {
		return nil, wrapStoreErr("FECCommitteesForCandidate", err)
	}
	defer rows.Close()

	var out []model.FECCommittee
	for rows.Next() {
		var c model.FECCommittee
		if err := rows.Scan(&c.CommitteeID, &c.CandidateID, &c.Name, &c.Designation, &c.CommitteeType); err != nil {
			return nil, wrapStoreErr("FECCommitteesForCandidate scan", err)
		}
		out = append(out, c)
	}
	return out, wrapStoreErr("FECCommitteesForCandidate rows", rows.Err())
}

// UpsertDonation inserts a Schedule A contribution; sub_id is the FEC
// primary key so repeated syncs of the same record are idempotent.
func (s *Store) UpsertDonation(ctx context.Context, d model.Donation) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO donations (sub_id, committee_id, contributor_name, contributor_employer, contributor_occupation, contributor_state, contributor_zip, amount, date, cycle)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (sub_id) DO NOTHING
`, d.SubID, d.CommitteeID, d.ContributorName, d.ContributorEmployer, d.ContributorOccupation,
		d.ContributorState, d.ContributorZip, d.Amount, formatTime(d.Date), d.Cycle)
	return wrapStoreErr("UpsertDonation", err)
}

// DonationSyncCursor reads the Schedule A keyset cursor for a
// (politician, committee) pair, returning ok=false when no sync has
// happened yet so the caller starts from the beginning.
func (s *Store) DonationSyncCursor(ctx context.Context, politicianID, committeeID string) (model.DonationSyncMeta, bool, error) {
	var m model.DonationSyncMeta
	err := s.conn.QueryRowContext(ctx, `
SELECT politician_id, committee_id, last_index, last_contribution_receipt_date, total_synced
FROM donation_sync_meta WHERE politician_id = ? AND committee_id = ?`, politicianID, committeeID).
		Scan(&m.PoliticianID, &m.CommitteeID, &m.LastIndex, &m.LastContributionReceiptDate, &m.TotalSynced)
	if err == sql.ErrNoRows {
		return model.DonationSyncMeta{PoliticianID: politicianID, CommitteeID: committeeID}, false, nil
	}
	if err != nil {
		return model.DonationSyncMeta{}, false, wrapStoreErr("DonationSyncCursor", err)
	}
	return m, true, nil
}

// SaveDonationSyncCursor persists the keyset cursor after a Schedule A
// page is consumed, so a resumed sync picks up after the last
// (contribution_receipt_date, index) pair rather than re-fetching.
func (s *Store) SaveDonationSyncCursor(ctx context.Context, m model.DonationSyncMeta) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO donation_sync_meta (politician_id, committee_id, last_index, last_contribution_receipt_date, total_synced)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (politician_id, committee_id) DO UPDATE SET
	last_index                     = excluded.last_index,
	last_contribution_receipt_date = excluded.last_contribution_receipt_date,
	total_synced                   = excluded.total_synced
`, m.PoliticianID, m.CommitteeID, m.LastIndex, m.LastContributionReceiptDate, m.TotalSynced)
	return wrapStoreErr("SaveDonationSyncCursor", err)
}

// UpsertEmployerMapping records a resolved employer-name -> ticker match
// for the donor overlay.
func (s *Store) UpsertEmployerMapping(ctx context.Context, m model.EmployerMapping) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO employer_mappings (employer, ticker, confidence, match_type) VALUES (?, ?, ?, ?)
ON CONFLICT (employer) DO UPDATE SET
	ticker     = excluded.ticker,
	confidence = excluded.confidence,
	match_type = excluded.match_type
`, m.Employer, m.Ticker, m.Confidence, m.MatchType)
	return wrapStoreErr("UpsertEmployerMapping", err)
}

// EmployerMappingByName looks up a previously resolved employer->ticker
// match, ok=false when the employer has never been classified.
func (s *Store) EmployerMappingByName(ctx context.Context, employer string) (model.EmployerMapping, bool, error) {
	var m model.EmployerMapping
	err := s.conn.QueryRowContext(ctx, `
SELECT employer, ticker, confidence, match_type FROM employer_mappings WHERE employer = ?`, employer).
		Scan(&m.Employer, &m.Ticker, &m.Confidence, &m.MatchType)
	if err == sql.ErrNoRows {
		return model.EmployerMapping{}, false, nil
	}
	if err != nil {
		return model.EmployerMapping{}, false, wrapStoreErr("EmployerMappingByName", err)
	}
	return m, true, nil
}

// UpsertEmployerLookup caches a raw->normalized employer-name mapping so
// repeated donor-overlay passes don't re-run the normalization routine.
func (s *Store) UpsertEmployerLookup(ctx context.Context, l model.EmployerLookup) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO employer_lookups (raw_employer, normalized_form) VALUES (?, ?)
ON CONFLICT (raw_employer) DO UPDATE SET normalized_form = excluded.normalized_form
`, l.RawEmployer, l.NormalizedForm)
	return wrapStoreErr("UpsertEmployerLookup", err)
}

// DonationsByCommittee returns every donation recorded for a committee.
func (s *Store) DonationsByCommittee(ctx context.Context, committeeID string) ([]model.Donation, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT sub_id, committee_id, COALESCE(contributor_name, ''), COALESCE(contributor_employer, ''),
       COALESCE(contributor_occupation, ''), COALESCE(contributor_state, ''), COALESCE(contributor_zip, ''),
       amount, COALESCE(date, ''), COALESCE(cycle, 0)
FROM donations WHERE committee_id = ?`, committeeID)
	if err != nil {
		return nil, wrapStoreErr("DonationsByCommittee", err)
	}
	defer rows.Close()

	var out []model.Donation
	for rows.Next() {
		var d model.Donation
		var date string
		if err := rows.Scan(&d.SubID, &d.CommitteeID, &d.ContributorName, &d.ContributorEmployer,
			&d.ContributorOccupation, &d.ContributorState, &d.ContributorZip, &d.Amount, &date, &d.Cycle); err != nil {
			return nil, wrapStoreErr("DonationsByCommittee scan", err)
		}
		d.Date = parseTime(date)
		out = append(out, d)
	}
	return out, wrapStoreErr("DonationsByCommittee rows", rows.Err())
}
