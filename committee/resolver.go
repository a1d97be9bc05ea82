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
package committee

import (
	"context"
	"strings"

	"github.com/alphadose/haxmap"
	"github.com/capitoltrades/ctdata/fec"
	"github.com/capitoltrades/ctdata/model"
	"github.com/capitoltrades/ctdata/store"
	"github.com/rs/zerolog/log"
)

// Resolver looks up a politician's committee memberships through three
// tiers: an in-memory concurrent map, the store's cached FEC tables, and
// (on a full miss) a live OpenFEC lookup.
type Resolver struct {
	memory *haxmap.Map[string, []model.PoliticianCommittee]
	store  *store.Store
	remote *fec.Client
}

// NewResolver builds a Resolver backed by st for tier 2 and remote for
// tier 3.
func NewResolver(st *store.Store, remote *fec.Client) *Resolver {
	return &Resolver{
		memory: haxmap.New[string, []model.PoliticianCommittee](),
		store:  st,
		remote: remote,
	}
}

// Resolve returns the committee memberships for a politician, populating
// each tier it falls through. The contract is "acquire → read → drop →
// await → acquire → write": the memory map is never held locked across
// the remote HTTP call, since haxmap's per-bucket locking is held only
// for the duration of a single Get/Set, not across
// this method's whole body.
func (r *Resolver) Resolve(ctx context.Context, politicianID string) ([]model.PoliticianCommittee, error) {
	if memberships, ok := r.memory.Get(politicianID); ok {
		return memberships, nil
	}

	memberships, err := r.store.PoliticianCommittees(ctx, politicianID)
	if err != nil {
		return nil, err
	}
	if len(memberships) > 0 {
		r.memory.Set(politicianID, memberships)
		return memberships, nil
	}

	memberships, err = r.resolveRemote(ctx, politicianID)
	if err != nil {
		return nil, err
	}
	if len(memberships) > 0 {
		if err := r.store.ReplacePoliticianCommittees(ctx, politicianID, memberships); err != nil {
			return nil, err
		}
	}
	r.memory.Set(politicianID, memberships)
	return memberships, nil
}

// resolveRemote calls OpenFEC candidate search/candidate-committees for
// every known candidate ID mapped to politicianID, classifying each
// committee found. When no candidate ID is mapped yet, it first searches
// OpenFEC by name and state and persists whatever candidate IDs come
// back, so later syncs skip straight to the candidate-committees lookup.
func (r *Resolver) resolveRemote(ctx context.Context, politicianID string) ([]model.PoliticianCommittee, error) {
	candidateIDs, err := r.store.FECCandidateIDs(ctx, politicianID)
	if err != nil {
		return nil, err
	}

	if len(candidateIDs) == 0 {
		resolved, err := r.searchCandidateIDs(ctx, politicianID)
		if err != nil {
			return nil, err
		}
		candidateIDs = resolved
	}

	var memberships []model.PoliticianCommittee
	for _, candidateID := range candidateIDs {
		committees, err := r.remote.GetCandidateCommittees(ctx, candidateID)
		if err != nil {
			log.Warn().Str("politicianId", politicianID).Str("candidateId", candidateID).Err(err).
				Msg("openfec candidate committees lookup failed")
			continue
		}

		for _, c := range committees {
			class := Classify(c.Designation, c.CommitteeType)
			memberships = append(memberships, model.PoliticianCommittee{
				PoliticianID:  politicianID,
				CommitteeCode: c.CommitteeID,
				CommitteeName: c.Name,
				Class:         class,
			})

			if err := r.store.UpsertFECCommittee(ctx, model.FECCommittee{
				CommitteeID:   c.CommitteeID,
				CandidateID:   candidateID,
				Name:          c.Name,
				Designation:   c.Designation,
				CommitteeType: c.CommitteeType,
			}); err != nil {
				return nil, err
			}
		}
	}
	return memberships, nil
}

// searchCandidateIDs looks up politicianID's name and state in the store
// and queries OpenFEC candidate search for matching candidate IDs,
// persisting every match via UpsertFECMapping so subsequent resolves
// find it in tier 2 instead of searching again.
func (r *Resolver) searchCandidateIDs(ctx context.Context, politicianID string) ([]string, error) {
	p, err := r.store.PoliticianByID(ctx, politicianID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return nil, nil
	}

	candidates, err := r.remote.SearchCandidates(ctx, name, p.State)
	if err != nil {
		log.Warn().Str("politicianId", politicianID).Str("name", name).Err(err).
			Msg("openfec candidate search failed")
		return nil, nil
	}

	candidateIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if err := r.store.UpsertFECMapping(ctx, model.FECMapping{
			PoliticianID:   politicianID,
			FECCandidateID: c.CandidateID,
		}); err != nil {
			return nil, err
		}
		candidateIDs = append(candidateIDs, c.CandidateID)
	}
	return candidateIDs, nil
}
