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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capitoltrades/ctdata/model"
	"github.com/capitoltrades/ctdata/store"
)

func TestLoadSectorReferenceResolvesEmbeddedTable(t *testing.T) {
	ref, err := LoadSectorReference()
	require.NoError(t, err)

	sector, ok := ref.Lookup("AAPL")
	require.True(t, ok)
	require.Equal(t, "Information Technology", sector)

	sector, ok = ref.Lookup("__no_such_ticker__")
	require.False(t, ok)
	require.Empty(t, sector)
}

func TestEnrichSectorsSettlesEveryPendingIssuerSoReRunsSelectNothing(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ref, err := LoadSectorReference()
	require.NoError(t, err)

	_, err = st.UpsertIssuer(ctx, &model.Issuer{Name: "Known Co", Ticker: "KNOWN"})
	require.NoError(t, err)
	_, err = st.UpsertIssuer(ctx, &model.Issuer{Name: "Mystery Co", Ticker: "NOSECTORMATCH"})
	require.NoError(t, err)

	pending, err := st.IssuersMissingSector(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, EnrichSectors(ctx, st, ref, 10))

	// A ticker absent from the reference table is still a definitive
	// miss: it must be written (with an empty sector) so the next run
	// doesn't re-select it, matching the resumability discipline price
	// enrichment uses for NoData outcomes.
	pending, err = st.IssuersMissingSector(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending, "every issuer must be settled after one EnrichSectors pass")
}
