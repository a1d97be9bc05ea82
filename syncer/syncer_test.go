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
package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/capitoltrades/ctdata/committee"
	"github.com/capitoltrades/ctdata/fec"
	"github.com/capitoltrades/ctdata/price"
	"github.com/capitoltrades/ctdata/priceenrich"
	"github.com/capitoltrades/ctdata/scrape"
	"github.com/capitoltrades/ctdata/store"
)

// stubSource is a fixed-price price.Source double so the price
// enrichment phases settle deterministically without a live HTTP call.
type stubSource struct {
	name  string
	price float64
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) PriceOnDate(_ context.Context, _ string, date time.Time) (*price.Quote, error) {
	return &price.Quote{Price: s.price, Date: date, Source: s.name}, nil
}

func (s stubSource) CurrentPrice(_ context.Context, _ string) (*price.Quote, error) {
	return &price.Quote{Price: s.price, Date: time.Now(), Source: s.name}, nil
}

func newTestSyncer(t *testing.T, tradesHandler http.HandlerFunc) (*Syncer, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	server := httptest.NewServer(tradesHandler)
	t.Cleanup(server.Close)

	scrapeCli := scrape.New(server.URL)
	yahoo := stubSource{name: "yahoo", price: 100}
	fecCli := fec.New("test-key", 3600)
	resolver := committee.NewResolver(st, fecCli)

	aliases, err := priceenrich.LoadAliasTable()
	require.NoError(t, err)
	etfs, err := priceenrich.LoadSectorETFTable()
	require.NoError(t, err)
	sectorRef, err := priceenrich.LoadSectorReference()
	require.NoError(t, err)

	return New(st, scrapeCli, yahoo, yahoo, resolver, fecCli, aliases, etfs, sectorRef), st
}

func tradesPageResponse(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestSyncIngestsPricesAndPositions(t *testing.T) {
	body := `{"trades":[
		{"txId":1,"politicianId":"P000001","chamber":"house","issuerName":"Acme Corp","ticker":"AAPL","pubDate":"2024-01-05","txDate":"2024-01-03","txType":"buy"},
		{"txId":2,"politicianId":"P000001","chamber":"house","issuerName":"Acme Corp","ticker":"AAPL","pubDate":"2024-02-05","txDate":"2024-02-03","txType":"sell"}
	],"nextPage":""}`

	s, st := newTestSyncer(t, tradesPageResponse(body))
	ctx := context.Background()

	result, err := s.Sync(ctx, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, result.TradesIngested)
	require.Equal(t, 1, result.PoliticiansRun)
	require.NotEmpty(t, result.RunID)

	cutoff, ok, err := st.IngestMeta(ctx, lastTradePubDateKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, cutoff)

	trades, err := st.TradesForFIFO(ctx, "P000001")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	for _, tr := range trades {
		require.InDelta(t, 100, tr.Price, 1e-9)
	}

	positions, err := st.PositionsByPolitician(ctx, "P000001")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, "AAPL", positions[0].IssuerTicker)
}

func TestSyncResumesFromStoredCutoff(t *testing.T) {
	var lastSince string
	handler := func(w http.ResponseWriter, r *http.Request) {
		lastSince = r.URL.Query().Get("since")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"trades":[],"nextPage":""}`))
	}

	s, st := newTestSyncer(t, handler)
	ctx := context.Background()

	require.NoError(t, st.SetIngestMeta(ctx, lastTradePubDateKey, "2024-06-01T00:00:00Z"))

	_, err := s.Sync(ctx, Options{})
	require.NoError(t, err)
	require.Equal(t, "2024-06-01", lastSince)
}
