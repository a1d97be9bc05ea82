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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/capitoltrades/ctdata/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUpsertPoliticianIsIdempotentAndSentinelProtected(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.UpsertPolitician(ctx, &model.Politician{
		PoliticianID: "P000001",
		Chamber:      model.ChamberHouse,
		State:        "CA",
		FirstName:    "Jane",
	}))

	require.NoError(t, st.UpsertPolitician(ctx, &model.Politician{
		PoliticianID: "P000001",
		Chamber:      model.ChamberHouse,
		LastName:     "Doe",
	}))

	var state, firstName, lastName string
	err := st.conn.QueryRowContext(ctx, `SELECT state, first_name, last_name FROM politicians WHERE politician_id = ?`, "P000001").
		Scan(&state, &firstName, &lastName)
	require.NoError(t, err)
	require.Equal(t, "CA", state, "blank incoming state must not clobber the stored one")
	require.Equal(t, "Jane", firstName)
	require.Equal(t, "Doe", lastName)
}

func TestUpsertAssetTypeIsMonotonicFromUnknown(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id1, err := st.UpsertAsset(ctx, &model.Asset{Ticker: "AAPL", Type: model.AssetUnknown})
	require.NoError(t, err)

	id2, err := st.UpsertAsset(ctx, &model.Asset{Ticker: "AAPL", Type: model.AssetStock})
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	// A later unknown-type payload must not downgrade the resolved type.
	_, err = st.UpsertAsset(ctx, &model.Asset{Ticker: "AAPL", Type: model.AssetUnknown})
	require.NoError(t, err)

	var assetType string
	require.NoError(t, st.conn.QueryRowContext(ctx, `SELECT type FROM assets WHERE asset_id = ?`, id1).Scan(&assetType))
	require.Equal(t, string(model.AssetStock), assetType)
}

func TestIssuerIDByTickerRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, ok, err := st.IssuerIDByTicker(ctx, "MSFT")
	require.NoError(t, err)
	require.False(t, ok)

	issuerID, err := st.UpsertIssuer(ctx, &model.Issuer{Name: "Microsoft", Ticker: "MSFT"})
	require.NoError(t, err)

	got, ok, err := st.IssuerIDByTicker(ctx, "MSFT")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, issuerID, got)
}

func TestDistinctPoliticianIDsCoversEveryTradeOwner(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	for _, id := range []string{"P000002", "P000001"} {
		require.NoError(t, st.UpsertPolitician(ctx, &model.Politician{PoliticianID: id, Chamber: model.ChamberHouse}))
	}
	issuerID, err := st.UpsertIssuer(ctx, &model.Issuer{Name: "Acme", Ticker: "ACME"})
	require.NoError(t, err)
	assetID, err := st.UpsertAsset(ctx, &model.Asset{Ticker: "ACME"})
	require.NoError(t, err)

	for i, politicianID := range []string{"P000002", "P000001"} {
		require.NoError(t, st.UpsertTrade(ctx, &model.Trade{
			TxID:         int64(i + 1),
			PoliticianID: politicianID,
			AssetID:      assetID,
			IssuerID:     issuerID,
			TxDate:       time.Now(),
			TxType:       model.TxBuy,
		}))
	}

	ids, err := st.DistinctPoliticianIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"P000001", "P000002"}, ids, "ordered, not insertion order")
}

func TestIngestMetaRoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, ok, err := st.IngestMeta(ctx, "last_trade_pub_date")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.SetIngestMeta(ctx, "last_trade_pub_date", "2024-01-01T00:00:00Z"))
	require.NoError(t, st.SetIngestMeta(ctx, "last_trade_pub_date", "2024-06-01T00:00:00Z"))

	v, ok, err := st.IngestMeta(ctx, "last_trade_pub_date")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2024-06-01T00:00:00Z", v)
}

func TestSummarizeReflectsStoredRows(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	sm, err := st.Summarize(ctx)
	require.NoError(t, err)
	require.Zero(t, sm.Trades)
	require.Empty(t, sm.LastTradePubDate)

	require.NoError(t, st.UpsertPolitician(ctx, &model.Politician{PoliticianID: "P000001", Chamber: model.ChamberHouse}))
	issuerID, err := st.UpsertIssuer(ctx, &model.Issuer{Name: "Acme", Ticker: "ACME"})
	require.NoError(t, err)
	assetID, err := st.UpsertAsset(ctx, &model.Asset{Ticker: "ACME"})
	require.NoError(t, err)
	require.NoError(t, st.UpsertTrade(ctx, &model.Trade{
		TxID: 1, PoliticianID: "P000001", AssetID: assetID, IssuerID: issuerID,
		TxDate: time.Now(), TxType: model.TxBuy,
	}))
	require.NoError(t, st.SetIngestMeta(ctx, "last_trade_pub_date", "2024-06-01T00:00:00Z"))

	sm, err = st.Summarize(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, sm.Trades)
	require.EqualValues(t, 1, sm.Politicians)
	require.EqualValues(t, 1, sm.Issuers)
	require.Equal(t, "2024-06-01T00:00:00Z", sm.LastTradePubDate)
}
