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
	"errors"
	"testing"

	"github.com/capitoltrades/ctdata/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBalancedObjectNestedBraces(t *testing.T) {
	payload := `<script>self.__next_f.push([1,"{\"outer\":{\"junk\":{\"a\":1},\"filingUrl\":\"https://x\",\"filingId\":9}}"])</script>`
	obj, err := findBalancedObject(deescape(payload), `"filingUrl"`)
	require.NoError(t, err)
	assert.Contains(t, obj, `"filingId":9`)
	assert.Contains(t, obj, `"junk":{"a":1}`)
}

func TestFindBalancedObjectNeedleMissing(t *testing.T) {
	_, err := findBalancedObject(`{"a":1}`, `"nope"`)
	assert.True(t, errors.Is(err, model.ErrParse))
}

func TestFindBalancedObjectBraceInString(t *testing.T) {
	payload := `{"label":"contains } brace","filingUrl":"x"}`
	obj, err := findBalancedObject(payload, `"filingUrl"`)
	require.NoError(t, err)
	assert.Equal(t, payload, obj)
}

func TestParseTradeDetailFlatAssetType(t *testing.T) {
	body := []byte(`{"filingId":42,"filingUrl":"https://x/42","assetType":"stock","sizeLow":1001,"sizeHigh":15000,"committees":["HASC"],"labels":["new"]}`)
	detail, err := parseTradeDetail(body)
	require.NoError(t, err)
	assert.Equal(t, int64(42), detail.FilingID)
	assert.Equal(t, model.AssetStock, detail.AssetType)
	assert.Equal(t, []string{"HASC"}, detail.Committees)
}

func TestParseTradeDetailNestedAssetTypeAndURLVariant(t *testing.T) {
	body := []byte(`{"filingId":7,"filingURL":"https://x/7","assetType":{"value":"ETF"}}`)
	detail, err := parseTradeDetail(body)
	require.NoError(t, err)
	assert.Equal(t, "https://x/7", detail.FilingURL)
	assert.Equal(t, model.AssetETF, detail.AssetType)
}

func TestParseTradeDetailUnconfirmedCommitteesAbsent(t *testing.T) {
	body := []byte(`{"filingId":3,"filingUrl":"https://x/3","assetType":"stock"}`)
	detail, err := parseTradeDetail(body)
	require.NoError(t, err)
	assert.Empty(t, detail.Committees)
	assert.Empty(t, detail.Labels)
}
