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
package price

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheDistinguishesUnattemptedFromNoData(t *testing.T) {
	c := NewCache()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, ok := c.GetHistorical("AAPL", date)
	assert.False(t, ok, "unattempted lookup should report ok=false")

	c.PutHistorical("AAPL", date, nil)
	q, ok := c.GetHistorical("AAPL", date)
	assert.True(t, ok)
	assert.Nil(t, q, "a cached NoData outcome is a nil quote, not a missing entry")
}

func TestCacheRoundTripsQuote(t *testing.T) {
	c := NewCache()
	want := &Quote{Price: 142.5, Source: "yahoo"}
	c.PutCurrent("MSFT", want)

	got, ok := c.GetCurrent("MSFT")
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
