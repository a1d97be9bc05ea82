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
	"fmt"
	"time"

	"github.com/alphadose/haxmap"
)

// cacheEntry wraps a possibly-absent quote so the cache can distinguish
// "not yet looked up" (key absent from the map) from "looked up, no
// data" (entry present, Quote nil).
type cacheEntry struct {
	quote *Quote
}

// Cache collapses duplicate (ticker, date) lookups within one
// enrichment run. Built on github.com/alphadose/haxmap, a lock-free
// concurrent map, since multiple enrichment workers read and populate it
// concurrently.
type Cache struct {
	historical *haxmap.Map[string, cacheEntry]
	current    *haxmap.Map[string, cacheEntry]
}

// NewCache constructs an empty cache.
func NewCache() *Cache {
	return &Cache{
		historical: haxmap.New[string, cacheEntry](),
		current:    haxmap.New[string, cacheEntry](),
	}
}

func historicalKey(ticker string, date time.Time) string {
	return fmt.Sprintf("%s|%s", ticker, date.Format("2006-01-02"))
}

// GetHistorical returns a cached historical quote and whether the key
// has been looked up before (ok=false means "never attempted", distinct
// from a cached nil meaning "attempted, no data").
func (c *Cache) GetHistorical(ticker string, date time.Time) (*Quote, bool) {
	entry, ok := c.historical.Get(historicalKey(ticker, date))
	if !ok {
		return nil, false
	}
	return entry.quote, true
}

// PutHistorical records the outcome (possibly nil) of a historical
// lookup.
func (c *Cache) PutHistorical(ticker string, date time.Time, q *Quote) {
	c.historical.Set(historicalKey(ticker, date), cacheEntry{quote: q})
}

// GetCurrent returns a cached current-price quote.
func (c *Cache) GetCurrent(ticker string) (*Quote, bool) {
	entry, ok := c.current.Get(ticker)
	if !ok {
		return nil, false
	}
	return entry.quote, true
}

// PutCurrent records the outcome of a current-price lookup.
func (c *Cache) PutCurrent(ticker string, q *Quote) {
	c.current.Set(ticker, cacheEntry{quote: q})
}
