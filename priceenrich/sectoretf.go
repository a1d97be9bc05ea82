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
	"fmt"

	"github.com/capitoltrades/ctdata/model"
	"gopkg.in/yaml.v3"
)

// SectorETFTable resolves a GICS sector (or the empty string, meaning
// "unknown") to its benchmark ETF ticker.
type SectorETFTable struct {
	bySector map[string]string
}

// LoadSectorETFTable parses the embedded sector->ETF YAML.
func LoadSectorETFTable() (*SectorETFTable, error) {
	raw, err := refdataFS.ReadFile("refdata/sector_etfs.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded sector etf table: %w", err)
	}

	var bySector map[string]string
	if err := yaml.Unmarshal(raw, &bySector); err != nil {
		return nil, fmt.Errorf("parse embedded sector etf table: %w", err)
	}
	return &SectorETFTable{bySector: bySector}, nil
}

// Benchmark resolves sector to its ETF ticker, falling back to the
// market sentinel when sector is unknown or unrecognized rather than
// skipping the trade.
func (t *SectorETFTable) Benchmark(sector string) string {
	if sector == "" {
		return t.bySector[model.MarketSentinelSector]
	}
	if etf, ok := t.bySector[sector]; ok {
		return etf
	}
	return t.bySector[model.MarketSentinelSector]
}
