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

// Package priceenrich specializes the runner template into three serial
// phases: historical, current, and benchmark price enrichment.
package priceenrich

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed refdata/ticker_aliases.yaml refdata/sector_etfs.yaml
var refdataFS embed.FS

// UnenrichableTicker is the alias resolution sentinel for symbols known
// to never carry a tradeable quote (money-market funds, indices).
const UnenrichableTicker = "UNENRICHABLE"

type aliasEntry struct {
	Resolved      string `yaml:"resolved"`
	Unenrichable  bool   `yaml:"unenrichable"`
}

// AliasTable resolves a raw disclosure ticker through renames and
// acquisitions to its currently-tradeable symbol, or to the
// UnenrichableTicker sentinel.
type AliasTable struct {
	entries map[string]aliasEntry
}

// LoadAliasTable parses the embedded ticker-alias YAML.
func LoadAliasTable() (*AliasTable, error) {
	raw, err := refdataFS.ReadFile("refdata/ticker_aliases.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded ticker alias table: %w", err)
	}

	var entries map[string]aliasEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse embedded ticker alias table: %w", err)
	}
	return &AliasTable{entries: entries}, nil
}

// Resolve maps a raw ticker to its tradeable symbol. Tickers absent from
// the table resolve to themselves unchanged.
func (a *AliasTable) Resolve(raw string) string {
	entry, ok := a.entries[raw]
	if !ok {
		return raw
	}
	if entry.Unenrichable {
		return UnenrichableTicker
	}
	if entry.Resolved != "" {
		return entry.Resolved
	}
	return raw
}
