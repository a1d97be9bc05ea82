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

// Package runner is the reusable bounded-concurrency enrichment template:
// deduplicated fetch tasks under a permit pool, funneled through a
// bounded channel to a single store-owning writer, guarded by a
// consecutive-failure circuit breaker.
package runner

import "github.com/rs/zerolog/log"

// Progress is the surface pipelines report through; its methods must be
// safe to call while fetch tasks are still running; a terminal
// implementation routes log lines around an active bar instead of
// interleaving with it.
type Progress interface {
	Start(total int)
	Advance()
	Warn(msg string)
	Done()
}

// NopProgress discards all progress events.
type NopProgress struct{}

func (NopProgress) Start(int)      {}
func (NopProgress) Advance()       {}
func (NopProgress) Warn(string)    {}
func (NopProgress) Done()          {}

// LogProgress reports progress through zerolog, used outside of an
// interactive terminal (e.g. cron-driven runs).
type LogProgress struct {
	label string
	total int
	done  int
}

// NewLogProgress builds a LogProgress labelled for log lines.
func NewLogProgress(label string) *LogProgress {
	return &LogProgress{label: label}
}

func (p *LogProgress) Start(total int) {
	p.total = total
	log.Info().Str("stage", p.label).Int("total", total).Msg("enrichment stage starting")
}

func (p *LogProgress) Advance() {
	p.done++
}

func (p *LogProgress) Warn(msg string) {
	log.Warn().Str("stage", p.label).Msg(msg)
}

func (p *LogProgress) Done() {
	log.Info().Str("stage", p.label).Int("completed", p.done).Int("total", p.total).Msg("enrichment stage done")
}
