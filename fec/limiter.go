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
package fec

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter proactively paces requests to stay under a requests/hour
// budget with a golang.org/x/time/rate token bucket: one slot every
// hour/budget, burst of one. It keeps no record of past request
// timestamps, so requests are spread evenly rather than counted over a
// sliding one-hour window.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter builds a limiter pacing to budgetPerHour requests per hour.
func NewLimiter(budgetPerHour int) *Limiter {
	interval := time.Hour / time.Duration(budgetPerHour)
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until a request slot is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
