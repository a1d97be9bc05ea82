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
package runner

import "fmt"

// Breaker counts consecutive post-retry failures and trips on reaching
// threshold. Any success resets the count to zero: it trips on exactly
// the N-th consecutive failure and not before.
type Breaker struct {
	threshold   int
	consecutive int
}

// NewBreaker builds a Breaker tripping after threshold consecutive
// failures. threshold <= 0 defaults to 10.
func NewBreaker(threshold int) *Breaker {
	if threshold <= 0 {
		threshold = 10
	}
	return &Breaker{threshold: threshold}
}

// RecordSuccess resets the consecutive-failure count.
func (b *Breaker) RecordSuccess() {
	b.consecutive = 0
}

// RecordFailure increments the consecutive-failure count and reports
// whether the breaker has now tripped.
func (b *Breaker) RecordFailure() bool {
	b.consecutive++
	return b.consecutive >= b.threshold
}

// ErrTripped is returned by Run when the breaker trips mid-batch.
type ErrTripped struct {
	Consecutive int
}

func (e *ErrTripped) Error() string {
	return fmt.Sprintf("circuit breaker tripped after %d consecutive failures", e.Consecutive)
}
