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

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/capitoltrades/ctdata/model"
)

// Task groups one or more item IDs under a single fetch key; the key is
// the unit of work, strictly coarser than an item ID, e.g. (ticker, date)
// for historical prices, ticker alone for current prices.
type Task[K comparable, Item any] struct {
	Key   K
	Items []Item
}

// FetchFunc performs the external call for one task's key. An error
// wrapping model.ErrNoData means a definitive, non-failure absence of
// data; any other non-nil error is counted by the breaker.
type FetchFunc[K comparable, Item any, Result any] func(ctx context.Context, key K, items []Item) (Result, error)

// ApplyFunc commits a fetch's outcome to the store. It is invoked for
// both successes and NoData outcomes (never for counted failures), and
// always runs on the single writer goroutine, so store access needs no
// additional synchronization.
type ApplyFunc[K comparable, Item any, Result any] func(ctx context.Context, key K, items []Item, result Result, noData bool) error

// Config tunes pool capacity, jitter, and the breaker threshold. Zero
// values fall back to sensible defaults.
type Config struct {
	PoolSize         int
	BreakerThreshold int
	JitterMin        time.Duration
	JitterMax        time.Duration
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = 10
	}
	if c.JitterMin <= 0 {
		c.JitterMin = 200 * time.Millisecond
	}
	if c.JitterMax <= 0 {
		c.JitterMax = 500 * time.Millisecond
	}
	return c
}

type message[K comparable, Item any, Result any] struct {
	key    K
	items  []Item
	result Result
	err    error
}

// Run spawns one fetch task per entry in tasks under a fixed-size permit
// pool, funnels results through a bounded channel to a single apply
// goroutine, and trips a circuit breaker after BreakerThreshold
// consecutive non-NoData failures. On trip, remaining tasks are
// cancelled via ctx and any already-applied writes persist.
func Run[K comparable, Item any, Result any](
	ctx context.Context,
	cfg Config,
	tasks []Task[K, Item],
	fetch FetchFunc[K, Item, Result],
	apply ApplyFunc[K, Item, Result],
	progress Progress,
) error {
	cfg = cfg.withDefaults()
	if progress == nil {
		progress = NopProgress{}
	}
	progress.Start(len(tasks))
	defer progress.Done()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan Task[K, Item], len(tasks))
	for _, task := range tasks {
		queue <- task
	}
	close(queue)

	results := make(chan message[K, Item, Result], cfg.PoolSize*2)

	var wg sync.WaitGroup
	for i := 0; i < cfg.PoolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				if runCtx.Err() != nil {
					return
				}

				jitter := cfg.JitterMin + time.Duration(rand.Int63n(int64(cfg.JitterMax-cfg.JitterMin+1)))
				select {
				case <-time.After(jitter):
				case <-runCtx.Done():
					return
				}

				if runCtx.Err() != nil {
					return
				}

				result, err := fetch(runCtx, task.Key, task.Items)
				select {
				case results <- message[K, Item, Result]{key: task.Key, items: task.Items, result: result, err: err}:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	breaker := NewBreaker(cfg.BreakerThreshold)
	var firstErr error

	for msg := range results {
		if msg.err != nil && !errors.Is(msg.err, model.ErrNoData) {
			progress.Warn(msg.err.Error())
			if breaker.RecordFailure() {
				firstErr = &ErrTripped{Consecutive: cfg.BreakerThreshold}
				cancel()
				continue
			}
			continue
		}

		breaker.RecordSuccess()
		noData := errors.Is(msg.err, model.ErrNoData)
		if err := apply(ctx, msg.key, msg.items, msg.result, noData); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		progress.Advance()
	}

	return firstErr
}
