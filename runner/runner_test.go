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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/capitoltrades/ctdata/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAppliesAllSuccesses(t *testing.T) {
	tasks := make([]Task[int, int], 0, 20)
	for i := 0; i < 20; i++ {
		tasks = append(tasks, Task[int, int]{Key: i, Items: []int{i}})
	}

	var mu sync.Mutex
	applied := make(map[int]bool)

	err := Run(context.Background(), Config{PoolSize: 4, JitterMin: time.Millisecond, JitterMax: 2 * time.Millisecond},
		tasks,
		func(ctx context.Context, key int, items []int) (int, error) {
			return key * 2, nil
		},
		func(ctx context.Context, key int, items []int, result int, noData bool) error {
			mu.Lock()
			applied[key] = true
			mu.Unlock()
			assert.Equal(t, key*2, result)
			assert.False(t, noData)
			return nil
		},
		nil,
	)

	require.NoError(t, err)
	assert.Len(t, applied, 20)
}

func TestRunNoDataIsNotAFailure(t *testing.T) {
	tasks := []Task[string, string]{{Key: "AAPL", Items: []string{"AAPL"}}}

	var gotNoData bool
	err := Run(context.Background(), Config{JitterMin: time.Millisecond, JitterMax: 2 * time.Millisecond},
		tasks,
		func(ctx context.Context, key string, items []string) (string, error) {
			return "", fmt.Errorf("%w: no quote", model.ErrNoData)
		},
		func(ctx context.Context, key string, items []string, result string, noData bool) error {
			gotNoData = noData
			return nil
		},
		nil,
	)

	require.NoError(t, err)
	assert.True(t, gotNoData)
}

func TestRunBreakerTripsOnNthConsecutiveFailure(t *testing.T) {
	tasks := make([]Task[int, int], 0, 30)
	for i := 0; i < 30; i++ {
		tasks = append(tasks, Task[int, int]{Key: i, Items: []int{i}})
	}

	err := Run(context.Background(), Config{PoolSize: 1, BreakerThreshold: 5, JitterMin: time.Millisecond, JitterMax: 2 * time.Millisecond},
		tasks,
		func(ctx context.Context, key int, items []int) (int, error) {
			return 0, errors.New("transient failure")
		},
		func(ctx context.Context, key int, items []int, result int, noData bool) error {
			t.Fatal("apply must not be called for counted failures")
			return nil
		},
		nil,
	)

	var tripped *ErrTripped
	require.Error(t, err)
	require.ErrorAs(t, err, &tripped)
	assert.Equal(t, 5, tripped.Consecutive)
}

func TestRunSuccessResetsBreakerCount(t *testing.T) {
	tasks := make([]Task[int, int], 0, 12)
	for i := 0; i < 12; i++ {
		tasks = append(tasks, Task[int, int]{Key: i, Items: []int{i}})
	}

	var mu sync.Mutex
	applied := 0

	err := Run(context.Background(), Config{PoolSize: 1, BreakerThreshold: 3, JitterMin: time.Millisecond, JitterMax: 2 * time.Millisecond},
		tasks,
		func(ctx context.Context, key int, items []int) (int, error) {
			if key%2 == 0 {
				return 0, errors.New("transient failure")
			}
			return key, nil
		},
		func(ctx context.Context, key int, items []int, result int, noData bool) error {
			mu.Lock()
			applied++
			mu.Unlock()
			return nil
		},
		nil,
	)

	require.NoError(t, err)
	assert.Equal(t, 6, applied)
}
