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
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
)

func TestBuildScheduleAQueryNeverEmitsPageParam(t *testing.T) {
	cases := []ScheduleACursor{
		{},
		{LastIndex: 230880619, LastContributionReceiptDate: "2024-01-15"},
	}

	for _, cursor := range cases {
		req := buildScheduleAQuery(resty.New().R(), "key123", "C001", cursor, 100)
		for k := range req.QueryParam {
			assert.NotEqual(t, "page", k, "schedule a query must never carry a page parameter")
		}
	}
}

func TestBuildScheduleAQueryCarriesCursorOnSubsequentPage(t *testing.T) {
	req := buildScheduleAQuery(resty.New().R(), "key123", "C001",
		ScheduleACursor{LastIndex: 230880619, LastContributionReceiptDate: "2024-01-15"}, 100)

	assert.Equal(t, "230880619", req.QueryParam.Get("last_index"))
	assert.Equal(t, "2024-01-15", req.QueryParam.Get("last_contribution_receipt_date"))
}

func TestBuildScheduleAQueryOmitsCursorOnFirstPage(t *testing.T) {
	req := buildScheduleAQuery(resty.New().R(), "key123", "C001", ScheduleACursor{}, 100)

	assert.False(t, req.QueryParam.Has("last_index"))
	assert.False(t, req.QueryParam.Has("last_contribution_receipt_date"))
	assert.True(t, strings.Contains(req.QueryParam.Encode(), "committee_id=C001"))
}
