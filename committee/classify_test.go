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
package committee

import (
	"testing"

	"github.com/capitoltrades/ctdata/model"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name          string
		designation   string
		committeeType string
		want          model.CommitteeClass
	}{
		{"designation beats type", "D", "H", model.ClassLeadershipPac},
		{"campaign type with non-D designation", "P", "S", model.ClassCampaign},
		{"party type with no designation", "", "X", model.ClassParty},
		{"joint fundraising", "J", "H", model.ClassJointFundraising},
		{"pac type", "", "Q", model.ClassPac},
		{"unrecognized falls to other", "", "Z", model.ClassOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.designation, tc.committeeType))
		})
	}
}
