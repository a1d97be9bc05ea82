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

// Package committee resolves a politician's committee memberships
// through a three-tier cache (memory, store, remote) and classifies FEC
// committees into the canonical class enum.
package committee

import "github.com/capitoltrades/ctdata/model"

// Classify ranks a committee into {Campaign, LeadershipPac,
// JointFundraising, Party, Pac, Other} using a designation-first,
// type-second priority. It is a standalone pure function so it can be
// unit-tested without a live API call or store.
func Classify(designation, committeeType string) model.CommitteeClass {
	switch designation {
	case "D":
		return model.ClassLeadershipPac
	case "J":
		return model.ClassJointFundraising
	}

	switch committeeType {
	case "H", "S", "P":
		return model.ClassCampaign
	case "X":
		return model.ClassParty
	case "Q":
		return model.ClassPac
	default:
		return model.ClassOther
	}
}
