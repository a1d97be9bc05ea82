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
package analytics

import "math"

// AnomalyTrade is the minimal per-trade projection the anomaly kernel
// needs.
type AnomalyTrade struct {
	Value              float64
	GICSSector         string
	DaysToNextMovement *int // nil when no material price movement was found within the lookback window
}

// AnomalyWeights tunes the composite's sub-score weights; they should sum
// to 1 but this is not enforced.
type AnomalyWeights struct {
	PreMove           float64
	UnusualVolume     float64
	SectorConcentration float64
}

// DefaultAnomalyWeights gives pre-move and unusual-volume equal emphasis
// with a lighter concentration weight.
var DefaultAnomalyWeights = AnomalyWeights{PreMove: 0.4, UnusualVolume: 0.4, SectorConcentration: 0.2}

// preMoveThresholdDays: a trade within this many days of a material price
// move scores the maximum pre-move sub-score.
const preMoveThresholdDays = 5

// Anomaly computes the composite anomaly score for one politician's
// trade history. All sub-scores and the composite are clamped to [0, 1].
func Anomaly(trades []AnomalyTrade, weights AnomalyWeights) float64 {
	if len(trades) == 0 {
		return 0
	}

	preMove := preMoveScore(trades)
	volume := unusualVolumeScore(trades)
	concentration := sectorConcentrationScore(trades)

	composite := weights.PreMove*preMove + weights.UnusualVolume*volume + weights.SectorConcentration*concentration
	return clamp01(composite)
}

// preMoveScore is the fraction of trades that precede a material price
// movement within preMoveThresholdDays, thresholded into [0, 1].
func preMoveScore(trades []AnomalyTrade) float64 {
	var flagged int
	for _, t := range trades {
		if t.DaysToNextMovement != nil && abs(*t.DaysToNextMovement) <= preMoveThresholdDays {
			flagged++
		}
	}
	return clamp01(float64(flagged) / float64(len(trades)))
}

// unusualVolumeScore is the share of trades whose value exceeds 2
// standard deviations above the politician's mean trade value (a
// two-sigma z-score gate mapped onto [0, 1]).
func unusualVolumeScore(trades []AnomalyTrade) float64 {
	mean, stddev := meanStddev(trades)
	if stddev == 0 {
		return 0
	}

	var flagged int
	for _, t := range trades {
		z := (t.Value - mean) / stddev
		if z >= 2 {
			flagged++
		}
	}
	return clamp01(float64(flagged) / float64(len(trades)))
}

func meanStddev(trades []AnomalyTrade) (mean, stddev float64) {
	var sum float64
	for _, t := range trades {
		sum += t.Value
	}
	mean = sum / float64(len(trades))

	var variance float64
	for _, t := range trades {
		d := t.Value - mean
		variance += d * d
	}
	variance /= float64(len(trades))
	return mean, math.Sqrt(variance)
}

// sectorConcentrationScore is the Herfindahl-Hirschman index of trade
// value across sectors, normalized into [0, 1] (HHI ranges [1/n, 1] over
// n sectors; fully concentrated in one sector scores 1).
func sectorConcentrationScore(trades []AnomalyTrade) float64 {
	totals := make(map[string]float64)
	var grandTotal float64
	for _, t := range trades {
		sector := t.GICSSector
		if sector == "" {
			sector = "unknown"
		}
		totals[sector] += t.Value
		grandTotal += t.Value
	}
	if grandTotal == 0 {
		return 0
	}

	var hhi float64
	for _, total := range totals {
		share := total / grandTotal
		hhi += share * share
	}
	return clamp01(hhi)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
