// Copyright 2024 the Session Publisher authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package clustering

import "math"

const (
	// gridPoints is the resolution at which the density estimate is sampled
	// across the session window.
	gridPoints = 512

	// valleyDepthRatio qualifies a local minimum as a split point: its density
	// must be below this fraction of the smaller of the two neighboring peaks.
	valleyDepthRatio = 0.85
)

// densityValleys fits a Gaussian kernel density estimate over the sorted
// sample times and returns the positions of qualifying valleys, ascending.
// Returns nil when the timeline is uniformly dense or degenerate.
func densityValleys(times []float64, sensitivity float64) []float64 {
	lo, hi := times[0], times[len(times)-1]
	if hi <= lo {
		return nil
	}

	bw := silvermanBandwidth(times) / sensitivity
	if bw <= 0 {
		return nil
	}

	step := (hi - lo) / float64(gridPoints-1)
	density := make([]float64, gridPoints)
	for i := 0; i < gridPoints; i++ {
		g := lo + float64(i)*step
		var sum float64
		for _, t := range times {
			z := (g - t) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		density[i] = sum
	}

	var splits []float64
	for _, idx := range localMinima(density) {
		left := peakBefore(density, idx)
		right := peakAfter(density, idx)
		limit := math.Min(left, right) * valleyDepthRatio
		if density[idx] < limit {
			splits = append(splits, lo+float64(idx)*step)
		}
	}
	return splits
}

// silvermanBandwidth is Silverman's rule-of-thumb kernel bandwidth,
// 1.06 * stddev * n^(-1/5).
func silvermanBandwidth(times []float64) float64 {
	n := float64(len(times))

	var mean float64
	for _, t := range times {
		mean += t
	}
	mean /= n

	var variance float64
	for _, t := range times {
		d := t - mean
		variance += d * d
	}
	variance /= n

	return 1.06 * math.Sqrt(variance) * math.Pow(n, -0.2)
}

// localMinima returns the indexes of strict interior minima. Flat valley
// floors report their first index.
func localMinima(density []float64) []int {
	var minima []int
	for i := 1; i < len(density)-1; i++ {
		if density[i] >= density[i-1] {
			continue
		}
		// Skip forward over a flat floor.
		j := i
		for j < len(density)-1 && density[j+1] == density[j] {
			j++
		}
		if j < len(density)-1 && density[j+1] > density[j] {
			minima = append(minima, i)
		}
		i = j
	}
	return minima
}

// peakBefore returns the highest density between the start of the grid and
// idx.
func peakBefore(density []float64, idx int) float64 {
	peak := density[0]
	for i := 1; i < idx; i++ {
		if density[i] > peak {
			peak = density[i]
		}
	}
	return peak
}

// peakAfter returns the highest density between idx and the end of the grid.
func peakAfter(density []float64, idx int) float64 {
	peak := density[len(density)-1]
	for i := idx + 1; i < len(density)-1; i++ {
		if density[i] > peak {
			peak = density[i]
		}
	}
	return peak
}
