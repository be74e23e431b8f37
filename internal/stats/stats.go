// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


// Package stats estimates background levels of detector images
package stats

import (
	"math"
	"sort"
	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Appends up to n randomly chosen values of line, skipping NaNs and pixels
// whose quality intersects bad, and returns the extended samples
func SampleLine(samples []float64, line []float32, dq []uint16, bad uint16, n int, rng *fastrand.RNG) []float64 {
	if n>=len(line) {
		for i, v:=range line {
			if dq[i]&bad==0 && v==v { samples=append(samples, float64(v)) }
		}
		return samples
	}
	for s:=0; s<n; s++ {
		i:=int(rng.Uint32n(uint32(len(line))))
		if v:=line[i]; dq[i]&bad==0 && v==v { samples=append(samples, float64(v)) }
	}
	return samples
}

// Mean of the samples, or 0 if there are none
func Mean(samples []float64) float32 {
	if len(samples)==0 { return 0 }
	return float32(stat.Mean(samples, nil))
}

// Mode of the samples from a histogram between the 1% and 99% quantiles,
// or 0 if there are none. Sorts the samples in place
func Mode(samples []float64) float32 {
	if len(samples)==0 { return 0 }
	sort.Float64s(samples)
	lo:=stat.Quantile(0.01, stat.Empirical, samples, nil)
	hi:=stat.Quantile(0.99, stat.Empirical, samples, nil)
	if hi<=lo { return float32(lo) }

	numBins:=int(math.Sqrt(float64(len(samples))))
	if numBins<8    { numBins=8 }
	if numBins>1024 { numBins=1024 }
	data:=make([]float32, 0, len(samples))
	for _, v:=range samples { data=append(data, float32(v)) }
	bins:=make([]int32, numBins)
	Histogram(data, float32(lo), float32(hi), bins)
	return GetModeFromHistogram(bins, float32(lo), float32(hi))
}

// Minimum, maximum and mean of float32 data, ignoring NaNs
func MinMaxMean(data []float32) (min, max, mean float32) {
	vals:=make([]float64, 0, len(data))
	for _, v:=range data {
		if !math.IsNaN(float64(v)) { vals=append(vals, float64(v)) }
	}
	if len(vals)==0 { return 0, 0, 0 }
	return float32(floats.Min(vals)), float32(floats.Max(vals)), float32(stat.Mean(vals, nil))
}
