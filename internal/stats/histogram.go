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


package stats

import (
	"math"
	"gonum.org/v1/gonum/optimize"
)

// Calculate histogram of data between min and max into given bins.
// Values outside [min, max] are ignored
func Histogram(data []float32, min, max float32, bins []int32) {
	for i := range bins {
		bins[i] = 0
	}
	if max<=min { 
		bins[0]=int32(len(data))
		return 
	}
	scale := float32(len(bins)-1) / (max - min)
	for _, d := range data {
		if !(d>=min && d<=max) { continue }
		bins[int((d-min)*scale)]++
	}
}

// Returns the center and the height of the highest histogram bin
func GetPeak(bins []int32, min, max float32) (x, y float32) {
	maxIndex, maxValue := -1, int32(math.MinInt32)
	for i, v := range bins {
		if v > maxValue {
			maxIndex, maxValue = i, v
		}
	}
	x = min + (float32(maxIndex)+0.5)*(max-min)/float32(len(bins)-1)
	return x, float32(maxValue)
}

// Refines the histogram peak by fitting a normal distribution to the bins.
// Falls back to the plain peak if the fit fails or leaves the histogram range
func GetModeFromHistogram(bins []int32, min, max float32) (mode float32) {
	peak, peakVal := GetPeak(bins, min, max)
	if max<=min || len(bins)<4 { return peak }
	binWidth := (max-min)/float32(len(bins)-1)

	// initial guess for the width: half width at half maximum of the peak
	halfWidth := float32(1)
	for i, v := range bins {
		if float32(v) >= peakVal/2 {
			w := float32(math.Abs(float64(min + (float32(i)+0.5)*binWidth - peak)))
			if w > halfWidth*binWidth { halfWidth = w/binWidth }
		}
	}

	x0 := []float64{float64(peakVal), float64(peak), float64(halfWidth*binWidth/1.1774)}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, mu, sigma := x[0], x[1], x[2]
			if sigma <= 0 { return math.Inf(1) }
			sumSqDiff := float64(0)
			for i, y := range bins {
				xc := float64(min + (float32(i)+0.5)*binWidth)
				xmusig := (xc - mu) / sigma
				diff := float64(y) - alpha*math.Exp(-0.5*xmusig*xmusig)
				sumSqDiff += diff * diff
			}
			return sumSqDiff / float64(len(bins))
		},
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil || math.IsNaN(result.X[1]) || result.X[1] < float64(min) || result.X[1] > float64(max) {
		return peak
	}
	return float32(result.X[1])
}
