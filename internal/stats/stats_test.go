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
	"testing"
	"github.com/valyala/fastrand"
)

// Approximately normal distributed values from the sum of uniform variables
func gaussianSamples(n int, mu, sigma float64, rng *fastrand.RNG) []float64 {
	res:=make([]float64, n)
	for i:=range res {
		sum:=float64(0)
		for j:=0; j<12; j++ { sum+=float64(rng.Uint32n(1<<20))/float64(1<<20) }
		res[i]=mu+(sum-6)*sigma
	}
	return res
}

func TestHistogramPeak(t *testing.T) {
	data:=[]float32{0, 1, 1, 1, 2, 3, 9, 10, 42}
	bins:=make([]int32, 11)
	Histogram(data, 0, 10, bins)
	if bins[1]!=3 { t.Errorf("bins[1]=%d; want 3", bins[1]) }
	if bins[10]!=1 { t.Errorf("bins[10]=%d; want 1", bins[10]) }
	x, y:=GetPeak(bins, 0, 10)
	if x!=1.5 || y!=3 { t.Errorf("peak=(%g,%g); want (1.5,3)", x, y) }
}

func TestModeOfSkewedField(t *testing.T) {
	rng:=fastrand.RNG{}
	samples:=gaussianSamples(20000, 100, 5, &rng)
	// a tail of bright sources pulls the mean but not the mode
	for i:=0; i<1000; i++ { samples=append(samples, 150+float64(i%50)) }

	mean:=Mean(samples)
	mode:=Mode(samples)
	if math.Abs(float64(mode)-100)>3 { t.Errorf("mode=%g; want 100+-3", mode) }
	if mean<102 { t.Errorf("mean=%g; want pulled above 102", mean) }
}

func TestSampleLine(t *testing.T) {
	rng:=fastrand.RNG{}
	line:=[]float32{1, 2, 3, 4}
	dq  :=[]uint16{0, 4, 0, 0}
	s:=SampleLine(nil, line, dq, 4, 10, &rng)
	if len(s)!=3 || s[1]!=3 { t.Errorf("samples=%v; want [1 3 4]", s) }
	s=SampleLine(nil, line, dq, 4, 2, &rng)
	if len(s)>2 { t.Errorf("got %d samples; want at most 2", len(s)) }
	line[3]=float32(math.NaN())
	s=SampleLine(nil, line, dq, 4, 10, &rng)
	if len(s)!=2 || s[0]!=1 || s[1]!=3 { t.Errorf("samples=%v; want [1 3]", s) }
}

func TestMinMaxMean(t *testing.T) {
	min, max, mean:=MinMaxMean([]float32{1, float32(math.NaN()), 3, 5})
	if min!=1 || max!=5 || mean!=3 { t.Errorf("got %g %g %g; want 1 5 3", min, max, mean) }
	if Mean(nil)!=0 || Mode(nil)!=0 { t.Errorf("empty samples not zero") }
}
