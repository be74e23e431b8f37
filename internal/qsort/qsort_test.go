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


package qsort

import (
	"math"
	"testing"
	"github.com/valyala/fastrand"
)

// Random permutation of 1..n
func permutation(rng *fastrand.RNG, n int) []float32 {
	arr:=make([]float32, n)
	for j:=0; j<len(arr); j++ {
		arr[j]=float32(j+1)
	}
	for j:=0; j<len(arr); j++ {
		k:=rng.Uint32n(uint32(len(arr)))
		arr[j], arr[k] = arr[k], arr[j]
	}
	return arr
}

func TestMedian(t *testing.T) {
	rng:=fastrand.RNG{}
	for i:=1; i<300; i++ {
		arr:=permutation(&rng, i)

		var expect float32
		if (i&1)!=0 {
			expect=float32((i+1)/2)
		} else {
			expect=0.5*(float32(i/2) + float32(i/2+1))
		}

		res:=QSelectMedianFloat32(arr)
		if res!=expect {
			t.Errorf("median(1..%d)=%f; want %f", i, res, expect)
		}
	}
}

func TestMedianWithTies(t *testing.T) {
	arr:=[]float32{3, 1, 3, 3, 2, 3}
	if m:=QSelectMedianFloat32(arr); m!=3 { t.Errorf("median=%f; want 3", m) }
	arr=[]float32{10, 10}
	if m:=QSelectMedianFloat32(arr); m!=10 { t.Errorf("median=%f; want 10", m) }
	if m:=QSelectMedianFloat32(nil); m!=0 { t.Errorf("median of empty=%f; want 0", m) }
}

func TestMin(t *testing.T) {
	rng:=fastrand.RNG{}
	arr:=permutation(&rng, 57)
	min, index:=MinFloat32(arr)
	if min!=1 || arr[index]!=1 { t.Errorf("min=%f at %d; want 1", min, index) }
	if _, index=MinFloat32(nil); index!=-1 { t.Errorf("index of empty=%d; want -1", index) }
}

func TestMinSkipsNaN(t *testing.T) {
	nan:=float32(math.NaN())
	min, index:=MinFloat32([]float32{nan, 4, nan, 2, 7})
	if min!=2 || index!=3 { t.Errorf("min=%f at %d; want 2 at 3", min, index) }
	if _, index=MinFloat32([]float32{nan, nan}); index!=-1 { t.Errorf("index of all NaN=%d; want -1", index) }
}
