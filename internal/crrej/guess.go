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


package crrej

import (
	"math"
	"github.com/mlnoga/crrej/internal/qsort"
	"github.com/mlnoga/crrej/internal/noise"
	"github.com/mlnoga/crrej/internal/shading"
)

// Builds the comparison image for the first iteration from the per-pixel
// median or minimum of the good normalized input values, corrected for
// shading. Where no input is good, all inputs are used. NaN values are never
// used, and a pixel which is NaN in every input starts at 0. For the minimum,
// also stores the noise-model variance of the selected value.
func (r *run) initialGuess() error {
	n:=len(r.images)
	pix, dq:=make([][]float32, n), make([][]uint16, n)
	for k:=range r.images {
		pix[k], dq[k]=make([]float32, r.width), make([]uint16, r.width)
	}
	vals, owners:=make([]float32, 0, n), make([]int, 0, n)
	lines:=make([]noise.Line, n)
	minimum:=r.p.Guess==GuessMinimum

	for row:=0; row<r.height; row++ {
		for k, im:=range r.images {
			if err:=readNormalized(r.src, im.k, im.in, row, pix[k], dq[k]); err!=nil { return err }
			if minimum { lines[k]=im.in.Noise.ForLine(row) }
		}
		shade, err:=r.shade.Line(row)
		if err!=nil { return wrapIO(err, "shading", -1, row) }

		offset:=row*r.width
		for i:=0; i<r.width; i++ {
			vals, owners=vals[:0], owners[:0]
			for pass:=0; pass<2 && len(vals)==0; pass++ {
				for k, im:=range r.images {
					if pass==0 && dq[k][i]&r.p.BadBits!=0 { continue }
					if math.IsNaN(float64(pix[k][i])) { continue }
					vals  =append(vals, pix[k][i]/shading.Factor(shade[i], im.in.Exposure))
					owners=append(owners, k)
				}
			}

			switch r.p.Guess {
			case GuessMedian:
				r.avg[offset+i]=qsort.QSelectMedianFloat32(vals)
			case GuessMinimum:
				v, idx:=qsort.MinFloat32(vals)
				k:=0
				if idx>=0 { k=owners[idx] }
				gain, rn2:=lines[k].At(i)
				r.avg[offset+i]=v
				r.variance[offset+i]=guessVariance(r.images[k].in, gain, rn2, v, shade[i])
			}
		}
	}
	return nil
}
