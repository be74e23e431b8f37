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
	"github.com/mlnoga/crrej/internal/noise"
	"github.com/mlnoga/crrej/internal/window"
)

// Per-scanline sums over the surviving pixels of all images
type accumulator struct {
	sum      []float64 // sky-subtracted counts
	expSum   []float64 // exposure time
	variance []float64 // read noise^2 plus signal, final iteration only
	dq       []uint16  // combined quality, final iteration only
	good     []bool    // whether a good pixel has contributed to dq
}

func newAccumulator(width int) *accumulator {
	return &accumulator{
		sum:      make([]float64, width),
		expSum:   make([]float64, width),
		variance: make([]float64, width),
		dq:       make([]uint16,  width),
		good:     make([]bool,    width),
	}
}

// Bytes an accumulator of the given width allocates
func accumulatorSizeBytes(width int) int64 {
	return int64(width)*(3*8+2+1)
}

// Clears the sums. The combined quality starts out flagged as cosmic ray
func (a *accumulator) reset(crBit uint16) {
	for i:=range a.sum {
		a.sum[i], a.expSum[i], a.variance[i], a.dq[i], a.good[i] = 0, 0, 0, crBit, false
	}
}

// Adds the center row of an image window and counts its rejected pixels. On
// the final iteration, also accumulates variance and quality, and records the
// per-image quality of the row in im.qual
func (r *run) add(im *image, line int) {
	a, w, crBit:=r.acc, im.win, r.p.CRBit
	c:=w.Radius
	pix, mask, dq:=w.Pix(c), w.Mask(c), w.DQ(c)
	exp:=float64(im.in.Exposure)
	var nl noise.Line
	if r.final { nl=im.in.Noise.ForLine(line) }

	for i, m:=range mask {
		rejected:=m==window.Hit || m==window.Spill
		if rejected { im.rejected++ }
		if r.final {
			q:=dq[i]&^crBit
			if rejected { q|=crBit }
			im.qual[i]=q
		}
		if m!=window.OK { continue }

		counts:=float64(pix[i])*exp
		a.sum[i]   +=counts
		a.expSum[i]+=exp
		if !r.final { continue }

		_, rn2:=nl.At(i)
		level:=counts+float64(im.in.Sky)
		if level<0 { level=0 }
		a.variance[i]+=float64(rn2)+level
		if !a.good[i] {
			a.dq[i]&^=crBit
			a.good[i]=true
		}
		a.dq[i]|=im.qual[i]
	}
}

// Computes the new running average of a scanline from the sums. On the final
// iteration also fills in error, exposure and quality, and the fill value
// where no input survived
func (r *run) finishRow(line int) error {
	a:=r.acc
	offset:=line*r.width
	next:=r.next[offset:offset+r.width]
	shade, err:=r.shade.Line(line)
	if err!=nil { return wrapIO(err, "shading", -1, line) }
	shaded:=r.shade.Enabled()

	for i, e:=range a.expSum {
		if e>0 {
			v:=a.sum[i]/e
			if shaded { v/=1+float64(shade[i])/e }
			next[i]=float32(v)
			if r.final { r.res.Err[offset+i]=float32(math.Sqrt(a.variance[i])/e) }
		} else if r.final {
			next[i]=r.p.Fill
			r.res.Err[offset+i]=r.p.Fill
		} else {
			next[i]=r.avg[offset+i]
		}
		if r.final {
			r.res.Exp[offset+i]=float32(e)
			r.res.DQ [offset+i]=a.dq[i]
		}
	}
	return nil
}
