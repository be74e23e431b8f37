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
	"fmt"
	"github.com/valyala/fastrand"
	"github.com/mlnoga/crrej/internal/stats"
)

// Target number of pixel samples per image for sky estimation
const skySamples=100000

// Estimates the sky level in counts of each usable input from a sample of its
// good pixels, unless the sky mode is none
func (r *run) estimateSky() error {
	if r.p.Sky==SkyNone {
		for _, im:=range r.images { r.res.Sky[im.k]=im.in.Sky }
		return nil
	}

	perLine:=skySamples/r.height
	if perLine<16 { perLine=16 }
	pix, dq:=make([]float32, r.width), make([]uint16, r.width)
	samples:=make([]float64, 0, perLine*r.height)
	var rng fastrand.RNG
	rng.Seed(uint32(r.height*r.width+1))

	for _, im:=range r.images {
		samples=samples[:0]
		for row:=0; row<r.height; row++ {
			if err:=readLine(r.src, im.k, im.in, row, pix, dq); err!=nil { return err }
			im.in.toCounts(pix)
			samples=stats.SampleLine(samples, pix, dq, r.p.BadBits, perLine, &rng)
		}
		switch r.p.Sky {
		case SkyModal: im.in.Sky=stats.Mode(samples)
		case SkyMean:  im.in.Sky=stats.Mean(samples)
		}
		r.res.Sky[im.k]=im.in.Sky
		fmt.Fprintf(r.c.Log, "%d: sky %s %.4g from %d samples\n", im.in.ID, r.p.Sky, im.in.Sky, len(samples))
	}
	return nil
}
