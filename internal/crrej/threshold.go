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
	"github.com/mlnoga/crrej/internal/shading"
)

// Computes core and spill thresholds for one row of an input image, on the
// squared deviation from the running average in normalized units.
//
// On the first iteration of a minimum-guess run both thresholds are sigma^2
// times the variance of the guess. Otherwise the expected level is rebuilt
// from the running average, scaled by the shading factor and with the sky
// restored, and fed through the amplifier noise model. The spill threshold
// omits the multiplicative noise term.
func (r *run) thresholds(im *image, row int, thresh, spill []float32) error {
	sig2:=r.sigma*r.sigma
	offset:=row*r.width
	if r.minimum {
		variance:=r.variance[offset:offset+r.width]
		for i, v:=range variance {
			t:=sig2*v
			thresh[i], spill[i]=t, t
		}
		return nil
	}

	shade, err:=r.shade.Line(row)
	if err!=nil { return wrapIO(err, "shading", im.in.ID, row) }
	avg:=r.avg[offset:offset+r.width]
	nl:=im.in.Noise.ForLine(row)
	exp, sky, scale:=im.in.Exposure, im.in.Sky, r.p.Scale
	scaleExp2:=sig2/(exp*exp)

	for i, a:=range avg {
		gain, rn2:=nl.At(i)
		signal:=a*exp*shading.Factor(shade[i], exp)
		level:=signal+sky
		if level<0  { level=0 }
		if signal<0 { signal=0 }
		base:=rn2+level/gain
		mult:=scale*signal
		thresh[i]=scaleExp2*(base+mult*mult)
		spill[i] =scaleExp2*base
	}
	return nil
}

// Noise-model variance of one normalized value from an input, used for the
// minimum guess. shade is the shading time at the pixel
func guessVariance(in *Input, gain, rn2, value, shade float32) float32 {
	exp:=in.Exposure
	level:=value*exp*shading.Factor(shade, exp)+in.Sky
	if level<0 { level=0 }
	return (rn2+level/gain)/(exp*exp)
}
