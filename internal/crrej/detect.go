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
	"github.com/mlnoga/crrej/internal/window"
)

// Runs exclusion, detection and spill propagation on the center row of the
// window of one image. Pixels already marked as spill by an earlier center
// row are not excluded and get tested again. NaN pixels are excluded.
func (r *run) detect(im *image, line int) error {
	w:=im.win
	c:=w.Radius
	mask, dq, pix:=w.Mask(c), w.DQ(c), w.Pix(c)
	for i, q:=range dq {
		if mask[i]==window.Spill { continue }
		if q&r.p.BadBits!=0 || pix[i]!=pix[i] { mask[i]=window.Exclude }
	}

	expected, err:=r.expected(im, line, r.expBuf)
	if err!=nil { return err }
	thresh:=w.Thresh(c)
	for i, v:=range pix {
		if mask[i]==window.Exclude { continue }
		d:=v-expected[i]
		if d*d<=thresh[i] { continue }
		mask[i]=window.Hit
		if r.p.Extent>0 && r.p.Spill {
			if err:=r.propagate(im, line, i); err!=nil { return err }
		}
	}
	return nil
}

// Flags the neighbors of a hit at column x of the center row which exceed the
// spill threshold. Neighbors lie within the propagation disk and inside the
// image. Hits are never downgraded.
func (r *run) propagate(im *image, line, x int) error {
	w:=im.win
	ext:=r.p.Extent
	r2:=r.p.Radius*r.p.Radius
	for j:=0; j<w.Rows(); j++ {
		dj:=j-w.Radius
		row:=line+dj
		if row<0 || row>=r.height { continue }

		x0, x1:=x-ext, x+ext
		if x0<0        { x0=0 }
		if x1>=r.width { x1=r.width-1 }
		expected, err:=r.expected(im, row, r.propBuf)
		if err!=nil { return err }
		pix, spill, mask:=w.Pix(j), w.Spill(j), w.Mask(j)
		for ii:=x0; ii<=x1; ii++ {
			di:=ii-x
			if di==0 && dj==0 { continue }
			if float32(di*di+dj*dj)>r2 { continue }
			if mask[ii]==window.Hit { continue }
			d:=pix[ii]-expected[ii]
			if d*d>r.p.Factor2*spill[ii] { mask[ii]=window.Spill }
		}
	}
	return nil
}

// Returns the running average of one row as seen by an input image, i.e. 
// scaled by the shading factor of its exposure. Without shading correction
// this is the running average itself
func (r *run) expected(im *image, row int, buf []float32) ([]float32, error) {
	avg:=r.avg[row*r.width:(row+1)*r.width]
	if !r.shade.Enabled() { return avg, nil }
	shade, err:=r.shade.Line(row)
	if err!=nil { return nil, wrapIO(err, "shading", im.in.ID, row) }
	exp:=im.in.Exposure
	for i, a:=range avg { buf[i]=a*shading.Factor(shade[i], exp) }
	return buf, nil
}
