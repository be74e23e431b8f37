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

// Converts one raw scanline in place into the working unit: sky-subtracted
// signal per second of exposure. Rate inputs are first scaled to counts.
func (in *Input) normalize(pix []float32) {
	exp, sky:=in.Exposure, in.Sky
	invExp:=1/exp
	if in.Units==UnitsRate {
		for i, v:=range pix { pix[i]=(v*exp-sky)*invExp }
		return
	}
	for i, v:=range pix { pix[i]=(v-sky)*invExp }
}

// Converts one raw scanline in place into counts including the sky
func (in *Input) toCounts(pix []float32) {
	if in.Units!=UnitsRate { return }
	for i, v:=range pix { pix[i]=v*in.Exposure }
}

// Reads one row of image k of src into the given buffers and normalizes the
// pixel values. The quality flags are copied unchanged
func readNormalized(src Source, k int, in *Input, row int, pix []float32, dq []uint16) error {
	if err:=readLine(src, k, in, row, pix, dq); err!=nil { return err }
	in.normalize(pix)
	return nil
}

func readLine(src Source, k int, in *Input, row int, pix []float32, dq []uint16) error {
	if err:=src.ReadLine(k, row, pix, dq); err!=nil { 
		return wrapIO(err, "read", in.ID, row) 
	}
	return nil
}
