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


package fits

import (
	"fmt"
	"io"
	"github.com/mlnoga/crrej/internal/crrej"
)

// A stack of image sets held in memory, providing scanline access for
// cosmic ray rejection. Images whose quality flags were written are marked
// dirty until saved
type Stack struct {
	Images []*Image
	dirty  []bool
}

func NewStack(images []*Image) *Stack {
	return &Stack{Images: images, dirty: make([]bool, len(images))}
}

func (s *Stack) Size(k int) (width, height int) {
	return s.Images[k].Width, s.Images[k].Height
}

// Copies one row of science values and quality flags of image k. Images
// without a quality array read as all good
func (s *Stack) ReadLine(k, row int, pix []float32, dq []uint16) error {
	f:=s.Images[k]
	if row<0 || row>=f.Height { return fmt.Errorf("%d: row %d out of range", f.ID, row) }
	o:=row*f.Width
	copy(pix, f.Data[o:o+f.Width])
	if f.DQ==nil {
		for i:=range dq[:f.Width] { dq[i]=0 }
	} else {
		copy(dq, f.DQ[o:o+f.Width])
	}
	return nil
}

// Replaces one row of quality flags of image k, creating the quality array
// if needed
func (s *Stack) WriteDQLine(k, row int, dq []uint16) error {
	f:=s.Images[k]
	if row<0 || row>=f.Height { return fmt.Errorf("%d: row %d out of range", f.ID, row) }
	if f.DQ==nil { f.DQ=make([]uint16, f.Width*f.Height) }
	copy(f.DQ[row*f.Width:(row+1)*f.Width], dq)
	s.dirty[k]=true
	return nil
}

// Describes all images as inputs for cosmic ray rejection
func (s *Stack) Inputs() ([]*crrej.Input, error) {
	ins:=make([]*crrej.Input, len(s.Images))
	for k, f:=range s.Images {
		in, err:=f.Input()
		if err!=nil { return nil, err }
		ins[k]=in
	}
	return ins, nil
}

// Writes all images with updated quality flags back to their files
func (s *Stack) SaveDirty(logWriter io.Writer) error {
	for k, f:=range s.Images {
		if !s.dirty[k] { continue }
		if f.FileName=="" { return fmt.Errorf("%d: no file name to write back to", f.ID) }
		fmt.Fprintf(logWriter, "%d: writing quality flags back to %s\n", f.ID, f.FileName)
		if err:=f.WriteFile(f.FileName); err!=nil { return fmt.Errorf("%d: %s", f.ID, err.Error()) }
		s.dirty[k]=false
	}
	return nil
}
