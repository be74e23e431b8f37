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


package bitmask

// Bit-packed cosmic ray mask for a stack of images. Holds one plane per image,
// covering every row of the image for the lifetime of a rejection run.
type Mask struct {
	Width  int
	Height int
	planes []*Plane
}

// Number of bytes a mask for the given stack occupies
func SizeBytes(images, width, height int) int64 {
	return int64(images)*int64(height)*int64(BytesPerRow(width))
}

func NewMask(images, width, height int) *Mask {
	m:=&Mask{Width: width, Height: height, planes: make([]*Plane, images)}
	for i:=range m.planes { m.planes[i]=NewPlane(width, height) }
	return m
}

// Number of images covered by the mask
func (m *Mask) Images() int { return len(m.planes) }

// Returns the bit plane of image k
func (m *Mask) Plane(k int) *Plane { return m.planes[k] }

// Encodes one scanline of image k. Sets the bit for every column whose quality
// value carries crBit, and clears it for all others
func (m *Mask) EncodeLine(k, y int, dq []uint16, crBit uint16) {
	row:=m.planes[k].Row(y)
	row.Reset()
	for x:=0; x<m.Width; x++ {
		if dq[x]&crBit!=0 { row.Set(x) }
	}
}

// Decodes one scanline of image k, OR-ing crBit into the quality values of all
// flagged columns. Unflagged columns are left untouched
func (m *Mask) DecodeLine(k, y int, dq []uint16, crBit uint16) {
	row:=m.planes[k].Row(y)
	for i, b:=range row {
		if b==0 { continue }
		x0:=i<<3
		for bit:=0; bit<8 && x0+bit<m.Width; bit++ {
			if b&(0x80>>uint(bit))!=0 { dq[x0+bit]|=crBit }
		}
	}
}

// Returns the number of flagged pixels of image k
func (m *Mask) Count(k int) int { return m.planes[k].Count() }
