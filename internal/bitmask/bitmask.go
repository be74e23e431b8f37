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


// Package bitmask stores one bit per pixel, most significant bit first within
// each byte, for whole images and image stacks.
package bitmask

import (
	"math/bits"
)

// A fixed-width row of bits. Bit x lives in byte x/8 under mask 0x80>>(x%8)
type Row []byte

// Number of bytes needed to hold a row of the given width
func BytesPerRow(width int) int {
	return (width+7)>>3
}

// Creates a cleared row for the given number of bits
func NewRow(width int) Row {
	return make(Row, BytesPerRow(width))
}

func (r Row) Set(x int)        { r[x>>3]|= 0x80>>uint(x&7) }
func (r Row) Clear(x int)      { r[x>>3]&^=0x80>>uint(x&7) }
func (r Row) Test(x int) bool  { return r[x>>3]&(0x80>>uint(x&7))!=0 }

// Clears all bits in the row
func (r Row) Reset() {
	for i:=range r { r[i]=0 }
}

// Returns the number of set bits in the row
func (r Row) Count() (n int) {
	for _, b:=range r { n+=bits.OnesCount8(b) }
	return n
}

// A two-dimensional bit plane of height rows with BytesPerRow(width) bytes each
type Plane struct {
	Width  int
	Height int
	stride int
	data   []byte
}

func NewPlane(width, height int) *Plane {
	stride:=BytesPerRow(width)
	return &Plane{Width: width, Height: height, stride: stride, data: make([]byte, stride*height)}
}

// Returns row y of the plane. The row aliases the plane storage
func (p *Plane) Row(y int) Row {
	return Row(p.data[y*p.stride:(y+1)*p.stride])
}

func (p *Plane) Set(x, y int)       { p.Row(y).Set(x) }
func (p *Plane) Test(x, y int) bool { return p.Row(y).Test(x) }

// Returns the number of set bits in the plane
func (p *Plane) Count() int { return Row(p.data).Count() }

// Clears the whole plane
func (p *Plane) Reset() { Row(p.data).Reset() }
