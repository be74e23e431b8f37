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

import (
	"testing"
)

func TestRowBitOrder(t *testing.T) {
	r:=NewRow(13)
	if len(r)!=2 { t.Fatalf("len=%d; want %d", len(r), 2) }
	r.Set(0)
	if r[0]!=0x80 { t.Errorf("byte0=%#x; want %#x", r[0], 0x80) }
	r.Set(7)
	if r[0]!=0x81 { t.Errorf("byte0=%#x; want %#x", r[0], 0x81) }
	r.Set(12)
	if r[1]!=0x08 { t.Errorf("byte1=%#x; want %#x", r[1], 0x08) }
	if !r.Test(12) || r.Test(11) { t.Errorf("test bits 11/12 wrong: %v %v", r.Test(11), r.Test(12)) }
	r.Clear(7)
	if r[0]!=0x80 { t.Errorf("byte0=%#x; want %#x", r[0], 0x80) }
	if r.Count()!=2 { t.Errorf("count=%d; want %d", r.Count(), 2) }
}

func TestMaskRoundTrip(t *testing.T) {
	const crBit=uint16(8192)
	for _, width:=range []int{1, 7, 8, 9, 13, 17, 31} {
		height:=11
		m:=NewMask(2, width, height)
		want:=map[[3]int]bool{}

		dq:=make([]uint16, width)
		for y:=0; y<height; y++ {
			for k:=0; k<2; k++ {
				for x:=0; x<width; x++ {
					dq[x]=uint16(x&3)
					if (x*7+y*3+k)%5==0 {
						dq[x]|=crBit
						want[[3]int{k,x,y}]=true
					}
				}
				m.EncodeLine(k, y, dq, crBit)
			}
		}

		got:=map[[3]int]bool{}
		for k:=0; k<2; k++ {
			for y:=0; y<height; y++ {
				for x:=0; x<width; x++ { dq[x]=uint16(x&3) }
				m.DecodeLine(k, y, dq, crBit)
				for x:=0; x<width; x++ {
					if dq[x]&crBit!=0 { got[[3]int{k,x,y}]=true }
					if dq[x]&^crBit!=uint16(x&3) { t.Errorf("width %d: other bits changed at %d,%d: %#x", width, x, y, dq[x]) }
				}
			}
		}
		if len(got)!=len(want) { t.Errorf("width %d: decoded %d flags; want %d", width, len(got), len(want)) }
		for c:=range want {
			if !got[c] { t.Errorf("width %d: missing flag at image %d x %d y %d", width, c[0], c[1], c[2]) }
		}
		if m.Count(0)+m.Count(1)!=len(want) { t.Errorf("width %d: count=%d; want %d", width, m.Count(0)+m.Count(1), len(want)) }
	}
}

func TestEncodeClearsStaleBits(t *testing.T) {
	m:=NewMask(1, 10, 1)
	dq:=make([]uint16, 10)
	dq[9]=1
	m.EncodeLine(0, 0, dq, 1)
	dq[9]=0
	m.EncodeLine(0, 0, dq, 1)
	if m.Count(0)!=0 { t.Errorf("count=%d; want 0", m.Count(0)) }
}

func TestSizeBytes(t *testing.T) {
	if s:=SizeBytes(3, 4097, 2048); s!=3*2048*513 { t.Errorf("size=%d; want %d", s, 3*2048*513) }
}
