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


package shading

import (
	"fmt"
	"testing"
)

type memSource struct {
	width, height int
	data          []float32
	reads         int
}

func (m *memSource) Size() (int, int) { return m.width, m.height }

func (m *memSource) ReadShadingLine(row int, buf []float32) error {
	if row<0 || row>=m.height { return fmt.Errorf("row %d out of range", row) }
	m.reads++
	copy(buf, m.data[row*m.width:(row+1)*m.width])
	return nil
}

func newRamp(width, height int) *memSource {
	m:=&memSource{width: width, height: height, data: make([]float32, width*height)}
	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ { m.data[y*width+x]=float32(y*100+x) }
	}
	return m
}

func TestDisabled(t *testing.T) {
	c, err:=NewCache(nil, 5, 3, 3)
	if err!=nil { t.Fatal(err) }
	if c.Enabled() { t.Errorf("nil reference enabled") }
	line, err:=c.Line(2)
	if err!=nil { t.Fatal(err) }
	for x, v:=range line {
		if f:=Factor(v, 100); f!=1 { t.Errorf("x=%d factor=%g; want exactly 1", x, f) }
	}
}

func TestSameSize(t *testing.T) {
	ref:=newRamp(4, 3)
	c, err:=NewCache(ref, 4, 3, 2)
	if err!=nil { t.Fatal(err) }
	line, _:=c.Line(2)
	if line[3]!=203 { t.Errorf("line[3]=%g; want 203", line[3]) }
	c.Line(2)
	if ref.reads!=1 { t.Errorf("reads=%d; want 1", ref.reads) }
}

func TestBinned(t *testing.T) {
	ref:=newRamp(4, 4)
	c, err:=NewCache(ref, 2, 2, 1)
	if err!=nil { t.Fatal(err) }
	line, _:=c.Line(1)
	// rows 2..3, columns 2..3: (202+203+302+303)/4
	if line[1]!=252.5 { t.Errorf("line[1]=%g; want 252.5", line[1]) }
}

func TestExpanded(t *testing.T) {
	ref:=newRamp(2, 2)
	c, err:=NewCache(ref, 4, 4, 3)
	if err!=nil { t.Fatal(err) }
	line, _:=c.Line(2)
	if line[0]!=100 || line[3]!=101 { t.Errorf("line=%v; want [100 100 101 101]", line) }
	line, _=c.Line(3)
	if line[2]!=101 { t.Errorf("line[2]=%g; want 101", line[2]) }
	if ref.reads!=1 { t.Errorf("reads=%d; want 1", ref.reads) }
}

func TestMismatch(t *testing.T) {
	if _, err:=NewCache(newRamp(3, 3), 4, 3, 1); err==nil { t.Errorf("3 columns expanded to 4 accepted") }
}

func TestFactor(t *testing.T) {
	if f:=Factor(10, 100); f<1.0999 || f>1.1001 { t.Errorf("factor=%g; want 1.1", f) }
}
