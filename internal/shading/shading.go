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


// Package shading provides per-scanline shutter shading corrections. The
// reference image holds, per pixel, the extra effective exposure time in seconds
// caused by the shutter. The cache bins or expands the reference to the size
// of the science image and keeps a few recently used scanlines.
package shading

import (
	"fmt"
)

// Supplies scanlines of a shading reference image
type Source interface {
	Size() (width, height int)
	ReadShadingLine(row int, buf []float32) error
}

// Scanline cache over a shading reference, sized for a science image
type Cache struct {
	width, height int       // science image size
	ref           Source    // nil for a disabled cache
	binX, binY    int       // reference pixels per science pixel, if binning
	expX, expY    int       // science pixels per reference pixel, if expanding
	refBuf        []float32 // one reference scanline
	rows          []int     // science row held by each slot, -1 if empty
	lines         [][]float32
	zero          []float32
}

// Creates a cache holding up to depth science scanlines. A nil reference
// yields a disabled cache whose correction factors are exactly 1
func NewCache(ref Source, width, height, depth int) (*Cache, error) {
	if depth<1 { depth=1 }
	c:=&Cache{width: width, height: height, binX: 1, binY: 1, expX: 1, expY: 1, zero: make([]float32, width)}
	if ref==nil { return c, nil }

	rw, rh:=ref.Size()
	var err error
	if c.binX, c.expX, err=ratio(rw, width); err!=nil { return nil, fmt.Errorf("shading reference width: %s", err.Error()) }
	if c.binY, c.expY, err=ratio(rh, height); err!=nil { return nil, fmt.Errorf("shading reference height: %s", err.Error()) }

	c.ref=ref
	c.refBuf=make([]float32, rw)
	c.rows  =make([]int, depth)
	c.lines =make([][]float32, depth)
	for i:=range c.lines {
		c.rows[i]=-1
		c.lines[i]=make([]float32, width)
	}
	return c, nil
}

// Returns binning and expansion factors mapping a reference axis to a science axis
func ratio(ref, sci int) (bin, exp int, err error) {
	switch {
	case ref<=0 || sci<=0:
		return 0, 0, fmt.Errorf("invalid sizes %d and %d", ref, sci)
	case ref==sci:
		return 1, 1, nil
	case ref>sci && ref%sci==0:
		return ref/sci, 1, nil
	case ref<sci && sci%ref==0:
		return 1, sci/ref, nil
	}
	return 0, 0, fmt.Errorf("%d is not an integer multiple or fraction of %d", ref, sci)
}

func (c *Cache) Enabled() bool {
	return c.ref!=nil
}

// Returns the shading times in seconds for science scanline row. All zeros if
// the cache is disabled. The slice is owned by the cache and valid until the
// slot is reused
func (c *Cache) Line(row int) ([]float32, error) {
	if c.ref==nil { return c.zero, nil }
	slot:=row%len(c.rows)
	if c.rows[slot]==row { return c.lines[slot], nil }

	line:=c.lines[slot]
	refRow, numRows:=row*c.binY, c.binY
	if c.expY>1 {
		// several science rows share one reference row, check for a cached neighbor
		refRow, numRows=row/c.expY, 1
		for s, r:=range c.rows {
			if r>=0 && r/c.expY==refRow {
				copy(line, c.lines[s])
				c.rows[slot]=row
				return line, nil
			}
		}
	}

	for i:=range line { line[i]=0 }
	for dy:=0; dy<numRows; dy++ {
		if err:=c.ref.ReadShadingLine(refRow+dy, c.refBuf); err!=nil { return nil, err }
		c.accumulate(line)
	}
	if norm:=numRows*c.binX; norm>1 {
		scale:=1/float32(norm)
		for i:=range line { line[i]*=scale }
	}
	c.rows[slot]=row
	return line, nil
}

// Adds the reference buffer into line, summing binned columns or replicating
// expanded ones
func (c *Cache) accumulate(line []float32) {
	switch {
	case c.binX>1:
		for x:=range line {
			for dx:=0; dx<c.binX; dx++ { line[x]+=c.refBuf[x*c.binX+dx] }
		}
	case c.expX>1:
		for x:=range line { line[x]+=c.refBuf[x/c.expX] }
	default:
		for x, v:=range c.refBuf { line[x]+=v }
	}
}

// Multiplicative correction for one pixel of an image with the given exposure
// time. Exactly 1 when shading correction is disabled
func Factor(shade float32, exposure float32) float32 {
	if shade==0 { return 1 }
	return 1 + shade/exposure
}
