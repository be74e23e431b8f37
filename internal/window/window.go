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


// Package window implements the scrolling scanline buffers of one input image.
// A window holds 2*radius+1 rows of normalized pixel values, quality flags,
// detection flags and the two rejection thresholds. Row Radius always maps to
// the scanline currently being finalized. All channels live in flat arenas
// addressed through one ring index, so advancing by a row never copies data.
package window

// Detection state of one pixel
type Flag uint8
const (
	OK Flag = iota // good pixel
	Exclude        // bad a priori, or flagged by quality bits
	Hit            // exceeds the core threshold
	Spill          // exceeds the spill threshold near a hit
)

func (f Flag) String() string {
	switch f {
	case OK:      return "ok"
	case Exclude: return "exclude"
	case Hit:     return "hit"
	case Spill:   return "spill"
	}
	return "invalid"
}

// Populates one window row with data for an absolute image row. thresh and
// spill are computed from the freshly loaded pixels
type Filler interface {
	FillRow(row int, pix []float32, dq []uint16, thresh, spill []float32) error
}

type Window struct {
	Radius int // rows above and below the center row
	Width  int
	rows   int
	head   int // arena slot of window row 0
	line   int // absolute image row of the center row

	pix    []float32
	thresh []float32
	spill  []float32
	dq     []uint16
	mask   []Flag
}

// Bytes a window of the given geometry allocates
func SizeBytes(radius, width int) int64 {
	return int64(2*radius+1) * int64(width) * (3*4 + 2 + 1)
}

func New(radius, width int) *Window {
	rows:=2*radius+1
	n:=rows*width
	return &Window{
		Radius: radius,
		Width:  width,
		rows:   rows,
		pix:    make([]float32, n),
		thresh: make([]float32, n),
		spill:  make([]float32, n),
		dq:     make([]uint16, n),
		mask:   make([]Flag, n),
	}
}

// Number of rows in the window
func (w *Window) Rows() int {
	return w.rows
}

// Absolute image row of the center row
func (w *Window) Line() int {
	return w.line
}

// Absolute image row held by window row j. May be outside the image
func (w *Window) RowOf(j int) int {
	return w.line-w.Radius+j
}

func (w *Window) offset(j int) int {
	slot:=w.head+j
	if slot>=w.rows { slot-=w.rows }
	return slot*w.Width
}

func (w *Window) Pix(j int) []float32 {
	o:=w.offset(j)
	return w.pix[o:o+w.Width]
}

func (w *Window) Thresh(j int) []float32 {
	o:=w.offset(j)
	return w.thresh[o:o+w.Width]
}

func (w *Window) Spill(j int) []float32 {
	o:=w.offset(j)
	return w.spill[o:o+w.Width]
}

func (w *Window) DQ(j int) []uint16 {
	o:=w.offset(j)
	return w.dq[o:o+w.Width]
}

func (w *Window) Mask(j int) []Flag {
	o:=w.offset(j)
	return w.mask[o:o+w.Width]
}

// Resets window row j to the zero sentinel: value 0, quality 0, flag OK
func (w *Window) clearRow(j int) {
	o:=w.offset(j)
	for i:=o; i<o+w.Width; i++ {
		w.pix[i], w.thresh[i], w.spill[i], w.dq[i], w.mask[i] = 0, 0, 0, 0, OK
	}
}

func (w *Window) fillRow(j, height int, f Filler) error {
	w.clearRow(j)
	row:=w.RowOf(j)
	if row<0 || row>=height { return nil }
	o:=w.offset(j)
	e:=o+w.Width
	return f.FillRow(row, w.pix[o:e], w.dq[o:e], w.thresh[o:e], w.spill[o:e])
}

// Positions the window on line 0 of an image with the given height. Rows above
// the image hold the zero sentinel, rows 0..Radius of the image are loaded
func (w *Window) Init(height int, f Filler) error {
	w.head, w.line=0, 0
	for j:=0; j<w.Radius; j++ { w.clearRow(j) }
	for j:=w.Radius; j<w.rows; j++ {
		if err:=w.fillRow(j, height, f); err!=nil { return err }
	}
	return nil
}

// Advances the window to the given line, which must be one after the current.
// The oldest row is dropped and row line+Radius is loaded, or set to the zero
// sentinel past the bottom of the image
func (w *Window) Advance(line, height int, f Filler) error {
	w.head++
	if w.head>=w.rows { w.head=0 }
	w.line=line
	return w.fillRow(w.rows-1, height, f)
}
