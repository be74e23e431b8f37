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
	"fmt"
	"github.com/mlnoga/crrej/internal/bitmask"
	"github.com/mlnoga/crrej/internal/noise"
)

// Units of input pixel values
type Units int
const (
	UnitsCounts Units = iota // DN accumulated over the exposure
	UnitsRate                // DN per second
)

func (u Units) String() string {
	if u==UnitsRate { return "rate" }
	return "counts"
}

// Per-image attributes of one input of a rejection run
type Input struct {
	ID       int          // used in log output
	Exposure float32      // exposure time in seconds, <=0 marks the image unusable
	Sky      float32      // sky level in counts, replaced by the estimate unless the sky mode is none
	Units    Units
	Noise    *noise.Model
}

func (in *Input) Usable() bool {
	return in.Exposure>0
}

func (in *Input) String() string {
	return fmt.Sprintf("exposure %gs sky %g units %s noise %v", in.Exposure, in.Sky, in.Units, in.Noise)
}

// Scanline access to a stack of equally sized input images
type Source interface {
	// Width and height of image k
	Size(k int) (width, height int)

	// Reads pixel values and quality flags of one row of image k
	ReadLine(k, row int, pix []float32, dq []uint16) error

	// Replaces the quality flags of one row of image k
	WriteDQLine(k, row int, dq []uint16) error
}

// Products of a rejection run. All images are width*height, row-major
type Result struct {
	RunID      string
	Width      int
	Height     int
	Sci        []float32      // combined signal in DN per second
	Err        []float32      // error of the combined signal
	Exp        []float32      // total exposure time of the surviving inputs
	DQ         []uint16       // combined quality flags
	Rejected   int64          // pixels flagged as cosmic rays, over all images
	PerImage   []int64        // pixels flagged per input
	Sky        []float32      // sky level used per input
	Usable     int            // number of inputs with positive exposure
	Iterations int
	Status     Status
	Mask       *bitmask.Mask  // cosmic ray mask per input
}

// Fraction of usable input pixels which were rejected
func (r *Result) RejectedFraction() float64 {
	total:=int64(r.Usable)*int64(r.Width)*int64(r.Height)
	if total==0 { return 0 }
	return float64(r.Rejected)/float64(total)
}

// Returns the result value at column x and row y
func (r *Result) At(x, y int) (sci, err, exp float32, dq uint16) {
	i:=y*r.Width+x
	return r.Sci[i], r.Err[i], r.Exp[i], r.DQ[i]
}
