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


// Package fits reads and writes detector image sets. An image set holds the
// science array together with optional error and data quality arrays, stored
// in extensions named SCI, ERR and DQ as written by common calibration
// pipelines. A file without named extensions holds the science array in the
// primary HDU.
package fits

import (
	"fmt"
	"strings"
	"github.com/astrogo/fitsio"
	"github.com/mlnoga/crrej/internal/crrej"
	"github.com/mlnoga/crrej/internal/noise"
)

// Extension names
const (
	ExtSci = "SCI"
	ExtErr = "ERR"
	ExtDQ  = "DQ"
	ExtExp = "EXP"
)

// A FITS image set.
// Spec here:   https://fits.gsfc.nasa.gov/standard40/fits_standard40aa-le.pdf
// Primer here: https://fits.gsfc.nasa.gov/fits_primer.html
type Image struct {
	ID        int         // Sequential ID number, for log output
	FileName  string      // Original file name, if any, for log output

	Width     int
	Height    int
	Data      []float32   // science array
	Err       []float32   // error array, nil if absent
	DQ        []uint16    // data quality array, nil if absent
	Exp       []float32   // per-pixel exposure time, nil if absent

	Exposure  float32     // EXPTIME in seconds
	Sky       float32     // MDRIZSKY in counts
	Bunit     string      // BUNIT, e.g. COUNTS or ELECTRONS/S
	CCDAmp    string      // amplifiers used for readout, e.g. ABCD
	Gain      [4]float32  // ATODGNA..ATODGND in e-/DN
	ReadNoise [4]float32  // READNSEA..READNSED in DN
	AmpX      int         // first column of the right hand amplifiers
	AmpY      int         // first row of the upper amplifiers

	primary   []fitsio.Card            // cards of a data-less primary HDU, nil if the science array is primary
	cards     map[string][]fitsio.Card // other cards per extension
}

// Creates an empty image set of the given size with a science array
func NewImage(id, width, height int) *Image {
	return &Image{
		ID:     id,
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
		Gain:   [4]float32{1, 1, 1, 1},
		cards:  map[string][]fitsio.Card{},
	}
}

func (f *Image) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Whether pixel values are count rates, judging from BUNIT
func (f *Image) IsRate() bool {
	return strings.HasSuffix(strings.ToUpper(strings.TrimSpace(f.Bunit)), "/S")
}

// Builds the amplifier noise model from the header values. Without CCDAMP,
// amplifier A applies to the whole detector
func (f *Image) NoiseModel() (*noise.Model, error) {
	if strings.TrimSpace(f.CCDAmp)=="" {
		if f.Gain[0]<=0 { return nil, fmt.Errorf("%d: non-positive gain %g", f.ID, f.Gain[0]) }
		return noise.NewUniformModel(f.Gain[0], f.ReadNoise[0]), nil
	}
	m, err:=noise.NewModel(f.CCDAmp, f.Gain, f.ReadNoise, f.AmpX, f.AmpY)
	if err!=nil { return nil, fmt.Errorf("%d: %s", f.ID, err.Error()) }
	return m, nil
}

// Describes the image set as an input to cosmic ray rejection
func (f *Image) Input() (*crrej.Input, error) {
	m, err:=f.NoiseModel()
	if err!=nil { return nil, err }
	in:=&crrej.Input{ID: f.ID, Exposure: f.Exposure, Sky: f.Sky, Noise: m}
	if f.IsRate() { in.Units=crrej.UnitsRate }
	return in, nil
}

// Adds or replaces a header card of the given extension
func (f *Image) SetCard(ext, name string, value interface{}, comment string) {
	if f.cards==nil { f.cards=map[string][]fitsio.Card{} }
	card:=fitsio.Card{Name: name, Value: value, Comment: comment}
	cs:=f.cards[ext]
	for i:=range cs {
		if cs[i].Name==name { cs[i]=card; return }
	}
	f.cards[ext]=append(cs, card)
}

// Returns the value of a header card of the given extension, or nil
func (f *Image) Card(ext, name string) interface{} {
	for _, c:=range f.cards[ext] {
		if c.Name==name { return c.Value }
	}
	return nil
}

// Width and height, as a shading reference
func (f *Image) Size() (width, height int) {
	return f.Width, f.Height
}

// Reads one row of the science array, as a shading reference
func (f *Image) ReadShadingLine(row int, buf []float32) error {
	if row<0 || row>=f.Height { return fmt.Errorf("%d: row %d out of range", f.ID, row) }
	copy(buf, f.Data[row*f.Width:(row+1)*f.Width])
	return nil
}
