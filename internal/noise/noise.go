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


// Package noise models detector amplifiers. A CCD is read out through up to
// four amplifiers, one per quadrant, each with its own gain and read noise.
package noise

import (
	"errors"
	"fmt"
	"strings"
)

// Amplifier names, in the order used by gain and read noise arrays
const Amps = "ABCD"

// Quadrants of the detector. Rows below AmpY form the lower half, columns below
// AmpX the left half. By convention amplifiers C and D read out the lower half
// and A and B the upper half.
const (
	QuadLowerLeft = iota
	QuadLowerRight
	QuadUpperLeft
	QuadUpperRight
)

// Default amplifier for each quadrant
var quadAmps = [4]int{2, 3, 0, 1}

// Gain and read noise model for one detector
type Model struct {
	AmpX      int        // first column read out by the right hand amplifiers
	AmpY      int        // first row read out by the upper amplifiers
	quadGain  [4]float32 // gain per quadrant in e-/DN
	quadNoise [4]float32 // read noise squared per quadrant in DN^2
}

// Creates a model where all amplifiers share the same gain and read noise.
// The whole detector forms one region.
func NewUniformModel(gain, readNoise float32) *Model {
	m:=&Model{AmpX: 1<<30, AmpY: 0}
	for q:=range m.quadGain {
		m.quadGain[q]=gain
		m.quadNoise[q]=readNoise*readNoise
	}
	return m
}

// Creates a model from the used amplifiers (e.g. "ABCD", "AD", "C"), per-amplifier
// gain and read noise in A, B, C, D order, and the region boundaries.
// A quadrant whose default amplifier was not used is read out by the used
// amplifier in the same half, preferring the horizontal neighbor.
func NewModel(ccdAmp string, gain, readNoise [4]float32, ampX, ampY int) (*Model, error) {
	ccdAmp=strings.ToUpper(strings.TrimSpace(ccdAmp))
	if ccdAmp=="" { return nil, errors.New("no amplifiers given") }
	used:=[4]bool{}
	first:=-1
	for _, c:=range ccdAmp {
		a:=strings.IndexRune(Amps, c)
		if a<0 { return nil, fmt.Errorf("invalid amplifier '%c' in '%s'", c, ccdAmp) }
		if gain[a]<=0 { return nil, fmt.Errorf("amplifier %c has non-positive gain %g", c, gain[a]) }
		if readNoise[a]<0 { return nil, fmt.Errorf("amplifier %c has negative read noise %g", c, readNoise[a]) }
		used[a]=true
		if first<0 { first=a }
	}
	if ampX<0 || ampY<0 { return nil, fmt.Errorf("invalid amplifier boundary x=%d y=%d", ampX, ampY) }

	m:=&Model{AmpX: ampX, AmpY: ampY}
	for q, a:=range quadAmps {
		if !used[a] {
			horiz:=quadAmps[q^1] // same half, other side
			vert :=quadAmps[q^2] // same side, other half
			switch {
			case used[horiz]: a=horiz
			case used[vert] : a=vert
			default         : a=first
			}
		}
		m.quadGain[q]=gain[a]
		m.quadNoise[q]=readNoise[a]*readNoise[a]
	}
	return m, nil
}

// The two (gain, noise) pairs active on one scanline, split at column AmpX
type Line struct {
	AmpX   int
	Gain   [2]float32
	Noise2 [2]float32
}

// Returns the amplifier pairs active for scanline y
func (m *Model) ForLine(y int) Line {
	q:=QuadLowerLeft
	if y>=m.AmpY { q=QuadUpperLeft }
	return Line{
		AmpX:   m.AmpX,
		Gain:   [2]float32{m.quadGain[q], m.quadGain[q+1]},
		Noise2: [2]float32{m.quadNoise[q], m.quadNoise[q+1]},
	}
}

// Returns gain and read noise squared for column x
func (l *Line) At(x int) (gain, noise2 float32) {
	if x<l.AmpX { return l.Gain[0], l.Noise2[0] }
	return l.Gain[1], l.Noise2[1]
}

func (m *Model) String() string {
	return fmt.Sprintf("ampx %d ampy %d gain %v noise^2 %v", m.AmpX, m.AmpY, m.quadGain, m.quadNoise)
}
