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


// Package preview renders combined products and rejection masks as 16-bit
// TIFF and JPEG images for quick inspection.
package preview

import (
	"bufio"
	"io"
	"math"
	"os"
	"github.com/mlnoga/crrej/internal/stats"
)

// Linear stretch from [Min, Max] to [0, 1] followed by gamma correction
type Stretch struct {
	Min   float32
	Max   float32
	Gamma float32
}

// Stretch from the minimum to the maximum of data, ignoring NaNs, with the given gamma
func AutoStretch(data []float32, gamma float32) Stretch {
	min, max, _:=stats.MinMaxMean(data)
	if max<=min { max=min+1 }
	return Stretch{Min: min, Max: max, Gamma: gamma}
}

// Applies the stretch to one value
func (s Stretch) Apply(v float32) float32 {
	v=(v-s.Min)/(s.Max-s.Min)
	// replace NaNs with zeros for export, else JPG and TIFF output breaks
	if math.IsNaN(float64(v)) || v<0 { v=0 }
	if v>1 { v=1 }
	if s.Gamma!=1 && s.Gamma>0 { v=float32(math.Pow(float64(v), float64(1/s.Gamma))) }
	return v
}

// Creates a buffered file, calls write on it and flushes
func writeToFile(fileName string, write func(w io.Writer) error) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	if err:=write(writer); err!=nil { return err }
	return writer.Flush()
}
