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


package preview

import (
	"image"
	"image/color"
	"io"
	"golang.org/x/image/tiff"
)

// Renders a grayscale image as 16-bit
func NewMono16(data []float32, width, height int, s Stretch) *image.Gray16 {
	img:=image.NewGray16(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			gray:=s.Apply(data[yoffset+x])
			img.SetGray16(x, y, color.Gray16{uint16(gray*65535)})
		}
	}
	return img
}

// Write a grayscale image to 16-bit TIFF, using the given stretch
func WriteMonoTIFF16(writer io.Writer, data []float32, width, height int, s Stretch) error {
	img:=NewMono16(data, width, height, s)
	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

func WriteMonoTIFF16ToFile(fileName string, data []float32, width, height int, s Stretch) error {
	return writeToFile(fileName, func(w io.Writer) error { return WriteMonoTIFF16(w, data, width, height, s) })
}
