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
	"image/jpeg"
	"io"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mlnoga/crrej/internal/bitmask"
)

// Renders the combined image in gray, with pixels rejected in any input
// highlighted. The hue runs from red for rejections in a single input towards
// blue as more inputs agree.
func NewMaskOverlay(data []float32, width, height int, mask *bitmask.Mask, s Stretch) *image.RGBA {
	img:=image.NewRGBA(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	images:=mask.Images()
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			gray:=s.Apply(data[yoffset+x])
			count:=0
			for k:=0; k<images; k++ {
				if mask.Plane(k).Test(x, y) { count++ }
			}
			if count==0 {
				g:=uint8(gray*255)
				img.SetRGBA(x, y, color.RGBA{g, g, g, 255})
				continue
			}
			hue:=240*float64(count-1)/float64(imax(images-1, 1))
			lum:=0.5+0.4*float64(gray)
			r, g, b:=colorful.Hcl(hue, 0.9, lum).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}

func imax(a, b int) int {
	if a>b { return a }
	return b
}

// Write the mask overlay to JPG with the given quality
func WriteMaskJPG(writer io.Writer, data []float32, width, height int, mask *bitmask.Mask, s Stretch, quality int) error {
	img:=NewMaskOverlay(data, width, height, mask, s)
	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}

func WriteMaskJPGToFile(fileName string, data []float32, width, height int, mask *bitmask.Mask, s Stretch, quality int) error {
	return writeToFile(fileName, func(w io.Writer) error { return WriteMaskJPG(w, data, width, height, mask, s, quality) })
}
