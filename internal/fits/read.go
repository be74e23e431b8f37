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


package fits

import (
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strings"
	"github.com/astrogo/fitsio"
	"github.com/mlnoga/crrej/internal/noise"
)

// Cards describing the data layout, which are regenerated on write
var structuralKeys=map[string]bool{
	"SIMPLE": true, "XTENSION": true, "BITPIX": true, "NAXIS": true, "NAXIS1": true, "NAXIS2": true,
	"EXTEND": true, "PCOUNT": true, "GCOUNT": true, "BZERO": true, "BSCALE": true, "END": true, "EXTNAME": true,
}

func NewImageFromFile(fileName string, id int, logWriter io.Writer) (i *Image, err error) {
	i=&Image{ID: id, cards: map[string][]fitsio.Card{}}
	return i, i.ReadFile(fileName, logWriter)
}

// Read a FITS image set from the file with the given name. Decompresses gzip if .gz or gzip suffix is present.
func (f *Image) ReadFile(fileName string, logWriter io.Writer) error {
	file, err:=os.Open(fileName)
	if err!=nil { return err }
	defer file.Close()

	f.FileName=fileName
	var r io.Reader=file
	if lExt:=strings.ToLower(path.Ext(fileName)); lExt==".gz" || lExt==".gzip" {
		if r, err=gzip.NewReader(file); err!=nil { return err }
	}
	return f.Read(r, logWriter)
}

// Reads a FITS image set from the reader
func (f *Image) Read(r io.Reader, logWriter io.Writer) error {
	file, err:=fitsio.Open(r)
	if err!=nil { return fmt.Errorf("%d: %s", f.ID, err.Error()) }
	defer file.Close()

	hdus:=file.HDUs()
	if len(hdus)==0 { return fmt.Errorf("%d: no HDUs", f.ID) }
	sci, sciIndex:=findImage(hdus, ExtSci)
	if sci==nil {
		if img, ok:=hdus[0].(fitsio.Image); ok && len(img.Header().Axes())>=2 { sci, sciIndex=img, 0 }
	}
	if sci==nil { return fmt.Errorf("%d: no science array", f.ID) }
	if sciIndex>0 { f.primary=preservedCards(hdus[0].Header()) }

	axes:=sci.Header().Axes()
	if len(axes)!=2 { return fmt.Errorf("%d: science array has %d axes, want 2", f.ID, len(axes)) }
	f.Width, f.Height=axes[0], axes[1]
	if f.cards==nil { f.cards=map[string][]fitsio.Card{} }

	if f.Data, err=f.readFloats(sci, logWriter); err!=nil { return err }
	f.cards[ExtSci]=preservedCards(sci.Header())
	if img, _:=findImage(hdus, ExtErr); img!=nil {
		if f.Err, err=f.readFloats(img, logWriter); err!=nil { return err }
		f.cards[ExtErr]=preservedCards(img.Header())
	}
	if img, _:=findImage(hdus, ExtDQ); img!=nil {
		data, err:=f.readFloats(img, logWriter)
		if err!=nil { return err }
		f.DQ=make([]uint16, len(data))
		for i, v:=range data { f.DQ[i]=uint16(int32(v)) } // negative values wrap to the high bit
		f.cards[ExtDQ]=preservedCards(img.Header())
	}
	if img, _:=findImage(hdus, ExtExp); img!=nil {
		if f.Exp, err=f.readFloats(img, logWriter); err!=nil { return err }
		f.cards[ExtExp]=preservedCards(img.Header())
	}

	// keywords may sit in the science header or the primary header
	headers:=[]*fitsio.Header{sci.Header(), hdus[0].Header()}
	f.Exposure, _=headerFloat(headers, "EXPTIME",  "EXPOSURE")
	f.Sky,      _=headerFloat(headers, "MDRIZSKY")
	f.Bunit      =headerString(headers, "BUNIT")
	f.CCDAmp     =headerString(headers, "CCDAMP")
	for a, c:=range noise.Amps {
		var ok bool
		if f.Gain[a], ok=headerFloat(headers, "ATODGN"+string(c)); !ok { f.Gain[a]=1 }
		f.ReadNoise[a], _=headerFloat(headers, "READNSE"+string(c))
	}
	ampX, _:=headerFloat(headers, "AMPX")
	ampY, _:=headerFloat(headers, "AMPY")
	f.AmpX, f.AmpY=int(ampX), int(ampY)
	if f.AmpX==0 { f.AmpX=f.Width }
	return nil
}

// Returns the first image HDU with the given extension name and its index
func findImage(hdus []fitsio.HDU, name string) (fitsio.Image, int) {
	for i, h:=range hdus {
		img, ok:=h.(fitsio.Image)
		if ok && strings.EqualFold(strings.TrimSpace(h.Name()), name) { return img, i }
	}
	return nil, -1
}

// Returns the non-structural cards of a header
func preservedCards(h *fitsio.Header) (cards []fitsio.Card) {
	for _, k:=range h.Keys() {
		if structuralKeys[k] || k=="" { continue }
		if c:=h.Get(k); c!=nil { cards=append(cards, *c) }
	}
	return cards
}

// Returns the first numeric value among the given keys in the headers
func headerFloat(headers []*fitsio.Header, keys ...string) (float32, bool) {
	for _, h:=range headers {
		for _, k:=range keys {
			c:=h.Get(k)
			if c==nil { continue }
			if v, ok:=toFloat(c.Value); ok { return v, true }
		}
	}
	return 0, false
}

func headerString(headers []*fitsio.Header, key string) string {
	for _, h:=range headers {
		if c:=h.Get(key); c!=nil {
			if s, ok:=c.Value.(string); ok { return strings.TrimSpace(s) }
		}
	}
	return ""
}

func toFloat(v interface{}) (float32, bool) {
	switch x:=v.(type) {
	case float64: return float32(x), true
	case float32: return x, true
	case int:     return float32(x), true
	case int64:   return float32(x), true
	case int32:   return float32(x), true
	case int16:   return float32(x), true
	case int8:    return float32(x), true
	case uint8:   return float32(x), true
	}
	return 0, false
}

// Converts the raw data of an image HDU to float32, applying BZERO and BSCALE
func (f *Image) readFloats(img fitsio.Image, logWriter io.Writer) ([]float32, error) {
	h:=img.Header()
	axes:=h.Axes()
	if len(axes)!=2 || axes[0]!=f.Width || axes[1]!=f.Height {
		return nil, fmt.Errorf("%d: extension %s has axes %v, want %dx%d", f.ID, img.Name(), axes, f.Width, f.Height)
	}
	bzero, ok:=headerFloat([]*fitsio.Header{h}, "BZERO")
	if !ok { bzero=0 }
	bscale, ok:=headerFloat([]*fitsio.Header{h}, "BSCALE")
	if !ok { bscale=1 }

	bitpix:=h.Bitpix()
	switch bitpix {
	case 32, 64, -64:
		fmt.Fprintf(logWriter, "%d: Warning: loss of precision converting BITPIX %d to float32 values\n", f.ID, bitpix)
	}
	data:=make([]float32, f.Width*f.Height)
	if err:=decode(img.Raw(), bitpix, bzero, bscale, data); err!=nil { return nil, fmt.Errorf("%d: %s", f.ID, err.Error()) }
	return data, nil
}

// Decodes big-endian FITS data of the given BITPIX into data
func decode(raw []byte, bitpix int, bzero, bscale float32, data []float32) error {
	bytesPerValue:=bitpix/8
	if bytesPerValue<0 { bytesPerValue=-bytesPerValue }
	if bytesPerValue==0 || len(raw)<len(data)*bytesPerValue {
		return fmt.Errorf("have %d bytes for %d values of BITPIX %d", len(raw), len(data), bitpix)
	}
	for i:=range data {
		b:=raw[i*bytesPerValue:]
		var v float32
		switch bitpix {
		case 8:
			v=float32(b[0])
		case 16:
			v=float32(int16((uint16(b[0]) << 8) | uint16(b[1])))
		case 32:
			v=float32(int32((uint32(b[0]) << 24) | (uint32(b[1]) << 16) | (uint32(b[2]) << 8) | uint32(b[3])))
		case 64:
			v=float32(int64(be64(b)))
		case -32:
			v=math.Float32frombits((uint32(b[0]) << 24) | (uint32(b[1]) << 16) | (uint32(b[2]) << 8) | uint32(b[3]))
		case -64:
			v=float32(math.Float64frombits(be64(b)))
		default:
			return fmt.Errorf("unknown BITPIX value %d", bitpix)
		}
		data[i]=v*bscale+bzero
	}
	return nil
}

func be64(b []byte) uint64 {
	return (uint64(b[0]) << 56) | (uint64(b[1]) << 48) | (uint64(b[2]) << 40) | (uint64(b[3]) << 32) |
	       (uint64(b[4]) << 24) | (uint64(b[5]) << 16) | (uint64(b[6]) << 8) | uint64(b[7])
}
