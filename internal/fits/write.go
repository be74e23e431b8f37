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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"github.com/astrogo/fitsio"
)

// Writes the image set to the file with the given name, replacing it
// atomically. Compresses with gzip if the name ends in .gz or .gzip
func (f *Image) WriteFile(fileName string) (err error) {
	tmpName:=fileName+".tmp"
	file, err:=os.Create(tmpName)
	if err!=nil { return err }
	defer func() {
		if err!=nil { os.Remove(tmpName) }
	}()

	writer:=bufio.NewWriter(file)
	var w io.Writer=writer
	var gz *gzip.Writer
	if lExt:=strings.ToLower(path.Ext(fileName)); lExt==".gz" || lExt==".gzip" {
		gz=gzip.NewWriter(writer)
		w=gz
	}
	if err=f.Write(w); err!=nil { file.Close(); return err }
	if gz!=nil {
		if err=gz.Close(); err!=nil { file.Close(); return err }
	}
	if err=writer.Flush(); err!=nil { file.Close(); return err }
	if err=file.Close(); err!=nil { return err }
	return os.Rename(tmpName, fileName)
}

// Writes the image set as FITS. The science array goes into the primary HDU
// unless the set was read with a data-less primary header
func (f *Image) Write(w io.Writer) error {
	file, err:=fitsio.Create(w)
	if err!=nil { return err }
	defer file.Close()

	if f.primary!=nil {
		phdu, err:=fitsio.NewPrimaryHDU(nil)
		if err!=nil { return err }
		if err:=phdu.Header().Append(f.primary...); err!=nil { return err }
		if err:=file.Write(phdu); err!=nil { return err }
	}
	dims:=[]int{f.Width, f.Height}
	if err:=writeFloats(file, dims, ExtSci, f.cards[ExtSci], f.Data); err!=nil { return err }
	if f.Err!=nil {
		if err:=writeFloats(file, dims, ExtErr, f.cards[ExtErr], f.Err); err!=nil { return err }
	}
	if f.DQ!=nil {
		im:=fitsio.NewImage(16, dims)
		// unsigned values are stored with an offset, as FITS has no unsigned 16 bit type
		buf:=make([]int16, len(f.DQ))
		for i, q:=range f.DQ { buf[i]=int16(q^0x8000) }
		cards:=append([]fitsio.Card{
			{Name: "EXTNAME", Value: ExtDQ},
			{Name: "BZERO",   Value: 32768},
			{Name: "BSCALE",  Value: 1},
		}, f.cards[ExtDQ]...)
		if err:=writeHDU(file, im, cards, buf); err!=nil { return err }
	}
	if f.Exp!=nil {
		if err:=writeFloats(file, dims, ExtExp, f.cards[ExtExp], f.Exp); err!=nil { return err }
	}
	return nil
}

func writeFloats(file *fitsio.File, dims []int, name string, cards []fitsio.Card, data []float32) error {
	cards=append([]fitsio.Card{{Name: "EXTNAME", Value: name}}, cards...)
	return writeHDU(file, fitsio.NewImage(-32, dims), cards, data)
}

// Appends cards and data to a new image HDU and writes it
func writeHDU(file *fitsio.File, im fitsio.Image, cards []fitsio.Card, data interface{}) error {
	defer im.Close()
	if err:=im.Header().Append(cards...); err!=nil { return err }
	if err:=im.Write(data); err!=nil { return err }
	if err:=file.Write(im); err!=nil { return fmt.Errorf("writing %s: %s", im.Name(), err.Error()) }
	return nil
}
