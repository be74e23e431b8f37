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


package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"github.com/mlnoga/crrej/internal/fits"
	"github.com/mlnoga/crrej/internal/ops"
)

// A promise for a FITS image set. Returns a materialized image, or an error
type Promise func() (f *fits.Image, err error)

// Materializes all promises with given concurrency limit. Outputs are in the
// order of the inputs. Errors of all failed promises are joined
func MaterializeAll(ins []Promise, maxThreads int) (outs []*fits.Image, err error) {
	if len(ins)==0 { return nil, nil }
	if maxThreads<1 { maxThreads=1 }
	outs=make([]*fits.Image, len(ins))
	limiter:=make(chan bool, maxThreads)
	errs   :=make(chan error, len(ins))
	for i, in:=range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			f, err:=theIn() // materialize the promise
			outs[i]=f
			errs <- err
		}(i, in)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
	for i:=0; i<len(ins); i++ {  // collect errors
		e := <- errs
		if e!=nil {
			if err==nil {
				err = e
			} else {
				err = errors.New(fmt.Sprintf("%s; %s", err.Error(), e.Error()))
			}
		}
	}
	if err!=nil { return nil, err }
	return outs, nil
}

// Returns a promise loading one image set from a file
func LoadPromise(id int, fileName string, c *ops.Context) Promise {
	return func() (f *fits.Image, err error) {
		f, err=fits.NewImageFromFile(fileName, id, c.Log)
		if err!=nil { return nil, fmt.Errorf("%d: loading %s: %s", id, fileName, err.Error()) }

		extras:=""
		if f.Err!=nil { extras+=" ERR" }
		if f.DQ !=nil { extras+=" DQ" }
		fmt.Fprintf(c.Log, "%d: Loaded %s image set%s with exposure %gs from %s\n", 
			f.ID, f.DimensionsToString(), extras, f.Exposure, f.FileName)
		return f, nil
	}
}

// Turns filename patterns with wildcards into load promises, numbered from 0.
// With restrict, matches outside the current directory tree are skipped
func LoadPromises(patterns []string, restrict bool, c *ops.Context) (outs []Promise, err error) {
	for _, pattern:=range patterns {
		matches, err:=filepath.Glob(pattern)
		if err!=nil { return nil, err }
		for _, match:=range matches {
			if restrict && !ops.IsPathAllowed(match) {
				fmt.Fprintf(c.Log, "Pattern match %s outside current directory tree, skipping\n", match)
				continue
			}
			outs=append(outs, LoadPromise(len(outs), match, c))
		}
	}
	if len(outs)==0 { return nil, fmt.Errorf("no files to load from pattern %v", patterns) }
	fmt.Fprintf(c.Log, "Found %d files.\n", len(outs))
	return outs, nil
}
