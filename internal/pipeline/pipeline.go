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


// Package pipeline runs cosmic ray rejection on image set files: it loads
// the inputs, combines them, writes the combined product and previews, and
// writes the rejection masks back into the inputs on request.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"github.com/mlnoga/crrej/internal/crrej"
	"github.com/mlnoga/crrej/internal/fits"
	"github.com/mlnoga/crrej/internal/ops"
	"github.com/mlnoga/crrej/internal/preview"
)

// File outputs and loading options of a pipeline run
type Options struct {
	Out           string  `json:"out"`           // combined FITS product, required
	Shading       string  `json:"shading"`       // shading reference FITS file
	Preview       string  `json:"preview"`       // JPEG overlay of rejected pixels
	TIFF          string  `json:"tiff"`          // 16-bit TIFF of the combined signal
	Gamma         float32 `json:"gamma"`         // gamma for previews
	RestrictPaths bool    `json:"-"`             // only allow files inside the current directory tree
}

func NewOptionsDefault() *Options {
	return &Options{Gamma: 1}
}

// Runs cosmic ray rejection on the image sets matching the file patterns.
// Invalid configurations are reported before any file is read
func Run(patterns []string, opts *Options, cfg *crrej.Config, c *ops.Context) (*crrej.Result, error) {
	if err:=cfg.Validate(); err!=nil { return nil, err }
	if opts.Out=="" { return nil, fmt.Errorf("%w: no output file given", crrej.ErrInvalidConfig) }
	if cfg.Shading && opts.Shading=="" { return nil, fmt.Errorf("%w: shading correction requires a reference file", crrej.ErrInvalidConfig) }
	for _, name:=range []string{opts.Out, opts.Shading, opts.Preview, opts.TIFF} {
		if opts.RestrictPaths && name!="" && !ops.IsPathAllowed(name) {
			return nil, fmt.Errorf("%w: file name %s outside current directory tree", crrej.ErrInvalidConfig, name)
		}
	}

	promises, err:=LoadPromises(patterns, opts.RestrictPaths, c)
	if err!=nil { return nil, fmt.Errorf("%w: %s", crrej.ErrIO, err.Error()) }
	images, err:=MaterializeAll(promises, c.MaxThreads)
	if err!=nil { return nil, fmt.Errorf("%w: %s", crrej.ErrIO, err.Error()) }

	stack:=fits.NewStack(images)
	inputs, err:=stack.Inputs()
	if err!=nil { return nil, fmt.Errorf("%w: %s", crrej.ErrInvalidConfig, err.Error()) }

	var shade *fits.Image
	if cfg.Shading {
		if shade, err=fits.NewImageFromFile(opts.Shading, -1, c.Log); err!=nil { 
			return nil, fmt.Errorf("%w: shading reference %s: %s", crrej.ErrIO, opts.Shading, err.Error()) 
		}
		fmt.Fprintf(c.Log, "Loaded %s shading reference from %s\n", shade.DimensionsToString(), opts.Shading)
	}

	var res *crrej.Result
	if shade!=nil {
		res, err=crrej.Reject(stack, inputs, shade, cfg, c)
	} else {
		res, err=crrej.Reject(stack, inputs, nil, cfg, c)
	}
	if err!=nil { return nil, err }

	if err:=writeProducts(res, inputs, opts, cfg, c); err!=nil { return nil, err }
	if cfg.WriteMask && res.Status==crrej.StatusOK {
		if err:=stack.SaveDirty(c.Log); err!=nil { return nil, fmt.Errorf("%w: %s", crrej.ErrIO, err.Error()) }
	}
	return res, nil
}

// Creates the combined image set from a rejection result
func NewProduct(res *crrej.Result, inputs []*crrej.Input, cfg *crrej.Config) *fits.Image {
	f:=fits.NewImage(0, res.Width, res.Height)
	f.Data, f.Err, f.DQ, f.Exp=res.Sci, res.Err, res.DQ, res.Exp

	exposure:=float64(0)
	for _, in:=range inputs {
		if in.Usable() { exposure+=float64(in.Exposure) }
	}
	f.Exposure, f.Bunit=float32(exposure), "COUNTS/S"
	f.SetCard(fits.ExtSci, "BUNIT",    f.Bunit,                  "units of the combined signal")
	f.SetCard(fits.ExtSci, "EXPTIME",  exposure,                 "total exposure of usable inputs")
	f.SetCard(fits.ExtSci, "NCOMBINE", res.Usable,               "number of usable inputs")
	f.SetCard(fits.ExtSci, "REJ_RATE", res.RejectedFraction(),   "fraction of input pixels rejected")
	f.SetCard(fits.ExtSci, "CRREJECT", int(res.Rejected),            "number of pixels rejected")
	f.SetCard(fits.ExtSci, "CRSIGMAS", cfg.Sigmas,               "rejection levels per iteration")
	f.SetCard(fits.ExtSci, "CRRADIUS", float64(cfg.Radius),      "propagation radius")
	f.SetCard(fits.ExtSci, "CRTHRESH", float64(cfg.Factor),      "propagation factor")
	f.SetCard(fits.ExtSci, "CRMASK",   cfg.WriteMask,            "masks written back to inputs")
	f.SetCard(fits.ExtSci, "CRRUNID",  res.RunID,                "rejection run")
	if res.Status==crrej.StatusNoUsableInput {
		f.SetCard(fits.ExtSci, "CRSTATUS", res.Status.String(), "")
	}
	return f
}

// Writes the combined FITS product and the optional previews
func writeProducts(res *crrej.Result, inputs []*crrej.Input, opts *Options, cfg *crrej.Config, c *ops.Context) error {
	product:=NewProduct(res, inputs, cfg)
	fmt.Fprintf(c.Log, "Writing %s pixel combined image set to %s\n", product.DimensionsToString(), opts.Out)
	if err:=product.WriteFile(opts.Out); err!=nil { return fmt.Errorf("%w: writing %s: %s", crrej.ErrIO, opts.Out, err.Error()) }

	stretch:=preview.AutoStretch(res.Sci, opts.Gamma)
	if opts.TIFF!="" {
		fmt.Fprintf(c.Log, "Writing 16-bit TIFF preview to %s\n", opts.TIFF)
		if err:=preview.WriteMonoTIFF16ToFile(opts.TIFF, res.Sci, res.Width, res.Height, stretch); err!=nil {
			return fmt.Errorf("%w: writing %s: %s", crrej.ErrIO, opts.TIFF, err.Error())
		}
	}
	if opts.Preview!="" {
		lower:=strings.ToLower(opts.Preview)
		if !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") {
			return fmt.Errorf("%w: preview %s must be a JPEG file", crrej.ErrInvalidConfig, opts.Preview)
		}
		fmt.Fprintf(c.Log, "Writing mask overlay preview to %s\n", opts.Preview)
		if err:=preview.WriteMaskJPGToFile(opts.Preview, res.Sci, res.Width, res.Height, res.Mask, stretch, 95); err!=nil {
			return fmt.Errorf("%w: writing %s: %s", crrej.ErrIO, opts.Preview, err.Error())
		}
	}
	return nil
}

// Maps an error or status to a process exit code: 0 for success, 2 if no
// input was usable, and 1 for all fatal errors
func ExitCode(res *crrej.Result, err error) int {
	switch {
	case err!=nil:
		return 1
	case res!=nil && res.Status==crrej.StatusNoUsableInput:
		return 2
	}
	return 0
}

// Short name of the error class, for log output and HTTP responses
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, crrej.ErrAllocation):    return "allocation failure"
	case errors.Is(err, crrej.ErrSizeMismatch):  return "size mismatch"
	case errors.Is(err, crrej.ErrInvalidConfig): return "invalid configuration"
	case errors.Is(err, crrej.ErrIO):            return "i/o error"
	}
	return "error"
}
