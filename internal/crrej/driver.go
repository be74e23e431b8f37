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


// Package crrej rejects cosmic rays by combining a stack of exposures of the
// same field. Each iteration compares every input against the running
// average with sigma-scaled noise thresholds, flags hits and the charge spill
// around them, and rebuilds the average from the surviving pixels. Input
// images are streamed through small scrolling windows; only the combined
// products and a bit-packed mask per input span the whole image.
package crrej

import (
	"fmt"
	"time"
	"github.com/mlnoga/crrej/internal/bitmask"
	"github.com/mlnoga/crrej/internal/ops"
	"github.com/mlnoga/crrej/internal/shading"
	"github.com/mlnoga/crrej/internal/window"
)

// State of one rejection run
type run struct {
	p        *Params
	c        *ops.Context
	src      Source
	width    int
	height   int
	images   []*image         // usable inputs
	shade    *shading.Cache
	avg      []float32        // running average of the previous iteration
	next     []float32        // running average being built
	variance []float32        // variance of a minimum guess
	acc      *accumulator
	expBuf   []float32
	propBuf  []float32
	res      *Result

	sigma    float32          // rejection level of the current iteration
	minimum  bool             // thresholds from the guess variance
	final    bool             // last iteration
}

// One usable input image and its scrolling window
type image struct {
	k        int              // index in the source
	in       *Input
	r        *run
	win      *window.Window
	qual     []uint16         // per-image quality of the center row, final iteration
	rejected int64            // pixels flagged in the current iteration
}

// Loads, normalizes and thresholds one row of the image into its window
func (im *image) FillRow(row int, pix []float32, dq []uint16, thresh, spill []float32) error {
	if err:=readNormalized(im.r.src, im.k, im.in, row, pix, dq); err!=nil { return err }
	return im.r.thresholds(im, row, thresh, spill)
}

// Estimated bytes allocated by a run over the given stack
func EstimateBytes(images, usable, width, height int, p *Params) int64 {
	pixels:=int64(width)*int64(height)
	b:=int64(usable)*window.SizeBytes(p.Extent, width)
	b+=bitmask.SizeBytes(images, width, height)
	b+=pixels*(4*4+2)                    // averages, error, exposure, quality
	if p.Guess==GuessMinimum { b+=pixels*4 }
	b+=accumulatorSizeBytes(width)
	b+=int64(usable)*int64(width)*(4+2+2) // guess buffers and row quality
	return b
}

// Rejects cosmic rays from the images of src, described by inputs in the same
// order. The shading reference is only read if shading correction is
// configured. Fatal conditions are returned as errors wrapping ErrAllocation,
// ErrSizeMismatch, ErrInvalidConfig or ErrIO. If no input is usable, the
// result is fill-valued with every pixel flagged, and Status reports it.
func Reject(src Source, inputs []*Input, shade shading.Source, cfg *Config, c *ops.Context) (*Result, error) {
	start:=time.Now()
	r, err:=newRun(src, inputs, shade, cfg, c)
	if err!=nil { return nil, err }
	if len(r.images)==0 {
		fmt.Fprintf(c.Log, "No usable input, writing fill value %g\n", r.p.Fill)
		r.fillUnusable()
		return r.res, nil
	}

	if err:=r.estimateSky(); err!=nil { return nil, err }
	if err:=r.initialGuess(); err!=nil { return nil, err }
	fmt.Fprintf(c.Log, "Initial guess from %s of %d images\n", r.p.Guess, len(r.images))

	for it, sigma:=range r.p.Sigmas {
		if err:=r.iterate(it, sigma); err!=nil { return nil, err }
	}
	r.res.Sci=r.avg
	r.res.Iterations=len(r.p.Sigmas)

	for _, im:=range r.images {
		r.res.PerImage[im.k]=im.rejected
		r.res.Rejected+=im.rejected
	}
	if r.p.WriteMask {
		if err:=r.writeBack(); err!=nil { return nil, err }
	}
	fmt.Fprintf(c.Log, "Rejected %d pixels (%.4f%%) in %d iterations in %v\n",
		r.res.Rejected, 100*r.res.RejectedFraction(), r.res.Iterations, time.Since(start))
	return r.res, nil
}

// Validates the configuration and the stack, and allocates all state of a run
func newRun(src Source, inputs []*Input, shade shading.Source, cfg *Config, c *ops.Context) (r *run, err error) {
	p, err:=cfg.Parse()
	if err!=nil { return nil, err }
	if len(inputs)==0 { return nil, fmt.Errorf("%w: no input images", ErrInvalidConfig) }
	if p.Shading && shade==nil { return nil, fmt.Errorf("%w: shading correction requires a reference", ErrInvalidConfig) }

	width, height:=src.Size(0)
	if width<=0 || height<=0 { return nil, fmt.Errorf("%w: image %d has invalid size %dx%d", ErrSizeMismatch, inputs[0].ID, width, height) }
	for k:=1; k<len(inputs); k++ {
		if w, h:=src.Size(k); w!=width || h!=height {
			return nil, fmt.Errorf("%w: image %d is %dx%d, image %d is %dx%d", ErrSizeMismatch, inputs[k].ID, w, h, inputs[0].ID, width, height)
		}
	}

	fmt.Fprintf(c.Log, "Run %s: rejecting cosmic rays in %d images of %dx%d pixels\n", c.RunID, len(inputs), width, height)
	fmt.Fprintf(c.Log, "Parameters: %s\n", cfg)

	r=&run{p: p, c: c, src: src, width: width, height: height}
	r.res=&Result{
		RunID:    c.RunID,
		Width:    width,
		Height:   height,
		PerImage: make([]int64, len(inputs)),
		Sky:      make([]float32, len(inputs)),
	}
	for k, in:=range inputs {
		fmt.Fprintf(c.Log, "%d: %s\n", in.ID, in)
		if !in.Usable() {
			fmt.Fprintf(c.Log, "%d: skipping, non-positive exposure\n", in.ID)
			continue
		}
		if in.Noise==nil { return nil, fmt.Errorf("%w: image %d has no noise model", ErrInvalidConfig, in.ID) }
		copied:=*in
		r.images=append(r.images, &image{k: k, in: &copied, r: r})
	}
	r.res.Usable=len(r.images)

	need:=EstimateBytes(len(inputs), len(r.images), width, height, p)
	fmt.Fprintf(c.Log, "Estimated working set %d MiB, budget %d MiB\n", need>>20, c.BudgetMB)
	if c.BudgetMB>0 && need>int64(c.BudgetMB)<<20 {
		return nil, fmt.Errorf("%w: working set of %d MiB exceeds budget of %d MiB", ErrAllocation, need>>20, c.BudgetMB)
	}
	r.allocate(len(inputs))

	var ref shading.Source
	if p.Shading && len(r.images)>0 { ref=shade }
	if r.shade, err=shading.NewCache(ref, width, height, 2*p.Extent+1); err!=nil {
		return nil, fmt.Errorf("%w: %s", ErrSizeMismatch, err.Error())
	}
	return r, nil
}

// Allocates the windows, the mask and the combined products
func (r *run) allocate(images int) {
	pixels:=r.width*r.height
	r.avg, r.next=make([]float32, pixels), make([]float32, pixels)
	if r.p.Guess==GuessMinimum { r.variance=make([]float32, pixels) }
	r.res.Err=make([]float32, pixels)
	r.res.Exp=make([]float32, pixels)
	r.res.DQ =make([]uint16,  pixels)
	r.res.Mask=bitmask.NewMask(images, r.width, r.height)
	r.acc=newAccumulator(r.width)
	r.expBuf, r.propBuf=make([]float32, r.width), make([]float32, r.width)
	for _, im:=range r.images {
		im.win =window.New(r.p.Extent, r.width)
		im.qual=make([]uint16, r.width)
	}
}

// Sets all products to the fill value with every pixel flagged
func (r *run) fillUnusable() {
	for i:=range r.avg {
		r.avg[i], r.res.Err[i], r.res.DQ[i] = r.p.Fill, r.p.Fill, r.p.CRBit
	}
	r.res.Sci=r.avg
	r.res.Status=StatusNoUsableInput
}

// Runs one rejection iteration over all scanlines
func (r *run) iterate(it int, sigma float32) error {
	r.sigma=sigma
	r.minimum=it==0 && r.p.Guess==GuessMinimum
	r.final=it==len(r.p.Sigmas)-1

	for _, im:=range r.images {
		im.rejected=0
		if err:=im.win.Init(r.height, im); err!=nil { return err }
	}
	for line:=0; line<r.height; line++ {
		r.acc.reset(r.p.CRBit)
		for _, im:=range r.images {
			if line>0 {
				if err:=im.win.Advance(line, r.height, im); err!=nil { return err }
			}
			if err:=r.detect(im, line); err!=nil { return err }
			r.add(im, line)
			if r.final { r.res.Mask.EncodeLine(im.k, line, im.qual, r.p.CRBit) }
		}
		if err:=r.finishRow(line); err!=nil { return err }
	}
	r.avg, r.next=r.next, r.avg

	var rejected int64
	for _, im:=range r.images { rejected+=im.rejected }
	fmt.Fprintf(r.c.Log, "Iteration %d sigma %g: %d pixels rejected\n", it+1, sigma, rejected)
	return nil
}

// ORs the cosmic ray flag of the mask into the quality flags of the inputs
func (r *run) writeBack() error {
	pix, dq:=make([]float32, r.width), make([]uint16, r.width)
	for _, im:=range r.images {
		for row:=0; row<r.height; row++ {
			if err:=readLine(r.src, im.k, im.in, row, pix, dq); err!=nil { return err }
			r.res.Mask.DecodeLine(im.k, row, dq, r.p.CRBit)
			if err:=r.src.WriteDQLine(im.k, row, dq); err!=nil { return wrapIO(err, "write", im.in.ID, row) }
		}
		fmt.Fprintf(r.c.Log, "%d: wrote %d flagged pixels back\n", im.in.ID, r.res.Mask.Count(im.k))
	}
	return nil
}
