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


package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"runtime/pprof"
	"strings"
	"time"
	"github.com/mlnoga/crrej/internal/crrej"
	"github.com/mlnoga/crrej/internal/ops"
	"github.com/mlnoga/crrej/internal/pipeline"
	"github.com/mlnoga/crrej/internal/rest"
)

const version = "0.1.0"

var def=crrej.NewConfigDefault()

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var config = flag.String("config", "", "load rejection parameters from YAML `file`; flags given on the command line take precedence")
var out    = flag.String("out", "out.fits", "save combined image set to `file`")
var log    = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var jpg    = flag.String("jpg", "", "save 8bit overlay of rejected pixels as JPEG to `file`. `%auto` replaces suffix of output file with .jpg")
var tiff   = flag.String("tiff", "", "save 16bit preview of the combined signal as TIFF to `file`")
var shade  = flag.String("shading", "", "apply shutter shading correction from reference `file`, also required by shading in -config")
var gamma  = flag.Float64("gamma", 1, "gamma for previews, 1: linear")

var radius   = flag.Float64("radius", float64(def.Radius), "propagation radius in pixels, 0=no propagation")
var factor   = flag.Float64("factor", float64(def.Factor), "propagation factor on the spill threshold, <=0 disables propagation")
var sigmas   = flag.String ("sigmas", def.Sigmas, "comma-separated rejection levels in standard deviations, one per iteration")
var scale    = flag.Float64("scale", float64(def.Scale), "multiplicative noise in percent of the signal")
var guess    = flag.String ("initGuess", def.InitGuess, "initial guess of the combined image, median or minimum")
var sky      = flag.String ("sky", def.Sky, "sky estimation, none, mode or mean")
var badBits  = flag.Uint  ("badBits", uint(def.BadBits), "input quality bits that exclude a pixel")
var crBit    = flag.Uint  ("crBit", uint(def.CRBit), "quality bit marking rejected pixels")
var writeMask= flag.Bool  ("writeMask", def.WriteMask, "write the rejection mask back into the input files")
var fill     = flag.Float64("fill", float64(def.Fill), "output value for pixels where no input survives")

var addr     = flag.String("addr", ":8080", "listen on `address` for the serve command")
var chroot   = flag.String("chroot", "", "serve command: change filesystem root to `dir` (requires root)")
var setuid   = flag.Int   ("setuid", -1, "serve command: change user ID to `uid` after chroot, -1: keep")

func main() {
	logWriter:=ops.NewLogWriter(os.Stdout)
	debug.SetGCPercent(10)
	start:=time.Now()
	flag.Usage=func(){
 	    fmt.Fprintf(logWriter, `CRRej Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (reject|serve|legal|version) (img0.fits ... imgn.fits)

Commands:
  reject  Combine the input image sets, rejecting cosmic rays
  serve   Serve rejection runs over HTTP
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
	    flag.PrintDefaults()
	}
	flag.Parse()

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	// Initialize logging to file in addition to stdout, if selected
	if *log=="%auto" {
		if *out!="" && args[0]=="reject" {
			*log=strings.TrimSuffix(*out, filepath.Ext(*out))+".log"
		} else {
			*log=""
		}
	}
	if *log!="" {
		if err:=logWriter.AlsoToFile(*log); err!=nil { logWriter.Fatalf(1, "Unable to open logfile '%s': %s\n", *log, err.Error()) }
	}
	defer logWriter.Close()

	// Also auto-select JPEG output target
	if *jpg=="%auto" {
		if *out!="" {
			*jpg=strings.TrimSuffix(*out, filepath.Ext(*out))+".jpg"
		} else {
			*jpg=""
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil { logWriter.Fatalf(1, "Could not create CPU profile: %s\n", err.Error()) }
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil { logWriter.Fatalf(1, "Could not start CPU profile: %s\n", err.Error()) }
		defer pprof.StopCPUProfile()
	}

	c:=ops.NewContext(logWriter)
	code:=0
	switch args[0] {
	case "reject":
		c.LogHost()
		cfg, err:=loadConfig()
		if err!=nil { logWriter.Fatalf(1, "%s: %s\n", pipeline.ErrorClass(err), err.Error()) }
		opts:=&pipeline.Options{Out: *out, Shading: *shade, Preview: *jpg, TIFF: *tiff, Gamma: float32(*gamma)}
		res, err:=pipeline.Run(args[1:], opts, cfg, c)
		if err!=nil {
			fmt.Fprintf(logWriter, "%s: %s\n", pipeline.ErrorClass(err), err.Error())
		} else if res.Status!=crrej.StatusOK {
			fmt.Fprintf(logWriter, "Warning: %s\n", res.Status)
		}
		code=pipeline.ExitCode(res, err)

	case "serve":
		c.LogHost()
		if err:=rest.MakeSandbox(*chroot, *setuid, logWriter); err!=nil { logWriter.Fatalf(1, "Error creating sandbox: %s\n", err.Error()) }
		fmt.Fprintf(logWriter, "Serving on %s\n", *addr)
		if err:=rest.Serve(*addr, c); err!=nil {
			fmt.Fprintf(logWriter, "Error serving: %s\n", err.Error())
			code=1
		}

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		code=1
	}

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil { logWriter.Fatalf(1, "Could not create memory profile: %s\n", err.Error()) }
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil { logWriter.Fatalf(1, "Could not write memory profile: %s\n", err.Error()) }
	}

	if args[0]=="reject" {
		fmt.Fprintf(logWriter, "Done after %v\n", time.Since(start))
	}
	if code!=0 {
		pprof.StopCPUProfile()
		logWriter.Close()
		os.Exit(code)
	}
}

// Returns the rejection parameters from the config file, if any, overridden
// by the flags given on the command line. A shading reference file turns on
// shading correction
func loadConfig() (cfg *crrej.Config, err error) {
	cfg=crrej.NewConfigDefault()
	if *config!="" {
		if cfg, err=crrej.LoadConfig(*config); err!=nil { return nil, err }
	}
	if *badBits>math.MaxUint16 { return nil, fmt.Errorf("%w: badBits %d exceeds 16 bits", crrej.ErrInvalidConfig, *badBits) }
	if *crBit  >math.MaxUint16 { return nil, fmt.Errorf("%w: crBit %d exceeds 16 bits", crrej.ErrInvalidConfig, *crBit) }
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "radius":    cfg.Radius   =float32(*radius)
		case "factor":    cfg.Factor   =float32(*factor)
		case "sigmas":    cfg.Sigmas   =*sigmas
		case "scale":     cfg.Scale    =float32(*scale)
		case "initGuess": cfg.InitGuess=*guess
		case "sky":       cfg.Sky      =*sky
		case "badBits":   cfg.BadBits  =uint16(*badBits)
		case "crBit":     cfg.CRBit    =uint16(*crBit)
		case "writeMask": cfg.WriteMask=*writeMask
		case "fill":      cfg.Fill     =float32(*fill)
		}
	})
	if *shade!="" { cfg.Shading=true }
	return cfg, nil
}
