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


package crrej

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"strconv"
	"strings"
	"gopkg.in/yaml.v2"
)

// Maximum number of rejection iterations
const MaxIterations = 20

// Data quality flag marking pixels rejected as cosmic rays
const DQCosmicRay = uint16(8192)

// Initial guess for the comparison image of the first iteration
type InitGuess int
const (
	GuessMedian InitGuess = iota
	GuessMinimum
)

func (g InitGuess) String() string {
	switch g {
	case GuessMedian:  return "median"
	case GuessMinimum: return "minimum"
	}
	return fmt.Sprintf("InitGuess(%d)", int(g))
}

// Sky estimation mode
type SkyMode int
const (
	SkyNone SkyMode = iota // use the sky level supplied with each input
	SkyModal               // histogram mode of the good pixels
	SkyMean                // mean of the good pixels
)

func (s SkyMode) String() string {
	switch s {
	case SkyNone:  return "none"
	case SkyModal: return "mode"
	case SkyMean:  return "mean"
	}
	return fmt.Sprintf("SkyMode(%d)", int(s))
}

// Parameters of a rejection run, as given on the command line, in a YAML
// parameter table or in a JSON request
type Config struct {
	Radius    float32 `json:"radius"    yaml:"radius"`    // propagation radius in pixels
	Factor    float32 `json:"factor"    yaml:"factor"`    // propagation factor on the spill threshold, <=0 disables spill
	Sigmas    string  `json:"sigmas"    yaml:"sigmas"`    // comma-separated rejection levels, one per iteration
	Scale     float32 `json:"scale"     yaml:"scale"`     // multiplicative noise in percent
	InitGuess string  `json:"initGuess" yaml:"initGuess"` // "median" or "minimum"
	Sky       string  `json:"sky"       yaml:"sky"`       // "none", "mode" or "mean"
	BadBits   uint16  `json:"badBits"   yaml:"badBits"`   // input quality bits excluding a pixel
	CRBit     uint16  `json:"crBit"     yaml:"crBit"`     // quality bit marking rejected pixels
	Shading   bool    `json:"shading"   yaml:"shading"`   // apply shutter shading correction
	WriteMask bool    `json:"writeMask" yaml:"writeMask"` // write the rejection mask back into the inputs
	Fill      float32 `json:"fill"      yaml:"fill"`      // output value where no input survives
}

func NewConfigDefault() *Config {
	return &Config{
		Radius:    1.5,
		Factor:    0.75,
		Sigmas:    "6,5,4",
		Scale:     0,
		InitGuess: "minimum",
		Sky:       "none",
		BadBits:   0xFFFF &^ DQCosmicRay,
		CRBit:     DQCosmicRay,
		Shading:   false,
		WriteMask: false,
		Fill:      0,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (c *Config) UnmarshalJSON(data []byte) error {
	type defaults Config
	def:=defaults( *NewConfigDefault() )
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*c=Config(def)
	return nil
}

// Loads a YAML parameter table. Missing entries keep their default values
func LoadConfig(fileName string) (*Config, error) {
	c:=NewConfigDefault()
	contents, err:=ioutil.ReadFile(fileName)
	if err!=nil { return nil, fmt.Errorf("%w: read '%s': %s", ErrInvalidConfig, fileName, err.Error()) }
	if err:=yaml.Unmarshal(contents, c); err!=nil {
		return nil, fmt.Errorf("%w: parse '%s': %s", ErrInvalidConfig, fileName, err.Error())
	}
	return c, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("radius %g factor %g sigmas %s scale %g%% initGuess %s sky %s badBits %d crBit %d shading %v writeMask %v fill %g",
		c.Radius, c.Factor, c.Sigmas, c.Scale, c.InitGuess, c.Sky, c.BadBits, c.CRBit, c.Shading, c.WriteMask, c.Fill)
}

// Validated parameters with enumerations resolved
type Params struct {
	Radius    float32   // propagation radius
	Extent    int       // ceil(Radius), rows above and below the center of a window
	Spill     bool      // spill propagation enabled
	Factor2   float32   // squared propagation factor
	Sigmas    []float32
	Scale     float32   // multiplicative noise as a fraction
	Guess     InitGuess
	Sky       SkyMode
	BadBits   uint16
	CRBit     uint16
	Shading   bool
	WriteMask bool
	Fill      float32
}

// Validates the configuration and resolves it into parameters
func (c *Config) Parse() (p *Params, err error) {
	p=&Params{
		Radius:    c.Radius,
		Scale:     c.Scale/100,
		BadBits:   c.BadBits,
		CRBit:     c.CRBit,
		Shading:   c.Shading,
		WriteMask: c.WriteMask,
		Fill:      c.Fill,
	}
	if c.Radius<0 || math.IsNaN(float64(c.Radius)) { 
		return nil, fmt.Errorf("%w: negative propagation radius %g", ErrInvalidConfig, c.Radius) 
	}
	p.Extent=int(math.Ceil(float64(c.Radius)))
	if c.Factor>0 {
		p.Spill, p.Factor2=true, c.Factor*c.Factor
	} else {
		p.Factor2=float32(math.Inf(1))
	}
	if c.Scale<0 { return nil, fmt.Errorf("%w: negative multiplicative noise %g%%", ErrInvalidConfig, c.Scale) }
	if c.CRBit==0 { return nil, fmt.Errorf("%w: cosmic ray quality bit must be non-zero", ErrInvalidConfig) }

	if p.Sigmas, err=ParseSigmas(c.Sigmas); err!=nil { return nil, err }
	if p.Guess, err=ParseInitGuess(c.InitGuess); err!=nil { return nil, err }
	if p.Sky, err=ParseSkyMode(c.Sky); err!=nil { return nil, err }
	return p, nil
}

// Reports whether the configuration is valid
func (c *Config) Validate() error {
	_, err:=c.Parse()
	return err
}

// Parses a comma or space separated schedule of rejection levels
func ParseSigmas(s string) ([]float32, error) {
	fields:=strings.FieldsFunc(s, func(r rune) bool { return r==',' || r==' ' || r=='\t' })
	if len(fields)==0 { return nil, fmt.Errorf("%w: empty sigma schedule", ErrInvalidConfig) }
	if len(fields)>MaxIterations { 
		return nil, fmt.Errorf("%w: %d iterations exceed the maximum of %d", ErrInvalidConfig, len(fields), MaxIterations) 
	}
	sigmas:=make([]float32, len(fields))
	for i, f:=range fields {
		v, err:=strconv.ParseFloat(f, 32)
		if err!=nil { return nil, fmt.Errorf("%w: sigma schedule '%s': %s", ErrInvalidConfig, s, err.Error()) }
		if !(v>0) { return nil, fmt.Errorf("%w: sigma %g must be positive", ErrInvalidConfig, v) }
		sigmas[i]=float32(v)
	}
	return sigmas, nil
}

func ParseInitGuess(s string) (InitGuess, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "median":  return GuessMedian, nil
	case "minimum", "min": return GuessMinimum, nil
	}
	return GuessMedian, fmt.Errorf("%w: unknown initial guess '%s'", ErrInvalidConfig, s)
}

func ParseSkyMode(s string) (SkyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "": return SkyNone, nil
	case "mode":     return SkyModal, nil
	case "mean":     return SkyMean, nil
	}
	return SkyNone, fmt.Errorf("%w: unknown sky mode '%s'", ErrInvalidConfig, s)
}
