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
	"errors"
	"io/ioutil"
	"math"
	"testing"
	"github.com/mlnoga/crrej/internal/noise"
	"github.com/mlnoga/crrej/internal/ops"
	"github.com/mlnoga/crrej/internal/window"
)

// In-memory stack of images
type memStack struct {
	width, height int
	pix     [][]float32
	dq      [][]uint16
	failRow int         // row whose reads fail, -1 for none
	writes  int
}

func newMemStack(images, width, height int, value float32) *memStack {
	s:=&memStack{width: width, height: height, failRow: -1}
	for k:=0; k<images; k++ {
		pix:=make([]float32, width*height)
		for i:=range pix { pix[i]=value }
		s.pix=append(s.pix, pix)
		s.dq =append(s.dq, make([]uint16, width*height))
	}
	return s
}

func (s *memStack) set(k, x, y int, v float32) {
	s.pix[k][y*s.width+x]=v
}

func (s *memStack) setDQ(k, x, y int, q uint16) {
	s.dq[k][y*s.width+x]=q
}

func (s *memStack) Size(k int) (width, height int) {
	return s.width, s.height
}

func (s *memStack) ReadLine(k, row int, pix []float32, dq []uint16) error {
	if row==s.failRow { return errors.New("disk on fire") }
	o:=row*s.width
	copy(pix, s.pix[k][o:o+s.width])
	copy(dq,  s.dq [k][o:o+s.width])
	return nil
}

func (s *memStack) WriteDQLine(k, row int, dq []uint16) error {
	copy(s.dq[k][row*s.width:], dq)
	s.writes++
	return nil
}

// Constant shading reference
type memShade struct {
	width, height int
	value         float32
}

func (m *memShade) Size() (width, height int) {
	return m.width, m.height
}

func (m *memShade) ReadShadingLine(row int, buf []float32) error {
	for i:=range buf { buf[i]=m.value }
	return nil
}

func uniformInputs(n int, exposure, sky, gain, readNoise float32) []*Input {
	ins:=make([]*Input, n)
	for k:=range ins {
		ins[k]=&Input{ID: k, Exposure: exposure, Sky: sky, Noise: noise.NewUniformModel(gain, readNoise)}
	}
	return ins
}

func testContext() *ops.Context {
	return ops.NewContext(ioutil.Discard)
}

func testConfig(sigmas string, radius, factor float32) *Config {
	cfg:=NewConfigDefault()
	cfg.Sigmas, cfg.Radius, cfg.Factor=sigmas, radius, factor
	return cfg
}

func near(a, b, eps float32) bool {
	return math.Abs(float64(a-b))<=float64(eps)
}

func TestConcreteScenario(t *testing.T) {
	s:=newMemStack(3, 4, 4, 0)
	for k:=0; k<3; k++ {
		for y:=0; y<4; y++ {
			for x:=0; x<4; x++ { s.set(k, x, y, 10+float32((x+y+k)%3)) }
		}
	}
	s.set(0, 2, 2, 1000)
	ins:=uniformInputs(3, 100, 0, 1, 5)
	cfg:=testConfig("4", 1, 3)

	res, err:=Reject(s, ins, nil, cfg, testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if res.Status!=StatusOK { t.Errorf("status=%v; want ok", res.Status) }
	if res.Rejected!=1 { t.Errorf("rejected=%d; want 1", res.Rejected) }
	if res.PerImage[0]!=1 || res.PerImage[1]!=0 || res.PerImage[2]!=0 { t.Errorf("per image=%v; want [1 0 0]", res.PerImage) }
	if !res.Mask.Plane(0).Test(2, 2) || res.Mask.Count(0)!=1 { t.Errorf("mask count=%d; want only (2,2)", res.Mask.Count(0)) }

	sci, _, exp, dq:=res.At(2, 2)
	if !near(sci, 0.22/2, 1e-6) { t.Errorf("sci(2,2)=%g; want 0.11", sci) }
	if exp!=200 { t.Errorf("exp(2,2)=%g; want 200", exp) }
	if dq!=0 { t.Errorf("dq(2,2)=%d; want 0", dq) }

	sci, _, exp, _=res.At(0, 0)
	if !near(sci, 0.33/3, 1e-6) || exp!=300 { t.Errorf("(0,0)=%g %g; want 0.11 300", sci, exp) }
}

func TestSingleUsableImage(t *testing.T) {
	for _, guess:=range []string{"median", "minimum"} {
		s:=newMemStack(3, 6, 5, 0)
		for y:=0; y<5; y++ {
			for x:=0; x<6; x++ { s.set(0, x, y, float32(17+x*x*3+y*7)) }
		}
		s.set(0, 3, 3, 5000)
		ins:=uniformInputs(3, 50, 5, 2, 4)
		ins[1].Exposure, ins[2].Exposure=0, -1
		cfg:=testConfig("6,5,4", 1.5, 0.75)
		cfg.InitGuess=guess

		res, err:=Reject(s, ins, nil, cfg, testContext())
		if err!=nil { t.Fatalf("guess %s: err=%v; want nil", guess, err) }
		if res.Rejected!=0 { t.Errorf("guess %s: rejected=%d; want 0", guess, res.Rejected) }
		if res.Usable!=1 { t.Errorf("guess %s: usable=%d; want 1", guess, res.Usable) }
		for i, v:=range s.pix[0] {
			want:=(v-5)/50
			if !near(res.Sci[i], want, 1e-5*float32(math.Max(1, math.Abs(float64(want))))) {
				t.Errorf("guess %s: sci[%d]=%g; want %g", guess, i, res.Sci[i], want)
			}
		}
	}
}

// A spike of amplitude 100 over a level of 100 with read noise 5 and gain 1
// has a significance of 100/sqrt(125)=8.94
func TestSigmaThreshold(t *testing.T) {
	tcs:=[]struct{
		sigmas string
		hit    bool
	}{
		{"8", true},
		{"8,8", true},
		{"10", false},
		{"10,10", false},
	}
	for _, tc:=range tcs {
		s:=newMemStack(2, 7, 7, 100)
		s.set(0, 3, 3, 200)
		res, err:=Reject(s, uniformInputs(2, 1, 0, 1, 5), nil, testConfig(tc.sigmas, 0, 0), testContext())
		if err!=nil { t.Fatalf("sigmas %s: err=%v; want nil", tc.sigmas, err) }
		if got:=res.Mask.Plane(0).Test(3, 3); got!=tc.hit { t.Errorf("sigmas %s: hit=%v; want %v", tc.sigmas, got, tc.hit) }
		if res.Mask.Count(1)!=0 { t.Errorf("sigmas %s: image 1 count=%d; want 0", tc.sigmas, res.Mask.Count(1)) }
	}
}

// Stack with a hit at (4,4) of image 0 and spill candidates at distance 2
// to the right and below
func spillStack() *memStack {
	s:=newMemStack(3, 9, 9, 100)
	s.set(0, 4, 4, 1100)
	s.set(0, 6, 4, 130)
	s.set(0, 4, 6, 130)
	return s
}

func TestSpillRadiusBoundary(t *testing.T) {
	tcs:=[]struct{
		radius   float32
		factor   float32
		rejected int64
	}{
		{2,    0.5, 3},
		{1.9,  0.5, 1},
		{2.5,  0.5, 3},
		{2,    0,   1},
		{0,    0.5, 1},
	}
	for _, tc:=range tcs {
		s:=spillStack()
		res, err:=Reject(s, uniformInputs(3, 1, 0, 1, 5), nil, testConfig("4", tc.radius, tc.factor), testContext())
		if err!=nil { t.Fatalf("radius %g: err=%v; want nil", tc.radius, err) }
		if res.Rejected!=tc.rejected { t.Errorf("radius %g factor %g: rejected=%d; want %d", tc.radius, tc.factor, res.Rejected, tc.rejected) }
		spilled:=tc.rejected>1
		p:=res.Mask.Plane(0)
		if p.Test(6, 4)!=spilled || p.Test(4, 6)!=spilled { 
			t.Errorf("radius %g: spill (6,4)=%v (4,6)=%v; want %v", tc.radius, p.Test(6, 4), p.Test(4, 6), spilled) 
		}
		if _, _, exp, _:=res.At(6, 4); spilled && exp!=2 { t.Errorf("radius %g: exp(6,4)=%g; want 2", tc.radius, exp) }
	}
}

func TestHitNotDowngraded(t *testing.T) {
	s:=newMemStack(3, 9, 9, 100)
	s.set(0, 4, 3, 1100)
	s.set(0, 4, 4, 1100)
	s.set(0, 4, 5, 130)
	r, err:=newRun(s, uniformInputs(3, 1, 0, 1, 5), nil, testConfig("4", 1.5, 0.5), testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if err:=r.estimateSky(); err!=nil { t.Fatal(err) }
	if err:=r.initialGuess(); err!=nil { t.Fatal(err) }
	r.sigma, r.minimum, r.final=4, true, true

	im:=r.images[0]
	if err:=im.win.Init(r.height, im); err!=nil { t.Fatal(err) }
	for line:=0; line<=4; line++ {
		if line>0 {
			if err:=im.win.Advance(line, r.height, im); err!=nil { t.Fatal(err) }
		}
		if err:=r.detect(im, line); err!=nil { t.Fatal(err) }
		if line==3 {
			if m:=im.win.Mask(3)[4]; m!=window.Spill { t.Errorf("line 3: mask(4,4)=%v; want spill", m) }
		}
	}
	w:=im.win
	if m:=w.Mask(1)[4]; m!=window.Hit   { t.Errorf("mask(4,3)=%v; want hit", m) }
	if m:=w.Mask(2)[4]; m!=window.Hit   { t.Errorf("mask(4,4)=%v; want hit", m) }
	if m:=w.Mask(3)[4]; m!=window.Spill { t.Errorf("mask(4,5)=%v; want spill", m) }
	if m:=w.Mask(2)[3]; m!=window.OK    { t.Errorf("mask(3,4)=%v; want ok", m) }

	res, err:=Reject(s, uniformInputs(3, 1, 0, 1, 5), nil, testConfig("4", 1.5, 0.5), testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if res.Rejected!=3 { t.Errorf("rejected=%d; want 3", res.Rejected) }
}

func TestSpillNotExcluded(t *testing.T) {
	s:=newMemStack(3, 9, 9, 100)
	s.set(0, 4, 3, 1100)
	s.set(0, 4, 4, 130)
	s.setDQ(0, 4, 4, 4)
	s.setDQ(0, 7, 7, 4)
	res, err:=Reject(s, uniformInputs(3, 1, 0, 1, 5), nil, testConfig("4", 1.5, 0.5), testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if res.Rejected!=2 { t.Errorf("rejected=%d; want 2", res.Rejected) }
	if !res.Mask.Plane(0).Test(4, 4) { t.Errorf("spilled bad pixel (4,4) not flagged") }
	if res.Mask.Plane(0).Test(7, 7) { t.Errorf("excluded pixel (7,7) flagged") }
	if _, _, exp, _:=res.At(7, 7); exp!=2 { t.Errorf("exp(7,7)=%g; want 2", exp) }
}

func TestEdgeHits(t *testing.T) {
	s:=newMemStack(3, 5, 5, 100)
	s.set(0, 0, 0, 1100)
	s.set(0, 1, 0, 130)
	s.set(0, 0, 1, 130)
	s.set(0, 1, 1, 130)
	s.set(0, 4, 4, 1100)
	s.set(0, 3, 4, 130)
	res, err:=Reject(s, uniformInputs(3, 1, 0, 1, 5), nil, testConfig("4", 1.5, 0.5), testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if res.Rejected!=6 { t.Errorf("rejected=%d; want 6", res.Rejected) }
	p:=res.Mask.Plane(0)
	for _, xy:=range [][2]int{{0,0}, {1,0}, {0,1}, {1,1}, {3,4}, {4,4}} {
		if !p.Test(xy[0], xy[1]) { t.Errorf("(%d,%d) not flagged", xy[0], xy[1]) }
	}
}

func TestAccumulation(t *testing.T) {
	s:=newMemStack(2, 3, 3, 0)
	for y:=0; y<3; y++ {
		for x:=0; x<3; x++ {
			s.set(0, x, y, float32(200+x))
			s.set(1, x, y, float32(100+y))
		}
	}
	s.setDQ(0, 1, 1, 4)
	s.setDQ(1, 1, 1, 4)
	s.setDQ(0, 0, 2, 2)
	ins:=uniformInputs(2, 100, 0, 1, 5)
	ins[1].Exposure=50
	cfg:=testConfig("6", 1, 1)
	cfg.BadBits, cfg.Fill=4, -7

	res, err:=Reject(s, ins, nil, cfg, testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if res.Rejected!=0 { t.Errorf("rejected=%d; want 0", res.Rejected) }
	for y:=0; y<3; y++ {
		for x:=0; x<3; x++ {
			sci, e, exp, dq:=res.At(x, y)
			if x==1 && y==1 {
				if sci!=-7 || e!=-7 || exp!=0 || dq!=DQCosmicRay { 
					t.Errorf("(1,1)=%g %g %g %d; want -7 -7 0 %d", sci, e, exp, dq, DQCosmicRay) 
				}
				continue
			}
			c0, c1:=float32(200+x), float32(100+y)
			if want:=(c0+c1)/150; !near(sci, want, 1e-5) { t.Errorf("sci(%d,%d)=%g; want %g", x, y, sci, want) }
			if want:=float32(math.Sqrt(float64(50+c0+c1)))/150; !near(e, want, 1e-5) { t.Errorf("err(%d,%d)=%g; want %g", x, y, e, want) }
			if exp!=150 { t.Errorf("exp(%d,%d)=%g; want 150", x, y, exp) }
			wantDQ:=uint16(0)
			if x==0 && y==2 { wantDQ=2 }
			if dq!=wantDQ { t.Errorf("dq(%d,%d)=%d; want %d", x, y, dq, wantDQ) }
		}
	}
}

func TestNoUsableInput(t *testing.T) {
	s:=newMemStack(2, 4, 3, 10)
	cfg:=NewConfigDefault()
	cfg.Fill=-1
	res, err:=Reject(s, uniformInputs(2, 0, 0, 1, 5), nil, cfg, testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if res.Status!=StatusNoUsableInput { t.Errorf("status=%v; want no usable input", res.Status) }
	for i:=range res.Sci {
		if res.Sci[i]!=-1 || res.DQ[i]!=DQCosmicRay { t.Errorf("pixel %d=%g %d; want -1 %d", i, res.Sci[i], res.DQ[i], DQCosmicRay) }
	}
}

func TestFatalErrors(t *testing.T) {
	ins:=uniformInputs(2, 1, 0, 1, 5)

	mismatch:=newMemStack(2, 4, 4, 1)
	if _, err:=Reject(&sizedStack{mismatch, [][2]int{{4,4}, {4,3}}}, ins, nil, NewConfigDefault(), testContext()); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("size mismatch: err=%v; want %v", err, ErrSizeMismatch)
	}

	bad:=NewConfigDefault()
	bad.Sigmas=""
	if _, err:=Reject(newMemStack(2, 4, 4, 1), ins, nil, bad, testContext()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty schedule: err=%v; want %v", err, ErrInvalidConfig)
	}
	if _, err:=Reject(newMemStack(2, 4, 4, 1), nil, nil, NewConfigDefault(), testContext()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("no inputs: err=%v; want %v", err, ErrInvalidConfig)
	}
	shaded:=NewConfigDefault()
	shaded.Shading=true
	if _, err:=Reject(newMemStack(2, 4, 4, 1), ins, nil, shaded, testContext()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("shading without reference: err=%v; want %v", err, ErrInvalidConfig)
	}
	if _, err:=Reject(newMemStack(2, 4, 4, 1), ins, &memShade{3, 4, 1}, shaded, testContext()); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("shading size: err=%v; want %v", err, ErrSizeMismatch)
	}

	failing:=newMemStack(2, 4, 4, 1)
	failing.failRow=2
	if _, err:=Reject(failing, ins, nil, NewConfigDefault(), testContext()); !errors.Is(err, ErrIO) {
		t.Errorf("read failure: err=%v; want %v", err, ErrIO)
	}

	huge:=&sizedStack{newMemStack(0, 0, 0, 0), nil}
	for k:=0; k<10; k++ { huge.sizes=append(huge.sizes, [2]int{10000, 10000}) }
	c:=testContext()
	c.BudgetMB=1
	if _, err:=Reject(huge, uniformInputs(10, 1, 0, 1, 5), nil, NewConfigDefault(), c); !errors.Is(err, ErrAllocation) {
		t.Errorf("budget: err=%v; want %v", err, ErrAllocation)
	}
}

// Stack reporting fixed sizes per image
type sizedStack struct {
	*memStack
	sizes [][2]int
}

func (s *sizedStack) Size(k int) (width, height int) {
	return s.sizes[k][0], s.sizes[k][1]
}

func TestWriteBack(t *testing.T) {
	s:=newMemStack(3, 4, 4, 10)
	s.set(0, 2, 2, 1000)
	s.setDQ(0, 2, 2, 16)
	s.setDQ(1, 1, 1, 32)
	cfg:=testConfig("4", 1, 3)
	cfg.WriteMask, cfg.BadBits=true, 1

	if _, err:=Reject(s, uniformInputs(3, 100, 0, 1, 5), nil, cfg, testContext()); err!=nil { t.Fatalf("err=%v; want nil", err) }
	if s.writes!=12 { t.Errorf("writes=%d; want 12", s.writes) }
	for k:=0; k<3; k++ {
		for i, q:=range s.dq[k] {
			want:=uint16(0)
			switch {
			case k==0 && i==2*4+2: want=16|DQCosmicRay
			case k==1 && i==1*4+1: want=32
			}
			if q!=want { t.Errorf("image %d dq[%d]=%d; want %d", k, i, q, want) }
		}
	}
}

func TestRateUnits(t *testing.T) {
	s:=newMemStack(1, 3, 2, 5)
	ins:=uniformInputs(1, 10, 20, 1, 5)
	ins[0].Units=UnitsRate
	res, err:=Reject(s, ins, nil, NewConfigDefault(), testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	for i, v:=range res.Sci {
		if !near(v, 3, 1e-5) { t.Errorf("sci[%d]=%g; want 3", i, v) }
	}
	if ins[0].Units!=UnitsRate || ins[0].Sky!=20 { t.Errorf("input modified: %v", ins[0]) }
}

func TestSkyMean(t *testing.T) {
	s:=newMemStack(2, 16, 16, 50)
	s.set(1, 3, 3, 1000)
	s.setDQ(1, 3, 3, 2)
	cfg:=NewConfigDefault()
	cfg.Sky="mean"
	res, err:=Reject(s, uniformInputs(2, 1, 0, 1, 5), nil, cfg, testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	for k, sky:=range res.Sky {
		if !near(sky, 50, 1e-4) { t.Errorf("sky[%d]=%g; want 50", k, sky) }
	}
	for i, v:=range res.Sci {
		if !near(v, 0, 1e-4) { t.Errorf("sci[%d]=%g; want 0", i, v) }
	}
}

func TestShading(t *testing.T) {
	s:=newMemStack(1, 4, 4, 110)
	cfg:=NewConfigDefault()
	cfg.Shading=true
	res, err:=Reject(s, uniformInputs(1, 100, 0, 1, 5), &memShade{4, 4, 10}, cfg, testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if res.Rejected!=0 { t.Errorf("rejected=%d; want 0", res.Rejected) }
	for i, v:=range res.Sci {
		if !near(v, 1, 1e-5) { t.Errorf("sci[%d]=%g; want 1", i, v) }
	}
}

func TestNaNPixel(t *testing.T) {
	nan:=float32(math.NaN())
	for _, guess:=range []string{"median", "minimum"} {
		s:=newMemStack(3, 4, 4, 10)
		s.set(1, 1, 1, nan)
		for k:=0; k<3; k++ { s.set(k, 3, 3, nan) }
		cfg:=testConfig("6,5", 1.5, 0.75)
		cfg.InitGuess, cfg.Fill=guess, -1

		res, err:=Reject(s, uniformInputs(3, 100, 0, 1, 5), nil, cfg, testContext())
		if err!=nil { t.Fatalf("guess %s: err=%v; want nil", guess, err) }
		if res.Rejected!=0 { t.Errorf("guess %s: rejected=%d; want 0", guess, res.Rejected) }
		for i, v:=range res.Sci {
			if v!=v { t.Errorf("guess %s: sci[%d] is NaN", guess, i) }
		}
		if sci, _, exp, _:=res.At(1, 1); !near(sci, 0.1, 1e-6) || exp!=200 {
			t.Errorf("guess %s: (1,1)=%g %g; want 0.1 200", guess, sci, exp)
		}
		if sci, _, exp, dq:=res.At(3, 3); sci!=-1 || exp!=0 || dq!=DQCosmicRay {
			t.Errorf("guess %s: (3,3)=%g %g %d; want fill -1, 0, %d", guess, sci, exp, dq, DQCosmicRay)
		}
	}
}

// Level 10000 with read noise 5 and 10% multiplicative noise. The neighbor
// deviates by 1000, which is 2.5 sigma of the full noise but 10 sigma of the
// noise without the multiplicative term
func TestScaleNotInSpill(t *testing.T) {
	tcs:=[]struct{
		factor   float32
		rejected int64
	}{
		{1, 2},
		{0, 1},
	}
	for _, tc:=range tcs {
		s:=newMemStack(3, 9, 9, 10000)
		s.set(0, 4, 4, 30000)
		s.set(0, 5, 4, 11000)
		cfg:=testConfig("4", 1.5, tc.factor)
		cfg.InitGuess, cfg.Scale="median", 10

		res, err:=Reject(s, uniformInputs(3, 1, 0, 1, 5), nil, cfg, testContext())
		if err!=nil { t.Fatalf("factor %g: err=%v; want nil", tc.factor, err) }
		if res.Rejected!=tc.rejected { t.Errorf("factor %g: rejected=%d; want %d", tc.factor, res.Rejected, tc.rejected) }
		if got:=res.Mask.Plane(0).Test(5, 4); got!=(tc.rejected==2) { t.Errorf("factor %g: neighbor flagged=%v", tc.factor, got) }
	}
}

// Amplifier A left of column 5 has read noise 1, amplifier B right of it 50.
// At level 100 a spike of 100 is 9.95 sigma on A and 1.96 sigma on B
func TestAmplifierNoise(t *testing.T) {
	m, err:=noise.NewModel("AB", [4]float32{1, 1, 1, 1}, [4]float32{1, 50, 1, 1}, 5, 0)
	if err!=nil { t.Fatal(err) }
	ins:=uniformInputs(3, 1, 0, 1, 5)
	for _, in:=range ins { in.Noise=m }
	s:=newMemStack(3, 10, 5, 100)
	s.set(0, 2, 2, 200)
	s.set(0, 7, 2, 200)
	cfg:=testConfig("5", 0, 0)
	cfg.InitGuess="median"

	res, err:=Reject(s, ins, nil, cfg, testContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	p:=res.Mask.Plane(0)
	if !p.Test(2, 2) { t.Errorf("spike on low noise amplifier not flagged") }
	if p.Test(7, 2)  { t.Errorf("spike on high noise amplifier flagged") }
	if res.Rejected!=1 { t.Errorf("rejected=%d; want 1", res.Rejected) }
}
