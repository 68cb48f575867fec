//go:build gmp

package numeric

import (
	"math/big"

	"github.com/ncw/gmp"
)

// gmpField is the fixed-point backend on libgmp integers. It is registered
// only in binaries built with -tags gmp.
type gmpField struct {
	frac uint
}

func init() {
	Register(GMPBackend, func(prec uint) Field { return gmpField{frac: max(prec, DefaultPrec)} })
}

func (f gmpField) Name() string    { return GMPBackend }
func (f gmpField) Precision() uint { return f.frac }

func (f gmpField) NewOrbit() Orbit {
	return &gmpOrbit{
		frac: f.frac,
		x:    new(gmp.Int), y: new(gmp.Int),
		x2: new(gmp.Int), y2: new(gmp.Int), t: new(gmp.Int),
		cx: new(gmp.Int), cy: new(gmp.Int),
		four: new(gmp.Int).Lsh(gmp.NewInt(4), f.frac),
	}
}

type gmpOrbit struct {
	frac            uint
	x, y, x2, y2, t *gmp.Int
	cx, cy, four    *gmp.Int
	err             error
}

func (o *gmpOrbit) load(z *gmp.Int, v Value) {
	var b big.Int
	toFixed(&b, v, o.frac)
	z.SetString(b.String(), 10)
}

func (o *gmpOrbit) Reset(cx, cy Value) {
	o.err = nil
	if cx.IsInf() || cy.IsInf() {
		o.err = ErrNonFinite
		return
	}
	o.x.SetInt64(0)
	o.y.SetInt64(0)
	o.x2.SetInt64(0)
	o.y2.SetInt64(0)
	o.load(o.cx, cx)
	o.load(o.cy, cy)
}

func (o *gmpOrbit) Escaped() bool {
	if o.err != nil {
		return true
	}
	return o.t.Add(o.x2, o.y2).Cmp(o.four) > 0
}

func (o *gmpOrbit) Step() {
	o.t.Mul(o.x, o.y)
	o.t.Rsh(o.t, o.frac-1)
	o.y.Add(o.t, o.cy)
	o.x.Sub(o.x2, o.y2)
	o.x.Add(o.x, o.cx)
	o.x2.Mul(o.x, o.x)
	o.x2.Rsh(o.x2, o.frac)
	o.y2.Mul(o.y, o.y)
	o.y2.Rsh(o.y2, o.frac)
}

func (o *gmpOrbit) Err() error { return o.err }
