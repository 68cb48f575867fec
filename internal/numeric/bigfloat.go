package numeric

import (
	"fmt"
	"math/big"
)

// bigFloatField iterates with math/big floats at a caller-chosen precision.
type bigFloatField struct {
	prec uint
}

func newBigFloatField(prec uint) Field {
	return bigFloatField{prec: max(prec, DefaultPrec)}
}

func (f bigFloatField) Name() string    { return BigFloatBackend }
func (f bigFloatField) Precision() uint { return f.prec }

func (f bigFloatField) NewOrbit() Orbit {
	n := func() *big.Float { return new(big.Float).SetPrec(f.prec) }
	return &bigFloatOrbit{
		x: n(), y: n(), x2: n(), y2: n(), t: n(),
		cx: n(), cy: n(),
		four: n().SetInt64(4),
	}
}

type bigFloatOrbit struct {
	x, y, x2, y2, t *big.Float
	cx, cy, four    *big.Float
	err             error
}

func (o *bigFloatOrbit) Reset(cx, cy Value) {
	o.err = nil
	o.x.SetInt64(0)
	o.y.SetInt64(0)
	o.x2.SetInt64(0)
	o.y2.SetInt64(0)
	o.cx.Set(cx.big())
	o.cy.Set(cy.big())
	if o.cx.IsInf() || o.cy.IsInf() {
		o.err = ErrNonFinite
	}
}

func (o *bigFloatOrbit) Escaped() bool {
	if o.err != nil {
		return true
	}
	return o.t.Add(o.x2, o.y2).Cmp(o.four) > 0
}

func (o *bigFloatOrbit) Step() {
	defer func() {
		if r := recover(); r != nil {
			nan, ok := r.(big.ErrNaN)
			if !ok {
				panic(r)
			}
			o.err = fmt.Errorf("%w: %s", ErrNonFinite, nan.Error())
		}
	}()
	o.t.Mul(o.x, o.y)
	o.y.Add(o.t, o.t)
	o.y.Add(o.y, o.cy)
	o.x.Sub(o.x2, o.y2)
	o.x.Add(o.x, o.cx)
	o.x2.Mul(o.x, o.x)
	o.y2.Mul(o.y, o.y)
	if o.x2.IsInf() || o.y2.IsInf() {
		o.err = ErrNonFinite
	}
}

func (o *bigFloatOrbit) Err() error { return o.err }
