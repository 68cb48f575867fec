package numeric

import "math/big"

// fixedField iterates in binary fixed point: a real r is held as the integer
// round(r × 2^frac). Multiplication rescales with an arithmetic right shift.
type fixedField struct {
	frac uint
}

func newFixedField(prec uint) Field {
	return fixedField{frac: max(prec, DefaultPrec)}
}

func (f fixedField) Name() string    { return FixedBackend }
func (f fixedField) Precision() uint { return f.frac }

func (f fixedField) NewOrbit() Orbit {
	return &fixedOrbit{
		frac: f.frac,
		x:    new(big.Int), y: new(big.Int),
		x2: new(big.Int), y2: new(big.Int), t: new(big.Int),
		cx: new(big.Int), cy: new(big.Int),
		four: new(big.Int).Lsh(big.NewInt(4), f.frac),
	}
}

// toFixed scales v by 2^frac and truncates toward zero.
func toFixed(z *big.Int, v Value, frac uint) *big.Int {
	src := v.big()
	scaled := new(big.Float).SetPrec(src.Prec() + 64).SetMantExp(src, int(frac))
	scaled.Int(z)
	return z
}

type fixedOrbit struct {
	frac            uint
	x, y, x2, y2, t *big.Int
	cx, cy, four    *big.Int
	err             error
}

func (o *fixedOrbit) Reset(cx, cy Value) {
	o.err = nil
	if cx.IsInf() || cy.IsInf() {
		o.err = ErrNonFinite
		return
	}
	o.x.SetInt64(0)
	o.y.SetInt64(0)
	o.x2.SetInt64(0)
	o.y2.SetInt64(0)
	toFixed(o.cx, cx, o.frac)
	toFixed(o.cy, cy, o.frac)
}

func (o *fixedOrbit) Escaped() bool {
	if o.err != nil {
		return true
	}
	return o.t.Add(o.x2, o.y2).Cmp(o.four) > 0
}

func (o *fixedOrbit) Step() {
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

func (o *fixedOrbit) Err() error { return o.err }
