package numeric

import (
	"fmt"
	"math/big"
)

// DefaultPrec is the mantissa precision of Values built from literals.
const DefaultPrec uint = 64

// Value is an immutable real number backed by a big.Float. The zero Value is 0.
//
// Binary operations round to the larger precision of their operands, never
// less than DefaultPrec.
type Value struct {
	f *big.Float
}

// FromInt returns the Value of i.
func FromInt(i int64) Value {
	return Value{f: new(big.Float).SetPrec(DefaultPrec).SetInt64(i)}
}

// FromFloat returns the Value of x. It panics if x is NaN.
func FromFloat(x float64) Value {
	return Value{f: new(big.Float).SetPrec(DefaultPrec).SetFloat64(x)}
}

// Parse reads a decimal or scientific literal such as "-0.75" or "1e-12".
func Parse(s string) (Value, error) {
	f, _, err := big.ParseFloat(s, 10, DefaultPrec, big.ToNearestEven)
	if err != nil {
		return Value{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return Value{f: f}, nil
}

func (v Value) big() *big.Float {
	if v.f == nil {
		return new(big.Float).SetPrec(DefaultPrec)
	}
	return v.f
}

// Prec returns the mantissa precision in bits.
func (v Value) Prec() uint {
	if v.f == nil {
		return DefaultPrec
	}
	return v.f.Prec()
}

// WithPrec returns v rounded (or widened) to prec bits.
func (v Value) WithPrec(prec uint) Value {
	return Value{f: new(big.Float).SetPrec(prec).Set(v.big())}
}

// Big returns a copy of the underlying big.Float.
func (v Value) Big() *big.Float {
	return new(big.Float).Copy(v.big())
}

func (v Value) op(w Value, fn func(z, x, y *big.Float) *big.Float) Value {
	prec := max(v.Prec(), w.Prec(), DefaultPrec)
	z := new(big.Float).SetPrec(prec)
	fn(z, v.big(), w.big())
	return Value{f: z}
}

// Add returns v + w.
func (v Value) Add(w Value) Value { return v.op(w, (*big.Float).Add) }

// Sub returns v − w.
func (v Value) Sub(w Value) Value { return v.op(w, (*big.Float).Sub) }

// Mul returns v × w.
func (v Value) Mul(w Value) Value { return v.op(w, (*big.Float).Mul) }

// Quo returns v ÷ w. Division of a non-zero value by zero yields ±Inf;
// 0 ÷ 0 panics with big.ErrNaN.
func (v Value) Quo(w Value) Value { return v.op(w, (*big.Float).Quo) }

// Cmp compares v and w and returns -1, 0 or +1.
func (v Value) Cmp(w Value) int { return v.big().Cmp(w.big()) }

// Sign returns -1, 0 or +1 depending on the sign of v.
func (v Value) Sign() int { return v.big().Sign() }

// IsInf reports whether v is an infinity.
func (v Value) IsInf() bool { return v.big().IsInf() }

// Float64 returns the nearest float64.
func (v Value) Float64() float64 {
	f, _ := v.big().Float64()
	return f
}

// Exp returns the binary exponent e such that v = m × 2^e with 0.5 ≤ |m| < 1.
// The exponent of 0 is 0.
func (v Value) Exp() int {
	return v.big().MantExp(nil)
}

// String formats v with enough digits to identify it at its precision.
func (v Value) String() string {
	return v.big().Text('g', int(v.Prec()/3)+1)
}

// Text formats v like big.Float.Text.
func (v Value) Text(format byte, digits int) string {
	return v.big().Text(format, digits)
}
