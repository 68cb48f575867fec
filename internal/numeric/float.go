package numeric

import "math"

// float64Field iterates in hardware floating point. Its precision is fixed at
// 53 bits, so it is only exact enough for shallow views.
type float64Field struct{}

func (float64Field) Name() string    { return Float64Backend }
func (float64Field) Precision() uint { return 53 }
func (float64Field) NewOrbit() Orbit { return &float64Orbit{} }

type float64Orbit struct {
	x, y, x2, y2 float64
	cx, cy       float64
	err          error
}

func (o *float64Orbit) Reset(cx, cy Value) {
	*o = float64Orbit{cx: cx.Float64(), cy: cy.Float64()}
	if !finite(o.cx) || !finite(o.cy) {
		o.err = ErrNonFinite
	}
}

func (o *float64Orbit) Escaped() bool {
	return o.err != nil || o.x2+o.y2 > 4
}

func (o *float64Orbit) Step() {
	o.y = 2*o.x*o.y + o.cy
	o.x = o.x2 - o.y2 + o.cx
	o.x2 = o.x * o.x
	o.y2 = o.y * o.y
	if !finite(o.x2) || !finite(o.y2) {
		o.err = ErrNonFinite
	}
}

func (o *float64Orbit) Err() error { return o.err }

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
