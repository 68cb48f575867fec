// Package view describes which part of the complex plane is rendered onto
// which pixel grid, and how user selections turn into new views.
//
// Rectangles are immutable values. A render pass copies the Rectangle it was
// started with, so a zoom that lands while rows are still computing cannot
// affect that pass.
package view

import (
	"fmt"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/numeric"
)

// Device is the pixel grid a view is rendered onto.
type Device struct {
	Width  int
	Height int
}

// Validate checks that both dimensions are positive.
func (d Device) Validate() error {
	if d.Width <= 0 {
		return apperrors.ValidationError{Field: "width", Message: fmt.Sprintf("must be positive, got %d", d.Width)}
	}
	if d.Height <= 0 {
		return apperrors.ValidationError{Field: "height", Message: fmt.Sprintf("must be positive, got %d", d.Height)}
	}
	return nil
}

// Pixels returns Width × Height.
func (d Device) Pixels() int { return d.Width * d.Height }

func (d Device) String() string { return fmt.Sprintf("%dx%d", d.Width, d.Height) }

// Rectangle is the window of the complex plane mapped onto a Device: a
// center point and the extents along each axis. The imaginary axis points up,
// so device row 0 is the top edge.
type Rectangle struct {
	CenterX numeric.Value
	CenterY numeric.Value
	Width   numeric.Value
	Height  numeric.Value
}

// New returns a Rectangle after checking that both extents are positive.
func New(centerX, centerY, width, height numeric.Value) (Rectangle, error) {
	if width.Sign() <= 0 || width.IsInf() {
		return Rectangle{}, apperrors.ValidationError{Field: "view width", Message: "must be positive and finite, got " + width.String()}
	}
	if height.Sign() <= 0 || height.IsInf() {
		return Rectangle{}, apperrors.ValidationError{Field: "view height", Message: "must be positive and finite, got " + height.String()}
	}
	return Rectangle{CenterX: centerX, CenterY: centerY, Width: width, Height: height}, nil
}

// Full returns the reset view for d: centered on -0.5+0i and large enough to
// show the whole set ([-2.25, 1.25] × [-1.5, 1.5]) at square pixels.
func Full(d Device) Rectangle {
	w, h := numeric.FromFloat(3.5), numeric.FromInt(3)
	pw, ph := numeric.FromInt(int64(d.Width)), numeric.FromInt(int64(d.Height))
	// Grow one axis so the fractal aspect matches the device aspect.
	if d.Width*6 >= d.Height*7 {
		w = h.Mul(pw).Quo(ph)
	} else {
		h = w.Mul(ph).Quo(pw)
	}
	return Rectangle{CenterX: numeric.FromFloat(-0.5), CenterY: numeric.FromInt(0), Width: w, Height: h}
}

// At maps pixel (px, py) of d to a point of the complex plane:
//
//	x = CenterX + (2·px − W)·Width / (2·W)
//	y = CenterY + (H − 2·py)·Height / (2·H)
//
// The device center maps exactly to the view center.
func (r Rectangle) At(px, py int, d Device) (x, y numeric.Value) {
	return r.atDoubled(2*px, 2*py, d)
}

// atDoubled is At with pixel coordinates given at twice their value, so half
// pixels (selection centers) map without rounding.
func (r Rectangle) atDoubled(px2, py2 int, d Device) (x, y numeric.Value) {
	x = r.CenterX.Add(numeric.FromInt(int64(px2 - d.Width)).Mul(r.Width).Quo(numeric.FromInt(int64(2 * d.Width))))
	y = r.CenterY.Add(numeric.FromInt(int64(d.Height - py2)).Mul(r.Height).Quo(numeric.FromInt(int64(2 * d.Height))))
	return x, y
}

// Row maps only the imaginary part of row py.
func (r Rectangle) Row(py int, d Device) numeric.Value {
	return r.CenterY.Add(numeric.FromInt(int64(d.Height - 2*py)).Mul(r.Height).Quo(numeric.FromInt(int64(2 * d.Height))))
}

// Column maps only the real part of column px.
func (r Rectangle) Column(px int, d Device) numeric.Value {
	return r.CenterX.Add(numeric.FromInt(int64(2*px - d.Width)).Mul(r.Width).Quo(numeric.FromInt(int64(2 * d.Width))))
}

// Precision returns the bits needed to keep adjacent pixels of d distinct
// in this view, never less than floor.
func (r Rectangle) Precision(d Device, floor uint) uint {
	return max(
		numeric.PrecisionFor(r.Width, d.Width, floor),
		numeric.PrecisionFor(r.Height, d.Height, floor),
	)
}

// ResolvableBits returns the fewest bits a backend needs to give adjacent
// pixels of d distinct coordinates in this view.
func (r Rectangle) ResolvableBits(d Device) uint {
	return max(
		numeric.ResolvableBits(r.Width, d.Width),
		numeric.ResolvableBits(r.Height, d.Height),
	)
}

// WithPrec returns r with every component rounded or widened to prec bits.
func (r Rectangle) WithPrec(prec uint) Rectangle {
	return Rectangle{
		CenterX: r.CenterX.WithPrec(prec),
		CenterY: r.CenterY.WithPrec(prec),
		Width:   r.Width.WithPrec(prec),
		Height:  r.Height.WithPrec(prec),
	}
}

// Magnification returns how many times narrower r is than the reset view
// for d, as a float64 for display.
func (r Rectangle) Magnification(d Device) float64 {
	return Full(d).Width.Quo(r.Width).Float64()
}

// String formats r the way the render log reports a pass.
func (r Rectangle) String() string {
	return fmt.Sprintf("Size: %sx%s, Position: %s,%s",
		r.Width.Text('g', 6), r.Height.Text('g', 6), r.CenterX.Text('g', 10), r.CenterY.Text('g', 10))
}
