package view

import "github.com/agbru/fractalcalc/internal/numeric"

// Selection is a device-space rectangle dragged by the user, given by its two
// corner points in any order.
type Selection struct {
	X1, Y1 int
	X2, Y2 int
}

// Width returns the horizontal size of the selection in pixels.
func (s Selection) Width() int { return abs(s.X2 - s.X1) }

// Height returns the vertical size of the selection in pixels.
func (s Selection) Height() int { return abs(s.Y2 - s.Y1) }

// Empty reports whether the selection has no extent along either axis.
func (s Selection) Empty() bool { return s.Width() == 0 || s.Height() == 0 }

// Zoom returns the view shown after the user selects sel on a device d that
// currently displays cur.
//
// A selection with zero width or height is rejected: Zoom returns cur and
// false. Otherwise the view is scaled by
//
//	scale = W / selW   if selW/selH ≥ W/H
//	scale = H / selH   otherwise
//
// both extents are divided by scale, so the whole selection stays visible
// and the pixel aspect is preserved, and the new center is the selection's
// center mapped through cur. The result carries enough precision for the new
// extents.
func Zoom(cur Rectangle, d Device, sel Selection) (Rectangle, bool) {
	if sel.Empty() {
		return cur, false
	}
	selW, selH := sel.Width(), sel.Height()

	// Cross-multiplied to compare aspect ratios in exact integers.
	num, den := selH, d.Height
	if selW*d.Height >= d.Width*selH {
		num, den = selW, d.Width
	}

	work := cur.WithPrec(cur.Width.Prec() + 64)
	ratio := numeric.FromInt(int64(num)).WithPrec(work.Width.Prec()).Quo(numeric.FromInt(int64(den)))
	width := work.Width.Mul(ratio)
	height := work.Height.Mul(ratio)

	prec := max(
		numeric.PrecisionFor(width, d.Width, cur.Width.Prec()),
		numeric.PrecisionFor(height, d.Height, cur.Height.Prec()),
	)
	cx, cy := work.WithPrec(prec+64).atDoubled(sel.X1+sel.X2, sel.Y1+sel.Y2, d)

	next := Rectangle{CenterX: cx, CenterY: cy, Width: width, Height: height}
	return next.WithPrec(prec), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
