package render

import (
	"github.com/agbru/fractalcalc/internal/view"
)

// Field is a rendered score buffer, row-major, one uint32 per pixel.
type Field struct {
	Device view.Device
	Pixels []uint32
}

// NewField allocates a zeroed field for d.
func NewField(d view.Device) *Field {
	return &Field{Device: d, Pixels: make([]uint32, d.Pixels())}
}

// Row returns the slice backing row y.
func (f *Field) Row(y int) []uint32 {
	w := f.Device.Width
	return f.Pixels[y*w : (y+1)*w : (y+1)*w]
}

// At returns the score of pixel (x, y).
func (f *Field) At(x, y int) uint32 {
	return f.Pixels[y*f.Device.Width+x]
}
