package display

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/agbru/fractalcalc/internal/fractal"
)

// Palette maps kernel scores to colours.
type Palette interface {
	Color(score uint32) color.RGBA
}

// Palette names accepted by NewPalette.
const (
	PaletteClassic = "classic"
	PaletteFire    = "fire"
	PaletteGray    = "gray"
	PaletteARGB    = "argb"
)

var interiorColor = color.RGBA{A: 0xFF}

type stop struct {
	at float64
	c  color.RGBA
}

var gradients = map[string][]stop{
	PaletteClassic: {
		{0, color.RGBA{0, 7, 100, 0xFF}},
		{0.16, color.RGBA{32, 107, 203, 0xFF}},
		{0.42, color.RGBA{237, 255, 255, 0xFF}},
		{0.6425, color.RGBA{255, 170, 0, 0xFF}},
		{0.8575, color.RGBA{0, 2, 0, 0xFF}},
		{1, color.RGBA{0, 7, 100, 0xFF}},
	},
	PaletteFire: {
		{0, color.RGBA{0, 0, 0, 0xFF}},
		{0.3, color.RGBA{180, 20, 0, 0xFF}},
		{0.6, color.RGBA{255, 140, 0, 0xFF}},
		{1, color.RGBA{255, 255, 200, 0xFF}},
	},
	PaletteGray: {
		{0, color.RGBA{0, 0, 0, 0xFF}},
		{1, color.RGBA{255, 255, 255, 0xFF}},
	},
}

// Palettes lists the available palette names, sorted.
func Palettes() []string {
	names := []string{PaletteARGB}
	for name := range gradients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPalette returns the named palette for scores produced with the given
// bias and iteration cap.
func NewPalette(name string, bias uint32, maxIterations int) (Palette, error) {
	if name == PaletteARGB {
		return argbPalette{}, nil
	}
	stops, ok := gradients[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q (available: %v)", name, Palettes())
	}
	if maxIterations <= 0 {
		maxIterations = fractal.DefaultMaxIterations
	}
	g := &gradientPalette{bias: bias, scale: math.Log1p(float64(maxIterations))}
	for i := range g.table {
		g.table[i] = interpolate(stops, float64(i)/float64(len(g.table)-1))
	}
	return g, nil
}

// gradientPalette spreads escape counts over a lookup table on a log scale,
// so the slow-escaping boundary gets most of the colour range.
type gradientPalette struct {
	bias  uint32
	scale float64
	table [256]color.RGBA
}

func (g *gradientPalette) Color(score uint32) color.RGBA {
	if score == fractal.Interior {
		return interiorColor
	}
	n := score - g.bias
	t := math.Log1p(float64(n)) / g.scale
	idx := int(t * float64(len(g.table)-1))
	idx = min(max(idx, 0), len(g.table)-1)
	return g.table[idx]
}

// argbPalette reads each score as a packed 0xAARRGGBB colour. With the
// default bias escaped points come out opaque with the count in blue.
type argbPalette struct{}

func (argbPalette) Color(score uint32) color.RGBA {
	if score == fractal.Interior {
		return interiorColor
	}
	return color.RGBA{
		A: uint8(score >> 24),
		R: uint8(score >> 16),
		G: uint8(score >> 8),
		B: uint8(score),
	}
}

func interpolate(stops []stop, t float64) color.RGBA {
	for i := 1; i < len(stops); i++ {
		if t > stops[i].at {
			continue
		}
		a, b := stops[i-1], stops[i]
		f := (t - a.at) / (b.at - a.at)
		return color.RGBA{
			R: lerp(a.c.R, b.c.R, f),
			G: lerp(a.c.G, b.c.G, f),
			B: lerp(a.c.B, b.c.B, f),
			A: 0xFF,
		}
	}
	return stops[len(stops)-1].c
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
