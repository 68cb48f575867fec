package fractal

import (
	"fmt"
	"math"

	"github.com/agbru/fractalcalc/internal/numeric"
	"github.com/agbru/fractalcalc/internal/view"
)

const (
	// DefaultMaxIterations is the iteration cap for points that never escape.
	DefaultMaxIterations = 1000
	// DefaultBias is added to every escaped score. As a packed ARGB value it
	// is opaque black.
	DefaultBias uint32 = 0xFF000000
	// Interior is the score of points that never escape.
	Interior uint32 = 0
)

// Options tunes the kernel scoring.
type Options struct {
	// MaxIterations caps the orbit length. Zero selects DefaultMaxIterations.
	MaxIterations int
	// Bias is added to the iteration count of escaped points.
	Bias uint32
	// Shade adds a faint gradient to escaped pixels that fades as the view
	// is magnified.
	Shade bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{MaxIterations: DefaultMaxIterations, Bias: DefaultBias}
}

// Validate reports options whose escaped scores would overflow uint32 and
// wrap around to Interior.
func (o Options) Validate() error {
	iterations := o.MaxIterations
	if iterations <= 0 {
		iterations = DefaultMaxIterations
	}
	if uint64(o.Bias)+uint64(iterations) > math.MaxUint32 {
		return fmt.Errorf("bias %#x plus %d iterations overflows the 32-bit score", o.Bias, iterations)
	}
	return nil
}

// Kernel evaluates escape-time scores in one numeric.Field. A Kernel is
// immutable and may be shared by every worker of a render pass; per-goroutine
// state lives in the Evaluators it creates.
type Kernel struct {
	field numeric.Field
	opts  Options
}

// NewKernel returns a kernel computing in field.
func NewKernel(field numeric.Field, opts Options) *Kernel {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Kernel{field: field, opts: opts}
}

// Field returns the numeric backend of the kernel.
func (k *Kernel) Field() numeric.Field { return k.field }

// MaxIterations returns the configured iteration cap.
func (k *Kernel) MaxIterations() int { return k.opts.MaxIterations }

// Score converts an orbit outcome into the pixel value: Interior for points
// that never escaped, Bias + n for points that escaped after n iterations.
// Scores saturate at math.MaxUint32 for options that fail Validate.
func (k *Kernel) Score(n int, escaped bool) uint32 {
	if !escaped {
		return Interior
	}
	score := uint64(k.opts.Bias) + uint64(n)
	if score > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(score)
}

// Evaluate returns the score of pixel (px, py) of d under view v.
// It allocates a fresh orbit; use an Evaluator to score many pixels.
func (k *Kernel) Evaluate(px, py int, v view.Rectangle, d view.Device) (uint32, error) {
	return k.NewEvaluator().Evaluate(px, py, v, d)
}

// Evaluator scores pixels with a reusable orbit. It is not safe for
// concurrent use.
type Evaluator struct {
	k     *Kernel
	orbit numeric.Orbit
}

// NewEvaluator returns an Evaluator bound to k.
func (k *Kernel) NewEvaluator() *Evaluator {
	return &Evaluator{k: k, orbit: k.field.NewOrbit()}
}

// Escape iterates c = (cx, cy) and returns the number of completed steps and
// whether |z|² exceeded 4 before MaxIterations steps. It stops at the first
// numeric failure and returns it.
func (e *Evaluator) Escape(cx, cy numeric.Value) (n int, escaped bool, err error) {
	o := e.orbit
	o.Reset(cx, cy)
	limit := e.k.opts.MaxIterations
	for n < limit {
		if o.Escaped() {
			escaped = true
			break
		}
		o.Step()
		n++
	}
	if err := o.Err(); err != nil {
		return n, false, err
	}
	return n, escaped, nil
}

// Evaluate returns the score of pixel (px, py) of d under view v.
func (e *Evaluator) Evaluate(px, py int, v view.Rectangle, d view.Device) (uint32, error) {
	cx, cy := v.At(px, py, d)
	n, escaped, err := e.Escape(cx, cy)
	if err != nil {
		return 0, err
	}
	score := e.k.Score(n, escaped)
	if escaped && e.k.opts.Shade {
		score += shade(px, v.Magnification(d))
	}
	return score, nil
}

// EvaluateRow scores every pixel of row py into dst, which must hold
// d.Width values. The imaginary part is mapped once for the whole row.
func (e *Evaluator) EvaluateRow(py int, v view.Rectangle, d view.Device, dst []uint32) error {
	cy := v.Row(py, d)
	mag := 0.0
	if e.k.opts.Shade {
		mag = v.Magnification(d)
	}
	for px := range dst[:d.Width] {
		n, escaped, err := e.Escape(v.Column(px, d), cy)
		if err != nil {
			return err
		}
		score := e.k.Score(n, escaped)
		if escaped && e.k.opts.Shade {
			score += shade(px, mag)
		}
		dst[px] = score
	}
	return nil
}

// shade is a horizontal gradient of a few units that flattens with
// magnification.
func shade(px int, magnification float64) uint32 {
	if magnification <= 0 || math.IsInf(magnification, 0) {
		return 0
	}
	return uint32(2 * math.Sqrt(float64(px)/magnification))
}
