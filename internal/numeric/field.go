package numeric

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"sync"
)

// ErrNonFinite reports that an orbit left the finite numbers (NaN or ±Inf).
var ErrNonFinite = errors.New("numeric: non-finite value in orbit")

// ErrPrecisionExhausted reports a backend too narrow to tell adjacent pixels
// of a view apart.
var ErrPrecisionExhausted = errors.New("numeric: backend precision exhausted")

// Field is an iteration backend at a fixed precision. Implementations are
// safe for concurrent use; the Orbits they return are not.
type Field interface {
	// Name returns the registered backend name.
	Name() string
	// Precision returns the working precision in bits.
	Precision() uint
	// NewOrbit returns a fresh orbit for one goroutine.
	NewOrbit() Orbit
}

// Orbit is the mutable state of z ← z² + c for one point c.
type Orbit interface {
	// Reset sets z = 0 and c = (cx, cy), rounded to the Field's precision.
	Reset(cx, cy Value)
	// Escaped reports |z|² > 4. It also reports true once Err is non-nil so
	// callers stop iterating.
	Escaped() bool
	// Step advances z to z² + c.
	Step()
	// Err returns the first numeric failure since the last Reset.
	Err() error
}

// Constructor builds a Field at the requested precision. Backends with a
// fixed precision ignore the argument.
type Constructor func(prec uint) Field

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register makes a backend available to New. It panics on duplicate names.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("numeric: duplicate backend " + name)
	}
	registry[name] = ctor
}

// New returns the named backend at prec bits.
func New(name string, prec uint) (Field, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown numeric backend %q (available: %v)", name, Backends())
	}
	return ctor(prec), nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(Float64Backend, func(uint) Field { return float64Field{} })
	Register(BigFloatBackend, func(prec uint) Field { return newBigFloatField(prec) })
	Register(FixedBackend, func(prec uint) Field { return newFixedField(prec) })
}

// Backend names.
const (
	Float64Backend  = "float64"
	BigFloatBackend = "bigfloat"
	FixedBackend    = "fixed"
	GMPBackend      = "gmp"
)

// guardBits covers rounding in the affine map and the growth of |z|² up to 4.
const guardBits = 24

// PrecisionFor returns the working precision needed to resolve pixels distinct
// samples across extent, never less than floor. It grows by one bit every time
// the extent halves.
//
// Parameters:
//   - extent: The smaller side of the view in fractal units (must be > 0).
//   - pixels: The number of device pixels spanning that side.
//   - floor: The minimum precision to return.
//
// Returns:
//   - uint: The precision in bits.
func PrecisionFor(extent Value, pixels int, floor uint) uint {
	need := uint(bits.Len(uint(max(pixels, 1)))) + guardBits
	if exp := extent.Exp(); exp < 0 {
		need += uint(-exp)
	}
	return max(need, floor)
}

// ResolvableBits returns the fewest mantissa bits that still give pixels
// adjacent samples across extent distinct values, for points of magnitude up
// to 2. Below it every backend renders bands of identical pixels.
func ResolvableBits(extent Value, pixels int) uint {
	need := uint(bits.Len(uint(max(pixels, 1)))) + 2
	if exp := extent.Exp(); exp < 0 {
		need += uint(-exp)
	}
	return need
}
