// Package numeric provides the number representations used by the escape-time
// kernel.
//
// Two concepts are kept apart:
//
//   - Value is an immutable arbitrary-precision real used to describe views and
//     to map pixels into fractal space. Every operation returns a new Value.
//   - Field is an iteration backend (float64, big.Float, fixed-point big.Int,
//     and GMP under the "gmp" build tag). A Field hands out mutable Orbits that
//     run z ← z² + c at the Field's precision without allocating per step.
//
// PrecisionFor chooses the working precision from the zoom depth so deep views
// keep distinct coordinates for adjacent pixels.
package numeric
