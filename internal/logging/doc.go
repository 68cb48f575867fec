// Package logging provides a unified logging interface for the fractal renderer.
// It abstracts the underlying logging implementation so the pool, the
// distributor and the render engine log through the same structured fields
// whether the backend is zerolog or the standard library logger.
package logging
