// Package fractal implements the escape-time kernel: it maps device pixels
// into the complex plane through a view.Rectangle and counts the iterations
// of z ← z² + c until the orbit leaves the radius-2 disc.
//
// Arithmetic is delegated to a numeric.Field chosen per render pass, so the
// same kernel runs on hardware floats for overview renders and on big floats
// or fixed point for deep zooms.
package fractal
