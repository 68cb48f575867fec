//go:generate mockgen -source=display.go -destination=mocks/mock_display.go -package=mocks

// Package display hands rendered fields to whatever shows them: an image
// file on disk or the terminal preview of the explorer.
package display

import (
	"github.com/agbru/fractalcalc/internal/render"
)

// Display presents the outcome of a render pass. Exactly one of Present or
// PresentError is called per pass; a failed pass never produces a partial
// image.
type Display interface {
	// Present shows a completed field.
	Present(f *render.Field) error
	// PresentError reports a pass that was aborted.
	PresentError(err error)
}
