package orchestration

import (
	"fmt"
	"io"
	"slices"

	"github.com/agbru/fractalcalc/internal/view"
)

// AllBackends selects every registered backend.
const AllBackends = "all"

// GetBackendsToRun determines which backends should be executed. "all"
// selects every available backend in sorted order; an unknown name selects
// none.
//
// Parameters:
//   - backend: The configured backend name, or "all".
//   - available: The registered backends.
//
// Returns:
//   - []string: The backends to run.
func GetBackendsToRun(backend string, available []string) []string {
	if backend == AllBackends {
		names := slices.Clone(available)
		slices.Sort(names)
		return names
	}
	if slices.Contains(available, backend) {
		return []string{backend}
	}
	return nil
}

// ResolveView applies zooms, in order, to the full view of d. A selection
// too small to zoom into is reported on out and skipped.
func ResolveView(d view.Device, zooms []view.Selection, out io.Writer) view.Rectangle {
	v := view.Full(d)
	for _, sel := range zooms {
		next, ok := view.Zoom(v, d, sel)
		if !ok {
			fmt.Fprintln(out, "Section too small, ignoring zoom")
			continue
		}
		v = next
	}
	return v
}
