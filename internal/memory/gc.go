// Package memory controls the Go garbage collector around large renders.
package memory

import (
	"math"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/agbru/fractalcalc/internal/metrics"
)

// GCMode controls the garbage collector behavior during a render.
type GCMode string

const (
	GCModeAuto       GCMode = "auto"
	GCModeAggressive GCMode = "aggressive"
	GCModeDisabled   GCMode = "disabled"
)

// GCAutoPixels is the smallest field, in pixels summed over all backends,
// for which auto mode suspends collection.
const GCAutoPixels = 2_000_000

// memoryLimitFactor bounds the heap while collection is off, as a multiple
// of the memory obtained from the OS when the render started.
const memoryLimitFactor = 3

// GCController suspends garbage collection for the duration of a render and
// restores the previous settings afterwards. Row buffers and pixel slices
// are short-lived but numerous; with collection off they are reclaimed in
// one cycle at the end instead of many during the pass.
type GCController struct {
	mode              GCMode
	originalGCPercent int
	active            bool
	logger            zerolog.Logger
	collector         *metrics.MemoryCollector
	start, end        metrics.MemorySnapshot
}

// NewGCController creates a controller for the given mode and total pixel
// count. Unknown modes behave as disabled.
func NewGCController(mode string, pixels int) *GCController {
	gc := &GCController{
		mode:      GCMode(mode),
		logger:    zerolog.Nop(),
		collector: metrics.NewMemoryCollector(),
	}
	switch gc.mode {
	case GCModeAggressive:
		gc.active = true
	case GCModeAuto:
		gc.active = pixels >= GCAutoPixels
	}
	return gc
}

// SetLogger configures the logger for GC control events.
func (gc *GCController) SetLogger(l zerolog.Logger) {
	gc.logger = l
}

// Active reports whether Begin will suspend collection.
func (gc *GCController) Active() bool { return gc.active }

// Begin disables GC if the controller is active, with a soft memory limit
// as a safety net.
func (gc *GCController) Begin() {
	if !gc.active {
		return
	}
	gc.start = gc.collector.Snapshot()
	gc.originalGCPercent = debug.SetGCPercent(-1)
	if gc.start.Sys > 0 {
		if limit := int64(gc.start.Sys) * memoryLimitFactor; limit > 0 {
			debug.SetMemoryLimit(limit)
		}
	}
	gc.logger.Debug().
		Str("mode", string(gc.mode)).
		Uint64("heap_alloc_bytes", gc.start.HeapAlloc).
		Msg("gc disabled")
}

// End restores the original GC settings and triggers a collection.
func (gc *GCController) End() {
	if !gc.active {
		return
	}
	gc.end = gc.collector.Snapshot()
	debug.SetGCPercent(gc.originalGCPercent)
	debug.SetMemoryLimit(math.MaxInt64)
	runtime.GC()
	delta := gc.Stats()
	gc.logger.Debug().
		Str("mode", string(gc.mode)).
		Uint64("heap_alloc_bytes", gc.end.HeapAlloc).
		Uint64("total_alloc_bytes", delta.Allocated).
		Uint32("gc_cycles", delta.GCCycles).
		Msg("gc re-enabled")
}

// Stats returns what changed between Begin and End. It is zero for an
// inactive controller.
func (gc *GCController) Stats() metrics.MemoryDelta {
	if !gc.active {
		return metrics.MemoryDelta{}
	}
	return gc.end.Since(gc.start)
}
