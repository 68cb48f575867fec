package memory

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

var allocSink [][]byte

func TestNewGCController_Modes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mode   string
		pixels int
		active bool
	}{
		{"aggressive", 1, true},
		{"auto", GCAutoPixels, true},
		{"auto", GCAutoPixels - 1, false},
		{"disabled", 10 * GCAutoPixels, false},
		{"bogus", 10 * GCAutoPixels, false},
	}
	for _, tt := range tests {
		gc := NewGCController(tt.mode, tt.pixels)
		if gc.Active() != tt.active {
			t.Errorf("NewGCController(%q, %d).Active() = %v, want %v", tt.mode, tt.pixels, gc.Active(), tt.active)
		}
	}
}

func TestGCController_InactiveIsNoop(t *testing.T) {
	t.Parallel()
	gc := NewGCController("disabled", 0)
	gc.Begin()
	gc.End()
	if s := gc.Stats(); s.Allocated != 0 || s.GCCycles != 0 {
		t.Errorf("inactive controller should report zero stats, got %+v", s)
	}
}

// Not parallel: toggles the process-wide GC percent.
func TestGCController_BeginEndRestores(t *testing.T) {
	before := debug.SetGCPercent(100)
	defer debug.SetGCPercent(before)

	var buf bytes.Buffer
	gc := NewGCController("aggressive", 0)
	gc.SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	gc.Begin()
	if got := debug.SetGCPercent(-1); got != -1 {
		t.Errorf("GC percent during render = %d, want -1", got)
	}
	sink := make([][]byte, 0, 64)
	for i := 0; i < 64; i++ {
		sink = append(sink, make([]byte, 4096))
	}
	allocSink = sink
	gc.End()

	if got := debug.SetGCPercent(100); got != 100 {
		t.Errorf("GC percent after End = %d, want 100", got)
	}
	if s := gc.Stats(); s.Allocated == 0 {
		t.Error("expected allocations to be recorded between Begin and End")
	}
	logs := buf.String()
	if !strings.Contains(logs, "gc disabled") || !strings.Contains(logs, "gc re-enabled") {
		t.Errorf("expected both gc log events, got %q", logs)
	}
}
