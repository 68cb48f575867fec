package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMemoryCollector_Snapshot(t *testing.T) {
	t.Parallel()

	snap := NewMemoryCollector().Snapshot()
	if snap.HeapAlloc == 0 {
		t.Error("HeapAlloc should be > 0")
	}
	if snap.Sys == 0 {
		t.Error("Sys should be > 0")
	}
}

var sink []uint32

func TestMemorySnapshot_Since(t *testing.T) {
	t.Parallel()

	mc := NewMemoryCollector()
	before := mc.Snapshot()
	sink = make([]uint32, 800*600)
	after := mc.Snapshot()

	delta := after.Since(before)
	if delta.Allocated < 800*600*4 {
		t.Errorf("Allocated = %d, want at least one 800x600 field", delta.Allocated)
	}
	if delta.PeakHeap < before.HeapAlloc {
		t.Error("PeakHeap should not be below the first reading")
	}
}

func TestCollectors_Independent(t *testing.T) {
	t.Parallel()
	a, b := NewCollectors(), NewCollectors()
	a.Rows.Add(3)
	if got := testutil.ToFloat64(b.Rows); got != 0 {
		t.Errorf("collectors share state: b.Rows = %v", got)
	}
	if got := testutil.ToFloat64(a.Rows); got != 3 {
		t.Errorf("a.Rows = %v, want 3", got)
	}
}

func TestCollectors_WritePrometheus(t *testing.T) {
	t.Parallel()
	c := NewCollectors()
	c.Tasks.WithLabelValues(OutcomeOK).Inc()
	c.QueueDepth.WithLabelValues("high").Set(2)

	rec := httptest.NewRecorder()
	c.WritePrometheus(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	body := rec.Body.String()

	for _, want := range []string{
		"fractal_pool_tasks_total",
		`fractal_pool_queue_depth{priority="high"} 2`,
		"fractal_render_pass_duration_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %q", want)
		}
	}
}
