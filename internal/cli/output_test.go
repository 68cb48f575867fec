package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/metrics"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/view"
)

func sampleField() *render.Field {
	f := render.NewField(view.Device{Width: 4, Height: 2})
	bias := fractal.DefaultBias
	copy(f.Pixels, []uint32{0, bias + 3, bias + 10, 0, bias + 1, bias + 7, 0, 0})
	return f
}

func TestComputeFieldStats(t *testing.T) {
	t.Parallel()
	st := ComputeFieldStats(sampleField(), fractal.DefaultBias)
	if st.Pixels != 8 || st.Interior != 4 {
		t.Errorf("pixels=%d interior=%d, want 8 and 4", st.Pixels, st.Interior)
	}
	if st.MinIterations != 1 || st.MaxIterations != 10 {
		t.Errorf("range %d..%d, want 1..10", st.MinIterations, st.MaxIterations)
	}

	empty := ComputeFieldStats(render.NewField(view.Device{Width: 2, Height: 2}), fractal.DefaultBias)
	if empty.MinIterations != 0 || empty.MaxIterations != 0 {
		t.Errorf("all-interior field should have an empty range, got %+v", empty)
	}
}

func TestDisplayResult(t *testing.T) {
	t.Parallel()
	d := view.Device{Width: 4, Height: 2}
	tests := []struct {
		name     string
		opts     orchestration.PresentationOptions
		contains []string
		absent   []string
	}{
		{
			name:     "summary",
			opts:     orchestration.PresentationOptions{View: view.Full(d), Device: d},
			contains: []string{"Render Summary", "Backend:", "bigfloat", "4x2", "Render time:"},
			absent:   []string{"Detailed field analysis", "View:"},
		},
		{
			name:     "details",
			opts:     orchestration.PresentationOptions{View: view.Full(d), Device: d, Bias: fractal.DefaultBias, Details: true},
			contains: []string{"Detailed field analysis", "Interior:", "50.0%", "1..10 iterations"},
		},
		{
			name:     "verbose",
			opts:     orchestration.PresentationOptions{View: view.Full(d), Device: d, Verbose: true},
			contains: []string{"View:", "Size:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			res := orchestration.RenderResult{Name: "bigfloat", Field: sampleField(), Duration: 5 * time.Millisecond}
			DisplayResult(res, tt.opts, &buf)
			for _, s := range tt.contains {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("output should contain %q:\n%s", s, buf.String())
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(buf.String(), s) {
					t.Errorf("output should not contain %q:\n%s", s, buf.String())
				}
			}
		})
	}
}

func TestDisplayQuietResult(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplayQuietResult(&buf, "out/fractal.png")
	if buf.String() != "out/fractal.png\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestPresentComparisonTable(t *testing.T) {
	t.Parallel()
	results := []orchestration.RenderResult{
		{Name: "float64", Field: sampleField(), Duration: time.Millisecond},
		{Name: "fixed", Field: sampleField(), Duration: 2 * time.Millisecond, Mismatches: 2},
		{Name: "bigfloat", Err: errors.New("boom")},
	}
	var buf bytes.Buffer
	CLIResultPresenter{}.PresentComparisonTable(results, &buf)
	out := buf.String()
	for _, s := range []string{"Comparison Summary", "Backend", "Duration", "Success", "2 pixels differ (25.00%)", "Failure (boom)", "< 1µs"} {
		if !strings.Contains(out, s) {
			t.Errorf("table should contain %q:\n%s", s, out)
		}
	}
}

func TestCLIResultPresenter_HandleError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	code := CLIResultPresenter{}.HandleError(apperrors.NewConfigError("bad"), 0, &buf)
	if code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
	}
	if got := (CLIResultPresenter{}).FormatDuration(1500 * time.Microsecond); got != "1ms" {
		t.Errorf("FormatDuration = %q", got)
	}
}

func TestDisplayMemoryStats(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplayMemoryStats(metrics.MemoryDelta{Allocated: 2048, GCCycles: 3, GCPause: 1500 * time.Microsecond, PeakHeap: 1024}, &buf)
	for _, s := range []string{"Memory Stats", "2.0 KiB", "1.0 KiB", "GC cycles:       3", "1.50ms"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("output should contain %q:\n%s", s, buf.String())
		}
	}

	buf.Reset()
	DisplayMemoryStats(metrics.MemoryDelta{}, &buf)
	if !strings.Contains(buf.String(), "GC disabled") {
		t.Error("zero pause should be reported as GC disabled")
	}
}

func TestPrintRenderConfig(t *testing.T) {
	t.Parallel()
	cfg := config.AppConfig{Width: 320, Height: 200, MaxIterations: 500, Workers: 4, QueueCapacity: 16, MinPrecision: 64, Timeout: time.Minute,
		Zooms: []view.Selection{{X1: 1, Y1: 1, X2: 5, Y2: 5}}}
	var buf bytes.Buffer
	PrintRenderConfig(cfg, &buf)
	for _, s := range []string{"320x200", "500", "4", "16", "Zoom selections: 1"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("output should contain %q:\n%s", s, buf.String())
		}
	}

	buf.Reset()
	PrintExecutionMode([]string{"bigfloat", "fixed"}, &buf)
	if !strings.Contains(buf.String(), "Parallel comparison of bigfloat, fixed") {
		t.Errorf("unexpected mode line: %s", buf.String())
	}
}
