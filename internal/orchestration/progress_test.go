package orchestration

import (
	"testing"

	"github.com/agbru/fractalcalc/internal/progress"
)

func TestNewProgressAggregator(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n     int
		nil_  bool
		multi bool
	}{
		{3, false, true},
		{1, false, false},
		{0, true, false},
		{-1, true, false},
	}
	for _, tt := range tests {
		agg := NewProgressAggregator(tt.n)
		if (agg == nil) != tt.nil_ {
			t.Errorf("NewProgressAggregator(%d) nil = %v, want %v", tt.n, agg == nil, tt.nil_)
			continue
		}
		if agg == nil {
			continue
		}
		if agg.NumPasses() != tt.n {
			t.Errorf("NumPasses() = %d, want %d", agg.NumPasses(), tt.n)
		}
		if agg.IsMultiPass() != tt.multi {
			t.Errorf("IsMultiPass() = %v, want %v", agg.IsMultiPass(), tt.multi)
		}
	}
}

func TestProgressAggregator_Update(t *testing.T) {
	t.Parallel()
	agg := NewProgressAggregator(2)

	ap := agg.Update(progress.Update{Pass: "a", Rows: 50, Total: 100, Percent: 50})
	if ap.Pass != "a" {
		t.Errorf("Pass = %q, want a", ap.Pass)
	}
	if ap.Value != 0.5 {
		t.Errorf("Value = %f, want 0.5", ap.Value)
	}
	// Average of [0.5, 0.0] = 0.25
	if ap.AverageProgress != 0.25 {
		t.Errorf("AverageProgress = %f, want 0.25", ap.AverageProgress)
	}

	ap = agg.Update(progress.Update{Pass: "b", Rows: 100, Total: 100, Percent: 100})
	if ap.AverageProgress != 0.75 {
		t.Errorf("AverageProgress = %f, want 0.75", ap.AverageProgress)
	}
	if agg.CalculateAverage() != 0.75 {
		t.Errorf("CalculateAverage() = %f, want 0.75", agg.CalculateAverage())
	}
}

func TestProgressAggregator_IgnoresRegression(t *testing.T) {
	t.Parallel()
	agg := NewProgressAggregator(1)
	agg.Update(progress.Update{Pass: "a", Rows: 80, Total: 100})
	ap := agg.Update(progress.Update{Pass: "a", Rows: 10, Total: 100})
	if ap.AverageProgress != 0.8 {
		t.Errorf("AverageProgress = %f, a late update must not move progress back", ap.AverageProgress)
	}
}

func TestDrainChannel(t *testing.T) {
	t.Parallel()
	ch := make(chan progress.Update, 3)
	ch <- progress.Update{}
	ch <- progress.Update{}
	close(ch)
	DrainChannel(ch)
	if len(ch) != 0 {
		t.Error("channel not drained")
	}
}
