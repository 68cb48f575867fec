package sysmon

import (
	"testing"
	"time"
)

func TestSample_ReturnsValidRanges(t *testing.T) {
	s := Sample()
	if s.CPUPercent < 0 || s.CPUPercent > 100 {
		t.Errorf("CPUPercent out of range: %f", s.CPUPercent)
	}
	if s.MemPercent < 0 || s.MemPercent > 100 {
		t.Errorf("MemPercent out of range: %f", s.MemPercent)
	}
}

func TestSample_MemPercentNonZero(t *testing.T) {
	s := Sample()
	if s.MemPercent == 0 {
		t.Error("expected non-zero MemPercent on a running system")
	}
}

func TestSample_MemTotalCoversUsed(t *testing.T) {
	s := Sample()
	if s.MemTotal != 0 && s.MemUsed > s.MemTotal {
		t.Errorf("MemUsed %d exceeds MemTotal %d", s.MemUsed, s.MemTotal)
	}
}

func TestSampler_CachesWithinInterval(t *testing.T) {
	calls := 0
	s := NewSampler(time.Hour)
	s.sample = func() Stats {
		calls++
		return Stats{CPUPercent: float64(calls)}
	}

	first := s.Stats()
	second := s.Stats()
	if calls != 1 {
		t.Errorf("sample called %d times, want 1", calls)
	}
	if first != second {
		t.Errorf("cached stats differ: %+v vs %+v", first, second)
	}

	s.interval = 0
	if got := s.Stats(); got.CPUPercent != 2 {
		t.Errorf("expected refresh with zero interval, got %+v", got)
	}
}

func TestClampPercent(t *testing.T) {
	for in, want := range map[float64]float64{-3: 0, 42.5: 42.5, 140: 100} {
		if got := clampPercent(in); got != want {
			t.Errorf("clampPercent(%v) = %v, want %v", in, got, want)
		}
	}
}
