package tui

import (
	"time"

	"github.com/agbru/fractalcalc/internal/orchestration"
)

// TickMsg drives metrics sampling.
type TickMsg time.Time

// ProgressMsg carries aggregated render progress.
type ProgressMsg struct {
	Pass            string
	Value           float64
	AverageProgress float64
	ETA             time.Duration
	Generation      uint64
}

// ProgressDoneMsg is sent once the progress channel of a render closes.
type ProgressDoneMsg struct {
	Generation uint64
}

// ResultMsg carries the field shown after a successful render.
type ResultMsg struct {
	Result     orchestration.RenderResult
	Generation uint64
}

// ComparisonResultsMsg carries every backend's result of a render.
type ComparisonResultsMsg struct {
	Results    []orchestration.RenderResult
	Generation uint64
}

// ErrorMsg reports a render that no backend completed.
type ErrorMsg struct {
	Err        error
	Duration   time.Duration
	Generation uint64
}

// RenderCompleteMsg is returned by the render command after all result
// messages were sent.
type RenderCompleteMsg struct {
	ExitCode   int
	Generation uint64
}

// MemStatsMsg carries a Go runtime memory snapshot.
type MemStatsMsg struct {
	Alloc        uint64
	HeapSys      uint64
	NumGC        uint32
	PauseTotalNs uint64
	NumGoroutine int
}

// SysStatsMsg carries host CPU and memory usage.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}

// SavedMsg reports the outcome of writing the current field to disk.
type SavedMsg struct {
	Path string
	Err  error
}

// ContextCancelledMsg is sent when the session context ends.
type ContextCancelledMsg struct {
	Err error
}
