package orchestration

import (
	"time"

	"github.com/agbru/fractalcalc/internal/format"
	"github.com/agbru/fractalcalc/internal/progress"
)

// ProgressAggregator averages the progress of concurrent passes. Both CLI
// and TUI use it to turn per-pass updates into one bar and one ETA.
type ProgressAggregator struct {
	state     *format.ProgressWithETA
	numPasses int
	fractions map[string]float64
}

// NewProgressAggregator creates a new aggregator for the given number of
// passes. Returns nil if numPasses <= 0.
func NewProgressAggregator(numPasses int) *ProgressAggregator {
	if numPasses <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:     format.NewProgressWithETA(),
		numPasses: numPasses,
		fractions: make(map[string]float64, numPasses),
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	// Pass is the pass that sent the update.
	Pass string
	// Value is that pass's own progress (0.0 to 1.0).
	Value float64
	// AverageProgress is the mean across all tracked passes.
	AverageProgress float64
	// ETA is the estimated time remaining based on smoothed progress rate.
	ETA time.Duration
}

// Update processes a single progress update and returns the aggregated result.
// Not safe for concurrent use; a reporter consumes updates from one goroutine.
func (a *ProgressAggregator) Update(u progress.Update) AggregatedProgress {
	value := u.Fraction()
	if value > a.fractions[u.Pass] {
		a.fractions[u.Pass] = value
	}
	avg := a.CalculateAverage()
	eta := a.state.Update(avg)
	return AggregatedProgress{
		Pass:            u.Pass,
		Value:           value,
		AverageProgress: avg,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average progress without updating.
// Passes not heard from yet count as zero.
func (a *ProgressAggregator) CalculateAverage() float64 {
	var sum float64
	for _, f := range a.fractions {
		sum += f
	}
	return min(sum/float64(a.numPasses), 1)
}

// GetETA returns the current ETA estimate without updating.
// Useful for periodic refresh between updates (e.g., CLI ticker).
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// NumPasses returns the number of passes being tracked.
func (a *ProgressAggregator) NumPasses() int {
	return a.numPasses
}

// IsMultiPass returns true if tracking more than one pass.
func (a *ProgressAggregator) IsMultiPass() bool {
	return a.numPasses > 1
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan progress.Update) {
	for range progressChan {
	}
}
