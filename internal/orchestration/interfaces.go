package orchestration

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/agbru/fractalcalc/internal/progress"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/view"
)

// Renderer renders fields and publishes per-pass progress.
// *render.Engine implements it.
type Renderer interface {
	Render(ctx context.Context, v view.Rectangle, d view.Device) (*render.Field, error)
	Progress() *progress.Subject
}

// RenderJob names a renderer taking part in a run, typically one engine per
// numeric backend.
type RenderJob struct {
	Name     string
	Renderer Renderer
}

// RenderResult encapsulates the outcome of a single render pass.
// It serves as the shared domain type between orchestration and presentation layers.
type RenderResult struct {
	// Name is the backend that produced the field.
	Name string
	// Field is the rendered field. It is nil if an error occurred.
	Field *render.Field
	// Duration is the time taken by the pass.
	Duration time.Duration
	// Err contains any error that aborted the pass.
	Err error
	// Mismatches counts pixels that differ from the reference result. It is
	// set by AnalyzeRenderResults.
	Mismatches int
}

// PresentationOptions configures how results are presented to the user.
type PresentationOptions struct {
	View   view.Rectangle
	Device view.Device
	// Bias is subtracted from escaped scores when reporting iteration counts.
	Bias    uint32
	Verbose bool
	Details bool
}

// ProgressReporter defines the interface for displaying render progress.
// This interface decouples the orchestration layer from the presentation layer.
//
// Implementations handle the visual representation of progress (spinners,
// progress bars, etc.) while the orchestration layer focuses on coordinating
// the passes.
type ProgressReporter interface {
	// DisplayProgress starts displaying progress updates from the channel.
	// It should be called in a separate goroutine and will run until the
	// progressChan is closed.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving progress updates from the engines.
	//   - numPasses: The number of concurrent passes being tracked.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.Update, numPasses int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan progress.Update, numPasses int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.Update, numPasses int, out io.Writer) {
	f(wg, progressChan, numPasses, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
// Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.Update, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter defines the interface for presenting render results.
type ResultPresenter interface {
	// PresentComparisonTable displays the backend comparison table.
	PresentComparisonTable(results []RenderResult, out io.Writer)

	// PresentResult displays the summary of the selected result.
	PresentResult(result RenderResult, opts PresentationOptions, out io.Writer)
}

// DurationFormatter formats durations for display.
type DurationFormatter interface {
	FormatDuration(d time.Duration) string
}

// ErrorHandler handles render errors and returns exit codes.
type ErrorHandler interface {
	HandleError(err error, duration time.Duration, out io.Writer) int
}
