package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/progress"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/view"
)

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. Each pass emits at most ten updates, so this holds them all and
// the engines never drop one while the UI is slow to consume.
const ProgressBufferMultiplier = 10

// ExecuteRenders renders v on d with every job concurrently.
//
// It attaches a channel observer to the passes it starts, runs them,
// and collects their results. A failing pass does not cancel the others;
// its error is recorded in its result.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - jobs: The renderers to execute.
//   - v: The view to render.
//   - d: The output device.
//   - progressReporter: Displays progress (use NullProgressReporter for quiet mode).
//   - out: The io.Writer for progress output.
//
// Returns:
//   - []RenderResult: One result per job, in job order.
func ExecuteRenders(ctx context.Context, jobs []RenderJob, v view.Rectangle, d view.Device, progressReporter ProgressReporter, out io.Writer) []RenderResult {
	results := make([]RenderResult, len(jobs))
	progressChan := make(chan progress.Update, max(len(jobs), 1)*ProgressBufferMultiplier)

	// The observer rides on the context, so passes started by another call
	// on the same engines never report here.
	observer := progress.NewChannelObserver(progressChan)
	g, ctx := errgroup.WithContext(progress.WithObserver(ctx, observer))

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(jobs), out)

	for i, job := range jobs {
		g.Go(func() error {
			startTime := time.Now()
			field, err := job.Renderer.Render(ctx, v, d)
			results[i] = RenderResult{
				Name: job.Name, Field: field, Duration: time.Since(startTime), Err: err,
			}
			return nil
		})
	}

	_ = g.Wait()
	observer.Close()
	displayWg.Wait()

	return results
}

// AnalyzeRenderResults sorts results by outcome and duration, counts the
// pixels where each successful field disagrees with the fastest one, and
// prints the comparison. Backends are expected to disagree on a few pixels
// along the set boundary, so disagreement is reported but does not fail the
// run.
//
// Parameters:
//   - results: The results to analyze; sorted in place.
//   - opts: Presentation options for the summary.
//   - presenter: The result presenter for display formatting.
//   - errHandler: Maps the first failure to an exit code when none succeeded.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeRenderResults(results []RenderResult, opts PresentationOptions, presenter ResultPresenter, errHandler ErrorHandler, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	reference, ok := FirstSuccessful(results)
	if ok {
		for i := range results {
			if results[i].Err == nil {
				results[i].Mismatches = PixelMismatches(reference.Field, results[i].Field)
			}
		}
	}

	presenter.PresentComparisonTable(results, out)

	if !ok {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No backend could complete the render.\n")
		return errHandler.HandleError(results[0].Err, 0, out)
	}

	disagreeing := 0
	for _, res := range results {
		if res.Err == nil && res.Mismatches > 0 {
			disagreeing++
		}
	}
	if disagreeing > 0 {
		fmt.Fprintf(out, "\nGlobal Status: Success. %d backend(s) differ from %s on some pixels.\n", disagreeing, reference.Name)
	} else {
		fmt.Fprintf(out, "\nGlobal Status: Success. All valid fields are identical.\n")
	}
	presenter.PresentResult(reference, opts, out)
	return apperrors.ExitSuccess
}

// FirstSuccessful returns the first result without an error.
func FirstSuccessful(results []RenderResult) (RenderResult, bool) {
	for _, r := range results {
		if r.Err == nil && r.Field != nil {
			return r, true
		}
	}
	return RenderResult{}, false
}

// PixelMismatches counts the pixels where a and b differ. Fields of
// different sizes differ everywhere.
func PixelMismatches(a, b *render.Field) int {
	if a == nil || b == nil {
		return 0
	}
	if a.Device != b.Device {
		return max(len(a.Pixels), len(b.Pixels))
	}
	n := 0
	for i := range a.Pixels {
		if a.Pixels[i] != b.Pixels[i] {
			n++
		}
	}
	return n
}
