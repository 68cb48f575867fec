package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/format"
	"github.com/agbru/fractalcalc/internal/metrics"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/progress"
	"github.com/agbru/fractalcalc/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter with the
// spinner and progress bar of DisplayProgress.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for ongoing renders.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.Update, numPasses int, out io.Writer) {
	DisplayProgress(wg, progressChan, numPasses, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter for CLI output.
type CLIResultPresenter struct{}

// Verify interface compliance.
var (
	_ orchestration.ResultPresenter   = CLIResultPresenter{}
	_ orchestration.DurationFormatter = CLIResultPresenter{}
	_ orchestration.ErrorHandler      = CLIResultPresenter{}
)

// PresentComparisonTable displays backend names, durations, pixel
// disagreement and status in a table. Uses manual padding to correctly
// handle ANSI color codes.
func (CLIResultPresenter) PresentComparisonTable(results []orchestration.RenderResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")

	maxNameLen := 7     // "Backend" header length
	maxDurationLen := 8 // "Duration" header length
	durations := make([]string, len(results))
	for i, res := range results {
		maxNameLen = max(maxNameLen, len(res.Name))
		durations[i] = format.FormatRenderDuration(res.Duration)
		maxDurationLen = max(maxDurationLen, len(durations[i]))
	}

	fmt.Fprintf(out, "%sBackend%s%s   %sDuration%s%s   %sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), padRight("", maxNameLen-7),
		ui.ColorUnderline(), ui.ColorReset(), padRight("", maxDurationLen-8),
		ui.ColorUnderline(), ui.ColorReset())

	for i, res := range results {
		var status string
		switch {
		case res.Err != nil:
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		case res.Mismatches > 0:
			share := float64(res.Mismatches) / float64(len(res.Field.Pixels)) * 100
			status = fmt.Sprintf("%s⚠ %s pixels differ (%.2f%%)%s", ui.ColorYellow(),
				format.FormatNumber(int64(res.Mismatches)), share, ui.ColorReset())
		default:
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(out, "%s%s%s%s   %s%s%s%s   %s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(), padRight("", maxNameLen-len(res.Name)),
			ui.ColorYellow(), durations[i], ui.ColorReset(), padRight("", maxDurationLen-len(durations[i])),
			status)
	}
}

// padRight returns a string of spaces with the given length.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + fmt.Sprintf("%*s", length, "")
}

// PresentResult displays the render summary of result.
func (CLIResultPresenter) PresentResult(result orchestration.RenderResult, opts orchestration.PresentationOptions, out io.Writer) {
	DisplayResult(result, opts, out)
}

// FormatDuration formats a duration for display using the CLI's standard
// duration formatting.
func (CLIResultPresenter) FormatDuration(d time.Duration) string {
	return format.FormatRenderDuration(d)
}

// HandleError handles render errors and returns an appropriate exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleRenderError(err, duration, out, CLIColorProvider{})
}

// DisplayMemoryStats shows what a render cost in memory.
func DisplayMemoryStats(delta metrics.MemoryDelta, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Peak heap:       %s\n", format.FormatBytes(delta.PeakHeap))
	fmt.Fprintf(out, "  Total allocated: %s\n", format.FormatBytes(delta.Allocated))
	fmt.Fprintf(out, "  GC cycles:       %d\n", delta.GCCycles)
	if delta.GCPause > 0 {
		fmt.Fprintf(out, "  GC pause total:  %.2fms\n", float64(delta.GCPause)/float64(time.Millisecond))
	} else {
		fmt.Fprintf(out, "  GC pause total:  0ms (GC disabled)\n")
	}
}
