// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayResult], [DisplayQuietResult], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatQuietResult].
//
//   - Print* functions announce what is about to run.
//     Examples: [PrintRenderConfig], [PrintExecutionMode].

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/fractalcalc/internal/config"
	"github.com/agbru/fractalcalc/internal/format"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/ui"
)

// FieldStats summarises a rendered field.
type FieldStats struct {
	Pixels   int
	Interior int
	// MinIterations and MaxIterations span the escaped pixels; both are zero
	// when nothing escaped.
	MinIterations, MaxIterations uint32
}

// ComputeFieldStats scans f. Escaped scores have bias subtracted.
func ComputeFieldStats(f *render.Field, bias uint32) FieldStats {
	st := FieldStats{Pixels: len(f.Pixels)}
	first := true
	for _, s := range f.Pixels {
		if s == fractal.Interior {
			st.Interior++
			continue
		}
		n := s - bias
		if first {
			st.MinIterations, st.MaxIterations = n, n
			first = false
			continue
		}
		st.MinIterations = min(st.MinIterations, n)
		st.MaxIterations = max(st.MaxIterations, n)
	}
	return st
}

// DisplayResult prints the summary of a completed render: backend, view,
// timing and, with Details, the iteration statistics of the field.
//
// Parameters:
//   - result: The render to summarise. Its Field must be set.
//   - opts: The rendered view and display options.
//   - out: The output writer.
func DisplayResult(result orchestration.RenderResult, opts orchestration.PresentationOptions, out io.Writer) {
	fmt.Fprintf(out, "\n--- Render Summary ---\n")
	fmt.Fprintf(out, "Backend:       %s%s%s\n", ui.ColorCyan(), result.Name, ui.ColorReset())
	fmt.Fprintf(out, "Image size:    %s%s%s\n", ui.ColorCyan(), result.Field.Device, ui.ColorReset())
	fmt.Fprintf(out, "Magnification: %s%.4gx%s\n", ui.ColorMagenta(), opts.View.Magnification(opts.Device), ui.ColorReset())
	fmt.Fprintf(out, "Render time:   %s%s%s\n", ui.ColorGreen(), formatDuration(result.Duration), ui.ColorReset())

	pixels := len(result.Field.Pixels)
	if secs := result.Duration.Seconds(); secs > 0 {
		fmt.Fprintf(out, "Throughput:    %s\n", format.FormatRate(float64(pixels)/secs))
	}
	if opts.Verbose {
		fmt.Fprintf(out, "View:          %s\n", opts.View)
	}
	if opts.Details {
		st := ComputeFieldStats(result.Field, opts.Bias)
		fmt.Fprintf(out, "\nDetailed field analysis:\n")
		fmt.Fprintf(out, "  Pixels:          %s\n", format.FormatNumber(int64(st.Pixels)))
		fmt.Fprintf(out, "  Interior:        %s (%.1f%%)\n", format.FormatNumber(int64(st.Interior)),
			float64(st.Interior)/float64(max(st.Pixels, 1))*100)
		if st.Interior < st.Pixels {
			fmt.Fprintf(out, "  Escape range:    %d..%d iterations\n", st.MinIterations, st.MaxIterations)
		}
	}
}

// FormatQuietResult formats the single line printed in quiet mode: the path
// of the written image.
func FormatQuietResult(outputFile string) string {
	return outputFile
}

// DisplayQuietResult outputs a result in quiet mode (minimal output).
func DisplayQuietResult(out io.Writer, outputFile string) {
	fmt.Fprintln(out, FormatQuietResult(outputFile))
}

// PrintRenderConfig displays the current render configuration to the user.
//
// Parameters:
//   - cfg: The application configuration, after adaptive defaults.
//   - out: The writer for standard output.
func PrintRenderConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "--- Render Configuration ---\n")
	fmt.Fprintf(out, "Rendering %s%dx%d%s pixels, up to %s%d%s iterations, with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), cfg.Width, cfg.Height, ui.ColorReset(),
		ui.ColorMagenta(), cfg.MaxIterations, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
	fmt.Fprintf(out, "Worker pool: %s%d%s workers, queue of %s%d%s rows, precision floor %s%d%s bits.\n",
		ui.ColorCyan(), cfg.Workers, ui.ColorReset(),
		ui.ColorCyan(), cfg.QueueCapacity, ui.ColorReset(),
		ui.ColorCyan(), cfg.MinPrecision, ui.ColorReset())
	if len(cfg.Zooms) > 0 {
		fmt.Fprintf(out, "Zoom selections: %d.\n", len(cfg.Zooms))
	}
}

// PrintExecutionMode displays whether one backend runs or several are
// compared.
func PrintExecutionMode(backends []string, out io.Writer) {
	var modeDesc string
	if len(backends) > 1 {
		modeDesc = fmt.Sprintf("Parallel comparison of %s", strings.Join(backends, ", "))
	} else {
		modeDesc = fmt.Sprintf("Single render with the %s%s%s backend",
			ui.ColorGreen(), backends[0], ui.ColorReset())
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
