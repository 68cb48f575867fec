package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/fractalcalc/internal/config"
	"github.com/agbru/fractalcalc/internal/format"
	"github.com/agbru/fractalcalc/internal/ui"
)

// printCalibrationResults formats and prints the calibration results table.
func printCalibrationResults(out io.Writer, results []calibrationResult, bestWorkers int) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sWorkers%s      │ %sExecution Time%s\n", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 14), strings.Repeat("─", 25))
	for _, res := range results {
		label := fmt.Sprintf("%d", res.Workers)
		if res.Workers == 1 {
			label = "1 (serial)"
		}
		durationStr := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if res.Err == nil {
			durationStr = format.FormatRenderDuration(res.Duration)
		}
		highlight := ""
		if res.Workers == bestWorkers && res.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-12s%s │ %s%s%s%s\n", ui.ColorCyan(), label, ui.ColorReset(), ui.ColorYellow(), durationStr, ui.ColorReset(), highlight)
	}
	tw.Flush()
}

func printCalibrationProfile(out io.Writer, p *CalibrationProfile) {
	fmt.Fprintf(out, "\n%sOptimal worker count%s: %s%d%s (%d CPUs, %s/%s, calibrated in %s)\n",
		ui.ColorGreen(), ui.ColorReset(),
		ui.ColorYellow(), p.OptimalWorkers, ui.ColorReset(),
		p.NumCPU, p.GOOS, p.GOARCH, p.CalibrationTime)
}

// printCalibrationOutput prints the result of auto-calibration.
func printCalibrationOutput(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "%sAuto-calibration%s: workers=%s%d%s\n",
		ui.ColorGreen(), ui.ColorReset(),
		ui.ColorYellow(), cfg.Workers, ui.ColorReset())
}
