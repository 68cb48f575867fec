package format

import (
	"fmt"
	"time"
)

// FormatRenderDuration formats the time a row, a pass or a calibration run
// took: "< 1µs", "850µs", "12ms", "1.204s", "2m3.5s".
func FormatRenderDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(time.Millisecond).String()
	}
}

// FormatPassTiming renders a pass duration with its pixel throughput,
// e.g. "12ms (3.40 Mpx/s)".
func FormatPassTiming(d time.Duration, pixels int) string {
	if d <= 0 || pixels <= 0 {
		return FormatRenderDuration(d)
	}
	return fmt.Sprintf("%s (%s)", FormatRenderDuration(d), FormatRate(float64(pixels)/d.Seconds()))
}

// FormatRowRate renders a row throughput: "0 rows/s", "850 rows/s",
// "12.3k rows/s".
func FormatRowRate(rowsPerSecond float64) string {
	switch {
	case rowsPerSecond >= 1e6:
		return fmt.Sprintf("%.1fM rows/s", rowsPerSecond/1e6)
	case rowsPerSecond >= 1e4:
		return fmt.Sprintf("%.1fk rows/s", rowsPerSecond/1e3)
	case rowsPerSecond > 0:
		return fmt.Sprintf("%.0f rows/s", rowsPerSecond)
	default:
		return "0 rows/s"
	}
}
