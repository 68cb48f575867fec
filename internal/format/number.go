package format

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumberString inserts thousands separators into a decimal integer
// string, keeping a leading minus sign.
func FormatNumberString(s string) string {
	if s == "" {
		return ""
	}
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	b.Grow(len(sign) + len(s) + len(s)/3)
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatNumber formats n with thousands separators.
func FormatNumber(n int64) string {
	return FormatNumberString(strconv.FormatInt(n, 10))
}

// FormatBytes renders a byte count with a binary unit ("512 B", "1.5 MiB").
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatRate renders a pixel throughput such as "1.25 Mpx/s".
func FormatRate(pixelsPerSecond float64) string {
	switch {
	case pixelsPerSecond >= 1e9:
		return fmt.Sprintf("%.2f Gpx/s", pixelsPerSecond/1e9)
	case pixelsPerSecond >= 1e6:
		return fmt.Sprintf("%.2f Mpx/s", pixelsPerSecond/1e6)
	case pixelsPerSecond >= 1e3:
		return fmt.Sprintf("%.2f kpx/s", pixelsPerSecond/1e3)
	default:
		return fmt.Sprintf("%.0f px/s", pixelsPerSecond)
	}
}
