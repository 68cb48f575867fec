package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// maxETA caps estimates produced from very slow early progress.
const maxETA = 24 * time.Hour

// rateSmoothing is the weight of the newest rate sample in the moving average.
const rateSmoothing = 0.3

// ProgressWithETA tracks the completed fraction of a render pass and
// estimates the time remaining from a smoothed completion rate.
type ProgressWithETA struct {
	mu           sync.Mutex
	fraction     float64
	progressRate float64 // fraction per second
	startTime    time.Time
	lastUpdate   time.Time
}

// NewProgressWithETA starts tracking a pass now.
func NewProgressWithETA() *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{startTime: now, lastUpdate: now}
}

// Update records the completed fraction, clamped to [0, 1], and returns the
// estimated time remaining.
func (p *ProgressWithETA) Update(fraction float64) time.Duration {
	fraction = clamp01(fraction)
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if elapsed := now.Sub(p.lastUpdate).Seconds(); elapsed > 0 && fraction > p.fraction {
		sample := (fraction - p.fraction) / elapsed
		if p.progressRate == 0 {
			p.progressRate = sample
		} else {
			p.progressRate = rateSmoothing*sample + (1-rateSmoothing)*p.progressRate
		}
	}
	p.fraction = fraction
	p.lastUpdate = now
	return p.etaLocked()
}

// Fraction returns the last recorded fraction.
func (p *ProgressWithETA) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fraction
}

// Elapsed returns the time since tracking started.
func (p *ProgressWithETA) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

// GetETA returns the current estimate; zero means no estimate yet.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etaLocked()
}

func (p *ProgressWithETA) etaLocked() time.Duration {
	if p.progressRate <= 0 || p.fraction <= 0 || p.fraction >= 1 {
		return 0
	}
	seconds := (1 - p.fraction) / p.progressRate
	eta := time.Duration(seconds * float64(time.Second))
	if eta > maxETA || eta < 0 {
		return maxETA
	}
	return eta
}

// FormatETA renders an estimate compactly: "< 1s", "45s", "2m30s", "1h15m".
// Non-positive estimates read "calculating...".
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}
	eta = eta.Round(time.Second)
	h := int(eta / time.Hour)
	m := int(eta % time.Hour / time.Minute)
	s := int(eta % time.Minute / time.Second)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ProgressBar draws a bar of length cells for a fraction clamped to [0, 1].
func ProgressBar(progress float64, length int) string {
	if length <= 0 {
		return ""
	}
	filled := int(clamp01(progress) * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders "[bar]  42.0% ETA: 1m5s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	progress = clamp01(progress)
	etaText := FormatETA(eta)
	if progress >= 1 {
		etaText = "done"
	}
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(progress, width), progress*100, etaText)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
