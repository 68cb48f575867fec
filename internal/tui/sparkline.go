package tui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// levels are the eight block heights of a sparkline, lowest first.
var levels = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RingBuffer keeps the most recent samples of one metric.
type RingBuffer struct {
	data  []float64
	head  int
	count int
}

// NewRingBuffer returns a buffer holding up to capacity samples.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{data: make([]float64, max(capacity, 1))}
}

// Push appends a sample, dropping the oldest when full.
func (r *RingBuffer) Push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	r.count = min(r.count+1, len(r.data))
}

// Len returns the number of samples held.
func (r *RingBuffer) Len() int { return r.count }

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int { return len(r.data) }

// Last returns the newest sample, or 0.
func (r *RingBuffer) Last() float64 {
	if r.count == 0 {
		return 0
	}
	return r.data[(r.head-1+len(r.data))%len(r.data)]
}

// Slice returns the samples oldest first.
func (r *RingBuffer) Slice() []float64 {
	if r.count == 0 {
		return nil
	}
	out := make([]float64, r.count)
	start := r.head - r.count + len(r.data)
	for i := range out {
		out[i] = r.data[(start+i)%len(r.data)]
	}
	return out
}

// Resize changes the capacity and keeps the newest samples that fit. The
// metrics panel resizes its histories to the panel width.
func (r *RingBuffer) Resize(capacity int) {
	capacity = max(capacity, 1)
	if capacity == len(r.data) {
		return
	}
	kept := r.Slice()
	if len(kept) > capacity {
		kept = kept[len(kept)-capacity:]
	}
	r.data = make([]float64, capacity)
	r.head, r.count = 0, 0
	for _, v := range kept {
		r.Push(v)
	}
}

// RenderSparkline draws values as block characters, full marking the top of
// the scale. Values are clamped to [0, full]; a non-positive full draws the
// baseline.
func RenderSparkline(values []float64, full float64) string {
	if len(values) == 0 {
		return ""
	}
	runes := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if full > 0 {
			idx = int(min(max(v, 0), full) / full * float64(len(levels)-1))
		}
		runes[i] = levels[idx]
	}
	return string(runes)
}

// Scale decides the top of a Series' sparkline from its samples.
type Scale func(samples []float64) float64

// Fixed is a Scale with a constant top, e.g. 100 for percentages.
func Fixed(full float64) Scale {
	return func([]float64) float64 { return full }
}

// Peak scales a Series to its largest sample, for unbounded rates such as
// rows per second.
func Peak(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return slices.Max(samples)
}

// Series is one labelled line of the metrics panel: a history, how to scale
// it, and how to print its newest value. Style points at a package style so
// the line follows theme changes.
type Series struct {
	Label   string
	Style   *lipgloss.Style
	Scale   Scale
	Format  func(v float64) string
	samples *RingBuffer
}

// NewSeries returns an empty series keeping capacity samples.
func NewSeries(label string, style *lipgloss.Style, scale Scale, format func(float64) string, capacity int) *Series {
	return &Series{Label: label, Style: style, Scale: scale, Format: format, samples: NewRingBuffer(capacity)}
}

// Push appends a sample.
func (s *Series) Push(v float64) { s.samples.Push(v) }

// Len returns the number of samples held.
func (s *Series) Len() int { return s.samples.Len() }

// Last returns the newest sample.
func (s *Series) Last() float64 { return s.samples.Last() }

// Cap returns the history length.
func (s *Series) Cap() int { return s.samples.Cap() }

// Resize changes the history length.
func (s *Series) Resize(capacity int) { s.samples.Resize(capacity) }

// Sparkline returns the history drawn against the series scale.
func (s *Series) Sparkline() string {
	values := s.samples.Slice()
	return RenderSparkline(values, s.Scale(values))
}

// View renders " LBL ▁▃▅█ value".
func (s *Series) View() string {
	return fmt.Sprintf(" %s %s %s",
		metricLabelStyle.Render(s.Label),
		s.Style.Render(s.Sparkline()),
		metricValueStyle.Render(s.Format(s.Last())))
}

func percent(v float64) string { return fmt.Sprintf("%3.0f%%", v) }
