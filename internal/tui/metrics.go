package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fractalcalc/internal/format"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/pool"
)

// sparklineSamples is the default history length of the sparklines.
const sparklineSamples = 32

// MetricsModel displays the current view, the worker pool, runtime memory
// and host load.
type MetricsModel struct {
	// view
	backend       string
	precision     uint
	magnification float64

	// last render
	duration   time.Duration
	pixels     int
	comparison []orchestration.RenderResult

	// progress speed, fraction per second
	speed        float64
	lastProgress float64
	lastUpdate   time.Time

	pool pool.Stats
	// previous pool sample, for row throughput
	poolBackend   string
	lastCompleted uint64
	lastPoolAt    time.Time

	alloc        uint64
	heapSys      uint64
	numGC        uint32
	pauseTotalNs uint64
	numGoroutine int

	queue *Series // pending rows, % of queue capacity
	rows  *Series // rows finished per second
	cpu   *Series
	mem   *Series

	width  int
	height int
}

// NewMetricsModel creates a new metrics panel.
func NewMetricsModel() MetricsModel {
	return MetricsModel{
		lastUpdate: time.Now(),
		queue:      NewSeries("QUE", &queueSparklineStyle, Fixed(100), percent, sparklineSamples),
		rows:       NewSeries("ROW", &rowsSparklineStyle, Peak, format.FormatRowRate, sparklineSamples),
		cpu:        NewSeries("CPU", &cpuSparklineStyle, Fixed(100), percent, sparklineSamples),
		mem:        NewSeries("MEM", &memSparklineStyle, Fixed(100), percent, sparklineSamples),
	}
}

func (m *MetricsModel) series() []*Series {
	return []*Series{m.queue, m.rows, m.cpu, m.mem}
}

// SetSize updates dimensions and resizes the sparkline history to the
// panel width.
func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	// Leave room for the label and the widest value, "12.3k rows/s".
	if n := w - 22; n > 0 {
		for _, s := range m.series() {
			s.Resize(n)
		}
	}
}

// SetView records the parameters of the displayed view.
func (m *MetricsModel) SetView(backend string, precision uint, magnification float64) {
	m.backend = backend
	m.precision = precision
	m.magnification = magnification
}

// SetResult records a finished render.
func (m *MetricsModel) SetResult(d time.Duration, pixels int) {
	m.duration = d
	m.pixels = pixels
}

// SetComparison records the per-backend results of the last render; a
// single result clears the comparison section.
func (m *MetricsModel) SetComparison(results []orchestration.RenderResult) {
	if len(results) < 2 {
		m.comparison = nil
		return
	}
	m.comparison = results
}

// ResetProgress starts speed tracking for a new render.
func (m *MetricsModel) ResetProgress() {
	m.speed = 0
	m.lastProgress = 0
	m.lastUpdate = time.Now()
}

// UpdateProgress updates the speed metric.
func (m *MetricsModel) UpdateProgress(progress float64) {
	now := time.Now()
	dt := now.Sub(m.lastUpdate).Seconds()
	if dt > 0.05 {
		dp := progress - m.lastProgress
		if dp > 0 {
			instantSpeed := dp / dt
			if m.speed > 0 {
				m.speed = 0.7*m.speed + 0.3*instantSpeed
			} else {
				m.speed = instantSpeed
			}
		}
		m.lastProgress = progress
		m.lastUpdate = now
	}
}

// UpdatePool records a snapshot of backend's worker pool taken at now and
// samples the queue fill and the row throughput since the previous snapshot
// of the same pool.
func (m *MetricsModel) UpdatePool(backend string, s pool.Stats, now time.Time) {
	m.pool = s
	if s.Capacity > 0 {
		m.queue.Push(100 * float64(s.Pending) / float64(s.Capacity))
	}
	if backend != m.poolBackend {
		m.poolBackend = backend
		m.lastPoolAt = time.Time{}
	}
	if !m.lastPoolAt.IsZero() && s.Completed >= m.lastCompleted {
		if dt := now.Sub(m.lastPoolAt).Seconds(); dt > 0 {
			m.rows.Push(float64(s.Completed-m.lastCompleted) / dt)
		}
	}
	m.lastCompleted = s.Completed
	m.lastPoolAt = now
}

// UpdateMemStats updates memory statistics.
func (m *MetricsModel) UpdateMemStats(msg MemStatsMsg) {
	m.alloc = msg.Alloc
	m.heapSys = msg.HeapSys
	m.numGC = msg.NumGC
	m.pauseTotalNs = msg.PauseTotalNs
	m.numGoroutine = msg.NumGoroutine
}

// UpdateSysStats appends a host load sample.
func (m *MetricsModel) UpdateSysStats(cpu, mem float64) {
	m.cpu.Push(cpu)
	m.mem.Push(mem)
}

// View renders the metrics panel.
func (m MetricsModel) View() string {
	colWidth := max(m.width-4, 10)
	var rows []string
	add := func(label, value string) {
		rows = append(rows, formatMetricCol(label, value, colWidth))
	}

	rows = append(rows, metricValueStyle.Render(" Metrics"))
	add("Backend:", m.backend)
	add("Precision:", fmt.Sprintf("%d bits", m.precision))
	add("Zoom:", formatMagnification(m.magnification))
	if m.duration > 0 {
		add("Render:", format.FormatPassTiming(m.duration, m.pixels))
	} else {
		add("Render:", "-")
	}
	add("Speed:", fmt.Sprintf("%.1f%%/s", m.speed*100))

	rows = append(rows, "")
	add("Workers:", fmt.Sprintf("%d (%d running)", m.pool.Workers, m.pool.Running))
	add("Queue:", fmt.Sprintf("%d / %d", m.pool.Pending, m.pool.Capacity))
	add("Tasks:", fmt.Sprintf("%s done, %d failed", format.FormatNumber(int64(m.pool.Completed)), m.pool.Failed))

	rows = append(rows, "")
	add("Heap:", format.FormatBytes(m.alloc)+" / "+format.FormatBytes(m.heapSys))
	add("GC Runs:", fmt.Sprintf("%d (%.1fms)", m.numGC, float64(m.pauseTotalNs)/1e6))
	add("Goroutines:", fmt.Sprintf("%d", m.numGoroutine))

	for _, s := range m.series() {
		if s.Len() > 0 {
			rows = append(rows, s.View())
		}
	}

	if len(m.comparison) > 0 {
		rows = append(rows, "", metricValueStyle.Render(" Comparison"))
		for _, r := range m.comparison {
			status := "identical"
			switch {
			case r.Err != nil:
				status = "failed"
			case r.Mismatches > 0:
				status = fmt.Sprintf("%d px differ", r.Mismatches)
			}
			add(r.Name+":", format.FormatRenderDuration(r.Duration)+" "+status)
		}
	}

	if inner := m.height - 2; inner > 0 && len(rows) > inner {
		rows = rows[:inner]
	}
	return panelStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Render(strings.Join(rows, "\n"))
}

func formatMagnification(mag float64) string {
	switch {
	case mag <= 0:
		return "-"
	case mag < 1e4:
		return fmt.Sprintf("%.1f×", mag)
	default:
		return fmt.Sprintf("%.3g×", mag)
	}
}

func formatMetricCol(label, value string, colWidth int) string {
	cell := fmt.Sprintf(" %s %s",
		metricLabelStyle.Render(fmt.Sprintf("%-11s", label)),
		metricValueStyle.Render(value))
	// Pad to fixed column width using lipgloss-aware width
	if visible := lipgloss.Width(cell); visible < colWidth {
		cell += strings.Repeat(" ", colWidth-visible)
	}
	return cell
}
