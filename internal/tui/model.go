// Package tui implements the interactive explorer: a half-block preview of
// the current view that zooms on mouse selections, next to a live panel of
// pool, memory and host metrics.
package tui

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fractalcalc/internal/config"
	"github.com/agbru/fractalcalc/internal/display"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/metrics"
	"github.com/agbru/fractalcalc/internal/orchestration"
	"github.com/agbru/fractalcalc/internal/pool"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/sysmon"
	"github.com/agbru/fractalcalc/internal/view"
)

// Layout constants for the explorer.
const (
	headerHeight        = 1
	footerHeight        = 1
	minBodyHeight       = 4
	PreviewWidthPercent = 68
	maxHistory          = 64
	tickInterval        = 500 * time.Millisecond
)

// Engine is a renderer whose worker pool the metrics panel can inspect.
// *render.Engine implements it.
type Engine interface {
	orchestration.Renderer
	Pool() *pool.Pool
}

// LayoutManager holds terminal dimensions and provides layout calculations.
type LayoutManager struct {
	width  int
	height int
}

func (l LayoutManager) bodyHeight() int {
	return max(l.height-headerHeight-footerHeight, minBodyHeight)
}

func (l LayoutManager) previewWidth() int {
	return l.width * PreviewWidthPercent / 100
}

func (l LayoutManager) metricsWidth() int {
	return l.width - l.previewWidth()
}

// Model is the root bubbletea model of the explorer.
type Model struct {
	header  HeaderModel
	preview PreviewModel
	metrics MetricsModel
	footer  FooterModel
	keymap  KeyMap

	LayoutManager

	parentCtx  context.Context
	cancel     context.CancelFunc
	generation uint64
	rendering  bool
	exitCode   int
	paused     bool

	engines  map[string]Engine
	backends []string
	backend  string

	current view.Rectangle
	atFull  bool
	history []view.Rectangle
	field   *render.Field

	config  config.AppConfig
	palette display.Palette
	logger  logging.Logger
	memory  *metrics.MemoryCollector
	sampler *sysmon.Sampler
	ref     *programRef
}

// NewModel creates the explorer model. Rendering starts with the first
// window size message, once the preview size is known.
func NewModel(parentCtx context.Context, engines map[string]Engine, cfg config.AppConfig, version string) Model {
	backends := make([]string, 0, len(engines))
	for name := range engines {
		backends = append(backends, name)
	}
	slices.Sort(backends)
	backend := cfg.Backend
	if _, ok := engines[backend]; !ok && len(backends) > 0 {
		backend = backends[0]
	}

	pal, err := display.NewPalette(cfg.Palette, cfg.Bias, cfg.MaxIterations)
	if err != nil {
		pal, _ = display.NewPalette(display.PaletteClassic, cfg.Bias, cfg.MaxIterations)
	}

	km := DefaultKeyMap()
	m := Model{
		header:    NewHeaderModel(version),
		preview:   NewPreviewModel(pal),
		metrics:   NewMetricsModel(),
		footer:    NewFooterModel(km),
		keymap:    km,
		parentCtx: parentCtx,
		exitCode:  apperrors.ExitSuccess,
		engines:   engines,
		backends:  backends,
		backend:   backend,
		atFull:    true,
		config:    cfg,
		palette:   pal,
		logger:    logging.Nop(),
		memory:    metrics.NewMemoryCollector(),
		sampler:   sysmon.NewSampler(time.Second),
		ref:       &programRef{},
	}
	if len(cfg.Zooms) > 0 && cfg.Device().Validate() == nil {
		m.current = orchestration.ResolveView(cfg.Device(), cfg.Zooms, io.Discard)
		m.atFull = false
	}
	return m
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), watchContextCmd(m.parentCtx))
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		before := m.preview.Device()
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		if m.field == nil || m.preview.Device() != before {
			return m.startRender(false)
		}
		return m, nil

	case ProgressMsg:
		if msg.Generation != m.generation || m.paused {
			return m, nil
		}
		m.preview.SetProgress(msg.AverageProgress)
		m.footer.SetProgress(msg.AverageProgress, msg.ETA)
		m.metrics.UpdateProgress(msg.AverageProgress)
		return m, nil

	case ProgressDoneMsg:
		return m, nil

	case ResultMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.field = msg.Result.Field
		m.preview.SetField(msg.Result.Field)
		if msg.Result.Field != nil {
			m.metrics.SetResult(msg.Result.Duration, msg.Result.Field.Device.Pixels())
		}
		return m, nil

	case ComparisonResultsMsg:
		if msg.Generation == m.generation {
			m.metrics.SetComparison(msg.Results)
		}
		return m, nil

	case ErrorMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.footer.SetStatus(fmt.Sprintf("Render failed: %v", msg.Err), statusError)
		return m, nil

	case RenderCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil // superseded render
		}
		m.rendering = false
		m.exitCode = msg.ExitCode
		m.header.EndPass()
		m.footer.SetRendering(false)
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil

	case TickMsg:
		if m.paused {
			return m, tickCmd()
		}
		if eng, ok := m.engines[m.backend]; ok {
			m.metrics.UpdatePool(m.backend, eng.Pool().Stats(), time.Now())
		}
		return m, tea.Batch(sampleMemStatsCmd(m.memory), sampleSysStatsCmd(m.sampler), tickCmd())

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg)
		return m, nil

	case SysStatsMsg:
		m.metrics.UpdateSysStats(msg.CPUPercent, msg.MemPercent)
		return m, nil

	case SavedMsg:
		if msg.Err != nil {
			m.footer.SetStatus(fmt.Sprintf("Save failed: %v", msg.Err), statusError)
		} else {
			m.footer.SetStatus("Saved to "+msg.Path, statusInfo)
		}
		return m, nil

	case ContextCancelledMsg:
		if m.cancel != nil {
			m.cancel()
		}
		m.exitCode = apperrors.ExitErrorCanceled
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.preview.Device()
	w, h := d.Width, d.Height

	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		m.footer.SetPaused(m.paused)
		return m, nil

	case key.Matches(msg, m.keymap.Reset):
		return m.resetView()

	case key.Matches(msg, m.keymap.Back):
		if len(m.history) == 0 {
			m.footer.SetStatus("Already at the first view", statusWarn)
			return m, nil
		}
		m.current = m.history[len(m.history)-1]
		m.history = m.history[:len(m.history)-1]
		m.atFull = false
		return m.startRender(false)

	case key.Matches(msg, m.keymap.Rerender):
		return m.startRender(false)

	case key.Matches(msg, m.keymap.Backend):
		if len(m.backends) > 1 {
			i := slices.Index(m.backends, m.backend)
			m.backend = m.backends[(i+1)%len(m.backends)]
		}
		return m.startRender(false)

	case key.Matches(msg, m.keymap.Compare):
		return m.startRender(true)

	case key.Matches(msg, m.keymap.Save):
		if m.field == nil {
			m.footer.SetStatus("Nothing rendered yet", statusWarn)
			return m, nil
		}
		return m, saveCmd(m.field, m.palette, m.config.OutputFile, m.logger)

	case key.Matches(msg, m.keymap.ZoomIn):
		return m.zoomTo(view.Selection{X1: w / 4, Y1: h / 4, X2: w - w/4, Y2: h - h/4})
	case key.Matches(msg, m.keymap.ZoomOut):
		return m.zoomTo(view.Selection{X1: -w / 2, Y1: -h / 2, X2: w + w/2, Y2: h + h/2})
	case key.Matches(msg, m.keymap.Left):
		return m.zoomTo(view.Selection{X1: -w / 4, Y1: 0, X2: w - w/4, Y2: h})
	case key.Matches(msg, m.keymap.Right):
		return m.zoomTo(view.Selection{X1: w / 4, Y1: 0, X2: w + w/4, Y2: h})
	case key.Matches(msg, m.keymap.Up):
		return m.zoomTo(view.Selection{X1: 0, Y1: -h / 4, X2: w, Y2: h - h/4})
	case key.Matches(msg, m.keymap.Down):
		return m.zoomTo(view.Selection{X1: 0, Y1: h / 4, X2: w, Y2: h + h/4})
	}

	return m, nil
}

// handleMouse zooms on left-drag selections and resets on right click.
// The preview panel starts at the first body row.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	col, row := msg.X, msg.Y-headerHeight
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		return m.resetView()

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if x, y, ok := m.preview.cellAt(col, row); ok {
			m.preview.StartDrag(x, y)
		}
		return m, nil

	case msg.Action == tea.MouseActionMotion:
		x, y := m.preview.clampCell(col, row)
		m.preview.MoveDrag(x, y)
		return m, nil

	case msg.Action == tea.MouseActionRelease:
		x, y := m.preview.clampCell(col, row)
		if sel, ok := m.preview.EndDrag(x, y); ok {
			return m.zoomTo(sel)
		}
	}
	return m, nil
}

func (m Model) resetView() (tea.Model, tea.Cmd) {
	m.history = nil
	m.atFull = true
	return m.startRender(false)
}

// zoomTo applies a device-space selection to the current view.
func (m Model) zoomTo(sel view.Selection) (tea.Model, tea.Cmd) {
	d := m.preview.Device()
	m.resolveCurrent(d)
	next, ok := view.Zoom(m.current, d, sel)
	if !ok {
		m.footer.SetStatus("Section too small, ignoring zoom", statusWarn)
		return m, nil
	}
	m.history = append(m.history, m.current)
	if len(m.history) > maxHistory {
		m.history = m.history[1:]
	}
	m.current = next
	m.atFull = false
	return m.startRender(false)
}

func (m *Model) resolveCurrent(d view.Device) {
	if m.atFull {
		m.current = view.Full(d)
	}
}

// startRender cancels the running render, if any, and renders the current
// view on the selected backend, or on every backend when compare is set.
func (m Model) startRender(compare bool) (Model, tea.Cmd) {
	eng, ok := m.engines[m.backend]
	if !ok {
		m.footer.SetStatus("No renderer available", statusError)
		return m, nil
	}
	d := m.preview.Device()
	m.resolveCurrent(d)

	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	var ctx context.Context
	if m.config.Timeout > 0 {
		ctx, m.cancel = context.WithTimeout(m.parentCtx, m.config.Timeout)
	} else {
		ctx, m.cancel = context.WithCancel(m.parentCtx)
	}

	jobs := []orchestration.RenderJob{{Name: m.backend, Renderer: eng}}
	if compare {
		jobs = jobs[:0]
		for _, name := range m.backends {
			jobs = append(jobs, orchestration.RenderJob{Name: name, Renderer: m.engines[name]})
		}
	}

	floor := m.config.MinPrecision
	if floor == 0 {
		floor = render.DefaultMinPrecision
	}
	mag := m.current.Magnification(d)
	m.metrics.SetView(m.backend, m.current.Precision(d, floor), mag)
	m.metrics.SetComparison(nil)
	m.metrics.ResetProgress()
	m.header.SetLocation(fmt.Sprintf("%s @ %s", m.backend, formatMagnification(mag)))
	m.header.StartPass()
	m.footer.SetRendering(true)
	m.footer.SetStatus("", statusInfo)
	m.preview.SetProgress(0)
	m.rendering = true

	opts := orchestration.PresentationOptions{View: m.current, Device: d, Bias: m.config.Bias}
	return m, renderCmd(ctx, m.ref, jobs, m.current, d, opts, m.generation)
}

// View renders the entire explorer.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.preview.View(), m.metrics.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.preview.SetSize(m.previewWidth(), m.bodyHeight())
	m.metrics.SetSize(m.metricsWidth(), m.bodyHeight())
}

// Run is the public entry point for the TUI mode.
// It creates the bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, engines map[string]Engine, cfg config.AppConfig, version string, logger logging.Logger) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, engines, cfg, version)
	if logger != nil {
		model.logger = logger
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	// Inject the program reference before running so bridge goroutines can Send.
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}
	if m, ok := finalModel.(Model); ok {
		if m.cancel != nil {
			m.cancel()
		}
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// renderCmd runs the passes and forwards progress and results through ref.
func renderCmd(ctx context.Context, ref *programRef, jobs []orchestration.RenderJob, v view.Rectangle, d view.Device, opts orchestration.PresentationOptions, gen uint64) tea.Cmd {
	return func() tea.Msg {
		reporter := &TUIProgressReporter{ref: ref, gen: gen}
		presenter := &TUIResultPresenter{ref: ref, gen: gen}
		results := orchestration.ExecuteRenders(ctx, jobs, v, d, reporter, io.Discard)
		exitCode := orchestration.AnalyzeRenderResults(results, opts, presenter, presenter, io.Discard)
		return RenderCompleteMsg{ExitCode: exitCode, Generation: gen}
	}
}

// saveCmd writes f to path in the format its extension names.
func saveCmd(f *render.Field, p display.Palette, path string, logger logging.Logger) tea.Cmd {
	return func() tea.Msg {
		w, err := display.NewImageWriter(path, p, io.Discard, logger)
		if err == nil {
			err = w.Present(f)
		}
		return SavedMsg{Path: path, Err: err}
	}
}

// tickCmd returns a command that sends a TickMsg after tickInterval.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleMemStatsCmd reads runtime memory stats and returns a MemStatsMsg.
func sampleMemStatsCmd(c *metrics.MemoryCollector) tea.Cmd {
	return func() tea.Msg {
		s := c.Snapshot()
		return MemStatsMsg{
			Alloc:        s.HeapAlloc,
			HeapSys:      s.HeapSys,
			NumGC:        s.NumGC,
			PauseTotalNs: s.PauseTotalNs,
			NumGoroutine: runtime.NumGoroutine(),
		}
	}
}

// sampleSysStatsCmd reads host CPU and memory usage and returns a SysStatsMsg.
func sampleSysStatsCmd(s *sysmon.Sampler) tea.Cmd {
	return func() tea.Msg {
		st := s.Stats()
		return SysStatsMsg{CPUPercent: st.CPUPercent, MemPercent: st.MemPercent}
	}
}

// watchContextCmd waits for context cancellation and sends a message.
func watchContextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err()}
	}
}
