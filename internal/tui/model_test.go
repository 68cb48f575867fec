package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/fractalcalc/internal/config"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/numeric"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/view"
)

func newTestEngines(t *testing.T, backends ...string) map[string]Engine {
	t.Helper()
	engines := make(map[string]Engine, len(backends))
	for _, b := range backends {
		e, err := render.NewEngine(render.Config{
			Workers: 2,
			Backend: b,
			Kernel:  fractal.Options{MaxIterations: 32, Bias: fractal.DefaultBias},
		})
		if err != nil {
			t.Fatalf("NewEngine(%s): %v", b, err)
		}
		t.Cleanup(func() { _ = e.Close() })
		engines[b] = e
	}
	return engines
}

// testModel wraps a Model whose bridge messages are queued instead of sent
// to a program.
type testModel struct {
	t       *testing.T
	m       Model
	pending []tea.Msg
}

func newTestModel(t *testing.T, backends ...string) *testModel {
	t.Helper()
	if len(backends) == 0 {
		backends = []string{numeric.Float64Backend}
	}
	cfg := config.AppConfig{
		Backend:       backends[0],
		MaxIterations: 32,
		Bias:          config.DefaultBias,
		Palette:       config.DefaultPalette,
		OutputFile:    filepath.Join(t.TempDir(), "explorer.png"),
	}
	tm := &testModel{t: t, m: NewModel(context.Background(), newTestEngines(t, backends...), cfg, "test")}
	tm.m.ref.setSender(func(msg tea.Msg) { tm.pending = append(tm.pending, msg) })
	return tm
}

// send applies msg and runs the returned command when it is a render or a
// save, replaying the bridge messages in the order they were sent.
func (tm *testModel) send(msg tea.Msg) tea.Cmd {
	tm.t.Helper()
	next, cmd := tm.m.Update(msg)
	tm.m = next.(Model)
	return cmd
}

// settle runs cmd synchronously and feeds its effects back into the model.
func (tm *testModel) settle(cmd tea.Cmd) {
	tm.t.Helper()
	if cmd == nil {
		return
	}
	out := cmd()
	queued := tm.pending
	tm.pending = nil
	for _, msg := range queued {
		tm.send(msg)
	}
	tm.send(out)
}

func (tm *testModel) resize(w, h int) {
	tm.t.Helper()
	tm.settle(tm.send(tea.WindowSizeMsg{Width: w, Height: h}))
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ViewBeforeSize(t *testing.T) {
	tm := newTestModel(t)
	if got := tm.m.View(); got != "Initializing..." {
		t.Errorf("View() = %q, want Initializing...", got)
	}
}

func TestModel_FirstRenderOnResize(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(40, 12)

	if tm.m.field == nil {
		t.Fatal("expected a field after the first render")
	}
	if tm.m.field.Device != tm.m.preview.Device() {
		t.Errorf("field device %v, want preview device %v", tm.m.field.Device, tm.m.preview.Device())
	}
	if tm.m.rendering {
		t.Error("render should be complete")
	}
	if tm.m.exitCode != apperrors.ExitSuccess {
		t.Errorf("exit code %d, want %d", tm.m.exitCode, apperrors.ExitSuccess)
	}
	if !strings.Contains(tm.m.View(), "Fractal Explorer") {
		t.Error("expected the header in the view")
	}
}

func TestModel_ResizeToSameDeviceDoesNotRerender(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(40, 12)
	gen := tm.m.generation

	if cmd := tm.send(tea.WindowSizeMsg{Width: 40, Height: 12}); cmd != nil {
		t.Error("expected no render when the preview size is unchanged")
	}
	if tm.m.generation != gen {
		t.Error("generation must not change")
	}
}

func TestModel_ZoomInAndBack(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(40, 12)
	full := tm.m.current
	fullField := tm.m.field

	tm.settle(tm.send(runes("+")))
	if len(tm.m.history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(tm.m.history))
	}
	if tm.m.current.String() == full.String() {
		t.Error("zoom must change the view")
	}
	if mag := tm.m.current.Magnification(tm.m.preview.Device()); mag < 1.5 {
		t.Errorf("expected about 2× magnification, got %v", mag)
	}
	if tm.m.field == fullField {
		t.Error("expected a new field after the zoom")
	}

	tm.settle(tm.send(runes("b")))
	if len(tm.m.history) != 0 {
		t.Errorf("expected empty history, got %d", len(tm.m.history))
	}
	if tm.m.current.String() != full.String() {
		t.Errorf("back should restore %s, got %s", full, tm.m.current)
	}
}

func TestModel_BackWithoutHistory(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(40, 12)

	if cmd := tm.send(runes("b")); cmd != nil {
		t.Error("expected no render")
	}
	if !strings.Contains(tm.m.footer.Status(), "first view") {
		t.Errorf("unexpected status %q", tm.m.footer.Status())
	}
}

func TestModel_MouseZoom(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(40, 12)
	full := tm.m.current

	tm.send(tea.MouseMsg{X: 2, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	tm.send(tea.MouseMsg{X: 8, Y: 4, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	tm.settle(tm.send(tea.MouseMsg{X: 12, Y: 6, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}))

	if len(tm.m.history) != 1 {
		t.Fatalf("expected the drag to zoom, history %d", len(tm.m.history))
	}
	if tm.m.current.String() == full.String() {
		t.Error("drag zoom must change the view")
	}

	tm.settle(tm.send(tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonRight}))
	if len(tm.m.history) != 0 || !tm.m.atFull {
		t.Error("right click should reset to the full view")
	}
	if tm.m.current.String() != full.String() {
		t.Errorf("reset should render %s, got %s", full, tm.m.current)
	}
}

func TestModel_EmptySelectionIgnored(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(40, 12)
	gen := tm.m.generation

	tm.send(tea.MouseMsg{X: 4, Y: 4, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if cmd := tm.send(tea.MouseMsg{X: 4, Y: 4, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}); cmd != nil {
		t.Error("an empty selection must not start a render")
	}
	if tm.m.generation != gen {
		t.Error("generation must not change")
	}
	if !strings.Contains(tm.m.footer.Status(), "too small") {
		t.Errorf("unexpected status %q", tm.m.footer.Status())
	}
}

func TestModel_StaleMessagesIgnored(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(40, 12)
	field := tm.m.field
	stale := tm.m.generation - 1

	tm.send(ResultMsg{Generation: stale})
	tm.send(ErrorMsg{Err: context.Canceled, Generation: stale})
	tm.send(RenderCompleteMsg{ExitCode: apperrors.ExitErrorCanceled, Generation: stale})

	if tm.m.field != field {
		t.Error("stale result replaced the field")
	}
	if tm.m.footer.Status() != "" {
		t.Errorf("stale error set status %q", tm.m.footer.Status())
	}
	if tm.m.exitCode != apperrors.ExitSuccess {
		t.Errorf("stale completion set exit code %d", tm.m.exitCode)
	}
}

func TestModel_NewRenderSupersedesRunning(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(40, 12)

	first := tm.send(runes("+"))
	gen := tm.m.generation
	second := tm.send(runes("r"))
	if tm.m.generation != gen+1 {
		t.Fatalf("expected generation %d, got %d", gen+1, tm.m.generation)
	}

	// The superseded command runs on a cancelled context and its messages
	// carry the old generation.
	tm.settle(first)
	if !tm.m.rendering {
		t.Error("the superseded render must not end the current one")
	}
	tm.settle(second)
	if tm.m.rendering {
		t.Error("expected the current render to complete")
	}
	if !tm.m.atFull {
		t.Error("expected the reset view")
	}
}

func TestModel_BackendCycleAndCompare(t *testing.T) {
	tm := newTestModel(t, numeric.Float64Backend, numeric.BigFloatBackend)
	tm.resize(30, 8)

	first := tm.m.backend
	tm.settle(tm.send(tea.KeyMsg{Type: tea.KeyTab}))
	if tm.m.backend == first {
		t.Errorf("tab should switch away from %s", first)
	}

	tm.settle(tm.send(runes("c")))
	if len(tm.m.metrics.comparison) != 2 {
		t.Fatalf("expected a two-backend comparison, got %d", len(tm.m.metrics.comparison))
	}
}

func TestModel_Save(t *testing.T) {
	tm := newTestModel(t)

	tm.send(runes("s"))
	if !strings.Contains(tm.m.footer.Status(), "Nothing rendered") {
		t.Errorf("unexpected status %q", tm.m.footer.Status())
	}

	tm.resize(30, 8)
	tm.settle(tm.send(runes("s")))
	if !strings.HasPrefix(tm.m.footer.Status(), "Saved to") {
		t.Fatalf("unexpected status %q", tm.m.footer.Status())
	}
	if _, err := os.Stat(tm.m.config.OutputFile); err != nil {
		t.Errorf("expected the image on disk: %v", err)
	}
}

func TestModel_PauseSkipsSampling(t *testing.T) {
	tm := newTestModel(t)
	tm.resize(30, 8)

	tm.send(runes("p"))
	if !tm.m.paused {
		t.Fatal("expected paused")
	}
	before := tm.m.metrics.lastProgress
	tm.m.metrics.lastUpdate = time.Now().Add(-time.Second)
	tm.send(ProgressMsg{AverageProgress: 0.37, Generation: tm.m.generation})
	if tm.m.metrics.lastProgress != before {
		t.Error("paused model must ignore progress")
	}
	tm.send(runes("p"))
	if tm.m.paused {
		t.Error("expected resumed")
	}
}

func TestModel_QuitAndCancellation(t *testing.T) {
	tm := newTestModel(t)

	cmd := tm.send(runes("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	tm = newTestModel(t)
	cmd = tm.send(ContextCancelledMsg{Err: context.Canceled})
	if tm.m.exitCode != apperrors.ExitErrorCanceled {
		t.Errorf("exit code %d, want %d", tm.m.exitCode, apperrors.ExitErrorCanceled)
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_InitialZooms(t *testing.T) {
	cfg := config.AppConfig{
		Width:         64,
		Height:        48,
		Backend:       numeric.Float64Backend,
		MaxIterations: 32,
		Palette:       config.DefaultPalette,
		Zooms:         []view.Selection{{X1: 16, Y1: 12, X2: 48, Y2: 36}},
	}
	m := NewModel(context.Background(), newTestEngines(t, numeric.Float64Backend), cfg, "test")
	if m.atFull {
		t.Fatal("configured zooms should set the starting view")
	}
	d := view.Device{Width: 64, Height: 48}
	if mag := m.current.Magnification(d); mag < 1.5 {
		t.Errorf("expected a zoomed start, magnification %v", mag)
	}
}

func TestLayoutManager(t *testing.T) {
	l := LayoutManager{width: 100, height: 30}
	if l.previewWidth()+l.metricsWidth() != 100 {
		t.Error("panels must fill the width")
	}
	if l.bodyHeight() != 28 {
		t.Errorf("bodyHeight = %d, want 28", l.bodyHeight())
	}
	if (LayoutManager{height: 2}).bodyHeight() != minBodyHeight {
		t.Error("body height must not drop below the minimum")
	}
}
