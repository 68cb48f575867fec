package orchestration

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/progress"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/view"
)

// mockRenderer simulates engine behaviors without computing anything.
type mockRenderer struct {
	subject  *progress.Subject
	behavior string // "instant", "slow", "error", "progress_flood", "fill"
	delay    time.Duration
	fill     uint32
}

func newMockRenderer(behavior string) *mockRenderer {
	return &mockRenderer{subject: progress.NewSubject(), behavior: behavior}
}

func (m *mockRenderer) Progress() *progress.Subject { return m.subject }

func (m *mockRenderer) Render(ctx context.Context, _ view.Rectangle, d view.Device) (*render.Field, error) {
	notify := m.subject.FreezeFor(ctx)
	stepper := progress.NewStepper(m.behavior, d.Height, progress.DefaultStepPercent)
	switch m.behavior {
	case "slow":
		for y := 1; y <= d.Height; y++ {
			select {
			case <-ctx.Done():
				return nil, apperrors.InterruptedError{Operation: "fetch", Cause: ctx.Err()}
			case <-time.After(m.delay):
			}
			if u, ok := stepper.Advance(y); ok {
				notify(u)
			}
		}
	case "error":
		return nil, errors.New("simulated error")
	case "progress_flood":
		for i := range 10000 {
			notify(progress.Update{Pass: "flood", Rows: i % d.Height, Total: d.Height})
		}
	}
	f := render.NewField(d)
	for i := range f.Pixels {
		f.Pixels[i] = m.fill
	}
	if u, ok := stepper.Advance(d.Height); ok {
		notify(u)
	}
	return f, nil
}

// mockResultPresenter records what it was asked to present.
type mockResultPresenter struct {
	mu        sync.Mutex
	table     []RenderResult
	presented *RenderResult
}

func (p *mockResultPresenter) PresentComparisonTable(results []RenderResult, _ io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table = append([]RenderResult(nil), results...)
}

func (p *mockResultPresenter) PresentResult(result RenderResult, _ PresentationOptions, _ io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presented = &result
}

type mockErrorHandler struct{ code int }

func (h mockErrorHandler) HandleError(error, time.Duration, io.Writer) int { return h.code }
