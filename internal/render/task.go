package render

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/view"
)

// RowTask computes the scores of one device row. It carries its own copy of
// the view, so a task never observes a later zoom.
type RowTask struct {
	Row    int
	View   view.Rectangle
	Device view.Device
	Kernel *fractal.Kernel

	evaluators *sync.Pool
	tracer     trace.Tracer
}

// RowResult is the output of a RowTask: Values holds Device.Width scores.
type RowResult struct {
	Row    int
	Values []uint32
}

// Run evaluates the row. A numeric failure is returned as a KernelError for
// the row; it fails only this task.
func (t RowTask) Run(ctx context.Context) (RowResult, error) {
	tracer := t.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	_, span := tracer.Start(ctx, "render.row", trace.WithAttributes(attribute.Int("row", t.Row)))
	defer span.End()

	res, err := t.run()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "row failed")
	}
	return res, err
}

func (t RowTask) run() (RowResult, error) {
	eval := t.evaluator()
	if t.evaluators != nil {
		defer t.evaluators.Put(eval)
	}

	buf := acquireRow(t.Device.Width)
	if err := eval.EvaluateRow(t.Row, t.View, t.Device, buf); err != nil {
		releaseRow(buf)
		return RowResult{Row: t.Row}, apperrors.KernelError{Row: t.Row, Cause: err}
	}
	return RowResult{Row: t.Row, Values: buf}, nil
}

func (t RowTask) evaluator() *fractal.Evaluator {
	if t.evaluators != nil {
		return t.evaluators.Get().(*fractal.Evaluator)
	}
	return t.Kernel.NewEvaluator()
}
