package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/fractalcalc/internal/distributor"
	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/fractal"
	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/metrics"
	"github.com/agbru/fractalcalc/internal/numeric"
	"github.com/agbru/fractalcalc/internal/pool"
	"github.com/agbru/fractalcalc/internal/progress"
	"github.com/agbru/fractalcalc/internal/view"
)

// DefaultMinPrecision is the lowest mantissa width used for view arithmetic.
const DefaultMinPrecision uint = 64

const tracerName = "github.com/agbru/fractalcalc/internal/render"

// Config configures an Engine.
type Config struct {
	// Workers is the pool size. Zero selects pool.DefaultWorkers.
	Workers int
	// QueueCapacity bounds the row tasks waiting for a worker. Zero selects
	// pool.DefaultQueueCapacity.
	QueueCapacity int
	// AdmissionTimeout bounds each row submission. Zero blocks until the
	// pass is cancelled.
	AdmissionTimeout time.Duration
	// Backend names the numeric.Field used by the kernel.
	Backend string
	// MinPrecision is the precision floor in bits. Deeper zooms raise it.
	MinPrecision uint
	// Kernel holds the scoring options.
	Kernel fractal.Options
	// Logger receives engine and pool logs.
	Logger zerolog.Logger
	// Metrics receives pool and pass instrumentation. Nil allocates a
	// private set.
	Metrics *metrics.Collectors
	// Tracer creates pass and row spans. Nil uses the global provider.
	Tracer trace.Tracer
}

// Pass describes one render pass.
type Pass struct {
	ID        string
	View      view.Rectangle
	Device    view.Device
	Precision uint
	Kernel    *fractal.Kernel
}

// Engine renders fields on a pool it owns. It is safe for concurrent use;
// concurrent passes share the pool and never cancel each other.
type Engine struct {
	cfg      Config
	pool     *pool.Pool
	metrics  *metrics.Collectors
	log      logging.Logger
	tracer   trace.Tracer
	progress *progress.Subject
}

// NewEngine validates cfg and starts the worker pool.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Backend == "" {
		cfg.Backend = numeric.BigFloatBackend
	}
	if cfg.MinPrecision == 0 {
		cfg.MinPrecision = DefaultMinPrecision
	}
	if _, err := numeric.New(cfg.Backend, cfg.MinPrecision); err != nil {
		return nil, apperrors.NewConfigError("%v (available: %v)", err, numeric.Backends())
	}
	if err := cfg.Kernel.Validate(); err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollectors()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}

	p := pool.New(pool.Config{
		Workers:          cfg.Workers,
		QueueCapacity:    cfg.QueueCapacity,
		AdmissionTimeout: cfg.AdmissionTimeout,
		Logger:           cfg.Logger,
		Metrics:          cfg.Metrics,
	})
	return &Engine{
		cfg:      cfg,
		pool:     p,
		metrics:  cfg.Metrics,
		log:      logging.NewZerologAdapter(cfg.Logger.With().Str("component", "render").Logger()),
		tracer:   cfg.Tracer,
		progress: progress.NewSubject(),
	}, nil
}

// Progress returns the subject notified at every 10% of each pass. Callers
// interested in a single pass attach an observer to its context with
// progress.WithObserver instead.
func (e *Engine) Progress() *progress.Subject { return e.progress }

// Pool exposes the worker pool, e.g. for its Stats.
func (e *Engine) Pool() *pool.Pool { return e.pool }

// Metrics returns the collectors the engine records into.
func (e *Engine) Metrics() *metrics.Collectors { return e.metrics }

// Close stops the pool after the queued tasks finish.
func (e *Engine) Close() error { return e.pool.Close() }

// NewPass prepares a pass for v on d: it picks the precision the zoom depth
// needs, builds the kernel in that precision, and snapshots the view.
//
// A backend whose fixed precision cannot separate adjacent pixels of the view
// fails the pass up front with a RenderError whose KernelError wraps
// numeric.ErrPrecisionExhausted.
func (e *Engine) NewPass(v view.Rectangle, d view.Device) (*Pass, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	prec := v.Precision(d, e.cfg.MinPrecision)
	field, err := numeric.New(e.cfg.Backend, prec)
	if err != nil {
		return nil, err
	}
	if need := v.ResolvableBits(d); field.Precision() < need {
		cause := fmt.Errorf("%w: %s keeps %d bits, the view needs %d", numeric.ErrPrecisionExhausted, field.Name(), field.Precision(), need)
		e.log.Error("view too deep for backend", cause, logging.String("pass", id))
		return nil, apperrors.RenderError{Pass: id, Row: 0, Cause: apperrors.KernelError{Row: 0, Cause: cause}}
	}
	return &Pass{
		ID:        id,
		View:      v.WithPrec(prec),
		Device:    d,
		Precision: prec,
		Kernel:    fractal.NewKernel(field, e.cfg.Kernel),
	}, nil
}

// Render computes the field for view v on device d.
//
// Rows are submitted in ascending order from a separate goroutine and
// fetched in ascending order here, so fetching overlaps submission and a
// device taller than the pool's queue never deadlocks. The first row that
// fails, whether by a kernel error, a panic, or an admission failure, aborts
// the pass: its remaining tasks are cancelled and a RenderError is returned.
func (e *Engine) Render(ctx context.Context, v view.Rectangle, d view.Device) (*Field, error) {
	pass, err := e.NewPass(v, d)
	if err != nil {
		return nil, err
	}
	return e.RenderPass(ctx, pass)
}

// RenderPass runs a prepared pass.
func (e *Engine) RenderPass(ctx context.Context, pass *Pass) (*Field, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "render.pass", trace.WithAttributes(
		attribute.String("pass.id", pass.ID),
		attribute.Int("device.width", pass.Device.Width),
		attribute.Int("device.height", pass.Device.Height),
		attribute.Int("precision", int(pass.Precision)),
		attribute.String("backend", pass.Kernel.Field().Name()),
	))
	defer span.End()

	e.log.Info("Generating image... "+pass.View.String(),
		logging.String("pass", pass.ID),
		logging.String("device", pass.Device.String()),
		logging.Int("precision", int(pass.Precision)),
	)

	field, err := e.assemble(ctx, pass)
	elapsed := time.Since(start)
	e.metrics.PassDuration.Observe(elapsed.Seconds())
	if err != nil {
		outcome := metrics.OutcomeFailed
		if apperrors.IsContextError(err) {
			outcome = metrics.OutcomeCanceled
		}
		e.metrics.Passes.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "pass aborted")
		e.log.Error("render pass aborted", err, logging.String("pass", pass.ID), logging.Duration("elapsed", elapsed))
		return nil, err
	}

	e.metrics.Passes.WithLabelValues(metrics.OutcomeOK).Inc()
	e.log.Info("Done generating fractal", logging.String("pass", pass.ID), logging.Duration("elapsed", elapsed))
	return field, nil
}

func (e *Engine) assemble(ctx context.Context, pass *Pass) (*Field, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := pass.Device
	dist := distributor.New[int, RowResult](e.pool)
	evaluators := &sync.Pool{New: func() any { return pass.Kernel.NewEvaluator() }}

	// ready carries each row index once it is submitted; submitErr carries
	// the reason submission stopped early.
	ready := make(chan int, d.Height)
	submitErr := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(ready)
		for y := range d.Height {
			task := RowTask{
				Row:        y,
				View:       pass.View,
				Device:     d,
				Kernel:     pass.Kernel,
				evaluators: evaluators,
				tracer:     e.tracer,
			}
			if err := dist.Submit(ctx, y, pool.PriorityHigh, task.Run); err != nil {
				submitErr <- err
				return
			}
			ready <- y
		}
	}()

	abort := func(row int, cause error) error {
		cancel()
		dist.Abandon()
		wg.Wait()
		var panicErr *pool.PanicError
		if errors.As(cause, &panicErr) {
			cause = apperrors.KernelError{Row: row, Cause: cause}
		}
		return apperrors.RenderError{Pass: pass.ID, Row: row, Cause: cause}
	}

	out := NewField(d)
	stepper := progress.NewStepper(pass.ID, d.Height, progress.DefaultStepPercent)
	notify := e.progress.FreezeFor(ctx)

	for y := range d.Height {
		if _, ok := <-ready; !ok {
			return nil, abort(y, <-submitErr)
		}
		res, err := dist.Fetch(ctx, y)
		if err != nil {
			return nil, abort(y, err)
		}
		copy(out.Row(y), res.Values)
		releaseRow(res.Values)
		e.metrics.Rows.Inc()
		if u, ok := stepper.Advance(y + 1); ok {
			notify(u)
		}
	}
	wg.Wait()
	return out, nil
}
