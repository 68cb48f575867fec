package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/metrics"
)

// DefaultQueueCapacity is the number of tasks allowed to wait for a worker.
const DefaultQueueCapacity = 500

// DefaultWorkers returns the default pool size: two workers per CPU.
func DefaultWorkers() int {
	return 2 * runtime.NumCPU()
}

// ErrClosed is returned by Submit after Close has been called.
var ErrClosed = errors.New("pool: closed")

// Priority selects the tier a task waits in.
type Priority int

const (
	// PriorityHigh tasks are always dequeued before PriorityLow tasks.
	PriorityHigh Priority = iota
	// PriorityLow tasks run when no high priority task is waiting.
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Func is the body of a task. ctx is the context the task was submitted
// with.
type Func func(ctx context.Context) error

// Submitter is the part of the pool the distributor depends on.
type Submitter interface {
	// Submit queues fn. done, when non-nil, is called exactly once with the
	// task's outcome, from the worker goroutine.
	Submit(ctx context.Context, priority Priority, fn Func, done func(error)) error
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error, such as big.ErrNaN.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Config configures a Pool.
type Config struct {
	// Workers is the number of worker goroutines. Zero selects DefaultWorkers.
	Workers int
	// QueueCapacity bounds the tasks waiting for a worker. Zero selects
	// DefaultQueueCapacity.
	QueueCapacity int
	// AdmissionTimeout bounds how long Submit waits for queue space. Zero
	// waits until the caller's context ends.
	AdmissionTimeout time.Duration
	// Logger receives pool lifecycle and panic reports.
	Logger zerolog.Logger
	// Metrics receives queue and task instrumentation. Nil allocates a
	// private, unexported set.
	Metrics *metrics.Collectors
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers   int
	Capacity  int
	Pending   int64
	Running   int64
	Completed uint64
	Failed    uint64
}

type item struct {
	ctx      context.Context
	fn       Func
	done     func(error)
	priority Priority
}

// Pool is a fixed-size worker pool with bounded, blocking admission.
type Pool struct {
	cfg     Config
	log     zerolog.Logger
	metrics *metrics.Collectors

	sem  *semaphore.Weighted
	high chan *item
	low  chan *item
	quit chan struct{}
	g    errgroup.Group

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	pending   atomic.Int64
	running   atomic.Int64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// New starts a pool. The workers run until Close.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollectors()
	}
	p := &Pool{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "pool").Logger(),
		metrics: cfg.Metrics,
		sem:     semaphore.NewWeighted(int64(cfg.QueueCapacity)),
		high:    make(chan *item, cfg.QueueCapacity),
		low:     make(chan *item, cfg.QueueCapacity),
		quit:    make(chan struct{}),
	}
	for id := range cfg.Workers {
		p.g.Go(func() error {
			p.worker(id)
			return nil
		})
	}
	p.log.Debug().Int("workers", cfg.Workers).Int("queue_capacity", cfg.QueueCapacity).
		Dur("admission_timeout", cfg.AdmissionTimeout).Msg("pool started")
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.cfg.Workers }

// Capacity returns the pending queue capacity.
func (p *Pool) Capacity() int { return p.cfg.QueueCapacity }

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.cfg.Workers,
		Capacity:  p.cfg.QueueCapacity,
		Pending:   p.pending.Load(),
		Running:   p.running.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Submit queues fn in the given tier, blocking while the pending queue is
// full.
//
// Parameters:
//   - ctx: Bounds the admission wait and is passed to fn. A task whose
//     context is done by the time a worker picks it up is not run; done
//     receives the context error instead.
//   - priority: The tier to queue in.
//   - fn: The task body.
//   - done: Optional completion callback, called exactly once.
//
// Returns:
//   - error: ErrClosed, an InterruptedError when ctx ends while waiting, or
//     an AdmissionTimeoutError. done is not called when Submit fails.
func (p *Pool) Submit(ctx context.Context, priority Priority, fn Func, done func(error)) error {
	if p.isClosed() {
		return ErrClosed
	}
	if err := p.admit(ctx); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.sem.Release(1)
		return ErrClosed
	}
	it := &item{ctx: ctx, fn: fn, done: done, priority: priority}
	p.pending.Add(1)
	p.metrics.QueueDepth.WithLabelValues(priority.String()).Inc()
	if priority == PriorityHigh {
		p.high <- it
	} else {
		p.low <- it
	}
	return nil
}

func (p *Pool) admit(ctx context.Context) error {
	start := time.Now()
	actx := ctx
	if p.cfg.AdmissionTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, p.cfg.AdmissionTimeout)
		defer cancel()
	}
	if err := p.sem.Acquire(actx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperrors.InterruptedError{Operation: "submit", Cause: ctxErr}
		}
		return apperrors.AdmissionTimeoutError{Capacity: p.cfg.QueueCapacity, Limit: p.cfg.AdmissionTimeout}
	}
	p.metrics.AdmissionWait.Observe(time.Since(start).Seconds())
	return nil
}

func (p *Pool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Pool) worker(id int) {
	for {
		// High tier first, without blocking.
		select {
		case it := <-p.high:
			p.execute(it)
			continue
		default:
		}

		select {
		case it := <-p.high:
			p.execute(it)
		case it := <-p.low:
			p.execute(it)
		case <-p.quit:
			p.drain()
			p.log.Debug().Int("worker", id).Msg("worker stopped")
			return
		}
	}
}

// drain runs whatever is still queued once Close has been called.
func (p *Pool) drain() {
	for {
		select {
		case it := <-p.high:
			p.execute(it)
		case it := <-p.low:
			p.execute(it)
		default:
			return
		}
	}
}

func (p *Pool) execute(it *item) {
	p.sem.Release(1)
	p.pending.Add(-1)
	p.metrics.QueueDepth.WithLabelValues(it.priority.String()).Dec()

	p.running.Add(1)
	p.metrics.Running.Inc()
	start := time.Now()
	err := p.run(it)
	p.metrics.TaskDuration.Observe(time.Since(start).Seconds())
	p.metrics.Running.Dec()
	p.running.Add(-1)

	var panicErr *PanicError
	switch {
	case err == nil:
		p.completed.Add(1)
		p.metrics.Tasks.WithLabelValues(metrics.OutcomeOK).Inc()
	case errors.As(err, &panicErr):
		p.failed.Add(1)
		p.metrics.Tasks.WithLabelValues(metrics.OutcomePanic).Inc()
		p.log.Error().Interface("panic", panicErr.Value).Bytes("stack", panicErr.Stack).Msg("task panicked")
	case apperrors.IsContextError(err):
		p.failed.Add(1)
		p.metrics.Tasks.WithLabelValues(metrics.OutcomeCanceled).Inc()
	default:
		p.failed.Add(1)
		p.metrics.Tasks.WithLabelValues(metrics.OutcomeFailed).Inc()
	}

	if it.done != nil {
		it.done(err)
	}
}

func (p *Pool) run(it *item) (err error) {
	if ctxErr := it.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return it.fn(it.ctx)
}

// Close stops admission, lets the workers finish every queued task, and waits
// for them. Submitters blocked on a full queue return ErrClosed once space
// frees. Close is idempotent.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.quit)
	})
	return p.g.Wait()
}
