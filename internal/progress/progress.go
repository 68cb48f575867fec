// Package progress carries render-pass progress from the engine to whatever
// is displaying it: a CLI spinner, the TUI, or the log.
package progress

import (
	"context"
	"slices"
	"sync"

	"github.com/agbru/fractalcalc/internal/logging"
)

// DefaultStepPercent is the reporting granularity of a render pass.
const DefaultStepPercent = 10

// Update reports how many rows of a pass have been assembled.
type Update struct {
	// Pass identifies the render pass.
	Pass string
	// Rows is the number of rows copied into the output so far.
	Rows int
	// Total is the number of rows in the pass.
	Total int
	// Percent is the completed fraction rounded down to the reporting step.
	Percent int
}

// Fraction returns Rows / Total in [0, 1].
func (u Update) Fraction() float64 {
	if u.Total <= 0 {
		return 0
	}
	return float64(u.Rows) / float64(u.Total)
}

// Done reports whether every row has been assembled.
func (u Update) Done() bool { return u.Total > 0 && u.Rows >= u.Total }

// Callback receives progress updates.
type Callback func(Update)

// Observer is notified of progress updates.
type Observer interface {
	OnProgress(Update)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Update)

// OnProgress calls f.
func (f ObserverFunc) OnProgress(u Update) { f(u) }

// Subject fans updates out to registered observers.
type Subject struct {
	mu        sync.RWMutex
	nextID    int
	observers []registration
}

type registration struct {
	id int
	o  Observer
}

// NewSubject returns a Subject with no observers.
func NewSubject() *Subject {
	return &Subject{}
}

// Register adds an observer and returns a function removing it. Passes
// already in flight keep notifying it until they finish.
func (s *Subject) Register(o Observer) (unregister func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, registration{id: id, o: o})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(r registration) bool { return r.id == id })
	}
}

// Freeze returns a Callback bound to the observers registered so far.
// Observers registered afterwards are not notified through it, so a pass in
// flight never sees the observer list change.
func (s *Subject) Freeze() Callback {
	s.mu.RLock()
	snapshot := make([]Observer, len(s.observers))
	for i, r := range s.observers {
		snapshot[i] = r.o
	}
	s.mu.RUnlock()

	return func(u Update) {
		for _, o := range snapshot {
			o.OnProgress(u)
		}
	}
}

// FreezeFor is Freeze plus the observer attached to ctx by WithObserver,
// if any. The ctx observer sees only the pass running under ctx.
func (s *Subject) FreezeFor(ctx context.Context) Callback {
	notify := s.Freeze()
	o := ObserverFrom(ctx)
	if o == nil {
		return notify
	}
	return func(u Update) {
		notify(u)
		o.OnProgress(u)
	}
}

type observerKey struct{}

// WithObserver returns a context whose passes report to o in addition to the
// engine's registered observers.
func WithObserver(ctx context.Context, o Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, o)
}

// ObserverFrom returns the observer attached by WithObserver, or nil.
func ObserverFrom(ctx context.Context) Observer {
	o, _ := ctx.Value(observerKey{}).(Observer)
	return o
}

// Stepper turns per-row progress into updates at fixed percent steps.
// It is not safe for concurrent use; the engine advances it from the single
// goroutine that assembles the field.
type Stepper struct {
	pass  string
	total int
	step  int
	last  int
}

// NewStepper returns a Stepper for a pass of total rows reporting every
// stepPercent percent.
func NewStepper(pass string, total, stepPercent int) *Stepper {
	if stepPercent <= 0 || stepPercent > 100 {
		stepPercent = DefaultStepPercent
	}
	return &Stepper{pass: pass, total: total, step: stepPercent}
}

// Advance records that rows rows are complete. It returns an update, and
// true, when a step boundary was crossed since the previous update. Several
// boundaries crossed at once produce one update for the highest.
func (s *Stepper) Advance(rows int) (Update, bool) {
	if s.total <= 0 {
		return Update{}, false
	}
	percent := rows * 100 / s.total
	percent -= percent % s.step
	if percent <= s.last {
		return Update{}, false
	}
	s.last = percent
	return Update{Pass: s.pass, Rows: rows, Total: s.total, Percent: percent}, true
}

// ChannelObserver forwards updates to a channel without blocking; updates
// are dropped while the channel is full or after Close.
type ChannelObserver struct {
	mu     sync.Mutex
	ch     chan<- Update
	closed bool
}

// NewChannelObserver returns an observer sending to ch.
func NewChannelObserver(ch chan<- Update) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnProgress implements Observer.
func (o *ChannelObserver) OnProgress(u Update) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.ch <- u:
	default:
	}
}

// Close closes the channel. Later updates are dropped. Calling Close more
// than once is safe.
func (o *ChannelObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}

// LoggingObserver writes one log entry per update.
type LoggingObserver struct {
	logger logging.Logger
}

// NewLoggingObserver returns an observer logging to logger.
func NewLoggingObserver(logger logging.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

// OnProgress implements Observer.
func (o *LoggingObserver) OnProgress(u Update) {
	o.logger.Info("render progress",
		logging.String("pass", u.Pass),
		logging.Int("percent", u.Percent),
		logging.Int("rows", u.Rows),
		logging.Int("total", u.Total),
	)
}

// NoOpObserver ignores updates.
type NoOpObserver struct{}

// OnProgress implements Observer.
func (NoOpObserver) OnProgress(Update) {}
