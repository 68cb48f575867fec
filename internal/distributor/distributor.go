// Package distributor correlates asynchronously computed results with the
// keys they were submitted under.
//
// Each submission owns a one-shot cell. The worker that runs the task fills
// the cell and closes its done channel; Fetch waits on that channel outside
// the map lock, so a completion that lands before the caller starts waiting
// is never missed and no lock is held while tasks compute.
package distributor

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/agbru/fractalcalc/internal/errors"
	"github.com/agbru/fractalcalc/internal/pool"
)

var (
	// ErrUnknownKey is returned by Fetch for a key with no outstanding
	// submission, including a key whose result was already fetched.
	ErrUnknownKey = errors.New("distributor: no outstanding submission for key")
	// ErrAbandoned is returned to callers waiting on a key dropped by Abandon.
	ErrAbandoned = errors.New("distributor: submission abandoned")
)

type cell[V any] struct {
	done      chan struct{}
	abandoned chan struct{}
	value     V
	err       error
}

// Distributor hands tasks to a pool and returns each result to the caller
// that fetches its key. A key may be reused once its previous result has
// been fetched.
type Distributor[K comparable, V any] struct {
	pool pool.Submitter

	mu    sync.Mutex
	cells map[K]*cell[V]
}

// New returns a distributor submitting to p.
func New[K comparable, V any](p pool.Submitter) *Distributor[K, V] {
	return &Distributor[K, V]{pool: p, cells: make(map[K]*cell[V])}
}

// Submit runs fn on the pool and files its outcome under key.
//
// It fails with a DuplicateKeyError when key already has a pending or
// unfetched result, and with the pool's admission error when the task could
// not be queued; in that case key is free again.
func (d *Distributor[K, V]) Submit(ctx context.Context, key K, priority pool.Priority, fn func(ctx context.Context) (V, error)) error {
	c := &cell[V]{done: make(chan struct{}), abandoned: make(chan struct{})}

	d.mu.Lock()
	if _, dup := d.cells[key]; dup {
		d.mu.Unlock()
		return apperrors.DuplicateKeyError{Key: key}
	}
	d.cells[key] = c
	d.mu.Unlock()

	err := d.pool.Submit(ctx, priority,
		func(ctx context.Context) error {
			v, err := fn(ctx)
			c.value = v
			return err
		},
		func(err error) {
			c.err = err
			close(c.done)
		},
	)
	if err != nil {
		d.remove(key, c)
		return err
	}
	return nil
}

// Fetch blocks until the result for key is available and returns it,
// removing the key. Each submission is fetched at most once: a second Fetch
// for the same key returns ErrUnknownKey.
//
// A cancelled ctx returns an InterruptedError and leaves the result in
// place for a later Fetch.
func (d *Distributor[K, V]) Fetch(ctx context.Context, key K) (V, error) {
	var zero V

	d.mu.Lock()
	c, ok := d.cells[key]
	d.mu.Unlock()
	if !ok {
		return zero, ErrUnknownKey
	}

	select {
	case <-c.done:
	case <-c.abandoned:
		return zero, ErrAbandoned
	case <-ctx.Done():
		return zero, apperrors.InterruptedError{Operation: "fetch", Cause: ctx.Err()}
	}

	// Another fetcher or Abandon may have claimed the cell meanwhile.
	if !d.remove(key, c) {
		return zero, ErrUnknownKey
	}
	return c.value, c.err
}

// Pending returns the number of keys submitted and not yet fetched.
func (d *Distributor[K, V]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cells)
}

// Abandon drops every outstanding key. Waiting fetchers return ErrAbandoned
// and results that complete later are discarded.
func (d *Distributor[K, V]) Abandon() {
	d.mu.Lock()
	old := d.cells
	d.cells = make(map[K]*cell[V])
	d.mu.Unlock()

	for _, c := range old {
		close(c.abandoned)
	}
}

// remove deletes key if it still maps to c.
func (d *Distributor[K, V]) remove(key K, c *cell[V]) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cells[key] != c {
		return false
	}
	delete(d.cells, key)
	return true
}
