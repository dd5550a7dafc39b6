// Package gate serializes mutations behind a single process-wide lock with a
// bounded wait.
//
//	err := g.Do(ctx, func(ctx context.Context) error {
//		return store.Update(ctx, "Project", id, payload)
//	})
//	if errors.Is(err, gate.ErrBusy) {
//		// lock not acquired in time, fn did not run
//	}
//
// The lock is released on every exit path of fn, including panics, which are
// re-raised after the release. Once fn is running it has no deadline.
package gate

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxWait is how long Do waits for the lock.
const DefaultMaxWait = 10 * time.Second

// ErrBusy is returned when the lock could not be acquired in time.
var ErrBusy = errors.New("gate: busy, lock not acquired in time")

// Observer is told how long each caller waited and whether it got the lock.
type Observer func(wait time.Duration, acquired bool)

// Gate is a mutual-exclusion lock with bounded acquisition.
type Gate struct {
	sem      *semaphore.Weighted
	maxWait  time.Duration
	observer Observer
}

// Option configures a Gate.
type Option func(*Gate)

// WithMaxWait sets the wait used by Do. Non-positive values are ignored.
// Default: 10 seconds
func WithMaxWait(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.maxWait = d
		}
	}
}

// WithObserver registers a callback invoked after every acquisition attempt
// that got the lock or ran out of wait. Attempts abandoned because the
// caller's context ended are not reported.
func WithObserver(o Observer) Option {
	return func(g *Gate) { g.observer = o }
}

// New creates an unlocked gate.
func New(opts ...Option) *Gate {
	g := &Gate{sem: semaphore.NewWeighted(1), maxWait: DefaultMaxWait}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxWait returns the wait used by Do.
func (g *Gate) MaxWait() time.Duration { return g.maxWait }

// Do runs fn while holding the lock, waiting up to the configured maximum.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return g.DoWait(ctx, g.maxWait, fn)
}

// DoWait runs fn while holding the lock, waiting at most maxWait for it.
// A non-positive maxWait tries once without waiting. ErrBusy is returned
// without running fn when the wait expires; if ctx ends first its error is
// returned instead.
func (g *Gate) DoWait(ctx context.Context, maxWait time.Duration, fn func(ctx context.Context) error) error {
	if err := g.acquire(ctx, maxWait); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn(ctx)
}

func (g *Gate) acquire(ctx context.Context, maxWait time.Duration) error {
	start := time.Now()

	if maxWait <= 0 {
		ok := g.sem.TryAcquire(1)
		g.observe(time.Since(start), ok)
		if !ok {
			return ErrBusy
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	err := g.sem.Acquire(waitCtx, 1)
	switch {
	case err == nil:
		g.observe(time.Since(start), true)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		g.observe(time.Since(start), false)
		return ErrBusy
	}
}

func (g *Gate) observe(wait time.Duration, acquired bool) {
	if g.observer != nil {
		g.observer(wait, acquired)
	}
}

// Run is Do for functions that return a value.
func Run[T any](ctx context.Context, g *Gate, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
