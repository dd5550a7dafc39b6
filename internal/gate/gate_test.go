package gate_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/folio/internal/gate"
)

func TestDo_SerializesCallers(t *testing.T) {
	t.Parallel()

	g := gate.New()
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		counter int
		wg      sync.WaitGroup
	)

	for range 50 {
		wg.Go(func() {
			err := g.Do(context.Background(), func(context.Context) error {
				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				counter++
				time.Sleep(100 * time.Microsecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Equal(t, 50, counter)
}

func TestDoWait_BusyWhenHeld(t *testing.T) {
	t.Parallel()

	g := gate.New()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = g.Do(context.Background(), func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ran := false
	start := time.Now()
	err := g.DoWait(context.Background(), 30*time.Millisecond, func(context.Context) error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, gate.ErrBusy)
	assert.False(t, ran, "fn must not run without the lock")
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	err = g.DoWait(context.Background(), 0, func(context.Context) error { return nil })
	require.ErrorIs(t, err, gate.ErrBusy, "zero wait tries once")

	close(release)
	assert.Eventually(t, func() bool {
		return g.DoWait(context.Background(), 0, func(context.Context) error { return nil }) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestDo_ReleasesOnError(t *testing.T) {
	t.Parallel()

	g := gate.New()
	boom := errors.New("boom")

	err := g.Do(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	err = g.DoWait(context.Background(), 0, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestDo_ReleasesOnPanic(t *testing.T) {
	t.Parallel()

	g := gate.New()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = g.Do(context.Background(), func(context.Context) error { panic("kaboom") })
	})

	err := g.DoWait(context.Background(), 0, func(context.Context) error { return nil })
	assert.NoError(t, err, "lock must be free after a panic")
}

func TestDoWait_ContextCancelled(t *testing.T) {
	t.Parallel()

	g := gate.New()
	held := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		_ = g.Do(context.Background(), func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.DoWait(ctx, time.Second, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObserver(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		outcomes []bool
	)
	g := gate.New(gate.WithObserver(func(_ time.Duration, acquired bool) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, acquired)
	}))

	require.NoError(t, g.Do(context.Background(), func(context.Context) error {
		err := g.DoWait(context.Background(), 0, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, gate.ErrBusy)
		return nil
	}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, outcomes)
}

func TestObserver_IgnoresCancelledCallers(t *testing.T) {
	t.Parallel()

	var busy, acquired atomic.Int32
	g := gate.New(gate.WithObserver(func(_ time.Duration, ok bool) {
		if ok {
			acquired.Add(1)
		} else {
			busy.Add(1)
		}
	}))

	require.NoError(t, g.Do(context.Background(), func(context.Context) error {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		err := g.DoWait(ctx, time.Minute, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
		return nil
	}))

	assert.Equal(t, int32(1), acquired.Load())
	assert.Equal(t, int32(0), busy.Load(), "a caller that went away is not a busy rejection")
}

func TestRun(t *testing.T) {
	t.Parallel()

	g := gate.New(gate.WithMaxWait(time.Second))
	assert.Equal(t, time.Second, g.MaxWait())

	id, err := gate.Run(context.Background(), g, func(context.Context) (string, error) {
		return "01J", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "01J", id)
}
