package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("positive capacity", func(t *testing.T) {
		g, err := New(3)

		require.NoError(t, err)
		assert.Equal(t, 3, g.Capacity())
		assert.Equal(t, 0, g.InFlight())
	})

	t.Run("zero capacity rejected", func(t *testing.T) {
		_, err := New(0)

		assert.Error(t, err)
	})

	t.Run("negative capacity rejected", func(t *testing.T) {
		_, err := New(-1)

		assert.Error(t, err)
	})
}

func TestGateBoundsConcurrency(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		current int
		peak    int
	)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := g.Run(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()

				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 3)
	assert.GreaterOrEqual(t, peak, 2, "expected some overlap under contention")
	assert.Equal(t, 0, g.InFlight())
}

func TestAcquireHonoursContext(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	g.Release()
	assert.Equal(t, 0, g.InFlight())
}

func TestTryAcquire(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	assert.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire())

	g.Release()
	assert.True(t, g.TryAcquire())
}

func TestRunReturnsFnError(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	want := errors.New("boom")
	got := g.Run(context.Background(), func(ctx context.Context) error { return want })

	assert.ErrorIs(t, got, want)
	assert.Equal(t, 0, g.InFlight())
}

func TestRunReleasesOnPanic(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error {
			panic("source exploded")
		})
	})

	assert.Equal(t, 0, g.InFlight(), "slot must be released after panic")
}

func TestReleaseWithoutAcquirePanics(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	assert.Panics(t, func() { g.Release() })
}
