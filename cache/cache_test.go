package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/querymesh/core"
)

func countingCompute(value any) (*atomic.Int32, Compute) {
	var calls atomic.Int32

	return &calls, func(ctx context.Context) core.Outcome {
		calls.Add(1)
		return core.NewSuccess("src", value)
	}
}

func TestGetOrComputeHit(t *testing.T) {
	c := New()
	calls, compute := countingCompute("v1")

	first := c.GetOrCompute(context.Background(), "k", time.Minute, compute)
	second := c.GetOrCompute(context.Background(), "k", time.Minute, compute)

	require.True(t, first.IsSuccess())
	assert.Equal(t, "v1", first.Value)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "second call must be served from cache")
	assert.Equal(t, 1, c.Len())
}

func TestGetOrComputeExpiry(t *testing.T) {
	c := New()
	calls, compute := countingCompute("v1")

	c.GetOrCompute(context.Background(), "k", 30*time.Millisecond, compute)
	time.Sleep(50 * time.Millisecond)
	c.GetOrCompute(context.Background(), "k", 30*time.Millisecond, compute)

	assert.Equal(t, int32(2), calls.Load(), "expired entry must be recomputed")
}

func TestGetOrComputeDisabled(t *testing.T) {
	c := New()
	calls, compute := countingCompute("v1")

	c.GetOrCompute(context.Background(), "k", 0, compute)
	c.GetOrCompute(context.Background(), "k", 0, compute)
	c.GetOrCompute(context.Background(), "k", -time.Second, compute)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 0, c.Len(), "nothing may be stored with caching disabled")
}

func TestGetOrComputeKeysIndependent(t *testing.T) {
	c := New()
	callsA, computeA := countingCompute("a")
	callsB, computeB := countingCompute("b")

	outA := c.GetOrCompute(context.Background(), "ka", time.Minute, computeA)
	outB := c.GetOrCompute(context.Background(), "kb", time.Minute, computeB)

	assert.Equal(t, "a", outA.Value)
	assert.Equal(t, "b", outB.Value)
	assert.Equal(t, int32(1), callsA.Load())
	assert.Equal(t, int32(1), callsB.Load())
	assert.Equal(t, 2, c.Len())
}

func TestFailureCachingEnabled(t *testing.T) {
	c := New() // CacheFailures defaults to true

	var calls atomic.Int32
	failing := func(ctx context.Context) core.Outcome {
		calls.Add(1)
		return core.NewSourceFailure("src", errors.New("down"))
	}

	first := c.GetOrCompute(context.Background(), "k", time.Minute, failing)
	second := c.GetOrCompute(context.Background(), "k", time.Minute, failing)

	assert.True(t, first.IsFailure())
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "cached failure must not re-invoke the source")
}

func TestFailureCachingDisabled(t *testing.T) {
	c := New(func(o *Options) { o.CacheFailures = false })

	var calls atomic.Int32
	failing := func(ctx context.Context) core.Outcome {
		calls.Add(1)
		return core.NewSourceFailure("src", errors.New("down"))
	}

	c.GetOrCompute(context.Background(), "k", time.Minute, failing)
	c.GetOrCompute(context.Background(), "k", time.Minute, failing)

	assert.Equal(t, int32(2), calls.Load(), "failures must be recomputed when not cached")
	assert.Equal(t, 0, c.Len())

	// Successes are still stored.
	calls2, compute := countingCompute("ok")
	c.GetOrCompute(context.Background(), "k2", time.Minute, compute)
	c.GetOrCompute(context.Background(), "k2", time.Minute, compute)
	assert.Equal(t, int32(1), calls2.Load())
}

func TestAtMostOneConcurrentCompute(t *testing.T) {
	c := New()

	var calls atomic.Int32
	started := make(chan struct{})
	slow := func(ctx context.Context) core.Outcome {
		calls.Add(1)
		close(started)
		time.Sleep(50 * time.Millisecond)
		return core.NewSuccess("src", "shared")
	}

	const waiters = 8

	var wg sync.WaitGroup
	outcomes := make([]core.Outcome, waiters)

	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[0] = c.GetOrCompute(context.Background(), "k", time.Minute, slow)
	}()

	<-started

	for i := 1; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = c.GetOrCompute(context.Background(), "k", time.Minute, slow)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent requesters must share one computation")
	for _, out := range outcomes {
		require.True(t, out.IsSuccess())
		assert.Equal(t, "shared", out.Value)
	}
}

func TestUnrelatedKeysNotSerialized(t *testing.T) {
	c := New()

	slow := func(ctx context.Context) core.Outcome {
		time.Sleep(100 * time.Millisecond)
		return core.NewSuccess("src", "done")
	}

	start := time.Now()

	var wg sync.WaitGroup
	for _, key := range []string{"ka", "kb", "kc"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			c.GetOrCompute(context.Background(), key, time.Minute, slow)
		}(key)
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 250*time.Millisecond,
		"distinct keys must compute concurrently, not behind one lock")
}

func TestWaiterContextCancellation(t *testing.T) {
	c := New()

	started := make(chan struct{})
	release := make(chan struct{})
	leader := func(ctx context.Context) core.Outcome {
		close(started)
		<-release
		return core.NewSuccess("src", "late")
	}

	go c.GetOrCompute(context.Background(), "k", time.Minute, leader)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := c.GetOrCompute(ctx, "k", time.Minute, leader)

	assert.Equal(t, core.FailureTimeout, out.Kind)
	close(release)
}

func TestSweep(t *testing.T) {
	c := New()

	_, short := countingCompute("short")
	_, long := countingCompute("long")

	c.GetOrCompute(context.Background(), "short", 20*time.Millisecond, short)
	c.GetOrCompute(context.Background(), "long", time.Minute, long)

	time.Sleep(40 * time.Millisecond)

	removed := c.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 0, c.Sweep(), "second sweep finds nothing expired")
}

func TestInvalidateAndClear(t *testing.T) {
	c := New()

	calls, compute := countingCompute("v")
	c.GetOrCompute(context.Background(), "k1", time.Minute, compute)
	c.GetOrCompute(context.Background(), "k2", time.Minute, compute)

	c.Invalidate("k1")
	assert.Equal(t, 1, c.Len())

	c.GetOrCompute(context.Background(), "k1", time.Minute, compute)
	assert.Equal(t, int32(3), calls.Load(), "invalidated key must recompute")

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
