package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/logging"
	"github.com/hupe1980/querymesh/metrics"
)

// Compute produces the outcome for a key when no live entry exists. It runs
// outside the cache's locks; only the invocation the cache actually awaited
// has its result stored, so an abandoned call can never overwrite an entry a
// later computation produced.
type Compute func(ctx context.Context) core.Outcome

// entry is one stored outcome. Entries are immutable once written; expiry
// replaces them with a fresh entry rather than mutating in place.
type entry struct {
	outcome  core.Outcome
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// inflight tracks a computation in progress for a key. Waiters block on done;
// outcome is written before done is closed.
type inflight struct {
	done    chan struct{}
	outcome core.Outcome
}

// Options configures a Cache.
type Options struct {
	// CacheFailures stores failure outcomes with the same TTL as successes,
	// so a known-broken source is not hammered during the window. Defaults to
	// true; note the operational trade-off that a transient fault stays
	// masked until the entry expires.
	CacheFailures bool

	// Logger receives cache.hit / cache.miss debug events. Defaults to no-op.
	Logger logging.Logger

	// Metrics receives hit/miss/size updates. Nil disables instrumentation.
	Metrics *metrics.Metrics
}

// Cache memoizes keyed outcomes for a per-call validity duration.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*inflight

	cacheFailures bool
	logger        logging.Logger
	metrics       *metrics.Metrics
}

// New creates an empty cache.
func New(optFns ...func(o *Options)) *Cache {
	opts := Options{
		CacheFailures: true,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Cache{
		entries:       map[string]*entry{},
		inflight:      map[string]*inflight{},
		cacheFailures: opts.CacheFailures,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
}

// GetOrCompute returns the live outcome stored under key, or settles compute
// and stores its result for ttl.
//
// At most one computation runs per key at a time: concurrent requesters of an
// uncached key wait for the first computation and share its outcome. A
// non-positive ttl disables caching for this call entirely (compute always
// runs, nothing is stored). Failure outcomes are stored only when the cache
// was built with CacheFailures.
//
// A waiter whose ctx ends before the in-flight computation settles gives up
// with a timeout failure; the computation itself is not cancelled on its
// behalf.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute Compute) core.Outcome {
	if ttl <= 0 {
		return compute(ctx)
	}

	c.mu.Lock()

	if e, ok := c.entries[key]; ok {
		if !e.expired(time.Now()) {
			age := time.Since(e.storedAt)
			c.mu.Unlock()

			c.metrics.RecordCacheHit()
			c.logger.Debug("cache.hit", "key", logging.Truncate(key, 80), "age_ms", age.Milliseconds())

			return e.outcome
		}

		// Expired entries are treated as absent.
		delete(c.entries, key)
	}

	if fl, ok := c.inflight[key]; ok {
		c.mu.Unlock()

		select {
		case <-fl.done:
			return fl.outcome
		case <-ctx.Done():
			return core.NewTimeoutFailure("", ctx.Err())
		}
	}

	fl := &inflight{done: make(chan struct{})}
	c.inflight[key] = fl
	c.mu.Unlock()

	c.metrics.RecordCacheMiss()
	c.logger.Debug("cache.miss", "key", logging.Truncate(key, 80))

	out := compute(ctx)

	c.mu.Lock()
	if out.IsSuccess() || c.cacheFailures {
		c.entries[key] = &entry{outcome: out, storedAt: time.Now(), ttl: ttl}
	}
	delete(c.inflight, key)
	size := len(c.entries)
	c.mu.Unlock()

	c.metrics.SetCacheSize(size)

	fl.outcome = out
	close(fl.done)

	return out
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Sweep removes expired entries and returns how many were reclaimed.
func (c *Cache) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.metrics.SetCacheSize(size)

	if removed > 0 {
		c.logger.Debug("cache.sweep", "removed", removed, "remaining", size)
	}

	return removed
}

// Invalidate drops the entry stored under key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	c.metrics.SetCacheSize(size)
}

// Clear drops all stored entries. In-flight computations are unaffected and
// will store their results as usual.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]*entry{}
	c.mu.Unlock()

	c.metrics.SetCacheSize(0)
}
