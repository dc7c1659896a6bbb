package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/querymesh/cache"
	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/gate"
	"github.com/hupe1980/querymesh/guard"
	"github.com/hupe1980/querymesh/logging"
	"github.com/hupe1980/querymesh/metrics"
	"github.com/hupe1980/querymesh/source"
)

// Config defines tuning parameters for the Orchestrator's operational behavior.
//
// This configuration focuses on the core concurrency and caching aspects:
//   - Concurrency: How many source fetches can run simultaneously
//   - Timeouts: The per-call deadline applied to every fetch
//   - Caching: TTL memoization of per-source results
//
// Additional concerns such as logging, metrics collection, or a shared cache
// instance should be configured via functional options rather than expanding
// this struct to maintain simplicity and focused responsibility.
//
// Example:
//
//	cfg := Config{
//	    ConcurrencyLimit: 25,
//	    PerCallTimeout:   2 * time.Second,
//	    CacheTTL:         time.Minute,
//	    CacheFailures:    false,
//	}
type Config struct {
	// ConcurrencyLimit caps the number of source fetches that can execute
	// simultaneously across all queries handled by this orchestrator. This
	// prevents resource exhaustion and provides backpressure. Must be
	// positive; there is no unlimited mode.
	ConcurrencyLimit int

	// PerCallTimeout bounds the duration of each individual source fetch,
	// measured from the moment the fetch obtains a concurrency slot. Time
	// spent queued at the gate does not count against it. Zero or negative
	// disables the deadline; caller context cancellation still applies.
	PerCallTimeout time.Duration

	// CacheTTL sets how long a completed outcome is served from memory for
	// the same (source, query) pair. Zero or negative disables caching
	// entirely, including the collapsing of concurrent identical fetches.
	CacheTTL time.Duration

	// CacheFailures controls whether failure outcomes are cached like
	// successes. Keeping it enabled shields failing sources from hot query
	// loops; disabling it retries failed pairs on every query.
	CacheFailures bool
}

// DefaultConfig provides production-ready default configuration values.
//
// Configuration values:
//   - ConcurrencyLimit: 10 (safe for most environments)
//   - PerCallTimeout: 5s (covers slow upstreams without hanging queries)
//   - CacheTTL: 0 (caching opt-in, results always fresh)
//   - CacheFailures: true (failures are memoized for the TTL window)
var DefaultConfig = Config{
	ConcurrencyLimit: 10,
	PerCallTimeout:   5 * time.Second,
	CacheTTL:         0,
	CacheFailures:    true,
}

// Options configures an Orchestrator instance using the functional options
// pattern.
type Options struct {
	// Config contains operational parameters for the orchestrator behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil to ensure no logging dependencies.
	Logger logging.Logger

	// Metrics receives counters, gauges and histograms for queries, source
	// calls and cache traffic. Nil disables metrics collection.
	Metrics *metrics.Metrics

	// Cache overrides the internally constructed result cache, allowing
	// several orchestrators to share one memoization space. When set, the
	// cache's own failure-caching mode wins over Config.CacheFailures.
	Cache *cache.Cache

	// Gate overrides the internally constructed concurrency gate, allowing
	// several orchestrators to share one process-wide budget. When set, the
	// gate's own capacity wins over Config.ConcurrencyLimit.
	Gate *gate.Gate
}

// Orchestrator coordinates concurrent multi-source query execution.
//
// Core Responsibilities:
//   - Fan-out: dispatch one query to every given source in parallel
//   - Admission: share one concurrency gate across all fetches
//   - Deadlines: wrap each fetch in a per-call timeout guard
//   - Fan-in: aggregate outcomes into a source-order-aligned slice
//   - Memoization: serve repeated pairs from the TTL cache
//
// Concurrency Model:
//   - One goroutine per (query, source) pair, bounded by the gate
//   - Each goroutine writes exactly one result slot; no shared mutable
//     state crosses goroutines besides the gate and cache
//   - Query returns only after every slot is settled, so the returned
//     slice is safe to read without further synchronization
//
// An Orchestrator is safe for concurrent use and is typically created once
// and shared.
type Orchestrator struct {
	config  Config
	logger  logging.Logger
	metrics *metrics.Metrics
	gate    *gate.Gate
	guard   *guard.Guard
	cache   *cache.Cache
}

// New creates a new Orchestrator with sensible defaults and optional
// configuration.
//
// Defaults (see DefaultConfig) enable immediate use without external
// dependencies: no logging, no metrics, caching disabled.
//
// Examples:
//
//	// Minimal setup with all defaults
//	orch, err := New()
//
//	// Custom configuration
//	orch, err := New(func(o *Options) {
//	    o.Config.ConcurrencyLimit = 25
//	    o.Config.CacheTTL = time.Minute
//	    o.Logger = myLogger
//	})
//
// Returns an error if the configuration is invalid; the only invalid state
// is a non-positive ConcurrencyLimit.
func New(optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	g := opts.Gate
	if g == nil {
		var err error

		g, err = gate.New(opts.Config.ConcurrencyLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid concurrency limit: %w", err)
		}
	}

	c := opts.Cache
	if c == nil {
		c = cache.New(func(o *cache.Options) {
			o.CacheFailures = opts.Config.CacheFailures
			o.Logger = opts.Logger
			o.Metrics = opts.Metrics
		})
	}

	return &Orchestrator{
		config:  opts.Config,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		gate:    g,
		guard:   guard.New(opts.Config.PerCallTimeout),
		cache:   c,
	}, nil
}

// Config returns the configuration the orchestrator was built with.
func (o *Orchestrator) Config() Config { return o.config }

// Cache exposes the result cache for inspection and maintenance (Len, Sweep,
// Invalidate). It is never nil.
func (o *Orchestrator) Cache() *cache.Cache { return o.cache }

// InFlight reports how many source fetches currently hold a concurrency slot.
func (o *Orchestrator) InFlight() int { return o.gate.InFlight() }

// Query fans the query out to all sources concurrently and returns one
// outcome per source, aligned with the order of the sources argument.
//
// The call blocks until every source has settled: succeeded, failed, timed
// out, or been cancelled. The returned slice always has len(sources)
// entries; it never contains unfilled slots. A failure of one source never
// affects the slots of the others.
//
// Cancelling ctx does not abandon the aggregation: affected fetches settle
// as timeout failures and Query still returns the full slice.
//
// An empty source list returns an empty slice without spawning goroutines.
func (o *Orchestrator) Query(ctx context.Context, query core.Query, sources ...source.Source) []core.Outcome {
	results := make([]core.Outcome, len(sources))
	if len(sources) == 0 {
		return results
	}

	runID := uuid.NewString()

	o.logger.Info("query.start",
		"run_id", runID,
		"sources", len(sources),
		"query", logging.Truncate(query.Text, 120),
	)
	o.metrics.RecordQuery()

	start := time.Now()

	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)

		go func(idx int, src source.Source) {
			defer wg.Done()
			results[idx] = o.fetchOne(ctx, runID, idx, query, src)
		}(i, src)
	}

	wg.Wait()

	successes := 0

	for _, r := range results {
		if r.IsSuccess() {
			successes++
		}
	}

	o.logger.Info("query.complete",
		"run_id", runID,
		"sources", len(sources),
		"successes", successes,
		"failures", len(sources)-successes,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return results
}

// fetchOne resolves a single (query, source) pair into its outcome, going
// through the cache first. The outcome's Source is stamped unconditionally
// because abandoned cache waits surface unlabeled.
func (o *Orchestrator) fetchOne(ctx context.Context, runID string, idx int, query core.Query, src source.Source) core.Outcome {
	if src == nil {
		return core.NewSourceFailure("", fmt.Errorf("nil source at index %d", idx))
	}

	name := src.Name()

	out := o.cache.GetOrCompute(ctx, query.CacheKey(name), o.config.CacheTTL, func(ctx context.Context) core.Outcome {
		return o.callSource(ctx, runID, query, src)
	})
	out.Source = name

	return out
}

// callSource performs the gated, guarded fetch. The per-call timeout starts
// only after a concurrency slot is held.
func (o *Orchestrator) callSource(ctx context.Context, runID string, query core.Query, src source.Source) core.Outcome {
	name := src.Name()

	if err := o.gate.Acquire(ctx); err != nil {
		o.logger.Warn("source.call.rejected",
			"run_id", runID,
			"source", name,
			"error", err.Error(),
		)

		return core.NewTimeoutFailure(name, err)
	}
	defer o.gate.Release()

	o.metrics.IncInFlight()
	defer o.metrics.DecInFlight()

	o.logger.Debug("source.call.start", "run_id", runID, "source", name)

	start := time.Now()

	out := o.guard.Do(ctx, name, func(ctx context.Context) (any, error) {
		return src.Fetch(ctx, query)
	})

	duration := time.Since(start)

	switch {
	case out.IsSuccess():
		o.metrics.RecordSourceCall(name, metrics.StatusSuccess, duration.Seconds())
		o.logger.Debug("source.call.success",
			"run_id", runID,
			"source", name,
			"duration_ms", duration.Milliseconds(),
		)
	case out.Kind == core.FailureTimeout:
		o.metrics.RecordTimeout(name)
		o.metrics.RecordSourceCall(name, metrics.StatusTimeout, duration.Seconds())
		o.logger.Warn("source.call.timeout",
			"run_id", runID,
			"source", name,
			"duration_ms", duration.Milliseconds(),
		)
	default:
		o.metrics.RecordSourceCall(name, metrics.StatusError, duration.Seconds())
		o.logger.Warn("source.call.error",
			"run_id", runID,
			"source", name,
			"duration_ms", duration.Milliseconds(),
			"error", out.Detail,
		)
	}

	return out
}
