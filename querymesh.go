// Package querymesh provides a high-level facade over the orchestration core
// (concurrency gate, timeout guard, result cache & logging) enabling rapid
// construction of multi-source query systems. Most applications interact
// with this package by:
//  1. Creating a QueryMesh via New() (optionally overriding default config, logger or metrics)
//  2. Assembling sources (LLM adapters, custom fetch functions, middleware-wrapped)
//  3. Fanning out queries (Query) or running ordered batches (RunBatch)
//
// The facade delegates execution to orchestrator.Orchestrator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a tuned
// configuration and a structured logger.
package querymesh

import (
	"context"

	"github.com/hupe1980/querymesh/cache"
	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/logging"
	"github.com/hupe1980/querymesh/metrics"
	"github.com/hupe1980/querymesh/orchestrator"
	"github.com/hupe1980/querymesh/source"
)

// Options configures the QueryMesh instance.
type Options struct {
	// Orchestrator configuration (concurrency, timeout, caching)
	Config orchestrator.Config

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Metrics (nil disables metrics collection)
	Metrics *metrics.Metrics
}

// QueryMesh is the high-level facade aggregating the underlying orchestrator.
type QueryMesh struct {
	opts Options
	orch *orchestrator.Orchestrator
}

// New creates a new QueryMesh instance with optional overrides. The default
// configuration runs ten concurrent fetches with a five second per-call
// timeout and caching disabled.
func New(optFns ...func(o *Options)) (*QueryMesh, error) {
	opts := Options{
		Config: orchestrator.DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	orch, err := orchestrator.New(func(o *orchestrator.Options) {
		o.Config = opts.Config
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	if err != nil {
		return nil, err
	}

	return &QueryMesh{opts: opts, orch: orch}, nil
}

// Query fans the query text out to all given sources and returns one outcome
// per source, aligned with the argument order.
func (m *QueryMesh) Query(ctx context.Context, text string, sources ...source.Source) []core.Outcome {
	return m.orch.Query(ctx, core.NewQuery(text), sources...)
}

// QueryWithParams behaves like Query but attaches structured arguments.
func (m *QueryMesh) QueryWithParams(ctx context.Context, text string, params map[string]any, sources ...source.Source) []core.Outcome {
	return m.orch.Query(ctx, core.NewQueryWithParams(text, params), sources...)
}

// RunBatch executes the query texts strictly one after another, fanning each
// out across the sources.
func (m *QueryMesh) RunBatch(ctx context.Context, texts []string, sources ...source.Source) ([]orchestrator.BatchResult, error) {
	queries := make([]core.Query, len(texts))
	for i, text := range texts {
		queries[i] = core.NewQuery(text)
	}

	return m.orch.RunBatch(ctx, queries, sources...)
}

// Orchestrator exposes the underlying orchestrator for advanced use, e.g.
// batches of parameterized queries.
func (m *QueryMesh) Orchestrator() *orchestrator.Orchestrator { return m.orch }

// Cache exposes the result cache for inspection and maintenance.
func (m *QueryMesh) Cache() *cache.Cache { return m.orch.Cache() }
