package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/source"
)

// BatchResult pairs one query of a batch with its per-source outcomes.
type BatchResult struct {
	// Query is the query this result belongs to.
	Query core.Query `json:"query"`

	// Outcomes holds one entry per source, in source order.
	Outcomes []core.Outcome `json:"outcomes"`
}

// Successes counts the successful outcomes of this batch entry.
func (r BatchResult) Successes() int {
	n := 0

	for _, out := range r.Outcomes {
		if out.IsSuccess() {
			n++
		}
	}

	return n
}

// Failures counts the failed outcomes of this batch entry.
func (r BatchResult) Failures() int {
	return len(r.Outcomes) - r.Successes()
}

// RunBatch executes the queries strictly one after another; within each
// query the usual fan-out across sources applies. Query i+1 starts only
// after every source has settled for query i.
//
// Cancellation is checked between queries: a cancelled ctx stops the batch
// and returns the results completed so far together with ctx.Err(). A
// cancellation in the middle of a query surfaces as timeout outcomes inside
// that query's slots first.
func (o *Orchestrator) RunBatch(ctx context.Context, queries []core.Query, sources ...source.Source) ([]BatchResult, error) {
	batchID := uuid.NewString()

	o.logger.Info("batch.start", "batch_id", batchID, "queries", len(queries), "sources", len(sources))
	o.metrics.RecordBatch()

	start := time.Now()
	results := make([]BatchResult, 0, len(queries))

	for _, q := range queries {
		select {
		case <-ctx.Done():
			o.logger.Warn("batch.cancelled",
				"batch_id", batchID,
				"completed", len(results),
				"remaining", len(queries)-len(results),
			)

			return results, ctx.Err()
		default:
		}

		outcomes := o.Query(ctx, q, sources...)
		results = append(results, BatchResult{Query: q, Outcomes: outcomes})
	}

	o.logger.Info("batch.complete",
		"batch_id", batchID,
		"queries", len(queries),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return results, nil
}
