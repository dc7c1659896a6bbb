// Package orchestrator implements the fan-out/fan-in core of QueryMesh: one
// query is dispatched to many sources concurrently, every call runs under a
// shared concurrency gate and a per-call timeout guard, and the per-source
// outcomes are collected into a slice aligned with the caller's source order.
//
// Key behaviors:
//   - Bounded concurrency: at most ConcurrencyLimit fetches run at once,
//     across all concurrent Query calls sharing one Orchestrator.
//   - Partial failure tolerance: a slow, failing or panicking source fills
//     only its own result slot; the remaining sources are unaffected.
//   - Deterministic aggregation: results[i] always belongs to sources[i],
//     regardless of completion order.
//   - Optional memoization: with a positive CacheTTL, repeated (source,
//     query) pairs are served from an in-memory TTL cache and concurrent
//     identical fetches are collapsed into a single execution.
//
// Batches of queries run strictly sequentially relative to each other while
// keeping full fan-out inside each query; see RunBatch.
package orchestrator
