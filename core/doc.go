// Package core provides the foundational domain types used by QueryMesh. It
// defines the core abstractions for:
//
//   - Queries (immutable units of work fanned out to data sources)
//   - Outcomes (the settled result of one source call: success or typed failure)
//   - Cache keys (canonical identity of a (source, query) pair)
//
// The package intentionally keeps implementation concerns (caching, gating,
// orchestration, concrete sources) out of scope so that every other package
// can depend on it without cycles. All exported identifiers include concise
// documentation to aid discoverability and external consumption.
package core
