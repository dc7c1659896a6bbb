// Package source defines the data provider abstraction the orchestrator fans
// out to, together with adapters and composable middleware.
//
// A Source answers one query at a time and may be arbitrarily slow or
// failing; callers bound it with gates, guards and caching. The package
// provides:
//
//   - Source interface for dependency injection
//   - NewFunc for adapting plain functions into sources
//   - Mock for scripted responses in tests and examples
//   - Memory, a process-local retrieval source over stored snippets
//   - Middleware (Chain, WithInstrumentation, WithValidation) wrapping any
//     source with cross-cutting behavior
//
// Provider-backed implementations live in subpackages (anthropic, openai).
package source
