// Package metrics exposes Prometheus instrumentation for QueryMesh.
//
// Metrics are optional: every recording hook is nil-safe, so components
// constructed without metrics skip instrumentation entirely. Registration
// happens once per process via promauto; repeated NewMetrics calls return the
// same collectors.
package metrics
