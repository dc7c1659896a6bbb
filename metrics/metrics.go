package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Call statuses used as the "status" label on SourceCallsTotal.
const (
	StatusSuccess = "success"
	StatusTimeout = "timeout"
	StatusError   = "error"
)

// Metrics holds Prometheus metrics for the query orchestration core.
type Metrics struct {
	// Fan-out activity
	QueriesTotal     prometheus.Counter
	BatchesTotal     prometheus.Counter
	SourceCallsTotal *prometheus.CounterVec
	TimeoutsTotal    *prometheus.CounterVec
	CallDuration     *prometheus.HistogramVec
	InFlightCalls    prometheus.Gauge

	// Cache performance
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheSize        prometheus.Gauge
}

// NewMetrics creates and registers Prometheus metrics for the orchestration core.
//
// This function uses sync.Once to ensure metrics are only registered once
// globally, preventing "duplicate metrics collector registration" panics.
//
// All metrics are prefixed with "querymesh_" for namespacing.
//
// Metrics:
//   - querymesh_queries_total - Count of orchestrated fan-out runs
//   - querymesh_batches_total - Count of batch runs
//   - querymesh_source_calls_total{source,status} - Count of source calls by result
//   - querymesh_timeouts_total{source} - Count of per-call deadline overruns
//   - querymesh_call_duration_seconds{source} - Histogram of source call latency
//   - querymesh_in_flight_calls - Calls currently holding a gate slot
//   - querymesh_cache_hits_total - Count of cache hits
//   - querymesh_cache_misses_total - Count of cache misses
//   - querymesh_cache_size - Current number of cached entries
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			QueriesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "querymesh_queries_total",
					Help: "Total number of orchestrated fan-out runs",
				},
			),

			BatchesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "querymesh_batches_total",
					Help: "Total number of batch runs",
				},
			),

			SourceCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "querymesh_source_calls_total",
					Help: "Total number of source calls by result status",
				},
				[]string{"source", "status"}, // status: "success", "timeout" or "error"
			),

			TimeoutsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "querymesh_timeouts_total",
					Help: "Total number of source calls exceeding their deadline",
				},
				[]string{"source"},
			),

			CallDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "querymesh_call_duration_seconds",
					Help:    "Duration of source calls in seconds",
					Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
				},
				[]string{"source"},
			),

			InFlightCalls: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "querymesh_in_flight_calls",
					Help: "Number of source calls currently holding a gate slot",
				},
			),

			CacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "querymesh_cache_hits_total",
					Help: "Total number of memoization cache hits",
				},
			),

			CacheMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "querymesh_cache_misses_total",
					Help: "Total number of memoization cache misses",
				},
			),

			CacheSize: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "querymesh_cache_size",
					Help: "Current number of entries in the memoization cache",
				},
			),
		}
	})

	return globalMetrics
}

// RecordQuery records one orchestrated fan-out run.
func (m *Metrics) RecordQuery() {
	if m == nil {
		return
	}
	m.QueriesTotal.Inc()
}

// RecordBatch records one batch run.
func (m *Metrics) RecordBatch() {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
}

// RecordSourceCall records a settled source call with its status and duration.
func (m *Metrics) RecordSourceCall(source, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SourceCallsTotal.WithLabelValues(source, status).Inc()
	m.CallDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordTimeout records a source call exceeding its deadline.
func (m *Metrics) RecordTimeout(source string) {
	if m == nil {
		return
	}
	m.TimeoutsTotal.WithLabelValues(source).Inc()
}

// IncInFlight marks one call entering the gate.
func (m *Metrics) IncInFlight() {
	if m == nil {
		return
	}
	m.InFlightCalls.Inc()
}

// DecInFlight marks one call leaving the gate.
func (m *Metrics) DecInFlight() {
	if m == nil {
		return
	}
	m.InFlightCalls.Dec()
}

// RecordCacheHit records a memoization cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a memoization cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

// SetCacheSize updates the cache occupancy gauge.
func (m *Metrics) SetCacheSize(size int) {
	if m == nil {
		return
	}
	m.CacheSize.Set(float64(size))
}
