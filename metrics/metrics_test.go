package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_Singleton(t *testing.T) {
	m1 := NewMetrics()
	m2 := NewMetrics()

	assert.Same(t, m1, m2)
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	// The registry is global, so assertions work on deltas.
	queries := testutil.ToFloat64(m.QueriesTotal)
	m.RecordQuery()
	assert.Equal(t, queries+1, testutil.ToFloat64(m.QueriesTotal))

	batches := testutil.ToFloat64(m.BatchesTotal)
	m.RecordBatch()
	assert.Equal(t, batches+1, testutil.ToFloat64(m.BatchesTotal))

	calls := testutil.ToFloat64(m.SourceCallsTotal.WithLabelValues("wiki", StatusSuccess))
	m.RecordSourceCall("wiki", StatusSuccess, 0.05)
	assert.Equal(t, calls+1, testutil.ToFloat64(m.SourceCallsTotal.WithLabelValues("wiki", StatusSuccess)))

	timeouts := testutil.ToFloat64(m.TimeoutsTotal.WithLabelValues("slow"))
	m.RecordTimeout("slow")
	assert.Equal(t, timeouts+1, testutil.ToFloat64(m.TimeoutsTotal.WithLabelValues("slow")))

	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InFlightCalls))
	m.DecInFlight()

	hits := testutil.ToFloat64(m.CacheHitsTotal)
	m.RecordCacheHit()
	assert.Equal(t, hits+1, testutil.ToFloat64(m.CacheHitsTotal))

	misses := testutil.ToFloat64(m.CacheMissesTotal)
	m.RecordCacheMiss()
	assert.Equal(t, misses+1, testutil.ToFloat64(m.CacheMissesTotal))

	m.SetCacheSize(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.CacheSize))
}

func TestMetrics_NilReceiverSafe(t *testing.T) {
	var m *Metrics

	// Every recording method must be a no-op on a nil receiver.
	m.RecordQuery()
	m.RecordBatch()
	m.RecordSourceCall("wiki", StatusError, 0.1)
	m.RecordTimeout("wiki")
	m.IncInFlight()
	m.DecInFlight()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.SetCacheSize(3)
}
