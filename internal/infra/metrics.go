package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsIngested    atomic.Uint64
	duplicatesDropped atomic.Uint64
	unknownReferences atomic.Uint64
	projectionsRun    atomic.Uint64
	errorsTotal       atomic.Uint64

	// Latency tracking (ingest append + notify)
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records one ingested event with its apply latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsIngested.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordDuplicate records an order id replayed during a resync.
func (m *Metrics) RecordDuplicate() {
	m.duplicatesDropped.Add(1)
}

// RecordUnknownReference records a Cancel/Trade that cited an order id not
// yet seen. The record is kept; it takes effect once the order arrives.
func (m *Metrics) RecordUnknownReference() {
	m.unknownReferences.Add(1)
}

// RecordProjection records one view recomputation.
func (m *Metrics) RecordProjection() {
	m.projectionsRun.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementConnections increments active feed connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active feed connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsIngested    uint64
	DuplicatesDropped uint64
	UnknownReferences uint64
	ProjectionsRun    uint64
	ErrorsTotal       uint64
	AvgLatencyNs      int64
	ActiveConnections int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsIngested:    m.eventsIngested.Load(),
		DuplicatesDropped: m.duplicatesDropped.Load(),
		UnknownReferences: m.unknownReferences.Load(),
		ProjectionsRun:    m.projectionsRun.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		AvgLatencyNs:      avgLatency,
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsIngested.Store(0)
	m.duplicatesDropped.Store(0)
	m.unknownReferences.Store(0)
	m.projectionsRun.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeConnections.Store(0)
}
