package loginshield

import "sync/atomic"

// MetricID indexes one in-process counter.
type MetricID uint16

const (
	// MetricFailureRecorded counts recorded failed attempts.
	MetricFailureRecorded MetricID = iota
	// MetricSuccessRecorded counts recorded successful logins.
	MetricSuccessRecorded
	// MetricLockoutTriggered counts identifier lockouts written.
	MetricLockoutTriggered
	// MetricIPBlockTriggered counts IP blocks written.
	MetricIPBlockTriggered
	// MetricLockoutHit counts status checks that found an active lockout.
	MetricLockoutHit
	// MetricIPBlockHit counts status checks that found an active block.
	MetricIPBlockHit
	// MetricCaptchaRequired counts checks that demanded a captcha.
	MetricCaptchaRequired
	// MetricSuspicionFlagged counts attempts scored suspicious.
	MetricSuspicionFlagged
	// MetricStoreFailure counts store calls resolved by the fail-open path.
	MetricStoreFailure
	// MetricCleanupRun counts cleanup passes.
	MetricCleanupRun
	metricIDCount
)

const cacheLineSize = 64

// paddedCounter keeps each counter on its own cache line so concurrent
// increments of different metrics do not contend.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed array of atomic counters. A disabled Metrics is a
// zero-cost no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics returns a metrics collector. When enabled is false every
// operation is a no-op.
func NewMetrics(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
