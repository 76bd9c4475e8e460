package socialauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterDuplicate
	MetricRegisterRejected
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshRateLimited
	MetricReplayDetected
	MetricSessionCreated
	MetricSessionRevoked
	MetricLogout
	MetricValidateSuccess
	MetricValidateFailure
	MetricPasswordUpgraded
	MetricRoleCreated
	MetricRoleUpdated
	MetricRoleDeleted
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// paddedCounter keeps each counter on its own cache line so hot-path
// increments from different goroutines do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// Metrics is a fixed set of lock-free counters plus one latency histogram
// for token validation. The export packages read it through Snapshot.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
	validate metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter. Not atomic
// across counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a metrics sink. A disabled sink makes every method a
// cheap branch.
func NewMetrics(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Enabled reports whether the sink records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records one token-validation duration.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || id != MetricValidateLatency {
		return
	}
	atomic.AddUint64(&m.validate.buckets[bucketIndex(d)], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and the validation histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	if m == nil || !m.enabled {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	buckets := make([]uint64, histBucketCount)
	for i := range buckets {
		buckets[i] = atomic.LoadUint64(&m.validate.buckets[i])
	}
	s.Histograms[MetricValidateLatency] = buckets

	return s
}

// bucketIndex maps a duration to one of the fixed millisecond buckets:
// 5, 10, 25, 50, 100, 250, 500, +Inf.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
