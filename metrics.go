package sessync

import "sync/atomic"

// MetricID identifies a counter tracked by a Client.
type MetricID uint16

const (
	// MetricSessionFetch counts completed session endpoint round-trips.
	MetricSessionFetch MetricID = iota
	// MetricSessionFetchError counts failed session endpoint round-trips.
	MetricSessionFetchError
	// MetricSyncSkipped counts synchronizer invocations that decided not to fetch.
	MetricSyncSkipped
	// MetricBroadcastSent counts messages posted to the broadcast channel.
	MetricBroadcastSent
	// MetricBroadcastReceived counts messages delivered from other instances.
	MetricBroadcastReceived
	// MetricSignIn counts sign-in submissions that reached the backend.
	MetricSignIn
	// MetricSignOut counts sign-out submissions that reached the backend.
	MetricSignOut
	metricIDCount
)

// Metrics holds the per-Client counters. Safe for concurrent use; a nil
// receiver is a no-op so callers never need to guard increments.
type Metrics struct {
	counters [metricIDCount]uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Inc increments a single counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id], 1)
}

// Value returns the current value of a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id])
}

// Snapshot copies every counter into a fresh map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id])
	}
	return snap
}
