package backend

import (
	"sync/atomic"
	"time"
)

// Metrics tracks backend call metrics
type Metrics struct {
	calls   int64
	errors  int64
	latency int64 // Total latency in nanoseconds
}

// CallStats is a point-in-time snapshot of Metrics.
type CallStats struct {
	Calls        int64   `json:"calls"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	ErrorRate    float64 `json:"error_rate_pct"`
}

func (m *Metrics) record(duration time.Duration, err error) {
	atomic.AddInt64(&m.calls, 1)
	atomic.AddInt64(&m.latency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&m.errors, 1)
	}
}

// Snapshot returns the current metrics
func (m *Metrics) Snapshot() CallStats {
	calls := atomic.LoadInt64(&m.calls)
	errs := atomic.LoadInt64(&m.errors)
	latency := atomic.LoadInt64(&m.latency)

	s := CallStats{Calls: calls, Errors: errs}
	if calls > 0 {
		s.AvgLatencyMs = float64(latency) / float64(calls) / 1e6
		s.ErrorRate = float64(errs) / float64(calls) * 100
	}
	return s
}
