package sharepoint

import (
	"sync/atomic"
	"time"
)

// Metrics counts list-store calls made by every Client in the process.
type Metrics struct {
	Calls          int64   `json:"calls"`
	Errors         int64   `json:"errors"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	ErrorRatePct   float64 `json:"error_rate_pct"`
	totalLatencyNs int64
}

var (
	calls     int64
	failures  int64
	latencyNs int64
)

func recordCall(d time.Duration, err error) {
	atomic.AddInt64(&calls, 1)
	atomic.AddInt64(&latencyNs, d.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&failures, 1)
	}
}

// Stats returns a snapshot of the call counters.
func Stats() Metrics {
	m := Metrics{
		Calls:          atomic.LoadInt64(&calls),
		Errors:         atomic.LoadInt64(&failures),
		totalLatencyNs: atomic.LoadInt64(&latencyNs),
	}
	if m.Calls > 0 {
		m.AvgLatencyMs = float64(m.totalLatencyNs) / float64(m.Calls) / 1e6
		m.ErrorRatePct = float64(m.Errors) / float64(m.Calls) * 100
	}
	return m
}

// ResetStats zeroes the counters (tests).
func ResetStats() {
	atomic.StoreInt64(&calls, 0)
	atomic.StoreInt64(&failures, 0)
	atomic.StoreInt64(&latencyNs, 0)
}
