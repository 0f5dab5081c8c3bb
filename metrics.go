package schwarzgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational counters from a preconditioner.
// Implementations must be safe for concurrent use.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//		applies  prometheus.Counter
//		applyDur prometheus.Histogram
//	}
//
//	func (c *PrometheusCollector) RecordApply(dur time.Duration) {
//		c.applies.Inc()
//		c.applyDur.Observe(dur.Seconds())
//	}
type MetricsCollector interface {
	// RecordFactorize records a subdomain factorization.
	RecordFactorize(dur time.Duration)

	// RecordApply records one application of the preconditioner.
	RecordApply(dur time.Duration)

	// RecordCoarseSolve records one coarse problem solve.
	RecordCoarseSolve(dur time.Duration)

	// RecordEigenSolve records a spectral basis computation together
	// with the requested and achieved basis sizes.
	RecordEigenSolve(requested, achieved int, dur time.Duration)

	// RecordExchange records one neighbor exchange round and the number
	// of values moved.
	RecordExchange(values int)
}

// NoopMetricsCollector discards all metrics. It is the default.
type NoopMetricsCollector struct{}

// RecordFactorize implements MetricsCollector.
func (NoopMetricsCollector) RecordFactorize(time.Duration) {}

// RecordApply implements MetricsCollector.
func (NoopMetricsCollector) RecordApply(time.Duration) {}

// RecordCoarseSolve implements MetricsCollector.
func (NoopMetricsCollector) RecordCoarseSolve(time.Duration) {}

// RecordEigenSolve implements MetricsCollector.
func (NoopMetricsCollector) RecordEigenSolve(int, int, time.Duration) {}

// RecordExchange implements MetricsCollector.
func (NoopMetricsCollector) RecordExchange(int) {}

// BasicMetricsCollector collects counters in memory using atomics.
// Useful for tests and simple monitoring setups.
type BasicMetricsCollector struct {
	FactorizeCount      atomic.Int64
	FactorizeDurationNs atomic.Int64

	ApplyCount      atomic.Int64
	ApplyDurationNs atomic.Int64

	CoarseSolveCount      atomic.Int64
	CoarseSolveDurationNs atomic.Int64

	EigenSolveCount     atomic.Int64
	EigenRequestedTotal atomic.Int64
	EigenAchievedTotal  atomic.Int64

	ExchangeCount  atomic.Int64
	ExchangeValues atomic.Int64
}

// RecordFactorize implements MetricsCollector.
func (m *BasicMetricsCollector) RecordFactorize(dur time.Duration) {
	m.FactorizeCount.Add(1)
	m.FactorizeDurationNs.Add(dur.Nanoseconds())
}

// RecordApply implements MetricsCollector.
func (m *BasicMetricsCollector) RecordApply(dur time.Duration) {
	m.ApplyCount.Add(1)
	m.ApplyDurationNs.Add(dur.Nanoseconds())
}

// RecordCoarseSolve implements MetricsCollector.
func (m *BasicMetricsCollector) RecordCoarseSolve(dur time.Duration) {
	m.CoarseSolveCount.Add(1)
	m.CoarseSolveDurationNs.Add(dur.Nanoseconds())
}

// RecordEigenSolve implements MetricsCollector.
func (m *BasicMetricsCollector) RecordEigenSolve(requested, achieved int, _ time.Duration) {
	m.EigenSolveCount.Add(1)
	m.EigenRequestedTotal.Add(int64(requested))
	m.EigenAchievedTotal.Add(int64(achieved))
}

// RecordExchange implements MetricsCollector.
func (m *BasicMetricsCollector) RecordExchange(values int) {
	m.ExchangeCount.Add(1)
	m.ExchangeValues.Add(int64(values))
}

// Stats is a point-in-time snapshot of collected metrics.
type Stats struct {
	FactorizeCount   int64
	AvgFactorizeTime time.Duration

	ApplyCount   int64
	AvgApplyTime time.Duration

	CoarseSolveCount   int64
	AvgCoarseSolveTime time.Duration

	EigenSolveCount     int64
	EigenRequestedTotal int64
	EigenAchievedTotal  int64

	ExchangeCount  int64
	ExchangeValues int64
}

// GetStats returns a snapshot of the collected metrics.
func (m *BasicMetricsCollector) GetStats() Stats {
	return Stats{
		FactorizeCount:   m.FactorizeCount.Load(),
		AvgFactorizeTime: getAvg(m.FactorizeDurationNs.Load(), m.FactorizeCount.Load()),

		ApplyCount:   m.ApplyCount.Load(),
		AvgApplyTime: getAvg(m.ApplyDurationNs.Load(), m.ApplyCount.Load()),

		CoarseSolveCount:   m.CoarseSolveCount.Load(),
		AvgCoarseSolveTime: getAvg(m.CoarseSolveDurationNs.Load(), m.CoarseSolveCount.Load()),

		EigenSolveCount:     m.EigenSolveCount.Load(),
		EigenRequestedTotal: m.EigenRequestedTotal.Load(),
		EigenAchievedTotal:  m.EigenAchievedTotal.Load(),

		ExchangeCount:  m.ExchangeCount.Load(),
		ExchangeValues: m.ExchangeValues.Load(),
	}
}

func getAvg(totalNs, count int64) time.Duration {
	if count == 0 {
		return 0
	}

	return time.Duration(totalNs / count)
}
