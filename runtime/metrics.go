package runtime

import "sync/atomic"

// RunMetrics is a thread-safe, atomic collector of run-level statistics.
// The zero value is not usable; construct one with NewRunMetrics.
type RunMetrics struct {
	totalRuns            atomic.Uint64
	successfulRuns       atomic.Uint64
	failedRuns           atomic.Uint64
	totalEvents          atomic.Uint64
	cumulativeDurationMS atomic.Uint64
	averageRunDurationMS atomic.Uint64
}

// NewRunMetrics constructs a zero-initialized metrics collector.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{}
}

// RecordRun records the outcome of a single run: its wall-clock duration,
// whether it succeeded, and how many events it emitted. The running average
// duration is recomputed from the cumulative total.
func (m *RunMetrics) RecordRun(durationMS uint64, success bool, eventCount uint64) {
	total := m.totalRuns.Add(1)
	if success {
		m.successfulRuns.Add(1)
	} else {
		m.failedRuns.Add(1)
	}
	m.totalEvents.Add(eventCount)
	cumulative := m.cumulativeDurationMS.Add(durationMS)
	m.averageRunDurationMS.Store(cumulative / total)
}

// Snapshot returns a point-in-time, non-atomic copy of the current metrics.
func (m *RunMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRuns:            m.totalRuns.Load(),
		SuccessfulRuns:       m.successfulRuns.Load(),
		FailedRuns:           m.failedRuns.Load(),
		TotalEvents:          m.totalEvents.Load(),
		AverageRunDurationMS: m.averageRunDurationMS.Load(),
	}
}

// MetricsSnapshot is a serializable, non-atomic snapshot of RunMetrics.
type MetricsSnapshot struct {
	TotalRuns            uint64 `json:"total_runs"`
	SuccessfulRuns       uint64 `json:"successful_runs"`
	FailedRuns           uint64 `json:"failed_runs"`
	TotalEvents          uint64 `json:"total_events"`
	AverageRunDurationMS uint64 `json:"average_run_duration_ms"`
}
