package dispatch

import (
	"sync/atomic"
	"time"
)

// WorkerMetrics tracks in-process dispatch totals. Cross-process aggregation
// happens in Prometheus; this snapshot feeds the periodic stats log.
type WorkerMetrics struct {
	totalSent       int64
	totalFailed     int64
	totalSkipped    int64
	totalBatches    int64
	totalDurationNs int64
	startedNs       int64
}

func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		startedNs: time.Now().UnixNano(),
	}
}

func (m *WorkerMetrics) RecordBatch(result BatchResult, duration time.Duration) {
	atomic.AddInt64(&m.totalSent, int64(result.Sent))
	atomic.AddInt64(&m.totalFailed, int64(result.Failed))
	atomic.AddInt64(&m.totalSkipped, int64(result.Skipped))
	atomic.AddInt64(&m.totalBatches, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

func (m *WorkerMetrics) GetStats() map[string]interface{} {
	sent := atomic.LoadInt64(&m.totalSent)
	failed := atomic.LoadInt64(&m.totalFailed)
	skipped := atomic.LoadInt64(&m.totalSkipped)
	batches := atomic.LoadInt64(&m.totalBatches)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	startedNs := atomic.LoadInt64(&m.startedNs)

	avgBatch := time.Duration(0)
	if batches > 0 {
		avgBatch = time.Duration(durationNs / batches)
	}

	return map[string]interface{}{
		"total_sent":     sent,
		"total_failed":   failed,
		"total_skipped":  skipped,
		"total_batches":  batches,
		"avg_batch_ms":   avgBatch.Milliseconds(),
		"uptime_seconds": time.Since(time.Unix(0, startedNs)).Seconds(),
	}
}
