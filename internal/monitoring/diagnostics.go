package monitoring

import "sync/atomic"

// Diagnostics counts recoverable rejections across a session. None of these
// conditions are errors; they are surfaced only for tuning and debugging.
// The zero value is ready to use and safe for concurrent increments.
type Diagnostics struct {
	FramesProcessed          atomic.Int64
	ExtractionBelowThreshold atomic.Int64
	CounterRejected          atomic.Int64
	CounterResets            atomic.Int64
	PositionOutliers         atomic.Int64
	PositionReacquired       atomic.Int64
	AlignmentGaps            atomic.Int64
}

// DiagnosticsSnapshot is a point-in-time copy of Diagnostics.
type DiagnosticsSnapshot struct {
	FramesProcessed          int64 `json:"frames_processed"`
	ExtractionBelowThreshold int64 `json:"extraction_below_threshold"`
	CounterRejected          int64 `json:"counter_rejected"`
	CounterResets            int64 `json:"counter_resets"`
	PositionOutliers         int64 `json:"position_outliers"`
	PositionReacquired       int64 `json:"position_reacquired"`
	AlignmentGaps            int64 `json:"alignment_gaps"`
}

// Snapshot returns the current counter values.
func (d *Diagnostics) Snapshot() DiagnosticsSnapshot {
	return DiagnosticsSnapshot{
		FramesProcessed:          d.FramesProcessed.Load(),
		ExtractionBelowThreshold: d.ExtractionBelowThreshold.Load(),
		CounterRejected:          d.CounterRejected.Load(),
		CounterResets:            d.CounterResets.Load(),
		PositionOutliers:         d.PositionOutliers.Load(),
		PositionReacquired:       d.PositionReacquired.Load(),
		AlignmentGaps:            d.AlignmentGaps.Load(),
	}
}

// Reset zeroes every counter.
func (d *Diagnostics) Reset() {
	d.FramesProcessed.Store(0)
	d.ExtractionBelowThreshold.Store(0)
	d.CounterRejected.Store(0)
	d.CounterResets.Store(0)
	d.PositionOutliers.Store(0)
	d.PositionReacquired.Store(0)
	d.AlignmentGaps.Store(0)
}
