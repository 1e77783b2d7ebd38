package l5position

import "math"

// Filter smooths a stream of progress measurements in [0,100).
//
// Predict returns the value the filter expects next, and false before the
// first measurement. Accept consumes one measurement and returns the value
// to emit plus whether the measurement was accepted. Reset forgets all
// state.
type Filter interface {
	Predict() (float64, bool)
	Accept(measurement float64) (filtered float64, accepted bool)
	Reset()
}

// Wrap maps p onto [0,100).
func Wrap(p float64) float64 {
	w := math.Mod(p, 100)
	if w < 0 {
		w += 100
	}
	return w
}

// CircularDelta returns the signed shortest change from one progress value
// to another, in [-50,50). Crossing the start line forwards is positive:
// CircularDelta(99.8, 0.2) == 0.4.
func CircularDelta(from, to float64) float64 {
	return Wrap(to-from+50) - 50
}

// BoundedRateFilter accepts a measurement only when it is within MaxDelta
// of the last accepted value. If ReacquireAfter consecutive rejected
// measurements agree with each other, the filter re-locks onto them so a
// long detection dropout cannot freeze it forever.
type BoundedRateFilter struct {
	MaxDelta       float64
	ReacquireAfter int

	last       float64
	has        bool
	pending    []float64
	reacquired int64
}

// NewBoundedRateFilter returns a filter with the given per-frame limit.
func NewBoundedRateFilter(maxDelta float64, reacquireAfter int) *BoundedRateFilter {
	return &BoundedRateFilter{MaxDelta: maxDelta, ReacquireAfter: reacquireAfter}
}

// Predict returns the last accepted value.
func (f *BoundedRateFilter) Predict() (float64, bool) {
	return f.last, f.has
}

// Accept implements Filter.
func (f *BoundedRateFilter) Accept(m float64) (float64, bool) {
	m = Wrap(m)
	if !f.has {
		f.last, f.has = m, true
		return m, true
	}
	if math.Abs(CircularDelta(f.last, m)) <= f.MaxDelta {
		f.last = m
		f.pending = f.pending[:0]
		return m, true
	}

	if f.ReacquireAfter > 0 {
		if n := len(f.pending); n > 0 && math.Abs(CircularDelta(f.pending[n-1], m)) > f.MaxDelta {
			f.pending = f.pending[:0]
		}
		f.pending = append(f.pending, m)
		if len(f.pending) >= f.ReacquireAfter {
			f.last = m
			f.pending = f.pending[:0]
			f.reacquired++
			return m, true
		}
	}
	return f.last, false
}

// Reset implements Filter.
func (f *BoundedRateFilter) Reset() {
	f.last, f.has = 0, false
	f.pending = f.pending[:0]
}

// Reacquired returns how many times the filter re-locked after a run of
// rejections.
func (f *BoundedRateFilter) Reacquired() int64 { return f.reacquired }
