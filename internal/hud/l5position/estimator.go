package l5position

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/lapdelta/internal/hud/l4path"
	"github.com/banshee-data/lapdelta/internal/monitoring"
)

var logf = monitoring.Prefixed("position")

// Estimate is the per-frame position output.
type Estimate struct {
	FrameIndex int64
	Percent    float64 // filtered progress in [0,100]
	Raw        float64 // unfiltered projection; equals Percent when no measurement
	Detected   bool    // a marker was seen this frame
	Rejected   bool    // the measurement was treated as an outlier
	Valid      bool    // false until the first accepted measurement, or with no path
}

type reacquirer interface {
	Reacquired() int64
}

// Estimator converts marker centroids into filtered track progress. It
// shares its TrackPath read-only and exclusively owns its Filter.
type Estimator struct {
	path   *l4path.TrackPath
	filter Filter

	last     float64
	has      bool
	outliers int64
	lastReac int64
}

// NewEstimator returns an Estimator over path. A nil path disables
// position output: every Update returns Valid=false.
func NewEstimator(path *l4path.TrackPath, filter Filter) *Estimator {
	if filter == nil {
		filter = NewBoundedRateFilter(1.0, 0)
	}
	return &Estimator{path: path, filter: filter}
}

// Enabled reports whether a reference path is available.
func (e *Estimator) Enabled() bool { return e.path != nil }

// Update processes one frame. marker is in map-region pixels and is
// ignored when detected is false.
func (e *Estimator) Update(frameIndex int64, marker r2.Vec, detected bool) Estimate {
	est := Estimate{FrameIndex: frameIndex, Percent: e.last, Raw: e.last, Valid: e.has}
	if e.path == nil {
		return Estimate{FrameIndex: frameIndex}
	}
	if !detected {
		return est
	}

	raw := e.path.PositionPercent(marker)
	est.Raw = raw
	est.Detected = true

	filtered, ok := e.filter.Accept(raw)
	if r, isR := e.filter.(reacquirer); isR {
		if n := r.Reacquired(); n != e.lastReac {
			e.lastReac = n
			logf("re-acquired position at %.2f%% on frame %d", filtered, frameIndex)
		}
	}
	if !ok {
		e.outliers++
		est.Rejected = true
		return est
	}

	e.last = math.Max(0, math.Min(100, filtered))
	e.has = true
	est.Percent = e.last
	est.Valid = true
	return est
}

// Outliers returns how many measurements were rejected.
func (e *Estimator) Outliers() int64 { return e.outliers }

// Reacquired returns how many times the filter re-locked, or 0 when the
// filter does not report it.
func (e *Estimator) Reacquired() int64 { return e.lastReac }

// Reset clears the filter and the last accepted estimate.
func (e *Estimator) Reset() {
	e.filter.Reset()
	e.last, e.has = 0, false
}
