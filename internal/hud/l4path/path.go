package l4path

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrDegeneratePath is returned when a point sequence has no length.
var ErrDegeneratePath = errors.New("track path has zero length")

// TrackPath is a closed reference curve with a cumulative arc-length table.
// The closing segment from the last point back to the first counts towards
// the total, so the last point sits just below 100%.
type TrackPath struct {
	points     []r2.Vec
	cumulative []float64
	total      float64
}

// NewTrackPath builds a TrackPath from an ordered point sequence. The
// input slice is copied.
func NewTrackPath(points []r2.Vec) (*TrackPath, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %d points", ErrDegeneratePath, len(points))
	}
	pts := append([]r2.Vec(nil), points...)

	segs := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		segs[i] = r2.Norm(r2.Sub(pts[i], pts[i-1]))
	}
	cumulative := floats.CumSum(make([]float64, len(pts)), segs)
	closing := r2.Norm(r2.Sub(pts[0], pts[len(pts)-1]))
	total := cumulative[len(cumulative)-1] + closing

	if !(total > 1e-9) {
		return nil, ErrDegeneratePath
	}
	return &TrackPath{points: pts, cumulative: cumulative, total: total}, nil
}

// Len returns the number of points.
func (p *TrackPath) Len() int { return len(p.points) }

// Total returns the closed path length in pixels.
func (p *TrackPath) Total() float64 { return p.total }

// Point returns the i-th point.
func (p *TrackPath) Point(i int) r2.Vec { return p.points[i] }

// Points returns a copy of the point sequence.
func (p *TrackPath) Points() []r2.Vec {
	return append([]r2.Vec(nil), p.points...)
}

// ArcLength returns the distance along the path from point 0 to point i.
func (p *TrackPath) ArcLength(i int) float64 { return p.cumulative[i] }

// Nearest returns the index of the path point closest to q and its
// distance. The scan is linear; paths hold a few hundred points.
func (p *TrackPath) Nearest(q r2.Vec) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for i, pt := range p.points {
		d := r2.Norm(r2.Sub(pt, q))
		if d < bestD {
			best, bestD = i, d
		}
	}
	return best, bestD
}

// Percent returns the progress of point i in [0,100).
func (p *TrackPath) Percent(i int) float64 {
	return math.Max(0, math.Min(100, 100*p.cumulative[i]/p.total))
}

// PositionPercent projects q onto the nearest path point and returns its
// progress, clamped to [0,100].
func (p *TrackPath) PositionPercent(q r2.Vec) float64 {
	i, _ := p.Nearest(q)
	return p.Percent(i)
}

// PointAt returns the location at the given progress, interpolating along
// the segment that contains it. Percentages wrap modulo 100.
func (p *TrackPath) PointAt(percent float64) r2.Vec {
	pc := math.Mod(percent, 100)
	if pc < 0 {
		pc += 100
	}
	target := pc / 100 * p.total

	n := len(p.points)
	for i := 0; i < n; i++ {
		start := p.cumulative[i]
		end := p.total
		if i+1 < n {
			end = p.cumulative[i+1]
		}
		if target > end && i+1 < n {
			continue
		}
		a, b := p.points[i], p.points[(i+1)%n]
		if end-start <= 0 {
			return a
		}
		t := (target - start) / (end - start)
		return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
	}
	return p.points[0]
}

// WithOrigin returns a copy rotated so that the point nearest origin comes
// first.
func (p *TrackPath) WithOrigin(origin r2.Vec) *TrackPath {
	k, _ := p.Nearest(origin)
	if k == 0 {
		return p
	}
	rot := make([]r2.Vec, 0, len(p.points))
	rot = append(rot, p.points[k:]...)
	rot = append(rot, p.points[:k]...)
	out, err := NewTrackPath(rot)
	if err != nil {
		// Rotation preserves total length.
		return p
	}
	return out
}

// Reversed returns a copy travelling the other way round, keeping point 0
// in place.
func (p *TrackPath) Reversed() *TrackPath {
	n := len(p.points)
	rev := make([]r2.Vec, n)
	rev[0] = p.points[0]
	for i := 1; i < n; i++ {
		rev[i] = p.points[n-i]
	}
	out, err := NewTrackPath(rev)
	if err != nil {
		return p
	}
	return out
}
