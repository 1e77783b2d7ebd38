package l2signals

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lapdelta/internal/hud/l1pixels"
)

// Mode selects how a region is converted into a value.
type Mode string

const (
	// ModeLinearFill reads a bar whose filled length encodes the value.
	ModeLinearFill Mode = "linear-fill"
	// ModePointPosition reads the position of a single indicator blob.
	ModePointPosition Mode = "point-position"
)

// Orientation is the axis along which a bar fills or an indicator moves.
type Orientation string

const (
	Horizontal Orientation = "horizontal" // fills left to right
	Vertical   Orientation = "vertical"   // fills bottom to top
)

// Range is the declared numeric range of a channel.
type Range struct {
	Min float64
	Max float64
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Lerp maps a fraction in [0,1] onto the range.
func (r Range) Lerp(frac float64) float64 {
	return r.Clamp(r.Min + frac*(r.Max-r.Min))
}

// Neutral is the value reported alongside an invalid reading: zero when the
// range contains it, otherwise the range minimum.
func (r Range) Neutral() float64 {
	if r.Contains(0) {
		return 0
	}
	return r.Min
}

// ChannelSpec describes one channel. Families lists the primary colour first
// followed by any state-shifted variants (e.g. the throttle bar turning
// yellow under traction control); matches are unioned.
type ChannelSpec struct {
	ID          string
	Mode        Mode
	Orientation Orientation
	Families    []l1pixels.ColorFamily
	MinPixels   int
	EdgeMargin  float64
	Range       Range
}

// Reading is the result of extracting one channel from one frame.
// When Valid is true, Value lies within the channel's Range.
type Reading struct {
	ChannelID  string
	FrameIndex int64
	Value      float64
	Point      r2.Vec // centroid in region pixels, point-position only
	PixelCount int
	Valid      bool
}

// Extract reads one channel from img. It never panics: nil or empty images,
// unknown modes and regions below the pixel threshold all produce a neutral
// value with Valid=false.
func Extract(img image.Image, spec ChannelSpec, frameIndex int64) Reading {
	r := Reading{ChannelID: spec.ID, FrameIndex: frameIndex, Value: spec.Range.Neutral()}
	if img == nil || img.Bounds().Empty() || spec.Range.Max <= spec.Range.Min {
		return r
	}

	mask := l1pixels.MatchMask(img, spec.Families...)
	switch spec.Mode {
	case ModeLinearFill:
		return extractFill(mask, spec, r)
	case ModePointPosition:
		return extractPoint(mask, spec, r)
	default:
		return r
	}
}

func extractFill(mask *l1pixels.Mask, spec ChannelSpec, r Reading) Reading {
	r.PixelCount = mask.Count()
	if r.PixelCount < spec.MinPixels || r.PixelCount == 0 {
		return r
	}

	// Lines run along the fill axis; the cross axis is sampled.
	lineLen, lines := mask.Width, mask.Height
	extent := mask.RowCount
	if spec.Orientation == Vertical {
		lineLen, lines = mask.Height, mask.Width
		extent = mask.ColCount
	}

	lo, hi := interiorLines(lines, spec.EdgeMargin)
	extents := make([]float64, 0, hi-lo)
	for i := lo; i < hi; i++ {
		extents = append(extents, float64(extent(i)))
	}
	sort.Float64s(extents)
	median := stat.Quantile(0.5, stat.Empirical, extents, nil)

	r.Value = spec.Range.Lerp(median / float64(lineLen))
	r.Valid = true
	return r
}

// interiorLines returns the half-open span of lines left after trimming
// margin*n lines from each edge. At least the middle line always remains.
func interiorLines(n int, margin float64) (lo, hi int) {
	skip := int(math.Floor(float64(n) * margin))
	lo, hi = skip, n-skip
	if lo >= hi {
		lo = n / 2
		hi = lo + 1
	}
	return lo, hi
}

func extractPoint(mask *l1pixels.Mask, spec ChannelSpec, r Reading) Reading {
	blob, ok := l1pixels.Largest(l1pixels.Components(mask))
	if !ok {
		return r
	}
	r.PixelCount = blob.Size()
	if r.PixelCount < spec.MinPixels {
		return r
	}

	c := blob.Centroid()
	r.Point = c
	switch spec.Orientation {
	case Vertical:
		// Top of the region is the range maximum.
		r.Value = spec.Range.Lerp(1 - axisFraction(c.Y, mask.Height))
	default:
		r.Value = spec.Range.Lerp(axisFraction(c.X, mask.Width))
	}
	r.Valid = true
	return r
}

// axisFraction maps a pixel coordinate in [0, n-1] onto [0,1].
func axisFraction(v float64, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return v / float64(n-1)
}

// LocateMarker returns the centroid of the largest blob matching families,
// in the region's pixel coordinates. Blobs smaller than minPixels are
// ignored.
func LocateMarker(img image.Image, families []l1pixels.ColorFamily, minPixels int) (r2.Vec, bool) {
	if img == nil || len(families) == 0 {
		return r2.Vec{}, false
	}
	blob, ok := l1pixels.Largest(l1pixels.Components(l1pixels.MatchMask(img, families...)))
	if !ok || blob.Size() < minPixels {
		return r2.Vec{}, false
	}
	return blob.Centroid(), true
}
