package l4path

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func square(t *testing.T) *TrackPath {
	t.Helper()
	p, err := NewTrackPath([]r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}})
	require.NoError(t, err)
	return p
}

func TestNewTrackPath_ClosedLength(t *testing.T) {
	t.Parallel()

	p := square(t)
	assert.Equal(t, 4, p.Len())
	assert.InDelta(t, 40, p.Total(), 1e-9)
	assert.InDelta(t, 0, p.ArcLength(0), 1e-9)
	assert.InDelta(t, 30, p.ArcLength(3), 1e-9)
	assert.InDelta(t, 75, p.Percent(3), 1e-9)
}

func TestNewTrackPath_Degenerate(t *testing.T) {
	t.Parallel()

	_, err := NewTrackPath(nil)
	assert.True(t, errors.Is(err, ErrDegeneratePath))

	_, err = NewTrackPath([]r2.Vec{{X: 3, Y: 3}, {X: 3, Y: 3}})
	assert.True(t, errors.Is(err, ErrDegeneratePath))
}

func TestTrackPath_PositionPercent(t *testing.T) {
	t.Parallel()

	p := square(t)
	tests := []struct {
		q    r2.Vec
		want float64
	}{
		{r2.Vec{X: 0, Y: 0}, 0},
		{r2.Vec{X: 10.4, Y: -1}, 25},
		{r2.Vec{X: 9, Y: 11}, 50},
		{r2.Vec{X: -2, Y: 9}, 75},
	}
	for _, tt := range tests {
		got := p.PositionPercent(tt.q)
		assert.InDelta(t, tt.want, got, 1e-9, "q=%v", tt.q)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}

	i, d := p.Nearest(r2.Vec{X: 10, Y: 3})
	assert.Equal(t, 1, i)
	assert.InDelta(t, 3, d, 1e-9)
}

func TestTrackPath_PointAt(t *testing.T) {
	t.Parallel()

	p := square(t)
	assert.Equal(t, r2.Vec{X: 5, Y: 10}, p.PointAt(62.5))
	assert.Equal(t, r2.Vec{X: 0, Y: 5}, p.PointAt(87.5), "closing segment")
	assert.Equal(t, r2.Vec{X: 5, Y: 0}, p.PointAt(112.5), "wraps")
	assert.Equal(t, r2.Vec{X: 0, Y: 10}, p.PointAt(-25))
}

func TestTrackPath_WithOriginAndReversed(t *testing.T) {
	t.Parallel()

	p := square(t)

	rot := p.WithOrigin(r2.Vec{X: 11, Y: 12})
	assert.Equal(t, r2.Vec{X: 10, Y: 10}, rot.Point(0))
	assert.InDelta(t, 50, rot.PositionPercent(r2.Vec{X: 0, Y: 0}), 1e-9)
	assert.InDelta(t, p.Total(), rot.Total(), 1e-9)
	assert.Same(t, p, p.WithOrigin(r2.Vec{X: 0, Y: 0}))

	rev := p.Reversed()
	assert.Equal(t, r2.Vec{X: 0, Y: 0}, rev.Point(0))
	assert.InDelta(t, 25, rev.PositionPercent(r2.Vec{X: 0, Y: 10}), 1e-9)
	assert.InDelta(t, 75, rev.PositionPercent(r2.Vec{X: 10, Y: 0}), 1e-9)

	// Points returns a copy.
	pts := p.Points()
	pts[0] = r2.Vec{X: 99, Y: 99}
	assert.Equal(t, r2.Vec{X: 0, Y: 0}, p.Point(0))
}
