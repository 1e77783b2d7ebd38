package l5position

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lapdelta/internal/config"
)

func TestCircularDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to, want float64
	}{
		{10, 11, 1},
		{11, 10, -1},
		{99.8, 0.2, 0.4},
		{0.2, 99.8, -0.4},
		{50, 40, -10},
		{0, 50, -50},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, CircularDelta(tt.from, tt.to), 1e-9, "%g -> %g", tt.from, tt.to)
	}
	assert.InDelta(t, 0.5, Wrap(100.5), 1e-9)
	assert.InDelta(t, 99.5, Wrap(-0.5), 1e-9)
}

func TestBoundedRateFilter_SuppressesSpike(t *testing.T) {
	t.Parallel()

	f := NewBoundedRateFilter(1.0, 8)
	_, ok := f.Predict()
	assert.False(t, ok)

	inputs := []float64{48, 48.5, 49, 71, 49.5, 50}
	want := []float64{48, 48.5, 49, 49, 49.5, 50}
	wantOK := []bool{true, true, true, false, true, true}
	for i, m := range inputs {
		got, ok := f.Accept(m)
		assert.InDelta(t, want[i], got, 1e-9, "frame %d", i)
		assert.Equal(t, wantOK[i], ok, "frame %d", i)
	}
	p, ok := f.Predict()
	assert.True(t, ok)
	assert.InDelta(t, 50, p, 1e-9)
}

func TestBoundedRateFilter_WrapIsForward(t *testing.T) {
	t.Parallel()

	f := NewBoundedRateFilter(1.0, 0)
	f.Accept(99.6)
	got, ok := f.Accept(0.3)
	assert.True(t, ok)
	assert.InDelta(t, 0.3, got, 1e-9)

	// A genuine backward jump is not a wrap.
	got, ok = f.Accept(90)
	assert.False(t, ok)
	assert.InDelta(t, 0.3, got, 1e-9)
}

func TestBoundedRateFilter_Reacquire(t *testing.T) {
	t.Parallel()

	f := NewBoundedRateFilter(1.0, 8)
	f.Accept(20)

	for i := 0; i < 7; i++ {
		got, ok := f.Accept(60 + 0.2*float64(i))
		require.False(t, ok, "frame %d", i)
		assert.InDelta(t, 20, got, 1e-9)
	}
	got, ok := f.Accept(61.4)
	assert.True(t, ok)
	assert.InDelta(t, 61.4, got, 1e-9)
	assert.Equal(t, int64(1), f.Reacquired())

	// Inconsistent rejections never re-lock.
	g := NewBoundedRateFilter(1.0, 3)
	g.Accept(20)
	for i := 0; i < 20; i++ {
		m := 60.0
		if i%2 == 1 {
			m = 80
		}
		_, ok := g.Accept(m)
		require.False(t, ok)
	}
	assert.Equal(t, int64(0), g.Reacquired())

	g.Reset()
	_, ok = g.Predict()
	assert.False(t, ok)
}

func TestKalmanFilter_TracksAndGates(t *testing.T) {
	t.Parallel()

	k := NewKalmanFilter(0.01, 0.25, 3.0, 8)
	for i := 0; i <= 60; i++ {
		truth := Wrap(90 + 0.3*float64(i))
		m := truth
		if i == 30 {
			m = Wrap(truth + 25)
		}
		got, ok := k.Accept(m)
		if i == 30 {
			assert.False(t, ok, "outlier must be gated")
		} else {
			assert.True(t, ok, "frame %d", i)
		}
		if i >= 5 {
			assert.LessOrEqual(t, math.Abs(CircularDelta(truth, got)), 0.1, "frame %d", i)
		}
	}

	p, ok := k.Predict()
	require.True(t, ok)
	assert.InDelta(t, Wrap(90+0.3*61), p, 0.05)
}

func TestKalmanFilter_Reacquire(t *testing.T) {
	t.Parallel()

	k := NewKalmanFilter(0.01, 0.25, 3.0, 4)
	for i := 0; i < 10; i++ {
		k.Accept(20)
	}
	for i := 0; i < 3; i++ {
		_, ok := k.Accept(60)
		require.False(t, ok)
	}
	got, ok := k.Accept(60)
	assert.True(t, ok)
	assert.InDelta(t, 60, got, 1e-9)
	assert.Equal(t, int64(1), k.Reacquired())

	k.Reset()
	_, ok = k.Predict()
	assert.False(t, ok)
}

func TestNewFilter(t *testing.T) {
	t.Parallel()

	cfg := ConfigFromTuning(config.EmptyTuningConfig())
	f, err := NewFilter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &BoundedRateFilter{}, f)

	cfg.Filter = config.PositionFilterKalman
	f, err = NewFilter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &KalmanFilter{}, f)

	cfg.Filter = "particle"
	_, err = NewFilter(cfg)
	assert.Error(t, err)
}
