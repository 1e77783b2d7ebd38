package l6laps

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lapdelta/internal/config"
)

// linearLap maps position 0..100 linearly onto duration seconds, starting
// at t0, with one sample per percent and a throttle channel.
func linearLap(id int, t0, duration float64) LapRecord {
	lap := LapRecord{ID: id, Complete: true, EndTime: t0 + duration}
	for p := 0; p <= 100; p++ {
		pos := float64(p)
		lap.Samples = append(lap.Samples, Sample{
			Position:  pos,
			Timestamp: t0 + duration*pos/100,
			Channels:  map[string]float64{"throttle": 50 + 50*math.Sin(pos/10)},
		})
	}
	return lap
}

func TestNewGrid(t *testing.T) {
	t.Parallel()

	g := NewGrid(0.5)
	require.Len(t, g, 201)
	assert.Equal(t, 0.0, g[0])
	assert.Equal(t, 50.0, g[100])
	assert.Equal(t, 100.0, g[200])

	assert.Len(t, NewGrid(0), 201, "invalid step falls back to the default")
	assert.Len(t, NewGrid(3), 34)
	assert.Len(t, NewGrid(100), 2)
}

func TestAlign_DeltaAtHalfway(t *testing.T) {
	t.Parallel()

	a := linearLap(1, 12.0, 100)
	b := linearLap(2, 500.0, 110)

	c, err := Align([]LapRecord{a, b}, AlignConfigFromTuning(config.EmptyTuningConfig()))
	require.NoError(t, err)
	require.Len(t, c.Grid, 201)

	d, err := c.Delta(1, 2)
	require.NoError(t, err)
	v, ok := d.At(100)
	require.True(t, ok)
	assert.InDelta(t, -5.0, v, 1e-9, "lap A is five seconds ahead at 50%")

	v, ok = d.At(200)
	require.True(t, ok)
	assert.InDelta(t, -10.0, v, 1e-9)
	assert.Equal(t, 0, d.Missing())

	assert.Equal(t, 1, c.ReferenceID, "fastest complete lap is the reference")
	deltas, err := c.DeltasToReference()
	require.NoError(t, err)
	require.Contains(t, deltas, 2)
	v, _ = deltas[2].At(100)
	assert.InDelta(t, 5.0, v, 1e-9)
}

func TestAlign_SelfDeltaIsZero(t *testing.T) {
	t.Parallel()

	a := linearLap(1, 0, 93.7)
	b := a
	b.ID = 2

	c, err := Align([]LapRecord{a, b}, AlignConfig{GridStep: 0.5})
	require.NoError(t, err)
	d, err := c.Delta(1, 2)
	require.NoError(t, err)

	want := Series{Values: make([]float64, 201), Present: make([]bool, 201)}
	for i := range want.Present {
		want.Present[i] = true
	}
	if diff := cmp.Diff(want, d, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("self delta mismatch (-want +got):\n%s", diff)
	}
}

func TestResample_RoundTrip(t *testing.T) {
	t.Parallel()

	lap := linearLap(7, 3, 88)
	// Irregular sample spacing.
	lap.Samples = append(lap.Samples[:10:10], lap.Samples[13:]...)

	positions := make([]float64, len(lap.Samples))
	for i, s := range lap.Samples {
		positions[i] = s.Position
	}
	r := Resample(lap, positions)
	for i, s := range lap.Samples {
		tv, ok := r.Time.At(i)
		require.True(t, ok)
		assert.InDelta(t, s.Timestamp-3, tv, 1e-9)

		cv, ok := r.Channels["throttle"].At(i)
		require.True(t, ok)
		assert.InDelta(t, s.Channels["throttle"], cv, 1e-9)
	}
}

func TestAlign_CoverageGaps(t *testing.T) {
	t.Parallel()

	full := linearLap(1, 0, 100)
	partial := LapRecord{ID: 2}
	for p := 20; p <= 80; p++ {
		partial.Samples = append(partial.Samples, Sample{Position: float64(p), Timestamp: float64(p)})
	}

	c, err := Align([]LapRecord{full, partial}, AlignConfig{GridStep: 1})
	require.NoError(t, err)

	d, err := c.Delta(1, 2)
	require.NoError(t, err)
	_, ok := d.At(10)
	assert.False(t, ok, "outside partial coverage")
	_, ok = d.At(90)
	assert.False(t, ok)
	v, ok := d.At(50)
	require.True(t, ok)
	assert.InDelta(t, 20, v, 1e-9, "partial lap's clock starts at 20%")

	assert.Equal(t, 40, d.Missing())
	assert.Equal(t, 40, c.Gaps())

	// No complete lap in the pair: the first lap becomes the reference.
	full.Complete = false
	c, err = Align([]LapRecord{partial, full}, AlignConfig{GridStep: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, c.ReferenceID)

	p, err := c.Lap(2)
	require.NoError(t, err)
	assert.Empty(t, p.Channels)
}

func TestAlign_SamplingPhaseDoesNotBiasDelta(t *testing.T) {
	t.Parallel()

	// Both laps run at 1%/s. A is sampled at x.1%, B at x.9%.
	a := LapRecord{ID: 1, Complete: true, StartTime: 10, EndTime: 110}
	b := LapRecord{ID: 2, Complete: true, EndTime: 300}
	// B has no recorded crossing; its head still shows the previous lap.
	b.Samples = append(b.Samples, Sample{Position: 99.9, Timestamp: 199.9})
	for k := 0; k < 100; k++ {
		a.Samples = append(a.Samples, Sample{Position: 0.1 + float64(k), Timestamp: 10.1 + float64(k)})
		b.Samples = append(b.Samples, Sample{Position: 0.9 + float64(k), Timestamp: 200.9 + float64(k)})
	}
	assert.InDelta(t, 100, a.LapTime(), 1e-9)
	assert.InDelta(t, 100, b.LapTime(), 1e-9)

	c, err := Align([]LapRecord{a, b}, AlignConfig{GridStep: 1})
	require.NoError(t, err)
	d, err := c.Delta(1, 2)
	require.NoError(t, err)

	v, ok := d.At(0)
	require.True(t, ok, "0% is anchored at the crossing")
	assert.InDelta(t, 0, v, 1e-9)
	for i := 1; i < 100; i++ {
		v, ok := d.At(i)
		require.True(t, ok, "grid point %d", i)
		assert.InDelta(t, 0, v, 1e-9, "grid point %d", i)
	}
	_, ok = d.At(100)
	assert.False(t, ok, "lap A's samples stop at 99.1%")
}

func TestAlign_Errors(t *testing.T) {
	t.Parallel()

	a := linearLap(1, 0, 100)

	_, err := Align([]LapRecord{a}, AlignConfig{})
	assert.True(t, errors.Is(err, ErrInsufficientLaps))

	_, err = Align([]LapRecord{a, a}, AlignConfig{})
	assert.Error(t, err)

	ref := 9
	b := linearLap(2, 0, 100)
	_, err = Align([]LapRecord{a, b}, AlignConfig{Reference: &ref})
	assert.True(t, errors.Is(err, ErrUnknownLap))

	c, err := Align([]LapRecord{a, b}, AlignConfig{})
	require.NoError(t, err)
	_, err = c.Delta(1, 5)
	assert.True(t, errors.Is(err, ErrUnknownLap))
	_, err = c.SectorTimes(5, []float64{0})
	assert.True(t, errors.Is(err, ErrUnknownLap))
}

func TestAlign_ExplicitReference(t *testing.T) {
	t.Parallel()

	ref := 2
	c, err := Align([]LapRecord{linearLap(1, 0, 100), linearLap(2, 0, 110)}, AlignConfig{Reference: &ref})
	require.NoError(t, err)
	assert.Equal(t, 2, c.ReferenceID)
}

func TestSectorTimes(t *testing.T) {
	t.Parallel()

	c, err := Align([]LapRecord{linearLap(1, 0, 100), linearLap(2, 0, 120)}, AlignConfig{GridStep: 0.5})
	require.NoError(t, err)

	s, err := c.SectorTimes(1, []float64{0, 33.3, 66.6})
	require.NoError(t, err)
	want := []float64{33.3, 33.3, 33.4}
	for i, w := range want {
		v, ok := s.At(i)
		require.True(t, ok, "sector %d", i)
		assert.InDelta(t, w, v, 1e-9, "sector %d", i)
	}

	s, err = c.SectorTimes(2, []float64{0, 50})
	require.NoError(t, err)
	v, _ := s.At(0)
	assert.InDelta(t, 60, v, 1e-9)
	v, _ = s.At(1)
	assert.InDelta(t, 60, v, 1e-9)

	tv, ok := c.TimeAt(1, 12.25)
	require.True(t, ok)
	assert.InDelta(t, 12.25, tv, 1e-9)
	_, ok = c.TimeAt(1, 101)
	assert.False(t, ok)
}
