package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/hud/l4path"
	"github.com/banshee-data/lapdelta/internal/hud/l6laps"
	"github.com/banshee-data/lapdelta/internal/monitoring"
	"github.com/banshee-data/lapdelta/internal/testutil"
)

const (
	mapSize    = 120
	ringRadius = 40.0
	startPct   = 40.0
	pctPerStep = 2.0
	fps        = 10.0
)

func testLayout() *config.LayoutConfig {
	ox, oy := 60, 20
	return &config.LayoutConfig{
		Regions: map[string]config.Rect{
			"throttle":    {X: 0, Y: 0, W: 100, H: 10},
			"lap_counter": {X: 0, Y: 20, W: 10, H: 10},
			"last_lap":    {X: 20, Y: 20, W: 40, H: 10},
			"minimap":     {X: 0, Y: 40, W: mapSize, H: mapSize},
		},
		Channels: []config.ChannelLayout{{
			ID:       "throttle",
			Region:   "throttle",
			Mode:     config.ModeLinearFill,
			Families: []config.HSVRange{{Name: "green", HueMin: 90, HueMax: 150, SatMin: 0.4, SatMax: 1, ValMin: 0.4, ValMax: 1}},
			RangeMin: 0,
			RangeMax: 100,
		}},
		CounterRegion:   "lap_counter",
		LapTimeRegion:   "last_lap",
		MapRegion:       "minimap",
		CurveFamilies:   []config.HSVRange{{Name: "track", HueMax: 360, SatMax: 0.15, ValMin: 0.75, ValMax: 1}},
		MarkerFamilies:  []config.HSVRange{{Name: "car", HueMin: 180, HueMax: 220, SatMin: 0.5, SatMax: 1, ValMin: 0.6, ValMax: 1}},
		MarkerMinPixels: 6,
		OriginX:         &ox,
		OriginY:         &oy,
	}
}

// markerAt returns the minimap pixel for progress pct, clockwise from the
// top of the ring.
func markerAt(pct float64) image.Point {
	a := 2 * math.Pi * pct / 100
	return image.Pt(
		int(math.Round(60+ringRadius*math.Sin(a))),
		int(math.Round(60-ringRadius*math.Cos(a))),
	)
}

func minimap(pct float64) image.Image {
	img := testutil.NewFrame(mapSize, mapSize, testutil.Black)
	testutil.DrawPolygon(img, testutil.CirclePoints(60, 60, ringRadius, 48), testutil.White)
	testutil.DrawBlob(img, markerAt(pct), 2, testutil.Blue)
	return img
}

// testTuning widens the jump limit to the 2% per frame the test car moves.
func testTuning() *config.TuningConfig {
	cfg := config.DefaultTuningConfig()
	jump := 5.0
	cfg.PositionMaxJumpPercent = &jump
	return cfg
}

func progress(frame int64) float64 {
	return startPct + pctPerStep*float64(frame)
}

// sliceSource replays pre-built frames.
type sliceSource struct {
	frames []Frame
	next   int
	onNext func(i int)
	err    error
}

func (s *sliceSource) Next(ctx context.Context) (Frame, error) {
	if s.onNext != nil {
		s.onNext(s.next)
	}
	if s.next >= len(s.frames) {
		if s.err != nil {
			return Frame{}, s.err
		}
		return Frame{}, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func buildFrames(n int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		idx := int64(i)
		frames[i] = Frame{
			Index:     idx,
			Timestamp: float64(i) / fps,
			Regions: map[string]image.Image{
				"throttle":    testutil.HorizontalBar(100, 10, float64(i%50)/50, testutil.Green),
				"lap_counter": testutil.NewFrame(10, 10, testutil.Black),
				"last_lap":    testutil.NewFrame(40, 10, testutil.Black),
				"minimap":     minimap(progress(idx)),
			},
		}
	}
	return frames
}

// lapCounter reads the true lap number with drop-outs and misreads.
type lapCounter struct{}

func (lapCounter) ReadCounter(frame int64, _ image.Image) (int, bool) {
	if frame%7 == 3 {
		return 0, false
	}
	lap := 1 + int(math.Floor(progress(frame)/100))
	if frame%11 == 0 {
		return lap + 3, true
	}
	return lap, true
}

// recordingCounter counts calls and the regions it was handed.
type recordingCounter struct {
	lapCounter
	calls      int
	nilRegions int
}

func (c *recordingCounter) ReadCounter(frame int64, region image.Image) (int, bool) {
	c.calls++
	if region == nil {
		c.nilRegions++
	}
	return c.lapCounter.ReadCounter(frame, region)
}

type fakeRecognizer struct{ calls int }

func (r *fakeRecognizer) Recognize(context.Context, image.Image) (string, error) {
	r.calls++
	return "0:25.000", nil
}

type lapCollector struct {
	laps []l6laps.LapRecord
	ids  []string
	err  error
}

func (c *lapCollector) PersistLap(_ context.Context, sessionID string, lap l6laps.LapRecord) error {
	c.ids = append(c.ids, sessionID)
	c.laps = append(c.laps, lap)
	return c.err
}

type frameCounter struct{ records []FrameRecord }

func (f *frameCounter) OnFrame(r FrameRecord) { f.records = append(f.records, r) }

func pathSamples(n int) []image.Image {
	rng := rand.New(rand.NewSource(11))
	out := make([]image.Image, n)
	for i := range out {
		out[i] = minimap(rng.Float64() * 100)
	}
	return out
}

func TestSession_EndToEnd(t *testing.T) {
	rec := &fakeRecognizer{}
	sink := &lapCollector{}
	frames := &frameCounter{}
	diag := &monitoring.Diagnostics{}

	s, err := NewSession(SessionConfig{
		Layout:         testLayout(),
		Tuning:         testTuning(),
		SessionID:      "session-1",
		CounterReader:  lapCounter{},
		TextRecognizer: rec,
		FrameSink:      frames,
		LapSink:        sink,
		Diagnostics:    diag,
	})
	require.NoError(t, err)
	require.NoError(t, s.PreparePath(pathSamples(40)))
	require.NotNil(t, s.Path())

	// 40% -> 280%: joins mid lap 1, lap 2 is complete, lap 3 is cut short.
	laps, err := s.Run(context.Background(), &sliceSource{frames: buildFrames(121)})
	require.NoError(t, err)
	require.Len(t, laps, 3)

	assert.Equal(t, []int{1, 2, 3}, []int{laps[0].ID, laps[1].ID, laps[2].ID})
	assert.False(t, laps[0].Complete)
	assert.True(t, laps[1].Complete)
	assert.False(t, laps[2].Complete)

	// Lap 2 spans 50 frames at 10 fps.
	assert.InDelta(t, 5.0, laps[1].LapTime(), 0.25)
	assert.Equal(t, "0:25.000", laps[1].ReportedTime)
	assert.Equal(t, 2, rec.calls)

	first := laps[1].Samples[0].Position
	assert.Less(t, first, 4.0, "lap 2 starts at the line, not where the counter caught up")

	require.Len(t, sink.laps, 3)
	assert.Equal(t, []string{"session-1", "session-1", "session-1"}, sink.ids)
	assert.Equal(t, "0:25.000", sink.laps[1].ReportedTime)

	require.Len(t, frames.records, 121)
	for _, r := range frames.records {
		if r.Counter.Valid && len(r.Readings) == 1 && r.Readings[0].Valid {
			v := r.Readings[0].Value
			assert.True(t, v >= 0 && v <= 100)
		}
	}

	// Position never runs backwards except at the line.
	var prev float64
	for i, r := range frames.records {
		require.True(t, r.Position.Valid, "frame %d", i)
		if i > 0 && r.Position.Percent < prev {
			assert.Greater(t, prev-r.Position.Percent, 50.0, "frame %d moved backwards", i)
		}
		prev = r.Position.Percent
	}

	d := s.Diagnostics()
	assert.Equal(t, int64(121), d.FramesProcessed)
	assert.Positive(t, d.ExtractionBelowThreshold, "empty bars are below threshold")
	assert.Equal(t, int64(0), d.CounterResets)

	c, err := s.Compare(laps, l6laps.AlignConfig{GridStep: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 2, c.ReferenceID)
	assert.Positive(t, s.Diagnostics().AlignmentGaps, "lap 1 and 3 are partial")

	// Laps 2 and 3 are driven at the same pace.
	delta, err := c.Delta(3, 2)
	require.NoError(t, err)
	v, ok := delta.At(100) // 50%
	require.True(t, ok)
	assert.InDelta(t, 0, v, 0.3)

	_, ok = c.Laps[0].Time.At(0)
	assert.False(t, ok, "lap 1 joined after the line")
}

func TestSession_CounterReaderWithoutRegion(t *testing.T) {
	layout := testLayout()
	layout.CounterRegion = ""
	delete(layout.Regions, "lap_counter")
	frames := buildFrames(121)
	for _, f := range frames {
		delete(f.Regions, "lap_counter")
	}

	counter := &recordingCounter{}
	s, err := NewSession(SessionConfig{Layout: layout, Tuning: testTuning(), CounterReader: counter})
	require.NoError(t, err)
	require.NoError(t, s.PreparePath(pathSamples(40)))

	laps, err := s.Run(context.Background(), &sliceSource{frames: frames})
	require.NoError(t, err)
	assert.Equal(t, 121, counter.calls, "a frame-keyed reader is asked for every frame")
	assert.Equal(t, 121, counter.nilRegions)
	require.Len(t, laps, 3)
	assert.True(t, laps[1].Complete)
}

func TestSession_PathFailureDisablesPositionOnly(t *testing.T) {
	s, err := NewSession(SessionConfig{Layout: testLayout(), CounterReader: lapCounter{}})
	require.NoError(t, err)

	err = s.PreparePath(pathSamples(5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, l4path.ErrPathExtractionFailed))
	assert.Nil(t, s.Path())

	for _, f := range buildFrames(30) {
		rec := s.ProcessFrame(context.Background(), f)
		assert.False(t, rec.Position.Valid)
		if f.Index%50 >= 5 {
			require.Len(t, rec.Readings, 1)
			assert.True(t, rec.Readings[0].Valid, "frame %d", f.Index)
		}
	}
	assert.NotEmpty(t, s.ID(), "random id assigned")
}

func TestSession_CancellationKeepsPartialLap(t *testing.T) {
	sink := &lapCollector{}
	s, err := NewSession(SessionConfig{Layout: testLayout(), CounterReader: lapCounter{}, LapSink: sink})
	require.NoError(t, err)
	require.NoError(t, s.PreparePath(pathSamples(40)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &sliceSource{frames: buildFrames(100)}
	src.onNext = func(i int) {
		if i == 60 {
			cancel()
		}
	}

	laps, err := s.Run(ctx, src)
	require.NoError(t, err)
	require.NotEmpty(t, laps)
	last := laps[len(laps)-1]
	assert.False(t, last.Complete)
	require.NotEmpty(t, sink.laps)
	assert.Equal(t, last.ID, sink.laps[len(sink.laps)-1].ID, "partial lap is still persisted")
}

func TestSession_SourceAndSinkErrors(t *testing.T) {
	sink := &lapCollector{err: errors.New("disk full")}
	s, err := NewSession(SessionConfig{Layout: testLayout(), CounterReader: lapCounter{}, LapSink: sink})
	require.NoError(t, err)
	require.NoError(t, s.PreparePath(pathSamples(40)))

	boom := errors.New("decoder crashed")
	laps, err := s.Run(context.Background(), &sliceSource{frames: buildFrames(40), err: boom})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, laps, 1)
}

func TestNewSession_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewSession(SessionConfig{})
	assert.Error(t, err)

	bad := testLayout()
	bad.CounterRegion = "nowhere"
	_, err = NewSession(SessionConfig{Layout: bad})
	assert.Error(t, err)

	filter := "particle"
	_, err = NewSession(SessionConfig{Layout: testLayout(), Tuning: &config.TuningConfig{PositionFilter: &filter}})
	assert.Error(t, err)
}

func TestCompare_InsufficientLaps(t *testing.T) {
	t.Parallel()

	_, err := Compare([]l6laps.LapRecord{{ID: 1}}, l6laps.AlignConfig{}, nil)
	assert.True(t, errors.Is(err, l6laps.ErrInsufficientLaps))
}
