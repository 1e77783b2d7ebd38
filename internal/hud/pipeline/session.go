package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/hud/l1pixels"
	"github.com/banshee-data/lapdelta/internal/hud/l2signals"
	"github.com/banshee-data/lapdelta/internal/hud/l3counter"
	"github.com/banshee-data/lapdelta/internal/hud/l4path"
	"github.com/banshee-data/lapdelta/internal/hud/l5position"
	"github.com/banshee-data/lapdelta/internal/hud/l6laps"
	"github.com/banshee-data/lapdelta/internal/monitoring"
	"github.com/banshee-data/lapdelta/internal/timeutil"
)

var logf = monitoring.Prefixed("session")

// SessionConfig holds the layout, tuning and collaborators of a Session.
type SessionConfig struct {
	Layout *config.LayoutConfig
	Tuning *config.TuningConfig // nil uses built-in defaults

	// SessionID identifies the session to sinks; a random UUID when empty.
	SessionID string

	CounterReader  CounterReader  // Optional: without it no laps are cut
	TextRecognizer TextRecognizer // Optional: reads the HUD lap time on each transition
	FrameSink      FrameSink      // Optional
	LapSink        LapSink        // Optional

	Diagnostics *monitoring.Diagnostics // Optional: shared counters; allocated when nil
	Clock       timeutil.Clock          // Optional: wall clock for run timing
}

// Session runs one ordered pass over a frame stream. It is not safe for
// concurrent use.
type Session struct {
	cfg      SessionConfig
	id       string
	channels []channelBinding

	markerFamilies  []l1pixels.ColorFamily
	markerMinPixels int
	pathCfg         l4path.Config
	filterCfg       l5position.Config

	counter   *l3counter.Tracker
	path      *l4path.TrackPath
	estimator *l5position.Estimator
	builder   *l6laps.Builder
	diag      *monitoring.Diagnostics
	clock     timeutil.Clock

	lastReacquired int64
	persistErrs    []error
}

type channelBinding struct {
	region string
	spec   l2signals.ChannelSpec
}

// NewSession validates the layout and builds a Session. Position output
// stays disabled until PreparePath succeeds.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Layout == nil {
		return nil, fmt.Errorf("session needs a layout")
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	filterCfg := l5position.ConfigFromTuning(tuning)
	if _, err := l5position.NewFilter(filterCfg); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:             cfg,
		id:              cfg.SessionID,
		markerFamilies:  l2signals.Families(cfg.Layout.MarkerFamilies),
		markerMinPixels: cfg.Layout.MarkerMinPixels,
		pathCfg:         l4path.ConfigFromTuning(tuning),
		filterCfg:       filterCfg,
		counter:         l3counter.NewTracker(l3counter.ConfigFromTuning(tuning)),
		builder:         l6laps.NewBuilder(),
		diag:            cfg.Diagnostics,
		clock:           cfg.Clock,
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.diag == nil {
		s.diag = &monitoring.Diagnostics{}
	}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}

	sigCfg := l2signals.ConfigFromTuning(tuning)
	for _, ch := range cfg.Layout.Channels {
		s.channels = append(s.channels, channelBinding{region: ch.Region, spec: l2signals.SpecFromLayout(ch, sigCfg)})
	}

	s.pathCfg.Families = l2signals.Families(cfg.Layout.CurveFamilies)
	s.pathCfg.Reverse = cfg.Layout.Reverse
	if cfg.Layout.OriginX != nil && cfg.Layout.OriginY != nil {
		s.pathCfg.Origin = &r2.Vec{X: float64(*cfg.Layout.OriginX), Y: float64(*cfg.Layout.OriginY)}
	}
	s.estimator = l5position.NewEstimator(nil, nil)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Path returns the reference path, or nil when position output is disabled.
func (s *Session) Path() *l4path.TrackPath { return s.path }

// Diagnostics returns the session's rejection counters.
func (s *Session) Diagnostics() monitoring.DiagnosticsSnapshot { return s.diag.Snapshot() }

// PreparePath builds the reference path from minimap samples. On failure
// position output is disabled and the error is returned; every other
// channel keeps working.
func (s *Session) PreparePath(samples []image.Image) error {
	path, err := l4path.Extract(samples, s.pathCfg)
	if err != nil {
		logf("position tracking disabled: %v", err)
		s.SetPath(nil)
		return err
	}
	s.SetPath(path)
	return nil
}

// SetPath installs a previously extracted path (or nil to disable position
// output) and resets position filtering.
func (s *Session) SetPath(path *l4path.TrackPath) {
	s.path = path
	filter, err := l5position.NewFilter(s.filterCfg)
	if err != nil {
		logf("position filter: %v; falling back to bounded-rate", err)
	}
	s.estimator = l5position.NewEstimator(path, filter)
	s.lastReacquired = 0
}

// ProcessFrame runs one frame through every layer.
func (s *Session) ProcessFrame(ctx context.Context, f Frame) FrameRecord {
	rec := FrameRecord{FrameIndex: f.Index, Timestamp: f.Timestamp}

	for _, ch := range s.channels {
		r := l2signals.Extract(f.Regions[ch.region], ch.spec, f.Index)
		if !r.Valid {
			s.diag.ExtractionBelowThreshold.Add(1)
		}
		rec.Readings = append(rec.Readings, r)
	}

	var reading l3counter.Reading
	if s.cfg.CounterReader != nil {
		reading.Value, reading.Present = s.cfg.CounterReader.ReadCounter(f.Index, f.Regions[s.cfg.Layout.CounterRegion])
	}
	rec.Counter = s.counter.Observe(reading)
	switch rec.Counter.Event {
	case l3counter.EventRejected:
		s.diag.CounterRejected.Add(1)
	case l3counter.EventReset:
		s.diag.CounterResets.Add(1)
	}

	marker, detected := l2signals.LocateMarker(f.Regions[s.cfg.Layout.MapRegion], s.markerFamilies, s.markerMinPixels)
	rec.Position = s.estimator.Update(f.Index, marker, detected)
	if rec.Position.Rejected {
		s.diag.PositionOutliers.Add(1)
	}
	if n := s.estimator.Reacquired(); n != s.lastReacquired {
		s.diag.PositionReacquired.Add(n - s.lastReacquired)
		s.lastReacquired = n
	}

	finished, ok := s.builder.Observe(l6laps.Observation{
		FrameIndex: f.Index,
		Timestamp:  f.Timestamp,
		Counter:    rec.Counter,
		Position:   rec.Position,
		Channels:   rec.Channels(),
	})
	if ok {
		s.finishLap(ctx, f, finished)
	}

	s.diag.FramesProcessed.Add(1)
	if s.cfg.FrameSink != nil {
		s.cfg.FrameSink.OnFrame(rec)
	}
	return rec
}

func (s *Session) finishLap(ctx context.Context, f Frame, lap *l6laps.LapRecord) {
	if s.cfg.TextRecognizer != nil && s.cfg.Layout.LapTimeRegion != "" {
		if img := f.Regions[s.cfg.Layout.LapTimeRegion]; img != nil {
			text, err := s.cfg.TextRecognizer.Recognize(ctx, img)
			if err != nil {
				logf("lap %d: lap time recognition failed: %v", lap.ID, err)
			} else {
				lap.ReportedTime = text
				s.builder.Annotate(lap.ID, text)
			}
		}
	}
	s.persist(ctx, *lap)
}

func (s *Session) persist(ctx context.Context, lap l6laps.LapRecord) {
	if s.cfg.LapSink == nil {
		return
	}
	if err := s.cfg.LapSink.PersistLap(ctx, s.id, lap); err != nil {
		logf("lap %d: persist failed: %v", lap.ID, err)
		s.persistErrs = append(s.persistErrs, fmt.Errorf("persist lap %d: %w", lap.ID, err))
	}
}

// Run processes frames until the source is exhausted or ctx is cancelled.
// Cancellation is not an error: the in-progress lap is returned marked
// incomplete. Source errors other than io.EOF stop the run and are
// returned together with the laps finished so far.
func (s *Session) Run(ctx context.Context, src FrameSource) ([]l6laps.LapRecord, error) {
	start := s.clock.Now()
	var srcErr error

	for ctx.Err() == nil {
		f, err := src.Next(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				srcErr = fmt.Errorf("reading frame: %w", err)
			}
			break
		}
		s.ProcessFrame(ctx, f)
	}

	finished := len(s.builder.Laps())
	laps := s.builder.Finish()
	if len(laps) > finished {
		// Persist with a fresh context so a cancelled run still saves its
		// partial lap.
		s.persist(context.WithoutCancel(ctx), laps[len(laps)-1])
	}

	d := s.diag.Snapshot()
	logf("processed %d frames into %d laps in %v (below threshold %d, counter rejected %d, position outliers %d)",
		d.FramesProcessed, len(laps), s.clock.Since(start), d.ExtractionBelowThreshold, d.CounterRejected, d.PositionOutliers)

	return laps, errors.Join(append([]error{srcErr}, s.persistErrs...)...)
}

// Compare aligns laps and records coverage gaps in the session diagnostics.
func (s *Session) Compare(laps []l6laps.LapRecord, cfg l6laps.AlignConfig) (*l6laps.AlignedComparison, error) {
	return Compare(laps, cfg, s.diag)
}

// Compare aligns laps and adds the number of coverage gaps to diag, which
// may be nil.
func Compare(laps []l6laps.LapRecord, cfg l6laps.AlignConfig, diag *monitoring.Diagnostics) (*l6laps.AlignedComparison, error) {
	c, err := l6laps.Align(laps, cfg)
	if err != nil {
		return nil, err
	}
	if diag != nil {
		diag.AlignmentGaps.Add(int64(c.Gaps()))
	}
	return c, nil
}
