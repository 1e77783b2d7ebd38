package l6laps

import (
	"github.com/banshee-data/lapdelta/internal/hud/l3counter"
	"github.com/banshee-data/lapdelta/internal/hud/l5position"
	"github.com/banshee-data/lapdelta/internal/monitoring"
)

var logf = monitoring.Prefixed("laps")

// Observation is what the Builder needs from one processed frame.
type Observation struct {
	FrameIndex int64
	Timestamp  float64
	Counter    l3counter.Result
	Position   l5position.Estimate
	Channels   map[string]float64 // valid channel readings only
}

// Builder cuts the frame stream into laps at counter transitions. Frames
// before the counter first reaches consensus belong to no lap.
type Builder struct {
	laps    []LapRecord
	current *LapRecord
	// fromTransition is true when current began at a counter transition.
	fromTransition bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Observe adds one frame. It returns the lap finished by this frame, if
// any.
func (b *Builder) Observe(o Observation) (*LapRecord, bool) {
	if !o.Counter.Valid {
		return nil, false
	}

	var finished *LapRecord
	switch {
	case b.current == nil:
		b.start(o, o.Counter.Event.Transition())
	case o.Counter.Event.Transition():
		lap := *b.current
		lap.Complete = b.fromTransition
		lap.EndFrame = o.FrameIndex
		lap.EndTime = o.Timestamp

		// The counter needs several frames to reach consensus, so the
		// marker has usually crossed the line already. Samples after that
		// crossing belong to the new lap.
		var carried []Sample
		var crossing float64
		if k := wrapIndex(lap.Samples); k >= 0 {
			carried = append(carried, lap.Samples[k:]...)
			lap.Samples = lap.Samples[:k:k]
			crossing = crossingTime(lap.Samples[k-1], carried[0])
		} else if n := len(lap.Samples); n > 0 && o.Position.Valid && lap.Samples[n-1].Position-o.Position.Percent > 50 {
			crossing = crossingTime(lap.Samples[n-1], Sample{Position: o.Position.Percent, Timestamp: o.Timestamp})
		}
		if crossing > 0 {
			lap.EndTime = crossing
		}

		b.laps = append(b.laps, lap)
		finished = &b.laps[len(b.laps)-1]
		logf("lap %d finished: %d samples, complete=%v", lap.ID, len(lap.Samples), lap.Complete)
		b.start(o, true)
		b.current.Samples = carried
		b.current.StartTime = crossing
	}

	if o.Position.Valid {
		var ch map[string]float64
		if len(o.Channels) > 0 {
			ch = make(map[string]float64, len(o.Channels))
			for k, v := range o.Channels {
				ch[k] = v
			}
		}
		b.current.Samples = append(b.current.Samples, Sample{
			Position:  o.Position.Percent,
			Timestamp: o.Timestamp,
			Channels:  ch,
		})
	}
	b.current.EndFrame = o.FrameIndex

	if finished == nil {
		return nil, false
	}
	out := *finished
	return &out, true
}

func (b *Builder) start(o Observation, fromTransition bool) {
	b.current = &LapRecord{ID: o.Counter.Value, StartFrame: o.FrameIndex, EndFrame: o.FrameIndex}
	b.fromTransition = fromTransition
}

// wrapIndex returns the index of the first sample after the last crossing
// of the start line (a drop of more than 50%), provided every sample from
// there on is in the first half of the track. It returns -1 otherwise.
func wrapIndex(samples []Sample) int {
	for i := len(samples) - 1; i > 0; i-- {
		if samples[i].Position >= 50 {
			return -1
		}
		if samples[i-1].Position-samples[i].Position > 50 {
			return i
		}
	}
	return -1
}

// Annotate attaches HUD lap time text to the finished lap with the given
// id. It reports whether the lap was found.
func (b *Builder) Annotate(id int, reported string) bool {
	for i := len(b.laps) - 1; i >= 0; i-- {
		if b.laps[i].ID == id {
			b.laps[i].ReportedTime = reported
			return true
		}
	}
	return false
}

// Laps returns the finished laps so far.
func (b *Builder) Laps() []LapRecord {
	return append([]LapRecord(nil), b.laps...)
}

// Finish closes the in-progress lap as incomplete and returns every lap.
// It is safe to call when the stream stopped early. An in-progress lap
// without samples is dropped.
func (b *Builder) Finish() []LapRecord {
	if b.current != nil && len(b.current.Samples) > 0 {
		lap := *b.current
		lap.Complete = false
		b.laps = append(b.laps, lap)
	}
	b.current = nil
	return b.Laps()
}
