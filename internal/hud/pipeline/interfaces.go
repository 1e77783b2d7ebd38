package pipeline

import (
	"context"
	"image"

	"github.com/banshee-data/lapdelta/internal/hud/l2signals"
	"github.com/banshee-data/lapdelta/internal/hud/l3counter"
	"github.com/banshee-data/lapdelta/internal/hud/l5position"
	"github.com/banshee-data/lapdelta/internal/hud/l6laps"
)

// Frame is one step of the frame stream: region crops keyed by layout
// region name, a monotonically increasing index, and a timestamp in
// seconds.
type Frame struct {
	Index     int64
	Timestamp float64
	Regions   map[string]image.Image
}

// FrameSource yields frames in order. Next returns io.EOF after the last
// frame.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// CounterReader reads the raw lap counter for one frame. The region is nil
// when the layout names no counter region or the crop missed the frame;
// readers keyed by frame index may still answer. It returns false when no
// value could be read.
type CounterReader interface {
	ReadCounter(frameIndex int64, region image.Image) (int, bool)
}

// TextRecognizer turns an image region into text. It is called only when
// the lap counter advances, never per frame.
type TextRecognizer interface {
	Recognize(ctx context.Context, region image.Image) (string, error)
}

// FrameSink receives every processed frame.
type FrameSink interface {
	OnFrame(FrameRecord)
}

// LapSink receives each lap as it is finalised.
type LapSink interface {
	PersistLap(ctx context.Context, sessionID string, lap l6laps.LapRecord) error
}

// FrameRecord is the per-frame output of a Session.
type FrameRecord struct {
	FrameIndex int64
	Timestamp  float64
	Readings   []l2signals.Reading
	Counter    l3counter.Result
	Position   l5position.Estimate
}

// Channels returns the valid readings keyed by channel id.
func (r FrameRecord) Channels() map[string]float64 {
	out := make(map[string]float64, len(r.Readings))
	for _, rd := range r.Readings {
		if rd.Valid {
			out[rd.ChannelID] = rd.Value
		}
	}
	return out
}
