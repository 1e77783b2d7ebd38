package l6laps

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sample is one frame's contribution to a lap.
type Sample struct {
	Position  float64            `json:"position"`  // progress in [0,100]
	Timestamp float64            `json:"timestamp"` // seconds since session start
	Channels  map[string]float64 `json:"channels,omitempty"`
}

// LapRecord is the ordered sample sequence of one lap. Complete is true
// only when the lap both began and ended at a counter transition.
type LapRecord struct {
	ID           int      `json:"id"`
	Samples      []Sample `json:"samples"`
	Complete     bool     `json:"complete"`
	StartFrame   int64    `json:"start_frame"`
	EndFrame     int64    `json:"end_frame"`
	StartTime    float64  `json:"start_time"`    // start line crossing; 0 when not observed
	EndTime      float64  `json:"end_time"`      // finishing crossing or transition; 0 when incomplete
	ReportedTime string   `json:"reported_time"` // lap time as read off the HUD, if any
}

// ChannelNames returns the sorted set of channel ids present in the lap.
func (l LapRecord) ChannelNames() []string {
	seen := make(map[string]bool)
	for _, s := range l.Samples {
		for k := range s.Channels {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// prepared returns the samples usable for interpolation: leading samples
// still showing the previous lap's end are dropped, the sequence stops at
// the first wrap back to the start, and positions are strictly increasing.
func (l LapRecord) prepared() []Sample {
	i := 0
	for i < len(l.Samples) && l.Samples[i].Position > 50 {
		i++
	}
	out := make([]Sample, 0, len(l.Samples)-i)
	maxPos := -1.0
	for _, s := range l.Samples[i:] {
		if maxPos >= 0 && maxPos-s.Position > 50 {
			break
		}
		if s.Position <= maxPos {
			continue
		}
		out = append(out, s)
		maxPos = s.Position
	}
	return out
}

// startTime returns the time the lap crossed the start line. Without a
// recorded crossing it is interpolated from the previous lap's tail at the
// head of the samples, if there is one.
func (l LapRecord) startTime() (float64, bool) {
	if l.StartTime > 0 {
		return l.StartTime, true
	}
	if len(l.Samples) == 0 || l.Samples[0].Position <= 50 {
		return 0, false
	}
	for i := 1; i < len(l.Samples); i++ {
		if l.Samples[i].Position <= 50 {
			if l.Samples[i-1].Position > 50 {
				return crossingTime(l.Samples[i-1], l.Samples[i]), true
			}
			break
		}
	}
	return 0, false
}

// crossingTime interpolates when the marker passed 0% between a sample
// before the line and one after it.
func crossingTime(before, after Sample) float64 {
	span := (100 - before.Position) + after.Position
	if span <= 0 {
		return before.Timestamp
	}
	frac := (100 - before.Position) / span
	return before.Timestamp + frac*(after.Timestamp-before.Timestamp)
}

// LapTime returns the lap duration in seconds measured from the start line
// crossing, or from the first prepared sample when no crossing is known:
// up to EndTime for complete laps, otherwise up to the last prepared
// sample.
func (l LapRecord) LapTime() float64 {
	p := l.prepared()
	if len(p) == 0 {
		return 0
	}
	t0 := p[0].Timestamp
	if st, ok := l.startTime(); ok {
		t0 = st
	}
	if l.Complete && l.EndTime > t0 {
		return l.EndTime - t0
	}
	return p[len(p)-1].Timestamp - t0
}

// ParseLapTime parses HUD lap time text such as "1:23.456", "83.456" or
// "0:01:23.456" into seconds.
func ParseLapTime(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("empty lap time")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("lap time %q has too many fields", text)
	}
	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("lap time %q: bad field %q", text, p)
		}
		if i < len(parts)-1 && v != float64(int(v)) {
			return 0, fmt.Errorf("lap time %q: fractional field %q", text, p)
		}
		total = total*60 + v
	}
	return total, nil
}
