package l6laps

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/lapdelta/internal/config"
)

var (
	// ErrInsufficientLaps is returned when fewer than two laps are aligned.
	ErrInsufficientLaps = errors.New("at least two laps are required")
	// ErrUnknownLap is returned for a lap id that is not in the comparison.
	ErrUnknownLap = errors.New("unknown lap")
)

// Series is a grid-aligned value array. Present[i] is false where the lap
// has no coverage; Values[i] is then meaningless.
type Series struct {
	Values  []float64 `json:"values"`
	Present []bool    `json:"present"`
}

func newSeries(n int) Series {
	return Series{Values: make([]float64, n), Present: make([]bool, n)}
}

// At returns the value at i and whether it is present.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s.Values) || !s.Present[i] {
		return 0, false
	}
	return s.Values[i], true
}

// Missing returns the number of grid points without a value.
func (s Series) Missing() int {
	n := 0
	for _, p := range s.Present {
		if !p {
			n++
		}
	}
	return n
}

// AlignedLap is one lap resampled onto the comparison grid.
type AlignedLap struct {
	ID       int               `json:"id"`
	Complete bool              `json:"complete"`
	LapTime  float64           `json:"lap_time"`
	Time     Series            `json:"time"` // seconds since the lap's first sample
	Channels map[string]Series `json:"channels"`
}

// AlignedComparison holds two or more laps on a common position grid. It
// is never mutated after Align returns.
type AlignedComparison struct {
	Grid        []float64    `json:"grid"`
	Laps        []AlignedLap `json:"laps"`
	ReferenceID int          `json:"reference_id"`
}

// AlignConfig controls alignment.
type AlignConfig struct {
	GridStep float64 // percent between grid points (default: 0.5)
	// Reference selects the lap deltas are measured against. When nil the
	// fastest complete lap is used, or the first lap if none is complete.
	Reference *int
}

// AlignConfigFromTuning builds an AlignConfig from a loaded TuningConfig.
func AlignConfigFromTuning(cfg *config.TuningConfig) AlignConfig {
	return AlignConfig{GridStep: cfg.GetGridStepPercent()}
}

// NewGrid returns evenly spaced positions from 0 to 100 inclusive. A step
// that does not divide 100 is rounded to the nearest one that does.
func NewGrid(step float64) []float64 {
	if !(step > 0) || step > 100 {
		step = 0.5
	}
	n := int(math.Round(100 / step))
	if n < 1 {
		n = 1
	}
	return floats.Span(make([]float64, n+1), 0, 100)
}

// Align resamples laps onto a common grid. Lap ids must be unique.
func Align(laps []LapRecord, cfg AlignConfig) (*AlignedComparison, error) {
	if len(laps) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientLaps, len(laps))
	}
	seen := make(map[int]bool, len(laps))
	for _, l := range laps {
		if seen[l.ID] {
			return nil, fmt.Errorf("duplicate lap id %d", l.ID)
		}
		seen[l.ID] = true
	}

	c := &AlignedComparison{Grid: NewGrid(cfg.GridStep)}
	for _, l := range laps {
		c.Laps = append(c.Laps, Resample(l, c.Grid))
	}

	switch {
	case cfg.Reference != nil:
		if !seen[*cfg.Reference] {
			return nil, fmt.Errorf("%w: reference %d", ErrUnknownLap, *cfg.Reference)
		}
		c.ReferenceID = *cfg.Reference
	default:
		c.ReferenceID = fastest(c.Laps)
	}
	return c, nil
}

func fastest(laps []AlignedLap) int {
	best := -1
	for i, l := range laps {
		if !l.Complete || l.LapTime <= 0 {
			continue
		}
		if best < 0 || l.LapTime < laps[best].LapTime {
			best = i
		}
	}
	if best < 0 {
		return laps[0].ID
	}
	return laps[best].ID
}

// Resample interpolates the lap's relative time and every channel at the
// given positions. Relative time counts from the start line crossing when
// it is known, which also anchors 0% at zero. Positions outside a series' observed coverage are
// marked missing; positions must be ascending.
func Resample(lap LapRecord, positions []float64) AlignedLap {
	samples := lap.prepared()
	out := AlignedLap{
		ID:       lap.ID,
		Complete: lap.Complete,
		LapTime:  lap.LapTime(),
		Time:     newSeries(len(positions)),
		Channels: make(map[string]Series),
	}
	if len(samples) == 0 {
		return out
	}

	t0 := samples[0].Timestamp
	xs := make([]float64, 0, len(samples)+1)
	ts := make([]float64, 0, len(samples)+1)
	if st, ok := lap.startTime(); ok {
		t0 = st
		if samples[0].Position > 0 {
			xs = append(xs, 0)
			ts = append(ts, 0)
		}
	}
	for _, s := range samples {
		xs = append(xs, s.Position)
		ts = append(ts, s.Timestamp-t0)
	}
	out.Time = interpolate(xs, ts, positions)

	for _, name := range lap.ChannelNames() {
		var cx, cy []float64
		for _, s := range samples {
			if v, ok := s.Channels[name]; ok {
				cx = append(cx, s.Position)
				cy = append(cy, v)
			}
		}
		out.Channels[name] = interpolate(cx, cy, positions)
	}
	return out
}

// interpolate fits a piecewise-linear curve through (xs, ys) and evaluates
// it at positions inside [xs[0], xs[n-1]].
func interpolate(xs, ys, positions []float64) Series {
	s := newSeries(len(positions))
	switch len(xs) {
	case 0:
		return s
	case 1:
		for i, p := range positions {
			if p == xs[0] {
				s.Values[i], s.Present[i] = ys[0], true
			}
		}
		return s
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return s
	}
	lo, hi := xs[0], xs[len(xs)-1]
	start := sort.SearchFloat64s(positions, lo)
	for i := start; i < len(positions) && positions[i] <= hi; i++ {
		s.Values[i] = pl.Predict(positions[i])
		s.Present[i] = true
	}
	return s
}

// Lap returns the aligned lap with the given id.
func (c *AlignedComparison) Lap(id int) (*AlignedLap, error) {
	for i := range c.Laps {
		if c.Laps[i].ID == id {
			return &c.Laps[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownLap, id)
}

// Delta returns relative_time(a) - relative_time(b) at every grid point.
// Negative values mean lap a is ahead there. Points where either lap lacks
// coverage are missing.
func (c *AlignedComparison) Delta(a, b int) (Series, error) {
	la, err := c.Lap(a)
	if err != nil {
		return Series{}, err
	}
	lb, err := c.Lap(b)
	if err != nil {
		return Series{}, err
	}
	d := newSeries(len(c.Grid))
	for i := range c.Grid {
		ta, okA := la.Time.At(i)
		tb, okB := lb.Time.At(i)
		if okA && okB {
			d.Values[i], d.Present[i] = ta-tb, true
		}
	}
	return d, nil
}

// DeltasToReference returns Delta(id, ReferenceID) for every other lap.
func (c *AlignedComparison) DeltasToReference() (map[int]Series, error) {
	out := make(map[int]Series, len(c.Laps)-1)
	for _, l := range c.Laps {
		if l.ID == c.ReferenceID {
			continue
		}
		d, err := c.Delta(l.ID, c.ReferenceID)
		if err != nil {
			return nil, err
		}
		out[l.ID] = d
	}
	return out, nil
}

// Gaps returns the number of grid points, across all laps, where a lap has
// no time coverage.
func (c *AlignedComparison) Gaps() int {
	n := 0
	for _, l := range c.Laps {
		n += l.Time.Missing()
	}
	return n
}

// TimeAt interpolates a lap's relative time at an arbitrary position
// between grid points.
func (c *AlignedComparison) TimeAt(id int, position float64) (float64, bool) {
	l, err := c.Lap(id)
	if err != nil || len(c.Grid) == 0 {
		return 0, false
	}
	i := sort.SearchFloat64s(c.Grid, position)
	if i < len(c.Grid) && c.Grid[i] == position {
		return l.Time.At(i)
	}
	if i == 0 || i >= len(c.Grid) {
		return 0, false
	}
	t0, ok0 := l.Time.At(i - 1)
	t1, ok1 := l.Time.At(i)
	if !ok0 || !ok1 {
		return 0, false
	}
	f := (position - c.Grid[i-1]) / (c.Grid[i] - c.Grid[i-1])
	return t0 + f*(t1-t0), true
}

// SectorTimes splits a lap at the given sector start positions (ascending,
// in percent) and returns the time spent in each sector. The last sector
// ends at the finish line, which is only known for complete laps.
func (c *AlignedComparison) SectorTimes(id int, starts []float64) (Series, error) {
	l, err := c.Lap(id)
	if err != nil {
		return Series{}, err
	}
	s := newSeries(len(starts))
	for k, start := range starts {
		t0, ok0 := c.TimeAt(id, start)
		var t1 float64
		var ok1 bool
		if k+1 < len(starts) {
			t1, ok1 = c.TimeAt(id, starts[k+1])
		} else if l.Complete {
			t1, ok1 = l.LapTime, true
		}
		if ok0 && ok1 && t1 >= t0 {
			s.Values[k], s.Present[k] = t1-t0, true
		}
	}
	return s, nil
}
