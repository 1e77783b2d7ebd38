package l3counter

import "github.com/banshee-data/lapdelta/internal/monitoring"

var logf = monitoring.Prefixed("counter")

// Tracker owns one counter's State and its diagnostic counts. It is not
// safe for concurrent use; each session owns its own Tracker.
type Tracker struct {
	cfg      Config
	state    State
	rejected int64
	resets   int64
}

// NewTracker returns a Tracker in the Uninitialized state.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Observe feeds one raw reading and returns the emitted value.
func (t *Tracker) Observe(r Reading) Result {
	prev := t.state.Accepted
	var res Result
	t.state, res = Step(t.cfg, t.state, r)

	switch res.Event {
	case EventRejected:
		t.rejected++
	case EventReset:
		t.resets++
		logf("accepted counter jump %d -> %d as reset", prev, res.Value)
	}
	return res
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	s := t.state
	s.History = append([]int(nil), t.state.History...)
	return s
}

// Value returns the last accepted value and whether one exists.
func (t *Tracker) Value() (int, bool) {
	return t.state.Accepted, t.state.Initialized
}

// Rejected returns how many frames produced a rejected candidate.
func (t *Tracker) Rejected() int64 { return t.rejected }

// Resets returns how many forward jumps were accepted as resets.
func (t *Tracker) Resets() int64 { return t.resets }
