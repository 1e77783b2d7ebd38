package l3counter

import (
	"math"

	"github.com/banshee-data/lapdelta/internal/config"
)

// ResetPolicy decides what a forward jump of more than one means.
type ResetPolicy string

const (
	// ResetAccept treats a forward jump as a legitimate counter reset
	// (session restart, skipped laps) and reports EventReset.
	ResetAccept ResetPolicy = config.ResetPolicyAccept
	// ResetReject treats a forward jump as a misreading and drops it.
	ResetReject ResetPolicy = config.ResetPolicyReject
)

// Config controls consensus and transition validation.
type Config struct {
	HistorySize       int         // Raw readings kept in the rolling window (default: 15)
	ConsensusFraction float64     // Share of the window the majority must hold (default: 0.7)
	MinConsensus      int         // Absolute minimum support for the majority (default: 3)
	ResetPolicy       ResetPolicy // Handling of forward jumps > 1 (default: accept)
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file. Panics if the file cannot be found.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		HistorySize:       cfg.GetCounterHistorySize(),
		ConsensusFraction: cfg.GetCounterConsensusFraction(),
		MinConsensus:      cfg.GetCounterMinConsensus(),
		ResetPolicy:       ResetPolicy(cfg.GetCounterResetPolicy()),
	}
}

// Event describes what a Step did.
type Event int

const (
	EventNone        Event = iota // no consensus change, or idle
	EventInitialized              // first consensus value accepted
	EventAdvanced                 // accepted value increased by one
	EventReset                    // accepted a forward jump > 1
	EventRejected                 // consensus candidate failed validation
)

func (e Event) String() string {
	switch e {
	case EventInitialized:
		return "initialized"
	case EventAdvanced:
		return "advanced"
	case EventReset:
		return "reset"
	case EventRejected:
		return "rejected"
	default:
		return "none"
	}
}

// Transition reports whether the event moved the accepted value.
func (e Event) Transition() bool {
	return e == EventAdvanced || e == EventReset
}

// Reading is one raw counter observation. Present is false when the frame
// had no usable reading.
type Reading struct {
	Value   int
	Present bool
}

// State is the tracker state. The zero value is the Uninitialized state.
type State struct {
	Initialized bool
	Accepted    int
	History     []int
}

// Result is emitted for every frame.
type Result struct {
	Value int  // last accepted value; meaningless while !Valid
	Valid bool // false until the first consensus is reached
	Event Event
}

// Step advances s by one frame. It never mutates s.History in place, so
// previous states stay valid.
//
// Absent readings do not enter the window. The majority of the window is
// the candidate once its support reaches max(MinConsensus,
// ceil(ConsensusFraction*len(window))). From accepted value L a candidate
// C is accepted when C-L is 0 or 1; C-L > 1 follows the reset policy; C < L
// is always rejected.
func Step(cfg Config, s State, r Reading) (State, Result) {
	next := State{Initialized: s.Initialized, Accepted: s.Accepted, History: s.History}
	if r.Present {
		next.History = push(s.History, r.Value, cfg.HistorySize)
	}

	res := Result{Value: next.Accepted, Valid: next.Initialized}
	candidate, ok := consensus(next.History, cfg)
	if !ok {
		return next, res
	}

	if !next.Initialized {
		next.Initialized = true
		next.Accepted = candidate
		return next, Result{Value: candidate, Valid: true, Event: EventInitialized}
	}

	switch d := candidate - next.Accepted; {
	case d == 0:
		return next, res
	case d == 1:
		next.Accepted = candidate
		return next, Result{Value: candidate, Valid: true, Event: EventAdvanced}
	case d > 1 && cfg.ResetPolicy != ResetReject:
		next.Accepted = candidate
		return next, Result{Value: candidate, Valid: true, Event: EventReset}
	default:
		res.Event = EventRejected
		return next, res
	}
}

// push appends v to a copy of h, dropping the oldest entries beyond size.
func push(h []int, v, size int) []int {
	if size < 1 {
		size = 1
	}
	start := 0
	if len(h)+1 > size {
		start = len(h) + 1 - size
	}
	out := make([]int, 0, size)
	out = append(out, h[start:]...)
	return append(out, v)
}

// consensus returns the majority value of h if its support clears the
// threshold. Ties go to the most recently seen value.
func consensus(h []int, cfg Config) (int, bool) {
	if len(h) == 0 {
		return 0, false
	}
	counts := make(map[int]int, 4)
	best, bestCount := 0, 0
	for i := len(h) - 1; i >= 0; i-- {
		v := h[i]
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	need := int(math.Ceil(cfg.ConsensusFraction*float64(len(h)) - 1e-9))
	if need < cfg.MinConsensus {
		need = cfg.MinConsensus
	}
	return best, bestCount >= need
}
