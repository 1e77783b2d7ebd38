// Package l3counter owns Layer 3 (Counter) of the HUD data model.
//
// Responsibilities: turning noisy per-frame lap-counter readings into a
// validated, non-decreasing sequence using a rolling consensus window.
// Key types: State, Result, Tracker.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
// Step is a pure function; all mutable state lives in a caller-owned State
// or Tracker value.
package l3counter
