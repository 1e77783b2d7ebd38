// Package l6laps owns Layer 6 (Laps) of the HUD data model.
//
// Responsibilities: cutting the per-frame stream into LapRecords at counter
// transitions, resampling laps onto a common position grid, and computing
// position-indexed time deltas and sector times.
// Key types: Builder, LapRecord, AlignedComparison, Series.
//
// Dependency rule: L6 may depend on L1-L5.
// No SQL/database code is allowed in this package.
package l6laps
