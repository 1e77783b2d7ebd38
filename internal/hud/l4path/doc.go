// Package l4path owns Layer 4 (Path) of the HUD data model.
//
// Responsibilities: building the reference track path once per session by
// frequency voting over many minimap samples, cleaning the voted mask, and
// tracing it into an arc-length indexed TrackPath.
// Key types: Voter, TrackPath.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
// A TrackPath is immutable after construction and safe for concurrent reads.
package l4path
