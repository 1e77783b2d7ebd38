// Package l2signals owns Layer 2 (Signals) of the HUD data model.
//
// Responsibilities: turning one cropped pixel region into a scalar or point
// reading (linear-fill bars, point-position indicators) and locating the
// minimap marker.
// Key types: ChannelSpec, Reading.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
// Extraction never fails; an unusable region yields Valid=false.
package l2signals
