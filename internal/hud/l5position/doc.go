// Package l5position owns Layer 5 (Position) of the HUD data model.
//
// Responsibilities: projecting the per-frame marker centroid onto the
// reference TrackPath and filtering the resulting progress percentage so
// single-frame detection errors never reach lap aggregation.
// Key types: Filter, BoundedRateFilter, KalmanFilter, Estimator, Estimate.
//
// Dependency rule: L5 may depend on L1-L4, but never on L6.
// Progress lives on a circle: 99.9% and 0.1% are 0.2% apart.
package l5position
