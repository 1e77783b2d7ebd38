// Package l1pixels owns Layer 1 (Pixels) of the HUD data model.
//
// Responsibilities: colour-family matching in HSV space, binary masks,
// square-element morphology (dilate, erode, intersect), 8-connected
// component labelling and outer-contour tracing.
// Key types: ColorFamily, Mask, Component.
//
// Dependency rule: L1 depends on nothing else in internal/hud.
// Every function here is pure; inputs are never retained or mutated.
package l1pixels
