// Package pipeline wires the HUD layers into one ordered pass over a frame
// stream. It is the only package that imports every layer.
//
// A Session extracts the configured channels, tracks the lap counter,
// estimates track position against a reference path prepared once up
// front, and cuts the result into laps. Frame decoding, text recognition
// and persistence are supplied by the caller through small interfaces.
package pipeline
