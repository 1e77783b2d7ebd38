package l4path

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/hud/l1pixels"
)

// Config controls path extraction.
type Config struct {
	VoteFraction float64 // Share of samples a pixel must be on in (default: 0.45)
	DilateRadius int     // Square element radius for the cleaning step (default: 2)
	MinSamples   int     // Samples required before voting is trusted (default: 30)

	// Families matches the reference curve colour.
	Families []l1pixels.ColorFamily

	// Origin, in map-region pixels, marks the start/finish line. When nil
	// the first traced pixel is the origin.
	Origin *r2.Vec
	// Reverse flips the travel direction from clockwise to anticlockwise.
	Reverse bool
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file. Panics if the file cannot be found.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig. Families,
// Origin and Reverse come from the layout and are left for the caller.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		VoteFraction: cfg.GetPathVoteFraction(),
		DilateRadius: cfg.GetPathDilateRadius(),
		MinSamples:   cfg.GetPathMinSamples(),
	}
}
