package l2signals

import (
	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/hud/l1pixels"
)

// Config holds the extraction thresholds shared by every channel.
type Config struct {
	MinPixels  int     // Matched pixels required for a valid linear-fill reading (default: 40)
	EdgeMargin float64 // Fraction of lines skipped at each edge of the cross axis (default: 0.15)
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file. Panics if the file cannot be found.
func DefaultConfig() *Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) *Config {
	return &Config{
		MinPixels:  cfg.GetFillMinPixels(),
		EdgeMargin: cfg.GetFillEdgeMargin(),
	}
}

// Families converts layout colour ranges into matcher families.
func Families(ranges []config.HSVRange) []l1pixels.ColorFamily {
	out := make([]l1pixels.ColorFamily, len(ranges))
	for i, r := range ranges {
		out[i] = l1pixels.ColorFamily{
			Name:   r.Name,
			HueMin: r.HueMin,
			HueMax: r.HueMax,
			SatMin: r.SatMin,
			SatMax: r.SatMax,
			ValMin: r.ValMin,
			ValMax: r.ValMax,
		}
	}
	return out
}

// SpecFromLayout builds a ChannelSpec from its layout entry. A per-channel
// min_pixels overrides cfg.MinPixels.
func SpecFromLayout(ch config.ChannelLayout, cfg *Config) ChannelSpec {
	spec := ChannelSpec{
		ID:          ch.ID,
		Mode:        Mode(ch.Mode),
		Orientation: Horizontal,
		Families:    Families(ch.Families),
		MinPixels:   cfg.MinPixels,
		EdgeMargin:  cfg.EdgeMargin,
		Range:       Range{Min: ch.RangeMin, Max: ch.RangeMax},
	}
	if ch.Orientation == string(Vertical) {
		spec.Orientation = Vertical
	}
	if ch.MinPixels != nil {
		spec.MinPixels = *ch.MinPixels
	}
	return spec
}
