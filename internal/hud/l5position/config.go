package l5position

import (
	"fmt"

	"github.com/banshee-data/lapdelta/internal/config"
)

// Config selects and parameterises the position filter.
type Config struct {
	Filter           string  // "bounded" or "kalman" (default: bounded)
	MaxJumpPercent   float64 // Largest accepted per-frame change (default: 1.0)
	ReacquireFrames  int     // Consistent rejections before re-locking; 0 disables (default: 8)
	ProcessNoise     float64 // Kalman process noise per frame (default: 0.01)
	MeasurementNoise float64 // Kalman measurement variance in %² (default: 0.25)
	GateSigma        float64 // Kalman innovation gate in standard deviations (default: 3.0)
}

// DefaultConfig returns a Config loaded from the canonical tuning defaults
// file. Panics if the file cannot be found.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Filter:           cfg.GetPositionFilter(),
		MaxJumpPercent:   cfg.GetPositionMaxJumpPercent(),
		ReacquireFrames:  cfg.GetPositionReacquireFrames(),
		ProcessNoise:     cfg.GetKalmanProcessNoise(),
		MeasurementNoise: cfg.GetKalmanMeasurementNoise(),
		GateSigma:        cfg.GetKalmanGateSigma(),
	}
}

// NewFilter builds the filter named by cfg.Filter.
func NewFilter(cfg Config) (Filter, error) {
	switch cfg.Filter {
	case "", config.PositionFilterBounded:
		return NewBoundedRateFilter(cfg.MaxJumpPercent, cfg.ReacquireFrames), nil
	case config.PositionFilterKalman:
		return NewKalmanFilter(cfg.ProcessNoise, cfg.MeasurementNoise, cfg.GateSigma, cfg.ReacquireFrames), nil
	default:
		return nil, fmt.Errorf("unknown position filter %q", cfg.Filter)
	}
}
