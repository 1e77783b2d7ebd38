package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Counter reset policies accepted by counter_reset_policy.
const (
	ResetPolicyAccept = "accept"
	ResetPolicyReject = "reject"
)

// Position filters accepted by position_filter.
const (
	PositionFilterBounded = "bounded"
	PositionFilterKalman  = "kalman"
)

// TuningConfig represents the root configuration for tuning parameters.
// Every field is optional; the Get* accessors supply the default for any
// field left out of the JSON file.
type TuningConfig struct {
	// Signal extraction
	FillMinPixels  *int     `json:"fill_min_pixels,omitempty"`
	FillEdgeMargin *float64 `json:"fill_edge_margin,omitempty"`

	// Discrete counter
	CounterHistorySize       *int     `json:"counter_history_size,omitempty"`
	CounterConsensusFraction *float64 `json:"counter_consensus_fraction,omitempty"`
	CounterMinConsensus      *int     `json:"counter_min_consensus,omitempty"`
	CounterResetPolicy       *string  `json:"counter_reset_policy,omitempty"`

	// Reference path extraction
	PathVoteFraction *float64 `json:"path_vote_fraction,omitempty"`
	PathDilateRadius *int     `json:"path_dilate_radius,omitempty"`
	PathMinSamples   *int     `json:"path_min_samples,omitempty"`

	// Position estimation
	PositionFilter          *string  `json:"position_filter,omitempty"`
	PositionMaxJumpPercent  *float64 `json:"position_max_jump_percent,omitempty"`
	PositionReacquireFrames *int     `json:"position_reacquire_frames,omitempty"`
	KalmanProcessNoise      *float64 `json:"kalman_process_noise,omitempty"`
	KalmanMeasurementNoise  *float64 `json:"kalman_measurement_noise,omitempty"`
	KalmanGateSigma         *float64 `json:"kalman_gate_sigma,omitempty"`

	// Lap alignment
	GridStepPercent *float64 `json:"grid_step_percent,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// with its default value.
func DefaultTuningConfig() *TuningConfig {
	e := EmptyTuningConfig()
	return &TuningConfig{
		FillMinPixels:            ptrInt(e.GetFillMinPixels()),
		FillEdgeMargin:           ptrFloat64(e.GetFillEdgeMargin()),
		CounterHistorySize:       ptrInt(e.GetCounterHistorySize()),
		CounterConsensusFraction: ptrFloat64(e.GetCounterConsensusFraction()),
		CounterMinConsensus:      ptrInt(e.GetCounterMinConsensus()),
		CounterResetPolicy:       ptrString(e.GetCounterResetPolicy()),
		PathVoteFraction:         ptrFloat64(e.GetPathVoteFraction()),
		PathDilateRadius:         ptrInt(e.GetPathDilateRadius()),
		PathMinSamples:           ptrInt(e.GetPathMinSamples()),
		PositionFilter:           ptrString(e.GetPositionFilter()),
		PositionMaxJumpPercent:   ptrFloat64(e.GetPositionMaxJumpPercent()),
		PositionReacquireFrames:  ptrInt(e.GetPositionReacquireFrames()),
		KalmanProcessNoise:       ptrFloat64(e.GetKalmanProcessNoise()),
		KalmanMeasurementNoise:   ptrFloat64(e.GetKalmanMeasurementNoise()),
		KalmanGateSigma:          ptrFloat64(e.GetKalmanGateSigma()),
		GridStepPercent:          ptrFloat64(e.GetGridStepPercent()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/hud/l2signals/
		"../../../../" + DefaultConfigPath,    // from internal/hud/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.FillMinPixels != nil && *c.FillMinPixels < 0 {
		return fmt.Errorf("fill_min_pixels must be non-negative, got %d", *c.FillMinPixels)
	}
	if c.FillEdgeMargin != nil {
		if *c.FillEdgeMargin < 0 || *c.FillEdgeMargin >= 0.5 {
			return fmt.Errorf("fill_edge_margin must be in [0, 0.5), got %f", *c.FillEdgeMargin)
		}
	}

	if c.CounterHistorySize != nil && *c.CounterHistorySize < 1 {
		return fmt.Errorf("counter_history_size must be at least 1, got %d", *c.CounterHistorySize)
	}
	if c.CounterConsensusFraction != nil {
		if *c.CounterConsensusFraction <= 0 || *c.CounterConsensusFraction > 1 {
			return fmt.Errorf("counter_consensus_fraction must be in (0, 1], got %f", *c.CounterConsensusFraction)
		}
	}
	if c.CounterMinConsensus != nil && *c.CounterMinConsensus < 1 {
		return fmt.Errorf("counter_min_consensus must be at least 1, got %d", *c.CounterMinConsensus)
	}
	if c.CounterResetPolicy != nil {
		switch *c.CounterResetPolicy {
		case ResetPolicyAccept, ResetPolicyReject:
		default:
			return fmt.Errorf("counter_reset_policy must be %q or %q, got %q",
				ResetPolicyAccept, ResetPolicyReject, *c.CounterResetPolicy)
		}
	}

	if c.PathVoteFraction != nil {
		if *c.PathVoteFraction <= 0 || *c.PathVoteFraction > 1 {
			return fmt.Errorf("path_vote_fraction must be in (0, 1], got %f", *c.PathVoteFraction)
		}
	}
	if c.PathDilateRadius != nil && *c.PathDilateRadius < 0 {
		return fmt.Errorf("path_dilate_radius must be non-negative, got %d", *c.PathDilateRadius)
	}
	if c.PathMinSamples != nil && *c.PathMinSamples < 1 {
		return fmt.Errorf("path_min_samples must be at least 1, got %d", *c.PathMinSamples)
	}

	if c.PositionFilter != nil {
		switch *c.PositionFilter {
		case PositionFilterBounded, PositionFilterKalman:
		default:
			return fmt.Errorf("position_filter must be %q or %q, got %q",
				PositionFilterBounded, PositionFilterKalman, *c.PositionFilter)
		}
	}
	if c.PositionMaxJumpPercent != nil {
		if *c.PositionMaxJumpPercent <= 0 || *c.PositionMaxJumpPercent >= 50 {
			return fmt.Errorf("position_max_jump_percent must be in (0, 50), got %f", *c.PositionMaxJumpPercent)
		}
	}
	if c.PositionReacquireFrames != nil && *c.PositionReacquireFrames < 0 {
		return fmt.Errorf("position_reacquire_frames must be non-negative, got %d", *c.PositionReacquireFrames)
	}
	if c.KalmanMeasurementNoise != nil && *c.KalmanMeasurementNoise <= 0 {
		return fmt.Errorf("kalman_measurement_noise must be positive, got %f", *c.KalmanMeasurementNoise)
	}
	if c.KalmanProcessNoise != nil && *c.KalmanProcessNoise < 0 {
		return fmt.Errorf("kalman_process_noise must be non-negative, got %f", *c.KalmanProcessNoise)
	}
	if c.KalmanGateSigma != nil && *c.KalmanGateSigma <= 0 {
		return fmt.Errorf("kalman_gate_sigma must be positive, got %f", *c.KalmanGateSigma)
	}

	if c.GridStepPercent != nil {
		if *c.GridStepPercent <= 0 || *c.GridStepPercent > 50 {
			return fmt.Errorf("grid_step_percent must be in (0, 50], got %f", *c.GridStepPercent)
		}
	}

	return nil
}

// GetFillMinPixels returns the fill_min_pixels value or the default.
func (c *TuningConfig) GetFillMinPixels() int {
	if c.FillMinPixels == nil {
		return 40
	}
	return *c.FillMinPixels
}

// GetFillEdgeMargin returns the fill_edge_margin value or the default.
func (c *TuningConfig) GetFillEdgeMargin() float64 {
	if c.FillEdgeMargin == nil {
		return 0.15
	}
	return *c.FillEdgeMargin
}

// GetCounterHistorySize returns the counter_history_size value or the default.
func (c *TuningConfig) GetCounterHistorySize() int {
	if c.CounterHistorySize == nil {
		return 15
	}
	return *c.CounterHistorySize
}

// GetCounterConsensusFraction returns the counter_consensus_fraction value or the default.
func (c *TuningConfig) GetCounterConsensusFraction() float64 {
	if c.CounterConsensusFraction == nil {
		return 0.7
	}
	return *c.CounterConsensusFraction
}

// GetCounterMinConsensus returns the counter_min_consensus value or the default.
func (c *TuningConfig) GetCounterMinConsensus() int {
	if c.CounterMinConsensus == nil {
		return 3
	}
	return *c.CounterMinConsensus
}

// GetCounterResetPolicy returns the counter_reset_policy value or the default.
func (c *TuningConfig) GetCounterResetPolicy() string {
	if c.CounterResetPolicy == nil || *c.CounterResetPolicy == "" {
		return ResetPolicyAccept
	}
	return *c.CounterResetPolicy
}

// GetPathVoteFraction returns the path_vote_fraction value or the default.
func (c *TuningConfig) GetPathVoteFraction() float64 {
	if c.PathVoteFraction == nil {
		return 0.45
	}
	return *c.PathVoteFraction
}

// GetPathDilateRadius returns the path_dilate_radius value or the default.
func (c *TuningConfig) GetPathDilateRadius() int {
	if c.PathDilateRadius == nil {
		return 2
	}
	return *c.PathDilateRadius
}

// GetPathMinSamples returns the path_min_samples value or the default.
func (c *TuningConfig) GetPathMinSamples() int {
	if c.PathMinSamples == nil {
		return 30
	}
	return *c.PathMinSamples
}

// GetPositionFilter returns the position_filter value or the default.
func (c *TuningConfig) GetPositionFilter() string {
	if c.PositionFilter == nil || *c.PositionFilter == "" {
		return PositionFilterBounded
	}
	return *c.PositionFilter
}

// GetPositionMaxJumpPercent returns the position_max_jump_percent value or the default.
func (c *TuningConfig) GetPositionMaxJumpPercent() float64 {
	if c.PositionMaxJumpPercent == nil {
		return 1.0
	}
	return *c.PositionMaxJumpPercent
}

// GetPositionReacquireFrames returns the position_reacquire_frames value or the default.
func (c *TuningConfig) GetPositionReacquireFrames() int {
	if c.PositionReacquireFrames == nil {
		return 8
	}
	return *c.PositionReacquireFrames
}

// GetKalmanProcessNoise returns the kalman_process_noise value or the default.
func (c *TuningConfig) GetKalmanProcessNoise() float64 {
	if c.KalmanProcessNoise == nil {
		return 0.01
	}
	return *c.KalmanProcessNoise
}

// GetKalmanMeasurementNoise returns the kalman_measurement_noise value or the default.
func (c *TuningConfig) GetKalmanMeasurementNoise() float64 {
	if c.KalmanMeasurementNoise == nil {
		return 0.25
	}
	return *c.KalmanMeasurementNoise
}

// GetKalmanGateSigma returns the kalman_gate_sigma value or the default.
func (c *TuningConfig) GetKalmanGateSigma() float64 {
	if c.KalmanGateSigma == nil {
		return 3.0
	}
	return *c.KalmanGateSigma
}

// GetGridStepPercent returns the grid_step_percent value or the default.
func (c *TuningConfig) GetGridStepPercent() float64 {
	if c.GridStepPercent == nil {
		return 0.5
	}
	return *c.GridStepPercent
}
