package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Channel extraction modes accepted by ChannelLayout.Mode.
const (
	ModeLinearFill    = "linear-fill"
	ModePointPosition = "point-position"
)

// Rect is a region of interest in frame pixel coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// HSVRange describes one colour family. Hue is in degrees [0,360); a range
// with HueMin > HueMax wraps through 0 (reds). Saturation and value are [0,1].
type HSVRange struct {
	Name   string  `json:"name"`
	HueMin float64 `json:"hue_min"`
	HueMax float64 `json:"hue_max"`
	SatMin float64 `json:"sat_min"`
	SatMax float64 `json:"sat_max"`
	ValMin float64 `json:"val_min"`
	ValMax float64 `json:"val_max"`
}

// ChannelLayout binds a named region to one extracted channel.
type ChannelLayout struct {
	ID          string     `json:"id"`
	Region      string     `json:"region"`
	Mode        string     `json:"mode"`
	Orientation string     `json:"orientation"` // horizontal, vertical
	Families    []HSVRange `json:"families"`
	RangeMin    float64    `json:"range_min"`
	RangeMax    float64    `json:"range_max"`
	MinPixels   *int       `json:"min_pixels,omitempty"`
}

// LayoutConfig describes where each readout lives on screen. Layouts are
// authored by hand per game/overlay; nothing here is discovered.
type LayoutConfig struct {
	Regions  map[string]Rect `json:"regions"`
	Channels []ChannelLayout `json:"channels"`

	CounterRegion string `json:"counter_region"`
	LapTimeRegion string `json:"lap_time_region,omitempty"`

	MapRegion       string     `json:"map_region"`
	CurveFamilies   []HSVRange `json:"curve_families"`
	MarkerFamilies  []HSVRange `json:"marker_families"`
	MarkerMinPixels int        `json:"marker_min_pixels"`
	OriginX         *int       `json:"origin_x,omitempty"`
	OriginY         *int       `json:"origin_y,omitempty"`
	Reverse         bool       `json:"reverse"`

	// Sectors holds sector start positions in percent, e.g. [0, 33.3, 66.6].
	Sectors []float64 `json:"sectors,omitempty"`
}

// LoadLayoutConfig reads and validates a layout JSON file.
func LoadLayoutConfig(path string) (*LayoutConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("layout file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	var layout LayoutConfig
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout JSON: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return &layout, nil
}

// Validate checks that every referenced region exists and every channel is well formed.
func (l *LayoutConfig) Validate() error {
	for name, r := range l.Regions {
		if r.W <= 0 || r.H <= 0 || r.X < 0 || r.Y < 0 {
			return fmt.Errorf("region %q has invalid bounds %+v", name, r)
		}
	}

	seen := make(map[string]bool, len(l.Channels))
	for _, ch := range l.Channels {
		if ch.ID == "" {
			return fmt.Errorf("channel with region %q has no id", ch.Region)
		}
		if seen[ch.ID] {
			return fmt.Errorf("duplicate channel id %q", ch.ID)
		}
		seen[ch.ID] = true
		if _, ok := l.Regions[ch.Region]; !ok {
			return fmt.Errorf("channel %q references unknown region %q", ch.ID, ch.Region)
		}
		switch ch.Mode {
		case ModeLinearFill, ModePointPosition:
		default:
			return fmt.Errorf("channel %q has unknown mode %q", ch.ID, ch.Mode)
		}
		switch ch.Orientation {
		case "", "horizontal", "vertical":
		default:
			return fmt.Errorf("channel %q has unknown orientation %q", ch.ID, ch.Orientation)
		}
		if len(ch.Families) == 0 {
			return fmt.Errorf("channel %q has no colour families", ch.ID)
		}
		if ch.RangeMax <= ch.RangeMin {
			return fmt.Errorf("channel %q range [%g, %g] is empty", ch.ID, ch.RangeMin, ch.RangeMax)
		}
	}

	for _, name := range []string{l.CounterRegion, l.LapTimeRegion, l.MapRegion} {
		if name == "" {
			continue
		}
		if _, ok := l.Regions[name]; !ok {
			return fmt.Errorf("unknown region %q", name)
		}
	}
	if l.MapRegion != "" && (len(l.CurveFamilies) == 0 || len(l.MarkerFamilies) == 0) {
		return fmt.Errorf("map region %q needs curve_families and marker_families", l.MapRegion)
	}
	if (l.OriginX == nil) != (l.OriginY == nil) {
		return fmt.Errorf("origin_x and origin_y must be set together")
	}

	for _, s := range l.Sectors {
		if s < 0 || s >= 100 {
			return fmt.Errorf("sector start %g outside [0, 100)", s)
		}
	}
	if !sort.Float64sAreSorted(l.Sectors) {
		return fmt.Errorf("sector starts must be ascending")
	}
	return nil
}

// RegionNames returns the sorted names of all configured regions.
func (l *LayoutConfig) RegionNames() []string {
	names := make([]string, 0, len(l.Regions))
	for name := range l.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
