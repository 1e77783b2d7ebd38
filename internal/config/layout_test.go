package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLayoutConfig_Example(t *testing.T) {
	layout, err := LoadLayoutConfig(filepath.Join("..", "..", "config", "layout.example.json"))
	require.NoError(t, err)

	assert.Len(t, layout.Channels, 3)
	assert.Equal(t, "lap_counter", layout.CounterRegion)
	assert.Equal(t, "minimap", layout.MapRegion)
	require.NotNil(t, layout.OriginX)
	assert.Equal(t, 140, *layout.OriginX)
	assert.Equal(t, []float64{0, 33.3, 66.6}, layout.Sectors)
	assert.Contains(t, layout.RegionNames(), "throttle")
}

func TestLayoutConfig_Validate(t *testing.T) {
	t.Parallel()

	base := func() *LayoutConfig {
		return &LayoutConfig{
			Regions: map[string]Rect{"bar": {X: 0, Y: 0, W: 100, H: 10}},
			Channels: []ChannelLayout{{
				ID: "throttle", Region: "bar", Mode: ModeLinearFill,
				Families: []HSVRange{{HueMin: 90, HueMax: 150, SatMax: 1, ValMax: 1}},
				RangeMin: 0, RangeMax: 100,
			}},
		}
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, base().Validate())
	})

	cases := map[string]func(l *LayoutConfig){
		"unknown region":   func(l *LayoutConfig) { l.Channels[0].Region = "nope" },
		"duplicate id":     func(l *LayoutConfig) { l.Channels = append(l.Channels, l.Channels[0]) },
		"unknown mode":     func(l *LayoutConfig) { l.Channels[0].Mode = "ocr" },
		"no families":      func(l *LayoutConfig) { l.Channels[0].Families = nil },
		"empty range":      func(l *LayoutConfig) { l.Channels[0].RangeMax = 0 },
		"bad orientation":  func(l *LayoutConfig) { l.Channels[0].Orientation = "diagonal" },
		"bad region size":  func(l *LayoutConfig) { l.Regions["bar"] = Rect{W: 0, H: 5} },
		"counter region":   func(l *LayoutConfig) { l.CounterRegion = "missing" },
		"map families":     func(l *LayoutConfig) { l.MapRegion = "bar" },
		"half origin":      func(l *LayoutConfig) { x := 3; l.OriginX = &x },
		"unsorted sectors": func(l *LayoutConfig) { l.Sectors = []float64{50, 10} },
		"sector range":     func(l *LayoutConfig) { l.Sectors = []float64{0, 100} },
	}
	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			l := base()
			mutate(l)
			assert.Error(t, l.Validate())
		})
	}
}

func TestLoadLayoutConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadLayoutConfig(filepath.Join(dir, "layout.txt"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"regions": 3}`), 0644))
	_, err = LoadLayoutConfig(bad)
	assert.Error(t, err)
}
