package l1pixels

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestRGBToHSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v float64
	}{
		{"red", 255, 0, 0, 0, 1, 1},
		{"green", 0, 255, 0, 120, 1, 1},
		{"blue", 0, 0, 255, 240, 1, 1},
		{"magenta", 255, 0, 255, 300, 1, 1},
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 1},
	}
	for _, tt := range tests {
		h, s, v := RGBToHSV(tt.r, tt.g, tt.b)
		if math.Abs(h-tt.h) > 1e-9 || math.Abs(s-tt.s) > 1e-9 || math.Abs(v-tt.v) > 1e-9 {
			t.Errorf("%s: RGBToHSV = (%g, %g, %g), want (%g, %g, %g)", tt.name, h, s, v, tt.h, tt.s, tt.v)
		}
	}
}

func TestColorFamily_HueWrap(t *testing.T) {
	t.Parallel()

	red := ColorFamily{Name: "red", HueMin: 340, HueMax: 20, SatMin: 0.4, SatMax: 1, ValMin: 0.4, ValMax: 1}
	if !red.Matches(350, 0.9, 0.9) || !red.Matches(10, 0.9, 0.9) {
		t.Error("wrapped hue range should match both sides of 0")
	}
	if red.Matches(180, 0.9, 0.9) {
		t.Error("cyan should not match a red family")
	}
	if red.Matches(0, 0.1, 0.9) {
		t.Error("desaturated pixel should not match")
	}
	if !red.MatchesRGB(230, 20, 20) {
		t.Error("MatchesRGB should accept a saturated red")
	}
}

func TestMatchMask_UnionAndOffset(t *testing.T) {
	t.Parallel()

	// Sub-image with non-zero origin: mask coordinates must be local.
	img := image.NewRGBA(image.Rect(10, 5, 20, 8))
	for x := 10; x < 20; x++ {
		for y := 5; y < 8; y++ {
			img.Set(x, y, color.RGBA{0, 0, 0, 255})
		}
	}
	img.Set(10, 5, color.RGBA{0, 220, 0, 255}) // green
	img.Set(11, 5, color.RGBA{230, 210, 0, 255}) // yellow
	img.Set(19, 7, color.RGBA{0, 0, 220, 255}) // blue, unmatched

	green := ColorFamily{HueMin: 90, HueMax: 150, SatMin: 0.4, SatMax: 1, ValMin: 0.4, ValMax: 1}
	yellow := ColorFamily{HueMin: 40, HueMax: 70, SatMin: 0.4, SatMax: 1, ValMin: 0.4, ValMax: 1}

	m := MatchMask(img, green, yellow)
	if m.Width != 10 || m.Height != 3 {
		t.Fatalf("mask size = %dx%d, want 10x3", m.Width, m.Height)
	}
	if !m.At(0, 0) || !m.At(1, 0) {
		t.Error("expected both families to contribute to the union")
	}
	if m.At(9, 2) {
		t.Error("unmatched colour should not be set")
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}

	if MatchMask(img).Count() != 0 {
		t.Error("no families should yield an empty mask")
	}
	if MatchMask(nil, green).Count() != 0 {
		t.Error("nil image should yield an empty mask")
	}
}

func TestMatchMask_NonRGBAImage(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{0, 200, 0, 255})
	green := ColorFamily{HueMin: 90, HueMax: 150, SatMin: 0.4, SatMax: 1, ValMin: 0.4, ValMax: 1}

	m := MatchMask(img, green)
	if !m.At(0, 0) || m.At(1, 0) {
		t.Errorf("unexpected mask %v", m.Points())
	}
}
