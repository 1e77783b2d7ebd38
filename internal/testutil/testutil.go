// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files: error assertions and synthetic HUD frames (bars,
// rings, markers) drawn into *image.RGBA.
package testutil

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// Palette used by the synthetic fixtures. Each colour sits well inside one
// HSV family so tests do not depend on threshold edges.
var (
	Black  = color.RGBA{0, 0, 0, 255}
	Grey   = color.RGBA{60, 60, 60, 255}
	White  = color.RGBA{240, 240, 240, 255}
	Green  = color.RGBA{20, 210, 40, 255}
	Yellow = color.RGBA{230, 210, 0, 255}
	Red    = color.RGBA{220, 20, 20, 255}
	Blue   = color.RGBA{30, 140, 230, 255}
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta fails the test if got and want differ by more than delta.
func AssertInDelta(t *testing.T, got, want, delta float64) {
	t.Helper()
	if math.Abs(got-want) > delta {
		t.Errorf("got %g, want %g ± %g", got, want, delta)
	}
}

// NewFrame returns a w×h image filled with bg.
func NewFrame(w, h int, bg color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	FillRect(img, img.Bounds(), bg)
	return img
}

// FillRect paints r (clipped to the image) with c.
func FillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// HorizontalBar draws a w×h bar filled left to right to fraction frac.
func HorizontalBar(w, h int, frac float64, fill color.RGBA) *image.RGBA {
	img := NewFrame(w, h, Grey)
	FillRect(img, image.Rect(0, 0, int(math.Round(frac*float64(w))), h), fill)
	return img
}

// DrawLine draws an 8-connected line from a to b using Bresenham's algorithm.
func DrawLine(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	for {
		if a.In(img.Bounds()) {
			img.SetRGBA(a.X, a.Y, c)
		}
		if a == b {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			a.X += sx
		}
		if e2 <= dx {
			err += dx
			a.Y += sy
		}
	}
}

// DrawPolygon draws the closed outline through pts.
func DrawPolygon(img *image.RGBA, pts []image.Point, c color.RGBA) {
	for i := range pts {
		DrawLine(img, pts[i], pts[(i+1)%len(pts)], c)
	}
}

// CirclePoints returns n vertices on a circle, clockwise on screen starting
// at the top.
func CirclePoints(cx, cy, radius float64, n int) []image.Point {
	pts := make([]image.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = image.Point{
			X: int(math.Round(cx + radius*math.Sin(a))),
			Y: int(math.Round(cy - radius*math.Cos(a))),
		}
	}
	return pts
}

// DrawBlob paints a filled square of side 2*radius+1 centred on p.
func DrawBlob(img *image.RGBA, p image.Point, radius int, c color.RGBA) {
	FillRect(img, image.Rect(p.X-radius, p.Y-radius, p.X+radius+1, p.Y+radius+1), c)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
