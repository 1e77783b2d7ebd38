package l1pixels

import "image"

// mooreOffsets lists the 8 neighbours clockwise (y grows downwards),
// starting from west.
var mooreOffsets = [8]image.Point{
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
}

func neighbourIndex(d image.Point) int {
	for i, off := range mooreOffsets {
		if off == d {
			return i
		}
	}
	return 0
}

// TraceContour returns the ordered outer boundary of the largest component
// of m, walking clockwise from its first pixel in raster order. A one-pixel
// wide closed curve yields every curve pixel exactly once. An empty mask
// yields nil.
func TraceContour(m *Mask) []image.Point {
	return TraceBoundary(LargestComponent(m))
}

// TraceBoundary runs Moore-neighbour tracing on the component that contains
// the first set pixel of m. Tracing stops when the walk is about to repeat
// its first move, which also terminates on shapes where the start pixel is
// re-entered from a different side.
func TraceBoundary(m *Mask) []image.Point {
	start, ok := m.firstSet()
	if !ok {
		return nil
	}

	// The first raster pixel always has a background pixel to its west.
	contour := []image.Point{start}
	cur, back := start, 0
	var second image.Point
	maxSteps := 4*m.Width*m.Height + 8

	for step := 0; step < maxSteps; step++ {
		next, nextBack, found := mooreStep(m, cur, back)
		if !found {
			// Isolated pixel.
			return contour
		}
		if step == 0 {
			second = next
		} else if cur == start && next == second {
			return contour[:len(contour)-1]
		}
		contour = append(contour, next)
		cur, back = next, nextBack
	}
	return contour
}

// mooreStep scans the neighbours of cur clockwise, starting just after the
// backtrack direction, and returns the first set pixel together with the
// backtrack direction to use from it.
func mooreStep(m *Mask, cur image.Point, back int) (image.Point, int, bool) {
	for k := 1; k <= 8; k++ {
		p := cur.Add(mooreOffsets[(back+k)%8])
		if m.At(p.X, p.Y) {
			prev := cur.Add(mooreOffsets[(back+k-1)%8])
			return p, neighbourIndex(prev.Sub(p)), true
		}
	}
	return image.Point{}, 0, false
}
