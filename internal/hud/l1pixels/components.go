package l1pixels

import (
	"image"

	"gonum.org/v1/gonum/spatial/r2"
)

// Component is one 8-connected region of a mask.
type Component struct {
	Pixels []image.Point
	Bounds image.Rectangle
}

// Size returns the pixel count.
func (c Component) Size() int {
	return len(c.Pixels)
}

// Centroid returns the mean pixel position.
func (c Component) Centroid() r2.Vec {
	if len(c.Pixels) == 0 {
		return r2.Vec{}
	}
	var sx, sy float64
	for _, p := range c.Pixels {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(c.Pixels))
	return r2.Vec{X: sx / n, Y: sy / n}
}

// Mask renders the component into a mask of the given size.
func (c Component) Mask(width, height int) *Mask {
	return MaskFromPoints(width, height, c.Pixels)
}

// Components labels the 8-connected regions of m in raster discovery order.
func Components(m *Mask) []Component {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return nil
	}
	visited := make([]bool, len(m.bits))
	var comps []Component
	var queue []image.Point

	for i, set := range m.bits {
		if !set || visited[i] {
			continue
		}
		seed := image.Point{X: i % m.Width, Y: i / m.Width}
		visited[i] = true
		queue = append(queue[:0], seed)
		comp := Component{Bounds: image.Rectangle{Min: seed, Max: seed.Add(image.Point{X: 1, Y: 1})}}

		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			comp.Pixels = append(comp.Pixels, p)
			comp.Bounds = comp.Bounds.Union(image.Rectangle{Min: p, Max: p.Add(image.Point{X: 1, Y: 1})})

			for _, off := range mooreOffsets {
				n := p.Add(off)
				if !m.inBounds(n.X, n.Y) {
					continue
				}
				j := n.Y*m.Width + n.X
				if m.bits[j] && !visited[j] {
					visited[j] = true
					queue = append(queue, n)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// Largest returns the biggest component; ties go to the first discovered.
func Largest(comps []Component) (Component, bool) {
	best := -1
	for i, c := range comps {
		if best < 0 || c.Size() > comps[best].Size() {
			best = i
		}
	}
	if best < 0 {
		return Component{}, false
	}
	return comps[best], true
}

// LargestComponent returns a mask holding only the largest 8-connected
// region of m. An empty input yields an empty mask of the same size.
func LargestComponent(m *Mask) *Mask {
	c, ok := Largest(Components(m))
	if !ok {
		return NewMask(m.Width, m.Height)
	}
	return c.Mask(m.Width, m.Height)
}
