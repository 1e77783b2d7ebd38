package l1pixels

import "image"

// Mask is a binary image. Out-of-range reads return false and out-of-range
// writes are ignored.
type Mask struct {
	Width  int
	Height int
	bits   []bool
}

// NewMask allocates an all-false mask. Negative sizes are treated as zero.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, bits: make([]bool, width*height)}
}

// MaskFromPoints builds a mask with the given points set.
func MaskFromPoints(width, height int, pts []image.Point) *Mask {
	m := NewMask(width, height)
	for _, p := range pts {
		m.Set(p.X, p.Y, true)
	}
	return m
}

func (m *Mask) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At reports whether (x, y) is set.
func (m *Mask) At(x, y int) bool {
	if m == nil || !m.inBounds(x, y) {
		return false
	}
	return m.bits[y*m.Width+x]
}

// Set assigns (x, y).
func (m *Mask) Set(x, y int, v bool) {
	if !m.inBounds(x, y) {
		return
	}
	m.bits[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Empty reports whether no pixel is set.
func (m *Mask) Empty() bool {
	return m.Count() == 0
}

// RowCount returns the number of set pixels on row y.
func (m *Mask) RowCount(y int) int {
	if y < 0 || y >= m.Height {
		return 0
	}
	n := 0
	for _, b := range m.bits[y*m.Width : (y+1)*m.Width] {
		if b {
			n++
		}
	}
	return n
}

// ColCount returns the number of set pixels on column x.
func (m *Mask) ColCount(x int) int {
	if x < 0 || x >= m.Width {
		return 0
	}
	n := 0
	for y := 0; y < m.Height; y++ {
		if m.bits[y*m.Width+x] {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := &Mask{Width: m.Width, Height: m.Height, bits: make([]bool, len(m.bits))}
	copy(out.bits, m.bits)
	return out
}

// Points lists set pixels in raster order.
func (m *Mask) Points() []image.Point {
	var pts []image.Point
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.bits[y*m.Width+x] {
				pts = append(pts, image.Point{X: x, Y: y})
			}
		}
	}
	return pts
}

// firstSet returns the first set pixel in raster order.
func (m *Mask) firstSet() (image.Point, bool) {
	for i, b := range m.bits {
		if b {
			return image.Point{X: i % m.Width, Y: i / m.Width}, true
		}
	}
	return image.Point{}, false
}
