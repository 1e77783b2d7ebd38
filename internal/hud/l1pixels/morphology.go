package l1pixels

// Dilate grows m by a square structuring element of side 2*radius+1.
// Pixels outside the mask count as unset.
func Dilate(m *Mask, radius int) *Mask {
	if radius <= 0 {
		return m.Clone()
	}
	rows := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			for dx := -radius; dx <= radius; dx++ {
				if m.At(x+dx, y) {
					rows.bits[y*m.Width+x] = true
					break
				}
			}
		}
	}
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			for dy := -radius; dy <= radius; dy++ {
				if rows.At(x, y+dy) {
					out.bits[y*m.Width+x] = true
					break
				}
			}
		}
	}
	return out
}

// Erode shrinks m by a square structuring element of side 2*radius+1.
// Pixels outside the mask are ignored rather than treated as unset, so a
// shape touching the border is not eaten away from that side. This keeps
// Erode(Dilate(m, r), r) a superset of m.
func Erode(m *Mask, radius int) *Mask {
	if radius <= 0 {
		return m.Clone()
	}
	rows := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			keep := true
			for dx := -radius; dx <= radius; dx++ {
				nx := x + dx
				if nx < 0 || nx >= m.Width {
					continue
				}
				if !m.bits[y*m.Width+nx] {
					keep = false
					break
				}
			}
			rows.bits[y*m.Width+x] = keep
		}
	}
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			keep := true
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= m.Height {
					continue
				}
				if !rows.bits[ny*m.Width+x] {
					keep = false
					break
				}
			}
			out.bits[y*m.Width+x] = keep
		}
	}
	return out
}

// Intersect returns the pixel-wise AND of a and b over their common extent.
func Intersect(a, b *Mask) *Mask {
	w, h := min(a.Width, b.Width), min(a.Height, b.Height)
	out := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.bits[y*w+x] = a.At(x, y) && b.At(x, y)
		}
	}
	return out
}

// Union returns the pixel-wise OR of a and b over the larger extent.
func Union(a, b *Mask) *Mask {
	w, h := max(a.Width, b.Width), max(a.Height, b.Height)
	out := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.bits[y*w+x] = a.At(x, y) || b.At(x, y)
		}
	}
	return out
}
