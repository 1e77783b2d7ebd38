package l1pixels

import (
	"image"
	"image/color"
	"math"
)

// ColorFamily is an HSV box. Hue is in degrees [0,360]; when HueMin > HueMax
// the hue interval wraps through 0 so reds can be expressed as 340..20.
// Saturation and value are in [0,1].
type ColorFamily struct {
	Name   string
	HueMin float64
	HueMax float64
	SatMin float64
	SatMax float64
	ValMin float64
	ValMax float64
}

// Matches reports whether the HSV triple falls inside the family.
func (f ColorFamily) Matches(h, s, v float64) bool {
	if s < f.SatMin || s > f.SatMax || v < f.ValMin || v > f.ValMax {
		return false
	}
	if f.HueMin <= f.HueMax {
		return h >= f.HueMin && h <= f.HueMax
	}
	return h >= f.HueMin || h <= f.HueMax
}

// MatchesRGB converts r, g, b to HSV and tests membership.
func (f ColorFamily) MatchesRGB(r, g, b uint8) bool {
	h, s, v := RGBToHSV(r, g, b)
	return f.Matches(h, s, v)
}

// RGBToHSV converts 8-bit RGB to hue in degrees [0,360), saturation and value in [0,1].
// Achromatic colours report hue 0.
func RGBToHSV(r, g, b uint8) (h, s, v float64) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	hi := math.Max(rf, math.Max(gf, bf))
	lo := math.Min(rf, math.Min(gf, bf))
	d := hi - lo

	v = hi
	if hi > 0 {
		s = d / hi
	}
	if d == 0 {
		return 0, s, v
	}

	switch hi {
	case rf:
		h = 60 * math.Mod((gf-bf)/d, 6)
	case gf:
		h = 60 * ((bf-rf)/d + 2)
	default:
		h = 60 * ((rf-gf)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// rgbAt returns the 8-bit colour at (x, y), with a fast path for *image.RGBA.
func rgbAt(img image.Image, x, y int) (r, g, b uint8) {
	if rgba, ok := img.(*image.RGBA); ok {
		i := rgba.PixOffset(x, y)
		return rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2]
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B
}

// MatchMask builds the union mask of every family over img. Mask coordinates
// are relative to img.Bounds().Min. A nil image or an empty family list
// yields an empty mask.
func MatchMask(img image.Image, families ...ColorFamily) *Mask {
	if img == nil {
		return NewMask(0, 0)
	}
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	if len(families) == 0 {
		return m
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			h, s, v := RGBToHSV(rgbAt(img, x, y))
			for _, f := range families {
				if f.Matches(h, s, v) {
					m.Set(x-b.Min.X, y-b.Min.Y, true)
					break
				}
			}
		}
	}
	return m
}
