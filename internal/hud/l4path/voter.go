package l4path

import (
	"fmt"
	"image"
	"math"

	"github.com/banshee-data/lapdelta/internal/hud/l1pixels"
)

// Voter accumulates how often each pixel matches the curve colour. Samples
// are consumed one at a time and never retained.
type Voter struct {
	families []l1pixels.ColorFamily
	width    int
	height   int
	counts   []int32
	samples  int
}

// NewVoter returns a Voter matching the given colour families.
func NewVoter(families ...l1pixels.ColorFamily) *Voter {
	return &Voter{families: families}
}

// Add votes with one sample. Every sample must have the same size as the
// first one.
func (v *Voter) Add(img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil sample")
	}
	return v.AddMask(l1pixels.MatchMask(img, v.families...))
}

// AddMask votes with an already matched mask.
func (v *Voter) AddMask(m *l1pixels.Mask) error {
	if v.samples == 0 {
		v.width, v.height = m.Width, m.Height
		v.counts = make([]int32, m.Width*m.Height)
	}
	if m.Width != v.width || m.Height != v.height {
		return fmt.Errorf("sample size %dx%d does not match %dx%d", m.Width, m.Height, v.width, v.height)
	}
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			if m.At(x, y) {
				v.counts[y*v.width+x]++
			}
		}
	}
	v.samples++
	return nil
}

// Samples returns the number of samples voted so far.
func (v *Voter) Samples() int {
	return v.samples
}

// Frequency returns the fraction of samples in which (x, y) matched.
func (v *Voter) Frequency(x, y int) float64 {
	if v.samples == 0 || x < 0 || y < 0 || x >= v.width || y >= v.height {
		return 0
	}
	return float64(v.counts[y*v.width+x]) / float64(v.samples)
}

// Threshold returns the pixels on in at least fraction f of the samples.
func (v *Voter) Threshold(f float64) *l1pixels.Mask {
	m := l1pixels.NewMask(v.width, v.height)
	if v.samples == 0 {
		return m
	}
	need := int32(math.Ceil(f*float64(v.samples) - 1e-9))
	if need < 1 {
		need = 1
	}
	for i, c := range v.counts {
		if c >= need {
			m.Set(i%v.width, i/v.width, true)
		}
	}
	return m
}

// CleanMask merges the thresholded curve into one region, drops every
// other region, and shrinks the result back to the raw curve pixels:
// Intersect(Erode(LargestComponent(Dilate(raw, r)), r), raw).
func CleanMask(raw *l1pixels.Mask, radius int) *l1pixels.Mask {
	merged := l1pixels.Dilate(raw, radius)
	kept := l1pixels.LargestComponent(merged)
	shrunk := l1pixels.Erode(kept, radius)
	return l1pixels.Intersect(shrunk, raw)
}
