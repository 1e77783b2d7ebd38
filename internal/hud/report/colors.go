package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/plotutil"
)

// palette returns n line colours from plotutil's default set, cycling when
// there are more laps than colours.
func palette(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.RGBA, n)
	for i := range out {
		out[i] = color.RGBAModel.Convert(plotutil.Color(i)).(color.RGBA)
	}
	return out
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
