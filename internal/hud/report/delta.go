package report

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lapdelta/internal/hud/l6laps"
)

// DeltaPlot builds a plot of each lap's time delta to the reference lap
// against track position. Gaps in coverage break the line rather than
// being bridged.
func DeltaPlot(c *l6laps.AlignedComparison) (*plot.Plot, error) {
	deltas, err := c.DeltasToReference()
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Time delta to lap %d", c.ReferenceID)
	p.X.Label.Text = "Track position (%)"
	p.Y.Label.Text = "Delta (s)"
	p.X.Min, p.X.Max = 0, 100
	p.Add(plotter.NewGrid())

	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 100, Y: 0}})
	if err != nil {
		return nil, err
	}
	zero.Width = vg.Points(0.5)
	p.Add(zero)

	ids := make([]int, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	colors := palette(len(ids))

	for i, id := range ids {
		label := fmt.Sprintf("lap %d", id)
		for j, seg := range segments(c.Grid, deltas[id]) {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return nil, err
			}
			line.Color = colors[i]
			line.Width = vg.Points(1)
			p.Add(line)
			if j == 0 {
				p.Legend.Add(label, line)
			}
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WriteDeltaPNG renders DeltaPlot as a PNG.
func WriteDeltaPNG(w io.Writer, c *l6laps.AlignedComparison, width, height vg.Length) error {
	p, err := DeltaPlot(c)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render delta plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveDeltaPlot writes DeltaPlot to path; the format follows the file
// extension (.png, .svg, .pdf).
func SaveDeltaPlot(path string, c *l6laps.AlignedComparison) error {
	p, err := DeltaPlot(c)
	if err != nil {
		return err
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save delta plot: %w", err)
	}
	return nil
}

// segments splits s into runs of present values.
func segments(grid []float64, s l6laps.Series) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i, x := range grid {
		v, ok := s.At(i)
		if !ok {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x, Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
