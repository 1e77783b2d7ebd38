package report

import (
	"fmt"
	"image/color"
	"io"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lapdelta/internal/hud/l6laps"
)

// ChannelsOptions tunes RenderChannelsHTML.
type ChannelsOptions struct {
	Title      string
	AssetsHost string // empty uses the go-echarts CDN
	Channels   []string
}

// RenderChannelsHTML writes one page with a time delta chart followed by
// one chart per channel, every lap overlaid by track position. Channels
// defaults to every channel present in the comparison.
func RenderChannelsHTML(w io.Writer, c *l6laps.AlignedComparison, o ChannelsOptions) error {
	deltas, err := c.DeltasToReference()
	if err != nil {
		return err
	}
	if o.Title == "" {
		o.Title = "Lap comparison"
	}
	channels := o.Channels
	if len(channels) == 0 {
		channels = channelNames(c)
	}

	xs := make([]string, len(c.Grid))
	for i, x := range c.Grid {
		xs[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	colors := palette(len(c.Laps))

	page := components.NewPage()
	page.PageTitle = o.Title
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}

	delta := newLineChart(o, fmt.Sprintf("Delta to lap %d", c.ReferenceID), "Delta (s)")
	delta.SetXAxis(xs)
	for i, lap := range c.Laps {
		if lap.ID == c.ReferenceID {
			continue
		}
		delta.AddSeries(fmt.Sprintf("lap %d", lap.ID), lineData(deltas[lap.ID]), seriesOpts(colors[i])...)
	}
	page.AddCharts(delta)

	for _, name := range channels {
		ch := newLineChart(o, name, name)
		ch.SetXAxis(xs)
		for i, lap := range c.Laps {
			s, ok := lap.Channels[name]
			if !ok {
				continue
			}
			ch.AddSeries(fmt.Sprintf("lap %d", lap.ID), lineData(s), seriesOpts(colors[i])...)
		}
		page.AddCharts(ch)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func newLineChart(o ChannelsOptions, title, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px", AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: o.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Position (%)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

func seriesOpts(c color.RGBA) []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), ConnectNulls: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(c)}),
	}
}

// lineData maps missing grid points to "-", which echarts draws as a gap.
func lineData(s l6laps.Series) []opts.LineData {
	out := make([]opts.LineData, len(s.Values))
	for i := range s.Values {
		if v, ok := s.At(i); ok {
			out[i] = opts.LineData{Value: v}
		} else {
			out[i] = opts.LineData{Value: "-"}
		}
	}
	return out
}

func channelNames(c *l6laps.AlignedComparison) []string {
	seen := make(map[string]bool)
	for _, lap := range c.Laps {
		for name := range lap.Channels {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
