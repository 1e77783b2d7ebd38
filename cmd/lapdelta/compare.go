package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lapdelta/internal/hud/l6laps"
	"github.com/banshee-data/lapdelta/internal/hud/pipeline"
	"github.com/banshee-data/lapdelta/internal/hud/report"
	"github.com/banshee-data/lapdelta/internal/monitoring"
)

type compareOptions struct {
	laps         []int
	reference    int
	referenceSet bool
	gridStep     float64
	pngPath      string
	htmlPath     string
}

func newCompareCmd(root *rootOptions) *cobra.Command {
	o := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare <session_id>",
		Short: "Align stored laps by track position and report deltas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.referenceSet = cmd.Flags().Changed("reference")
			return runCompare(cmd.Context(), cmd.OutOrStdout(), root, o, args[0])
		},
	}
	cmd.Flags().IntSliceVar(&o.laps, "laps", nil, "lap numbers to compare (default: all)")
	cmd.Flags().IntVar(&o.reference, "reference", 0, "reference lap number (default: fastest complete lap)")
	cmd.Flags().Float64Var(&o.gridStep, "grid-step", 0, "alignment grid step in percent (default from tuning)")
	cmd.Flags().StringVar(&o.pngPath, "png", "", "write the delta plot to this PNG file")
	cmd.Flags().StringVar(&o.htmlPath, "html", "", "write the channel overlay to this HTML file")
	return cmd
}

func runCompare(ctx context.Context, out io.Writer, root *rootOptions, o *compareOptions, sessionID string) error {
	tuning, err := root.tuning()
	if err != nil {
		return err
	}
	store, closeDB, err := root.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	laps, err := store.GetLaps(ctx, sessionID)
	if err != nil {
		return err
	}
	laps = selectLaps(laps, o.laps)

	cfg := l6laps.AlignConfigFromTuning(tuning)
	if o.gridStep > 0 {
		cfg.GridStep = o.gridStep
	}
	if o.referenceSet {
		ref := o.reference
		cfg.Reference = &ref
	}
	diag := &monitoring.Diagnostics{}
	c, err := pipeline.Compare(laps, cfg, diag)
	if err != nil {
		return err
	}

	layout, err := store.GetSessionLayout(ctx, sessionID)
	if err != nil {
		return err
	}
	var sectors []float64
	if layout != nil {
		sectors = layout.Sectors
	}
	if err := printComparison(out, c, sectors); err != nil {
		return err
	}
	fmt.Fprintf(out, "coverage gaps: %d grid points\n", diag.Snapshot().AlignmentGaps)

	if o.pngPath != "" {
		f, err := os.Create(o.pngPath)
		if err != nil {
			return err
		}
		if err := report.WriteDeltaPNG(f, c, 14*vg.Inch, 6*vg.Inch); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if o.htmlPath != "" {
		f, err := os.Create(o.htmlPath)
		if err != nil {
			return err
		}
		if err := report.RenderChannelsHTML(f, c, report.ChannelsOptions{Title: sessionID}); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return nil
}

// selectLaps keeps the laps whose number is in ids, or all when ids is
// empty.
func selectLaps(laps []l6laps.LapRecord, ids []int) []l6laps.LapRecord {
	if len(ids) == 0 {
		return laps
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []l6laps.LapRecord
	for _, l := range laps {
		if want[l.ID] {
			out = append(out, l)
		}
	}
	return out
}

func printComparison(out io.Writer, c *l6laps.AlignedComparison, sectors []float64) error {
	fmt.Fprintf(out, "reference lap %d, %d grid points\n", c.ReferenceID, len(c.Grid))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "LAP\tCOMPLETE\tLAP TIME\tDELTA"
	for k := range sectors {
		header += fmt.Sprintf("\tS%d", k+1)
	}
	fmt.Fprintln(tw, header)

	ref, err := c.Lap(c.ReferenceID)
	if err != nil {
		return err
	}
	for _, l := range c.Laps {
		row := fmt.Sprintf("%d\t%v\t%.3f\t%+.3f", l.ID, l.Complete, l.LapTime, l.LapTime-ref.LapTime)
		if len(sectors) > 0 {
			st, err := c.SectorTimes(l.ID, sectors)
			if err != nil {
				return err
			}
			for k := range sectors {
				if v, ok := st.At(k); ok {
					row += fmt.Sprintf("\t%.3f", v)
				} else {
					row += "\t-"
				}
			}
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}
