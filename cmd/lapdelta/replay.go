package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/hud/framesrc"
	"github.com/banshee-data/lapdelta/internal/hud/l6laps"
	"github.com/banshee-data/lapdelta/internal/hud/pipeline"
	"github.com/banshee-data/lapdelta/internal/hud/report"
	"github.com/banshee-data/lapdelta/internal/hud/storage/sqlite"
)

type replayOptions struct {
	layoutPath  string
	fps         float64
	counterPath string
	sessionID   string
	pathSamples int
	reportDir   string
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	o := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay <frames_directory>",
		Short: "Process a directory of frames into laps",
		Long: `Replay decodes every image in the directory in name order, extracts the
configured channels, tracks the lap counter and minimap position, and stores
each finished lap in the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runReplay(ctx, cmd.OutOrStdout(), root, o, args[0])
		},
	}
	cmd.Flags().StringVarP(&o.layoutPath, "layout", "l", "", "layout JSON describing HUD regions (required)")
	cmd.Flags().Float64Var(&o.fps, "fps", 30, "frame rate of the recording")
	cmd.Flags().StringVar(&o.counterPath, "counter", "", "CSV of frame,counter readings")
	cmd.Flags().StringVar(&o.sessionID, "session", "", "session id (random when empty)")
	cmd.Flags().IntVar(&o.pathSamples, "path-samples", 60, "minimap frames sampled to build the reference path")
	cmd.Flags().StringVar(&o.reportDir, "report-dir", "", "write delta.png and channels.html here")
	_ = cmd.MarkFlagRequired("layout")
	return cmd
}

func runReplay(ctx context.Context, out io.Writer, root *rootOptions, o *replayOptions, framesDir string) error {
	layout, err := config.LoadLayoutConfig(o.layoutPath)
	if err != nil {
		return err
	}
	tuning, err := root.tuning()
	if err != nil {
		return err
	}
	src, err := framesrc.NewDirSource(framesDir, o.fps, layout)
	if err != nil {
		return err
	}

	var counter pipeline.CounterReader
	if o.counterPath != "" {
		cf, err := framesrc.LoadCounterFile(o.counterPath)
		if err != nil {
			return err
		}
		counter = cf
	}

	store, closeDB, err := root.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	session, err := pipeline.NewSession(pipeline.SessionConfig{
		Layout:        layout,
		Tuning:        tuning,
		SessionID:     o.sessionID,
		CounterReader: counter,
		LapSink:       store,
	})
	if err != nil {
		return err
	}
	if err := store.CreateSession(ctx, sqlite.Session{ID: session.ID(), Source: framesDir, Layout: layout}); err != nil {
		return err
	}

	if layout.MapRegion != "" {
		samples, err := src.SampleRegion(layout.MapRegion, o.pathSamples)
		if err != nil {
			return err
		}
		if err := session.PreparePath(samples); err != nil {
			fmt.Fprintf(out, "warning: %v; continuing without track position\n", err)
		} else if err := store.SaveTrackPath(ctx, session.ID(), session.Path()); err != nil {
			return err
		}
	}

	laps, runErr := session.Run(ctx, src)
	printLaps(out, session.ID(), laps)
	if runErr != nil {
		return runErr
	}

	d := session.Diagnostics()
	fmt.Fprintf(out, "frames=%d below_threshold=%d counter_rejected=%d counter_resets=%d position_outliers=%d reacquired=%d\n",
		d.FramesProcessed, d.ExtractionBelowThreshold, d.CounterRejected, d.CounterResets, d.PositionOutliers, d.PositionReacquired)

	if o.reportDir == "" {
		return nil
	}
	c, err := session.Compare(laps, l6laps.AlignConfigFromTuning(tuning))
	if errors.Is(err, l6laps.ErrInsufficientLaps) {
		fmt.Fprintln(out, "fewer than two laps; no report written")
		return nil
	}
	if err != nil {
		return err
	}
	return writeReports(o.reportDir, c, session.ID())
}

func writeReports(dir string, c *l6laps.AlignedComparison, title string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	png, err := os.Create(filepath.Join(dir, "delta.png"))
	if err != nil {
		return err
	}
	if err := report.WriteDeltaPNG(png, c, 14*vg.Inch, 6*vg.Inch); err != nil {
		png.Close()
		return err
	}
	if err := png.Close(); err != nil {
		return err
	}

	html, err := os.Create(filepath.Join(dir, "channels.html"))
	if err != nil {
		return err
	}
	if err := report.RenderChannelsHTML(html, c, report.ChannelsOptions{Title: title}); err != nil {
		html.Close()
		return err
	}
	return html.Close()
}

func printLaps(out io.Writer, sessionID string, laps []l6laps.LapRecord) {
	fmt.Fprintf(out, "session %s: %d laps\n", sessionID, len(laps))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAP\tCOMPLETE\tSAMPLES\tLAP TIME\tHUD TIME")
	for _, l := range laps {
		fmt.Fprintf(tw, "%d\t%v\t%d\t%.3f\t%s\n", l.ID, l.Complete, len(l.Samples), l.LapTime(), l.ReportedTime)
	}
	tw.Flush()
}
