package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/db"
	"github.com/banshee-data/lapdelta/internal/hud/storage/sqlite"
	"github.com/banshee-data/lapdelta/internal/monitoring"
	"github.com/banshee-data/lapdelta/internal/version"
)

const defaultDBFile = "lapdelta.db"

type rootOptions struct {
	dbPath     string
	tuningPath string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "lapdelta",
		Short: "Lap telemetry from racing game HUD footage",
		Long: `lapdelta reads throttle, brake and other bars, the lap counter and the
minimap marker from recorded frames, cuts the stream into laps and aligns
laps by track position so they can be compared.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if o.quiet {
				monitoring.SetLogger(nil)
			}
		},
	}
	rootCmd.Version = version.Version
	rootCmd.PersistentFlags().StringVar(&o.dbPath, "db", defaultDBFile, "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&o.tuningPath, "tuning", "", "tuning JSON (defaults to config/tuning.defaults.json, else built-in values)")
	rootCmd.PersistentFlags().BoolVarP(&o.quiet, "quiet", "q", false, "suppress diagnostic logging")

	rootCmd.AddCommand(newReplayCmd(o))
	rootCmd.AddCommand(newCompareCmd(o))
	rootCmd.AddCommand(newSessionsCmd(o))
	rootCmd.AddCommand(newMigrateCmd(o))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})
	return rootCmd
}

func (o *rootOptions) tuning() (*config.TuningConfig, error) {
	if o.tuningPath == "" {
		if cfg, err := config.LoadTuningConfig(config.DefaultConfigPath); err == nil {
			return cfg, nil
		}
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(o.tuningPath)
}

// openStore opens and migrates the database.
func (o *rootOptions) openStore() (*sqlite.LapStore, func(), error) {
	database, err := db.NewDB(o.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database %s: %w", o.dbPath, err)
	}
	return sqlite.NewLapStore(database), func() { database.Close() }, nil
}
