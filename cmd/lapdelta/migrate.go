package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lapdelta/internal/db"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	// open skips schema initialisation so a stale database can be inspected.
	open := func() (*db.DB, error) {
		return db.OpenDB(root.dbPath)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()
			if err := database.MigrateUp(db.MigrationsFS()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()
			return database.MigrateDown(db.MigrationsFS())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current and latest schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()
			st, err := database.Status(db.MigrationsFS())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current=%d latest=%d dirty=%v pending=%v\n", st.Current, st.Latest, st.Dirty, st.Pending())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations (dirty state recovery)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()
			return database.MigrateForce(db.MigrationsFS(), v)
		},
	})
	return cmd
}
