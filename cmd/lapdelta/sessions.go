package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := root.openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			sessions, err := store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tCREATED\tLAPS\tCOMPLETE\tBEST\tSOURCE")
			for _, s := range sessions {
				created := time.Unix(0, int64(s.CreatedAt*1e9)).UTC().Format(time.RFC3339)
				best := "-"
				if s.BestLap > 0 {
					best = fmt.Sprintf("%.3f", s.BestLap)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", s.ID, created, s.Laps, s.Complete, best, s.Source)
			}
			return tw.Flush()
		},
	}
}
