package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// statsView is the --json shape of stats.
type statsView struct {
	SchemaVersion uint           `json:"schema_version"`
	Rows          map[string]int `json:"rows"`
}

func newStatsCmd(a *app) *cobra.Command {
	var textfile string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show schema version and row counts",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			rows, err := a.backend.RowCounts(ctx)
			if err != nil {
				return err
			}
			if textfile != "" {
				if err := a.metrics.WriteTextfile(textfile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			view := statsView{SchemaVersion: a.backend.SchemaVersion(), Rows: rows}
			return a.emit(cmd.OutOrStdout(), view, func(w io.Writer) {
				fmt.Fprintf(w, "Schema version: %d\n", view.SchemaVersion)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, table := range statsTables {
					fmt.Fprintf(tw, "%s\t%d\n", table, rows[table])
				}
				tw.Flush()
			})
		}),
	}
	cmd.Flags().StringVar(&textfile, "textfile", "", "also write Prometheus metrics to this file")
	return cmd
}

var statsTables = []string{"users", "lists", "list_items", "purchases", "purchase_items"}
