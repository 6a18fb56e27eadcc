package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
)

var (
	ingestStatusDataset string
	ingestStatusLimit   int
)

var ingestStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent pipeline runs",
	Long:  "List recent pipeline runs from the audit log, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := ingestPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		audit := ingest.NewAuditLog(pool)
		if err := audit.EnsureSchema(ctx); err != nil {
			return err
		}

		entries, err := audit.List(ctx, ingestStatusDataset, ingestStatusLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No pipeline runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATASET\tSTATUS\tSTARTED\tDURATION\tROWS\tERROR")
		for _, e := range entries {
			duration := "-"
			if e.CompletedAt != nil {
				duration = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
				e.ID, e.Dataset, e.Status,
				e.StartedAt.Format(time.RFC3339),
				duration, e.RowsLoaded, e.Error)
		}
		return w.Flush()
	},
}

func init() {
	ingestStatusCmd.Flags().StringVar(&ingestStatusDataset, "dataset", "", "filter by dataset name")
	ingestStatusCmd.Flags().IntVar(&ingestStatusLimit, "limit", 20, "maximum runs to show")
	ingestCmd.AddCommand(ingestStatusCmd)
}
