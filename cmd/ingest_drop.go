package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
)

var ingestDropDatasets []string

var ingestDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop dataset tables",
	Long:  "Drop the tables for one or more datasets. The audit schema is never touched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "ingest.drop"))

		pool, err := ingestPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		datasets, err := ingestRegistry().Select(ingestDropDatasets)
		if err != nil {
			return err
		}

		runner := ingest.NewRunner(pool, ingest.NewAuditLog(pool), ingest.NewCopyLoader(pool), cfg.Ingest.DataDir)
		for _, ds := range datasets {
			if err := runner.Drop(ctx, ds); err != nil {
				return err
			}
			log.Info("tables dropped", zap.String("dataset", ds.Name()))
		}
		return nil
	},
}

func init() {
	ingestDropCmd.Flags().StringSliceVar(&ingestDropDatasets, "datasets", nil,
		"comma-separated dataset names (default: all)")
	ingestCmd.AddCommand(ingestDropCmd)
}
