package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
)

var ingestCreateDatasets []string

var ingestCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create dataset tables",
	Long:  "Create the schemas and tables for one or more datasets without loading data.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "ingest.create"))

		pool, err := ingestPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		audit := ingest.NewAuditLog(pool)
		if err := audit.EnsureSchema(ctx); err != nil {
			return err
		}

		datasets, err := ingestRegistry().Select(ingestCreateDatasets)
		if err != nil {
			return err
		}

		runner := ingest.NewRunner(pool, audit, ingest.NewCopyLoader(pool), cfg.Ingest.DataDir)
		for _, ds := range datasets {
			if err := runner.Create(ctx, ds); err != nil {
				return err
			}
			log.Info("tables created", zap.String("dataset", ds.Name()))
		}
		return nil
	},
}

func init() {
	ingestCreateCmd.Flags().StringSliceVar(&ingestCreateDatasets, "datasets", nil,
		"comma-separated dataset names (default: all)")
	ingestCmd.AddCommand(ingestCreateCmd)
}
