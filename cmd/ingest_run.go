package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
)

var ingestRunDatasets []string

var ingestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run dataset pipelines",
	Long: `Run the full pipeline for one or more datasets.

By default, runs every registered dataset. Use --datasets to restrict the
run. Each dataset is dropped, rebuilt, validated, and loaded in full;
validation errors leave its tables empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "ingest.run"))

		pool, err := ingestPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		audit := ingest.NewAuditLog(pool)
		if err := audit.EnsureSchema(ctx); err != nil {
			return err
		}

		datasets, err := ingestRegistry().Select(ingestRunDatasets)
		if err != nil {
			return err
		}

		names := make([]string, len(datasets))
		for i, ds := range datasets {
			names[i] = ds.Name()
		}
		log.Info("starting ingestion", zap.Strings("datasets", names))

		runner := ingest.NewRunner(pool, audit, ingest.NewCopyLoader(pool), cfg.Ingest.DataDir)
		if len(datasets) == 1 {
			return runner.Run(ctx, datasets[0])
		}
		return runner.RunAll(ctx, datasets)
	},
}

func init() {
	ingestRunCmd.Flags().StringSliceVar(&ingestRunDatasets, "datasets", nil,
		"comma-separated dataset names (default: all)")
	ingestCmd.AddCommand(ingestRunCmd)
}
