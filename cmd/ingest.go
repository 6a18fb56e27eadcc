package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
	"github.com/transition-pathways/climate-ingest/internal/ingest/ascor"
	"github.com/transition-pathways/climate-ingest/internal/ingest/tpi"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Dataset ingestion pipeline",
	Long:  "Drops, rebuilds, validates, and loads the ascor.* and tpi.* Postgres tables from the latest dated spreadsheet exports.",
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// ingestPool creates a pgxpool.Pool sized from the store configuration.
func ingestPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := cfg.Store.DatabaseURL
	if dsn == "" {
		return nil, eris.New("ingest: no database_url configured (set store.database_url or CLIMATE_STORE_DATABASE_URL)")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: parse database url")
	}
	poolCfg.MaxConns = cfg.Store.MaxConns
	poolCfg.MinConns = cfg.Store.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ingest: ping database")
	}

	return pool, nil
}

// ingestRegistry holds every known dataset.
func ingestRegistry() *ingest.Registry {
	reg := ingest.NewRegistry()
	reg.Register(ascor.New())
	reg.Register(tpi.New())
	return reg
}
