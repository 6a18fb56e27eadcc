package ingest

import (
	"context"

	"github.com/transition-pathways/climate-ingest/internal/db"
)

// Loader writes one relation into its schema.
type Loader interface {
	Load(ctx context.Context, schema string, rel Relation) (int64, error)
}

// CopyLoader loads relations with the Postgres COPY protocol.
type CopyLoader struct {
	pool db.Pool
}

// NewCopyLoader creates a CopyLoader backed by the given connection pool.
func NewCopyLoader(pool db.Pool) *CopyLoader {
	return &CopyLoader{pool: pool}
}

// Load bulk-copies the relation's rows into schema.name.
func (l *CopyLoader) Load(ctx context.Context, schema string, rel Relation) (int64, error) {
	return db.CopyFromSchema(ctx, l.pool, schema, rel.Name, rel.Data.Columns, rel.Data.Rows)
}
