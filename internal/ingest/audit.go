package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/transition-pathways/climate-ingest/internal/db"
)

// Pipeline run statuses recorded in audit.pipeline_log.
const (
	StatusStarted            = "STARTED"
	StatusValidationPassed   = "VALIDATION_PASSED"
	StatusValidationWarnings = "VALIDATION_WARNINGS"
	StatusValidationFailed   = "VALIDATION_FAILED"
	StatusCompleted          = "COMPLETED"
	StatusCompletedWarnings  = "COMPLETED_WITH_WARNINGS"
	StatusFailed             = "FAILED"
)

// AuditEntry represents a row in audit.pipeline_log.
type AuditEntry struct {
	ID          int64          `json:"id"`
	Dataset     string         `json:"dataset"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	RowsLoaded  int64          `json:"rows_loaded"`
	TableName   string         `json:"table_name,omitempty"`
	SourceFile  string         `json:"source_file,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// AuditLog provides read/write access to audit.pipeline_log. The audit
// schema lives outside the dataset schemas so drops never touch it.
type AuditLog struct {
	pool db.Pool
}

// NewAuditLog creates an AuditLog backed by the given connection pool.
func NewAuditLog(pool db.Pool) *AuditLog {
	return &AuditLog{pool: pool}
}

// EnsureSchema creates the audit schema and pipeline_log table if missing.
func (a *AuditLog) EnsureSchema(ctx context.Context) error {
	sql := `
		CREATE SCHEMA IF NOT EXISTS audit;
		CREATE TABLE IF NOT EXISTS audit.pipeline_log (
			id           BIGSERIAL PRIMARY KEY,
			dataset      TEXT NOT NULL,
			status       TEXT NOT NULL,
			started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ,
			rows_loaded  BIGINT NOT NULL DEFAULT 0,
			table_name   TEXT,
			source_file  TEXT,
			error        TEXT,
			metadata     JSONB
		);
	`
	if _, err := a.pool.Exec(ctx, sql); err != nil {
		return eris.Wrap(err, "audit: ensure schema")
	}
	return nil
}

// Start records the beginning of a pipeline run and returns its ID.
func (a *AuditLog) Start(ctx context.Context, dataset string) (int64, error) {
	var id int64
	err := a.pool.QueryRow(ctx,
		`INSERT INTO audit.pipeline_log (dataset, status, started_at)
		 VALUES ($1, $2, now()) RETURNING id`,
		dataset, StatusStarted,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "audit: start run for %s", dataset)
	}
	return id, nil
}

// SetStatus updates the status of a run without closing it. Used for the
// validation checkpoints.
func (a *AuditLog) SetStatus(ctx context.Context, runID int64, status string) error {
	_, err := a.pool.Exec(ctx,
		`UPDATE audit.pipeline_log SET status = $1 WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "audit: set status for run %d", runID)
	}
	return nil
}

// Complete closes a run with a terminal status and the rows loaded.
func (a *AuditLog) Complete(ctx context.Context, runID int64, status string, rowsLoaded int64, metadata map[string]any) error {
	var metaJSON []byte
	if metadata != nil {
		var err error
		metaJSON, err = json.Marshal(metadata)
		if err != nil {
			return eris.Wrap(err, "audit: marshal metadata")
		}
	}

	_, err := a.pool.Exec(ctx,
		`UPDATE audit.pipeline_log
		 SET status = $1, completed_at = now(), rows_loaded = $2, metadata = $3
		 WHERE id = $4`,
		status, rowsLoaded, metaJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "audit: complete run %d", runID)
	}
	return nil
}

// Fail closes a run as failed with an error message.
func (a *AuditLog) Fail(ctx context.Context, runID int64, status, errMsg string) error {
	_, err := a.pool.Exec(ctx,
		`UPDATE audit.pipeline_log
		 SET status = $1, completed_at = now(), error = $2
		 WHERE id = $3`,
		status, errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "audit: fail run %d", runID)
	}
	return nil
}

// RecordLoad appends one entry for a single table write.
func (a *AuditLog) RecordLoad(ctx context.Context, dataset, table, sourceFile string, rows int64) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO audit.pipeline_log (dataset, status, started_at, completed_at, rows_loaded, table_name, source_file)
		 VALUES ($1, $2, now(), now(), $3, $4, $5)`,
		dataset, StatusCompleted, rows, table, sourceFile,
	)
	if err != nil {
		return eris.Wrapf(err, "audit: record load of %s", table)
	}
	return nil
}

// RecordValidation appends one entry holding a validation outcome and its
// message list.
func (a *AuditLog) RecordValidation(ctx context.Context, dataset, status, notes string) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO audit.pipeline_log (dataset, status, started_at, completed_at, error)
		 VALUES ($1, $2, now(), now(), $3)`,
		dataset, status, notes,
	)
	if err != nil {
		return eris.Wrapf(err, "audit: record validation for %s", dataset)
	}
	return nil
}

// List returns the most recent entries, newest first. A zero limit returns
// everything; a non-empty dataset filters to that dataset.
func (a *AuditLog) List(ctx context.Context, dataset string, limit int) ([]AuditEntry, error) {
	sql := `SELECT id, dataset, status, started_at, completed_at, rows_loaded, table_name, source_file, error, metadata
	        FROM audit.pipeline_log`
	var args []any
	if dataset != "" {
		sql += ` WHERE dataset = $1`
		args = append(args, dataset)
	}
	sql += ` ORDER BY started_at DESC`
	if limit > 0 {
		args = append(args, limit)
		if dataset != "" {
			sql += ` LIMIT $2`
		} else {
			sql += ` LIMIT $1`
		}
	}

	rows, err := a.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "audit: list runs")
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var completedAt *time.Time
		var tableName, sourceFile, errStr *string
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.Dataset, &e.Status, &e.StartedAt, &completedAt,
			&e.RowsLoaded, &tableName, &sourceFile, &errStr, &metaJSON); err != nil {
			return nil, eris.Wrap(err, "audit: scan entry")
		}
		e.CompletedAt = completedAt
		if tableName != nil {
			e.TableName = *tableName
		}
		if sourceFile != nil {
			e.SourceFile = *sourceFile
		}
		if errStr != nil {
			e.Error = *errStr
		}
		if metaJSON != nil {
			_ = json.Unmarshal(metaJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
