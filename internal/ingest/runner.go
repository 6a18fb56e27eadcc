package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/db"
	"github.com/transition-pathways/climate-ingest/internal/validate"
)

// Runner executes dataset pipeline runs against one database.
type Runner struct {
	pool    db.Pool
	audit   *AuditLog
	loader  Loader
	dataDir string
}

// NewRunner creates a Runner. The loader is injected so tests can observe
// load calls without a database.
func NewRunner(pool db.Pool, audit *AuditLog, loader Loader, dataDir string) *Runner {
	return &Runner{pool: pool, audit: audit, loader: loader, dataDir: dataDir}
}

// Create executes the dataset's DDL.
func (r *Runner) Create(ctx context.Context, ds Dataset) error {
	for _, stmt := range ds.CreateSQL() {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "ingest: create tables for %s", ds.Name())
		}
	}
	return nil
}

// Drop removes the dataset's tables, children first. The audit schema is
// never touched.
func (r *Runner) Drop(ctx context.Context, ds Dataset) error {
	for _, stmt := range ds.DropSQL() {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "ingest: drop tables for %s", ds.Name())
		}
	}
	return nil
}

// Run executes the full pipeline for one dataset: drop, create, process,
// validate, load. Validation errors block the load entirely; warnings are
// recorded and let it proceed. A failure during loading drops the dataset's
// tables again so no partial load survives.
func (r *Runner) Run(ctx context.Context, ds Dataset) error {
	log := zap.L().With(zap.String("component", "ingest.runner"), zap.String("dataset", ds.Name()))
	start := time.Now()

	runID, err := r.audit.Start(ctx, ds.Name())
	if err != nil {
		return eris.Wrapf(err, "ingest: start audit for %s", ds.Name())
	}

	fail := func(status string, cause error) error {
		if logErr := r.audit.Fail(ctx, runID, status, cause.Error()); logErr != nil {
			log.Error("failed to record run failure", zap.Error(logErr))
		}
		return cause
	}

	log.Info("pipeline started")

	if err := r.Drop(ctx, ds); err != nil {
		return fail(StatusFailed, err)
	}
	if err := r.Create(ctx, ds); err != nil {
		return fail(StatusFailed, err)
	}

	relations, err := ds.Process(ctx, r.dataDir)
	if err != nil {
		return fail(StatusFailed, eris.Wrapf(err, "ingest: process %s", ds.Name()))
	}

	results := r.validateAll(ds, relations)
	var allErrors, allWarnings []string
	for _, res := range results {
		allErrors = append(allErrors, res.Errors...)
		allWarnings = append(allWarnings, res.Warnings...)
	}

	if len(allErrors) > 0 {
		log.Error("validation failed, nothing loaded",
			zap.Int("errors", len(allErrors)),
			zap.Int("warnings", len(allWarnings)))
		if auditErr := r.audit.RecordValidation(ctx, ds.Name(), StatusValidationFailed,
			strings.Join(allErrors, "; ")); auditErr != nil {
			log.Error("failed to record validation errors", zap.Error(auditErr))
		}
		return fail(StatusValidationFailed,
			eris.Errorf("ingest: %s failed validation: %s", ds.Name(), strings.Join(allErrors, "; ")))
	}

	checkpoint := StatusValidationPassed
	if len(allWarnings) > 0 {
		checkpoint = StatusValidationWarnings
		if auditErr := r.audit.RecordValidation(ctx, ds.Name(), StatusValidationWarnings,
			strings.Join(allWarnings, "; ")); auditErr != nil {
			log.Error("failed to record validation warnings", zap.Error(auditErr))
		}
	}
	if err := r.audit.SetStatus(ctx, runID, checkpoint); err != nil {
		log.Error("failed to record validation checkpoint", zap.Error(err))
	}

	var total int64
	meta := map[string]any{"relations": map[string]any{}}
	relMeta := meta["relations"].(map[string]any)

	for _, rel := range relations {
		n, err := r.loader.Load(ctx, ds.Schema(), rel)
		if err != nil {
			// Drop again so a half-loaded dataset never survives.
			if dropErr := r.Drop(ctx, ds); dropErr != nil {
				log.Error("failed to drop after partial load", zap.Error(dropErr))
			}
			return fail(StatusFailed, eris.Wrapf(err, "ingest: load %s.%s", ds.Schema(), rel.Name))
		}
		total += n
		relMeta[rel.Name] = map[string]any{"rows": n, "source": rel.SourceFile}
		if auditErr := r.audit.RecordLoad(ctx, ds.Name(), ds.Schema()+"."+rel.Name, rel.SourceFile, n); auditErr != nil {
			log.Error("failed to record table write", zap.Error(auditErr))
		}
		log.Info("relation loaded",
			zap.String("relation", rel.Name),
			zap.Int64("rows", n),
			zap.String("source", rel.SourceFile))
	}

	final := StatusCompleted
	if len(allWarnings) > 0 {
		final = StatusCompletedWarnings
		meta["warnings"] = allWarnings
	}
	if err := r.audit.Complete(ctx, runID, final, total, meta); err != nil {
		log.Error("failed to record run completion", zap.Error(err))
	}

	log.Info("pipeline complete",
		zap.Int64("rows", total),
		zap.Int("warnings", len(allWarnings)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// RunAll runs each dataset in turn. One dataset failing does not stop the
// others; the joined failure is returned at the end.
func (r *Runner) RunAll(ctx context.Context, datasets []Dataset) error {
	log := zap.L().With(zap.String("component", "ingest.runner"))

	var failed []string
	for _, ds := range datasets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.Run(ctx, ds); err != nil {
			log.Error("dataset run failed", zap.String("dataset", ds.Name()), zap.Error(err))
			failed = append(failed, ds.Name())
		}
	}

	if len(failed) > 0 {
		return eris.Errorf("ingest: %d of %d datasets failed: %s",
			len(failed), len(datasets), strings.Join(failed, ", "))
	}
	return nil
}

func (r *Runner) validateAll(ds Dataset, relations []Relation) []validate.Result {
	rules := ds.Rules()
	results := make([]validate.Result, 0, len(relations))
	for _, rel := range relations {
		results = append(results, validate.Check(rel.Name, rel.Data, rules[rel.Name]))
	}
	return results
}
