// Package ingest orchestrates dataset pipeline runs: resolve source files,
// reshape, validate, and load into Postgres all-or-nothing per dataset.
package ingest

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/transition-pathways/climate-ingest/internal/tabular"
	"github.com/transition-pathways/climate-ingest/internal/validate"
)

// Relation is one reshaped table ready to load, in load order.
type Relation struct {
	Name       string // table name within the dataset schema
	SourceFile string // provenance, recorded in the audit log
	Data       *tabular.Table
}

// Dataset defines one ingestible dataset. Process produces relations in
// dependency order; DropSQL drops children first.
type Dataset interface {
	// Name returns the unique identifier for this dataset (e.g. "tpi").
	Name() string

	// Schema returns the Postgres schema the dataset loads into.
	Schema() string

	// Process resolves the latest source files under dataDir and reshapes
	// them into load-ordered relations. No database access happens here.
	Process(ctx context.Context, dataDir string) ([]Relation, error)

	// Rules returns the validation rule set per relation name.
	Rules() map[string]validate.RuleSet

	// CreateSQL returns DDL statements creating the schema and tables.
	CreateSQL() []string

	// DropSQL returns statements dropping the tables, children first.
	DropSQL() []string
}

// Registry maps dataset names to their implementations.
type Registry struct {
	datasets map[string]Dataset
	order    []string // insertion order for deterministic iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]Dataset)}
}

// Register adds a dataset to the registry.
func (r *Registry) Register(d Dataset) {
	name := d.Name()
	r.datasets[name] = d
	r.order = append(r.order, name)
}

// Get returns a dataset by name.
func (r *Registry) Get(name string) (Dataset, error) {
	d, ok := r.datasets[name]
	if !ok {
		return nil, eris.Errorf("ingest: unknown dataset %q", name)
	}
	return d, nil
}

// Select returns the named datasets, or all of them when names is empty.
func (r *Registry) Select(names []string) ([]Dataset, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	var result []Dataset
	for _, name := range names {
		d, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// All returns all datasets in registration order.
func (r *Registry) All() []Dataset {
	result := make([]Dataset, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.datasets[name])
	}
	return result
}

// AllNames returns all registered dataset names in registration order.
func (r *Registry) AllNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
