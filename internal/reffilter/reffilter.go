// Package reffilter drops child rows whose foreign keys reference no parent
// row. Rejections are logged, never fatal.
package reffilter

import (
	"strings"

	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/tabular"
)

// KeySet holds the composite keys present in a parent table.
type KeySet struct {
	cols []string
	keys map[string]bool
}

// NewKeySet collects the composite keys of the named columns from a parent
// table.
func NewKeySet(parent *tabular.Table, cols ...string) *KeySet {
	ks := &KeySet{cols: cols, keys: make(map[string]bool, parent.Len())}
	for _, row := range parent.Rows {
		ks.keys[parent.Key(row, cols)] = true
	}
	return ks
}

// Len returns the number of distinct keys.
func (ks *KeySet) Len() int {
	return len(ks.keys)
}

// Has reports whether the key built from the named child columns of a row
// exists in the parent.
func (ks *KeySet) Has(child *tabular.Table, row []any, childCols []string) bool {
	return ks.keys[child.Key(row, childCols)]
}

// Contains reports whether the key built from raw cell values exists in the
// parent. Used for row-level checks before a child table is assembled.
func (ks *KeySet) Contains(values ...any) bool {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = tabular.CellString(v)
	}
	return ks.keys[strings.Join(parts, "\x1f")]
}

// Filter splits a child table into rows whose keys exist in the parent and
// rows that reference nothing. Every rejected row is logged with its key.
func Filter(child *tabular.Table, childCols []string, parent *KeySet) (valid, rejected *tabular.Table) {
	log := zap.L().With(zap.String("component", "reffilter"))

	valid = tabular.NewTable(child.Columns...)
	rejected = tabular.NewTable(child.Columns...)

	for _, row := range child.Rows {
		if parent.Has(child, row, childCols) {
			valid.Rows = append(valid.Rows, row)
			continue
		}
		rejected.Rows = append(rejected.Rows, row)
		log.Warn("dropping row with unmatched reference",
			zap.Strings("key_columns", childCols),
			zap.String("key", child.Key(row, childCols)))
	}

	if rejected.Len() > 0 {
		log.Info("referential filter dropped rows",
			zap.Int("kept", valid.Len()),
			zap.Int("dropped", rejected.Len()))
	}
	return valid, rejected
}
