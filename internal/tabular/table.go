package tabular

import (
	"fmt"
	"strings"
	"time"
)

// Table is a normalized long-format relation: named columns over typed rows.
// Cell values are strings, *float64, *time.Time, ints, or nil.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row. The row must have one value per column.
func (t *Table) Append(row ...any) {
	if len(row) != len(t.Columns) {
		panic(fmt.Sprintf("tabular: row has %d values, table has %d columns", len(row), len(t.Columns)))
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Col returns the index of the named column, or -1 when absent.
func (t *Table) Col(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at (row, column name), or nil when the column is
// absent.
func (t *Table) Value(row int, name string) any {
	idx := t.Col(name)
	if idx < 0 {
		return nil
	}
	return t.Rows[row][idx]
}

// Key builds a composite key from the named columns of a row. Used for
// deduplication and referential checks.
func (t *Table) Key(row []any, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		idx := t.Col(c)
		if idx < 0 {
			continue
		}
		parts[i] = CellString(row[idx])
	}
	return strings.Join(parts, "\x1f")
}

// CellString renders a cell for key building, dereferencing pointer cells so
// equal values compare equal regardless of representation.
func CellString(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(n)
	case *string:
		if n == nil {
			return ""
		}
		return strings.TrimSpace(*n)
	case *int:
		if n == nil {
			return ""
		}
		return fmt.Sprintf("%d", *n)
	case *float64:
		if n == nil {
			return ""
		}
		return fmt.Sprintf("%v", *n)
	case *time.Time:
		if n == nil {
			return ""
		}
		return n.Format("2006-01-02")
	case time.Time:
		return n.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// DedupeFirst drops rows whose key columns repeat, keeping the first
// occurrence.
func (t *Table) DedupeFirst(keyCols ...string) *Table {
	out := NewTable(t.Columns...)
	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		k := t.Key(row, keyCols)
		if seen[k] {
			continue
		}
		seen[k] = true
		out.Rows = append(out.Rows, row)
	}
	return out
}

// DedupeLast drops rows whose key columns repeat, keeping the last
// occurrence. Row order otherwise follows first appearance of each key.
func (t *Table) DedupeLast(keyCols ...string) *Table {
	out := NewTable(t.Columns...)
	latest := make(map[string][]any, len(t.Rows))
	var order []string
	for _, row := range t.Rows {
		k := t.Key(row, keyCols)
		if _, ok := latest[k]; !ok {
			order = append(order, k)
		}
		latest[k] = row
	}
	for _, k := range order {
		out.Rows = append(out.Rows, latest[k])
	}
	return out
}
