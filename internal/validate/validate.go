// Package validate gates reshaped relations before any database write.
// Errors block the load; warnings are reported and let it proceed.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/tabular"
)

// Common cell formats shared across datasets.
var (
	VersionPattern = regexp.MustCompile(`^\d+\.\d+$`)
	CodePattern    = regexp.MustCompile(`^[A-Za-z0-9.]+$`)
	ISOPattern     = regexp.MustCompile(`^[A-Z]{2,3}$`)
)

// Range is an inclusive integer bound.
type Range struct {
	Min int
	Max int
}

// RuleSet declares the checks applied to one relation.
type RuleSet struct {
	Required   []string                  // columns that must exist and carry values
	UniqueKey  []string                  // composite key that must not repeat
	Formats    map[string]*regexp.Regexp // per-column cell format
	IntRanges  map[string]Range          // per-column numeric bounds
	AllowEmpty bool                      // an empty relation is normally an error
}

// Result is the outcome of validating one relation.
type Result struct {
	Relation string
	Errors   []string
	Warnings []string
}

// OK reports whether the relation may be loaded.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Check validates a relation against its rules. The relation never mutates;
// rows failing only warnings still load.
func Check(name string, t *tabular.Table, rules RuleSet) Result {
	res := Result{Relation: name}

	if t.Len() == 0 {
		if !rules.AllowEmpty {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: relation is empty", name))
		}
		return res
	}

	checkRequired(name, t, rules, &res)
	checkUnique(name, t, rules, &res)
	checkFormats(name, t, rules, &res)
	checkRanges(name, t, rules, &res)

	log := zap.L().With(zap.String("component", "validate"), zap.String("relation", name))
	for _, w := range res.Warnings {
		log.Warn(w)
	}
	for _, e := range res.Errors {
		log.Error(e)
	}
	return res
}

func checkRequired(name string, t *tabular.Table, rules RuleSet, res *Result) {
	for _, col := range rules.Required {
		idx := t.Col(col)
		if idx < 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: required column %q is missing", name, col))
			continue
		}

		nulls := 0
		for _, row := range t.Rows {
			if isNull(row[idx]) {
				nulls++
			}
		}
		if nulls > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: column %q has %d null values", name, col, nulls))
		}
	}
}

// checkUnique counts each duplicated key group once, however many extra rows
// it has.
func checkUnique(name string, t *tabular.Table, rules RuleSet, res *Result) {
	if len(rules.UniqueKey) == 0 {
		return
	}
	for _, col := range rules.UniqueKey {
		if t.Col(col) < 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unique key column %q is missing", name, col))
			return
		}
	}

	counts := make(map[string]int, t.Len())
	var order []string
	for _, row := range t.Rows {
		k := t.Key(row, rules.UniqueKey)
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	for _, k := range order {
		if counts[k] > 1 {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"%s: duplicate key (%s)=%q appears %d times",
				name, strings.Join(rules.UniqueKey, ","), displayKey(k), counts[k]))
		}
	}
}

func checkFormats(name string, t *tabular.Table, rules RuleSet, res *Result) {
	for col, pattern := range rules.Formats {
		idx := t.Col(col)
		if idx < 0 {
			continue
		}

		bad := 0
		for _, row := range t.Rows {
			s, ok := asString(row[idx])
			if !ok {
				continue
			}
			if !pattern.MatchString(s) {
				bad++
			}
		}
		if bad > 0 {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"%s: column %q has %d values not matching %s", name, col, bad, pattern.String()))
		}
	}
}

func checkRanges(name string, t *tabular.Table, rules RuleSet, res *Result) {
	for col, r := range rules.IntRanges {
		idx := t.Col(col)
		if idx < 0 {
			continue
		}

		bad := 0
		for _, row := range t.Rows {
			f, ok := asFloat(row[idx])
			if !ok {
				continue
			}
			if f < float64(r.Min) || f > float64(r.Max) {
				bad++
			}
		}
		if bad > 0 {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"%s: column %q has %d values outside [%d, %d]", name, col, bad, r.Min, r.Max))
		}
	}
}

func isNull(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(n) == ""
	case *string:
		return n == nil
	case *int:
		return n == nil
	case *float64:
		return n == nil
	case *time.Time:
		return n == nil
	default:
		return false
	}
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case *string:
		if s == nil {
			return "", false
		}
		return *s, true
	default:
		return "", false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case *int:
		if n == nil {
			return 0, false
		}
		return float64(*n), true
	case float64:
		return n, true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	default:
		return 0, false
	}
}

func displayKey(k string) string {
	return strings.ReplaceAll(k, "\x1f", ", ")
}
