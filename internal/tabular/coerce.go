package tabular

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// noDataSentinels are source markers for an absent value.
var noDataSentinels = map[string]bool{
	"":                true,
	"no data":         true,
	"n/a":             true,
	"na":              true,
	"not applicable":  true,
	"not assessed":    true,
	"not available":   true,
	"not applicable*": true,
}

// dateLayouts are tried in order. Source exports are day-first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"02.01.2006",
	"2 January 2006",
	"January 2, 2006",
}

// IsNoData reports whether a cell is one of the source's missing-value
// markers.
func IsNoData(s string) bool {
	return noDataSentinels[strings.ToLower(strings.TrimSpace(s))]
}

// ParseDate parses a day-first date cell. Returns nil when the cell is empty
// or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if IsNoData(s) {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	zap.L().Warn("unparseable date cell", zap.String("value", s))
	return nil
}

// ParseFloat parses a numeric cell. Missing-value markers and unparseable
// cells become nil, never an error.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if IsNoData(s) {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseLevel parses a management quality level cell. Top-tier levels carry a
// STAR marker ("4STAR", "STAR 4") and coerce to the plain numeric level;
// other cells parse as floats. Unparseable cells log a warning and become
// nil.
func ParseLevel(s string) *float64 {
	trimmed := strings.TrimSpace(s)
	if IsNoData(trimmed) {
		return nil
	}

	candidate := trimmed
	if upper := strings.ToUpper(trimmed); strings.Contains(upper, "STAR") {
		candidate = strings.TrimSpace(strings.ReplaceAll(upper, "STAR", ""))
	}

	f, err := strconv.ParseFloat(candidate, 64)
	if err != nil {
		zap.L().Warn("unparseable level cell", zap.String("value", s))
		return nil
	}
	return &f
}

// ParseInt parses an integer cell, nil on missing or unparseable. Exports
// sometimes render integers as "2019.0", so float forms are accepted and
// truncated.
func ParseInt(s string) *int {
	f := ParseFloat(s)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// NullIfEmpty maps missing-value markers to nil and passes other cells
// through trimmed.
func NullIfEmpty(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

// Default returns the trimmed cell, or the fallback when the cell is empty.
func Default(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}
