package tabular

import (
	"strconv"
	"strings"
)

// Class labels the structural role of a source column. Columns are classified
// once per sheet, before any row is processed.
type Class int

const (
	// ClassIdentity columns carry entity attributes and pass through unchanged.
	ClassIdentity Class = iota
	// ClassYear columns hold one value per year and melt into (year, value) rows.
	ClassYear
	// ClassRoleCoded columns are named "<role> <code>", e.g. "indicator EP.1.a".
	ClassRoleCoded
	// ClassQuestion columns are named "<code>|<text>" question pivots.
	ClassQuestion
)

// Column is a classified source column.
type Column struct {
	Name  string
	Class Class
	Year  int    // ClassYear
	Role  string // ClassRoleCoded
	Code  string // ClassRoleCoded and ClassQuestion
	Text  string // ClassQuestion
}

// ClassifyOptions controls which column shapes are recognized. Zero options
// classify everything as identity.
type ClassifyOptions struct {
	Roles      []string // role prefixes for "<role> <code>" columns
	Years      bool     // recognize bare 4-digit year columns
	YearPrefix string   // when set, year columns are "<prefix> <year>" instead of bare digits
	MinYear    int      // inclusive year bounds; zero = unbounded
	MaxYear    int
	Questions  bool // recognize "<code>|<text>" columns
}

// Classify labels every header column. The result has one entry per header
// entry, in order.
func Classify(header []string, opts ClassifyOptions) []Column {
	out := make([]Column, len(header))
	for i, name := range header {
		out[i] = classifyOne(name, opts)
	}
	return out
}

func classifyOne(name string, opts ClassifyOptions) Column {
	col := Column{Name: name, Class: ClassIdentity}
	trimmed := strings.TrimSpace(name)

	if opts.Questions && strings.Contains(trimmed, "|") && strings.HasPrefix(strings.ToLower(trimmed), "q") {
		parts := strings.SplitN(trimmed, "|", 2)
		col.Class = ClassQuestion
		col.Code = strings.TrimSpace(parts[0])
		col.Text = strings.TrimSpace(parts[1])
		return col
	}

	if year, ok := yearOf(trimmed, opts); ok {
		col.Class = ClassYear
		col.Year = year
		return col
	}

	lower := strings.ToLower(trimmed)
	for _, role := range opts.Roles {
		if strings.HasPrefix(lower, role+" ") {
			col.Class = ClassRoleCoded
			col.Role = role
			col.Code = strings.TrimSpace(trimmed[len(role)+1:])
			return col
		}
	}

	return col
}

func yearOf(name string, opts ClassifyOptions) (int, bool) {
	candidate := name
	switch {
	case opts.YearPrefix != "":
		if !strings.HasPrefix(name, opts.YearPrefix+" ") {
			return 0, false
		}
		candidate = strings.TrimSpace(name[len(opts.YearPrefix)+1:])
	case !opts.Years:
		return 0, false
	}

	if len(candidate) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(candidate)
	if err != nil {
		return 0, false
	}
	if opts.MinYear != 0 && year < opts.MinYear {
		return 0, false
	}
	if opts.MaxYear != 0 && year > opts.MaxYear {
		return 0, false
	}
	return year, true
}

// YearColumns filters a classification down to the year-valued columns.
func YearColumns(cols []Column) []Column {
	var out []Column
	for _, c := range cols {
		if c.Class == ClassYear {
			out = append(out, c)
		}
	}
	return out
}

// RoleColumns filters a classification down to columns with the given role.
func RoleColumns(cols []Column, role string) []Column {
	var out []Column
	for _, c := range cols {
		if c.Class == ClassRoleCoded && c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// QuestionColumns filters a classification down to question pivots.
func QuestionColumns(cols []Column) []Column {
	var out []Column
	for _, c := range cols {
		if c.Class == ClassQuestion {
			out = append(out, c)
		}
	}
	return out
}
