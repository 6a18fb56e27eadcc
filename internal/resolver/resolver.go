// Package resolver selects dated source files and directories from the data
// drop area. Directory and file names carry an embedded 8-digit date or a
// methodology number; the newest vintage wins.
package resolver

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoMatch is returned when zero candidates match the requested pattern.
// A candidate whose embedded date fails to parse is not an error; the
// resolver falls back to lexicographic order instead.
var ErrNoMatch = eris.New("resolver: no candidates match pattern")

// DefaultDateLayouts are the layouts tried, in order, against the 8-digit
// token embedded in names. Source vintages mix day-first and month-first
// conventions.
var DefaultDateLayouts = []string{"02012006", "01022006", "20060102"}

// Options configures date extraction.
type Options struct {
	DateLayouts []string // tried in order; nil = DefaultDateLayouts
}

var datePattern = regexp.MustCompile(`(\d{8})`)

// ExtractDate pulls the first 8-digit token out of a name and parses it with
// the configured layouts. Returns false when no token parses.
func ExtractDate(name string, opts Options) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}

	layouts := opts.DateLayouts
	if layouts == nil {
		layouts = DefaultDateLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, m[1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LatestDir returns the subdirectory of base whose name starts with prefix
// and carries the most recent embedded date. When no candidate has a
// parseable date, the lexicographically last name is returned as a best
// effort.
func LatestDir(base, prefix string, opts Options) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", eris.Wrapf(err, "resolver: read dir %s", base)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", eris.Wrapf(ErrNoMatch, "resolver: no directories under %s with prefix %q", base, prefix)
	}

	chosen := pickLatest(names, opts)
	zap.L().Debug("resolved data directory", zap.String("dir", chosen))
	return filepath.Join(base, chosen), nil
}

// LatestFile returns the file in dir matching the glob pattern with the most
// recent embedded date, with the same lexicographic fallback as LatestDir.
func LatestFile(dir, pattern string, opts Options) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", eris.Wrapf(err, "resolver: glob %s", pattern)
	}
	if len(matches) == 0 {
		return "", eris.Wrapf(ErrNoMatch, "resolver: no files in %s matching %q", dir, pattern)
	}

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = filepath.Base(m)
	}

	chosen := pickLatest(names, opts)
	zap.L().Debug("resolved source file", zap.String("file", chosen))
	return filepath.Join(dir, chosen), nil
}

// AllFiles returns every file matching the glob pattern, sorted by name.
func AllFiles(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, eris.Wrapf(err, "resolver: glob %s", pattern)
	}
	if len(matches) == 0 {
		return nil, eris.Wrapf(ErrNoMatch, "resolver: no files in %s matching %q", dir, pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

var methodologyPattern = regexp.MustCompile(`Methodology_(\d+)`)

// MethodologyFiles returns every file matching the glob pattern, ordered by
// the methodology cycle number embedded in the name. Files without a number
// sort first.
func MethodologyFiles(dir, pattern string) ([]string, error) {
	matches, err := AllFiles(dir, pattern)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return methodologyNumber(matches[i]) < methodologyNumber(matches[j])
	})
	return matches, nil
}

// MethodologyNumber extracts the cycle number from a methodology file name,
// or 0 when absent.
func MethodologyNumber(path string) int {
	return methodologyNumber(path)
}

func methodologyNumber(path string) int {
	m := methodologyPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// CategorizeFiles assigns each file to the first category with a keyword
// appearing in the file name; files matching no category are skipped.
// Categories are checked in the order given so that more specific keywords
// (e.g. "Regional") take precedence over generic ones.
func CategorizeFiles(files []string, categories []Category) map[string]string {
	out := make(map[string]string)
	for _, f := range files {
		base := strings.ToLower(filepath.Base(f))
		for _, c := range categories {
			if containsAny(base, c.Keywords) && out[c.Name] == "" {
				out[c.Name] = f
				break
			}
		}
	}
	return out
}

// Category names a file group and the keywords that identify it.
type Category struct {
	Name     string
	Keywords []string
}

func containsAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(name, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// pickLatest prefers the candidate with the maximum embedded date; when no
// candidate has one it falls back to the lexicographically last name. The
// fallback can select an unexpected file when dates are malformed, matching
// the source system's behaviour.
func pickLatest(names []string, opts Options) string {
	type dated struct {
		name string
		date time.Time
	}

	var withDates []dated
	for _, n := range names {
		if d, ok := ExtractDate(n, opts); ok {
			withDates = append(withDates, dated{name: n, date: d})
		}
	}

	if len(withDates) == 0 {
		sort.Strings(names)
		return names[len(names)-1]
	}

	sort.Slice(withDates, func(i, j int) bool {
		if withDates[i].date.Equal(withDates[j].date) {
			return withDates[i].name < withDates[j].name
		}
		return withDates[i].date.Before(withDates[j].date)
	})
	return withDates[len(withDates)-1].name
}
