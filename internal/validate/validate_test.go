package validate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transition-pathways/climate-ingest/internal/tabular"
)

func TestCheck_EmptyRelation(t *testing.T) {
	tbl := tabular.NewTable("company_name")

	res := Check("company", tbl, RuleSet{Required: []string{"company_name"}})
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "relation is empty")
	assert.False(t, res.OK())

	res = Check("company", tbl, RuleSet{AllowEmpty: true})
	assert.True(t, res.OK())
}

func TestCheck_MissingRequiredColumn(t *testing.T) {
	tbl := tabular.NewTable("company_name")
	tbl.Append("Acme")

	res := Check("company", tbl, RuleSet{Required: []string{"company_name", "version"}})
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `required column "version" is missing`)
}

func TestCheck_NullsAreWarnings(t *testing.T) {
	tbl := tabular.NewTable("company_name", "geography")
	tbl.Append("Acme", nil)
	tbl.Append("Globex", "Japan")
	tbl.Append("Initech", (*float64)(nil))

	res := Check("company", tbl, RuleSet{Required: []string{"company_name", "geography"}})
	assert.True(t, res.OK())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `column "geography" has 2 null values`)
}

func TestCheck_DuplicateKeyCountedPerGroup(t *testing.T) {
	tbl := tabular.NewTable("company_name", "version")
	tbl.Append("Acme", "5.0")
	tbl.Append("Acme", "5.0")
	tbl.Append("Acme", "5.0")
	tbl.Append("Globex", "5.0")

	res := Check("company", tbl, RuleSet{UniqueKey: []string{"company_name", "version"}})
	require.Len(t, res.Errors, 1, "one duplicated group yields exactly one error")
	assert.Contains(t, res.Errors[0], "appears 3 times")
	assert.Contains(t, res.Errors[0], "Acme")
}

func TestCheck_FormatsBlockLoad(t *testing.T) {
	tbl := tabular.NewTable("iso", "version")
	tbl.Append("FRA", "5.0")
	tbl.Append("fr", "five")

	res := Check("country", tbl, RuleSet{
		Formats: map[string]*regexp.Regexp{
			"iso":     ISOPattern,
			"version": VersionPattern,
		},
	})
	assert.False(t, res.OK(), "format violations block the load")
	assert.Len(t, res.Errors, 2)
	assert.Empty(t, res.Warnings)
}

func TestCheck_IntRangesBlockLoad(t *testing.T) {
	tbl := tabular.NewTable("year", "tpi_cycle")
	tbl.Append(2025, 3)
	tbl.Append(1850, 9)
	tbl.Append(nil, nil)

	res := Check("benchmark_values", tbl, RuleSet{
		IntRanges: map[string]Range{
			"year":      {Min: 2000, Max: 2100},
			"tpi_cycle": {Min: 1, Max: 5},
		},
	})
	assert.False(t, res.OK())
	require.Len(t, res.Errors, 2)
	assert.Empty(t, res.Warnings)
}

func TestCheck_BadFormatAndRangeTogether(t *testing.T) {
	tbl := tabular.NewTable("company_name", "version", "tpi_cycle")
	tbl.Append("Acme", "not-a-version", 9)

	res := Check("company", tbl, RuleSet{
		Formats:   map[string]*regexp.Regexp{"version": VersionPattern},
		IntRanges: map[string]Range{"tpi_cycle": {Min: 1, Max: 5}},
	})
	assert.False(t, res.OK())
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], `column "version"`)
	assert.Contains(t, res.Errors[1], `column "tpi_cycle"`)
	assert.Empty(t, res.Warnings)
}
