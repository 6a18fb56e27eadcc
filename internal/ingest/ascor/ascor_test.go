package ascor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// fixtureDir lays out a dated ASCOR drop with one unknown country (Atlantis)
// threaded through every file.
func fixtureDir(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "TPI_ASCOR_data_13012025")
	require.NoError(t, os.Mkdir(dir, 0o755))

	writeFixture(t, dir, "ASCOR_countries.csv",
		"Name,Country ISO code,Region,World Bank lending group,International Monetary Fund fiscal monitor category,Type of Party to the United Nations Framework Convention on Climate Change\n"+
			"France,FRA,Europe,High income,Advanced economies,Annex I\n"+
			"Germany,DEU,Europe,High income,Advanced economies,Annex I\n")

	writeFixture(t, dir, "ASCOR_benchmarks.csv",
		"Id,Publication date,Emissions metric,Emissions boundary,Units,Benchmark type,Country,2020,2021\n"+
			"1,13/01/2025,Absolute,Production - excluding LULUCF,MtCO2e,National 1.5C benchmark,France,10.5,11.0\n"+
			"2,13/01/2025,Absolute,Production - excluding LULUCF,MtCO2e,National 1.5C benchmark,Atlantis,7.5,\n")

	writeFixture(t, dir, "ASCOR_indicators.csv",
		"Code,Text,Units or response type,Type\n"+
			"EP.1,Emissions pathway area,,area\n"+
			"EP.1.a,Has emissions peaked?,Yes/No,indicator\n")

	writeFixture(t, dir, "ASCOR_assessments_results.csv",
		"Id,Country,Assessment date,Publication date,area EP.1,indicator EP.1.a,year indicator EP.1.a,source indicator EP.1.a\n"+
			"1,France,13/01/2025,20/01/2025,Partial,Yes,2019,National inventory\n"+
			"2,Atlantis,13/01/2025,20/01/2025,No,No,2020,Myth\n")

	writeFixture(t, dir, "ASCOR_assessments_results_trends_pathways.csv",
		"Id,Country,Emissions metric,Emissions boundary,Units,Assessment date,Publication date,Last historical year,2021,2022,Year metric EP1.a.i,Metric EP1.a.i\n"+
			"1,France,Absolute,Production,MtCO2e,13/01/2025,20/01/2025,2023,100.5,99.0,2019,95.5\n"+
			"2,Atlantis,Absolute,Production,MtCO2e,13/01/2025,20/01/2025,2023,50.0,49.0,2019,No data\n")

	return base
}

func relByName(t *testing.T, rels []ingest.Relation, name string) ingest.Relation {
	t.Helper()
	for _, r := range rels {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("relation %s not found", name)
	return ingest.Relation{}
}

func TestProcess(t *testing.T) {
	ds := New()
	rels, err := ds.Process(context.Background(), fixtureDir(t))
	require.NoError(t, err)
	require.Len(t, rels, 8)

	names := make([]string, len(rels))
	for i, r := range rels {
		names[i] = r.Name
	}
	assert.Equal(t, []string{
		"country", "benchmarks", "benchmark_values", "assessment_elements",
		"assessment_results", "assessment_trends", "value_per_year", "trend_values",
	}, names, "relations come back in load order")

	country := relByName(t, rels, "country").Data
	require.Equal(t, 2, country.Len())
	assert.Equal(t, "France", country.Value(0, "country_name"))

	benchmarks := relByName(t, rels, "benchmarks").Data
	require.Equal(t, 1, benchmarks.Len(), "Atlantis benchmark is dropped")
	assert.Equal(t, 1, *benchmarks.Value(0, "benchmark_id").(*int))

	values := relByName(t, rels, "benchmark_values").Data
	require.Equal(t, 2, values.Len(), "empty cells melt away, orphan ids are dropped")
	assert.Equal(t, 2020, values.Value(0, "year"))
	assert.InDelta(t, 10.5, *values.Value(0, "value").(*float64), 1e-9)

	elements := relByName(t, rels, "assessment_elements").Data
	require.Equal(t, 2, elements.Len())
	assert.Equal(t, "Not specified", elements.Value(0, "response_type"), "missing response type gets the default")

	results := relByName(t, rels, "assessment_results").Data
	require.Equal(t, 2, results.Len(), "one row per coded column, Atlantis skipped")
	assert.Equal(t, "EP.1", results.Value(0, "code"))
	assert.Equal(t, "Partial", results.Value(0, "response"))
	assert.Nil(t, results.Value(0, "year"), "area columns have no year sibling")
	assert.Equal(t, "EP.1.a", results.Value(1, "code"))
	assert.Equal(t, 2019, *results.Value(1, "year").(*int))
	assert.Equal(t, "National inventory", results.Value(1, "source"))

	trends := relByName(t, rels, "assessment_trends").Data
	require.Equal(t, 1, trends.Len())
	assert.Equal(t, 2023, *trends.Value(0, "last_historical_year").(*int))

	perYear := relByName(t, rels, "value_per_year").Data
	require.Equal(t, 2, perYear.Len(), "only the valid trend melts")
	assert.Equal(t, 2021, perYear.Value(0, "year"))

	trendValues := relByName(t, rels, "trend_values").Data
	require.Equal(t, 1, trendValues.Len(), `"No data" cells drop the row`)
	assert.Equal(t, 2019, *trendValues.Value(0, "year").(*int))
	assert.InDelta(t, 95.5, *trendValues.Value(0, "value").(*float64), 1e-9)
}

func TestProcess_Idempotent(t *testing.T) {
	ds := New()
	dir := fixtureDir(t)

	first, err := ds.Process(context.Background(), dir)
	require.NoError(t, err)
	second, err := ds.Process(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].Data, second[i].Data, "relation %s differs between runs", first[i].Name)
	}
}

// TestProcess_BenchmarkMeltRoundTrip re-pivots the melted benchmark values
// and checks them against the populated wide cells of the fixture: every
// surviving cell melts exactly once with its original value.
func TestProcess_BenchmarkMeltRoundTrip(t *testing.T) {
	ds := New()
	rels, err := ds.Process(context.Background(), fixtureDir(t))
	require.NoError(t, err)

	wide := map[int]map[int]float64{
		1: {2020: 10.5, 2021: 11.0},
	}

	values := relByName(t, rels, "benchmark_values").Data
	seen := make(map[int]map[int]bool)
	for i := 0; i < values.Len(); i++ {
		id := *values.Value(i, "benchmark_id").(*int)
		year := values.Value(i, "year").(int)
		got := *values.Value(i, "value").(*float64)

		want, ok := wide[id][year]
		require.True(t, ok, "melted row (%d, %d) has no source cell", id, year)
		assert.InDelta(t, want, got, 1e-9)

		require.False(t, seen[id][year], "cell (%d, %d) melted twice", id, year)
		if seen[id] == nil {
			seen[id] = make(map[int]bool)
		}
		seen[id][year] = true
	}

	for id, years := range wide {
		for year := range years {
			assert.True(t, seen[id][year], "cell (%d, %d) never melted", id, year)
		}
	}
}

func TestProcess_MissingDirectory(t *testing.T) {
	ds := New()
	_, err := ds.Process(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve data directory")
}

func TestSchemaStatements(t *testing.T) {
	ds := New()
	assert.Len(t, ds.CreateSQL(), 9, "schema plus eight tables")
	assert.Len(t, ds.DropSQL(), 8)
	assert.Contains(t, ds.DropSQL()[0], "trend_values", "children drop first")
	assert.Contains(t, ds.DropSQL()[7], "country")
}

func TestRulesCoverAllRelations(t *testing.T) {
	ds := New()
	rules := ds.Rules()
	for _, name := range []string{
		"country", "benchmarks", "benchmark_values", "assessment_elements",
		"assessment_results", "assessment_trends", "value_per_year", "trend_values",
	} {
		_, ok := rules[name]
		assert.True(t, ok, "missing rules for %s", name)
	}
}
