// Package ascor ingests the ASCOR country assessment dataset: sovereign
// climate assessments, emissions benchmarks, and emissions trend pathways.
package ascor

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
	"github.com/transition-pathways/climate-ingest/internal/reffilter"
	"github.com/transition-pathways/climate-ingest/internal/resolver"
	"github.com/transition-pathways/climate-ingest/internal/tabular"
)

const dirPrefix = "TPI_ASCOR_data_"

// Source file patterns within the dated data directory. The results pattern
// requires a literal dot after "results" so the trends file never matches it.
var filePatterns = map[string]string{
	"countries":  "ASCOR_countries.*",
	"benchmarks": "ASCOR_benchmarks.*",
	"indicators": "ASCOR_indicators.*",
	"results":    "ASCOR_assessments_results.*",
	"trends":     "ASCOR_assessments_results_trends_pathways.*",
}

// Dataset implements the ASCOR ingestion pipeline.
type Dataset struct{}

// New creates the ASCOR dataset.
func New() *Dataset {
	return &Dataset{}
}

// Name implements ingest.Dataset.
func (d *Dataset) Name() string { return "ascor" }

// Schema implements ingest.Dataset.
func (d *Dataset) Schema() string { return "ascor" }

// Process resolves the latest ASCOR data directory, reads the five source
// files, and reshapes them into load-ordered relations.
func (d *Dataset) Process(ctx context.Context, dataDir string) ([]ingest.Relation, error) {
	dir, err := resolver.LatestDir(dataDir, dirPrefix, resolver.Options{})
	if err != nil {
		return nil, eris.Wrap(err, "ascor: resolve data directory")
	}

	files := make(map[string]string, len(filePatterns))
	for name, pattern := range filePatterns {
		path, err := resolver.LatestFile(dir, pattern, resolver.Options{})
		if err != nil {
			return nil, eris.Wrapf(err, "ascor: resolve %s file", name)
		}
		files[name] = path
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	countrySheet, err := tabular.ReadFile(files["countries"], tabular.ReadOptions{})
	if err != nil {
		return nil, err
	}
	benchSheet, err := tabular.ReadFile(files["benchmarks"], tabular.ReadOptions{SnakeHeader: true})
	if err != nil {
		return nil, err
	}
	elementSheet, err := tabular.ReadFile(files["indicators"], tabular.ReadOptions{SnakeHeader: true})
	if err != nil {
		return nil, err
	}
	resultSheet, err := tabular.ReadFile(files["results"], tabular.ReadOptions{})
	if err != nil {
		return nil, err
	}
	trendSheet, err := tabular.ReadFile(files["trends"], tabular.ReadOptions{SnakeHeader: true})
	if err != nil {
		return nil, err
	}

	country := reshapeCountry(countrySheet)
	countries := reffilter.NewKeySet(country, "country_name")

	benchmarks, benchmarkValues := reshapeBenchmarks(benchSheet, countries)
	elements := reshapeElements(elementSheet)
	elementCodes := reffilter.NewKeySet(elements, "code")
	results := reshapeResults(resultSheet, countries, elementCodes)
	trends, valuePerYear, trendValues := reshapeTrends(trendSheet, countries)

	return []ingest.Relation{
		{Name: "country", SourceFile: files["countries"], Data: country},
		{Name: "benchmarks", SourceFile: files["benchmarks"], Data: benchmarks},
		{Name: "benchmark_values", SourceFile: files["benchmarks"], Data: benchmarkValues},
		{Name: "assessment_elements", SourceFile: files["indicators"], Data: elements},
		{Name: "assessment_results", SourceFile: files["results"], Data: results},
		{Name: "assessment_trends", SourceFile: files["trends"], Data: trends},
		{Name: "value_per_year", SourceFile: files["trends"], Data: valuePerYear},
		{Name: "trend_values", SourceFile: files["trends"], Data: trendValues},
	}, nil
}
