// Package tpi ingests the TPI corporate dataset: company metadata,
// management quality assessments, carbon performance assessments, and sector
// benchmarks.
package tpi

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
	"github.com/transition-pathways/climate-ingest/internal/reffilter"
	"github.com/transition-pathways/climate-ingest/internal/resolver"
	"github.com/transition-pathways/climate-ingest/internal/tabular"
)

const dirPrefix = "TPI_sector_data_All_sectors_"

// mqSheet pairs a methodology cycle with its loaded assessment sheet. The
// cycle doubles as the major version of the companies it covers.
type mqSheet struct {
	cycle int
	sheet *tabular.Sheet
	file  string
}

func (m mqSheet) version() string {
	return fmt.Sprintf("%d.0", m.cycle)
}

// Dataset implements the TPI ingestion pipeline.
type Dataset struct{}

// New creates the TPI dataset.
func New() *Dataset {
	return &Dataset{}
}

// Name implements ingest.Dataset.
func (d *Dataset) Name() string { return "tpi" }

// Schema implements ingest.Dataset.
func (d *Dataset) Schema() string { return "tpi" }

// Process resolves the latest TPI data directory and reshapes the company,
// MQ, CP, and sector benchmark exports into load-ordered relations.
func (d *Dataset) Process(ctx context.Context, dataDir string) ([]ingest.Relation, error) {
	dir, err := resolver.LatestDir(dataDir, dirPrefix, resolver.Options{})
	if err != nil {
		return nil, eris.Wrap(err, "tpi: resolve data directory")
	}

	latestFile5, err := resolver.LatestFile(dir, "Company_Latest_Assessments_5.0*.csv", resolver.Options{})
	if err != nil {
		return nil, eris.Wrap(err, "tpi: resolve 5.0 company file")
	}
	// The literal dot after "Assessments" keeps the 5.0 variant from
	// matching this pattern.
	latestFile4, err := resolver.LatestFile(dir, "Company_Latest_Assessments.*", resolver.Options{})
	if err != nil {
		return nil, eris.Wrap(err, "tpi: resolve 4.0 company file")
	}

	mqFiles, err := resolver.MethodologyFiles(dir, "MQ_Assessments_Methodology_*.csv")
	if err != nil {
		return nil, eris.Wrap(err, "tpi: resolve MQ files")
	}

	cpFiles, err := resolver.AllFiles(dir, "CP_Assessments*.csv")
	if err != nil {
		return nil, eris.Wrap(err, "tpi: resolve CP files")
	}
	cpByKind := resolver.CategorizeFiles(cpFiles, []resolver.Category{
		{Name: "regional", Keywords: []string{"CP_Assessments_Regional"}},
		{Name: "standard", Keywords: []string{"CP_Assessments"}},
	})

	sectorFile, err := resolver.LatestFile(dir, "Sector_Benchmarks*.csv", resolver.Options{})
	if err != nil {
		return nil, eris.Wrap(err, "tpi: resolve sector benchmarks file")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sheet5, err := tabular.ReadFile(latestFile5, tabular.ReadOptions{})
	if err != nil {
		return nil, err
	}
	sheet4, err := tabular.ReadFile(latestFile4, tabular.ReadOptions{})
	if err != nil {
		return nil, err
	}

	var mqSheets []mqSheet
	for _, f := range mqFiles {
		sheet, err := tabular.ReadFile(f, tabular.ReadOptions{SnakeHeader: true})
		if err != nil {
			return nil, err
		}
		mqSheets = append(mqSheets, mqSheet{cycle: resolver.MethodologyNumber(f), sheet: sheet, file: f})
	}

	cpSheets := make(map[string]*tabular.Sheet)
	for kind, f := range cpByKind {
		sheet, err := tabular.ReadFile(f, tabular.ReadOptions{})
		if err != nil {
			return nil, err
		}
		cpSheets[kind] = sheet
	}

	sectorSheet, err := tabular.ReadFile(sectorFile, tabular.ReadOptions{SnakeHeader: true})
	if err != nil {
		return nil, err
	}

	sectorBenchmark, benchmarkProjection := reshapeSectorBenchmarks(sectorSheet)

	company := reshapeCompany(sheet5, sheet4, mqSheets)
	companies := reffilter.NewKeySet(company, "company_name", "version")

	companyAnswer := reshapeAnswers(mqSheets, companies)
	mqAssessment := reshapeMQ(mqSheets, companies)
	cpAssessment, cpAlignment, cpProjection := reshapeCP(cpSheets, companies)

	// Provenance for the CP relations. Falls back to the regional export
	// when no standard one exists in the drop.
	cpSource := cpByKind["standard"]
	if cpSource == "" {
		cpSource = cpByKind["regional"]
	}

	return []ingest.Relation{
		{Name: "sector_benchmark", SourceFile: sectorFile, Data: sectorBenchmark},
		{Name: "benchmark_projection", SourceFile: sectorFile, Data: benchmarkProjection},
		{Name: "company", SourceFile: latestFile5, Data: company},
		{Name: "company_answer", SourceFile: mqFiles[len(mqFiles)-1], Data: companyAnswer},
		{Name: "mq_assessment", SourceFile: mqFiles[len(mqFiles)-1], Data: mqAssessment},
		{Name: "cp_assessment", SourceFile: cpSource, Data: cpAssessment},
		{Name: "cp_alignment", SourceFile: cpSource, Data: cpAlignment},
		{Name: "cp_projection", SourceFile: cpSource, Data: cpProjection},
	}, nil
}
