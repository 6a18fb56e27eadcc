package tpi

import (
	"strings"

	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/reffilter"
	"github.com/transition-pathways/climate-ingest/internal/tabular"
)

var companyColumns = []string{
	"company_name", "version", "geography", "geography_code", "sector_name",
	"ca100_focus", "size_classification", "isin", "sedol",
}

// reshapeCompany unions the 5.0 and 4.0 latest-assessment exports with stub
// rows for companies that appear only in MQ files. The first occurrence of a
// (company, version) pair wins, so the richer latest-assessment metadata
// beats the MQ stubs.
func reshapeCompany(sheet5, sheet4 *tabular.Sheet, mq []mqSheet) *tabular.Table {
	out := tabular.NewTable(companyColumns...)

	appendMeta := func(sheet *tabular.Sheet, version string) {
		for _, row := range sheet.Rows {
			name := strings.TrimSpace(sheet.Value(row, "Company Name"))
			if name == "" {
				continue
			}
			out.Append(
				name,
				version,
				tabular.NullIfEmpty(sheet.Value(row, "Geography")),
				tabular.NullIfEmpty(sheet.Value(row, "Geography Code")),
				tabular.NullIfEmpty(sheet.Value(row, "Sector")),
				tabular.NullIfEmpty(sheet.Value(row, "CA100 Focus Company")),
				tabular.NullIfEmpty(sheet.Value(row, "Large/Medium Classification")),
				tabular.NullIfEmpty(sheet.Value(row, "ISINs")),
				tabular.NullIfEmpty(sheet.Value(row, "SEDOL")),
			)
		}
	}
	appendMeta(sheet5, "5.0")
	appendMeta(sheet4, "4.0")

	for _, m := range mq {
		seen := make(map[string]bool)
		for _, row := range m.sheet.Rows {
			name := strings.TrimSpace(m.sheet.Value(row, "company_name"))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out.Append(name, m.version(), nil, nil, nil, nil, nil, nil, nil)
		}
	}

	return out.DedupeFirst("company_name", "version")
}

// reshapeAnswers explodes the question pivot columns of each MQ file into
// one row per (question, company, version). Later methodology files win
// when a question repeats.
func reshapeAnswers(mq []mqSheet, companies *reffilter.KeySet) *tabular.Table {
	log := zap.L().With(zap.String("component", "tpi"))
	out := tabular.NewTable("question_code", "question_text", "response", "company_name", "version")

	for _, m := range mq {
		version := m.version()
		questions := tabular.QuestionColumns(tabular.Classify(m.sheet.Header, tabular.ClassifyOptions{Questions: true}))

		for _, q := range questions {
			for _, row := range m.sheet.Rows {
				name := strings.TrimSpace(m.sheet.Value(row, "company_name"))
				if !companies.Contains(name, version) {
					log.Warn("skipping answer for unknown company",
						zap.String("company", name), zap.String("version", version))
					continue
				}
				response := strings.TrimSpace(m.sheet.Value(row, q.Name))
				if response == "" {
					continue
				}
				out.Append(q.Code, q.Text, response, name, version)
			}
		}
	}

	return out.DedupeLast("question_code", "company_name", "version")
}

// reshapeMQ flattens the MQ assessment files into one relation, coercing the
// level column through its STAR notation. Rows without an assessment date
// are dropped.
func reshapeMQ(mq []mqSheet, companies *reffilter.KeySet) *tabular.Table {
	log := zap.L().With(zap.String("component", "tpi"))
	out := tabular.NewTable("assessment_date", "company_name", "version", "tpi_cycle",
		"publication_date", "level", "performance_change")

	for _, m := range mq {
		version := m.version()
		for _, row := range m.sheet.Rows {
			name := strings.TrimSpace(m.sheet.Value(row, "company_name"))
			if !companies.Contains(name, version) {
				log.Warn("skipping MQ assessment for unknown company",
					zap.String("company", name), zap.String("version", version))
				continue
			}

			assessmentDate := tabular.ParseDate(m.sheet.Value(row, "assessment_date"))
			if assessmentDate == nil {
				continue
			}

			out.Append(
				assessmentDate,
				name,
				version,
				m.cycle,
				tabular.ParseDate(m.sheet.Value(row, "publication_date")),
				tabular.ParseLevel(m.sheet.Value(row, "level")),
				tabular.NullIfEmpty(m.sheet.Value(row, "performance_compared_to_previous_year")),
			)
		}
	}
	return out
}

// cpVersion is the methodology version all carbon performance exports carry.
const cpVersion = "5.0"

// reshapeCP processes the standard and regional CP exports into the
// assessment header plus the alignment and projection melts.
func reshapeCP(sheets map[string]*tabular.Sheet, companies *reffilter.KeySet) (assessment, alignment, projection *tabular.Table) {
	log := zap.L().With(zap.String("component", "tpi"))

	assessment = tabular.NewTable("company_name", "version", "assessment_date", "publication_date",
		"assumptions", "cp_unit", "projection_cutoff", "benchmark_id", "is_regional")
	alignment = tabular.NewTable("company_name", "assessment_date", "cp_alignment_year",
		"cp_alignment_value", "is_regional", "version")
	projection = tabular.NewTable("company_name", "assessment_date", "cp_projection_year",
		"cp_projection_value", "is_regional", "version")

	for _, kind := range []string{"standard", "regional"} {
		sheet, ok := sheets[kind]
		if !ok {
			continue
		}
		isRegional := kind == "regional"

		cols := tabular.Classify(sheet.Header, tabular.ClassifyOptions{YearPrefix: "Carbon Performance Alignment"})
		alignCols := tabular.YearColumns(cols)
		projCols := tabular.YearColumns(tabular.Classify(sheet.Header, tabular.ClassifyOptions{Years: true}))

		for _, row := range sheet.Rows {
			name := strings.TrimSpace(sheet.Value(row, "Company Name"))
			if !companies.Contains(name, cpVersion) {
				log.Warn("skipping CP assessment for unknown company",
					zap.String("company", name), zap.Bool("regional", isRegional))
				continue
			}

			assessmentDate := tabular.ParseDate(sheet.Value(row, "Assessment Date"))
			if assessmentDate == nil {
				continue
			}

			assessment.Append(
				name,
				cpVersion,
				assessmentDate,
				tabular.ParseDate(sheet.Value(row, "Publication Date")),
				tabular.NullIfEmpty(sheet.Value(row, "Assumptions")),
				tabular.NullIfEmpty(sheet.Value(row, "CP Unit")),
				tabular.ParseInt(sheet.Value(row, "History to Projection cutoff year")),
				tabular.NullIfEmpty(sheet.Value(row, "Benchmark ID")),
				isRegional,
			)

			for _, c := range alignCols {
				value := strings.TrimSpace(sheet.Value(row, c.Name))
				if value == "" {
					continue
				}
				alignment.Append(name, assessmentDate, c.Year, value, isRegional, cpVersion)
			}

			for _, c := range projCols {
				value := tabular.ParseFloat(sheet.Value(row, c.Name))
				if value == nil {
					continue
				}
				projection.Append(name, assessmentDate, c.Year, value, isRegional, cpVersion)
			}
		}
	}

	return assessment, alignment, projection
}

// reshapeSectorBenchmarks splits the sector benchmarks export into the
// benchmark header and the per-year projections melted from the bare-digit
// columns.
func reshapeSectorBenchmarks(sheet *tabular.Sheet) (benchmarks, projections *tabular.Table) {
	benchmarks = tabular.NewTable("benchmark_id", "sector_name", "scenario_name", "region", "release_date", "unit")
	for _, row := range sheet.Rows {
		benchmarks.Append(
			strings.TrimSpace(sheet.Value(row, "benchmark_id")),
			strings.TrimSpace(sheet.Value(row, "sector_name")),
			strings.TrimSpace(sheet.Value(row, "scenario_name")),
			tabular.NullIfEmpty(sheet.Value(row, "region")),
			tabular.ParseDate(sheet.Value(row, "release_date")),
			tabular.NullIfEmpty(sheet.Value(row, "unit")),
		)
	}

	cols := tabular.Classify(sheet.Header, tabular.ClassifyOptions{Years: true})
	projections = tabular.NewTable("benchmark_id", "sector_name", "scenario_name",
		"benchmark_projection_year", "benchmark_projection_attribute")
	for _, row := range sheet.Rows {
		for _, yc := range tabular.YearColumns(cols) {
			value := tabular.ParseFloat(sheet.Value(row, yc.Name))
			if value == nil {
				continue
			}
			projections.Append(
				strings.TrimSpace(sheet.Value(row, "benchmark_id")),
				strings.TrimSpace(sheet.Value(row, "sector_name")),
				strings.TrimSpace(sheet.Value(row, "scenario_name")),
				yc.Year,
				value,
			)
		}
	}
	return benchmarks, projections
}
