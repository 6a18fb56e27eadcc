package ascor

import (
	"strings"

	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/reffilter"
	"github.com/transition-pathways/climate-ingest/internal/tabular"
)

// reshapeCountry selects the country attributes from the raw export.
func reshapeCountry(sheet *tabular.Sheet) *tabular.Table {
	out := tabular.NewTable("country_name", "iso", "region", "bank_lending_group", "imf_category", "un_party_type")
	for _, row := range sheet.Rows {
		name := strings.TrimSpace(sheet.Value(row, "Name"))
		if name == "" {
			continue
		}
		out.Append(
			name,
			tabular.NullIfEmpty(sheet.Value(row, "Country ISO code")),
			tabular.NullIfEmpty(sheet.Value(row, "Region")),
			tabular.NullIfEmpty(sheet.Value(row, "World Bank lending group")),
			tabular.NullIfEmpty(sheet.Value(row, "International Monetary Fund fiscal monitor category")),
			tabular.NullIfEmpty(sheet.Value(row, "Type of Party to the United Nations Framework Convention on Climate Change")),
		)
	}
	return out
}

// reshapeBenchmarks splits the benchmarks export into the benchmark header
// relation and the per-year values melted from the bare-digit columns.
func reshapeBenchmarks(sheet *tabular.Sheet, countries *reffilter.KeySet) (benchmarks, values *tabular.Table) {
	benchmarks = tabular.NewTable("benchmark_id", "publication_date", "emissions_metric",
		"emissions_boundary", "units", "benchmark_type", "country_name")
	for _, row := range sheet.Rows {
		benchmarks.Append(
			tabular.ParseInt(sheet.Value(row, "id")),
			tabular.ParseDate(sheet.Value(row, "publication_date")),
			tabular.NullIfEmpty(sheet.Value(row, "emissions_metric")),
			tabular.NullIfEmpty(sheet.Value(row, "emissions_boundary")),
			tabular.NullIfEmpty(sheet.Value(row, "units")),
			tabular.NullIfEmpty(sheet.Value(row, "benchmark_type")),
			strings.TrimSpace(sheet.Value(row, "country")),
		)
	}
	benchmarks, _ = reffilter.Filter(benchmarks, []string{"country_name"}, countries)

	cols := tabular.Classify(sheet.Header, tabular.ClassifyOptions{Years: true})
	values = tabular.NewTable("benchmark_id", "year", "value")
	for _, row := range sheet.Rows {
		id := tabular.ParseInt(sheet.Value(row, "id"))
		for _, yc := range tabular.YearColumns(cols) {
			value := tabular.ParseFloat(sheet.Value(row, yc.Name))
			if value == nil {
				continue
			}
			values.Append(id, yc.Year, value)
		}
	}
	values, _ = reffilter.Filter(values, []string{"benchmark_id"}, reffilter.NewKeySet(benchmarks, "benchmark_id"))
	return benchmarks, values
}

// reshapeElements selects the assessment element catalogue. Elements without
// a response type default to "Not specified".
func reshapeElements(sheet *tabular.Sheet) *tabular.Table {
	out := tabular.NewTable("code", "text", "response_type", "type")
	for _, row := range sheet.Rows {
		code := strings.TrimSpace(sheet.Value(row, "code"))
		if code == "" {
			continue
		}
		out.Append(
			code,
			strings.TrimSpace(sheet.Value(row, "text")),
			tabular.Default(sheet.Value(row, "units_or_response_type"), "Not specified"),
			strings.TrimSpace(sheet.Value(row, "type")),
		)
	}
	return out
}

// resultRoles are the coded response column prefixes in the results export.
// The sibling "year <col>" and "source <col>" columns are looked up per
// response column, not exploded themselves.
var resultRoles = []string{"area", "indicator", "metric"}

// reshapeResults explodes each coded response column into one row per
// (assessment, code). Rows for unknown countries or element codes are
// dropped and logged.
func reshapeResults(sheet *tabular.Sheet, countries, elementCodes *reffilter.KeySet) *tabular.Table {
	log := zap.L().With(zap.String("component", "ascor"))
	cols := tabular.Classify(sheet.Header, tabular.ClassifyOptions{Roles: resultRoles})

	out := tabular.NewTable("assessment_id", "response", "assessment_date", "publication_date",
		"source", "year", "code", "country_name")

	for _, row := range sheet.Rows {
		country := strings.TrimSpace(sheet.Value(row, "Country"))
		if !countries.Contains(country) {
			log.Warn("skipping assessment results for unknown country", zap.String("country", country))
			continue
		}

		assessmentID := tabular.ParseInt(sheet.Value(row, "Id"))
		assessmentDate := tabular.ParseDate(sheet.Value(row, "Assessment date"))
		publicationDate := tabular.ParseDate(sheet.Value(row, "Publication date"))

		for _, c := range cols {
			if c.Class != tabular.ClassRoleCoded {
				continue
			}
			out.Append(
				assessmentID,
				tabular.NullIfEmpty(sheet.Value(row, c.Name)),
				assessmentDate,
				publicationDate,
				tabular.NullIfEmpty(sheet.Value(row, "source "+c.Name)),
				tabular.ParseInt(sheet.Value(row, "year "+c.Name)),
				c.Code,
				country,
			)
		}
	}

	out, _ = reffilter.Filter(out, []string{"code"}, elementCodes)
	return out
}

// reshapeTrends splits the trends export into the trend header relation, the
// melted 2021-2030 pathway values, and the single hardcoded metric column
// pair the export carries for EP1.a.i.
func reshapeTrends(sheet *tabular.Sheet, countries *reffilter.KeySet) (trends, valuePerYear, trendValues *tabular.Table) {
	trends = tabular.NewTable("trend_id", "country_name", "emissions_metric", "emissions_boundary",
		"units", "assessment_date", "publication_date", "last_historical_year")
	for _, row := range sheet.Rows {
		trends.Append(
			tabular.ParseInt(sheet.Value(row, "id")),
			strings.TrimSpace(sheet.Value(row, "country")),
			tabular.NullIfEmpty(sheet.Value(row, "emissions_metric")),
			tabular.NullIfEmpty(sheet.Value(row, "emissions_boundary")),
			tabular.NullIfEmpty(sheet.Value(row, "units")),
			tabular.ParseDate(sheet.Value(row, "assessment_date")),
			tabular.ParseDate(sheet.Value(row, "publication_date")),
			tabular.ParseInt(sheet.Value(row, "last_historical_year")),
		)
	}
	trends, _ = reffilter.Filter(trends, []string{"country_name"}, countries)
	trendIDs := reffilter.NewKeySet(trends, "trend_id")

	cols := tabular.Classify(sheet.Header, tabular.ClassifyOptions{Years: true, MinYear: 2021, MaxYear: 2030})
	valuePerYear = tabular.NewTable("trend_id", "country_name", "year", "value")
	for _, row := range sheet.Rows {
		id := tabular.ParseInt(sheet.Value(row, "id"))
		country := strings.TrimSpace(sheet.Value(row, "country"))
		for _, yc := range tabular.YearColumns(cols) {
			value := tabular.ParseFloat(sheet.Value(row, yc.Name))
			if value == nil {
				continue
			}
			valuePerYear.Append(id, country, yc.Year, value)
		}
	}
	valuePerYear, _ = reffilter.Filter(valuePerYear, []string{"country_name"}, countries)
	valuePerYear, _ = reffilter.Filter(valuePerYear, []string{"trend_id"}, trendIDs)

	trendValues = tabular.NewTable("trend_id", "country_name", "year", "value")
	if sheet.HasCol("year_metric_ep1.a.i") && sheet.HasCol("metric_ep1.a.i") {
		for _, row := range sheet.Rows {
			year := tabular.ParseInt(sheet.Value(row, "year_metric_ep1.a.i"))
			value := tabular.ParseFloat(sheet.Value(row, "metric_ep1.a.i"))
			if year == nil || value == nil {
				continue
			}
			trendValues.Append(
				tabular.ParseInt(sheet.Value(row, "id")),
				strings.TrimSpace(sheet.Value(row, "country")),
				year,
				value,
			)
		}
		trendValues, _ = reffilter.Filter(trendValues, []string{"country_name"}, countries)
		trendValues, _ = reffilter.Filter(trendValues, []string{"trend_id"}, trendIDs)
	}

	return trends, valuePerYear, trendValues
}
