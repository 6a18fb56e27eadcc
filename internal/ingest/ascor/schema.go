package ascor

import (
	"regexp"

	"github.com/transition-pathways/climate-ingest/internal/validate"
)

// Rules implements ingest.Dataset.
func (d *Dataset) Rules() map[string]validate.RuleSet {
	return map[string]validate.RuleSet{
		"country": {
			Required:  []string{"country_name"},
			UniqueKey: []string{"country_name"},
			Formats:   map[string]*regexp.Regexp{"iso": validate.ISOPattern},
		},
		"benchmarks": {
			Required:  []string{"benchmark_id", "country_name"},
			UniqueKey: []string{"benchmark_id"},
		},
		"benchmark_values": {
			Required:  []string{"benchmark_id", "year", "value"},
			IntRanges: map[string]validate.Range{"year": {Min: 2000, Max: 2100}},
		},
		"assessment_elements": {
			Required:  []string{"code", "text", "response_type", "type"},
			UniqueKey: []string{"code"},
			Formats:   map[string]*regexp.Regexp{"code": validate.CodePattern},
		},
		"assessment_results": {
			Required:  []string{"assessment_id", "code", "country_name", "assessment_date"},
			UniqueKey: []string{"assessment_id", "code"},
			IntRanges: map[string]validate.Range{"year": {Min: 2000, Max: 2100}},
		},
		"assessment_trends": {
			Required: []string{"trend_id", "country_name"},
		},
		"value_per_year": {
			Required:   []string{"trend_id", "year", "value"},
			IntRanges:  map[string]validate.Range{"year": {Min: 2021, Max: 2030}},
			AllowEmpty: true,
		},
		"trend_values": {
			Required:   []string{"trend_id", "year", "value"},
			AllowEmpty: true,
		},
	}
}

// CreateSQL implements ingest.Dataset. Tables are created parents first.
func (d *Dataset) CreateSQL() []string {
	return []string{
		`CREATE SCHEMA IF NOT EXISTS ascor`,
		`CREATE TABLE IF NOT EXISTS ascor.country (
			country_name       TEXT PRIMARY KEY,
			iso                TEXT,
			region             TEXT,
			bank_lending_group TEXT,
			imf_category       TEXT,
			un_party_type      TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ascor.benchmarks (
			benchmark_id       INTEGER PRIMARY KEY,
			publication_date   DATE,
			emissions_metric   TEXT,
			emissions_boundary TEXT,
			units              TEXT,
			benchmark_type     TEXT,
			country_name       TEXT REFERENCES ascor.country (country_name)
		)`,
		`CREATE TABLE IF NOT EXISTS ascor.benchmark_values (
			benchmark_id INTEGER NOT NULL REFERENCES ascor.benchmarks (benchmark_id),
			year         INTEGER NOT NULL,
			value        DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (benchmark_id, year)
		)`,
		`CREATE TABLE IF NOT EXISTS ascor.assessment_elements (
			code          TEXT PRIMARY KEY,
			text          TEXT NOT NULL,
			response_type TEXT NOT NULL,
			type          TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ascor.assessment_results (
			assessment_id    INTEGER NOT NULL,
			code             TEXT NOT NULL REFERENCES ascor.assessment_elements (code),
			response         TEXT,
			assessment_date  DATE NOT NULL,
			publication_date DATE,
			source           TEXT,
			year             INTEGER,
			country_name     TEXT NOT NULL REFERENCES ascor.country (country_name),
			PRIMARY KEY (assessment_id, code)
		)`,
		`CREATE TABLE IF NOT EXISTS ascor.assessment_trends (
			trend_id             INTEGER NOT NULL,
			country_name         TEXT NOT NULL REFERENCES ascor.country (country_name),
			emissions_metric     TEXT,
			emissions_boundary   TEXT,
			units                TEXT,
			assessment_date      DATE,
			publication_date     DATE,
			last_historical_year INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS ascor.value_per_year (
			trend_id     INTEGER NOT NULL,
			country_name TEXT NOT NULL REFERENCES ascor.country (country_name),
			year         INTEGER NOT NULL,
			value        DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ascor.trend_values (
			trend_id     INTEGER NOT NULL,
			country_name TEXT NOT NULL REFERENCES ascor.country (country_name),
			year         INTEGER NOT NULL,
			value        DOUBLE PRECISION NOT NULL
		)`,
	}
}

// DropSQL implements ingest.Dataset. Children drop first; the audit schema
// is untouched.
func (d *Dataset) DropSQL() []string {
	return []string{
		`DROP TABLE IF EXISTS ascor.trend_values CASCADE`,
		`DROP TABLE IF EXISTS ascor.value_per_year CASCADE`,
		`DROP TABLE IF EXISTS ascor.assessment_trends CASCADE`,
		`DROP TABLE IF EXISTS ascor.assessment_results CASCADE`,
		`DROP TABLE IF EXISTS ascor.assessment_elements CASCADE`,
		`DROP TABLE IF EXISTS ascor.benchmark_values CASCADE`,
		`DROP TABLE IF EXISTS ascor.benchmarks CASCADE`,
		`DROP TABLE IF EXISTS ascor.country CASCADE`,
	}
}
