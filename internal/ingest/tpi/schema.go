package tpi

import (
	"regexp"

	"github.com/transition-pathways/climate-ingest/internal/validate"
)

// Rules implements ingest.Dataset.
func (d *Dataset) Rules() map[string]validate.RuleSet {
	return map[string]validate.RuleSet{
		"sector_benchmark": {
			Required:  []string{"benchmark_id", "sector_name", "scenario_name"},
			UniqueKey: []string{"benchmark_id", "sector_name", "scenario_name"},
		},
		"benchmark_projection": {
			Required:  []string{"benchmark_id", "sector_name", "scenario_name", "benchmark_projection_year"},
			IntRanges: map[string]validate.Range{"benchmark_projection_year": {Min: 2000, Max: 2100}},
		},
		"company": {
			Required:  []string{"company_name", "version"},
			UniqueKey: []string{"company_name", "version"},
			Formats:   map[string]*regexp.Regexp{"version": validate.VersionPattern},
		},
		"company_answer": {
			Required:  []string{"question_code", "response", "company_name", "version"},
			UniqueKey: []string{"question_code", "company_name", "version"},
		},
		"mq_assessment": {
			Required:  []string{"assessment_date", "company_name", "version", "tpi_cycle"},
			UniqueKey: []string{"assessment_date", "company_name", "version", "tpi_cycle"},
			IntRanges: map[string]validate.Range{"tpi_cycle": {Min: 1, Max: 5}},
		},
		"cp_assessment": {
			Required:  []string{"company_name", "version", "assessment_date"},
			UniqueKey: []string{"assessment_date", "company_name", "version", "is_regional"},
		},
		"cp_alignment": {
			Required:   []string{"company_name", "assessment_date", "cp_alignment_year"},
			UniqueKey:  []string{"cp_alignment_year", "assessment_date", "company_name", "version", "is_regional"},
			IntRanges:  map[string]validate.Range{"cp_alignment_year": {Min: 2000, Max: 2100}},
			AllowEmpty: true,
		},
		"cp_projection": {
			Required:   []string{"company_name", "assessment_date", "cp_projection_year"},
			UniqueKey:  []string{"cp_projection_year", "assessment_date", "company_name", "version", "is_regional"},
			IntRanges:  map[string]validate.Range{"cp_projection_year": {Min: 2000, Max: 2100}},
			AllowEmpty: true,
		},
	}
}

// CreateSQL implements ingest.Dataset. Tables are created parents first.
func (d *Dataset) CreateSQL() []string {
	return []string{
		`CREATE SCHEMA IF NOT EXISTS tpi`,
		`CREATE TABLE IF NOT EXISTS tpi.sector_benchmark (
			benchmark_id  TEXT NOT NULL,
			sector_name   TEXT NOT NULL,
			scenario_name TEXT NOT NULL,
			region        TEXT,
			release_date  DATE,
			unit          TEXT,
			PRIMARY KEY (benchmark_id, sector_name, scenario_name)
		)`,
		`CREATE TABLE IF NOT EXISTS tpi.benchmark_projection (
			benchmark_id                  TEXT NOT NULL,
			sector_name                   TEXT NOT NULL,
			scenario_name                 TEXT NOT NULL,
			benchmark_projection_year     INTEGER NOT NULL,
			benchmark_projection_attribute DOUBLE PRECISION,
			PRIMARY KEY (benchmark_id, sector_name, scenario_name, benchmark_projection_year),
			FOREIGN KEY (benchmark_id, sector_name, scenario_name)
				REFERENCES tpi.sector_benchmark (benchmark_id, sector_name, scenario_name)
		)`,
		`CREATE TABLE IF NOT EXISTS tpi.company (
			company_name        TEXT NOT NULL,
			version             TEXT NOT NULL,
			geography           TEXT,
			geography_code      TEXT,
			sector_name         TEXT,
			ca100_focus         TEXT,
			size_classification TEXT,
			isin                TEXT,
			sedol               TEXT,
			PRIMARY KEY (company_name, version)
		)`,
		`CREATE TABLE IF NOT EXISTS tpi.company_answer (
			question_code TEXT NOT NULL,
			company_name  TEXT NOT NULL,
			version       TEXT NOT NULL,
			question_text TEXT,
			response      TEXT NOT NULL,
			PRIMARY KEY (question_code, company_name, version),
			FOREIGN KEY (company_name, version) REFERENCES tpi.company (company_name, version)
		)`,
		`CREATE TABLE IF NOT EXISTS tpi.mq_assessment (
			assessment_date    DATE NOT NULL,
			company_name       TEXT NOT NULL,
			version            TEXT NOT NULL,
			tpi_cycle          INTEGER NOT NULL,
			publication_date   DATE,
			level              DOUBLE PRECISION,
			performance_change TEXT,
			PRIMARY KEY (assessment_date, company_name, version, tpi_cycle),
			FOREIGN KEY (company_name, version) REFERENCES tpi.company (company_name, version)
		)`,
		`CREATE TABLE IF NOT EXISTS tpi.cp_assessment (
			assessment_date   DATE NOT NULL,
			company_name      TEXT NOT NULL,
			version           TEXT NOT NULL,
			is_regional       BOOLEAN NOT NULL,
			publication_date  DATE,
			assumptions       TEXT,
			cp_unit           TEXT,
			projection_cutoff INTEGER,
			benchmark_id      TEXT,
			PRIMARY KEY (assessment_date, company_name, version, is_regional),
			FOREIGN KEY (company_name, version) REFERENCES tpi.company (company_name, version)
		)`,
		`CREATE TABLE IF NOT EXISTS tpi.cp_alignment (
			cp_alignment_year  INTEGER NOT NULL,
			cp_alignment_value TEXT,
			assessment_date    DATE NOT NULL,
			company_name       TEXT NOT NULL,
			version            TEXT NOT NULL,
			is_regional        BOOLEAN NOT NULL,
			PRIMARY KEY (cp_alignment_year, assessment_date, company_name, version, is_regional),
			FOREIGN KEY (company_name, version) REFERENCES tpi.company (company_name, version)
		)`,
		`CREATE TABLE IF NOT EXISTS tpi.cp_projection (
			cp_projection_year  INTEGER NOT NULL,
			cp_projection_value DOUBLE PRECISION,
			assessment_date     DATE NOT NULL,
			company_name        TEXT NOT NULL,
			version             TEXT NOT NULL,
			is_regional         BOOLEAN NOT NULL,
			PRIMARY KEY (cp_projection_year, assessment_date, company_name, version, is_regional),
			FOREIGN KEY (company_name, version) REFERENCES tpi.company (company_name, version)
		)`,
	}
}

// DropSQL implements ingest.Dataset. Children drop first; the audit schema
// is untouched.
func (d *Dataset) DropSQL() []string {
	return []string{
		`DROP TABLE IF EXISTS tpi.cp_projection CASCADE`,
		`DROP TABLE IF EXISTS tpi.cp_alignment CASCADE`,
		`DROP TABLE IF EXISTS tpi.cp_assessment CASCADE`,
		`DROP TABLE IF EXISTS tpi.mq_assessment CASCADE`,
		`DROP TABLE IF EXISTS tpi.company_answer CASCADE`,
		`DROP TABLE IF EXISTS tpi.company CASCADE`,
		`DROP TABLE IF EXISTS tpi.benchmark_projection CASCADE`,
		`DROP TABLE IF EXISTS tpi.sector_benchmark CASCADE`,
	}
}
