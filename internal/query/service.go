// Package query serves read access to the loaded datasets and the
// incremental company metadata refresh.
package query

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/transition-pathways/climate-ingest/internal/db"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = eris.New("query: not found")

// Page bounds a paginated listing. Zero values fall back to the defaults;
// out-of-range values are clamped.
type Page struct {
	Page     int
	PageSize int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p Page) limitOffset() (limit, offset int) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size, (page - 1) * size
}

// Service answers queries against the loaded schemas.
type Service struct {
	pool db.Pool
}

// NewService creates a Service backed by the given connection pool.
func NewService(pool db.Pool) *Service {
	return &Service{pool: pool}
}

// Company is one (company, methodology version) record.
type Company struct {
	CompanyName        string  `json:"company_name"`
	Version            string  `json:"version"`
	Geography          *string `json:"geography,omitempty"`
	GeographyCode      *string `json:"geography_code,omitempty"`
	SectorName         *string `json:"sector_name,omitempty"`
	CA100Focus         *string `json:"ca100_focus,omitempty"`
	SizeClassification *string `json:"size_classification,omitempty"`
	ISIN               *string `json:"isin,omitempty"`
	SEDOL              *string `json:"sedol,omitempty"`
}

// CompanyFilter narrows a company listing.
type CompanyFilter struct {
	Sector    string
	Geography string
	Page      Page
}

var companyCols = `company_name, version, geography, geography_code, sector_name,
	ca100_focus, size_classification, isin, sedol`

// ListCompanies returns one page of companies plus the total match count.
func (s *Service) ListCompanies(ctx context.Context, f CompanyFilter) ([]Company, int, error) {
	limit, offset := f.Page.limitOffset()

	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM tpi.company
		 WHERE ($1 = '' OR sector_name = $1) AND ($2 = '' OR geography = $2)`,
		f.Sector, f.Geography,
	).Scan(&total)
	if err != nil {
		return nil, 0, eris.Wrap(err, "query: count companies")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+companyCols+`
		 FROM tpi.company
		 WHERE ($1 = '' OR sector_name = $1) AND ($2 = '' OR geography = $2)
		 ORDER BY company_name, version DESC
		 LIMIT $3 OFFSET $4`,
		f.Sector, f.Geography, limit, offset,
	)
	if err != nil {
		return nil, 0, eris.Wrap(err, "query: list companies")
	}
	defer rows.Close()

	companies, err := scanCompanies(rows)
	if err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// GetCompany returns the record for a company's most recent methodology
// version.
func (s *Service) GetCompany(ctx context.Context, name string) (*Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyCols+`
		 FROM tpi.company
		 WHERE company_name = $1
		 ORDER BY version DESC
		 LIMIT 1`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "query: get company %s", name)
	}
	defer rows.Close()

	companies, err := scanCompanies(rows)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "query: company %q", name)
	}
	return &companies[0], nil
}

func scanCompanies(rows pgx.Rows) ([]Company, error) {
	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.CompanyName, &c.Version, &c.Geography, &c.GeographyCode,
			&c.SectorName, &c.CA100Focus, &c.SizeClassification, &c.ISIN, &c.SEDOL); err != nil {
			return nil, eris.Wrap(err, "query: scan company")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MQAssessment is one management quality assessment.
type MQAssessment struct {
	CompanyName       string     `json:"company_name"`
	Version           string     `json:"version"`
	TPICycle          int        `json:"tpi_cycle"`
	AssessmentDate    time.Time  `json:"assessment_date"`
	PublicationDate   *time.Time `json:"publication_date,omitempty"`
	Level             *float64   `json:"level,omitempty"`
	PerformanceChange *string    `json:"performance_change,omitempty"`
}

// MQFilter narrows an MQ assessment listing. A zero Cycle means all cycles.
type MQFilter struct {
	Cycle int
	Page  Page
}

// ListMQAssessments returns the latest assessment per company, optionally
// restricted to one methodology cycle.
func (s *Service) ListMQAssessments(ctx context.Context, f MQFilter) ([]MQAssessment, error) {
	limit, offset := f.Page.limitOffset()

	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (company_name)
		        company_name, version, tpi_cycle, assessment_date, publication_date, level, performance_change
		 FROM tpi.mq_assessment
		 WHERE ($1 = 0 OR tpi_cycle = $1)
		 ORDER BY company_name, assessment_date DESC
		 LIMIT $2 OFFSET $3`,
		f.Cycle, limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "query: list MQ assessments")
	}
	defer rows.Close()

	return scanMQ(rows)
}

// CompanyMQHistory returns every MQ assessment for one company across all
// methodology cycles, oldest first.
func (s *Service) CompanyMQHistory(ctx context.Context, name string) ([]MQAssessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_name, version, tpi_cycle, assessment_date, publication_date, level, performance_change
		 FROM tpi.mq_assessment
		 WHERE company_name = $1
		 ORDER BY assessment_date, tpi_cycle`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "query: MQ history for %s", name)
	}
	defer rows.Close()

	history, err := scanMQ(rows)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "query: MQ history for %q", name)
	}
	return history, nil
}

func scanMQ(rows pgx.Rows) ([]MQAssessment, error) {
	var out []MQAssessment
	for rows.Next() {
		var a MQAssessment
		if err := rows.Scan(&a.CompanyName, &a.Version, &a.TPICycle, &a.AssessmentDate,
			&a.PublicationDate, &a.Level, &a.PerformanceChange); err != nil {
			return nil, eris.Wrap(err, "query: scan MQ assessment")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CPAssessment is one carbon performance assessment with its alignment
// verdicts for the reporting years.
type CPAssessment struct {
	CompanyName     string         `json:"company_name"`
	Version         string         `json:"version"`
	AssessmentDate  time.Time      `json:"assessment_date"`
	PublicationDate *time.Time     `json:"publication_date,omitempty"`
	Assumptions     *string        `json:"assumptions,omitempty"`
	CPUnit          *string        `json:"cp_unit,omitempty"`
	BenchmarkID     *string        `json:"benchmark_id,omitempty"`
	IsRegional      bool           `json:"is_regional"`
	AlignmentByYear map[int]string `json:"alignment_by_year,omitempty"`
}

// CompanyCPHistory returns every CP assessment for one company, newest
// first, each carrying its per-year alignment verdicts.
func (s *Service) CompanyCPHistory(ctx context.Context, name string) ([]CPAssessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_name, version, assessment_date, publication_date, assumptions, cp_unit, benchmark_id, is_regional
		 FROM tpi.cp_assessment
		 WHERE company_name = $1
		 ORDER BY assessment_date DESC, is_regional`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "query: CP history for %s", name)
	}
	defer rows.Close()

	out, err := scanCP(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "query: CP history for %q", name)
	}

	for i := range out {
		alignments, err := s.cpAlignments(ctx, out[i])
		if err != nil {
			return nil, err
		}
		out[i].AlignmentByYear = alignments
	}
	return out, nil
}

// ListCPAssessments returns the latest CP assessment per company, each
// carrying its per-year alignment verdicts.
func (s *Service) ListCPAssessments(ctx context.Context, page Page) ([]CPAssessment, error) {
	limit, offset := page.limitOffset()

	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (company_name)
		        company_name, version, assessment_date, publication_date, assumptions, cp_unit, benchmark_id, is_regional
		 FROM tpi.cp_assessment
		 ORDER BY company_name, assessment_date DESC, is_regional
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "query: list CP assessments")
	}
	defer rows.Close()

	out, err := scanCP(rows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		alignments, err := s.cpAlignments(ctx, out[i])
		if err != nil {
			return nil, err
		}
		out[i].AlignmentByYear = alignments
	}
	return out, nil
}

func scanCP(rows pgx.Rows) ([]CPAssessment, error) {
	var out []CPAssessment
	for rows.Next() {
		var a CPAssessment
		if err := rows.Scan(&a.CompanyName, &a.Version, &a.AssessmentDate, &a.PublicationDate,
			&a.Assumptions, &a.CPUnit, &a.BenchmarkID, &a.IsRegional); err != nil {
			return nil, eris.Wrap(err, "query: scan CP assessment")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Service) cpAlignments(ctx context.Context, a CPAssessment) (map[int]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cp_alignment_year, cp_alignment_value
		 FROM tpi.cp_alignment
		 WHERE company_name = $1 AND assessment_date = $2 AND version = $3 AND is_regional = $4`,
		a.CompanyName, a.AssessmentDate, a.Version, a.IsRegional,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "query: alignments for %s", a.CompanyName)
	}
	defer rows.Close()

	out := make(map[int]string)
	for rows.Next() {
		var year int
		var value *string
		if err := rows.Scan(&year, &value); err != nil {
			return nil, eris.Wrap(err, "query: scan alignment")
		}
		if value != nil {
			out[year] = *value
		}
	}
	return out, rows.Err()
}

// UpsertCompanyMeta refreshes company metadata incrementally without a full
// pipeline run. Existing (company, version) rows are updated in place.
func (s *Service) UpsertCompanyMeta(ctx context.Context, companies []Company) (int64, error) {
	rows := make([][]any, len(companies))
	for i, c := range companies {
		rows[i] = []any{c.CompanyName, c.Version, c.Geography, c.GeographyCode, c.SectorName,
			c.CA100Focus, c.SizeClassification, c.ISIN, c.SEDOL}
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: "tpi.company",
		Columns: []string{"company_name", "version", "geography", "geography_code", "sector_name",
			"ca100_focus", "size_classification", "isin", "sedol"},
		ConflictKeys: []string{"company_name", "version"},
	}, rows)
}
