package query

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Country is one sovereign entity covered by the ASCOR assessments.
type Country struct {
	CountryName      string  `json:"country_name"`
	ISO              *string `json:"iso,omitempty"`
	Region           *string `json:"region,omitempty"`
	BankLendingGroup *string `json:"bank_lending_group,omitempty"`
	IMFCategory      *string `json:"imf_category,omitempty"`
	UNPartyType      *string `json:"un_party_type,omitempty"`
}

// CountryFilter narrows a country listing.
type CountryFilter struct {
	Region string
	Page   Page
}

// ListCountries returns one page of countries plus the total match count.
func (s *Service) ListCountries(ctx context.Context, f CountryFilter) ([]Country, int, error) {
	limit, offset := f.Page.limitOffset()

	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM ascor.country WHERE ($1 = '' OR region = $1)`,
		f.Region,
	).Scan(&total)
	if err != nil {
		return nil, 0, eris.Wrap(err, "query: count countries")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT country_name, iso, region, bank_lending_group, imf_category, un_party_type
		 FROM ascor.country
		 WHERE ($1 = '' OR region = $1)
		 ORDER BY country_name
		 LIMIT $2 OFFSET $3`,
		f.Region, limit, offset,
	)
	if err != nil {
		return nil, 0, eris.Wrap(err, "query: list countries")
	}
	defer rows.Close()

	countries, err := scanCountries(rows)
	if err != nil {
		return nil, 0, err
	}
	return countries, total, nil
}

// GetCountry returns one country by name.
func (s *Service) GetCountry(ctx context.Context, name string) (*Country, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT country_name, iso, region, bank_lending_group, imf_category, un_party_type
		 FROM ascor.country
		 WHERE country_name = $1`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "query: get country %s", name)
	}
	defer rows.Close()

	countries, err := scanCountries(rows)
	if err != nil {
		return nil, err
	}
	if len(countries) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "query: country %q", name)
	}
	return &countries[0], nil
}

func scanCountries(rows pgx.Rows) ([]Country, error) {
	var out []Country
	for rows.Next() {
		var c Country
		if err := rows.Scan(&c.CountryName, &c.ISO, &c.Region, &c.BankLendingGroup,
			&c.IMFCategory, &c.UNPartyType); err != nil {
			return nil, eris.Wrap(err, "query: scan country")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AssessmentResult is one indicator-level answer from an ASCOR assessment.
type AssessmentResult struct {
	AssessmentID    int        `json:"assessment_id"`
	Code            string     `json:"code"`
	Response        *string    `json:"response,omitempty"`
	AssessmentDate  time.Time  `json:"assessment_date"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Source          *string    `json:"source,omitempty"`
	Year            *int       `json:"year,omitempty"`
	CountryName     string     `json:"country_name"`
}

// CountryAssessment returns every assessment result for one country, ordered
// by element code within each assessment date, newest assessments first.
func (s *Service) CountryAssessment(ctx context.Context, name string) ([]AssessmentResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT assessment_id, code, response, assessment_date, publication_date, source, year, country_name
		 FROM ascor.assessment_results
		 WHERE country_name = $1
		 ORDER BY assessment_date DESC, code`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "query: assessment for %s", name)
	}
	defer rows.Close()

	var out []AssessmentResult
	for rows.Next() {
		var r AssessmentResult
		if err := rows.Scan(&r.AssessmentID, &r.Code, &r.Response, &r.AssessmentDate,
			&r.PublicationDate, &r.Source, &r.Year, &r.CountryName); err != nil {
			return nil, eris.Wrap(err, "query: scan assessment result")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "query: assessment for %q", name)
	}
	return out, nil
}
