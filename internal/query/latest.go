package query

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// LatestAssessment is the most recent assessment found for a company, tagged
// with the pipeline that produced it.
type LatestAssessment struct {
	CompanyName    string    `json:"company_name"`
	Source         string    `json:"source"`
	AssessmentDate time.Time `json:"assessment_date"`
}

// assessmentMatcher probes one assessment table for a company's newest date.
type assessmentMatcher struct {
	source string
	sql    string
}

// latestMatchers are tried in order; the first hit wins. Carbon performance
// outranks management quality because it is refreshed more often.
var latestMatchers = []assessmentMatcher{
	{source: "cp", sql: `SELECT max(assessment_date) FROM tpi.cp_assessment WHERE company_name = $1`},
	{source: "mq", sql: `SELECT max(assessment_date) FROM tpi.mq_assessment WHERE company_name = $1`},
}

// ResolveLatestAssessment walks the matcher chain and returns the first
// assessment date found for the company.
func (s *Service) ResolveLatestAssessment(ctx context.Context, name string) (*LatestAssessment, error) {
	for _, m := range latestMatchers {
		var date *time.Time
		err := s.pool.QueryRow(ctx, m.sql, name).Scan(&date)
		if err != nil {
			return nil, eris.Wrapf(err, "query: latest %s assessment for %s", m.source, name)
		}
		if date == nil {
			continue
		}
		return &LatestAssessment{CompanyName: name, Source: m.source, AssessmentDate: *date}, nil
	}
	return nil, eris.Wrapf(ErrNotFound, "query: no assessments for %q", name)
}
