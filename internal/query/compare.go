package query

import (
	"context"

	"github.com/rotisserie/eris"
)

// Comparison sets a company's latest assessments against the previous ones.
type Comparison struct {
	CompanyName string        `json:"company_name"`
	LatestMQ    *MQAssessment `json:"latest_mq,omitempty"`
	PreviousMQ  *MQAssessment `json:"previous_mq,omitempty"`
	LevelChange *float64      `json:"level_change,omitempty"`
	LatestCP    *CPAssessment `json:"latest_cp,omitempty"`
	PreviousCP  *CPAssessment `json:"previous_cp,omitempty"`
}

// CompareCompany returns a point-in-time comparison of the company's two
// most recent MQ and CP assessments. A company with no assessments at all is
// not found; one assessment on either side leaves the previous slot empty.
func (s *Service) CompareCompany(ctx context.Context, name string) (*Comparison, error) {
	mqRows, err := s.pool.Query(ctx,
		`SELECT company_name, version, tpi_cycle, assessment_date, publication_date, level, performance_change
		 FROM tpi.mq_assessment
		 WHERE company_name = $1
		 ORDER BY assessment_date DESC, tpi_cycle DESC
		 LIMIT 2`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "query: compare MQ for %s", name)
	}
	mq, err := scanMQ(mqRows)
	mqRows.Close()
	if err != nil {
		return nil, err
	}

	cpRows, err := s.pool.Query(ctx,
		`SELECT company_name, version, assessment_date, publication_date, assumptions, cp_unit, benchmark_id, is_regional
		 FROM tpi.cp_assessment
		 WHERE company_name = $1 AND NOT is_regional
		 ORDER BY assessment_date DESC
		 LIMIT 2`,
		name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "query: compare CP for %s", name)
	}
	cp, err := scanCP(cpRows)
	cpRows.Close()
	if err != nil {
		return nil, err
	}

	if len(mq) == 0 && len(cp) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "query: no assessments for %q", name)
	}

	cmp := &Comparison{CompanyName: name}
	if len(mq) > 0 {
		cmp.LatestMQ = &mq[0]
	}
	if len(mq) > 1 {
		cmp.PreviousMQ = &mq[1]
		if mq[0].Level != nil && mq[1].Level != nil {
			change := *mq[0].Level - *mq[1].Level
			cmp.LevelChange = &change
		}
	}

	for i := range cp {
		alignments, err := s.cpAlignments(ctx, cp[i])
		if err != nil {
			return nil, err
		}
		cp[i].AlignmentByYear = alignments
	}
	if len(cp) > 0 {
		cmp.LatestCP = &cp[0]
	}
	if len(cp) > 1 {
		cmp.PreviousCP = &cp[1]
	}

	return cmp, nil
}
