package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_Start(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO audit\.pipeline_log`).
		WithArgs("tpi", StatusStarted).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	log := NewAuditLog(mock)
	id, err := log.Start(context.Background(), "tpi")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_Complete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE audit\.pipeline_log`).
		WithArgs(StatusCompleted, int64(1234), pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	log := NewAuditLog(mock)
	err = log.Complete(context.Background(), 7, StatusCompleted, 1234, map[string]any{"relations": 8})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_Fail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE audit\.pipeline_log`).
		WithArgs(StatusValidationFailed, "company: relation is empty", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	log := NewAuditLog(mock)
	err = log.Fail(context.Background(), 7, StatusValidationFailed, "company: relation is empty")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	started := time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC)
	completed := started.Add(2 * time.Minute)

	mock.ExpectQuery(`SELECT .+ FROM audit\.pipeline_log WHERE dataset = \$1`).
		WithArgs("ascor").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "dataset", "status", "started_at", "completed_at", "rows_loaded",
			"table_name", "source_file", "error", "metadata",
		}).AddRow(int64(2), "ascor", StatusCompleted, started, &completed, int64(900),
			ptrTo("ascor.country"), ptrTo("ASCOR_countries.csv"), (*string)(nil), []byte(`{"warnings":[]}`)))

	log := NewAuditLog(mock)
	entries, err := log.List(context.Background(), "ascor", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusCompleted, entries[0].Status)
	assert.Equal(t, int64(900), entries[0].RowsLoaded)
	assert.Equal(t, "ascor.country", entries[0].TableName)
	assert.NotNil(t, entries[0].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptrTo[T any](v T) *T { return &v }

func TestAuditLog_RecordLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO audit\.pipeline_log`).
		WithArgs("tpi", StatusCompleted, int64(42), "tpi.company", "Company_Latest_Assessments_5.0.csv").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	log := NewAuditLog(mock)
	err = log.RecordLoad(context.Background(), "tpi", "tpi.company", "Company_Latest_Assessments_5.0.csv", 42)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_RecordValidation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO audit\.pipeline_log`).
		WithArgs("ascor", StatusValidationWarnings, "country: 2 null values in required column iso").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	log := NewAuditLog(mock)
	err = log.RecordValidation(context.Background(), "ascor", StatusValidationWarnings,
		"country: 2 null values in required column iso")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
