package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFromSchema_EmptyRows(t *testing.T) {
	n, err := CopyFromSchema(context.TODO(), nil, "ascor", "country", []string{"country_name"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFromSchema_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"ascor", "country"}, []string{"country_name", "iso"}).WillReturnResult(2)

	rows := [][]any{{"France", "FRA"}, {"Germany", "DEU"}}
	n, err := CopyFromSchema(context.Background(), mock, "ascor", "country", []string{"country_name", "iso"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"tpi", "company"}, []string{"company_name"}).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFromSchema(context.Background(), mock, "tpi", "company", []string{"company_name"}, [][]any{{"Acme"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO tpi.company")
	assert.NoError(t, mock.ExpectationsWereMet())
}
