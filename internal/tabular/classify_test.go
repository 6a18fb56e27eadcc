package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_RoleCoded(t *testing.T) {
	header := []string{"Id", "Country", "indicator EP.1.a", "year metric EP.1.a.i", "source indicator EP.1.a"}
	cols := Classify(header, ClassifyOptions{Roles: []string{"area", "indicator", "metric", "year", "source"}})

	assert.Equal(t, ClassIdentity, cols[0].Class)
	assert.Equal(t, ClassIdentity, cols[1].Class)

	require.Equal(t, ClassRoleCoded, cols[2].Class)
	assert.Equal(t, "indicator", cols[2].Role)
	assert.Equal(t, "EP.1.a", cols[2].Code)

	require.Equal(t, ClassRoleCoded, cols[3].Class)
	assert.Equal(t, "year", cols[3].Role)
	assert.Equal(t, "metric EP.1.a.i", cols[3].Code)

	require.Equal(t, ClassRoleCoded, cols[4].Class)
	assert.Equal(t, "source", cols[4].Role)
}

func TestClassify_BareYears(t *testing.T) {
	header := []string{"id", "units", "2020", "2035", "1850", "notayear"}
	cols := Classify(header, ClassifyOptions{Years: true, MinYear: 2000, MaxYear: 2100})

	assert.Equal(t, ClassIdentity, cols[0].Class)
	assert.Equal(t, ClassYear, cols[2].Class)
	assert.Equal(t, 2020, cols[2].Year)
	assert.Equal(t, ClassYear, cols[3].Class)
	assert.Equal(t, ClassIdentity, cols[4].Class, "out of range year stays identity")
	assert.Equal(t, ClassIdentity, cols[5].Class)
}

func TestClassify_YearPrefix(t *testing.T) {
	header := []string{"Company Name", "Carbon Performance Alignment 2025", "Carbon Performance Alignment 2050"}
	cols := Classify(header, ClassifyOptions{YearPrefix: "Carbon Performance Alignment"})

	assert.Equal(t, ClassIdentity, cols[0].Class)
	require.Equal(t, ClassYear, cols[1].Class)
	assert.Equal(t, 2025, cols[1].Year)
	assert.Equal(t, 2050, cols[2].Year)
}

func TestClassify_Questions(t *testing.T) {
	header := []string{"Company Name", "Q1L0|Does the company acknowledge climate change?"}
	cols := Classify(header, ClassifyOptions{Questions: true})

	require.Equal(t, ClassQuestion, cols[1].Class)
	assert.Equal(t, "Q1L0", cols[1].Code)
	assert.Equal(t, "Does the company acknowledge climate change?", cols[1].Text)
}

func TestClassify_ZeroOptions(t *testing.T) {
	header := []string{"2025", "indicator EP.1.a", "Q1|text"}
	for _, c := range Classify(header, ClassifyOptions{}) {
		assert.Equal(t, ClassIdentity, c.Class)
	}
}

func TestColumnFilters(t *testing.T) {
	header := []string{"id", "2021", "2022", "indicator EP.1.a", "metric EP.1.a.i"}
	cols := Classify(header, ClassifyOptions{Years: true, Roles: []string{"indicator", "metric"}})

	assert.Len(t, YearColumns(cols), 2)
	assert.Len(t, RoleColumns(cols, "indicator"), 1)
	assert.Len(t, RoleColumns(cols, "metric"), 1)
	assert.Empty(t, QuestionColumns(cols))
}
