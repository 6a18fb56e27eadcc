package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "Name ,Country ISO code\n France ,FRA\nGermany,DEU\n")

	sheet, err := ReadCSV(path, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Country ISO code"}, sheet.Header)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "France", sheet.Value(sheet.Rows[0], "Name"))
	assert.Equal(t, "DEU", sheet.Value(sheet.Rows[1], "Country ISO code"))
}

func TestReadCSV_SnakeHeader(t *testing.T) {
	path := writeCSV(t, "Publication date,Emissions metric\n2025-01-13,Intensity\n")

	sheet, err := ReadCSV(path, ReadOptions{SnakeHeader: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"publication_date", "emissions_metric"}, sheet.Header)
	assert.Equal(t, "2025-01-13", sheet.Value(sheet.Rows[0], "publication_date"))
}

func TestReadCSV_ByteOrderMark(t *testing.T) {
	path := writeCSV(t, "\xef\xbb\xbfName,Region\nFrance,Europe\n")

	sheet, err := ReadCSV(path, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Region"}, sheet.Header)
	assert.Equal(t, "France", sheet.Value(sheet.Rows[0], "Name"))
}

func TestReadCSV_ShortRow(t *testing.T) {
	path := writeCSV(t, "a,b,c\n1,2\n")

	sheet, err := ReadCSV(path, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "", sheet.Value(sheet.Rows[0], "c"))
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	_, err := ReadFile("data.parquet", ReadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestSheetCol(t *testing.T) {
	sheet := &Sheet{Header: []string{"a", "b"}}
	assert.Equal(t, 1, sheet.Col("b"))
	assert.Equal(t, -1, sheet.Col("missing"))
	assert.True(t, sheet.HasCol("a"))
	assert.False(t, sheet.HasCol("z"))
}
