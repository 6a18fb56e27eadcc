// Package tabular reads wide spreadsheet exports and reshapes them into
// normalized long-format tables.
package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Sheet is a raw spreadsheet: a header row plus string cell rows. Rows may
// be shorter than the header; Value treats missing cells as empty.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// ReadOptions configures sheet reading.
type ReadOptions struct {
	SheetName   string // XLSX only; default first sheet
	SnakeHeader bool   // lowercase the header and replace spaces with underscores
}

// ReadFile reads a CSV or XLSX file by extension.
func ReadFile(path string, opts ReadOptions) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path, opts)
	case ".xlsx":
		return ReadXLSX(path, opts)
	default:
		return nil, eris.Errorf("tabular: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadCSV reads a CSV file into a Sheet. Fields are trimmed and rows may
// have variable width. Spreadsheet exports often carry a byte order mark;
// it is stripped before parsing.
func ReadCSV(path string, opts ReadOptions) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close()

	decoder := unicode.UTF8BOM.NewDecoder()
	reader := csv.NewReader(transform.NewReader(f, decoder))
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	sheet := &Sheet{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: read %s", path)
		}

		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}

		if first {
			first = false
			sheet.Header = record
			continue
		}
		sheet.Rows = append(sheet.Rows, record)
	}

	finishHeader(sheet, opts)
	return sheet, nil
}

// ReadXLSX reads one sheet of an XLSX file into a Sheet.
func ReadXLSX(path string, opts ReadOptions) (*Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}

	var xs *xlsx.Sheet
	if opts.SheetName != "" {
		var ok bool
		xs, ok = f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("tabular: sheet %q not found in %s", opts.SheetName, path)
		}
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("tabular: no sheets in %s", path)
		}
		xs = f.Sheets[0]
	}

	sheet := &Sheet{}
	for i, row := range xs.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}

		if i == 0 {
			sheet.Header = cells
			continue
		}
		sheet.Rows = append(sheet.Rows, cells)
	}

	finishHeader(sheet, opts)
	return sheet, nil
}

func finishHeader(s *Sheet, opts ReadOptions) {
	for i, h := range s.Header {
		h = strings.TrimSpace(h)
		if opts.SnakeHeader {
			h = SnakeCase(h)
		}
		s.Header[i] = h
	}
}

// SnakeCase lowercases a header name and replaces spaces with underscores.
func SnakeCase(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Col returns the index of the named column, or -1 when absent.
func (s *Sheet) Col(name string) int {
	for i, h := range s.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// HasCol reports whether the named column exists.
func (s *Sheet) HasCol(name string) bool {
	return s.Col(name) >= 0
}

// Value returns the trimmed cell under the named column for a row, or the
// empty string when the column is absent or the row is short.
func (s *Sheet) Value(row []string, name string) string {
	idx := s.Col(name)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// At returns the cell at a column index, or the empty string when the row
// is short.
func At(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
