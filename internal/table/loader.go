package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file extensions other than
// .csv/.tsv/.xlsx/.xls.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// SchemaError reports a missing required column together with the columns
// the file actually has, so the user can spot a renamed header.
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column '%s' not found in file; available columns: %s",
		e.Column, strings.Join(e.Available, ", "))
}

// Load reads a CSV/TSV/XLSX export into a Table and verifies that
// categoryCol is present.
func Load(path, categoryCol string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return LoadReader(path, f, categoryCol)
}

// LoadReader parses r, routing on the extension of name.
func LoadReader(name string, r io.Reader, categoryCol string) (*Table, error) {
	lower := strings.ToLower(name)

	var t *Table
	var err error
	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		t, err = parseDelimited(r, strings.HasSuffix(lower, ".tsv"))
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		t, err = parseExcel(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	if !t.HasColumn(categoryCol) {
		return nil, &SchemaError{Column: categoryCol, Available: t.Columns}
	}
	return t, nil
}

func parseDelimited(r io.Reader, isTSV bool) (*Table, error) {
	reader := csv.NewReader(r)
	if isTSV {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing delimited file: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	return fromRecords(all), nil
}

func parseExcel(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", sheets[0])
	}

	return fromRecords(rows), nil
}

// fromRecords builds a Table from raw records, first record as header.
// Short rows are padded so every row matches the header width.
func fromRecords(records [][]string) *Table {
	columns := make([]string, len(records[0]))
	for i, col := range records[0] {
		columns[i] = strings.TrimSpace(col)
	}

	rows := records[1:]
	for i, row := range rows {
		for len(row) < len(columns) {
			row = append(row, "")
		}
		rows[i] = row[:len(columns)]
	}

	return &Table{Columns: columns, Rows: rows}
}
