package table

import (
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLoadReaderCSV(t *testing.T) {
	data := "name,category,rating\nJoe's Coffee,cafe,4.5\nSmith & Co,law firm,3.9\n"

	tbl, err := LoadReader("listings.csv", strings.NewReader(data), "category")
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if got := strings.Join(tbl.Columns, "|"); got != "name|category|rating" {
		t.Fatalf("unexpected columns: %s", got)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	if tbl.Rows[1][tbl.ColumnIndex("category")] != "law firm" {
		t.Fatalf("unexpected category in row 1: %v", tbl.Rows[1])
	}
}

func TestLoadReaderTSV(t *testing.T) {
	data := "name\tcategory\nJoe's\tcafe\n"

	tbl, err := LoadReader("listings.tsv", strings.NewReader(data), "category")
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if tbl.Len() != 1 || tbl.Rows[0][1] != "cafe" {
		t.Fatalf("unexpected table contents: %+v", tbl.Rows)
	}
}

func TestLoadReaderPadsShortRows(t *testing.T) {
	data := "name,category,rating\nJoe's,cafe\n"

	tbl, err := LoadReader("listings.csv", strings.NewReader(data), "category")
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	row := tbl.Rows[0]
	if len(row) != 3 {
		t.Fatalf("expected padded row of 3 cells, got %d", len(row))
	}
	if row[2] != "" {
		t.Fatalf("expected missing cell to be empty, got %q", row[2])
	}
}

func TestLoadReaderSchemaErrorListsColumns(t *testing.T) {
	data := "name,type,rating\nJoe's,cafe,4.5\n"

	_, err := LoadReader("listings.csv", strings.NewReader(data), "category")
	if err == nil {
		t.Fatal("expected schema error")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T: %v", err, err)
	}
	if schemaErr.Column != "category" {
		t.Fatalf("unexpected missing column: %s", schemaErr.Column)
	}
	msg := err.Error()
	for _, col := range []string{"name", "type", "rating"} {
		if !strings.Contains(msg, col) {
			t.Fatalf("schema error must list available column %q, got: %s", col, msg)
		}
	}
}

func TestLoadReaderUnsupportedFormat(t *testing.T) {
	_, err := LoadReader("listings.pdf", strings.NewReader("x"), "category")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "listings.pdf") {
		t.Fatalf("error must name the offending file, got: %s", err.Error())
	}
}

func TestLoadReaderXLSX(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"name", "category", "rating"}); err != nil {
		t.Fatalf("SetSheetRow failed: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"Joe's", "cafe", 4.5}); err != nil {
		t.Fatalf("SetSheetRow failed: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}

	tbl, err := LoadReader("listings.xlsx", buf, "category")
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", tbl.Len())
	}
	if tbl.Rows[0][tbl.ColumnIndex("category")] != "cafe" {
		t.Fatalf("unexpected row: %v", tbl.Rows[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.csv", "category"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
