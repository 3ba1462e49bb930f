// Package export serializes a final table to a single CSV file or to a zip
// of fixed-size CSV chunks.
package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gmapscleaner/internal/table"
)

// Slug normalizes a keyword for use in filenames: spaces become
// underscores, everything lowercased.
func Slug(keyword string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(keyword), " ", "_"))
}

// BaseName is the artifact name (without extension) derived from the
// target keyword.
func BaseName(keyword string) string {
	return "filtered_results_" + Slug(keyword)
}

// WriteCSV writes the header row followed by every data row.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Chunk partitions t into contiguous slices of rowsPerBatch rows; the last
// chunk may be shorter. rowsPerBatch < 1 yields the whole table as one chunk.
func Chunk(t *table.Table, rowsPerBatch int) []*table.Table {
	if rowsPerBatch < 1 || t.Len() == 0 {
		return []*table.Table{t.WithRows(t.Rows)}
	}

	var chunks []*table.Table
	for start := 0; start < t.Len(); start += rowsPerBatch {
		end := start + rowsPerBatch
		if end > t.Len() {
			end = t.Len()
		}
		chunks = append(chunks, t.WithRows(t.Rows[start:end]))
	}
	return chunks
}

// WriteZip packages the chunked table into one zip archive, one CSV member
// per chunk, named by 1-based batch index.
func WriteZip(w io.Writer, t *table.Table, rowsPerBatch int) error {
	zw := zip.NewWriter(w)
	for i, chunk := range Chunk(t, rowsPerBatch) {
		member, err := zw.Create(fmt.Sprintf("results_batch_%d.csv", i+1))
		if err != nil {
			return fmt.Errorf("creating zip member %d: %w", i+1, err)
		}
		if err := WriteCSV(member, chunk); err != nil {
			return fmt.Errorf("writing zip member %d: %w", i+1, err)
		}
	}
	return zw.Close()
}

// WriteFile writes the final table under dir, either as <base>.csv or, when
// batch is set, as <base>.zip of rowsPerBatch-sized chunks. It returns the
// path written; any write failure is fatal to the run and returned verbatim.
func WriteFile(dir, keyword string, t *table.Table, batch bool, rowsPerBatch int) (string, error) {
	name := BaseName(keyword) + ".csv"
	if batch {
		name = BaseName(keyword) + ".zip"
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if batch {
		err = WriteZip(f, t, rowsPerBatch)
	} else {
		err = WriteCSV(f, t)
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// WriteCSVPath writes a single CSV to an explicit path, used when the user
// names the output file directly.
func WriteCSVPath(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, t); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
