// Package store persists classification results and run history in sqlite.
// The cache means a re-run over the same export (same keyword, provider and
// model) only pays for categories it has not seen before.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gmapscleaner/internal/classify"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS classification_cache (
		category      TEXT NOT NULL,
		keyword       TEXT NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		relevant      INTEGER NOT NULL,
		reply         TEXT DEFAULT '',
		classified_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (category, keyword, provider, model)
	);

	CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source_file TEXT NOT NULL,
		keyword     TEXT DEFAULT '',
		rows_in     INTEGER NOT NULL,
		rows_out    INTEGER NOT NULL,
		started_at  DATETIME NOT NULL,
		finished_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns cached results for the given categories. Only successful
// classifications are ever cached, so every hit has status ok.
func (s *Store) Lookup(keyword, provider, model string, categories []string) (map[string]classify.Result, error) {
	hits := make(map[string]classify.Result)
	if len(categories) == 0 {
		return hits, nil
	}

	placeholders := strings.Repeat("?,", len(categories))
	placeholders = placeholders[:len(placeholders)-1]
	args := []any{keyword, provider, model}
	for _, cat := range categories {
		args = append(args, cat)
	}

	rows, err := s.db.Query(
		`SELECT category, relevant, reply FROM classification_cache
		 WHERE keyword = ? AND provider = ? AND model = ? AND category IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying classification cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, reply string
		var relevant int
		if err := rows.Scan(&category, &relevant, &reply); err != nil {
			return nil, err
		}
		hits[category] = classify.Result{
			Relevant: relevant != 0,
			Reply:    reply,
			Status:   classify.StatusOK,
		}
	}
	return hits, rows.Err()
}

// SaveResults caches ok-status results. Failed categories are skipped so
// the next run retries them instead of replaying a transient error.
func (s *Store) SaveResults(keyword, provider, model string, results map[string]classify.Result) error {
	for category, res := range results {
		if res.Status != classify.StatusOK {
			continue
		}
		relevant := 0
		if res.Relevant {
			relevant = 1
		}
		_, err := s.db.Exec(
			`INSERT OR REPLACE INTO classification_cache (category, keyword, provider, model, relevant, reply)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			category, keyword, provider, model, relevant, res.Reply,
		)
		if err != nil {
			return fmt.Errorf("caching result for category '%s': %w", category, err)
		}
	}
	return nil
}

type Run struct {
	SourceFile string
	Keyword    string
	RowsIn     int
	RowsOut    int
	StartedAt  time.Time
}

func (s *Store) RecordRun(run Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (source_file, keyword, rows_in, rows_out, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.SourceFile, run.Keyword, run.RowsIn, run.RowsOut, run.StartedAt,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT source_file, keyword, rows_in, rows_out, started_at FROM runs
		 ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.SourceFile, &run.Keyword, &run.RowsIn, &run.RowsOut, &run.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
