// Package store keeps a history of detection runs in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/plate-detect/internal/detection"
)

// Store handles SQLite run history operations
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode so a reader can inspect history while a batch is running
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input TEXT NOT NULL,
			status TEXT NOT NULL,
			threshold REAL,
			iterations INTEGER DEFAULT 0,
			attempts TEXT,
			best TEXT,
			candidates TEXT,
			plate_text TEXT,
			error TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRun saves or replaces a run report
func (s *Store) SaveRun(r *detection.Report) error {
	attempts, err := json.Marshal(r.Attempts)
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}
	candidates, err := json.Marshal(r.Candidates)
	if err != nil {
		return fmt.Errorf("failed to marshal candidates: %w", err)
	}
	var best []byte
	if r.Best != nil {
		if best, err = json.Marshal(r.Best); err != nil {
			return fmt.Errorf("failed to marshal best box: %w", err)
		}
	}

	query := `INSERT INTO runs (id, input, status, threshold, iterations, attempts, best, candidates, plate_text, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			input = excluded.input,
			status = excluded.status,
			threshold = excluded.threshold,
			iterations = excluded.iterations,
			attempts = excluded.attempts,
			best = excluded.best,
			candidates = excluded.candidates,
			plate_text = excluded.plate_text,
			error = excluded.error`

	_, err = s.db.Exec(query,
		r.RunID, r.Input, string(r.Status), r.Threshold, r.Iterations,
		string(attempts), nullString(best), string(candidates),
		r.PlateText, r.Error, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id string) (*detection.Report, error) {
	row := s.db.QueryRow(`SELECT id, input, status, threshold, iterations, attempts, best, candidates, plate_text, error, created_at
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return r, err
}

// RecentRuns returns up to limit runs, newest first
func (s *Store) RecentRuns(limit int) ([]*detection.Report, error) {
	rows, err := s.db.Query(`SELECT id, input, status, threshold, iterations, attempts, best, candidates, plate_text, error, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*detection.Report
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*detection.Report, error) {
	var (
		r          detection.Report
		status     string
		threshold  sql.NullFloat64
		attempts   sql.NullString
		best       sql.NullString
		candidates sql.NullString
		plateText  sql.NullString
		errText    sql.NullString
		createdAt  time.Time
	)
	if err := row.Scan(&r.RunID, &r.Input, &status, &threshold, &r.Iterations,
		&attempts, &best, &candidates, &plateText, &errText, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	r.Status = detection.Status(status)
	r.Threshold = threshold.Float64
	r.PlateText = plateText.String
	r.Error = errText.String
	r.CreatedAt = createdAt

	if attempts.Valid && attempts.String != "" {
		if err := json.Unmarshal([]byte(attempts.String), &r.Attempts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attempts: %w", err)
		}
	}
	if candidates.Valid && candidates.String != "" {
		if err := json.Unmarshal([]byte(candidates.String), &r.Candidates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidates: %w", err)
		}
	}
	if best.Valid && best.String != "" {
		var b detection.Box
		if err := json.Unmarshal([]byte(best.String), &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal best box: %w", err)
		}
		r.Best = &b
	}
	return &r, nil
}

func nullString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
