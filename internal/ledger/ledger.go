// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger journals batch runs and their per-file outcomes in a local
// SQLite database so earlier runs can be listed, inspected, and exported.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/aigbatch/internal/batch"
)

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Ledger manages the run journal database.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens or creates the journal at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db, path: path}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string { return l.path }

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			rule TEXT NOT NULL,
			root TEXT NOT NULL,
			output_dir TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL DEFAULT '',
			converted INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			planned INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_run_id ON jobs(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is an open journal entry for one batch run. It implements
// batch.Recorder.
type Run struct {
	ID  string
	l   *Ledger
	ctx context.Context
}

// Begin starts a new run entry.
func (l *Ledger) Begin(ctx context.Context, rule, root, outputDir string) (*Run, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, rule, root, output_dir, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, rule, root, outputDir, time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	return &Run{ID: id, l: l, ctx: ctx}, nil
}

// Record journals one job outcome.
func (r *Run) Record(res batch.JobResult) error {
	var errText sql.NullString
	if res.Err != nil {
		errText = sql.NullString{String: res.Err.Error(), Valid: true}
	}
	_, err := r.l.db.ExecContext(r.ctx,
		`INSERT INTO jobs (run_id, input, output, status, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, res.Job.InputPath, res.Job.OutputPath, string(res.Status), errText, res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording job: %w", err)
	}
	return nil
}

// Discard removes the run entry, for a batch that failed before any job ran.
func (r *Run) Discard() error {
	if _, err := r.l.db.ExecContext(r.ctx, `DELETE FROM runs WHERE id = ?`, r.ID); err != nil {
		return fmt.Errorf("discarding run: %w", err)
	}
	return nil
}

// Finish stores the batch totals and the finish time.
func (r *Run) Finish(result batch.BatchResult) error {
	_, err := r.l.db.ExecContext(r.ctx,
		`UPDATE runs SET finished_at = ?, converted = ?, skipped = ?, failed = ?, planned = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat),
		result.Converted, result.Skipped, result.Failed, result.Planned, r.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}
