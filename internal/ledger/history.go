// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const defaultRunLimit = 20

// RunSummary is one journaled batch run.
type RunSummary struct {
	ID         string    `json:"id" yaml:"id"`
	Rule       string    `json:"rule" yaml:"rule"`
	Root       string    `json:"root" yaml:"root"`
	OutputDir  string    `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
	Converted  int       `json:"converted" yaml:"converted"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
	Planned    int       `json:"planned" yaml:"planned"`
}

// Finished reports whether the run completed its walk.
func (r RunSummary) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// JobEntry is one journaled job outcome.
type JobEntry struct {
	Input      string `json:"input" yaml:"input"`
	Output     string `json:"output" yaml:"output"`
	Status     string `json:"status" yaml:"status"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

const runColumns = `id, rule, root, output_dir, started_at, finished_at, converted, skipped, failed, planned`

// Runs returns the most recent runs, newest first. A limit of zero or less
// uses the default of 20.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns the run whose ID starts with prefix. The prefix must match
// exactly one run.
func (l *Ledger) Run(ctx context.Context, prefix string) (RunSummary, error) {
	if prefix == "" {
		return RunSummary{}, fmt.Errorf("run ID is empty")
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return RunSummary{}, fmt.Errorf("querying run %s: %w", prefix, err)
	}
	defer rows.Close()

	var found []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return RunSummary{}, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return RunSummary{}, err
	}

	switch len(found) {
	case 0:
		return RunSummary{}, fmt.Errorf("no run with ID %q", prefix)
	case 1:
		return found[0], nil
	default:
		return RunSummary{}, fmt.Errorf("run ID %q is ambiguous", prefix)
	}
}

// Jobs returns the jobs recorded for a run in the order they finished.
func (l *Ledger) Jobs(ctx context.Context, runID string) ([]JobEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT input, output, status, error, duration_ms FROM jobs WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobEntry
	for rows.Next() {
		var (
			j      JobEntry
			errStr sql.NullString
		)
		if err := rows.Scan(&j.Input, &j.Output, &j.Status, &errStr, &j.DurationMS); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		j.Error = errStr.String
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanRun(rows *sql.Rows) (RunSummary, error) {
	var (
		r                 RunSummary
		outputDir         sql.NullString
		started, finished string
	)
	if err := rows.Scan(&r.ID, &r.Rule, &r.Root, &outputDir, &started, &finished,
		&r.Converted, &r.Skipped, &r.Failed, &r.Planned); err != nil {
		return RunSummary{}, fmt.Errorf("scanning run: %w", err)
	}
	r.OutputDir = outputDir.String

	var err error
	if r.StartedAt, err = time.Parse(timeFormat, started); err != nil {
		return RunSummary{}, fmt.Errorf("run %s: bad start time %q: %w", r.ID, started, err)
	}
	if finished != "" {
		if r.FinishedAt, err = time.Parse(timeFormat, finished); err != nil {
			return RunSummary{}, fmt.Errorf("run %s: bad finish time %q: %w", r.ID, finished, err)
		}
	}
	return r, nil
}
