// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// RunExport is a run with all of its jobs, as written by the export files.
type RunExport struct {
	RunSummary `yaml:",inline"`
	Jobs       []JobEntry `json:"jobs" yaml:"jobs"`
}

// Load returns the run matching the ID prefix together with its jobs.
func (l *Ledger) Load(ctx context.Context, prefix string) (RunExport, error) {
	run, err := l.Run(ctx, prefix)
	if err != nil {
		return RunExport{}, err
	}
	jobs, err := l.Jobs(ctx, run.ID)
	if err != nil {
		return RunExport{}, err
	}
	return RunExport{RunSummary: run, Jobs: jobs}, nil
}

// ExportYAML writes a run and its jobs to path as YAML.
func (l *Ledger) ExportYAML(ctx context.Context, prefix, path string) error {
	export, err := l.Load(ctx, prefix)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeExport(path, data)
}

// ExportJSON writes a run and its jobs to path as indented JSON.
func (l *Ledger) ExportJSON(ctx context.Context, prefix, path string) error {
	export, err := l.Load(ctx, prefix)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeExport(path, append(data, '\n'))
}

// Export picks YAML or JSON from the file extension of path.
func (l *Ledger) Export(ctx context.Context, prefix, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return l.ExportJSON(ctx, prefix, path)
	case ".yaml", ".yml":
		return l.ExportYAML(ctx, prefix, path)
	default:
		return fmt.Errorf("unsupported export format %q: use .yaml or .json", ext)
	}
}

func writeExport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export %s: %w", path, err)
	}
	return nil
}
