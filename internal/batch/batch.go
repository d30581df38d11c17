// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch walks a directory tree and runs one external conversion per
// file matching a rule's suffix. Individual conversion failures are reported
// and counted but never stop the walk.
package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/aigbatch/pkg/types"
)

// Runner executes one external tool invocation.
type Runner interface {
	Run(args []string, stdout io.Writer) error
}

// Recorder receives the outcome of every job, e.g. to journal it.
type Recorder interface {
	Record(res JobResult) error
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job      types.ConversionJob
	Status   types.JobStatus
	Err      error
	Duration time.Duration
}

// JobFailure names a failed input and why it failed.
type JobFailure struct {
	Input string `json:"input" yaml:"input"`
	Error string `json:"error" yaml:"error"`
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	Planned   int
	Failures  []JobFailure
}

// Total returns the number of jobs processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed + r.Planned
}

// HasFailures reports whether any conversion failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(res JobResult) {
	switch res.Status {
	case types.JobConverted:
		r.Converted++
	case types.JobSkipped:
		r.Skipped++
	case types.JobPlanned:
		r.Planned++
	case types.JobFailed:
		r.Failed++
		r.Failures = append(r.Failures, JobFailure{Input: res.Job.InputPath, Error: res.Err.Error()})
	}
}

// Converter runs conversion rules over directory trees.
type Converter struct {
	runner Runner
	cfg    types.BatchConfig
	rec    Recorder
	w      io.Writer

	mu sync.Mutex // guards w and the result in parallel mode
}

// New returns a Converter that runs tools through runner and writes
// per-file status lines to w.
func New(runner Runner, cfg types.BatchConfig, w io.Writer) *Converter {
	return &Converter{runner: runner, cfg: cfg, w: w}
}

// SetRecorder attaches a recorder that sees every job outcome.
func (c *Converter) SetRecorder(rec Recorder) {
	c.rec = rec
}

// Run converts every file under root matching rule. outputDir is required
// for external-dir rules and created if missing; sibling rules ignore it.
// An error is returned only when the batch cannot start (bad root, bad
// rule, unusable output directory); per-file failures are in the result.
func (c *Converter) Run(root string, rule types.ConversionRule, outputDir string) (BatchResult, error) {
	if err := rule.Validate(); err != nil {
		return BatchResult{}, err
	}
	if rule.Policy == types.PolicyExternalDir {
		if outputDir == "" {
			return BatchResult{}, fmt.Errorf("rule %q writes to an output directory; none given", rule.Name)
		}
		if !c.cfg.DryRun {
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return BatchResult{}, fmt.Errorf("creating output directory %s: %w", outputDir, err)
			}
		}
	}

	inputs, err := Walk(root, rule.MatchSuffix, c.w)
	if err != nil {
		return BatchResult{}, err
	}
	jobs, err := BuildJobs(rule, inputs, outputDir)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	if c.cfg.Sequential() {
		for _, job := range jobs {
			c.finish(&result, c.runJob(job))
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.cfg.Workers)
		for _, job := range jobs {
			job := job
			g.Go(func() error {
				c.finish(&result, c.runJob(job))
				return nil
			})
		}
		_ = g.Wait()
		sort.Slice(result.Failures, func(i, j int) bool {
			return result.Failures[i].Input < result.Failures[j].Input
		})
	}

	if c.cfg.DryRun {
		fmt.Fprintf(c.w, "\nDry run: %d job(s) planned for rule %s\n", result.Planned, rule.Name)
	} else {
		fmt.Fprintf(c.w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
			result.Converted, result.Skipped, result.Failed, result.Total())
	}
	return result, nil
}

// finish reports a job outcome, records it, and adds it to result.
func (c *Converter) finish(result *BatchResult, res JobResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	in, out := res.Job.InputPath, res.Job.OutputPath
	switch res.Status {
	case types.JobConverted:
		fmt.Fprintf(c.w, "converted: %s -> %s\n", in, out)
	case types.JobSkipped:
		fmt.Fprintf(c.w, "skipped: %s (%s already exists)\n", in, out)
	case types.JobPlanned:
		fmt.Fprintf(c.w, "planned: %s\n", describe(res.Job))
	case types.JobFailed:
		fmt.Fprintf(c.w, "failed:  %s (%v)\n", in, res.Err)
	}

	if c.rec != nil {
		if err := c.rec.Record(res); err != nil {
			fmt.Fprintf(c.w, "  warning: recording %s: %v\n", in, err)
		}
	}
	result.add(res)
}

func (c *Converter) runJob(job types.ConversionJob) JobResult {
	res := JobResult{Job: job}

	if c.cfg.SkipExisting {
		if _, err := os.Stat(job.OutputPath); err == nil {
			res.Status = types.JobSkipped
			return res
		}
	}
	if c.cfg.DryRun {
		res.Status = types.JobPlanned
		return res
	}

	start := time.Now()
	if job.StdoutPath != "" {
		res.Err = c.runCaptured(job)
	} else {
		res.Err = c.runner.Run(job.Args, nil)
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		res.Status = types.JobFailed
	} else {
		res.Status = types.JobConverted
	}
	return res
}

// runCaptured streams the tool's stdout into a temporary file next to the
// output and renames it into place only when the tool succeeds. The temp
// file is created 0666 less the umask, like a shell redirect would.
func (c *Converter) runCaptured(job types.ConversionJob) error {
	tmpPath := filepath.Join(filepath.Dir(job.StdoutPath), ".aigbatch-"+uuid.NewString()+".tmp")
	tmpFile, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	runErr := c.runner.Run(job.Args, tmpFile)
	closeErr := tmpFile.Close()
	if runErr != nil {
		os.Remove(tmpPath)
		return runErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, job.StdoutPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// describe renders a job as a readable command line.
func describe(job types.ConversionJob) string {
	parts := make([]string, len(job.Args))
	for i, a := range job.Args {
		if a == "" || strings.ContainsAny(a, " \t'\"\\$`;&|<>*?()") {
			parts[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			parts[i] = a
		}
	}
	s := strings.Join(parts, " ")
	if job.StdoutPath != "" {
		s += " (stdout -> " + job.StdoutPath + ")"
	}
	return s
}
