// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolexec runs the external conversion tools (aigmove, aigtoaig,
// btor2aiger, or any configured program) as child processes. Arguments are
// always passed as a discrete vector; no shell is involved.
package toolexec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// maxStderr bounds how much of a failing tool's stderr ends up in an error.
const maxStderr = 512

// Runner runs external tools.
type Runner interface {
	// Check reports whether program can be found on PATH.
	Check(program string) error

	// Run executes args[0] with args[1:], writing the tool's standard
	// output to stdout. A nil stdout discards it.
	Run(args []string, stdout io.Writer) error
}

// ExitError is returned when a tool ran but exited non-zero.
type ExitError struct {
	Program string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Program, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Program, e.Code, e.Stderr)
}

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunPiped(name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunPiped(name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// ProcessRunner implements Runner on top of an executor.
type ProcessRunner struct {
	exec executor
}

var defaultExec = &osExecutor{}

// New returns a Runner that starts real processes.
func New() *ProcessRunner {
	return &ProcessRunner{exec: defaultExec}
}

func (p *ProcessRunner) Check(program string) error {
	if _, err := p.exec.LookPath(program); err != nil {
		return fmt.Errorf("%s not found on PATH: %w", program, err)
	}
	return nil
}

func (p *ProcessRunner) Run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("no command to run")
	}
	if stdout == nil {
		stdout = io.Discard
	}

	var stderr bytes.Buffer
	err := p.exec.RunPiped(args[0], args[1:], stdout, &stderr)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Program: args[0],
			Code:    exitErr.ExitCode(),
			Stderr:  trimStderr(stderr.String()),
		}
	}
	return fmt.Errorf("running %s: %w", args[0], err)
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}
