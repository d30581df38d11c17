// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// OutputPolicy selects where a rule writes its output file.
type OutputPolicy string

const (
	// PolicySibling places the output next to its input, with the match
	// suffix replaced by the output suffix.
	PolicySibling OutputPolicy = "sibling"

	// PolicyExternalDir places the output directly in a separate output
	// directory, keeping the input's base name.
	PolicyExternalDir OutputPolicy = "external-dir"
)

// Valid reports whether p is a known policy.
func (p OutputPolicy) Valid() bool {
	return p == PolicySibling || p == PolicyExternalDir
}

// Template placeholders substituted into each word of a rule command.
const (
	PlaceholderInput  = "{input}"
	PlaceholderOutput = "{output}"
)

// ConversionRule describes how files matching a suffix are turned into
// external tool invocations.
type ConversionRule struct {
	// Name identifies the rule on the command line (e.g. "aag").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Description is a one-line summary shown by the rules command.
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// MatchSuffix selects input files by name suffix (e.g. ".aig").
	MatchSuffix string `json:"match_suffix" yaml:"match_suffix" mapstructure:"match_suffix"`

	// OutputSuffix replaces MatchSuffix for sibling outputs. Unused by
	// external-dir rules, which keep the input's base name.
	OutputSuffix string `json:"output_suffix,omitempty" yaml:"output_suffix,omitempty" mapstructure:"output_suffix"`

	// Policy selects sibling or external-dir output placement.
	Policy OutputPolicy `json:"policy" yaml:"policy" mapstructure:"policy"`

	// Command is the command template, e.g. "aigtoaig {input} {output}".
	// It is split into words and never passed through a shell.
	Command string `json:"command" yaml:"command" mapstructure:"command"`

	// CaptureStdout writes the command's standard output to the output
	// path instead of passing {output} as an argument.
	CaptureStdout bool `json:"capture_stdout,omitempty" yaml:"capture_stdout,omitempty" mapstructure:"capture_stdout"`
}

// Validate checks that the rule has everything needed to build jobs.
func (r ConversionRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule has no name")
	}
	if r.MatchSuffix == "" {
		return fmt.Errorf("rule %q: match_suffix is required", r.Name)
	}
	if !r.Policy.Valid() {
		return fmt.Errorf("rule %q: unknown policy %q (use %s or %s)", r.Name, r.Policy, PolicySibling, PolicyExternalDir)
	}
	if r.Command == "" {
		return fmt.Errorf("rule %q: command is required", r.Name)
	}
	if r.Policy == PolicySibling {
		if r.OutputSuffix == "" {
			return fmt.Errorf("rule %q: sibling rules need an output_suffix", r.Name)
		}
		if r.OutputSuffix == r.MatchSuffix {
			return fmt.Errorf("rule %q: output_suffix %q would overwrite its own input", r.Name, r.OutputSuffix)
		}
	}
	return nil
}

// ConversionJob is one external invocation derived from a matched file.
type ConversionJob struct {
	// Rule is the name of the rule that produced the job.
	Rule string `json:"rule" yaml:"rule"`

	// InputPath is the matched file.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputPath is where the converted file ends up.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Args is the resolved argument vector, program first.
	Args []string `json:"args" yaml:"args"`

	// StdoutPath is set when the command's stdout is the output file.
	StdoutPath string `json:"stdout_path,omitempty" yaml:"stdout_path,omitempty"`
}

// JobStatus is the outcome of a single conversion job.
type JobStatus string

const (
	JobConverted JobStatus = "converted"
	JobFailed    JobStatus = "failed"
	JobSkipped   JobStatus = "skipped"
	JobPlanned   JobStatus = "planned"
)
