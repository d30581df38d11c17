// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/pdiddy/aigbatch/pkg/types"
)

// Parse splits a command template into words using shell quoting rules.
// Environment variables and backticks are not expanded, and shell operators
// (pipes, redirects, separators) are rejected: rules that need stdout as
// their output set capture_stdout instead.
func Parse(template string) ([]string, error) {
	p := shellwords.NewParser()
	words, err := p.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", template, err)
	}
	if p.Position >= 0 {
		return nil, fmt.Errorf("command %q: shell operator at offset %d is not supported", template, p.Position)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("command %q is empty", template)
	}
	return words, nil
}

// Expand returns the argument vector for one input/output pair. Placeholders
// are substituted inside each parsed word, so paths containing spaces or
// shell metacharacters stay a single argument.
func Expand(words []string, input, output string) []string {
	r := strings.NewReplacer(types.PlaceholderInput, input, types.PlaceholderOutput, output)
	args := make([]string, len(words))
	for i, w := range words {
		args[i] = r.Replace(w)
	}
	return args
}

// checkTemplate validates the placeholders a rule's template uses.
func checkTemplate(r types.ConversionRule) error {
	words, err := Parse(r.Command)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	if strings.Contains(words[0], "{") {
		return fmt.Errorf("rule %q: program name %q must not be a placeholder", r.Name, words[0])
	}
	usesOutput := false
	for _, w := range words[1:] {
		if strings.Contains(w, types.PlaceholderOutput) {
			usesOutput = true
		}
	}
	if r.CaptureStdout && usesOutput {
		return fmt.Errorf("rule %q: capture_stdout rules write stdout to the output and must not pass %s", r.Name, types.PlaceholderOutput)
	}
	if !r.CaptureStdout && !usesOutput {
		return fmt.Errorf("rule %q: command must pass %s or set capture_stdout", r.Name, types.PlaceholderOutput)
	}
	return nil
}
