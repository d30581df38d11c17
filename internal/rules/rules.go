// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules defines the conversion rules the batch converter can run:
// the built-in aigmove, aigtoaig, and btor2aiger rules plus any custom rules
// declared in the configuration file.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/aigbatch/pkg/types"
)

const (
	RuleMove     = "move"
	RuleAAG      = "aag"
	RuleBtor2AIG = "btor2aig"
)

// Builtin returns the rules shipped with aigbatch.
func Builtin() []types.ConversionRule {
	return []types.ConversionRule{
		{
			Name:         RuleMove,
			Description:  "run aigmove on every .aig file, writing into a separate output directory",
			MatchSuffix:  ".aig",
			OutputSuffix: ".aig",
			Policy:       types.PolicyExternalDir,
			Command:      "aigmove {input} {output}",
		},
		{
			Name:         RuleAAG,
			Description:  "convert every .aig file to ASCII .aag next to it with aigtoaig",
			MatchSuffix:  ".aig",
			OutputSuffix: ".aag",
			Policy:       types.PolicySibling,
			Command:      "aigtoaig {input} {output}",
		},
		{
			Name:          RuleBtor2AIG,
			Description:   "convert every .btor2 file to .aig next to it with btor2aiger",
			MatchSuffix:   ".btor2",
			OutputSuffix:  ".aig",
			Policy:        types.PolicySibling,
			Command:       "btor2aiger {input}",
			CaptureStdout: true,
		},
	}
}

// Registry holds the rules available to the CLI, keyed by name.
type Registry struct {
	rules map[string]types.ConversionRule
}

// NewRegistry builds a registry from the built-in rules and the given custom
// rules. A custom rule with a built-in name replaces the built-in.
func NewRegistry(custom []types.ConversionRule) (*Registry, error) {
	reg := &Registry{rules: make(map[string]types.ConversionRule)}
	for _, r := range Builtin() {
		reg.rules[r.Name] = r
	}
	seen := make(map[string]bool)
	for _, r := range custom {
		if err := Validate(r); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %q is defined more than once", r.Name)
		}
		seen[r.Name] = true
		reg.rules[r.Name] = r
	}
	return reg, nil
}

// Validate checks a rule's fields and its command template.
func Validate(r types.ConversionRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return checkTemplate(r)
}

// Lookup returns the rule with the given name.
func (reg *Registry) Lookup(name string) (types.ConversionRule, error) {
	r, ok := reg.rules[name]
	if !ok {
		return types.ConversionRule{}, fmt.Errorf("unknown rule %q (known: %s)", name, strings.Join(reg.Names(), ", "))
	}
	return r, nil
}

// Names returns the registered rule names in sorted order.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.rules))
	for n := range reg.rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns the registered rules sorted by name.
func (reg *Registry) All() []types.ConversionRule {
	names := reg.Names()
	out := make([]types.ConversionRule, len(names))
	for i, n := range names {
		out[i] = reg.rules[n]
	}
	return out
}
