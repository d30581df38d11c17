// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/aigbatch/internal/rules"
	"github.com/pdiddy/aigbatch/pkg/types"
)

// Walk returns every non-directory entry under root whose name ends with
// suffix, in lexical walk order. Root must be a readable directory; an
// unreadable subdirectory is reported on w and skipped.
//
// A root that is a symlink to a directory is followed and the matches are
// reported under the given root. Symlinks below the root are not followed.
func Walk(root, suffix string, w io.Writer) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input directory: %s is not a directory", root)
	}

	walkRoot, err := resolveRoot(root)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}

	var matches []string
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				return err
			}
			fmt.Fprintf(w, "warning: skipping %s (%v)\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		if walkRoot != root {
			rel, err := filepath.Rel(walkRoot, path)
			if err != nil {
				return err
			}
			path = filepath.Join(root, rel)
		}
		matches = append(matches, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return matches, nil
}

// resolveRoot returns the directory to walk for root: root itself, or its
// target when root is a symlink. filepath.WalkDir does not descend into a
// symlinked root.
func resolveRoot(root string) (string, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return "", err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return root, nil
	}
	return filepath.EvalSymlinks(root)
}

// OutputPath computes where rule writes the output for input.
//
// Sibling rules replace the match suffix with the output suffix in the
// input's directory; a file named exactly the suffix (".aig") becomes the
// bare output suffix (".aag"). External-dir rules keep the base name and
// place it directly in outputDir, however deep the input was.
func OutputPath(rule types.ConversionRule, input, outputDir string) string {
	base := filepath.Base(input)
	if rule.Policy == types.PolicyExternalDir {
		return filepath.Join(outputDir, base)
	}
	stem := strings.TrimSuffix(base, rule.MatchSuffix)
	return filepath.Join(filepath.Dir(input), stem+rule.OutputSuffix)
}

// BuildJobs turns matched inputs into jobs, one per input.
func BuildJobs(rule types.ConversionRule, inputs []string, outputDir string) ([]types.ConversionJob, error) {
	words, err := rules.Parse(rule.Command)
	if err != nil {
		return nil, err
	}
	jobs := make([]types.ConversionJob, 0, len(inputs))
	for _, in := range inputs {
		out := OutputPath(rule, in, outputDir)
		job := types.ConversionJob{
			Rule:       rule.Name,
			InputPath:  in,
			OutputPath: out,
			Args:       rules.Expand(words, in, out),
		}
		if rule.CaptureStdout {
			job.StdoutPath = out
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
