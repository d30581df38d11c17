// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/aigbatch/pkg/types"
)

func TestOutputPath(t *testing.T) {
	aag := types.ConversionRule{Name: "aag", MatchSuffix: ".aig", OutputSuffix: ".aag", Policy: types.PolicySibling}
	btor := types.ConversionRule{Name: "btor2aig", MatchSuffix: ".btor2", OutputSuffix: ".aig", Policy: types.PolicySibling}
	move := types.ConversionRule{Name: "move", MatchSuffix: ".aig", Policy: types.PolicyExternalDir}

	tests := []struct {
		name      string
		rule      types.ConversionRule
		input     string
		outputDir string
		want      string
	}{
		{"sibling replaces suffix", aag, "/c/a/x.aig", "", "/c/a/x.aag"},
		{"sibling keeps inner dots", aag, "/c/a.b.aig", "", "/c/a.b.aag"},
		{"sibling strips only the trailing suffix", aag, "/c/x.aig.aig", "", "/c/x.aig.aag"},
		{"sibling bare suffix file", aag, "/c/.aig", "", "/c/.aag"},
		{"sibling btor2", btor, "/c/d/x.btor2", "", "/c/d/x.aig"},
		{"sibling relative", aag, "x.aig", "", "x.aag"},
		{"sibling ignores output dir", aag, "/c/x.aig", "/out", "/c/x.aag"},
		{"external flat", move, "/c/x.aig", "/out", "/out/x.aig"},
		{"external deep", move, "/c/1/2/3/4/x.aig", "/out", "/out/x.aig"},
		{"external bare suffix", move, "/c/.aig", "/out", "/out/.aig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputPath(tt.rule, filepath.FromSlash(tt.input), filepath.FromSlash(tt.outputDir))
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestWalk(t *testing.T) {
	root := makeTree(t, "x.aig", "sub/y.aig", "sub/y.aag", "sub/deeper/z.aig", "readme.txt")
	var log bytes.Buffer

	got, err := Walk(root, ".aig", &log)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "sub", "deeper", "z.aig"),
		filepath.Join(root, "sub", "y.aig"),
		filepath.Join(root, "x.aig"),
	}, got)
	assert.Empty(t, log.String())
}

// symlinkTo creates a symlink to target in a fresh temp dir.
func symlinkTo(t *testing.T, target string) string {
	t.Helper()
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	return link
}

func TestWalkSymlinkedRoot(t *testing.T) {
	target := makeTree(t, "a/x.aig", "y.aig", "z.txt")
	link := symlinkTo(t, target)

	got, err := Walk(link, ".aig", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(link, "a", "x.aig"),
		filepath.Join(link, "y.aig"),
	}, got)
}

func TestWalkDoesNotFollowNestedSymlinks(t *testing.T) {
	outside := makeTree(t, "hidden.aig")
	root := makeTree(t, "x.aig")
	if err := os.Symlink(outside, filepath.Join(root, "elsewhere")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	got, err := Walk(root, ".aig", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "x.aig")}, got)
}

func TestWalkEmptyDirectory(t *testing.T) {
	got, err := Walk(t.TempDir(), ".aig", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildJobs(t *testing.T) {
	rule := types.ConversionRule{
		Name:          "btor2aig",
		MatchSuffix:   ".btor2",
		OutputSuffix:  ".aig",
		Policy:        types.PolicySibling,
		Command:       "btor2aiger --quiet {input}",
		CaptureStdout: true,
	}
	jobs, err := BuildJobs(rule, []string{"/c/x.btor2"}, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, types.ConversionJob{
		Rule:       "btor2aig",
		InputPath:  "/c/x.btor2",
		OutputPath: "/c/x.aig",
		Args:       []string{"btor2aiger", "--quiet", "/c/x.btor2"},
		StdoutPath: "/c/x.aig",
	}, jobs[0])
}

func TestBuildJobsBadTemplate(t *testing.T) {
	rule := types.ConversionRule{Name: "r", Command: "tool {input} > {output}"}
	_, err := BuildJobs(rule, []string{"x"}, "")
	require.Error(t, err)
}
