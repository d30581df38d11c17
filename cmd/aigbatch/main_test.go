// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and returns its combined output. Flag
// values and viper state are reset before each call and after the test, so
// neither calls nor tests see each other's flags.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCLI()
	t.Cleanup(resetCLI)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetCLI() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.PersistentFlags(), c.Flags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
	viper.Reset()
	bindFlags()
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aigbatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "aigbatch dev\n", out)
}

func TestRulesLists(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)
	for _, want := range []string{"move", "aag", "btor2aig", "aigmove {input} {output}", "btor2aiger {input} > {output}"} {
		assert.Contains(t, out, want)
	}
}

func TestAagDryRun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a/x.aig": "", "a/b/y.aig": "", "a/b/z.txt": ""})

	out, err := execute(t, "aag", "--dry-run", root)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "planned: aigtoaig"))
	assert.Contains(t, out, "Dry run: 2 job(s) planned for rule aag")
	_, err = os.Stat(filepath.Join(root, "a", "x.aag"))
	assert.True(t, os.IsNotExist(err))
}

func TestMissingInputDirectory(t *testing.T) {
	_, err := execute(t, "move", filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input directory")
}

func TestRunRequiresRule(t *testing.T) {
	_, err := execute(t, "run", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule")
}

func TestRunUnknownRule(t *testing.T) {
	_, err := execute(t, "run", "--rule", "nope", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule")
}

func TestConfiguredRuleCapturesStdout(t *testing.T) {
	requireTool(t, "cat")
	cfg := writeConfig(t, `
rules:
  - name: catbtor
    match_suffix: .btor2
    output_suffix: .aig
    policy: sibling
    command: cat {input}
    capture_stdout: true
`)
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"x.btor2": "1 sort bitvec 1\n"})

	out, err := execute(t, "--config", cfg, "run", "--rule", "catbtor", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Batch summary: 1 converted, 0 skipped, 0 failed (total: 1)")

	data, err := os.ReadFile(filepath.Join(root, "x.aig"))
	require.NoError(t, err)
	assert.Equal(t, "1 sort bitvec 1\n", string(data))
}

func TestStrictAndLedger(t *testing.T) {
	requireTool(t, "false")
	cfg := writeConfig(t, `
rules:
  - name: always-fails
    match_suffix: .aig
    output_suffix: .aag
    policy: sibling
    command: false {input} {output}
`)
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"x.aig": "", "sub/y.aig": ""})
	ledgerPath := filepath.Join(t.TempDir(), "ledger.db")

	out, err := execute(t, "--config", cfg, "--ledger", ledgerPath, "run", "--rule", "always-fails", root)
	require.NoError(t, err, "failures are only fatal with --strict")
	assert.Contains(t, out, "2 failed")
	assert.Contains(t, out, "Run ID: ")

	_, err = execute(t, "--config", cfg, "--strict", "run", "--rule", "always-fails", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 conversion(s) failed")

	out, err = execute(t, "--ledger", ledgerPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "always-fails")
	assert.Contains(t, out, "1 run (* = did not finish)")
}

func TestFailedStartLeavesNoLedgerEntry(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "ledger.db")

	_, err := execute(t, "--ledger", ledgerPath, "aag", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input directory")

	out, err := execute(t, "--ledger", ledgerPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestMissingToolWarning(t *testing.T) {
	cfg := writeConfig(t, `
rules:
  - name: ghost
    match_suffix: .aig
    output_suffix: .aag
    policy: sibling
    command: aigbatch-no-such-tool {input} {output}
`)
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"x.aig": ""})

	out, err := execute(t, "--config", cfg, "run", "--rule", "ghost", root)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: ")
	assert.Contains(t, out, "every ghost conversion will fail")
	assert.Contains(t, out, "1 failed")
}

func TestHistoryNeedsLedger(t *testing.T) {
	_, err := execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ledger configured")
}
