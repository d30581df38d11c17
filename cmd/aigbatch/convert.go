// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/aigbatch/internal/batch"
	"github.com/pdiddy/aigbatch/internal/ledger"
	"github.com/pdiddy/aigbatch/internal/rules"
	"github.com/pdiddy/aigbatch/internal/toolexec"
)

var runCmd = &cobra.Command{
	Use:   "run --rule NAME <input-dir> [output-dir]",
	Short: "Run any built-in or configured rule over a directory tree",
	Long: `Run walks input-dir recursively and runs the named rule's command once
for every file ending in the rule's match suffix. Rules with the
external-dir policy need an output-dir; it is created when missing.

Use "aigbatch rules" to list the available rules.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("rule")
		return runRule(cmd, name, args)
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <input-dir> <output-dir>",
	Short: "Run aigmove on every .aig file, writing into output-dir",
	Long: `Move runs "aigmove <file> <output-dir>/<name>" for every .aig file under
input-dir. Outputs land directly in output-dir whatever their depth in the
input tree; files with the same name overwrite each other (last one wins).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRule(cmd, rules.RuleMove, args)
	},
}

var aagCmd = &cobra.Command{
	Use:   "aag <input-dir>",
	Short: "Convert every .aig file to ASCII .aag next to it",
	Long: `Aag runs "aigtoaig <dir>/<name>.aig <dir>/<name>.aag" for every .aig
file under input-dir. Existing .aag files are never picked up as inputs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRule(cmd, rules.RuleAAG, args)
	},
}

var btor2aigCmd = &cobra.Command{
	Use:   "btor2aig <input-dir>",
	Short: "Convert every .btor2 file to .aig next to it",
	Long: `Btor2aig runs "btor2aiger <dir>/<name>.btor2" for every .btor2 file under
input-dir and writes the tool's standard output to <dir>/<name>.aig. The
output file only appears when btor2aiger succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRule(cmd, rules.RuleBtor2AIG, args)
	},
}

func init() {
	runCmd.Flags().String("rule", "", "name of the rule to run (see: aigbatch rules)")
	_ = runCmd.MarkFlagRequired("rule")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(aagCmd)
	rootCmd.AddCommand(btor2aigCmd)
}

// runRule runs the named rule over args[0], with args[1] as the optional
// output directory. Per-file failures only fail the command with --strict.
func runRule(cmd *cobra.Command, name string, args []string) error {
	reg, err := registry()
	if err != nil {
		return err
	}
	rule, err := reg.Lookup(name)
	if err != nil {
		return err
	}

	root := args[0]
	var outputDir string
	if len(args) > 1 {
		outputDir = args[1]
	}

	cfg := batchConfig()
	out := cmd.OutOrStdout()
	runner := toolexec.New()

	if !cfg.DryRun {
		words, err := rules.Parse(rule.Command)
		if err != nil {
			return err
		}
		if err := runner.Check(words[0]); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; every %s conversion will fail\n", err, rule.Name)
		}
	}

	conv := batch.New(runner, cfg, out)

	var journal *ledger.Run
	if cfg.LedgerPath != "" && !cfg.DryRun {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer l.Close()

		journal, err = l.Begin(context.Background(), rule.Name, root, outputDir)
		if err != nil {
			return err
		}
		conv.SetRecorder(journal)
	}

	result, err := conv.Run(root, rule, outputDir)
	if err != nil {
		if journal != nil {
			if derr := journal.Discard(); derr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", derr)
			}
		}
		return err
	}

	if journal != nil {
		finishJournal(journal, result, out)
	}

	if cfg.Strict && result.HasFailures() {
		return fmt.Errorf("%d conversion(s) failed", result.Failed)
	}
	return nil
}

func finishJournal(journal *ledger.Run, result batch.BatchResult, w io.Writer) {
	if err := journal.Finish(result); err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Run ID: %s\n", journal.ID)
}
