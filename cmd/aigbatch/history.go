// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/aigbatch/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show journaled batch runs from the ledger",
	Long: `History lists recent runs recorded in the ledger (--ledger or the
"ledger" config key). Given a run ID, or any unique prefix of one, it shows
every file of that run with its status. Use --export to write a run to a
.yaml or .json file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := batchConfig().LedgerPath
	if path == "" {
		return fmt.Errorf("no ledger configured: pass --ledger or set ledger in the config file")
	}
	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	exportPath, _ := cmd.Flags().GetString("export")

	if len(args) == 0 {
		if exportPath != "" {
			return fmt.Errorf("--export needs a run ID")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := l.Runs(ctx, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return encodeJSON(out, runs)
		}
		formatRuns(out, runs)
		return nil
	}

	if exportPath != "" {
		if err := l.Export(ctx, args[0], exportPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to %s\n", exportPath)
		return nil
	}

	run, err := l.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return encodeJSON(out, run)
	}
	formatRun(out, run)
	return nil
}

func formatRuns(w io.Writer, runs []ledger.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-8s  %-20s  %-10s  %9s  %7s  %6s  %s\n",
		"Run", "Started", "Rule", "Converted", "Skipped", "Failed", "Root")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		rule := r.Rule
		if !r.Finished() {
			rule += "*"
		}
		fmt.Fprintf(w, "%-8s  %-20s  %-10s  %9d  %7d  %6d  %s\n",
			shortID(r.ID), r.StartedAt.Local().Format(time.DateTime), rule, r.Converted, r.Skipped, r.Failed, r.Root)
	}
	noun := "runs"
	if len(runs) == 1 {
		noun = "run"
	}
	fmt.Fprintf(w, "\n%d %s (* = did not finish)\n", len(runs), noun)
}

func formatRun(w io.Writer, run ledger.RunExport) {
	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Rule:     %s\n", run.Rule)
	fmt.Fprintf(w, "Root:     %s\n", run.Root)
	if run.OutputDir != "" {
		fmt.Fprintf(w, "Output:   %s\n", run.OutputDir)
	}
	fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.Finished() {
		fmt.Fprintf(w, "Finished: %s\n", run.FinishedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(w, "Totals:   %d converted, %d skipped, %d failed\n\n", run.Converted, run.Skipped, run.Failed)

	for _, j := range run.Jobs {
		switch {
		case j.Error != "":
			fmt.Fprintf(w, "%-9s  %s (%s)\n", j.Status, j.Input, j.Error)
		default:
			fmt.Fprintf(w, "%-9s  %s -> %s\n", j.Status, j.Input, j.Output)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	historyCmd.Flags().String("export", "", "write the given run to a .yaml or .json file")

	rootCmd.AddCommand(historyCmd)
}
