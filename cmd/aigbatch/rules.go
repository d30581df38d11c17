package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the built-in and configured conversion rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(reg.All())
		}

		fmt.Fprintf(out, "%-12s  %-8s  %-8s  %-12s  %s\n", "Rule", "Match", "Output", "Policy", "Command")
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, r := range reg.All() {
			output := r.OutputSuffix
			if output == "" {
				output = "(same)"
			}
			command := r.Command
			if r.CaptureStdout {
				command += " > {output}"
			}
			fmt.Fprintf(out, "%-12s  %-8s  %-8s  %-12s  %s\n", r.Name, r.MatchSuffix, output, r.Policy, command)
		}
		return nil
	},
}

func init() {
	rulesCmd.Flags().Bool("json", false, "output rules as JSON")
	rootCmd.AddCommand(rulesCmd)
}
