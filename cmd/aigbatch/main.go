// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the aigbatch CLI, which batch-runs
// circuit conversion tools (aigmove, aigtoaig, btor2aiger) over directory
// trees of .aig, .aag, and .btor2 files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/aigbatch/internal/rules"
	"github.com/pdiddy/aigbatch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the aigbatch CLI.
var rootCmd = &cobra.Command{
	Use:   "aigbatch",
	Short: "Batch-run circuit format converters over directory trees",
	Long: `aigbatch walks a directory tree, picks out files by suffix, and runs an
external conversion tool once per matching file.

Built-in rules mirror the usual AIGER workflows: move (aigmove into a
separate directory), aag (aigtoaig .aig to .aag), and btor2aig (btor2aiger
.btor2 to .aig). Additional rules can be declared in the config file.

A failed conversion is reported and counted but never stops the walk.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./aigbatch.yaml or ~/.config/aigbatch/aigbatch.yaml)")
	pf.Int("workers", 1, "number of conversions to run at once (1 = sequential, in walk order)")
	pf.Bool("dry-run", false, "print the commands that would run without running them")
	pf.Bool("skip-existing", false, "skip files whose output already exists")
	pf.Bool("strict", false, "exit non-zero when any conversion fails")
	pf.String("ledger", "", "SQLite file journaling runs and per-file outcomes (empty = disabled)")

	bindFlags()
}

// bindFlags ties the persistent flags to their viper keys so flags take
// precedence over environment and config file values.
func bindFlags() {
	pf := rootCmd.PersistentFlags()
	for key, flag := range map[string]string{
		"workers":       "workers",
		"dry_run":       "dry-run",
		"skip_existing": "skip-existing",
		"strict":        "strict",
		"ledger":        "ledger",
	} {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("aigbatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "aigbatch"))
		}
	}

	viper.SetEnvPrefix("AIGBATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
	}
}

// batchConfig assembles the batch settings from flags, environment, and
// the config file, in that order of precedence.
func batchConfig() types.BatchConfig {
	return types.BatchConfig{
		Workers:      viper.GetInt("workers"),
		DryRun:       viper.GetBool("dry_run"),
		SkipExisting: viper.GetBool("skip_existing"),
		Strict:       viper.GetBool("strict"),
		LedgerPath:   viper.GetString("ledger"),
	}
}

// registry returns the built-in rules merged with rules from the config file.
func registry() (*rules.Registry, error) {
	var custom []types.ConversionRule
	if err := viper.UnmarshalKey("rules", &custom); err != nil {
		return nil, fmt.Errorf("reading rules from config: %w", err)
	}
	return rules.NewRegistry(custom)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
