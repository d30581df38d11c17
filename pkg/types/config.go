package types

// BatchConfig holds settings shared by every batch run.
type BatchConfig struct {
	// Workers is the number of concurrent conversions. Values below 2 run
	// sequentially in walk order.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// DryRun prints the planned jobs without running any command.
	DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`

	// SkipExisting skips jobs whose output file already exists.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing" mapstructure:"skip_existing"`

	// Strict makes the CLI exit non-zero when any conversion failed.
	Strict bool `json:"strict" yaml:"strict" mapstructure:"strict"`

	// LedgerPath is the SQLite run journal. Empty disables the ledger.
	LedgerPath string `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
}

// Sequential reports whether jobs run one at a time.
func (c BatchConfig) Sequential() bool {
	return c.Workers < 2
}
