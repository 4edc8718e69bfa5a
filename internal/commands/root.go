package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openbooks-dev/openbooks/internal/buildinfo"
)

// rootFlags are shared by every subcommand that touches the store.
type rootFlags struct {
	configPath string
	companyID  int64
	actor      string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:     "openbooks",
		Short:   "Multi-tenant double-entry bookkeeping",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "openbooks.yaml", "config file path")
	rootCmd.PersistentFlags().Int64Var(&flags.companyID, "company", 1, "company (tenant) ID")
	rootCmd.PersistentFlags().StringVar(&flags.actor, "actor", "cli", "actor recorded in the audit trail")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCompanyCommand(flags))
	rootCmd.AddCommand(newAccountCommand(flags))
	rootCmd.AddCommand(newTxnCommand(flags))
	rootCmd.AddCommand(newReportCommand(flags))

	return rootCmd
}
