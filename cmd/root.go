package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "automatron",
	Short:   "Personal chat-command relay",
	Long:    "Automatron relays chat commands from a LINE webhook to the home-automation bus and the expense ledger.",
	Version: version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
