package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Bitkraft-Technologies-LLP/bitkraft-zoho-automation-suite/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "zoho-suite",
	Short: "Zoho Books automation suite - invoice ingestion, payments and rate sync",
	Long: `Zoho Books automation suite for accounts-payable workflows.

It extracts structured billing data from vendor invoice PDFs with AI,
reconciles vendors against the Zoho Books registry, computes statutory TDS
withholding and creates draft bills; generates bank-payment export files for
unpaid bills; and syncs customs exchange rates into the organization's
currency settings.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Zoho automation suite executed")

		fmt.Println("Welcome to the Zoho Books automation suite!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
