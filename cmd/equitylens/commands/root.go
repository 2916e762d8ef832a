// Package commands implements the EquityLens CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "equitylens",
	Short: "EquityLens - financial analytics aggregation backend",
	Long: `EquityLens backend CLI.

Aggregates quotes, profiles, history, and financial statements from multiple
market-data providers and serves ratio dashboards, DCF valuations, portfolio
insights, and the stock screener over REST.

Usage:
  go run ./cmd/equitylens [command]

Examples:
  go run ./cmd/equitylens api
  go run ./cmd/equitylens screen --preset safe-compounders
  go run ./cmd/equitylens version`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
