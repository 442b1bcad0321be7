package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	catalogPath string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "macrowatch",
	Short: "Macro indicator watchlist and alert pipeline",
	Long: `macrowatch fetches a catalog of macroeconomic indicators from FRED
and BLS, aligns them onto a monthly grid, derives 12-month changes,
evaluates a declarative alert rule table and writes report artifacts.

Usage:
  macrowatch run            one full pipeline run
  macrowatch watch          scheduled runs via cron expression
  macrowatch serve          run once, then expose the report over HTTP
  macrowatch check          validate configuration and print the rule table`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "indicator catalog YAML (default from CATALOG_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
