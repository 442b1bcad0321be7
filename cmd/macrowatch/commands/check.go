package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/macrowatch/internal/catalog"
)

// checkCmd validates configuration without fetching anything.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate config and catalog, print the rule table",
	Long: `Loads the environment configuration and the indicator catalog,
runs full validation and prints the indicators and alert rules.
Exits non-zero on any configuration error.

Example:
  macrowatch check
  macrowatch check --catalog config/indicators.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadEnv()
	if err != nil {
		return err
	}

	cat, _, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	hash, err := catalog.Hash(cat)
	if err != nil {
		return err
	}

	fmt.Printf("Catalog: %s v%s (%s)\n", cat.Meta.CatalogID, cat.Meta.Version, hash[:12])
	fmt.Printf("Window: %d months, max gap %d months\n\n", cat.Window.Months, cat.Window.MaxGapMonths)

	fmt.Printf("Indicators (%d):\n", len(cat.Indicators))
	for _, ind := range cat.Indicators {
		fmt.Printf("  %-12s %-28s %s:%s %s\n",
			ind.ID, ind.Label, ind.Source, ind.SeriesID, ind.Transform)
	}

	fmt.Printf("\nRules (%d):\n", len(cat.Rules))
	for _, rule := range cat.Rules {
		fmt.Printf("  %-12s %s %s %s (= %g)\n",
			rule.Indicator, rule.Metric, rule.Comparator, rule.ThresholdKey,
			cat.Thresholds[rule.ThresholdKey])
	}

	fmt.Println("\nConfiguration OK")
	return nil
}
