package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// runCmd executes one full pipeline run.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Long: `Fetches every catalog indicator, evaluates the alert rules and
writes the report artifacts to the output directory.

Example:
  macrowatch run
  macrowatch run --catalog config/indicators.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Run complete: %d%% (%s), %d/%d rules triggered, %d indicator rows\n",
		rep.Score.Percentage, rep.Score.Tier,
		rep.Score.Triggered, rep.Score.Evaluable, len(rep.Rows))
	return nil
}
