package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/macrowatch/internal/scheduler"
)

var watchCron string

// watchCmd runs the pipeline unattended on a cron schedule.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline on a cron schedule",
	Long: `Keeps the process alive and executes a full pipeline run on the
given cron expression. Failed runs are retried by the scheduler.

Example:
  macrowatch watch --cron "0 9 16 * *"
  macrowatch watch --cron "@daily"`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchCron, "cron", "@daily", "cron expression for pipeline runs")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := setup(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.logger)
	job := scheduler.FuncJob{
		JobName: "pipeline-run",
		Cron:    watchCron,
		Fn: func(ctx context.Context) error {
			_, err := a.runner.Run(ctx)
			return err
		},
	}
	if err := sched.AddJob(job); err != nil {
		return err
	}

	sched.Start()
	fmt.Printf("Watching on schedule %q. Ctrl-C to stop.\n", watchCron)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
