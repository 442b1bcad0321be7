package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/macrowatch/internal/api"
	"github.com/wonny/macrowatch/internal/scheduler"
)

var serveCron string

// serveCmd runs the pipeline and exposes the report over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run once, then serve the latest report over HTTP",
	Long: `Executes one pipeline run, then serves the assembled report on
/api/report/latest and the composite score on /api/score. With --cron
the pipeline keeps re-running on schedule and the served report
refreshes after each run.

Example:
  macrowatch serve
  macrowatch serve --cron "@daily"`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveCron, "cron", "", "optionally re-run the pipeline on this schedule")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	store := api.NewReportStore()

	rep, err := a.runner.Run(ctx)
	if err != nil {
		return err
	}
	store.Set(rep)

	var sched *scheduler.Scheduler
	if serveCron != "" {
		sched = scheduler.New(a.logger)
		job := scheduler.FuncJob{
			JobName: "pipeline-run",
			Cron:    serveCron,
			Fn: func(ctx context.Context) error {
				rep, err := a.runner.Run(ctx)
				if err != nil {
					return err
				}
				store.Set(rep)
				return nil
			},
		}
		if err := sched.AddJob(job); err != nil {
			return err
		}
		sched.Start()
	}

	server := api.New(a.cfg, a.logger, api.NewRouter(store, a.logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
