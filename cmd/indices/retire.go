package indices

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stackward/esretire/internal/config"
	"github.com/stackward/esretire/internal/logger"
	"github.com/stackward/esretire/internal/metrics"
	"github.com/stackward/esretire/internal/output"
	"github.com/stackward/esretire/internal/retire"
	"github.com/stackward/esretire/internal/schedule"
)

func retireCmd(cliCtx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retire",
		Short: "Snapshot and delete indices older than the retention window",
		Long: `Retire selects indices older than the retention window, snapshots each one
into the configured repository, waits for the snapshot to succeed, and then
deletes the index. Indices are processed strictly one at a time; the first
failure aborts the run.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runRetire(cliCtx, cmd.Flags().Changed); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&cliCtx.Config.DryRun, "dry-run", false, "Only report which indices would be retired")
	cmd.Flags().BoolVar(&cliCtx.Config.StrictSnapshotErrors, "strict-snapshot-errors", false, "Treat FAILED and PARTIAL snapshots as fatal instead of re-polling them")
	cmd.Flags().StringVar(&cliCtx.Config.Schedule, "schedule", "", "Run repeatedly on a cron schedule instead of once (e.g. \"0 2 * * *\")")
	cmd.Flags().StringVar(&cliCtx.Config.MetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address in schedule mode (e.g. :9108)")

	return cmd
}

func runRetire(cliCtx *config.Context, flagSet func(name string) bool) error {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)

	esClient, cfg, cleanup, err := connect(cliCtx, flagSet, log)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := retire.NewRunner(esClient, log, nil, retire.Options{
		Repository:           cfg.Elasticsearch.Repository,
		KeepDays:             cfg.Elasticsearch.KeepDays,
		IndexFilter:          cfg.Elasticsearch.IndexFilter,
		StrictSnapshotErrors: cliCtx.Config.StrictSnapshotErrors,
	})

	if cliCtx.Config.DryRun {
		return runDryRun(cliCtx, runner)
	}

	if cliCtx.Config.Schedule != "" {
		return runScheduled(cliCtx, runner, log)
	}

	outcomes, err := runner.RetireOutdated()
	reportOutcomes(log, outcomes)
	return err
}

// runDryRun reports the retirement candidates without touching the cluster
func runDryRun(cliCtx *config.Context, runner *retire.Runner) error {
	candidates, err := runner.Plan()
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(cliCtx.Config.OutputFormat)
	if len(candidates) == 0 {
		formatter.PrintMessage("No outdated indices found")
		return nil
	}

	return formatter.PrintTable(buildCandidateTable(candidates))
}

// runScheduled runs the pipeline as a daemon on a cron schedule until
// SIGINT or SIGTERM
func runScheduled(cliCtx *config.Context, runner *retire.Runner, log *logger.Logger) error {
	collector := metrics.NewCollector(nil)
	if cliCtx.Config.MetricsAddr != "" {
		collector.Serve(cliCtx.Config.MetricsAddr, log)
	}

	job := func() {
		outcomes, err := runner.RetireOutdated()
		reportOutcomes(log, outcomes)
		if err != nil {
			log.Errorf("retirement run failed: %v", err)
		}
		collector.RecordRun(outcomes, err)
	}

	scheduler, err := schedule.New(cliCtx.Config.Schedule, job, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return scheduler.Run(ctx)
}

func reportOutcomes(log *logger.Logger, outcomes []retire.Outcome) {
	retired := 0
	for _, outcome := range outcomes {
		if outcome.Status == retire.StatusRetired {
			retired++
		}
	}
	if retired > 0 {
		log.Successf("Retired %d indices", retired)
	}
}

// buildCandidateTable renders retirement candidates for the table/json
// formatter
func buildCandidateTable(candidates []retire.Candidate) output.Table {
	table := output.Table{
		Headers: []string{"INDEX", "CREATED", "AGE (DAYS)"},
		Rows:    make([][]string, 0, len(candidates)),
	}
	for _, c := range candidates {
		table.Rows = append(table.Rows, []string{
			c.Index,
			c.CreationDate.Format("2006-01-02T15:04:05Z"),
			fmt.Sprintf("%d", c.AgeDays),
		})
	}
	return table
}
