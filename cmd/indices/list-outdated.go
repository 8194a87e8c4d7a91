package indices

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackward/esretire/internal/config"
	"github.com/stackward/esretire/internal/logger"
	"github.com/stackward/esretire/internal/output"
	"github.com/stackward/esretire/internal/retire"
)

func listOutdatedCmd(cliCtx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list-outdated",
		Short: "List indices older than the retention window",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runListOutdated(cliCtx, cmd.Flags().Changed); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func runListOutdated(cliCtx *config.Context, flagSet func(name string) bool) error {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)

	esClient, cfg, cleanup, err := connect(cliCtx, flagSet, log)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := retire.NewRunner(esClient, log, nil, retire.Options{
		Repository:  cfg.Elasticsearch.Repository,
		KeepDays:    cfg.Elasticsearch.KeepDays,
		IndexFilter: cfg.Elasticsearch.IndexFilter,
	})

	log.Infof("Fetching indices older than %d days...", cfg.Elasticsearch.KeepDays)

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
