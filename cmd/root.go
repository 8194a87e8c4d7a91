package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/stackward/esretire/cmd/indices"
	"github.com/stackward/esretire/cmd/version"
	"github.com/stackward/esretire/internal/config"
)

var (
	cliCtx *config.Context
)

// addClusterFlags adds the flags shared by commands that talk to an
// Elasticsearch cluster
func addClusterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&cliCtx.Config.ConfigFile, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVarP(&cliCtx.Config.Address, "address", "a", config.DefaultAddress, "Elasticsearch cluster address")
	cmd.PersistentFlags().StringVarP(&cliCtx.Config.Repository, "repository", "r", "", "Snapshot repository indices are archived into")
	cmd.PersistentFlags().StringVarP(&cliCtx.Config.IndexFilter, "index-filter", "f", "", "Comma-separated index name patterns (e.g. \"logs-*,events-*\")")
	cmd.PersistentFlags().IntVarP(&cliCtx.Config.KeepDays, "keep-days", "k", config.DefaultKeepDays, "Retention window in days; strictly older indices are retired")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.Namespace, "namespace", "", "Reach the cluster through a port-forward in this Kubernetes namespace")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.Kubeconfig, "kubeconfig", "", "Path to kubeconfig file (default: ~/.kube/config)")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.ServiceName, "service", "", "Elasticsearch service name for the port-forward")
	cmd.PersistentFlags().BoolVar(&cliCtx.Config.Debug, "debug", false, "Enable debug output")
	cmd.PersistentFlags().BoolVarP(&cliCtx.Config.Quiet, "quiet", "q", false, "Suppress operational messages (only show errors and data output)")
	cmd.PersistentFlags().StringVarP(&cliCtx.Config.OutputFormat, "output", "o", "table", "Output format (table, json)")
}

func init() {
	cliCtx = config.NewContext()

	indicesCmd := indices.Cmd(cliCtx)
	addClusterFlags(indicesCmd)
	rootCmd.AddCommand(indicesCmd)

	rootCmd.AddCommand(version.Cmd())
}

var rootCmd = &cobra.Command{
	Use:   "esretire",
	Short: "Snapshot-then-delete retirement for aged Elasticsearch indices",
	Long: `A CLI tool that retires Elasticsearch indices older than a retention
window: each outdated index is snapshotted into a repository and deleted only
after the snapshot succeeds.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
