package indices

import (
	"github.com/spf13/cobra"
	"github.com/stackward/esretire/internal/config"
)

func Cmd(cliCtx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "Elasticsearch index retirement operations",
	}

	cmd.AddCommand(retireCmd(cliCtx))
	cmd.AddCommand(listOutdatedCmd(cliCtx))

	return cmd
}
