package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docker/usage-telemetry/pkg/telemetry"
)

func newPathCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the consent record is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := telemetry.ResolvePath(flags.appName, flags.configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
