package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docker/usage-telemetry/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long:  `Display the version and commit hash`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s version %s\n", AppName, version.Version)
			fmt.Fprintf(out, "Commit: %s\n", version.Commit)
		},
	}
}
