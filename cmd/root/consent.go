package root

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnableCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Opt in to anonymous usage telemetry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.setConsent(cmd, true)
		},
	}
}

func newDisableCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Opt out of anonymous usage telemetry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.setConsent(cmd, false)
		},
	}
}

// setConsent records an explicit decision. It never prompts: the command
// itself is the answer.
func (f *rootFlags) setConsent(cmd *cobra.Command, enabled bool) error {
	store := f.store(cmd, false)

	rec, err := store.LoadOrCreate(cmd.Context(), f.appName, f.configPath)
	if err != nil {
		return err
	}
	if err := store.UpdateConsent(rec, enabled); err != nil {
		return err
	}

	if enabled {
		fmt.Fprintf(cmd.OutOrStdout(), "Telemetry enabled for %s. Thank you!\n", f.appName)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Telemetry disabled for %s.\n", f.appName)
	}
	return nil
}
