package root

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/docker/usage-telemetry/pkg/telemetry"
)

type statusView struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	InstanceID string `json:"instance_id" yaml:"instance_id"`
	CreatedAt  string `json:"created_at" yaml:"created_at"`
	ConfigPath string `json:"config_path,omitempty" yaml:"config_path,omitempty"`
}

func newStatusView(rec telemetry.Record) statusView {
	return statusView{
		Enabled:    rec.Enabled,
		InstanceID: rec.InstanceID,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
		ConfigPath: rec.ConfigPath,
	}
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the telemetry consent",
		Long:  "Show the telemetry consent, asking for it first if this is the first run in a terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withTelemetry(cmd, func(_ context.Context, t *telemetry.Telemetry) error {
				return printStatus(cmd.OutOrStdout(), newStatusView(t.Record()), format)
			})
		},
	}
	cmd.Flags().StringVar(&format, "output", "text", "Output format: text, json or yaml")

	return cmd
}

func printStatus(out io.Writer, view statusView, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := yaml.Marshal(view)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	case "text", "":
		state := "disabled"
		if view.Enabled {
			state = "enabled"
		}
		fmt.Fprintf(out, "Telemetry:   %s\n", state)
		fmt.Fprintf(out, "Instance ID: %s\n", view.InstanceID)
		fmt.Fprintf(out, "Created at:  %s\n", view.CreatedAt)
		if view.ConfigPath != "" {
			fmt.Fprintf(out, "Stored in:   %s\n", view.ConfigPath)
		}
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	return nil
}
