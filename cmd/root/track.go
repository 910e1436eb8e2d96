package root

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docker/usage-telemetry/pkg/telemetry"
)

func newTrackCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "track EVENT [KEY=VALUE...]",
		Short: "Send a usage event",
		Long: `Send a usage event to the analytics collector if telemetry is enabled.
Values that parse as JSON keep their type, anything else is sent as a string.`,
		Example: `  telemetryctl track command name=deploy
  telemetryctl track build duration_ms=1200 cached=true`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			properties, err := parseProperties(args[1:])
			if err != nil {
				return err
			}
			return flags.withTelemetry(cmd, func(ctx context.Context, t *telemetry.Telemetry) error {
				return t.TrackEvent(ctx, args[0], properties)
			})
		},
	}
}

func newReportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report MESSAGE",
		Short: "Send an error report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withTelemetry(cmd, func(ctx context.Context, t *telemetry.Telemetry) error {
				return t.TrackError(ctx, errors.New(args[0]))
			})
		},
	}
}

func parseProperties(args []string) (map[string]any, error) {
	properties := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q, expected KEY=VALUE", arg)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		properties[key] = value
	}
	return properties, nil
}
