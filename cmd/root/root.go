package root

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docker/usage-telemetry/pkg/environment"
	"github.com/docker/usage-telemetry/pkg/logging"
	"github.com/docker/usage-telemetry/pkg/paths"
	"github.com/docker/usage-telemetry/pkg/telemetry"
	"github.com/docker/usage-telemetry/pkg/version"
)

const AppName = "telemetryctl"

type rootFlags struct {
	appName      string
	configPath   string
	enableOtel   bool
	debugMode    bool
	logFilePath  string
	envOverrides []string

	logFile      io.Closer
	shutdownOtel func(context.Context) error

	env environment.Provider
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootFlags{})
}

func newRootCmd(flags *rootFlags) *cobra.Command {
	flags.env = environment.NewDefaultProvider(nil)

	cmd := &cobra.Command{
		Use:   AppName,
		Short: "telemetryctl - manage anonymous usage telemetry",
		Long:  "telemetryctl inspects and changes the telemetry consent of a command-line tool and sends events on its behalf",
		Example: `  telemetryctl status
  telemetryctl --app mytool disable
  telemetryctl track command name=deploy duration_ms=1200
  telemetryctl --env ANVIL_POSTHOG_KEY=phc_xxx track command`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseEnvOverrides(flags.envOverrides)
			if err != nil {
				return err
			}
			flags.env = environment.NewDefaultProvider(overrides)

			if err := flags.setupLogging(); err != nil {
				// If logging setup fails, fall back to stderr so we still get logs
				slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})))
				slog.Warn("Failed to open debug log file", "error", err)
			}

			if flags.enableOtel {
				endpoint, _ := flags.env.Get(cmd.Context(), otlpEndpointEnv)
				shutdown, err := initOTelSDK(cmd.Context(), strings.TrimSpace(endpoint))
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "Failed to initialize OpenTelemetry:", err)
				} else {
					flags.shutdownOtel = shutdown
					slog.Debug("OpenTelemetry SDK initialized successfully")
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flags.appName, "app", AppName, "Name of the application whose telemetry is managed")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to the consent record (default: <user config dir>/<app>/telemetry.json)")
	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.enableOtel, "otel", "o", false, "Enable OpenTelemetry tracing (exported to $"+otlpEndpointEnv+")")
	cmd.PersistentFlags().StringVar(&flags.logFilePath, "log-file", "", "Path to debug log file (default: <user config dir>/<app>/telemetryctl.debug.log; only used with --debug)")
	cmd.PersistentFlags().StringArrayVar(&flags.envOverrides, "env", nil, "Set an environment variable for this run, as KEY=VALUE (repeatable)")

	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newEnableCmd(flags))
	cmd.AddCommand(newDisableCmd(flags))
	cmd.AddCommand(newTrackCmd(flags))
	cmd.AddCommand(newReportCmd(flags))
	cmd.AddCommand(newPathCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	flags := &rootFlags{}
	rootCmd := newRootCmd(flags)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	flags.close()
	if err != nil {
		return processErr(ctx, err, stderr, rootCmd)
	}
	return nil
}

// close flushes traces and closes the debug log. It runs after the command
// whether it failed or not.
func (f *rootFlags) close() {
	if f.shutdownOtel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := f.shutdownOtel(ctx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
		cancel()
		f.shutdownOtel = nil
	}
	if f.logFile != nil {
		if err := f.logFile.Close(); err != nil {
			slog.Error("Failed to close log file", "error", err)
		}
		f.logFile = nil
	}
}

func parseEnvOverrides(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --env value %q, expected KEY=VALUE", value)
		}
		overrides[strings.TrimSpace(key)] = val
	}
	return overrides, nil
}

func processErr(ctx context.Context, err error, stderr io.Writer, rootCmd *cobra.Command) error {
	if ctx.Err() != nil {
		return ctx.Err()
	} else if telemetryErr, ok := errors.AsType[*telemetry.Error](err); ok {
		fmt.Fprintln(stderr, telemetryErr)
		if errors.Is(telemetryErr, telemetry.ErrCredentials) {
			fmt.Fprintf(stderr, "\nCheck the %s and %s environment variables.\n", telemetry.PostHogKeyEnv, telemetry.SentryDSNEnv)
		}
	} else {
		// Command line usage errors - show the error and usage
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr)
		if strings.HasPrefix(err.Error(), "unknown command ") || strings.HasPrefix(err.Error(), "accepts ") {
			_ = rootCmd.Usage()
		}
	}

	return err
}

// setupLogging configures slog logging behavior.
// When --debug is enabled, logs are written to <configDir>/telemetryctl.debug.log,
// or to the file specified by --log-file.
func (f *rootFlags) setupLogging() error {
	if !f.debugMode {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return nil
	}

	path := strings.TrimSpace(f.logFilePath)
	if path == "" {
		dir, err := paths.GetConfigDir(f.appName)
		if err != nil {
			return err
		}
		path = filepath.Join(dir, AppName+".debug.log")
	}

	logFile, err := logging.NewRotatingFile(path, 0)
	if err != nil {
		return err
	}
	f.logFile = logFile

	slog.SetDefault(logging.NewDebugLogger(logFile))

	return nil
}

// store returns a consent store prompting on the command's streams.
func (f *rootFlags) store(cmd *cobra.Command, prompt bool) *telemetry.Store {
	opts := []telemetry.StoreOption{
		telemetry.WithEnvironment(f.env),
		telemetry.WithPromptIO(cmd.InOrStdin(), cmd.OutOrStdout()),
		telemetry.WithStoreLogger(slog.Default()),
	}
	if !prompt {
		opts = append(opts, telemetry.WithTerminalCheck(func() bool { return false }))
	}
	return telemetry.NewStore(opts...)
}

// withTelemetry runs fn with a Telemetry whose credentials come from the
// environment. The Telemetry is closed, and pending reports flushed, on every
// return path; a failure of fn is reported before that.
func (f *rootFlags) withTelemetry(cmd *cobra.Command, fn func(ctx context.Context, t *telemetry.Telemetry) error) error {
	ctx := cmd.Context()
	host, _ := f.env.Get(ctx, telemetry.PostHogHostEnv)

	t, err := telemetry.New(ctx, f.appName,
		telemetry.WithStore(f.store(cmd, true)),
		telemetry.WithConfigPath(f.configPath),
		telemetry.WithCredentialsFromEnv(f.env),
		telemetry.WithVersion(version.Version),
		telemetry.WithAnalyticsFactory(telemetry.NewPostHogFactory(strings.TrimSpace(host))),
		telemetry.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := t.Close(); err != nil {
			slog.Warn("Failed to close telemetry", "error", err)
		}
	}()

	ctx = telemetry.WithTelemetry(ctx, t)
	telemetry.RecordEvent(ctx, "command", map[string]any{"name": cmp.Or(cmd.Name(), AppName)})

	if err := fn(ctx, t); err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	return nil
}
