package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/docker/usage-telemetry/pkg/environment"
	"github.com/docker/usage-telemetry/pkg/paths"
)

// Record is the persisted telemetry consent decision.
type Record struct {
	// Enabled reports whether events and errors may be forwarded.
	Enabled bool `json:"enabled"`
	// InstanceID identifies this installation. It never changes once created.
	InstanceID string `json:"instance_id"`
	// CreatedAt is when the record was first created, in UTC.
	CreatedAt time.Time `json:"created_at"`
	// ConfigPath is where the record is stored. Empty for in-memory records.
	ConfigPath string `json:"config_path,omitempty"`
}

// Store loads, creates and updates consent records on disk.
type Store struct {
	env        environment.Provider
	in         io.Reader
	out        io.Writer
	isTerminal TerminalCheck
	now        func() time.Time
	newID      func() string
	logger     *telemetryLogger
}

type StoreOption func(*Store)

// WithEnvironment sets where CI detection variables are read from.
func WithEnvironment(env environment.Provider) StoreOption {
	return func(s *Store) {
		s.env = env
	}
}

// WithPromptIO sets the streams used for the first-run consent prompt. The
// prompt is only shown when both are terminals, unless WithTerminalCheck
// says otherwise.
func WithPromptIO(in io.Reader, out io.Writer) StoreOption {
	return func(s *Store) {
		s.in = in
		s.out = out
		s.isTerminal = StreamsAreTerminal(in, out)
	}
}

// WithTerminalCheck replaces the check for an attached terminal.
func WithTerminalCheck(check TerminalCheck) StoreOption {
	return func(s *Store) {
		s.isTerminal = check
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) {
		s.newID = newID
	}
}

func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = newTelemetryLogger(logger)
	}
}

// NewStore returns a store bound to the process environment and standard
// streams unless overridden by opts.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		env:        environment.NewOsEnvProvider(),
		in:         os.Stdin,
		out:        os.Stdout,
		isTerminal: StreamsAreTerminal(os.Stdin, os.Stdout),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
		logger:     newTelemetryLogger(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolvePath returns override when set, otherwise the default record
// location for appName in the user's config directory.
func ResolvePath(appName, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if appName == "" {
		return "", newError(KindInvalidPath, nil, "application name is empty")
	}
	path, err := paths.GetConfigFile(appName)
	if err != nil {
		return "", newError(KindEnvironment, err, "failed to get project directories")
	}
	return path, nil
}

// NewRecord returns a fresh record with a new identity. It is not persisted.
func (s *Store) NewRecord(enabled bool, path string) *Record {
	return &Record{
		Enabled:    enabled,
		InstanceID: s.newID(),
		CreatedAt:  s.now().UTC(),
		ConfigPath: path,
	}
}

// LoadOrCreate returns the record stored for appName, creating it on first
// run. A non-interactive or CI run is never prompted and never opted in.
// An existing but unreadable record is an error: it is never regenerated.
func (s *Store) LoadOrCreate(ctx context.Context, appName, override string) (*Record, error) {
	ctx, span := startSpan(ctx, "telemetry.LoadOrCreate")
	defer span.End()

	path, err := ResolvePath(appName, override)
	if err != nil {
		return nil, err
	}

	rec, err := readRecord(path)
	if err == nil {
		s.logger.Debug("Loaded consent record", "path", path, "enabled", rec.Enabled)
		return rec, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	enabled := false
	if s.isInteractive(ctx) {
		printDisclosure(s.out, appName)
		enabled = promptYesNo(ctx, s.in, s.out, consentQuestion)
	} else {
		s.logger.Debug("Non-interactive run, telemetry disabled", "path", path)
	}

	rec = s.NewRecord(enabled, path)
	if err := writeRecord(rec); err != nil {
		return nil, err
	}
	s.logger.Debug("Created consent record", "path", path, "enabled", enabled, "instance_id", rec.InstanceID)

	return rec, nil
}

// UpdateConsent sets rec.Enabled and rewrites the record at its path. Records
// without a path are only updated in memory. When the write fails rec is left
// unchanged.
func (s *Store) UpdateConsent(rec *Record, enabled bool) error {
	previous := rec.Enabled
	rec.Enabled = enabled

	if rec.ConfigPath == "" {
		return nil
	}
	if err := writeRecord(rec); err != nil {
		rec.Enabled = previous
		return err
	}
	s.logger.Debug("Updated consent", "path", rec.ConfigPath, "enabled", enabled)
	return nil
}

// readRecord returns an error matching fs.ErrNotExist when there is no record.
func readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			return nil, newError(KindInvalidPath, nil, "%s is a directory", path)
		}
		return nil, configError(err, "Failed to open config file")
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, configError(err, "Failed to parse config")
	}
	if rec.InstanceID == "" {
		return nil, configError(nil, "Failed to parse config: missing instance_id")
	}
	return &rec, nil
}

// writeRecord serializes the whole record before replacing the file so a
// crash never leaves a partially written record behind.
func writeRecord(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return configError(err, "Failed to write config")
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(rec.ConfigPath), 0o755); err != nil {
		return configError(err, "Failed to create config directory")
	}
	if err := atomic.WriteFile(rec.ConfigPath, bytes.NewReader(data)); err != nil {
		return configError(err, "Failed to save telemetry consent")
	}
	return nil
}
