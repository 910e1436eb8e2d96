// Package telemetry provides opt-in anonymous usage and error reporting for
// command-line tools.
//
// The first run asks the user once whether data may be sent and stores the
// answer, together with a random instance ID, in a small JSON record under the
// user's config directory. Runs without a terminal, or under CI, are never
// prompted and never opted in. Until consent is recorded, Telemetry never
// constructs a PostHog or Sentry client and every call is a no-op.
//
// The system collects:
// - Event names and the properties passed by the caller
// - Error descriptions
// - Platform and tool version
//
// The system does NOT collect:
// - Personal information
// - Sensitive configuration
// - Private keys or addresses
package telemetry

import (
	"cmp"
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/docker/usage-telemetry/pkg/environment"
	"github.com/docker/usage-telemetry/pkg/version"
)

// flushTimeout bounds how long Close waits for pending error reports.
const flushTimeout = 2 * time.Second

// Telemetry forwards events and errors when the user has opted in.
// Callers must Close it before exiting so the last error report is delivered.
type Telemetry struct {
	appName   string
	version   string
	record    *Record
	analytics AnalyticsClient
	reporter  ErrorReporter
	logger    *telemetryLogger
	closed    bool
}

type options struct {
	creds        Credentials
	env          environment.Provider
	configPath   string
	version      string
	store        *Store
	newAnalytics AnalyticsFactory
	newReporter  ReporterFactory
	logger       *slog.Logger
}

type Option func(*options)

// WithCredentials sets the collector keys. Without it no collector is configured.
func WithCredentials(creds Credentials) Option {
	return func(o *options) {
		o.creds = creds
	}
}

// WithCredentialsFromEnv reads missing collector keys from env. The keys are
// only read, and validated, once consent is known to be given.
func WithCredentialsFromEnv(env environment.Provider) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithConfigPath overrides where the consent record is stored.
func WithConfigPath(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithVersion sets the version reported with events and errors.
func WithVersion(v string) Option {
	return func(o *options) {
		o.version = v
	}
}

// WithStore sets the store used to load the consent record.
func WithStore(store *Store) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithAnalyticsFactory(factory AnalyticsFactory) Option {
	return func(o *options) {
		o.newAnalytics = factory
	}
}

func WithReporterFactory(factory ReporterFactory) Option {
	return func(o *options) {
		o.newReporter = factory
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New loads or creates the consent record for appName and, only if consent
// was given, builds the collector clients for the credentials that are set.
// Credentials are validated before any client is built.
func New(ctx context.Context, appName string, opts ...Option) (*Telemetry, error) {
	ctx, span := startSpan(ctx, "telemetry.New", attribute.String("app", appName))
	defer span.End()

	o := options{
		version:      version.Version,
		newAnalytics: NewPostHogFactory(""),
		newReporter:  NewSentryReporter,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = NewStore(WithStoreLogger(o.logger))
	}

	rec, err := o.store.LoadOrCreate(ctx, appName, o.configPath)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	t := &Telemetry{
		appName: appName,
		version: o.version,
		record:  rec,
		logger:  newTelemetryLogger(o.logger),
	}
	span.SetAttributes(attribute.Bool("enabled", rec.Enabled))

	if !rec.Enabled {
		t.logger.Debug("Telemetry disabled", "app", appName)
		return t, nil
	}

	creds := o.creds
	if o.env != nil {
		envCreds, err := KeysFromEnv(ctx, o.env)
		if err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		creds.PostHogKey = cmp.Or(creds.PostHogKey, envCreds.PostHogKey)
		creds.SentryDSN = cmp.Or(creds.SentryDSN, envCreds.SentryDSN)
	}
	if err := creds.Validate(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	if creds.PostHogKey != "" {
		client, err := o.newAnalytics(creds.PostHogKey)
		if err != nil {
			recordSpanError(span, err)
			return nil, newError(KindInitialization, err, "analytics client")
		}
		t.analytics = client
	}

	if creds.SentryDSN != "" {
		reporter, err := o.newReporter(creds.SentryDSN, ReporterTags{
			App:      appName,
			Version:  o.version,
			Platform: runtime.GOOS,
		})
		if err != nil {
			if t.analytics != nil {
				_ = t.analytics.Close()
			}
			recordSpanError(span, err)
			return nil, newError(KindInitialization, err, "error reporter")
		}
		t.reporter = reporter
	}

	t.logger.Debug("Telemetry enabled",
		"app", appName,
		"instance_id", rec.InstanceID,
		"analytics", t.analytics != nil,
		"error_reporting", t.reporter != nil,
	)

	return t, nil
}

// Enabled reports whether the user consented to telemetry.
func (t *Telemetry) Enabled() bool {
	return t.record.Enabled
}

// InstanceID returns the identifier events are attributed to.
func (t *Telemetry) InstanceID() string {
	return t.record.InstanceID
}

// Record returns a copy of the consent record.
func (t *Telemetry) Record() Record {
	return *t.record
}

// TrackEvent sends a usage event. Caller properties are sent alongside the
// platform and version; those two keys cannot be overridden. Failures are
// returned as ErrSend and never retried.
func (t *Telemetry) TrackEvent(ctx context.Context, name string, properties map[string]any) error {
	if !t.record.Enabled || t.analytics == nil {
		return nil
	}

	_, span := startSpan(ctx, "telemetry.TrackEvent", attribute.String("event", name))
	defer span.End()

	props := make(map[string]any, len(properties)+2)
	for k, v := range properties {
		if _, err := json.Marshal(v); err != nil {
			sendErr := newError(KindSend, err, "property %q", k)
			recordSpanError(span, sendErr)
			return sendErr
		}
		props[k] = v
	}
	props["platform"] = runtime.GOOS
	props["version"] = t.version

	if err := t.analytics.Capture(t.record.InstanceID, name, props); err != nil {
		sendErr := newError(KindSend, err, "event %q", name)
		recordSpanError(span, sendErr)
		return sendErr
	}

	t.logger.Debug("Event recorded", "event", name, "instance_id", t.record.InstanceID)
	return nil
}

// TrackError reports err. Delivery is best-effort, so it always returns nil.
func (t *Telemetry) TrackError(ctx context.Context, err error) error {
	if !t.record.Enabled || t.reporter == nil || err == nil {
		return nil
	}

	_, span := startSpan(ctx, "telemetry.TrackError")
	defer span.End()

	t.reporter.CaptureError(err)
	t.logger.Debug("Error reported", "error", err)
	return nil
}

// Close flushes pending error reports and shuts the analytics client down.
// It is safe to call more than once.
func (t *Telemetry) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	if t.reporter != nil && !t.reporter.Flush(flushTimeout) {
		t.logger.Warn("Timed out flushing error reports", "timeout", flushTimeout)
	}
	if t.analytics != nil {
		if err := t.analytics.Close(); err != nil {
			return newError(KindAnalytics, err, "failed to close client")
		}
	}
	return nil
}
