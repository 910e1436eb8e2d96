package telemetry

import "time"

// AnalyticsClient forwards named usage events to the analytics collector.
type AnalyticsClient interface {
	Capture(distinctID, event string, properties map[string]any) error
	Close() error
}

// ErrorReporter forwards errors to the error-reporting collector.
// CaptureError is best-effort and never fails.
type ErrorReporter interface {
	CaptureError(err error)
	// Flush waits up to timeout for queued reports to be delivered.
	Flush(timeout time.Duration) bool
}

// ReporterTags are attached to every error report.
type ReporterTags struct {
	App      string
	Version  string
	Platform string
}

// AnalyticsFactory builds the analytics client from a validated key.
type AnalyticsFactory func(key string) (AnalyticsClient, error)

// ReporterFactory builds the error reporter from a validated DSN.
type ReporterFactory func(dsn string, tags ReporterTags) (ErrorReporter, error)
