package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"
)

type sentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter is the default ReporterFactory. It uses its own hub so
// the process-wide sentry state is left alone.
func NewSentryReporter(dsn string, tags ReporterTags) (ErrorReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:     dsn,
		Release: tags.Version,
	})
	if err != nil {
		return nil, newError(KindReporter, err, "failed to create client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("app", tags.App)
		scope.SetTag("version", tags.Version)
		scope.SetTag("platform", tags.Platform)
	})

	return &sentryReporter{hub: hub}, nil
}

func (r *sentryReporter) CaptureError(err error) {
	r.hub.CaptureException(err)
}

func (r *sentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
