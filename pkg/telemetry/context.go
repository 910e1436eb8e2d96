package telemetry

import (
	"context"
	"log/slog"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const telemetryContextKey contextKey = "telemetry"

// WithTelemetry adds t to the context
func WithTelemetry(ctx context.Context, t *Telemetry) context.Context {
	return context.WithValue(ctx, telemetryContextKey, t)
}

// FromContext retrieves the Telemetry from context, or nil
func FromContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey).(*Telemetry); ok {
		return t
	}
	return nil
}

// RecordEvent sends an event through the context's Telemetry, if any.
// Send failures are logged, not returned.
func RecordEvent(ctx context.Context, name string, properties map[string]any) {
	if t := FromContext(ctx); t != nil {
		if err := t.TrackEvent(ctx, name, properties); err != nil {
			slog.Debug("Failed to record telemetry event", "event", name, "error", err)
		}
	}
}

func RecordError(ctx context.Context, err error) {
	if t := FromContext(ctx); t != nil {
		_ = t.TrackError(ctx, err)
	}
}
