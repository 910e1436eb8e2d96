package telemetry

import (
	"context"
	"strings"

	"github.com/docker/usage-telemetry/pkg/environment"
)

// Environment variables holding the collector credentials.
const (
	PostHogKeyEnv  = "ANVIL_POSTHOG_KEY"
	PostHogHostEnv = "ANVIL_POSTHOG_HOST"
	SentryDSNEnv   = "ANVIL_SENTRY_DSN"
)

const (
	postHogKeyPrefix = "phc_"
	sentryDSNScheme  = "http"
	sentryDSNDomain  = "@sentry.io"
)

// Credentials are the keys for the two collectors. An empty field means the
// corresponding collector is not configured.
type Credentials struct {
	PostHogKey string
	SentryDSN  string
}

// KeysFromEnv reads and validates both credentials from env.
func KeysFromEnv(ctx context.Context, env environment.Provider) (Credentials, error) {
	posthogKey, err := PostHogKey(ctx, env)
	if err != nil {
		return Credentials{}, err
	}
	sentryDSN, err := SentryDSN(ctx, env)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{PostHogKey: posthogKey, SentryDSN: sentryDSN}, nil
}

// WithExplicitKeys validates caller-supplied credentials.
func WithExplicitKeys(posthogKey, sentryDSN string) (Credentials, error) {
	creds := Credentials{PostHogKey: posthogKey, SentryDSN: sentryDSN}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Validate checks the format of every credential that is set.
func (c Credentials) Validate() error {
	if c.PostHogKey != "" {
		if err := validatePostHogKey(c.PostHogKey); err != nil {
			return err
		}
	}
	if c.SentryDSN != "" {
		if err := validateSentryDSN(c.SentryDSN); err != nil {
			return err
		}
	}
	return nil
}

// PostHogKey returns the analytics key from env, or "" when it is unset or blank.
func PostHogKey(ctx context.Context, env environment.Provider) (string, error) {
	key := lookup(ctx, env, PostHogKeyEnv)
	if key == "" {
		return "", nil
	}
	if err := validatePostHogKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// SentryDSN returns the error-reporting DSN from env, or "" when it is unset or blank.
func SentryDSN(ctx context.Context, env environment.Provider) (string, error) {
	dsn := lookup(ctx, env, SentryDSNEnv)
	if dsn == "" {
		return "", nil
	}
	if err := validateSentryDSN(dsn); err != nil {
		return "", err
	}
	return dsn, nil
}

func lookup(ctx context.Context, env environment.Provider, name string) string {
	value, ok := env.Get(ctx, name)
	if !ok || strings.TrimSpace(value) == "" {
		return ""
	}
	return value
}

func validatePostHogKey(key string) error {
	if !strings.HasPrefix(key, postHogKeyPrefix) {
		return newError(KindCredentials, nil, "Invalid PostHog key format. Must start with '%s'", postHogKeyPrefix)
	}
	return nil
}

func validateSentryDSN(dsn string) error {
	if !strings.HasPrefix(dsn, sentryDSNScheme) || !strings.Contains(dsn, sentryDSNDomain) {
		return newError(KindCredentials, nil, "Invalid Sentry DSN format")
	}
	return nil
}
