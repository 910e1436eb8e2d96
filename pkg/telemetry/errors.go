package telemetry

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies telemetry failures.
type Kind string

const (
	KindInitialization Kind = "failed to initialize telemetry"
	KindConfig         Kind = "configuration error"
	KindCredentials    Kind = "invalid credentials"
	KindSend           Kind = "failed to send telemetry data"
	KindAnalytics      Kind = "PostHog client error"
	KindReporter       Kind = "Sentry client error"
	KindInvalidPath    Kind = "invalid configuration path"
	KindEnvironment    Kind = "environment error"
	KindPermission     Kind = "permission denied"
)

// Error is returned by every failing operation of this package.
// Match it with errors.Is against the Err* sentinels.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

var (
	ErrInitialization = &Error{Kind: KindInitialization}
	ErrConfig         = &Error{Kind: KindConfig}
	ErrCredentials    = &Error{Kind: KindCredentials}
	ErrSend           = &Error{Kind: KindSend}
	ErrAnalytics      = &Error{Kind: KindAnalytics}
	ErrReporter       = &Error{Kind: KindReporter}
	ErrInvalidPath    = &Error{Kind: KindInvalidPath}
	ErrEnvironment    = &Error{Kind: KindEnvironment}
	ErrPermission     = &Error{Kind: KindPermission}
)

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind. Credential failures also match ErrConfig, and
// a failure caused by a filesystem permission problem also matches
// ErrPermission whatever its own kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == KindPermission && errors.Is(e.Err, fs.ErrPermission) {
		return true
	}
	if t.Kind == KindConfig && e.Kind == KindCredentials {
		return true
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func configError(err error, format string, args ...any) *Error {
	return newError(KindConfig, err, format, args...)
}
