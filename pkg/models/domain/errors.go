package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing the core's boundary. Handlers map
// kinds to HTTP statuses; services wrap underlying causes with %w.
type ErrorKind string

const (
	KindNotFound               ErrorKind = "not_found"
	KindTimeout                ErrorKind = "timeout"
	KindPartialFailure         ErrorKind = "partial_failure"
	KindNoRemediationAvailable ErrorKind = "no_remediation_available"
	KindInvalidToken           ErrorKind = "invalid_token"
	KindExecutionFailed        ErrorKind = "execution_failed"
	KindInputTooLarge          ErrorKind = "input_too_large"
	KindGuardrailBlocked       ErrorKind = "guardrail_blocked"
	KindUpstreamUnavailable    ErrorKind = "upstream_unavailable"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes two errors of the same kind match under errors.Is, so callers can
// compare against a bare kind sentinel without caring about the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind from err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
