package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error for boundary handling.
type Kind int

const (
	// KindValidation is bad input shape or length. User-correctable.
	KindValidation Kind = iota
	// KindAuth is a missing, invalid or expired token.
	KindAuth
	// KindConflict is a uniqueness violation (e.g. duplicate username).
	KindConflict
	// KindNotFound is a referenced post or user that does not exist.
	KindNotFound
	// KindConsistency is a ledger/counter desync. Fatal, never retryable.
	KindConsistency
	// KindTransient is a network or infra failure. Retryable; the client
	// rolls back optimistic state when it sees one.
	KindTransient
)

// Error is the application error type carried from services to the HTTP
// boundary, where Kind maps to a status code.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two app errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Msg: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Consistency wraps a ledger/counter desync. These indicate a bug and must
// be surfaced to logs, never to a retry loop.
func Consistency(msg string, err error) *Error {
	return &Error{Kind: KindConsistency, Msg: msg, Err: err}
}

func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindTransient for
// anything untyped (infra failures bubble up as retryable).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindTransient
}

// Status maps an error to the HTTP status the boundary responds with.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
