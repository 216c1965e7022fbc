package core

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the core can report. The set is closed.
type Kind int

const (
	KindStorageUnavailable Kind = iota
	KindValidation
	KindDuplicateEmail
	KindInvalidCredentials
	KindUnauthenticated
	KindWrongRole
	KindForbidden
	KindNotFound
	KindInvalidTransition
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindDuplicateEmail:
		return "duplicate email"
	case KindInvalidCredentials:
		return "invalid credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindWrongRole:
		return "wrong role"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindInvalidTransition:
		return "invalid transition"
	default:
		return "storage unavailable"
	}
}

// Error is the typed error returned by core operations.
// Msg is safe to show to a client; Err is for logs only.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so callers can test against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrWrongRole          = &Error{Kind: KindWrongRole}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
)

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// storageError wraps a driver or transport failure. The cause stays out of Msg.
func storageError(op string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Msg: op + " failed", Err: err}
}

// KindOf reports the Kind of err. Errors that are not *Error count as storage failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageUnavailable
}
