// internal/app/system/apperr/apperr.go

// Package apperr classifies errors returned by stores so handlers can map
// them to HTTP responses in one place.
//
// Stores declare sentinel values built with these constructors
// (e.g. clubstore.ErrAlreadyMember) and callers match them with errors.Is.
// Anything that is not an *Error is treated as unhandled.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind int

const (
	KindUnhandled Kind = iota
	// KindValidation is missing or malformed input.
	KindValidation
	// KindNotFound is an id that does not resolve.
	KindNotFound
	// KindConflict covers duplicates and full events.
	KindConflict
	// KindAuth is bad credentials or a deactivated account.
	KindAuth
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	}
	return "unhandled"
}

// Error is a classified error with a user-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newErr(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newErr(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newErr(KindConflict, format, args...)
}

func Auth(format string, args ...any) *Error {
	return newErr(KindAuth, format, args...)
}

func RateLimited(format string, args ...any) *Error {
	return newErr(KindRateLimited, format, args...)
}

// Wrap attaches a cause to a classified error without changing its kind.
func Wrap(e *Error, cause error) *Error {
	return &Error{Kind: e.Kind, Msg: e.Msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnhandled
}

// Message returns the user-facing message for err. Unhandled errors
// return their raw text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// KindName is KindOf(err).String(), for metric labels.
func KindName(err error) string {
	return KindOf(err).String()
}
