// Package apperr defines the error taxonomy shared by the booking core and
// the HTTP layer.  Every error that leaves the service carries a stable,
// machine-readable Kind plus a human-readable message.  Handlers translate
// kinds into status codes; the core never deals with HTTP.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.  The string values are part of the public JSON
// contract and must not change.
type Kind string

const (
	KindInvalidInput      Kind = "InvalidInput"
	KindInvalidSlot       Kind = "InvalidSlot"
	KindNotFound          Kind = "NotFound"
	KindSlotConflict      Kind = "SlotConflict"
	KindInvalidTransition Kind = "InvalidTransition"
	KindUnauthorized      Kind = "Unauthorized"
	KindTimeout           Kind = "Timeout"
	KindStoreUnavailable  Kind = "StoreUnavailable"
	KindInternal          Kind = "Internal"
)

// Error is the concrete error type returned by the service layer.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.  This lets
// callers write errors.Is(err, apperr.ErrSlotConflict) without caring about
// the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.  They carry no message of their own.
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrInvalidSlot       = &Error{Kind: KindInvalidSlot}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrSlotConflict      = &Error{Kind: KindSlotConflict}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrStoreUnavailable  = &Error{Kind: KindStoreUnavailable}
)

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidSlot(message string) *Error       { return New(KindInvalidSlot, message) }
func NotFound(resource string) *Error         { return Newf(KindNotFound, "%s not found", resource) }
func SlotConflict(message string) *Error      { return New(KindSlotConflict, message) }
func InvalidTransition(message string) *Error { return New(KindInvalidTransition, message) }
func Unauthorized(message string) *Error      { return New(KindUnauthorized, message) }

// KindOf returns the kind of err, or KindInternal for errors that did not
// come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err.  Errors from outside the
// taxonomy are hidden behind a generic message.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

// Retryable reports whether a read may be attempted again.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindTimeout || k == KindStoreUnavailable
}
