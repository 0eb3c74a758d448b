// Package apperr classifies failures so that every layer can reject a request
// with a reason the HTTP boundary knows how to report.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Unclassified Kind = iota
	Unauthenticated
	ProfileMissing
	Forbidden
	NotFound
	ValidationFailed
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case ProfileMissing:
		return "profile_missing"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case ValidationFailed:
		return "validation_failed"
	case Conflict:
		return "conflict"
	}
	return "unclassified"
}

// Error is a classified failure. Message is safe to show to clients; Err
// carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NewUnauthenticated(msg string) *Error { return New(Unauthenticated, msg) }
func NewForbidden(msg string) *Error       { return New(Forbidden, msg) }
func NewNotFound(msg string) *Error        { return New(NotFound, msg) }
func NewValidation(msg string) *Error      { return New(ValidationFailed, msg) }
func NewConflict(msg string) *Error        { return New(Conflict, msg) }

// Missing is returned when an authenticated identity has no user profile.
func Missing() *Error { return New(ProfileMissing, "User profile not found") }

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(err error) *Error {
	return Wrap(err, Unclassified, "Internal server error")
}

// KindOf returns the classification of err; errors that were never
// classified are Unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unclassified
}

// Message returns the client facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Unclassified {
		return e.Message
	}
	return "Internal server error"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound, ProfileMissing:
		return http.StatusNotFound
	case ValidationFailed, Conflict:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
