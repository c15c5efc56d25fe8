// Package apperr provides typed domain errors. Services return them and
// httpkit.HandleError turns the Kind into a status code; the Message is the
// text shown to the client.
package apperr

import (
	"errors"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	KindBadRequest
	KindInternal
	// KindGone marks something that existed but expired or was consumed.
	KindGone
	// KindUnavailable marks a feature that is not configured on this server.
	KindUnavailable
	// KindUpstream marks a failure reported by an external provider.
	KindUpstream
)

var statusByKind = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindForbidden:    http.StatusForbidden,
	KindUnauthorized: http.StatusUnauthorized,
	KindBadRequest:   http.StatusBadRequest,
	KindInternal:     http.StatusInternalServerError,
	KindGone:         http.StatusGone,
	KindUnavailable:  http.StatusServiceUnavailable,
	KindUpstream:     http.StatusBadGateway,
}

// Error is a domain error. Err, when set, is kept for logs and errors.Is
// and never reaches the client.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code for the error's kind. Unknown kinds are
// treated as client errors.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusBadRequest
}

// Wrap creates a domain error of kind around err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error     { return &Error{Kind: KindNotFound, Message: message} }
func Conflict(message string) *Error     { return &Error{Kind: KindConflict, Message: message} }
func Forbidden(message string) *Error    { return &Error{Kind: KindForbidden, Message: message} }
func Unauthorized(message string) *Error { return &Error{Kind: KindUnauthorized, Message: message} }
func BadRequest(message string) *Error   { return &Error{Kind: KindBadRequest, Message: message} }
func Internal(message string) *Error     { return &Error{Kind: KindInternal, Message: message} }
func Gone(message string) *Error         { return &Error{Kind: KindGone, Message: message} }
func Unavailable(message string) *Error  { return &Error{Kind: KindUnavailable, Message: message} }

// Upstream wraps a failed call to an external provider.
func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if the error is not an *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
