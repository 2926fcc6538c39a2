package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error so the HTTP layer can map it to a status
// code without inspecting message strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindInvalidState
	KindInvalidTransition
	KindConflict
	KindExternal
	KindPayment
)

// Error is the single error type crossing the application/domain boundary.
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

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func Auth(format string, args ...any) *Error {
	return newf(KindAuth, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return newf(KindInvalidTransition, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// External wraps a failure talking to a collaborator (geocoder, mail, gateway
// transport). cause may be nil.
func External(cause error, format string, args ...any) *Error {
	e := newf(KindExternal, format, args...)
	e.Err = cause
	return e
}

// Payment marks a gateway decline or processing failure.
func Payment(cause error, format string, args ...any) *Error {
	e := newf(KindPayment, format, args...)
	e.Err = cause
	return e
}

// KindOf extracts the Kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the HTTP status the API surfaces.
// Unknown errors map to 500; callers log the detail and return a generic
// message for those.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidState, KindInvalidTransition:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindExternal:
		return http.StatusBadGateway
	case KindPayment:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
