// Package apperr holds the error taxonomy shared by services and handlers.
//
// It re-exports github.com/cockroachdb/errors so callers get stack traces and
// wrapping from one import, and defines sentinels that the HTTP layer maps to
// status codes:
//
//	return apperr.NotFound("Test run not found")
//	...
//	c.JSON(apperr.HTTPStatus(err), gin.H{"message": apperr.Message(err)})
package apperr

import (
	"fmt"
	"net/http"

	crdb "github.com/cockroachdb/errors"
)

var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
	Is    = crdb.Is
	As    = crdb.As
)

var (
	// ErrValidation marks a caller-correctable request problem.
	ErrValidation = New("validation failed")
	// ErrNotFound marks a reference that does not resolve.
	ErrNotFound = New("not found")
	// ErrConflict marks an optimistic concurrency retry budget that ran out.
	ErrConflict = New("conflict")
	// ErrUnauthorized marks a missing or invalid credential.
	ErrUnauthorized = New("unauthorized")
	// ErrForbidden marks a valid credential without the required role.
	ErrForbidden = New("forbidden")
)

// Error carries a user-facing message on top of one of the sentinels.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newKind(kind error, format string, args ...interface{}) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return crdb.WithStack(&Error{kind: kind, msg: msg})
}

func Validation(format string, args ...interface{}) error {
	return newKind(ErrValidation, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newKind(ErrNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newKind(ErrConflict, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return newKind(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newKind(ErrForbidden, format, args...)
}

func IsNotFound(err error) bool   { return err != nil && Is(err, ErrNotFound) }
func IsValidation(err error) bool { return err != nil && Is(err, ErrValidation) }
func IsConflict(err error) bool   { return err != nil && Is(err, ErrConflict) }

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrValidation):
		return http.StatusBadRequest
	case Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case Is(err, ErrForbidden):
		return http.StatusForbidden
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Message returns the text safe to show to a client. Unexpected errors never
// leak their cause.
func Message(err error) string {
	var e *Error
	if As(err, &e) {
		return e.msg
	}
	return "Server error"
}
