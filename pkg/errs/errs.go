// Package errs defines the error kinds surfaced by the contact services.
//
// Every error is an ectoerror HTTP error so the transport layer can render it
// directly; services and tests branch on the Kind instead of raw status codes.
package errs

import (
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// Kind classifies an error for callers.
type Kind string

const (
	KindNone           Kind = ""
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindInvalidInput   Kind = "invalid_input"
	KindStorageFailure Kind = "storage_failure"
)

// NotFound reports a referenced id that does not exist.
func NotFound(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

// Conflict reports a violated uniqueness or reference invariant.
func Conflict(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf(format, args...))
}

// InvalidInput reports a missing field or malformed value.
func InvalidInput(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// StorageFailure reports a store error unrelated to the domain invariants.
func StorageFailure(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of err. Errors that did not come from this package
// are treated as storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if !httperror.IsHTTPError(err) {
		return KindStorageFailure
	}
	switch httperror.GetStatusCode(err) {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalidInput
	default:
		return KindStorageFailure
	}
}

func IsNotFound(err error) bool       { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool       { return KindOf(err) == KindConflict }
func IsInvalidInput(err error) bool   { return KindOf(err) == KindInvalidInput }
func IsStorageFailure(err error) bool { return KindOf(err) == KindStorageFailure }
