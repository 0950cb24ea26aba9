package notifier

import (
	"errors"
	"net/http"
)

// Caller input errors.
var (
	ErrNoData       = errors.New("no data provided")
	ErrMissingEmail = errors.New("email is required")
)

// Server side errors.
var (
	ErrMissingConfig = errors.New("smtp configuration is incomplete")
	ErrInvalidConfig = errors.New("smtp configuration is invalid")
	ErrTransport     = errors.New("smtp transport failed")
	ErrSend          = errors.New("email delivery failed")
)

// StatusCode maps an invocation error to the HTTP status reported to the caller.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNoData), errors.Is(err, ErrMissingEmail):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
