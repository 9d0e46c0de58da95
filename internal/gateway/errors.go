package gateway

import (
	"errors"
	"net/http"
)

// ErrConfig means a required provider setting is missing. Surfaced as a
// 500 configuration error, never a crash.
var ErrConfig = errors.New("server configuration error")

// ErrStoreUnavailable means an operation that requires the metadata store
// was invoked on a gateway running without one.
var ErrStoreUnavailable = errors.New("metadata store is not available")

// ValidationError is a client-caused input failure. It carries the HTTP
// status the handler should answer with, so the non-fatal/fatal decision
// stays visible at the call site.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func badRequest(msg string) *ValidationError {
	return &ValidationError{Status: http.StatusBadRequest, Message: msg}
}

func tooLarge(msg string) *ValidationError {
	return &ValidationError{Status: http.StatusRequestEntityTooLarge, Message: msg}
}

func unsupportedMedia(msg string) *ValidationError {
	return &ValidationError{Status: http.StatusUnsupportedMediaType, Message: msg}
}
