package api

import "net/http"

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, msg)
}

// TooLarge writes a 413 error response.
func TooLarge(w http.ResponseWriter, msg string) {
	Error(w, http.StatusRequestEntityTooLarge, msg)
}

// UnsupportedMedia writes a 415 error response.
func UnsupportedMedia(w http.ResponseWriter, msg string) {
	Error(w, http.StatusUnsupportedMediaType, msg)
}

// ServerError writes a 500 error response.
func ServerError(w http.ResponseWriter, msg string) {
	Error(w, http.StatusInternalServerError, msg)
}

// Unavailable writes a 503 error response.
func Unavailable(w http.ResponseWriter, msg string) {
	Error(w, http.StatusServiceUnavailable, msg)
}
