package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the envelope every failure response carries.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UploadResult is the success envelope for POST /upload.
type UploadResult struct {
	Success bool              `json:"success"`
	ID      string            `json:"id"`
	URL     string            `json:"url"`
	URLs    map[string]string `json:"availableUrls,omitempty"`
}

// DirectUploadResult is the success envelope for presigned uploads.
type DirectUploadResult struct {
	Success   bool   `json:"success"`
	ID        string `json:"id"`
	UploadURL string `json:"uploadURL"`
}

// WriteJSON serialises resp as JSON and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes a failure envelope with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Success: false, Error: msg})
}
