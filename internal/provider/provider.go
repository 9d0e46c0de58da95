// Package provider wraps the remote image-hosting HTTP API. All
// provider-specific request and response shaping lives here so the rest
// of the gateway stays provider-agnostic.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned when the provider reports no such image.
var ErrNotFound = errors.New("image not found")

// UploadResult is the provider's answer to a direct upload.
type UploadResult struct {
	ID       string
	Variants []string
}

// DirectUpload is a one-time upload target issued by the provider.
type DirectUpload struct {
	ID        string
	UploadURL string
}

// Details is the provider-side metadata for an image, kept as-is for
// diagnostics.
type Details struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Uploaded time.Time `json:"uploaded"`
	Variants []string  `json:"variants"`
}

// API is the provider operations the gateway depends on.
type API interface {
	Upload(ctx context.Context, file io.Reader, fileName, mimeType string) (*UploadResult, error)
	CreateDirectUpload(ctx context.Context) (*DirectUpload, error)
	GetImage(ctx context.Context, imageID string) (*Details, error)
	Delete(ctx context.Context, imageID string) (bool, error)
}

// APIError is a non-success answer from the provider, carrying the HTTP
// status and the provider's own error messages for diagnostics. The
// credential never appears in it.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}
