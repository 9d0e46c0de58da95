package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/leca/image-gateway/internal/api"
	"github.com/leca/image-gateway/internal/gateway"
	"github.com/leca/image-gateway/internal/provider"
	"github.com/leca/image-gateway/internal/variant"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Handler exposes the gateway workflows over HTTP.
type Handler struct {
	Gateway *gateway.Gateway
}

// writeError maps a workflow error onto the response envelope.
func writeError(w http.ResponseWriter, err error) {
	var vErr *gateway.ValidationError
	if errors.As(err, &vErr) {
		api.Error(w, vErr.Status, vErr.Message)
		return
	}

	var uvErr *variant.UnknownVariantError
	if errors.As(err, &uvErr) {
		api.BadRequest(w, uvErr.Error())
		return
	}

	switch {
	case errors.Is(err, gateway.ErrConfig):
		api.ServerError(w, "Server configuration error")
	case errors.Is(err, gateway.ErrStoreUnavailable):
		api.Unavailable(w, "Metadata store is not available")
	case errors.Is(err, provider.ErrNotFound):
		api.NotFound(w, "Image not found")
	default:
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) {
			api.ServerError(w, apiErr.Error())
			return
		}
		api.ServerError(w, "Internal server error")
	}
}

// Health handles GET / and GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{
		"message":   "Image Gateway API",
		"version":   Version,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
