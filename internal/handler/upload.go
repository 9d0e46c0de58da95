package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/leca/image-gateway/internal/api"
	"github.com/leca/image-gateway/internal/gateway"
)

// Upload handles POST /upload. A multipart body with a file runs the full
// upload workflow; presigned=true instead requests a one-time upload URL
// from the provider, so no file bytes transit the gateway.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/form-data") {
		api.UnsupportedMedia(w, "Content-Type must be multipart/form-data")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		api.BadRequest(w, "Invalid form data")
		return
	}

	newFileName := r.FormValue("new_file_name")

	if r.FormValue("presigned") == "true" {
		du, err := h.Gateway.CreateDirectUpload(r.Context(), newFileName)
		if err != nil {
			writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, api.DirectUploadResult{
			Success:   true,
			ID:        du.ID,
			UploadURL: du.UploadURL,
		})
		return
	}

	req := &gateway.UploadRequest{
		NewFileName: newFileName,
		Variant:     r.FormValue("variant"),
		Description: r.FormValue("description"),
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		req.MimeType = header.Header.Get("Content-Type")

		// Read one byte past the ceiling so the size check can answer
		// 413 without buffering an arbitrarily large body.
		data, err := io.ReadAll(io.LimitReader(file, h.Gateway.Config.MaxUploadBytes+1))
		if err != nil {
			api.BadRequest(w, "Failed to read file")
			return
		}
		req.Data = data
	}

	out, err := h.Gateway.Upload(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.UploadResult{
		Success: true,
		ID:      out.ID,
		URL:     out.URL,
		URLs:    out.URLs,
	})
}
