package handler

import (
	"net/http"
	"strconv"

	"github.com/leca/image-gateway/internal/api"
	"github.com/leca/image-gateway/internal/gateway"
	"github.com/leca/image-gateway/internal/model"
)

// imageResponse wraps a record with the requested-variant URL. Stored is
// false when the mapping was recomputed from the registry.
type imageResponse struct {
	Success bool `json:"success"`
	*model.Image
	URL    string `json:"url"`
	Stored bool   `json:"stored"`
}

// listResponse wraps one listing page.
type listResponse struct {
	Success bool `json:"success"`
	*model.ImagePage
}

// GetImage handles GET /image?image_id=&variant=.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID := r.URL.Query().Get("image_id")
	if imageID == "" {
		api.BadRequest(w, "Missing image_id parameter")
		return
	}

	res, err := h.Gateway.GetImage(r.Context(), imageID, r.URL.Query().Get("variant"))
	if err != nil {
		writeError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, imageResponse{
		Success: true,
		Image:   res.Image,
		URL:     res.URL,
		Stored:  res.Stored,
	})
}

// ListImages handles GET /images?limit=&offset=|page=.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	var req gateway.ListRequest

	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	req.Limit, req.Offset, req.Page = limit, offset, page

	pageResult, err := h.Gateway.ListImages(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, listResponse{Success: true, ImagePage: pageResult})
}

// DeleteImage handles DELETE /image?image_id=.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageID := r.URL.Query().Get("image_id")
	if imageID == "" {
		api.BadRequest(w, "Missing image_id parameter")
		return
	}

	confirmed, err := h.Gateway.DeleteImage(r.Context(), imageID)
	if err != nil {
		writeError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": confirmed,
	})
}

// queryInt parses an optional non-negative integer query parameter,
// answering 400 itself when the value is malformed.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		api.BadRequest(w, "Invalid "+name+" parameter")
		return 0, false
	}
	return n, true
}
