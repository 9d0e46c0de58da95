package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/leca/image-gateway/internal/api"
	"github.com/leca/image-gateway/internal/gateway"
	"github.com/leca/image-gateway/internal/handler"
)

// New builds the chi router for a configured gateway.
func New(g *gateway.Gateway) chi.Router {
	h := &handler.Handler{Gateway: g}

	r := chi.NewRouter()

	// CORS must come first so preflight OPTIONS is answered before
	// anything else runs.
	r.Use(api.CORS(g.Config.AllowedOrigins))

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.NotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.MethodNotAllowed(w)
	})

	r.Get("/", h.Health)
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(g.Config.UploadsPerMin, time.Minute))
		r.Post("/upload", h.Upload)
	})

	r.Get("/image", h.GetImage)
	r.Delete("/image", h.DeleteImage)
	r.Get("/images", h.ListImages)

	return r
}
