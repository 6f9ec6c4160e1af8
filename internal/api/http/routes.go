package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billzhuang6569/gravity/internal/fileserve"
)

// NewRouter creates the HTTP router with configured routes, middleware, and
// handlers: the download task API, file delivery, health check, and the
// Prometheus metrics endpoint.
func NewRouter(service DownloadServiceI, files *fileserve.FileStorage, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	h := NewDownloadHandler(service, files, logger)

	r.Route("/api/v1/downloads", func(r chi.Router) {
		r.Post("/", h.SubmitDownload)
		r.Post("/info", h.ProbeInfo)
		r.Get("/history", h.GetHistory)
		r.Get("/{taskID}/status", h.GetStatus)
		r.Get("/{filename}", h.ServeFile)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		// Liveness only; no dependency probing in the fast path.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
