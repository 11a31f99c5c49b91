package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the API routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Route("/runs", func(r chi.Router) {
		r.Post("/", h.StartRun)
		r.Get("/", h.ListRuns)
		r.Delete("/active", h.StopRun)
		r.Get("/{id}", h.GetRun)
		r.Get("/{id}/records", h.GetRecords)
	})
	router.Get("/events", h.Events)
	router.Handle("/metrics", promhttp.Handler())
}
