package api

import (
	"github.com/go-chi/chi/v5"
)

// RegisterReadingRoutes registers the reading query routes.
func RegisterReadingRoutes(r chi.Router, handler *ReadingsHandler) {
	r.Route("/readings", func(r chi.Router) {
		// GET /api/v1/readings/temperature - latest temperature readings
		r.Get("/temperature", handler.ListTemperature)

		// GET /api/v1/readings/pool - latest pool chemistry readings
		r.Get("/pool", handler.ListPool)
	})
}
