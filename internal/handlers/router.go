package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ukydev/fleet-compliance/internal/middleware"
)

// Service is everything the API needs from the fleet service.
type Service interface {
	VehicleService
	RouteService
	HubService
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      func(http.Handler) http.Handler
}

// NewRouter builds the API router.
func NewRouter(svc Service, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	hubs := NewHubHandler(svc)
	r.Route("/api/vehicles", NewVehicleHandler(svc).Routes)
	r.Route("/api/routes", NewRouteHandler(svc).Routes)
	r.Route("/api/hubs", hubs.Routes)
	r.Post("/api/allocate/nearest", hubs.AllocateNearest)
	return r
}
