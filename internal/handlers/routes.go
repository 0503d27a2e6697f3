package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleet-compliance/internal/models"
	"github.com/ukydev/fleet-compliance/internal/route"
)

// RouteService is the part of the fleet service the route endpoints use.
type RouteService interface {
	RegisterRoute(ctx context.Context, r models.Route) (*models.Route, error)
	Route(id string) (*models.Route, error)
	TransitionRoute(ctx context.Context, id, event string) (*models.Route, bool, error)
	UpdateStopStatus(ctx context.Context, routeID, stopID string, status models.StopStatus) (*models.Route, error)
	AddTrafficFactor(ctx context.Context, routeID string, f models.TrafficFactor) (*models.Route, error)
	RouteEfficiency(id string) (route.EfficiencyMetrics, error)
	RouteSuggestions(id string) ([]route.Suggestion, error)
	ValidateRouteCompliance(ctx context.Context, id string, zones []models.ZoneType) (models.RouteComplianceValidation, error)
}

// RouteHandler handles /api/routes.
type RouteHandler struct {
	svc RouteService
}

// NewRouteHandler creates a new handler with the given service
func NewRouteHandler(svc RouteService) *RouteHandler {
	return &RouteHandler{svc: svc}
}

// TransitionResponse is the reply to a lifecycle event.
type TransitionResponse struct {
	Applied bool          `json:"applied"`
	Route   *models.Route `json:"route"`
}

type routeComplianceRequest struct {
	ZoneTypes []models.ZoneType `json:"zoneTypes"`
}

// Routes mounts the route endpoints.
func (h *RouteHandler) Routes(r chi.Router) {
	r.Post("/", h.Register)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/start", h.transition(route.EventStart))
	r.Post("/{id}/complete", h.transition(route.EventComplete))
	r.Post("/{id}/cancel", h.transition(route.EventCancel))
	r.Put("/{id}/stops/{stopId}/status", h.UpdateStop)
	r.Post("/{id}/traffic", h.AddTraffic)
	r.Get("/{id}/efficiency", h.Efficiency)
	r.Get("/{id}/suggestions", h.Suggestions)
	r.Post("/{id}/compliance", h.ValidateCompliance)
}

// Register handles POST /api/routes
func (h *RouteHandler) Register(w http.ResponseWriter, r *http.Request) {
	var rt models.Route
	if !decodeJSON(w, r, &rt) {
		return
	}
	created, err := h.svc.RegisterRoute(r.Context(), rt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/routes/{id}
func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	rt, err := h.svc.Route(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

// transition handles POST /api/routes/{id}/{event}. An event not allowed from
// the current state answers 409 with the unchanged route.
func (h *RouteHandler) transition(event string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt, applied, err := h.svc.TransitionRoute(r.Context(), chi.URLParam(r, "id"), event)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		status := http.StatusOK
		if !applied {
			status = http.StatusConflict
		}
		writeJSON(w, status, TransitionResponse{Applied: applied, Route: rt})
	}
}

// UpdateStop handles PUT /api/routes/{id}/stops/{stopId}/status
func (h *RouteHandler) UpdateStop(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rt, err := h.svc.UpdateStopStatus(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "stopId"), models.StopStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

// AddTraffic handles POST /api/routes/{id}/traffic
func (h *RouteHandler) AddTraffic(w http.ResponseWriter, r *http.Request) {
	var f models.TrafficFactor
	if !decodeJSON(w, r, &f) {
		return
	}
	rt, err := h.svc.AddTrafficFactor(r.Context(), chi.URLParam(r, "id"), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

// Efficiency handles GET /api/routes/{id}/efficiency
func (h *RouteHandler) Efficiency(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.RouteEfficiency(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Suggestions handles GET /api/routes/{id}/suggestions
func (h *RouteHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.RouteSuggestions(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ValidateCompliance handles POST /api/routes/{id}/compliance
func (h *RouteHandler) ValidateCompliance(w http.ResponseWriter, r *http.Request) {
	var req routeComplianceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.svc.ValidateRouteCompliance(r.Context(), chi.URLParam(r, "id"), req.ZoneTypes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
