package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleet-compliance/internal/compliance"
	"github.com/ukydev/fleet-compliance/internal/fleet"
	"github.com/ukydev/fleet-compliance/internal/models"
)

// VehicleService is the part of the fleet service the vehicle endpoints use.
type VehicleService interface {
	RegisterVehicle(ctx context.Context, v models.Vehicle) (*models.Vehicle, error)
	Vehicle(id string) (*models.Vehicle, error)
	UpdateVehicleLocation(ctx context.Context, id string, loc models.Location) (*models.Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, id string, status models.VehicleStatus) (*models.Vehicle, error)
	UpdateVehicleCompliance(ctx context.Context, id string, info models.ComplianceInfo) (*models.Vehicle, error)
	CheckCirculationDay(id string, date time.Time) (compliance.CirculationResult, error)
	CheckTimeRestriction(id string, zone models.ZoneType, at time.Time) (compliance.TimeRestrictionResult, error)
	CheckCompliance(ctx context.Context, id string, zone models.ZoneType, date time.Time) (compliance.ComplianceResult, error)
	HandleBreakdown(ctx context.Context, id string) (fleet.BreakdownResult, error)
}

// VehicleHandler handles /api/vehicles.
type VehicleHandler struct {
	svc VehicleService
}

// NewVehicleHandler creates a new handler with the given service
func NewVehicleHandler(svc VehicleService) *VehicleHandler {
	return &VehicleHandler{svc: svc}
}

// Routes mounts the vehicle endpoints.
func (h *VehicleHandler) Routes(r chi.Router) {
	r.Post("/", h.Register)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/location", h.UpdateLocation)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Put("/{id}/compliance", h.UpdateCompliance)
	r.Get("/{id}/circulation", h.Circulation)
	r.Get("/{id}/time-restriction", h.TimeRestriction)
	r.Get("/{id}/compliance", h.Compliance)
	r.Post("/{id}/breakdown", h.Breakdown)
}

// Register handles POST /api/vehicles
func (h *VehicleHandler) Register(w http.ResponseWriter, r *http.Request) {
	var v models.Vehicle
	if !decodeJSON(w, r, &v) {
		return
	}
	created, err := h.svc.RegisterVehicle(r.Context(), v)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/vehicles/{id}
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Vehicle(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateLocation handles PUT /api/vehicles/{id}/location
func (h *VehicleHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var loc models.Location
	if !decodeJSON(w, r, &loc) {
		return
	}
	v, err := h.svc.UpdateVehicleLocation(r.Context(), chi.URLParam(r, "id"), loc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateStatus handles PUT /api/vehicles/{id}/status
func (h *VehicleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.svc.UpdateVehicleStatus(r.Context(), chi.URLParam(r, "id"), models.VehicleStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateCompliance handles PUT /api/vehicles/{id}/compliance
func (h *VehicleHandler) UpdateCompliance(w http.ResponseWriter, r *http.Request) {
	var info models.ComplianceInfo
	if !decodeJSON(w, r, &info) {
		return
	}
	v, err := h.svc.UpdateVehicleCompliance(r.Context(), chi.URLParam(r, "id"), info)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Circulation handles GET /api/vehicles/{id}/circulation?date=
func (h *VehicleHandler) Circulation(w http.ResponseWriter, r *http.Request) {
	date, err := parseTime(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.svc.CheckCirculationDay(chi.URLParam(r, "id"), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TimeRestriction handles GET /api/vehicles/{id}/time-restriction?zone=&at=
func (h *VehicleHandler) TimeRestriction(w http.ResponseWriter, r *http.Request) {
	at, err := parseTime(r, "at")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	zone := models.ZoneType(r.URL.Query().Get("zone"))
	res, err := h.svc.CheckTimeRestriction(chi.URLParam(r, "id"), zone, at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Compliance handles GET /api/vehicles/{id}/compliance?zone=&date=
func (h *VehicleHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	date, err := parseTime(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	zone := models.ZoneType(r.URL.Query().Get("zone"))
	res, err := h.svc.CheckCompliance(r.Context(), chi.URLParam(r, "id"), zone, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Breakdown handles POST /api/vehicles/{id}/breakdown
func (h *VehicleHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.HandleBreakdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
