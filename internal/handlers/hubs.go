package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleet-compliance/internal/fleet"
	"github.com/ukydev/fleet-compliance/internal/hub"
	"github.com/ukydev/fleet-compliance/internal/models"
)

// HubService is the part of the fleet service the hub endpoints use.
type HubService interface {
	RegisterHub(ctx context.Context, h models.Hub) (*models.Hub, error)
	Hub(id string) (*models.Hub, error)
	UpdateHubStatus(ctx context.Context, id string, status models.HubStatus) (*models.Hub, error)
	AddBufferVehicle(ctx context.Context, hubID, vehicleID string) (bool, error)
	RemoveBufferVehicle(ctx context.Context, hubID, vehicleID string) (bool, error)
	AllocateBufferVehicle(ctx context.Context, hubID string, req hub.AllocationRequest) (hub.AllocationResult, error)
	AllocateNearest(ctx context.Context, loc models.Location, req hub.AllocationRequest) (hub.AllocationResult, error)
	HubCapacity(id string) (hub.CapacityStatus, error)
	HubHours(id string, at time.Time) (hub.HoursStatus, error)
	UpdateHubUsage(ctx context.Context, id string, usage fleet.HubUsage) (*models.Hub, error)
}

// HubHandler handles /api/hubs and /api/allocate.
type HubHandler struct {
	svc HubService
}

// NewHubHandler creates a new handler with the given service
func NewHubHandler(svc HubService) *HubHandler {
	return &HubHandler{svc: svc}
}

type bufferRequest struct {
	VehicleID string `json:"vehicleId"`
}

// BufferResponse reports whether a buffer change was applied.
type BufferResponse struct {
	HubID     string `json:"hubId"`
	VehicleID string `json:"vehicleId"`
	Changed   bool   `json:"changed"`
}

type nearestRequest struct {
	Location models.Location `json:"location"`
	hub.AllocationRequest
}

// Routes mounts the hub endpoints.
func (h *HubHandler) Routes(r chi.Router) {
	r.Post("/", h.Register)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/buffer", h.AddBuffer)
	r.Delete("/{id}/buffer/{vehicleId}", h.RemoveBuffer)
	r.Post("/{id}/allocate", h.Allocate)
	r.Get("/{id}/capacity", h.Capacity)
	r.Get("/{id}/hours", h.Hours)
	r.Put("/{id}/usage", h.UpdateUsage)
}

// Register handles POST /api/hubs
func (h *HubHandler) Register(w http.ResponseWriter, r *http.Request) {
	var hb models.Hub
	if !decodeJSON(w, r, &hb) {
		return
	}
	created, err := h.svc.RegisterHub(r.Context(), hb)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/hubs/{id}
func (h *HubHandler) Get(w http.ResponseWriter, r *http.Request) {
	hb, err := h.svc.Hub(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hb)
}

// UpdateStatus handles PUT /api/hubs/{id}/status
func (h *HubHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	hb, err := h.svc.UpdateHubStatus(r.Context(), chi.URLParam(r, "id"), models.HubStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hb)
}

// AddBuffer handles POST /api/hubs/{id}/buffer. A full buffer or a vehicle
// already present answers 409.
func (h *HubHandler) AddBuffer(w http.ResponseWriter, r *http.Request) {
	var req bufferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	hubID := chi.URLParam(r, "id")
	added, err := h.svc.AddBufferVehicle(r.Context(), hubID, req.VehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if !added {
		status = http.StatusConflict
	}
	writeJSON(w, status, BufferResponse{HubID: hubID, VehicleID: req.VehicleID, Changed: added})
}

// RemoveBuffer handles DELETE /api/hubs/{id}/buffer/{vehicleId}
func (h *HubHandler) RemoveBuffer(w http.ResponseWriter, r *http.Request) {
	hubID, vehicleID := chi.URLParam(r, "id"), chi.URLParam(r, "vehicleId")
	removed, err := h.svc.RemoveBufferVehicle(r.Context(), hubID, vehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "vehicle is not in the hub buffer")
		return
	}
	writeJSON(w, http.StatusOK, BufferResponse{HubID: hubID, VehicleID: vehicleID, Changed: true})
}

// Allocate handles POST /api/hubs/{id}/allocate. A failed allocation is a
// normal result and answers 200 with success=false.
func (h *HubHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req hub.AllocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AllocateBufferVehicle(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AllocateNearest handles POST /api/allocate/nearest
func (h *HubHandler) AllocateNearest(w http.ResponseWriter, r *http.Request) {
	var req nearestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AllocateNearest(r.Context(), req.Location, req.AllocationRequest)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Capacity handles GET /api/hubs/{id}/capacity
func (h *HubHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.HubCapacity(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Hours handles GET /api/hubs/{id}/hours?at=
func (h *HubHandler) Hours(w http.ResponseWriter, r *http.Request) {
	at, err := parseTime(r, "at")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s, err := h.svc.HubHours(chi.URLParam(r, "id"), at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateUsage handles PUT /api/hubs/{id}/usage
func (h *HubHandler) UpdateUsage(w http.ResponseWriter, r *http.Request) {
	var usage fleet.HubUsage
	if !decodeJSON(w, r, &usage) {
		return
	}
	hb, err := h.svc.UpdateHubUsage(r.Context(), chi.URLParam(r, "id"), usage)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hb)
}
