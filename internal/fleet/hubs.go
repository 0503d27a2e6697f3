package fleet

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/hub"
	"github.com/ukydev/fleet-compliance/internal/metrics"
	"github.com/ukydev/fleet-compliance/internal/models"
	"github.com/ukydev/fleet-compliance/internal/notify"
)

// HubUsage is a partial update of a hub's occupancy counters. Nil fields are kept.
type HubUsage struct {
	StorageUsed      *float64 `json:"storageUsed,omitempty"`
	LoadingBaysInUse *int     `json:"loadingBaysInUse,omitempty"`
	CurrentVehicles  *int     `json:"currentVehicles,omitempty"`
}

// RegisterHub validates and stores a new hub. An empty id is generated.
func (s *Service) RegisterHub(ctx context.Context, h models.Hub) (*models.Hub, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Status == "" {
		h.Status = models.HubStatusActive
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("register hub: %w", err)
	}
	now := s.now().UTC()
	h.CreatedAt, h.UpdatedAt = now, now

	p := s.newPool(h.Clone())
	if err := s.registry.AddHub(p); err != nil {
		return nil, fmt.Errorf("hub %s: %w", h.ID, err)
	}
	log.WithFields(log.Fields{"hub_id": h.ID, "buffer": len(h.BufferVehicles)}).Info("Hub registered")
	return &h, s.saveHub(ctx, p)
}

func (s *Service) pool(id string) (*hub.Pool, error) {
	p, ok := s.registry.Hub(id)
	if !ok {
		return nil, ErrHubNotFound
	}
	return p, nil
}

// Hub returns a copy of a hub.
func (s *Service) Hub(id string) (*models.Hub, error) {
	p, err := s.pool(id)
	if err != nil {
		return nil, err
	}
	return p.Snapshot(), nil
}

// AddBufferVehicle admits a known vehicle into a hub's buffer. It reports false
// when the buffer is full or already holds the vehicle.
func (s *Service) AddBufferVehicle(ctx context.Context, hubID, vehicleID string) (bool, error) {
	p, err := s.pool(hubID)
	if err != nil {
		return false, err
	}
	if _, ok := s.registry.Vehicle(vehicleID); !ok {
		return false, ErrVehicleNotFound
	}
	if !p.AddBufferVehicle(vehicleID) {
		return false, nil
	}
	log.WithFields(log.Fields{"hub_id": hubID, "vehicle_id": vehicleID}).Info("Buffer vehicle added")
	return true, s.saveHub(ctx, p)
}

// RemoveBufferVehicle drops a vehicle from a hub's buffer.
func (s *Service) RemoveBufferVehicle(ctx context.Context, hubID, vehicleID string) (bool, error) {
	p, err := s.pool(hubID)
	if err != nil {
		return false, err
	}
	if !p.RemoveBufferVehicle(vehicleID) {
		return false, nil
	}
	log.WithFields(log.Fields{"hub_id": hubID, "vehicle_id": vehicleID}).Info("Buffer vehicle removed")
	return true, s.saveHub(ctx, p)
}

// AllocateBufferVehicle allocates the best matching buffer vehicle of a hub.
func (s *Service) AllocateBufferVehicle(ctx context.Context, hubID string, req hub.AllocationRequest) (hub.AllocationResult, error) {
	p, err := s.pool(hubID)
	if err != nil {
		return hub.AllocationResult{}, err
	}
	return s.allocateAt(ctx, p, req)
}

func (s *Service) allocateAt(ctx context.Context, p *hub.Pool, req hub.AllocationRequest) (hub.AllocationResult, error) {
	res := p.Allocate(req)
	metrics.AllocationsTotal.WithLabelValues(p.ID(), metrics.Outcome(res.Success, "success", "failed")).Inc()

	fields := log.Fields{"hub_id": p.ID(), "vehicle_type": req.VehicleType}
	if !res.Success {
		log.WithFields(fields).WithField("reason", res.Message).Warn("Buffer allocation failed")
		return res, nil
	}
	fields["vehicle_id"] = res.Vehicle.ID
	log.WithFields(fields).Info("Buffer vehicle allocated")

	var persistErr error
	if v, ok := s.registry.Vehicle(res.Vehicle.ID); ok {
		persistErr = s.saveVehicle(ctx, v)
	}
	if err := s.saveHub(ctx, p); err != nil && persistErr == nil {
		persistErr = err
	}
	s.publish(ctx, s.topics.HubAllocations(p.ID()), notify.EventAllocation, p.ID(), res)
	return res, persistErr
}

// AllocateNearest tries every active hub in order of distance from loc and
// returns the first successful allocation. When no hub can allocate, the
// result lists the available vehicles of every hub tried as alternatives.
func (s *Service) AllocateNearest(ctx context.Context, loc models.Location, req hub.AllocationRequest) (hub.AllocationResult, error) {
	if err := loc.Validate("location"); err != nil {
		return hub.AllocationResult{}, err
	}

	type candidate struct {
		pool *hub.Pool
		km   float64
	}
	var candidates []candidate
	for _, p := range s.registry.Hubs() {
		if p.Status() == models.HubStatusActive {
			candidates = append(candidates, candidate{pool: p, km: p.DistanceTo(loc)})
		}
	}
	if len(candidates) == 0 {
		return hub.AllocationResult{Message: "No active hubs available"}, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].km < candidates[j].km })

	failed := hub.AllocationResult{Message: "No buffer vehicles available at any active hub"}
	for _, c := range candidates {
		res, err := s.allocateAt(ctx, c.pool, req)
		if res.Success {
			return res, err
		}
		failed.Alternatives = append(failed.Alternatives, res.Alternatives...)
	}
	return failed, nil
}

// HubCapacity reports utilization and advisories for a hub.
func (s *Service) HubCapacity(id string) (hub.CapacityStatus, error) {
	p, err := s.pool(id)
	if err != nil {
		return hub.CapacityStatus{}, err
	}
	return p.CapacityStatus(), nil
}

// HubHours evaluates a hub's operating hours. A zero at means now.
func (s *Service) HubHours(id string, at time.Time) (hub.HoursStatus, error) {
	p, err := s.pool(id)
	if err != nil {
		return hub.HoursStatus{}, err
	}
	if at.IsZero() {
		at = s.now()
	}
	return p.ValidateOperatingHours(at), nil
}

// UpdateHubStatus sets a hub's operational status.
func (s *Service) UpdateHubStatus(ctx context.Context, id string, status models.HubStatus) (*models.Hub, error) {
	p, err := s.pool(id)
	if err != nil {
		return nil, err
	}
	if err := p.UpdateStatus(status); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"hub_id": id, "status": status}).Info("Hub status updated")
	return p.Snapshot(), s.saveHub(ctx, p)
}

// UpdateHubUsage records occupancy counters. The vehicle count is clamped to
// the hub's capacity.
func (s *Service) UpdateHubUsage(ctx context.Context, id string, usage HubUsage) (*models.Hub, error) {
	p, err := s.pool(id)
	if err != nil {
		return nil, err
	}
	if usage.StorageUsed != nil || usage.LoadingBaysInUse != nil {
		current := p.Snapshot().Capacity
		storage, bays := current.StorageUsed, current.LoadingBaysInUse
		if usage.StorageUsed != nil {
			storage = *usage.StorageUsed
		}
		if usage.LoadingBaysInUse != nil {
			bays = *usage.LoadingBaysInUse
		}
		if err := p.UpdateUsage(storage, bays); err != nil {
			return nil, err
		}
	}
	if usage.CurrentVehicles != nil {
		p.UpdateCurrentVehicleCount(*usage.CurrentVehicles)
	}
	return p.Snapshot(), s.saveHub(ctx, p)
}
