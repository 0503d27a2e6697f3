// Package hub manages a hub's buffer pool of standby vehicles, its capacity
// and operating hours, and allocates substitutes on breakdown.
package hub

import (
	"math"
	"sync"
	"time"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// Thresholds behind CapacityStatus advisories.
const (
	atCapacityUtilization   = 90.0
	redirectUtilization     = 85.0
	minAvailableBuffer      = 2
	storageExpediteUtilized = 80.0
)

// VehicleStore resolves buffer vehicle ids. The hub references vehicles but
// does not own them.
type VehicleStore interface {
	// Vehicle returns a copy of the vehicle.
	Vehicle(id string) (*models.Vehicle, bool)
	// CompareAndSetStatus sets the status to "to" only if it currently is "from".
	CompareAndSetStatus(id string, from, to models.VehicleStatus) bool
}

// Pool is a mutex-guarded handle to one hub. Every read-modify-write on the hub
// goes through it.
type Pool struct {
	mu    sync.Mutex
	hub   *models.Hub
	store VehicleStore
	now   func() time.Time
}

// Option configures a Pool.
type Option func(*Pool)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		p.now = now
	}
}

// NewPool takes ownership of h.
func NewPool(h *models.Hub, store VehicleStore, opts ...Option) *Pool {
	if h.Status == "" {
		h.Status = models.HubStatusActive
	}
	p := &Pool{hub: h, store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID of the hub.
func (p *Pool) ID() string {
	return p.hub.ID
}

// Snapshot returns a copy of the hub.
func (p *Pool) Snapshot() *models.Hub {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hub.Clone()
}

// Location of the hub.
func (p *Pool) Location() models.Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hub.Location
}

// Status of the hub.
func (p *Pool) Status() models.HubStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hub.Status
}

// AddBufferVehicle admits a vehicle id into the buffer when a slot is free and
// the id is not already present.
func (p *Pool) AddBufferVehicle(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id == "" || len(p.hub.BufferVehicles) >= p.hub.Capacity.BufferVehicleSlots {
		return false
	}
	if p.hub.HasBufferVehicle(id) {
		return false
	}
	p.hub.BufferVehicles = append(p.hub.BufferVehicles, id)
	p.hub.UpdatedAt = p.now()
	return true
}

// RemoveBufferVehicle drops a vehicle id from the buffer.
func (p *Pool) RemoveBufferVehicle(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, b := range p.hub.BufferVehicles {
		if b == id {
			p.hub.BufferVehicles = append(p.hub.BufferVehicles[:i:i], p.hub.BufferVehicles[i+1:]...)
			p.hub.UpdatedAt = p.now()
			return true
		}
	}
	return false
}

// HasBufferVehicle reports whether id is in the buffer.
func (p *Pool) HasBufferVehicle(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hub.HasBufferVehicle(id)
}

// availableLocked resolves the buffer to vehicles that are currently available.
func (p *Pool) availableLocked() []*models.Vehicle {
	var out []*models.Vehicle
	for _, id := range p.hub.BufferVehicles {
		v, ok := p.store.Vehicle(id)
		if ok && v.Status == models.VehicleStatusAvailable {
			out = append(out, v)
		}
	}
	return out
}

// CapacityStatus reports utilization and advisories.
type CapacityStatus struct {
	HubID                     string   `json:"hubId"`
	VehicleUtilization        float64  `json:"vehicleUtilization"`
	StorageUtilization        float64  `json:"storageUtilization"`
	LoadingBayUtilization     float64  `json:"loadingBayUtilization"`
	BufferVehicleAvailability int      `json:"bufferVehicleAvailability"`
	IsAtCapacity              bool     `json:"isAtCapacity"`
	RecommendedActions        []string `json:"recommendedActions"`
}

func percent(used, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return used / total * 100
}

// CapacityStatus computes utilization from the hub's current counters.
func (p *Pool) CapacityStatus() CapacityStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.hub.Capacity
	vehicleUtil := percent(float64(c.CurrentVehicles), float64(c.MaxVehicles))
	storageUtil := percent(c.StorageUsed, c.StorageArea)
	bayUtil := percent(float64(c.LoadingBaysInUse), float64(c.LoadingBays))
	available := len(p.availableLocked())

	actions := []string{}
	if vehicleUtil > redirectUtilization {
		actions = append(actions, "Consider redirecting new vehicles to alternative hubs")
	}
	if available < minAvailableBuffer {
		actions = append(actions, "Replenish buffer vehicle inventory")
	}
	if storageUtil > storageExpediteUtilized {
		actions = append(actions, "Expedite outbound shipments to free storage space")
	}

	return CapacityStatus{
		HubID:                     p.hub.ID,
		VehicleUtilization:        models.Round2(vehicleUtil),
		StorageUtilization:        models.Round2(storageUtil),
		LoadingBayUtilization:     models.Round2(bayUtil),
		BufferVehicleAvailability: available,
		IsAtCapacity:              vehicleUtil >= atCapacityUtilization || available == 0,
		RecommendedActions:        actions,
	}
}

// UpdateStatus sets the operational status of the hub.
func (p *Pool) UpdateStatus(status models.HubStatus) error {
	if !status.IsValid() {
		return &models.ValidationError{Field: "status", Reason: "unknown hub status " + string(status)}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hub.Status = status
	p.hub.UpdatedAt = p.now()
	return nil
}

// UpdateCurrentVehicleCount sets the vehicle count, clamped to [0, maxVehicles].
func (p *Pool) UpdateCurrentVehicleCount(count int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if count < 0 {
		count = 0
	}
	if count > p.hub.Capacity.MaxVehicles {
		count = p.hub.Capacity.MaxVehicles
	}
	p.hub.Capacity.CurrentVehicles = count
	p.hub.UpdatedAt = p.now()
	return count
}

// UpdateUsage records storage and loading bay occupancy.
func (p *Pool) UpdateUsage(storageUsed float64, loadingBaysInUse int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.hub.Capacity
	if math.IsNaN(storageUsed) || storageUsed < 0 || storageUsed > c.StorageArea {
		return &models.ValidationError{Field: "storageUsed", Reason: "must be within the hub storage area"}
	}
	if loadingBaysInUse < 0 || loadingBaysInUse > c.LoadingBays {
		return &models.ValidationError{Field: "loadingBaysInUse", Reason: "must be within the hub loading bays"}
	}
	p.hub.Capacity.StorageUsed = storageUsed
	p.hub.Capacity.LoadingBaysInUse = loadingBaysInUse
	p.hub.UpdatedAt = p.now()
	return nil
}

// DistanceTo is the great-circle distance in km from the hub to loc.
func (p *Pool) DistanceTo(loc models.Location) float64 {
	return p.Location().DistanceKm(loc)
}
