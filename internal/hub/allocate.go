package hub

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// neutralFit is the capacity-fit score when no capacity is requested.
const neutralFit = 0.5

// AllocationRequest narrows the candidates. Zero values mean "any".
type AllocationRequest struct {
	VehicleType models.VehicleType `json:"vehicleType,omitempty"`
	MinCapacity *models.Capacity   `json:"minCapacity,omitempty"`
}

// AllocationResult is the outcome of Allocate. Failure is a normal result.
type AllocationResult struct {
	Success      bool              `json:"success"`
	HubID        string            `json:"hubId"`
	Vehicle      *models.Vehicle   `json:"vehicle,omitempty"`
	Alternatives []*models.Vehicle `json:"alternatives,omitempty"`
	Message      string            `json:"message"`
}

// FitScore is how tightly a vehicle matches the requested capacity; higher is
// tighter.
func FitScore(v *models.Vehicle, required *models.Capacity) float64 {
	if required == nil {
		return neutralFit
	}
	return min(required.Weight/v.Capacity.Weight, required.Volume/v.Capacity.Volume)
}

// better reports whether current should replace best. A BS6 vehicle beats a
// non-BS6 one; otherwise the strictly higher fit score wins.
func better(current, best *models.Vehicle, required *models.Capacity) bool {
	currentBS6 := current.Compliance.PollutionLevel == models.PollutionBS6
	bestBS6 := best.Compliance.PollutionLevel == models.PollutionBS6
	if currentBS6 != bestBS6 {
		return currentBS6
	}
	return FitScore(current, required) > FitScore(best, required)
}

func selectBest(candidates []*models.Vehicle, required *models.Capacity) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if better(candidates[i], candidates[best], required) {
			best = i
		}
	}
	return best
}

func matches(v *models.Vehicle, req AllocationRequest) bool {
	if req.VehicleType != "" && v.Type != req.VehicleType {
		return false
	}
	if req.MinCapacity != nil && !v.Capacity.Fits(*req.MinCapacity) {
		return false
	}
	return true
}

func (p *Pool) displayName() string {
	if p.hub.Name != "" {
		return p.hub.Name
	}
	return p.hub.ID
}

// Allocate picks the best available buffer vehicle for req and flips it to
// in-transit. The vehicle stays listed in the buffer. On failure nothing changes.
func (p *Pool) Allocate(req AllocationRequest) AllocationResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := AllocationResult{HubID: p.hub.ID}
	if p.hub.Status != models.HubStatusActive {
		res.Message = fmt.Sprintf("Hub %s is not active (status: %s)", p.displayName(), p.hub.Status)
		return res
	}

	available := p.availableLocked()
	if len(available) == 0 {
		res.Message = "No buffer vehicles available at this hub"
		return res
	}

	var candidates []*models.Vehicle
	for _, v := range available {
		if matches(v, req) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		res.Message = "No buffer vehicles match the specified requirements"
		res.Alternatives = available
		return res
	}

	// The store is shared with other writers, so the status flip can lose a race.
	// A lost candidate is dropped and the next best one tried.
	for len(candidates) > 0 {
		i := selectBest(candidates, req.MinCapacity)
		chosen := candidates[i]
		if p.store.CompareAndSetStatus(chosen.ID, models.VehicleStatusAvailable, models.VehicleStatusInTransit) {
			chosen.Status = models.VehicleStatusInTransit
			p.hub.UpdatedAt = p.now()
			res.Success = true
			res.Vehicle = chosen
			res.Message = fmt.Sprintf("Buffer vehicle %s allocated successfully", chosen.ID)
			return res
		}
		log.WithFields(log.Fields{
			"hub_id":     p.hub.ID,
			"vehicle_id": chosen.ID,
		}).Debug("Buffer vehicle left available state during allocation")
		candidates = append(candidates[:i], candidates[i+1:]...)
	}

	res.Message = "No buffer vehicles available at this hub"
	return res
}
