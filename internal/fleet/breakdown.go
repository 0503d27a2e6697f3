package fleet

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/hub"
	"github.com/ukydev/fleet-compliance/internal/models"
	"github.com/ukydev/fleet-compliance/internal/notify"
	"github.com/ukydev/fleet-compliance/internal/route"
)

// BreakdownResult describes how a breakdown was handled.
type BreakdownResult struct {
	VehicleID        string               `json:"vehicleId"`
	Substitute       hub.AllocationResult `json:"substitute"`
	ReassignedRoutes []string             `json:"reassignedRoutes"`
}

// HandleBreakdown marks a vehicle broken down, allocates a substitute of the
// same type and at least the same capacity from the nearest hub that has one,
// and hands the vehicle's planned and active routes to the substitute.
// Routes stay with the broken vehicle when no substitute is found.
func (s *Service) HandleBreakdown(ctx context.Context, vehicleID string) (BreakdownResult, error) {
	broken, err := s.updateVehicle(ctx, vehicleID, func(v *models.Vehicle) error {
		return v.UpdateStatus(models.VehicleStatusBreakdown, s.now().UTC())
	})
	if broken == nil {
		return BreakdownResult{}, err
	}
	persistErr := err

	out := BreakdownResult{VehicleID: vehicleID, ReassignedRoutes: []string{}}
	req := hub.AllocationRequest{
		VehicleType: broken.Type,
		MinCapacity: &models.Capacity{Weight: broken.Capacity.Weight, Volume: broken.Capacity.Volume},
	}
	out.Substitute, err = s.AllocateNearest(ctx, broken.Location, req)
	if err != nil && persistErr == nil {
		persistErr = err
	}

	if out.Substitute.Success {
		substituteID := out.Substitute.Vehicle.ID
		for _, id := range s.registry.RouteIDs() {
			r, reassigned, err := s.mutateRoute(ctx, id, func(t *route.Tracker) (bool, error) {
				if t.Route().VehicleID != vehicleID {
					return false, nil
				}
				return t.Reassign(substituteID), nil
			})
			if err != nil && persistErr == nil {
				persistErr = err
			}
			if r != nil && reassigned {
				out.ReassignedRoutes = append(out.ReassignedRoutes, id)
			}
		}
	}

	fields := log.Fields{
		"vehicle_id":        vehicleID,
		"substitute_found":  out.Substitute.Success,
		"reassigned_routes": len(out.ReassignedRoutes),
	}
	if out.Substitute.Success {
		fields["substitute_id"] = out.Substitute.Vehicle.ID
		fields["hub_id"] = out.Substitute.HubID
		log.WithFields(fields).Info("Breakdown handled")
	} else {
		log.WithFields(fields).WithField("reason", out.Substitute.Message).Warn("No substitute for broken down vehicle")
	}
	s.publish(ctx, s.topics.VehicleBreakdown(vehicleID), notify.EventBreakdown, vehicleID, out)
	return out, persistErr
}
