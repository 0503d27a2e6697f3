package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/compliance"
	"github.com/ukydev/fleet-compliance/internal/metrics"
	"github.com/ukydev/fleet-compliance/internal/models"
	"github.com/ukydev/fleet-compliance/internal/notify"
)

// RegisterVehicle validates and stores a new vehicle. An empty id is generated.
func (s *Service) RegisterVehicle(ctx context.Context, v models.Vehicle) (*models.Vehicle, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Status == "" {
		v.Status = models.VehicleStatusAvailable
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("register vehicle: %w", err)
	}
	v.LastUpdated = s.now().UTC()
	stored := v.Clone()
	if err := s.registry.AddVehicle(stored); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	log.WithFields(log.Fields{"vehicle_id": v.ID, "type": v.Type}).Info("Vehicle registered")
	return &v, s.saveVehicle(ctx, &v)
}

// Vehicle returns a copy of a vehicle.
func (s *Service) Vehicle(id string) (*models.Vehicle, error) {
	v, ok := s.registry.Vehicle(id)
	if !ok {
		return nil, ErrVehicleNotFound
	}
	return v, nil
}

func (s *Service) updateVehicle(ctx context.Context, id string, fn func(*models.Vehicle) error) (*models.Vehicle, error) {
	v, err := s.registry.UpdateVehicle(id, fn)
	if err != nil {
		return nil, err
	}
	return v, s.saveVehicle(ctx, v)
}

// UpdateVehicleLocation records a position fix.
func (s *Service) UpdateVehicleLocation(ctx context.Context, id string, loc models.Location) (*models.Vehicle, error) {
	return s.updateVehicle(ctx, id, func(v *models.Vehicle) error {
		return v.UpdateLocation(loc, s.now().UTC())
	})
}

// UpdateVehicleStatus sets the operational status.
func (s *Service) UpdateVehicleStatus(ctx context.Context, id string, status models.VehicleStatus) (*models.Vehicle, error) {
	return s.updateVehicle(ctx, id, func(v *models.Vehicle) error {
		return v.UpdateStatus(status, s.now().UTC())
	})
}

// UpdateVehicleCompliance replaces the regulatory record and drops cached
// compliance results for the vehicle.
func (s *Service) UpdateVehicleCompliance(ctx context.Context, id string, info models.ComplianceInfo) (*models.Vehicle, error) {
	v, err := s.updateVehicle(ctx, id, func(v *models.Vehicle) error {
		v.Compliance = info
		if err := v.Validate(); err != nil {
			return err
		}
		v.LastUpdated = s.now().UTC()
		return nil
	})
	if v != nil {
		s.cache.Invalidate(id)
	}
	return v, err
}

// CheckCirculationDay applies the odd/even rule. A zero date means now.
func (s *Service) CheckCirculationDay(id string, date time.Time) (compliance.CirculationResult, error) {
	v, ok := s.registry.Vehicle(id)
	if !ok {
		return compliance.CirculationResult{}, ErrVehicleNotFound
	}
	return s.checker.CheckCirculationDay(v, date), nil
}

func validZone(zone models.ZoneType) error {
	if !zone.IsValid() {
		return &models.ValidationError{Field: "zoneType", Reason: "unknown zone type " + string(zone)}
	}
	return nil
}

// CheckTimeRestriction applies time-of-day bans for zone. A zero at means now.
func (s *Service) CheckTimeRestriction(id string, zone models.ZoneType, at time.Time) (compliance.TimeRestrictionResult, error) {
	if err := validZone(zone); err != nil {
		return compliance.TimeRestrictionResult{}, err
	}
	v, ok := s.registry.Vehicle(id)
	if !ok {
		return compliance.TimeRestrictionResult{}, ErrVehicleNotFound
	}
	return s.checker.CheckTimeRestriction(v, zone, at), nil
}

// CheckCompliance runs the composite check, serving repeated checks for the
// same vehicle, zone and minute from the cache.
func (s *Service) CheckCompliance(ctx context.Context, id string, zone models.ZoneType, date time.Time) (compliance.ComplianceResult, error) {
	if err := validZone(zone); err != nil {
		return compliance.ComplianceResult{}, err
	}
	v, ok := s.registry.Vehicle(id)
	if !ok {
		return compliance.ComplianceResult{}, ErrVehicleNotFound
	}
	if date.IsZero() {
		date = s.now()
	}

	if cached, hit := s.cache.Get(id, zone, date); hit {
		metrics.ComplianceCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.ComplianceCacheLookups.WithLabelValues("miss").Inc()

	result := s.checker.CheckCompliance(v, zone, date)
	s.cache.Put(id, zone, date, result)

	metrics.ComplianceChecksTotal.WithLabelValues(string(zone), metrics.Outcome(result.Compliant, "compliant", "non_compliant")).Inc()
	for _, f := range result.Violations {
		metrics.ComplianceViolationsTotal.WithLabelValues(f.Code).Inc()
	}

	fields := log.Fields{
		"vehicle_id": id,
		"zone":       zone,
		"violations": len(result.Violations),
		"warnings":   len(result.Warnings),
	}
	if result.Compliant {
		log.WithFields(fields).Info("Vehicle compliant")
	} else {
		log.WithFields(fields).Warn("Vehicle not compliant")
	}

	s.publish(ctx, s.topics.VehicleCompliance(id), notify.EventCompliance, id, result)
	return result, nil
}
