package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/metrics"
	"github.com/ukydev/fleet-compliance/internal/models"
	"github.com/ukydev/fleet-compliance/internal/notify"
	"github.com/ukydev/fleet-compliance/internal/route"
)

// RegisterRoute validates and stores a new route for a known vehicle. An empty
// id is generated and routes always start planned.
func (s *Service) RegisterRoute(ctx context.Context, r models.Route) (*models.Route, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status = models.RouteStatusPlanned
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("register route: %w", err)
	}
	if _, ok := s.registry.Vehicle(r.VehicleID); !ok {
		return nil, fmt.Errorf("route %s: %w", r.ID, ErrVehicleNotFound)
	}
	now := s.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now

	if err := s.registry.AddRoute(s.newTracker(r.Clone())); err != nil {
		return nil, fmt.Errorf("route %s: %w", r.ID, err)
	}
	log.WithFields(log.Fields{"route_id": r.ID, "vehicle_id": r.VehicleID, "stops": len(r.Stops)}).Info("Route registered")
	return &r, s.saveRoute(ctx, &r)
}

// Route returns a copy of a route.
func (s *Service) Route(id string) (*models.Route, error) {
	var out *models.Route
	err := s.registry.WithRoute(id, func(t *route.Tracker) error {
		out = t.Route().Clone()
		return nil
	})
	return out, err
}

// mutateRoute runs fn on the tracker and persists the route when fn reports a change.
func (s *Service) mutateRoute(ctx context.Context, id string, fn func(*route.Tracker) (bool, error)) (*models.Route, bool, error) {
	var (
		out     *models.Route
		changed bool
	)
	err := s.registry.WithRoute(id, func(t *route.Tracker) error {
		var err error
		changed, err = fn(t)
		if err != nil {
			return err
		}
		out = t.Route().Clone()
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		return out, true, s.saveRoute(ctx, out)
	}
	return out, false, nil
}

// TransitionRoute fires a lifecycle event (route.EventStart, EventComplete or
// EventCancel). A transition not allowed from the current state reports false
// and changes nothing.
func (s *Service) TransitionRoute(ctx context.Context, id, event string) (*models.Route, bool, error) {
	r, applied, err := s.mutateRoute(ctx, id, func(t *route.Tracker) (bool, error) {
		switch event {
		case route.EventStart:
			return t.Start(), nil
		case route.EventComplete:
			return t.Complete(), nil
		case route.EventCancel:
			return t.Cancel(), nil
		}
		return false, &models.ValidationError{Field: "event", Reason: "unknown lifecycle event " + event}
	})
	if r == nil {
		return nil, false, err
	}

	metrics.RouteTransitionsTotal.WithLabelValues(event, metrics.Outcome(applied, "applied", "rejected")).Inc()
	fields := log.Fields{"route_id": id, "event": event, "status": r.Status}
	if !applied {
		log.WithFields(fields).Warn("Route lifecycle event rejected")
		return r, false, err
	}
	log.WithFields(fields).Info("Route lifecycle transition")
	s.publish(ctx, s.topics.RouteStatus(id), notify.EventRouteStatus, id, map[string]interface{}{
		"event":     event,
		"status":    r.Status,
		"vehicleId": r.VehicleID,
	})
	return r, true, err
}

// StartRoute moves a planned route to active.
func (s *Service) StartRoute(ctx context.Context, id string) (*models.Route, bool, error) {
	return s.TransitionRoute(ctx, id, route.EventStart)
}

// CompleteRoute moves an active route to completed.
func (s *Service) CompleteRoute(ctx context.Context, id string) (*models.Route, bool, error) {
	return s.TransitionRoute(ctx, id, route.EventComplete)
}

// CancelRoute cancels a planned or active route.
func (s *Service) CancelRoute(ctx context.Context, id string) (*models.Route, bool, error) {
	return s.TransitionRoute(ctx, id, route.EventCancel)
}

// UpdateStopStatus sets a stop's status, stamping arrival and departure times.
func (s *Service) UpdateStopStatus(ctx context.Context, routeID, stopID string, status models.StopStatus) (*models.Route, error) {
	r, _, err := s.mutateRoute(ctx, routeID, func(t *route.Tracker) (bool, error) {
		found, err := t.SetStopStatus(stopID, status, time.Time{})
		if err != nil {
			return false, err
		}
		if !found {
			return false, fmt.Errorf("stop %s on route %s: %w", stopID, routeID, ErrStopNotFound)
		}
		return true, nil
	})
	return r, err
}

// AddTrafficFactor records a congestion report on a route.
func (s *Service) AddTrafficFactor(ctx context.Context, routeID string, f models.TrafficFactor) (*models.Route, error) {
	r, _, err := s.mutateRoute(ctx, routeID, func(t *route.Tracker) (bool, error) {
		if err := t.AddTrafficFactor(f); err != nil {
			return false, err
		}
		return true, nil
	})
	return r, err
}

// RouteEfficiency derives efficiency metrics for a route.
func (s *Service) RouteEfficiency(id string) (route.EfficiencyMetrics, error) {
	var out route.EfficiencyMetrics
	err := s.registry.WithRoute(id, func(t *route.Tracker) error {
		out = t.Efficiency()
		return nil
	})
	return out, err
}

// RouteSuggestions derives improvement suggestions for a route.
func (s *Service) RouteSuggestions(id string) ([]route.Suggestion, error) {
	var out []route.Suggestion
	err := s.registry.WithRoute(id, func(t *route.Tracker) error {
		out = t.Suggestions()
		return nil
	})
	return out, err
}

// ValidateRouteCompliance re-derives and stores the route's compliance snapshot.
// zones holds one zone type per stop.
func (s *Service) ValidateRouteCompliance(ctx context.Context, id string, zones []models.ZoneType) (models.RouteComplianceValidation, error) {
	for i, z := range zones {
		if err := validZone(z); err != nil {
			return models.RouteComplianceValidation{}, fmt.Errorf("zoneTypes[%d]: %w", i, err)
		}
	}
	var out models.RouteComplianceValidation
	r, _, err := s.mutateRoute(ctx, id, func(t *route.Tracker) (bool, error) {
		out = t.ValidateCompliance(zones)
		return true, nil
	})
	if r == nil {
		return out, err
	}
	log.WithFields(log.Fields{
		"route_id":   id,
		"compliant":  out.IsCompliant,
		"violations": len(out.Violations),
	}).Info("Route compliance validated")
	return out, err
}
