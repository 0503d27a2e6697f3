// Package route tracks a route through its lifecycle and re-derives its
// efficiency, improvement suggestions and compliance snapshot on demand.
package route

import (
	"time"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// Tracker owns a route. It is not safe for concurrent use; callers serialize
// access per route.
type Tracker struct {
	route      *models.Route
	lifecycle  *lifecycle
	heuristics Heuristics
	now        func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now for every timestamp the tracker stamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithHeuristics replaces DefaultHeuristics.
func WithHeuristics(h Heuristics) Option {
	return func(t *Tracker) {
		t.heuristics = h
	}
}

// NewTracker takes ownership of r. A route without a status starts planned.
func NewTracker(r *models.Route, opts ...Option) *Tracker {
	if r.Status == "" {
		r.Status = models.RouteStatusPlanned
	}
	t := &Tracker{
		route:      r,
		lifecycle:  newLifecycle(r.Status),
		heuristics: DefaultHeuristics(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Route returns the tracked route. Callers that hand it out should Clone it.
func (t *Tracker) Route() *models.Route {
	return t.route
}

// Status is the current lifecycle state.
func (t *Tracker) Status() models.RouteStatus {
	return t.route.Status
}

// Start moves a planned route to active. Returns false and changes nothing from
// any other state.
func (t *Tracker) Start() bool {
	return t.lifecycle.fire(EventStart, t.route, t.now())
}

// Complete moves an active route to completed.
func (t *Tracker) Complete() bool {
	return t.lifecycle.fire(EventComplete, t.route, t.now())
}

// Cancel moves a planned or active route to cancelled.
func (t *Tracker) Cancel() bool {
	return t.lifecycle.fire(EventCancel, t.route, t.now())
}

// SetStopStatus updates a stop by id. It returns false when no stop has the id
// and a ValidationError for an unknown status. A zero at means now.
func (t *Tracker) SetStopStatus(stopID string, status models.StopStatus, at time.Time) (bool, error) {
	if !status.IsValid() {
		return false, &models.ValidationError{Field: "status", Reason: "unknown stop status " + string(status)}
	}
	if at.IsZero() {
		at = t.now()
	}
	for i := range t.route.Stops {
		stop := &t.route.Stops[i]
		if stop.ID != stopID {
			continue
		}
		stop.Status = status
		switch status {
		case models.StopStatusArrived:
			arrived := at
			stop.ActualArrivalTime = &arrived
		case models.StopStatusCompleted:
			if stop.ActualDepartureTime == nil {
				departed := at
				stop.ActualDepartureTime = &departed
			}
		}
		t.route.UpdatedAt = at
		return true, nil
	}
	return false, nil
}

// AddTrafficFactor records a congestion report, replacing any earlier report for
// the same segment.
func (t *Tracker) AddTrafficFactor(f models.TrafficFactor) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = t.now()
	}
	replaced := false
	for i := range t.route.TrafficFactors {
		if t.route.TrafficFactors[i].SegmentID == f.SegmentID {
			t.route.TrafficFactors[i] = f
			replaced = true
			break
		}
	}
	if !replaced {
		t.route.TrafficFactors = append(t.route.TrafficFactors, f)
	}
	t.route.UpdatedAt = t.now()
	return nil
}

// TotalTrafficDelay sums the delay of every segment currently reported.
func (t *Tracker) TotalTrafficDelay() float64 {
	var total float64
	for _, f := range t.route.TrafficFactors {
		total += f.DelayMinutes
	}
	return total
}

// NextStop returns the first pending stop.
func (t *Tracker) NextStop() (models.RouteStop, bool) {
	for _, s := range t.route.Stops {
		if s.Status == models.StopStatusPending || s.Status == "" {
			return s, true
		}
	}
	return models.RouteStop{}, false
}

// CompletedStops returns the stops already completed, in order.
func (t *Tracker) CompletedStops() []models.RouteStop {
	out := []models.RouteStop{}
	for _, s := range t.route.Stops {
		if s.Status == models.StopStatusCompleted {
			out = append(out, s)
		}
	}
	return out
}

// Reassign hands the route to another vehicle. Only planned and active routes
// can be reassigned.
func (t *Tracker) Reassign(vehicleID string) bool {
	if t.route.Status.IsTerminal() || vehicleID == "" {
		return false
	}
	t.route.VehicleID = vehicleID
	t.route.UpdatedAt = t.now()
	return true
}
