package models

import (
	"strings"
	"time"
)

// RouteStatus is the lifecycle state of a route.
type RouteStatus string

const (
	RouteStatusPlanned   RouteStatus = "planned"
	RouteStatusActive    RouteStatus = "active"
	RouteStatusCompleted RouteStatus = "completed"
	RouteStatusCancelled RouteStatus = "cancelled"
)

// IsValid checks if a route status is part of the vocabulary
func (s RouteStatus) IsValid() bool {
	switch s {
	case RouteStatusPlanned, RouteStatusActive, RouteStatusCompleted, RouteStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave the status.
func (s RouteStatus) IsTerminal() bool {
	return s == RouteStatusCompleted || s == RouteStatusCancelled
}

// StopType is the purpose of a route stop.
type StopType string

const (
	StopPickup   StopType = "pickup"
	StopDelivery StopType = "delivery"
	StopHub      StopType = "hub"
	StopWaypoint StopType = "waypoint"
)

// IsValid checks if a stop type is part of the vocabulary
func (t StopType) IsValid() bool {
	switch t {
	case StopPickup, StopDelivery, StopHub, StopWaypoint:
		return true
	default:
		return false
	}
}

// StopStatus is the progress of a single stop.
type StopStatus string

const (
	StopStatusPending    StopStatus = "pending"
	StopStatusArrived    StopStatus = "arrived"
	StopStatusInProgress StopStatus = "in-progress"
	StopStatusCompleted  StopStatus = "completed"
	StopStatusSkipped    StopStatus = "skipped"
)

// IsValid checks if a stop status is part of the vocabulary
func (s StopStatus) IsValid() bool {
	switch s {
	case StopStatusPending, StopStatusArrived, StopStatusInProgress, StopStatusCompleted, StopStatusSkipped:
		return true
	default:
		return false
	}
}

// TrafficLevel grades congestion on a road segment.
type TrafficLevel string

const (
	TrafficLight    TrafficLevel = "light"
	TrafficModerate TrafficLevel = "moderate"
	TrafficHeavy    TrafficLevel = "heavy"
	TrafficSevere   TrafficLevel = "severe"
)

// IsValid checks if a traffic level is part of the vocabulary
func (l TrafficLevel) IsValid() bool {
	switch l {
	case TrafficLight, TrafficModerate, TrafficHeavy, TrafficSevere:
		return true
	default:
		return false
	}
}

// ViolationType classifies a route compliance violation.
type ViolationType string

const (
	ViolationTimeRestriction ViolationType = "time_restriction"
	ViolationZoneRestriction ViolationType = "zone_restriction"
	ViolationPollution       ViolationType = "pollution_violation"
	ViolationOddEven         ViolationType = "odd_even_violation"
	ViolationWeightLimit     ViolationType = "weight_limit_violation"
)

// Route represents a planned or executing sequence of stops for one vehicle.
type Route struct {
	ID                       string                     `bson:"_id" json:"id"`
	VehicleID                string                     `bson:"vehicle_id" json:"vehicleId"`
	DriverID                 string                     `bson:"driver_id,omitempty" json:"driverId,omitempty"`
	HubID                    string                     `bson:"hub_id,omitempty" json:"hubId,omitempty"`
	DeliveryIDs              []string                   `bson:"delivery_ids,omitempty" json:"deliveryIds,omitempty"`
	RouteType                string                     `bson:"route_type,omitempty" json:"routeType,omitempty"` // "hub_to_delivery", "hub_transfer", "direct", "premium_dedicated"
	Stops                    []RouteStop                `bson:"stops" json:"stops"`
	EstimatedDuration        float64                    `bson:"estimated_duration" json:"estimatedDuration"`                // minutes
	EstimatedDistance        float64                    `bson:"estimated_distance" json:"estimatedDistance"`                // km
	EstimatedFuelConsumption float64                    `bson:"estimated_fuel_consumption" json:"estimatedFuelConsumption"` // liters
	ActualDuration           *float64                   `bson:"actual_duration,omitempty" json:"actualDuration,omitempty"`
	ActualDistance           *float64                   `bson:"actual_distance,omitempty" json:"actualDistance,omitempty"`
	ActualFuelConsumption    *float64                   `bson:"actual_fuel_consumption,omitempty" json:"actualFuelConsumption,omitempty"`
	TrafficFactors           []TrafficFactor            `bson:"traffic_factors" json:"trafficFactors"`
	Status                   RouteStatus                `bson:"status" json:"status"`
	OptimizationMetadata     *OptimizationMetadata      `bson:"optimization_metadata,omitempty" json:"optimizationMetadata,omitempty"`
	ComplianceValidation     *RouteComplianceValidation `bson:"compliance_validation,omitempty" json:"complianceValidation,omitempty"`
	CreatedAt                time.Time                  `bson:"created_at" json:"createdAt"`
	UpdatedAt                time.Time                  `bson:"updated_at" json:"updatedAt"`
	StartedAt                *time.Time                 `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	CompletedAt              *time.Time                 `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// RouteStop is one visit on a route.
type RouteStop struct {
	ID                     string     `bson:"id" json:"id"`
	Sequence               int        `bson:"sequence" json:"sequence"`
	Location               Location   `bson:"location" json:"location"`
	Type                   StopType   `bson:"type" json:"type"`
	Address                string     `bson:"address,omitempty" json:"address,omitempty"`
	DeliveryID             string     `bson:"delivery_id,omitempty" json:"deliveryId,omitempty"`
	HubID                  string     `bson:"hub_id,omitempty" json:"hubId,omitempty"`
	EstimatedArrivalTime   time.Time  `bson:"estimated_arrival_time" json:"estimatedArrivalTime"`
	EstimatedDepartureTime time.Time  `bson:"estimated_departure_time" json:"estimatedDepartureTime"`
	ActualArrivalTime      *time.Time `bson:"actual_arrival_time,omitempty" json:"actualArrivalTime,omitempty"`
	ActualDepartureTime    *time.Time `bson:"actual_departure_time,omitempty" json:"actualDepartureTime,omitempty"`
	Duration               float64    `bson:"duration" json:"duration"` // minutes spent at the stop
	Instructions           []string   `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Status                 StopStatus `bson:"status" json:"status"`
}

// TrafficFactor is a live congestion report for one road segment.
type TrafficFactor struct {
	SegmentID            string       `bson:"segment_id" json:"segmentId"`
	FromLocation         Location     `bson:"from_location" json:"fromLocation"`
	ToLocation           Location     `bson:"to_location" json:"toLocation"`
	TrafficLevel         TrafficLevel `bson:"traffic_level" json:"trafficLevel"`
	DelayMinutes         float64      `bson:"delay_minutes" json:"delayMinutes"`
	AlternativeAvailable bool         `bson:"alternative_available" json:"alternativeAvailable"`
	Timestamp            time.Time    `bson:"timestamp" json:"timestamp"`
}

// Validate checks a traffic report before it is ingested.
func (f TrafficFactor) Validate() error {
	if strings.TrimSpace(f.SegmentID) == "" {
		return invalid("segmentId", "is required")
	}
	if !f.TrafficLevel.IsValid() {
		return invalid("trafficLevel", "unknown traffic level %q", f.TrafficLevel)
	}
	if f.DelayMinutes < 0 {
		return invalid("delayMinutes", "must not be negative")
	}
	if err := f.FromLocation.Validate("fromLocation"); err != nil {
		return err
	}
	return f.ToLocation.Validate("toLocation")
}

// OptimizationMetadata describes how the route was produced.
type OptimizationMetadata struct {
	AlgorithmUsed      string   `bson:"algorithm_used" json:"algorithmUsed"`
	OptimizationTimeMs int64    `bson:"optimization_time_ms" json:"optimizationTime"`
	Iterations         int      `bson:"iterations" json:"iterations"`
	ObjectiveValue     float64  `bson:"objective_value" json:"objectiveValue"`
	ConstraintsApplied []string `bson:"constraints_applied" json:"constraintsApplied"`
	FallbackUsed       bool     `bson:"fallback_used" json:"fallbackUsed"`
	Version            string   `bson:"version" json:"version"`
}

// RouteComplianceValidation is a point-in-time snapshot of a route's rule status.
type RouteComplianceValidation struct {
	IsCompliant bool                  `bson:"is_compliant" json:"isCompliant"`
	ValidatedAt time.Time             `bson:"validated_at" json:"validatedAt"`
	Violations  []ComplianceViolation `bson:"violations" json:"violations"`
	Warnings    []ComplianceWarning   `bson:"warnings" json:"warnings"`
	Exemptions  []ComplianceExemption `bson:"exemptions" json:"exemptions"`
}

// ComplianceViolation is a rule breach found at a stop.
type ComplianceViolation struct {
	Type        ViolationType `bson:"type" json:"type"`
	Description string        `bson:"description" json:"description"`
	Severity    Severity      `bson:"severity" json:"severity"`
	Penalty     float64       `bson:"penalty,omitempty" json:"penalty,omitempty"`
	Location    Location      `bson:"location" json:"location"`
	Timestamp   time.Time     `bson:"timestamp" json:"timestamp"`
	RouteStopID string        `bson:"route_stop_id,omitempty" json:"routeStopId,omitempty"`
}

// ComplianceWarning is advisory and does not affect compliance.
type ComplianceWarning struct {
	Type           string    `bson:"type" json:"type"`
	Description    string    `bson:"description" json:"description"`
	Recommendation string    `bson:"recommendation" json:"recommendation"`
	Location       Location  `bson:"location" json:"location"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}

// ComplianceExemption records an authorized waiver.
type ComplianceExemption struct {
	Type         string    `bson:"type" json:"type"`
	Reason       string    `bson:"reason" json:"reason"`
	ValidUntil   time.Time `bson:"valid_until" json:"validUntil"`
	AuthorizedBy string    `bson:"authorized_by" json:"authorizedBy"`
}

// Validate checks the invariants a persisted route must satisfy.
func (r *Route) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return invalid("id", "is required")
	}
	if strings.TrimSpace(r.VehicleID) == "" {
		return invalid("vehicleId", "is required")
	}
	if r.Status != "" && !r.Status.IsValid() {
		return invalid("status", "unknown route status %q", r.Status)
	}
	if r.EstimatedDistance < 0 {
		return invalid("estimatedDistance", "must not be negative")
	}
	if r.EstimatedDuration < 0 {
		return invalid("estimatedDuration", "must not be negative")
	}
	if r.EstimatedFuelConsumption < 0 {
		return invalid("estimatedFuelConsumption", "must not be negative")
	}
	seen := make(map[string]bool, len(r.Stops))
	for i, s := range r.Stops {
		if strings.TrimSpace(s.ID) == "" {
			return invalid("stops.id", "stop %d has no id", i)
		}
		if seen[s.ID] {
			return invalid("stops.id", "duplicate stop id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Sequence != i+1 {
			return invalid("stops.sequence", "stop %q has sequence %d, want %d", s.ID, s.Sequence, i+1)
		}
		if !s.Type.IsValid() {
			return invalid("stops.type", "stop %q has unknown type %q", s.ID, s.Type)
		}
		if s.Status != "" && !s.Status.IsValid() {
			return invalid("stops.status", "stop %q has unknown status %q", s.ID, s.Status)
		}
		if s.Duration < 0 {
			return invalid("stops.duration", "stop %q has negative duration", s.ID)
		}
		if err := s.Location.Validate("stops.location"); err != nil {
			return err
		}
	}
	seenSegments := make(map[string]bool, len(r.TrafficFactors))
	for _, f := range r.TrafficFactors {
		if err := f.Validate(); err != nil {
			return err
		}
		if seenSegments[f.SegmentID] {
			return invalid("trafficFactors.segmentId", "duplicate segment %q", f.SegmentID)
		}
		seenSegments[f.SegmentID] = true
	}
	return nil
}
