package route

import (
	"math"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// EfficiencyMetrics summarises how well a route performed, or is expected to.
type EfficiencyMetrics struct {
	TotalDistance   float64 `json:"totalDistance"`   // km
	TotalDuration   float64 `json:"totalDuration"`   // minutes
	FuelEfficiency  float64 `json:"fuelEfficiency"`  // km per liter
	AverageSpeed    float64 `json:"averageSpeed"`    // km/h
	StopEfficiency  float64 `json:"stopEfficiency"`  // percent of time spent driving
	ComplianceScore float64 `json:"complianceScore"` // percent of stops without a violation
}

func actualOr(actual *float64, estimate float64) float64 {
	if actual != nil {
		return *actual
	}
	return estimate
}

// Efficiency computes metrics from actual figures, falling back to estimates
// where no actual value was recorded.
func (t *Tracker) Efficiency() EfficiencyMetrics {
	r := t.route
	distance := actualOr(r.ActualDistance, r.EstimatedDistance)
	duration := actualOr(r.ActualDuration, r.EstimatedDuration)
	fuel := actualOr(r.ActualFuelConsumption, r.EstimatedFuelConsumption)

	var fuelEfficiency, averageSpeed, stopEfficiency float64
	if fuel > 0 {
		fuelEfficiency = distance / fuel
	}
	if duration > 0 {
		averageSpeed = distance / duration * 60
		var stopTime float64
		for _, s := range r.Stops {
			stopTime += s.Duration
		}
		stopEfficiency = (duration - stopTime) / duration * 100
	}

	complianceScore := 100.0
	if n := len(r.Stops); n > 0 {
		violations := 0
		if r.ComplianceValidation != nil {
			violations = len(r.ComplianceValidation.Violations)
		}
		complianceScore = float64(n-violations) / float64(n) * 100
	}

	return EfficiencyMetrics{
		TotalDistance:   models.Round2(distance),
		TotalDuration:   math.Round(duration),
		FuelEfficiency:  models.Round2(fuelEfficiency),
		AverageSpeed:    models.Round2(averageSpeed),
		StopEfficiency:  models.Round2(stopEfficiency),
		ComplianceScore: models.Round2(complianceScore),
	}
}

// SuggestionType names an optimization heuristic.
type SuggestionType string

const (
	SuggestReorderStops     SuggestionType = "reorder_stops"
	SuggestAlternativeRoute SuggestionType = "alternative_route"
	SuggestTimeAdjustment   SuggestionType = "time_adjustment"
)

// Improvement is the projected gain of applying a suggestion.
type Improvement struct {
	TimeSavingMinutes float64 `json:"timeSavingMinutes"`
	DistanceSavingKm  float64 `json:"distanceSavingKm"`
	FuelSavingLiters  float64 `json:"fuelSavingLiters"`
}

// Suggestion is one proposed route improvement.
type Suggestion struct {
	Type                     SuggestionType `json:"type"`
	Description              string         `json:"description"`
	EstimatedImprovement     Improvement    `json:"estimatedImprovement"`
	ImplementationComplexity string         `json:"implementationComplexity"` // low, medium, high
}

// Suggestions runs every heuristic independently and returns those that fire.
func (t *Tracker) Suggestions() []Suggestion {
	r := t.route
	h := t.heuristics
	out := []Suggestion{}

	if len(r.Stops) > h.MinStopsForReorder {
		if savings := t.reorderSavings(); savings.TimeSavingMinutes > h.MinReorderSavingMinutes {
			out = append(out, Suggestion{
				Type:                     SuggestReorderStops,
				Description:              "Reorder stops to minimize travel distance and time",
				EstimatedImprovement:     savings,
				ImplementationComplexity: "medium",
			})
		}
	}

	var congested int
	var delay float64
	for _, f := range r.TrafficFactors {
		if f.TrafficLevel == models.TrafficHeavy || f.TrafficLevel == models.TrafficSevere {
			congested++
			delay += f.DelayMinutes
		}
	}
	if congested > 0 {
		out = append(out, Suggestion{
			Type:        SuggestAlternativeRoute,
			Description: "Use alternative routes to avoid heavy traffic",
			EstimatedImprovement: Improvement{
				TimeSavingMinutes: models.Round2(delay * h.TrafficRecoveryRatio),
				FuelSavingLiters:  h.AltRouteFuelSaving,
			},
			ImplementationComplexity: "low",
		})
	}

	if r.ComplianceValidation != nil {
		for _, v := range r.ComplianceValidation.Violations {
			if v.Severity == models.SeverityHigh || v.Severity == models.SeverityCritical {
				out = append(out, Suggestion{
					Type:                     SuggestTimeAdjustment,
					Description:              "Adjust departure time to avoid compliance violations",
					ImplementationComplexity: "low",
				})
				break
			}
		}
	}
	return out
}

func (t *Tracker) reorderSavings() Improvement {
	h := t.heuristics
	saved := t.route.EstimatedDistance * h.ReorderSavingsRatio
	return Improvement{
		TimeSavingMinutes: math.Round(saved * h.MinutesPerKm),
		DistanceSavingKm:  models.Round2(saved),
		FuelSavingLiters:  models.Round2(saved * h.FuelPerKm),
	}
}

// ValidateCompliance re-derives the compliance snapshot from the stops. zones
// holds one zone type per stop; missing entries count as mixed. The result
// replaces the route's stored snapshot.
func (t *Tracker) ValidateCompliance(zones []models.ZoneType) models.RouteComplianceValidation {
	r := t.route
	h := t.heuristics
	now := t.now()
	v := models.RouteComplianceValidation{
		ValidatedAt: now,
		Violations:  []models.ComplianceViolation{},
		Warnings:    []models.ComplianceWarning{},
		Exemptions:  []models.ComplianceExemption{},
	}
	for i, stop := range r.Stops {
		zone := models.ZoneMixed
		if i < len(zones) && zones[i] != "" {
			zone = zones[i]
		}
		arrival := stop.EstimatedArrivalTime

		if zone == models.ZoneResidential && h.inCurfew(arrival.Hour()) {
			v.Violations = append(v.Violations, models.ComplianceViolation{
				Type:        models.ViolationTimeRestriction,
				Description: "Vehicle arrival during restricted hours in residential zone",
				Severity:    models.SeverityHigh,
				Penalty:     h.CurfewPenalty,
				Location:    stop.Location,
				Timestamp:   arrival,
				RouteStopID: stop.ID,
			})
		}

		// Only the first reported segment near the stop is considered.
		for _, f := range r.TrafficFactors {
			if !f.FromLocation.Within(stop.Location, h.TrafficProximityKm) {
				continue
			}
			if f.TrafficLevel == models.TrafficSevere {
				v.Warnings = append(v.Warnings, models.ComplianceWarning{
					Type:           "traffic_delay",
					Description:    "Severe traffic expected at this location",
					Recommendation: "Consider alternative route or timing",
					Location:       stop.Location,
					Timestamp:      arrival,
				})
			}
			break
		}
	}

	v.IsCompliant = len(v.Violations) == 0
	r.ComplianceValidation = &v
	r.UpdatedAt = now
	return v
}
