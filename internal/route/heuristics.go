package route

// Heuristics holds the coefficients behind optimization suggestions and route
// compliance validation.
type Heuristics struct {
	// ReorderSavingsRatio is the share of estimated distance a stop reorder is assumed to save.
	ReorderSavingsRatio float64 `mapstructure:"reorderSavingsRatio" json:"reorderSavingsRatio"`
	// MinutesPerKm converts saved distance into saved time.
	MinutesPerKm float64 `mapstructure:"minutesPerKm" json:"minutesPerKm"`
	// FuelPerKm converts saved distance into saved fuel, in liters.
	FuelPerKm float64 `mapstructure:"fuelPerKm" json:"fuelPerKm"`
	// MinReorderSavingMinutes is the time saving a reorder must exceed to be suggested.
	MinReorderSavingMinutes float64 `mapstructure:"minReorderSavingMinutes" json:"minReorderSavingMinutes"`
	// MinStopsForReorder is the stop count a route must exceed before reordering is considered.
	MinStopsForReorder int `mapstructure:"minStopsForReorder" json:"minStopsForReorder"`
	// TrafficRecoveryRatio is the share of congestion delay an alternative route recovers.
	TrafficRecoveryRatio float64 `mapstructure:"trafficRecoveryRatio" json:"trafficRecoveryRatio"`
	// AltRouteFuelSaving is the flat fuel saving, in liters, attached to an alternative route.
	AltRouteFuelSaving float64 `mapstructure:"altRouteFuelSaving" json:"altRouteFuelSaving"`

	// Residential arrivals at or after CurfewStartHour, or before CurfewEndHour, are violations.
	CurfewStartHour int `mapstructure:"curfewStartHour" json:"curfewStartHour"`
	CurfewEndHour   int `mapstructure:"curfewEndHour" json:"curfewEndHour"`
	// CurfewPenalty is the fine attached to a curfew violation.
	CurfewPenalty float64 `mapstructure:"curfewPenalty" json:"curfewPenalty"`
	// TrafficProximityKm is how close a congested segment origin must be to a stop to warn.
	TrafficProximityKm float64 `mapstructure:"trafficProximityKm" json:"trafficProximityKm"`
}

// DefaultHeuristics returns the standard coefficients.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		ReorderSavingsRatio:     0.15,
		MinutesPerKm:            3,
		FuelPerKm:               0.1,
		MinReorderSavingMinutes: 10,
		MinStopsForReorder:      3,
		TrafficRecoveryRatio:    0.6,
		AltRouteFuelSaving:      0.5,
		CurfewStartHour:         23,
		CurfewEndHour:           7,
		CurfewPenalty:           5000,
		TrafficProximityKm:      1,
	}
}

func (h Heuristics) inCurfew(hour int) bool {
	if h.CurfewStartHour > h.CurfewEndHour {
		return hour >= h.CurfewStartHour || hour < h.CurfewEndHour
	}
	return hour >= h.CurfewStartHour && hour < h.CurfewEndHour
}
