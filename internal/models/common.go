package models

import (
	"math"
	"strings"
	"time"
)

// VehicleType is the regulatory class of a vehicle.
type VehicleType string

const (
	VehicleTypeTruck        VehicleType = "truck"
	VehicleTypeTempo        VehicleType = "tempo"
	VehicleTypeVan          VehicleType = "van"
	VehicleTypeThreeWheeler VehicleType = "three-wheeler"
	VehicleTypeElectric     VehicleType = "electric"
)

// IsValid checks if a vehicle type is part of the vocabulary
func (t VehicleType) IsValid() bool {
	switch t {
	case VehicleTypeTruck, VehicleTypeTempo, VehicleTypeVan, VehicleTypeThreeWheeler, VehicleTypeElectric:
		return true
	default:
		return false
	}
}

// VehicleSubType narrows a VehicleType.
type VehicleSubType string

const (
	SubTypeHeavyTruck     VehicleSubType = "heavy-truck"
	SubTypeLightTruck     VehicleSubType = "light-truck"
	SubTypeMiniTruck      VehicleSubType = "mini-truck"
	SubTypeTempoTraveller VehicleSubType = "tempo-traveller"
	SubTypePickupVan      VehicleSubType = "pickup-van"
	SubTypeAutoRickshaw   VehicleSubType = "auto-rickshaw"
	SubTypeERickshaw      VehicleSubType = "e-rickshaw"
)

// IsValid checks if a sub type is part of the vocabulary. Empty is allowed.
func (s VehicleSubType) IsValid() bool {
	switch s {
	case "", SubTypeHeavyTruck, SubTypeLightTruck, SubTypeMiniTruck, SubTypeTempoTraveller,
		SubTypePickupVan, SubTypeAutoRickshaw, SubTypeERickshaw:
		return true
	default:
		return false
	}
}

// VehicleStatus is the operational state of a vehicle. Any status may follow any other.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusInTransit   VehicleStatus = "in-transit"
	VehicleStatusLoading     VehicleStatus = "loading"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusBreakdown   VehicleStatus = "breakdown"
	VehicleStatusReserved    VehicleStatus = "reserved"
)

// IsValid checks if a vehicle status is part of the vocabulary
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusInTransit, VehicleStatusLoading,
		VehicleStatusMaintenance, VehicleStatusBreakdown, VehicleStatusReserved:
		return true
	default:
		return false
	}
}

// PollutionLevel is the emission standard tier of a vehicle.
type PollutionLevel string

const (
	PollutionBS6      PollutionLevel = "BS6"
	PollutionBS4      PollutionLevel = "BS4"
	PollutionBS3      PollutionLevel = "BS3"
	PollutionElectric PollutionLevel = "electric"
)

// IsValid checks if a pollution level is part of the vocabulary
func (p PollutionLevel) IsValid() bool {
	switch p {
	case PollutionBS6, PollutionBS4, PollutionBS3, PollutionElectric:
		return true
	default:
		return false
	}
}

// FuelType of a vehicle.
type FuelType string

const (
	FuelDiesel   FuelType = "diesel"
	FuelPetrol   FuelType = "petrol"
	FuelCNG      FuelType = "cng"
	FuelElectric FuelType = "electric"
)

// IsValid checks if a fuel type is part of the vocabulary
func (f FuelType) IsValid() bool {
	switch f {
	case FuelDiesel, FuelPetrol, FuelCNG, FuelElectric:
		return true
	default:
		return false
	}
}

// ZoneType classifies an area for access and time restrictions.
type ZoneType string

const (
	ZoneResidential ZoneType = "residential"
	ZoneCommercial  ZoneType = "commercial"
	ZoneIndustrial  ZoneType = "industrial"
	ZoneMixed       ZoneType = "mixed"
)

// IsValid checks if a zone type is part of the vocabulary
func (z ZoneType) IsValid() bool {
	switch z {
	case ZoneResidential, ZoneCommercial, ZoneIndustrial, ZoneMixed:
		return true
	default:
		return false
	}
}

// Exception tags carried by time restriction records.
const (
	ExceptionEmergency         = "emergency"
	ExceptionEssentialServices = "essential_services"
)

// Capacity constraints for vehicles and shipments.
type Capacity struct {
	Weight float64 `bson:"weight" json:"weight"` // kg
	Volume float64 `bson:"volume" json:"volume"` // m³
}

// Dimensions in meters.
type Dimensions struct {
	Length float64 `bson:"length" json:"length"`
	Width  float64 `bson:"width" json:"width"`
	Height float64 `bson:"height" json:"height"`
}

// TimeWindow is a clock interval in HH:MM. End before Start wraps past midnight.
type TimeWindow struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// String renders the window as "HH:MM-HH:MM".
func (w TimeWindow) String() string {
	return w.Start + "-" + w.End
}

// Validate checks both ends parse as clock times.
func (w TimeWindow) Validate(field string) error {
	if _, err := ParseClock(w.Start); err != nil {
		return &ValidationError{Field: field + ".start", Reason: err.Error()}
	}
	if _, err := ParseClock(w.End); err != nil {
		return &ValidationError{Field: field + ".end", Reason: err.Error()}
	}
	return nil
}

// TimeRestriction bans a vehicle from a zone type during a clock window on the listed weekdays.
type TimeRestriction struct {
	ZoneType        ZoneType   `bson:"zone_type" json:"zoneType"`
	RestrictedHours TimeWindow `bson:"restricted_hours" json:"restrictedHours"`
	DaysApplicable  []string   `bson:"days_applicable" json:"daysApplicable"` // "monday", "tuesday", ...
	Exceptions      []string   `bson:"exceptions" json:"exceptions"`
}

// AppliesOn reports whether the restriction lists the weekday of t.
func (r TimeRestriction) AppliesOn(t time.Time) bool {
	day := WeekdayName(t)
	for _, d := range r.DaysApplicable {
		if strings.EqualFold(d, day) {
			return true
		}
	}
	return false
}

// WeekdayName returns the lower-case English weekday of t, e.g. "monday".
func WeekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

var weekdayNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// IsWeekdayName reports whether s is a lower-case English weekday.
func IsWeekdayName(s string) bool {
	return weekdayNames[strings.ToLower(s)]
}

// Severity of a compliance violation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Round2 rounds to two decimals for reported metrics.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
