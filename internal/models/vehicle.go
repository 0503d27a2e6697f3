package models

import (
	"strings"
	"time"
)

// Vehicle represents a fleet vehicle together with its regulatory record.
type Vehicle struct {
	ID               string           `bson:"_id" json:"id"`
	Type             VehicleType      `bson:"type" json:"type"`
	SubType          VehicleSubType   `bson:"sub_type,omitempty" json:"subType,omitempty"`
	Capacity         VehicleCapacity  `bson:"capacity" json:"capacity"`
	Location         Location         `bson:"location" json:"location"`
	Status           VehicleStatus    `bson:"status" json:"status"`
	Compliance       ComplianceInfo   `bson:"compliance" json:"compliance"`
	Specs            VehicleSpecs     `bson:"vehicle_specs" json:"vehicleSpecs"`
	AccessPrivileges AccessPrivileges `bson:"access_privileges" json:"accessPrivileges"`
	DriverInfo       DriverInfo       `bson:"driver_info" json:"driverInfo"`
	LastUpdated      time.Time        `bson:"last_updated" json:"lastUpdated"`
}

// VehicleCapacity is the payload envelope of a vehicle.
type VehicleCapacity struct {
	Weight        float64    `bson:"weight" json:"weight"` // kg
	Volume        float64    `bson:"volume" json:"volume"` // m³
	MaxDimensions Dimensions `bson:"max_dimensions" json:"maxDimensions"`
}

// Fits reports whether the vehicle can carry at least the required weight and volume.
func (c VehicleCapacity) Fits(required Capacity) bool {
	return c.Weight >= required.Weight && c.Volume >= required.Volume
}

// ComplianceInfo is the regulatory record of a vehicle.
type ComplianceInfo struct {
	PollutionCertificate bool              `bson:"pollution_certificate" json:"pollutionCertificate"`
	PollutionLevel       PollutionLevel    `bson:"pollution_level" json:"pollutionLevel"`
	PermitValid          bool              `bson:"permit_valid" json:"permitValid"`
	ZoneRestrictions     []string          `bson:"zone_restrictions,omitempty" json:"zoneRestrictions,omitempty"`
	TimeRestrictions     []TimeRestriction `bson:"time_restrictions" json:"timeRestrictions"`
}

// VehicleSpecs holds registration and engine details.
type VehicleSpecs struct {
	PlateNumber       string   `bson:"plate_number" json:"plateNumber"`
	FuelType          FuelType `bson:"fuel_type" json:"fuelType"`
	VehicleAge        int      `bson:"vehicle_age" json:"vehicleAge"` // years
	RegistrationState string   `bson:"registration_state,omitempty" json:"registrationState,omitempty"`
	EngineCapacity    float64  `bson:"engine_capacity,omitempty" json:"engineCapacity,omitempty"` // cc
	ManufacturingYear int      `bson:"manufacturing_year" json:"manufacturingYear"`
}

// AccessPrivileges flags the zone types a vehicle may enter.
type AccessPrivileges struct {
	ResidentialZones        bool `bson:"residential_zones" json:"residentialZones"`
	CommercialZones         bool `bson:"commercial_zones" json:"commercialZones"`
	IndustrialZones         bool `bson:"industrial_zones" json:"industrialZones"`
	RestrictedHours         bool `bson:"restricted_hours" json:"restrictedHours"`
	PollutionSensitiveZones bool `bson:"pollution_sensitive_zones" json:"pollutionSensitiveZones"`
	NarrowLanes             bool `bson:"narrow_lanes" json:"narrowLanes"`
}

// DriverInfo holds the assigned driver and their working-hours counters.
type DriverInfo struct {
	ID              string  `bson:"id" json:"id"`
	Name            string  `bson:"name" json:"name"`
	LicenseNumber   string  `bson:"license_number" json:"licenseNumber"`
	WorkingHours    float64 `bson:"working_hours" json:"workingHours"`
	MaxWorkingHours float64 `bson:"max_working_hours" json:"maxWorkingHours"`
	ContactNumber   string  `bson:"contact_number,omitempty" json:"contactNumber,omitempty"`
}

// RemainingHours is how long the driver may still work today, never negative.
func (d DriverInfo) RemainingHours() float64 {
	if d.WorkingHours >= d.MaxWorkingHours {
		return 0
	}
	return d.MaxWorkingHours - d.WorkingHours
}

// Validate checks the invariants a persisted vehicle must satisfy.
func (v *Vehicle) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return invalid("id", "is required")
	}
	if !v.Type.IsValid() {
		return invalid("type", "unknown vehicle type %q", v.Type)
	}
	if !v.SubType.IsValid() {
		return invalid("subType", "unknown vehicle sub type %q", v.SubType)
	}
	if v.Capacity.Weight <= 0 {
		return invalid("capacity.weight", "must be positive, got %v", v.Capacity.Weight)
	}
	if v.Capacity.Volume <= 0 {
		return invalid("capacity.volume", "must be positive, got %v", v.Capacity.Volume)
	}
	if err := v.Location.Validate("location"); err != nil {
		return err
	}
	if v.Status != "" && !v.Status.IsValid() {
		return invalid("status", "unknown vehicle status %q", v.Status)
	}
	if !v.Compliance.PollutionLevel.IsValid() {
		return invalid("compliance.pollutionLevel", "unknown pollution level %q", v.Compliance.PollutionLevel)
	}
	for i, r := range v.Compliance.TimeRestrictions {
		if !r.ZoneType.IsValid() {
			return invalid("compliance.timeRestrictions.zoneType", "restriction %d has unknown zone type %q", i, r.ZoneType)
		}
		if err := r.RestrictedHours.Validate("compliance.timeRestrictions.restrictedHours"); err != nil {
			return err
		}
		for _, d := range r.DaysApplicable {
			if !IsWeekdayName(d) {
				return invalid("compliance.timeRestrictions.daysApplicable", "restriction %d has unknown day %q", i, d)
			}
		}
	}
	if !hasDigit(v.Specs.PlateNumber) {
		return invalid("vehicleSpecs.plateNumber", "must contain at least one digit, got %q", v.Specs.PlateNumber)
	}
	if !v.Specs.FuelType.IsValid() {
		return invalid("vehicleSpecs.fuelType", "unknown fuel type %q", v.Specs.FuelType)
	}
	if v.Specs.VehicleAge < 0 {
		return invalid("vehicleSpecs.vehicleAge", "must not be negative")
	}
	return nil
}

// HasException reports whether any time restriction record carries the tag.
func (v *Vehicle) HasException(tag string) bool {
	for _, r := range v.Compliance.TimeRestrictions {
		for _, e := range r.Exceptions {
			if e == tag {
				return true
			}
		}
	}
	return false
}

// HasZoneAccess checks the access privilege for a zone type. Mixed zones need both
// residential and commercial access.
func (v *Vehicle) HasZoneAccess(zone ZoneType) bool {
	switch zone {
	case ZoneResidential:
		return v.AccessPrivileges.ResidentialZones
	case ZoneCommercial:
		return v.AccessPrivileges.CommercialZones
	case ZoneIndustrial:
		return v.AccessPrivileges.IndustrialZones
	case ZoneMixed:
		return v.AccessPrivileges.ResidentialZones && v.AccessPrivileges.CommercialZones
	default:
		return false
	}
}

// UpdateLocation moves the vehicle, stamping the location with at.
func (v *Vehicle) UpdateLocation(loc Location, at time.Time) error {
	if err := loc.Validate("location"); err != nil {
		return err
	}
	loc.Timestamp = &at
	v.Location = loc
	v.LastUpdated = at
	return nil
}

// UpdateStatus sets the operational status. No transition is forbidden.
func (v *Vehicle) UpdateStatus(status VehicleStatus, at time.Time) error {
	if !status.IsValid() {
		return invalid("status", "unknown vehicle status %q", status)
	}
	v.Status = status
	v.LastUpdated = at
	return nil
}

// PlateDigits returns the numeric characters of the plate in order.
func PlateDigits(plate string) string {
	var b strings.Builder
	for _, r := range plate {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasDigit(s string) bool {
	return PlateDigits(s) != ""
}
