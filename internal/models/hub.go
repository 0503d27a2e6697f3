package models

import (
	"strings"
	"time"
)

// HubStatus is the operational state of a hub.
type HubStatus string

const (
	HubStatusActive      HubStatus = "active"
	HubStatusInactive    HubStatus = "inactive"
	HubStatusMaintenance HubStatus = "maintenance"
)

// IsValid checks if a hub status is part of the vocabulary
func (s HubStatus) IsValid() bool {
	switch s {
	case HubStatusActive, HubStatusInactive, HubStatusMaintenance:
		return true
	default:
		return false
	}
}

// Hub is a regional depot holding a pool of buffer vehicles.
type Hub struct {
	ID             string         `bson:"_id" json:"id"`
	Name           string         `bson:"name" json:"name"`
	Location       Location       `bson:"location" json:"location"`
	Capacity       HubCapacity    `bson:"capacity" json:"capacity"`
	BufferVehicles []string       `bson:"buffer_vehicles" json:"bufferVehicles"`
	OperatingHours OperatingHours `bson:"operating_hours" json:"operatingHours"`
	Facilities     []string       `bson:"facilities,omitempty" json:"facilities,omitempty"`
	HubType        string         `bson:"hub_type,omitempty" json:"hubType,omitempty"` // "primary", "secondary", "micro"
	Status         HubStatus      `bson:"status" json:"status"`
	Manager        *HubContact    `bson:"manager,omitempty" json:"manager,omitempty"`
	CreatedAt      time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updatedAt"`
}

// HubCapacity tracks slots and space at a hub.
type HubCapacity struct {
	MaxVehicles        int     `bson:"max_vehicles" json:"maxVehicles"`
	CurrentVehicles    int     `bson:"current_vehicles" json:"currentVehicles"`
	StorageArea        float64 `bson:"storage_area" json:"storageArea"` // m²
	StorageUsed        float64 `bson:"storage_used" json:"storageUsed"` // m²
	LoadingBays        int     `bson:"loading_bays" json:"loadingBays"`
	LoadingBaysInUse   int     `bson:"loading_bays_in_use" json:"loadingBaysInUse"`
	BufferVehicleSlots int     `bson:"buffer_vehicle_slots" json:"bufferVehicleSlots"`
}

// OperatingHours are the regular open and close times of a hub, with optional
// overrides keyed by lower-case weekday name.
type OperatingHours struct {
	Open         string                `bson:"open" json:"open"`
	Close        string                `bson:"close" json:"close"`
	Timezone     string                `bson:"timezone,omitempty" json:"timezone,omitempty"` // IANA name, e.g. "Asia/Kolkata"
	SpecialHours map[string]TimeWindow `bson:"special_hours,omitempty" json:"specialHours,omitempty"`
}

// For returns the window in force on the weekday of t.
func (h OperatingHours) For(t time.Time) TimeWindow {
	if w, ok := h.SpecialHours[WeekdayName(t)]; ok {
		return w
	}
	return TimeWindow{Start: h.Open, End: h.Close}
}

// HubContact is the person responsible for a hub.
type HubContact struct {
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone" json:"phone"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
}

// HasBufferVehicle reports whether the id is in the buffer pool.
func (h *Hub) HasBufferVehicle(id string) bool {
	for _, b := range h.BufferVehicles {
		if b == id {
			return true
		}
	}
	return false
}

// Validate checks the invariants a persisted hub must satisfy.
func (h *Hub) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return invalid("id", "is required")
	}
	if err := h.Location.Validate("location"); err != nil {
		return err
	}
	c := h.Capacity
	if c.MaxVehicles < 0 {
		return invalid("capacity.maxVehicles", "must not be negative")
	}
	if c.CurrentVehicles < 0 || c.CurrentVehicles > c.MaxVehicles {
		return invalid("capacity.currentVehicles", "must be within [0, %d], got %d", c.MaxVehicles, c.CurrentVehicles)
	}
	if c.StorageArea < 0 || c.StorageUsed < 0 || c.StorageUsed > c.StorageArea {
		return invalid("capacity.storageUsed", "must be within [0, %v], got %v", c.StorageArea, c.StorageUsed)
	}
	if c.LoadingBays < 0 || c.LoadingBaysInUse < 0 || c.LoadingBaysInUse > c.LoadingBays {
		return invalid("capacity.loadingBaysInUse", "must be within [0, %d], got %d", c.LoadingBays, c.LoadingBaysInUse)
	}
	if c.BufferVehicleSlots < 0 {
		return invalid("capacity.bufferVehicleSlots", "must not be negative")
	}
	if len(h.BufferVehicles) > c.BufferVehicleSlots {
		return invalid("bufferVehicles", "holds %d vehicles but only %d slots", len(h.BufferVehicles), c.BufferVehicleSlots)
	}
	seen := make(map[string]bool, len(h.BufferVehicles))
	for _, id := range h.BufferVehicles {
		if seen[id] {
			return invalid("bufferVehicles", "duplicate vehicle id %q", id)
		}
		seen[id] = true
	}
	if err := validateHoursWindow(TimeWindow{Start: h.OperatingHours.Open, End: h.OperatingHours.Close}, "operatingHours"); err != nil {
		return err
	}
	for day, w := range h.OperatingHours.SpecialHours {
		if !IsWeekdayName(day) {
			return invalid("operatingHours.specialHours", "unknown day %q", day)
		}
		// For looks overrides up by WeekdayName, which is lower-case.
		if day != strings.ToLower(day) {
			return invalid("operatingHours.specialHours", "day %q must be lower-case", day)
		}
		if err := validateHoursWindow(w, "operatingHours.specialHours."+day); err != nil {
			return err
		}
	}
	if h.OperatingHours.Timezone != "" {
		if _, err := time.LoadLocation(h.OperatingHours.Timezone); err != nil {
			return invalid("operatingHours.timezone", "%v", err)
		}
	}
	if h.Status != "" && !h.Status.IsValid() {
		return invalid("status", "unknown hub status %q", h.Status)
	}
	return nil
}

// validateHoursWindow rejects malformed and zero-length opening windows. A
// window whose start equals its end contains no minute at all.
func validateHoursWindow(w TimeWindow, field string) error {
	if err := w.Validate(field); err != nil {
		return err
	}
	start, _ := ParseClock(w.Start)
	end, _ := ParseClock(w.End)
	if start == end {
		return invalid(field, "window %s-%s is empty; use 00:00-23:59 for round the clock", w.Start, w.End)
	}
	return nil
}
