package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVehicle() *Vehicle {
	return &Vehicle{
		ID:       "V1",
		Type:     VehicleTypeVan,
		Capacity: VehicleCapacity{Weight: 1000, Volume: 5},
		Location: Location{Lat: 28.61, Lon: 77.21},
		Status:   VehicleStatusAvailable,
		Compliance: ComplianceInfo{
			PollutionCertificate: true,
			PollutionLevel:       PollutionBS6,
			PermitValid:          true,
			TimeRestrictions: []TimeRestriction{{
				ZoneType:        ZoneResidential,
				RestrictedHours: TimeWindow{Start: "23:00", End: "07:00"},
				DaysApplicable:  []string{"monday", "tuesday"},
			}},
		},
		Specs: VehicleSpecs{PlateNumber: "DL01AB1235", FuelType: FuelDiesel, VehicleAge: 3},
	}
}

func TestVehicle_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *Vehicle)
		field  string
	}{
		{"valid", func(v *Vehicle) {}, ""},
		{"missing id", func(v *Vehicle) { v.ID = " " }, "id"},
		{"unknown type", func(v *Vehicle) { v.Type = "bus" }, "type"},
		{"zero weight", func(v *Vehicle) { v.Capacity.Weight = 0 }, "capacity.weight"},
		{"negative volume", func(v *Vehicle) { v.Capacity.Volume = -1 }, "capacity.volume"},
		{"latitude out of range", func(v *Vehicle) { v.Location.Lat = 91 }, "location.lat"},
		{"unknown status", func(v *Vehicle) { v.Status = "parked" }, "status"},
		{"unknown pollution level", func(v *Vehicle) { v.Compliance.PollutionLevel = "BS2" }, "compliance.pollutionLevel"},
		{"bad restriction hours", func(v *Vehicle) {
			v.Compliance.TimeRestrictions[0].RestrictedHours.End = "7pm"
		}, "compliance.timeRestrictions.restrictedHours.end"},
		{"bad restriction day", func(v *Vehicle) {
			v.Compliance.TimeRestrictions[0].DaysApplicable = []string{"someday"}
		}, "compliance.timeRestrictions.daysApplicable"},
		{"plate without digits", func(v *Vehicle) { v.Specs.PlateNumber = "DLABCD" }, "vehicleSpecs.plateNumber"},
		{"unknown fuel", func(v *Vehicle) { v.Specs.FuelType = "hydrogen" }, "vehicleSpecs.fuelType"},
		{"negative age", func(v *Vehicle) { v.Specs.VehicleAge = -1 }, "vehicleSpecs.vehicleAge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVehicle()
			tt.mutate(v)
			err := v.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestVehicle_HasZoneAccess(t *testing.T) {
	v := testVehicle()
	v.AccessPrivileges = AccessPrivileges{ResidentialZones: true}

	assert.True(t, v.HasZoneAccess(ZoneResidential))
	assert.False(t, v.HasZoneAccess(ZoneCommercial))
	assert.False(t, v.HasZoneAccess(ZoneIndustrial))
	assert.False(t, v.HasZoneAccess(ZoneMixed), "mixed needs residential and commercial")

	v.AccessPrivileges.CommercialZones = true
	assert.True(t, v.HasZoneAccess(ZoneMixed))
	assert.False(t, v.HasZoneAccess("unknown"))
}

func TestVehicle_Mutators(t *testing.T) {
	v := testVehicle()
	at := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

	require.NoError(t, v.UpdateLocation(Location{Lat: 28.7, Lon: 77.1}, at))
	assert.Equal(t, 28.7, v.Location.Lat)
	require.NotNil(t, v.Location.Timestamp)
	assert.Equal(t, at, *v.Location.Timestamp)
	assert.Equal(t, at, v.LastUpdated)

	err := v.UpdateLocation(Location{Lat: 0, Lon: 200}, at.Add(time.Hour))
	assert.Error(t, err)
	assert.Equal(t, 28.7, v.Location.Lat, "failed update must not change location")

	require.NoError(t, v.UpdateStatus(VehicleStatusBreakdown, at))
	assert.Equal(t, VehicleStatusBreakdown, v.Status)
	require.NoError(t, v.UpdateStatus(VehicleStatusAvailable, at))
	assert.Error(t, v.UpdateStatus("flying", at))
	assert.Equal(t, VehicleStatusAvailable, v.Status)
}

func TestVehicle_HasException(t *testing.T) {
	v := testVehicle()
	assert.False(t, v.HasException(ExceptionEmergency))
	v.Compliance.TimeRestrictions = append(v.Compliance.TimeRestrictions, TimeRestriction{
		ZoneType: ZoneCommercial, Exceptions: []string{ExceptionEssentialServices},
	})
	assert.True(t, v.HasException(ExceptionEssentialServices))
}

func TestVehicle_CloneIsIndependent(t *testing.T) {
	v := testVehicle()
	c := v.Clone()
	c.Compliance.TimeRestrictions[0].DaysApplicable[0] = "sunday"
	c.Capacity.Weight = 1

	assert.Equal(t, "monday", v.Compliance.TimeRestrictions[0].DaysApplicable[0])
	assert.Equal(t, 1000.0, v.Capacity.Weight)
}

func TestPlateDigits(t *testing.T) {
	assert.Equal(t, "011235", PlateDigits("DL01AB1235"))
	assert.Equal(t, "", PlateDigits("ABC"))
}

func TestDriverInfo_RemainingHours(t *testing.T) {
	assert.Equal(t, 3.5, DriverInfo{WorkingHours: 8.5, MaxWorkingHours: 12}.RemainingHours())
	assert.Equal(t, 0.0, DriverInfo{WorkingHours: 13, MaxWorkingHours: 12}.RemainingHours())
}

func TestLocation_DistanceKm(t *testing.T) {
	delhi := Location{Lat: 28.6139, Lon: 77.2090}
	assert.InDelta(t, 0, delhi.DistanceKm(delhi), 1e-9)

	// one thousandth of a degree of latitude is about 111 m
	near := Location{Lat: 28.6149, Lon: 77.2090}
	assert.InDelta(t, 0.111, delhi.DistanceKm(near), 0.001)
	assert.True(t, delhi.Within(near, 1))

	mumbai := Location{Lat: 19.0760, Lon: 72.8777}
	assert.InDelta(t, 1150, delhi.DistanceKm(mumbai), 15)
	assert.False(t, delhi.Within(mumbai, 1000))
}

func testRoute() *Route {
	return &Route{
		ID:        "R1",
		VehicleID: "V1",
		Status:    RouteStatusPlanned,
		Stops: []RouteStop{
			{ID: "S1", Sequence: 1, Type: StopPickup, Location: Location{Lat: 28.6, Lon: 77.2}, Status: StopStatusPending},
			{ID: "S2", Sequence: 2, Type: StopDelivery, Location: Location{Lat: 28.7, Lon: 77.3}, Status: StopStatusPending},
		},
		EstimatedDistance: 30.5,
		EstimatedDuration: 150,
	}
}

func TestRoute_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Route)
		field  string
	}{
		{"valid", func(r *Route) {}, ""},
		{"missing vehicle", func(r *Route) { r.VehicleID = "" }, "vehicleId"},
		{"zero-based sequence", func(r *Route) { r.Stops[0].Sequence = 0; r.Stops[1].Sequence = 1 }, "stops.sequence"},
		{"gap in sequence", func(r *Route) { r.Stops[1].Sequence = 3 }, "stops.sequence"},
		{"duplicate stop id", func(r *Route) { r.Stops[1].ID = "S1" }, "stops.id"},
		{"unknown stop type", func(r *Route) { r.Stops[0].Type = "lunch" }, "stops.type"},
		{"unknown status", func(r *Route) { r.Status = "paused" }, "status"},
		{"negative distance", func(r *Route) { r.EstimatedDistance = -1 }, "estimatedDistance"},
		{"duplicate segment", func(r *Route) {
			f := TrafficFactor{SegmentID: "A", TrafficLevel: TrafficHeavy}
			r.TrafficFactors = []TrafficFactor{f, f}
		}, "trafficFactors.segmentId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRoute()
			tt.mutate(r)
			err := r.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRoute_CloneIsIndependent(t *testing.T) {
	r := testRoute()
	d := 12.0
	r.ActualDuration = &d
	c := r.Clone()
	c.Stops[0].Status = StopStatusCompleted
	*c.ActualDuration = 99

	assert.Equal(t, StopStatusPending, r.Stops[0].Status)
	assert.Equal(t, 12.0, *r.ActualDuration)
}

func testHub() *Hub {
	return &Hub{
		ID:       "H1",
		Location: Location{Lat: 28.5, Lon: 77.1},
		Capacity: HubCapacity{
			MaxVehicles: 20, CurrentVehicles: 10, StorageArea: 1000, StorageUsed: 500,
			LoadingBays: 4, LoadingBaysInUse: 1, BufferVehicleSlots: 2,
		},
		BufferVehicles: []string{"B1"},
		OperatingHours: OperatingHours{Open: "06:00", Close: "22:00"},
		Status:         HubStatusActive,
	}
}

func TestHub_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *Hub)
		field  string
	}{
		{"valid", func(h *Hub) {}, ""},
		{"over max vehicles", func(h *Hub) { h.Capacity.CurrentVehicles = 21 }, "capacity.currentVehicles"},
		{"storage overflow", func(h *Hub) { h.Capacity.StorageUsed = 1001 }, "capacity.storageUsed"},
		{"bays overflow", func(h *Hub) { h.Capacity.LoadingBaysInUse = 5 }, "capacity.loadingBaysInUse"},
		{"buffer over slots", func(h *Hub) { h.BufferVehicles = []string{"B1", "B2", "B3"} }, "bufferVehicles"},
		{"duplicate buffer id", func(h *Hub) { h.BufferVehicles = []string{"B1", "B1"} }, "bufferVehicles"},
		{"bad open time", func(h *Hub) { h.OperatingHours.Open = "6am" }, "operatingHours.start"},
		{"bad special day", func(h *Hub) {
			h.OperatingHours.SpecialHours = map[string]TimeWindow{"holiday": {Start: "08:00", End: "12:00"}}
		}, "operatingHours.specialHours"},
		{"mixed-case special day", func(h *Hub) {
			h.OperatingHours.SpecialHours = map[string]TimeWindow{"Tuesday": {Start: "10:00", End: "12:00"}}
		}, "operatingHours.specialHours"},
		{"lower-case special day", func(h *Hub) {
			h.OperatingHours.SpecialHours = map[string]TimeWindow{"tuesday": {Start: "10:00", End: "12:00"}}
		}, ""},
		{"zero-length hours", func(h *Hub) { h.OperatingHours.Open, h.OperatingHours.Close = "00:00", "00:00" }, "operatingHours"},
		{"zero-length special hours", func(h *Hub) {
			h.OperatingHours.SpecialHours = map[string]TimeWindow{"sunday": {Start: "09:00", End: "09:00"}}
		}, "operatingHours.specialHours.sunday"},
		{"bad timezone", func(h *Hub) { h.OperatingHours.Timezone = "Mars/Olympus" }, "operatingHours.timezone"},
		{"unknown status", func(h *Hub) { h.Status = "closed" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHub()
			tt.mutate(h)
			err := h.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestOperatingHours_For(t *testing.T) {
	h := OperatingHours{
		Open: "06:00", Close: "22:00",
		SpecialHours: map[string]TimeWindow{"sunday": {Start: "08:00", End: "14:00"}},
	}
	sunday := time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)

	assert.Equal(t, TimeWindow{Start: "08:00", End: "14:00"}, h.For(sunday))
	assert.Equal(t, TimeWindow{Start: "06:00", End: "22:00"}, h.For(monday))
}
