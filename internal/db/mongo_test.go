package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-compliance/internal/models"
)

func validVehicle(id string) models.Vehicle {
	return models.Vehicle{
		ID:         id,
		Type:       models.VehicleTypeVan,
		Capacity:   models.VehicleCapacity{Weight: 1000, Volume: 5},
		Status:     models.VehicleStatusAvailable,
		Compliance: models.ComplianceInfo{PollutionLevel: models.PollutionBS6, PollutionCertificate: true, PermitValid: true},
		Specs:      models.VehicleSpecs{PlateNumber: "DL01AB1235", FuelType: models.FuelDiesel},
	}
}

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestConnectMongo_EmptyURI(t *testing.T) {
	_, err := ConnectMongo(context.Background(), "")
	assert.Error(t, err)
}

func TestCollections_NilCollection(t *testing.T) {
	ctx := context.Background()

	vehicles := &MongoVehicleCollection{}
	assert.ErrorIs(t, vehicles.SaveVehicle(ctx, validVehicle("V1")), errNilCollection)
	_, err := vehicles.FindVehicleByID(ctx, "V1")
	assert.ErrorIs(t, err, errNilCollection)
	_, err = vehicles.FindVehicles(ctx)
	assert.ErrorIs(t, err, errNilCollection)

	routes := &MongoRouteCollection{}
	assert.ErrorIs(t, routes.SaveRoute(ctx, models.Route{ID: "R1", VehicleID: "V1"}), errNilCollection)

	hubs := &MongoHubCollection{}
	hub := models.Hub{ID: "H1", OperatingHours: models.OperatingHours{Open: "06:00", Close: "22:00"}}
	assert.ErrorIs(t, hubs.SaveHub(ctx, hub), errNilCollection)
}

func TestCollections_ValidateOnWrite(t *testing.T) {
	ctx := context.Background()
	var verr *models.ValidationError

	bad := validVehicle("V1")
	bad.Capacity.Weight = 0
	err := (&MongoVehicleCollection{}).SaveVehicle(ctx, bad)
	require.Error(t, err)
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "capacity.weight", verr.Field)

	err = (&MongoRouteCollection{}).SaveRoute(ctx, models.Route{ID: "R1"})
	assert.True(t, errors.As(err, &verr))

	err = (&MongoHubCollection{}).SaveHub(ctx, models.Hub{
		ID:             "H1",
		BufferVehicles: []string{"B1"},
		OperatingHours: models.OperatingHours{Open: "06:00", Close: "22:00"},
	})
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "bufferVehicles", verr.Field)
}

// Integration test (requires running MongoDB)
func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	database := client.Database("test_fleet_compliance")
	require.NoError(t, database.Drop(ctx))
	store := NewMongoStore(client, "test_fleet_compliance")

	v := validVehicle("V1")
	require.NoError(t, store.Vehicles.SaveVehicle(ctx, v))
	v.Status = models.VehicleStatusBreakdown
	require.NoError(t, store.Vehicles.SaveVehicle(ctx, v))

	found, err := store.Vehicles.FindVehicleByID(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusBreakdown, found.Status)

	all, err := store.Vehicles.FindVehicles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = store.Vehicles.FindVehicleByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	r := models.Route{ID: "R1", VehicleID: "V1", Status: models.RouteStatusPlanned}
	require.NoError(t, store.Routes.SaveRoute(ctx, r))
	gotRoute, err := store.Routes.FindRouteByID(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "V1", gotRoute.VehicleID)

	h := models.Hub{
		ID:             "H1",
		Capacity:       models.HubCapacity{MaxVehicles: 10, BufferVehicleSlots: 2},
		BufferVehicles: []string{"V1"},
		OperatingHours: models.OperatingHours{Open: "06:00", Close: "22:00"},
		Status:         models.HubStatusActive,
	}
	require.NoError(t, store.Hubs.SaveHub(ctx, h))
	hubs, err := store.Hubs.FindHubs(ctx)
	require.NoError(t, err)
	require.Len(t, hubs, 1)
	assert.Equal(t, []string{"V1"}, hubs[0].BufferVehicles)
}
