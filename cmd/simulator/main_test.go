package main

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-compliance/internal/fleet"
	"github.com/ukydev/fleet-compliance/internal/handlers"
	"github.com/ukydev/fleet-compliance/internal/models"
)

func newTestAPI(t *testing.T) (*fleet.Service, *httptest.Server) {
	t.Helper()
	svc := fleet.NewService()
	server := httptest.NewServer(handlers.NewRouter(svc, handlers.RouterOptions{}))
	t.Cleanup(server.Close)
	return svc, server
}

func testSettings(url string) Settings {
	return Settings{APIURL: url + "/api", FleetSize: 4, BufferPerHub: 2, Tick: time.Second}
}

func TestJitterLocation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := models.Location{Lat: 28.6139, Lon: 77.2090}
	for i := 0; i < 100; i++ {
		loc := jitterLocation(rng, base, 500)
		assert.LessOrEqual(t, base.DistanceKm(loc), 0.75)
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("FLEET_SIZE", "25")
	t.Setenv("BUFFER_PER_HUB", "-1")
	t.Setenv("SIM_TICK_SECONDS", "5")
	t.Setenv("SIM_BREAKDOWN_RATE", "2")

	s := loadSettings()
	assert.Equal(t, "http://localhost:8080/api", s.APIURL)
	assert.Equal(t, 25, s.FleetSize)
	assert.Equal(t, 3, s.BufferPerHub)
	assert.Equal(t, 5*time.Second, s.Tick)
	assert.Equal(t, 0.01, s.BreakdownRate)
}

func TestRandomVehicle_Valid(t *testing.T) {
	sim := NewSimulator(testSettings("http://unused"), 7)
	for i := 0; i < 50; i++ {
		v := sim.randomVehicle(models.Location{Lat: 19.07, Lon: 72.87})
		v.ID = "check"
		require.NoError(t, v.Validate())
	}
}

func TestSetup(t *testing.T) {
	svc, server := newTestAPI(t)
	sim := NewSimulator(testSettings(server.URL), 42)

	require.NoError(t, sim.Setup(context.Background()))
	assert.Len(t, sim.hubs, len(cities))
	require.Len(t, sim.fleet, 4)

	for _, id := range sim.hubs {
		h, err := svc.Hub(id)
		require.NoError(t, err)
		assert.Len(t, h.BufferVehicles, 2)
	}
	for _, st := range sim.fleet {
		require.NotEmpty(t, st.RouteID)
		r, err := svc.Route(st.RouteID)
		require.NoError(t, err)
		assert.Equal(t, st.VehicleID, r.VehicleID)
		assert.Equal(t, models.RouteStatusActive, r.Status)
	}
}

func TestStep_SendsLocations(t *testing.T) {
	svc, server := newTestAPI(t)
	sim := NewSimulator(testSettings(server.URL), 3)
	require.NoError(t, sim.Setup(context.Background()))

	sim.Step(context.Background())
	for _, st := range sim.fleet {
		v, err := svc.Vehicle(st.VehicleID)
		require.NoError(t, err)
		assert.Equal(t, st.Position.Lat, v.Location.Lat)
		assert.Equal(t, st.Position.Lon, v.Location.Lon)
		assert.NotNil(t, v.Location.Timestamp)
	}
}

func TestBreakdown_SubstituteTakesOver(t *testing.T) {
	svc, server := newTestAPI(t)
	ctx := context.Background()
	sim := NewSimulator(testSettings(server.URL), 9)

	delhi := cities[0].Location
	spare := sim.randomVehicle(delhi)
	spare.Type, spare.Capacity = models.VehicleTypeVan, models.VehicleCapacity{Weight: 2000, Volume: 12}
	created, err := svc.RegisterVehicle(ctx, spare)
	require.NoError(t, err)
	_, err = svc.RegisterHub(ctx, models.Hub{
		ID:             "delhi",
		Location:       delhi,
		Capacity:       models.HubCapacity{MaxVehicles: 5, BufferVehicleSlots: 2},
		BufferVehicles: []string{created.ID},
		OperatingHours: models.OperatingHours{Open: "00:00", Close: "23:59"},
	})
	require.NoError(t, err)

	worker := sim.randomVehicle(delhi)
	worker.Type, worker.Capacity = models.VehicleTypeVan, models.VehicleCapacity{Weight: 800, Volume: 6}
	w, err := svc.RegisterVehicle(ctx, worker)
	require.NoError(t, err)

	st := &vehicleState{VehicleID: w.ID, Home: delhi, Position: delhi}
	st.RouteID, err = sim.createRoute(ctx, st, "delhi")
	require.NoError(t, err)

	res, err := sim.breakdown(ctx, st)
	require.NoError(t, err)
	assert.True(t, res.Substitute.Success)
	assert.Equal(t, []string{st.RouteID}, res.ReassignedRoutes)
	assert.Equal(t, created.ID, st.VehicleID)
	assert.False(t, st.Broken)

	r, err := svc.Route(st.RouteID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, r.VehicleID)
}

func TestBreakdown_NoSubstitute(t *testing.T) {
	svc, server := newTestAPI(t)
	ctx := context.Background()
	sim := NewSimulator(testSettings(server.URL), 11)

	v, err := svc.RegisterVehicle(ctx, sim.randomVehicle(cities[1].Location))
	require.NoError(t, err)
	st := &vehicleState{VehicleID: v.ID, Position: v.Location}

	res, err := sim.breakdown(ctx, st)
	require.NoError(t, err)
	assert.False(t, res.Substitute.Success)
	assert.True(t, st.Broken)
	assert.Equal(t, v.ID, st.VehicleID)

	// Broken vehicles are skipped on later ticks.
	sim.fleet = []*vehicleState{st}
	sim.Step(ctx)
	got, err := svc.Vehicle(v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusBreakdown, got.Status)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := newClient(server.URL).do(context.Background(), http.MethodGet, "/x", nil, nil)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Body)
}

func TestRun_StopsOnCancel(t *testing.T) {
	sim := NewSimulator(Settings{APIURL: "http://127.0.0.1:0", Tick: time.Hour}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
