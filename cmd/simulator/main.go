package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/fleet"
	"github.com/ukydev/fleet-compliance/internal/models"
)

// Depot cities the simulated fleet operates around.
var cities = []struct {
	Name     string
	Location models.Location
}{
	{"Delhi", models.Location{Lat: 28.6139, Lon: 77.2090}},
	{"Mumbai", models.Location{Lat: 19.0760, Lon: 72.8777}},
	{"Bengaluru", models.Location{Lat: 12.9716, Lon: 77.5946}},
	{"Chennai", models.Location{Lat: 13.0827, Lon: 80.2707}},
	{"Kolkata", models.Location{Lat: 22.5726, Lon: 88.3639}},
	{"Hyderabad", models.Location{Lat: 17.3850, Lon: 78.4867}},
}

var vehicleTypes = []models.VehicleType{
	models.VehicleTypeTruck,
	models.VehicleTypeTempo,
	models.VehicleTypeVan,
}

// Settings are read from the environment.
type Settings struct {
	APIURL        string
	FleetSize     int
	BufferPerHub  int
	Tick          time.Duration
	BreakdownRate float64 // probability per vehicle per tick
}

func envInt(key string, def, min int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return def
}

func loadSettings() Settings {
	s := Settings{
		APIURL:        os.Getenv("API_BASE_URL"),
		FleetSize:     envInt("FLEET_SIZE", 10, 1),
		BufferPerHub:  envInt("BUFFER_PER_HUB", 3, 0),
		Tick:          time.Duration(envInt("SIM_TICK_SECONDS", 2, 1)) * time.Second,
		BreakdownRate: 0.01,
	}
	if s.APIURL == "" {
		s.APIURL = "http://localhost:8080/api"
	}
	if v := os.Getenv("SIM_BREAKDOWN_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			s.BreakdownRate = f
		}
	}
	return s
}

func jitterLocation(rng *rand.Rand, base models.Location, meters float64) models.Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rng.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rng.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return models.Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

// apiError is a non-2xx reply from the API.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Body)
}

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

// do sends body as JSON and decodes a 2xx reply into out when out is non-nil.
func (c *client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// vehicleState is the simulator's view of one working vehicle.
type vehicleState struct {
	VehicleID string
	RouteID   string
	Home      models.Location
	Position  models.Location
	Broken    bool
}

// Simulator drives the API with a synthetic fleet.
type Simulator struct {
	api      *client
	settings Settings
	rng      *rand.Rand
	now      func() time.Time
	plates   int
	hubs     []string
	fleet    []*vehicleState
}

func NewSimulator(settings Settings, seed int64) *Simulator {
	return &Simulator{
		api:      newClient(settings.APIURL),
		settings: settings,
		rng:      rand.New(rand.NewSource(seed)),
		now:      time.Now,
	}
}

func (s *Simulator) randomVehicle(at models.Location) models.Vehicle {
	s.plates++
	vtype := vehicleTypes[s.rng.Intn(len(vehicleTypes))]
	fuel, level := models.FuelDiesel, models.PollutionBS6
	switch s.rng.Intn(4) {
	case 0:
		fuel = models.FuelCNG
	case 1:
		level = models.PollutionBS4
	}
	weight, volume := 800.0, 6.0
	switch vtype {
	case models.VehicleTypeTruck:
		weight, volume = 5000, 30
	case models.VehicleTypeTempo:
		weight, volume = 1500, 10
	}
	return models.Vehicle{
		Type:     vtype,
		Capacity: models.VehicleCapacity{Weight: weight, Volume: volume},
		Location: at,
		Status:   models.VehicleStatusAvailable,
		Compliance: models.ComplianceInfo{
			PollutionCertificate: true,
			PollutionLevel:       level,
			PermitValid:          true,
		},
		Specs: models.VehicleSpecs{
			PlateNumber:       fmt.Sprintf("SIM%02d%04d", s.rng.Intn(100), s.plates),
			FuelType:          fuel,
			VehicleAge:        s.rng.Intn(10),
			ManufacturingYear: s.now().Year() - s.rng.Intn(10),
		},
		AccessPrivileges: models.AccessPrivileges{
			CommercialZones:  true,
			IndustrialZones:  true,
			ResidentialZones: vtype != models.VehicleTypeTruck,
		},
		DriverInfo: models.DriverInfo{
			ID:              fmt.Sprintf("driver-%d", s.plates),
			Name:            fmt.Sprintf("Driver %d", s.plates),
			MaxWorkingHours: 10,
		},
	}
}

func (s *Simulator) createVehicle(ctx context.Context, at models.Location) (string, error) {
	var created models.Vehicle
	if err := s.api.do(ctx, http.MethodPost, "/vehicles", s.randomVehicle(at), &created); err != nil {
		return "", fmt.Errorf("failed to create vehicle: %w", err)
	}
	log.WithFields(log.Fields{"vehicle_id": created.ID, "type": created.Type}).Info("Created vehicle")
	return created.ID, nil
}

func (s *Simulator) createHub(ctx context.Context, name string, at models.Location) (string, error) {
	slots := s.settings.BufferPerHub
	h := models.Hub{
		Name:     name + " depot",
		Location: at,
		Capacity: models.HubCapacity{
			MaxVehicles:        s.settings.FleetSize + slots,
			StorageArea:        5000,
			LoadingBays:        8,
			BufferVehicleSlots: slots,
		},
		OperatingHours: models.OperatingHours{Open: "06:00", Close: "22:00", Timezone: "Asia/Kolkata"},
		HubType:        "primary",
		Status:         models.HubStatusActive,
	}
	var created models.Hub
	if err := s.api.do(ctx, http.MethodPost, "/hubs", h, &created); err != nil {
		return "", fmt.Errorf("failed to create hub: %w", err)
	}
	for i := 0; i < slots; i++ {
		vehicleID, err := s.createVehicle(ctx, jitterLocation(s.rng, at, 200))
		if err != nil {
			return created.ID, err
		}
		body := map[string]string{"vehicleId": vehicleID}
		if err := s.api.do(ctx, http.MethodPost, "/hubs/"+created.ID+"/buffer", body, nil); err != nil {
			return created.ID, fmt.Errorf("failed to add buffer vehicle: %w", err)
		}
	}
	log.WithFields(log.Fields{"hub_id": created.ID, "name": h.Name, "buffer": slots}).Info("Created hub")
	return created.ID, nil
}

// createRoute plans and starts a two stop delivery run for a vehicle.
func (s *Simulator) createRoute(ctx context.Context, st *vehicleState, hubID string) (string, error) {
	now := s.now().UTC()
	pickup := jitterLocation(s.rng, st.Home, 3000)
	drop := jitterLocation(s.rng, st.Home, 8000)
	km := pickup.DistanceKm(drop)
	r := models.Route{
		VehicleID: st.VehicleID,
		HubID:     hubID,
		RouteType: "hub_to_delivery",
		Stops: []models.RouteStop{
			{ID: "pickup", Sequence: 1, Location: pickup, Type: models.StopPickup,
				EstimatedArrivalTime: now.Add(20 * time.Minute), Duration: 10},
			{ID: "drop", Sequence: 2, Location: drop, Type: models.StopDelivery,
				EstimatedArrivalTime: now.Add(50 * time.Minute), Duration: 15},
		},
		EstimatedDistance:        km,
		EstimatedDuration:        km * 2.5,
		EstimatedFuelConsumption: km * 0.12,
	}
	var created models.Route
	if err := s.api.do(ctx, http.MethodPost, "/routes", r, &created); err != nil {
		return "", fmt.Errorf("failed to create route: %w", err)
	}
	if err := s.api.do(ctx, http.MethodPost, "/routes/"+created.ID+"/start", nil, nil); err != nil {
		return created.ID, fmt.Errorf("failed to start route: %w", err)
	}
	return created.ID, nil
}

// Setup creates one hub per city, each with its buffer, and spreads the
// working fleet across them.
func (s *Simulator) Setup(ctx context.Context) error {
	for _, c := range cities {
		id, err := s.createHub(ctx, c.Name, c.Location)
		if id != "" {
			s.hubs = append(s.hubs, id)
		}
		if err != nil {
			return err
		}
	}
	for i := 0; i < s.settings.FleetSize; i++ {
		c := cities[i%len(cities)]
		home := jitterLocation(s.rng, c.Location, 500)
		vehicleID, err := s.createVehicle(ctx, home)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		st := &vehicleState{VehicleID: vehicleID, Home: home, Position: home}
		if st.RouteID, err = s.createRoute(ctx, st, s.hubs[i%len(s.hubs)]); err != nil {
			log.WithError(err).WithField("vehicle_id", vehicleID).Warn("Failed to plan route")
		}
		s.fleet = append(s.fleet, st)
	}
	log.WithFields(log.Fields{"hubs": len(s.hubs), "vehicles": len(s.fleet)}).Info("Fleet setup completed")
	return nil
}

func (s *Simulator) sendLocation(ctx context.Context, st *vehicleState) {
	st.Position = jitterLocation(s.rng, st.Position, 300)
	if err := s.api.do(ctx, http.MethodPut, "/vehicles/"+st.VehicleID+"/location", st.Position, nil); err != nil {
		log.WithError(err).WithField("vehicle_id", st.VehicleID).Error("Failed to send location")
		return
	}
	log.WithField("vehicle_id", st.VehicleID).Debug("Sent location")
}

// breakdown reports st broken down. When the API allocates a substitute the
// simulator carries on driving it.
func (s *Simulator) breakdown(ctx context.Context, st *vehicleState) (fleet.BreakdownResult, error) {
	var res fleet.BreakdownResult
	if err := s.api.do(ctx, http.MethodPost, "/vehicles/"+st.VehicleID+"/breakdown", nil, &res); err != nil {
		return res, fmt.Errorf("failed to report breakdown: %w", err)
	}
	fields := log.Fields{"vehicle_id": st.VehicleID, "reassigned_routes": len(res.ReassignedRoutes)}
	if !res.Substitute.Success || res.Substitute.Vehicle == nil {
		st.Broken = true
		log.WithFields(fields).WithField("reason", res.Substitute.Message).Warn("Vehicle broke down without substitute")
		return res, nil
	}
	fields["substitute_id"] = res.Substitute.Vehicle.ID
	log.WithFields(fields).Info("Vehicle broke down, substitute dispatched")
	st.VehicleID = res.Substitute.Vehicle.ID
	st.Position = res.Substitute.Vehicle.Location
	return res, nil
}

// Step advances every working vehicle by one tick.
func (s *Simulator) Step(ctx context.Context) {
	for _, st := range s.fleet {
		if st.Broken {
			continue
		}
		if s.rng.Float64() < s.settings.BreakdownRate {
			if _, err := s.breakdown(ctx, st); err != nil {
				log.WithError(err).WithField("vehicle_id", st.VehicleID).Error("Breakdown not handled")
			}
			continue
		}
		s.sendLocation(ctx, st)
	}
}

// Run steps the fleet on every tick until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	tick := time.NewTicker(s.settings.Tick)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.Step(ctx)
		}
	}
}

func main() {
	settings := loadSettings()
	log.WithFields(log.Fields{
		"fleet_size":     settings.FleetSize,
		"buffer_per_hub": settings.BufferPerHub,
		"api_url":        settings.APIURL,
		"interval":       settings.Tick,
		"breakdown_rate": settings.BreakdownRate,
	}).Info("Starting fleet simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := NewSimulator(settings, time.Now().UnixNano())
	if err := sim.Setup(ctx); err != nil {
		log.WithError(err).Fatal("Fleet setup failed. Ensure the API is reachable.")
	}
	if len(sim.fleet) == 0 {
		log.Fatal("No vehicles created. Exiting.")
	}

	log.Info("Simulation started")
	sim.Run(ctx)
	log.Info("Simulation stopped")
}
