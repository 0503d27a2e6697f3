package db

import (
	"context"
	"errors"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("document not found")

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	SaveVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
}

// RouteCollection defines the interface for route data operations.
type RouteCollection interface {
	SaveRoute(ctx context.Context, route models.Route) error
	FindRouteByID(ctx context.Context, id string) (*models.Route, error)
	FindRoutes(ctx context.Context) ([]models.Route, error)
}

// HubCollection defines the interface for hub data operations.
type HubCollection interface {
	SaveHub(ctx context.Context, hub models.Hub) error
	FindHubByID(ctx context.Context, id string) (*models.Hub, error)
	FindHubs(ctx context.Context) ([]models.Hub, error)
}

// Store groups the collections the fleet service persists to.
type Store struct {
	Vehicles VehicleCollection
	Routes   RouteCollection
	Hubs     HubCollection
}
