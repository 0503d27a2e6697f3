package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// Collection names.
const (
	VehiclesCollection = "vehicles"
	RoutesCollection   = "routes"
	HubsCollection     = "hubs"
)

var errNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB at uri and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// NewMongoStore binds the fleet collections of database dbName.
func NewMongoStore(client *mongo.Client, dbName string) *Store {
	database := client.Database(dbName)
	return &Store{
		Vehicles: &MongoVehicleCollection{Collection: database.Collection(VehiclesCollection)},
		Routes:   &MongoRouteCollection{Collection: database.Collection(RoutesCollection)},
		Hubs:     &MongoHubCollection{Collection: database.Collection(HubsCollection)},
	}
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	if coll == nil {
		return errNilCollection
	}
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func findByID(ctx context.Context, coll *mongo.Collection, id string, out interface{}) error {
	if coll == nil {
		return errNilCollection
	}
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %q: %w", coll.Name(), id, ErrNotFound)
	}
	return err
}

func findAll(ctx context.Context, coll *mongo.Collection, out interface{}) error {
	if coll == nil {
		return errNilCollection
	}
	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// MongoVehicleCollection stores vehicles keyed by id.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// SaveVehicle validates and upserts a vehicle.
func (c *MongoVehicleCollection) SaveVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if err := vehicle.Validate(); err != nil {
		return fmt.Errorf("save vehicle: %w", err)
	}
	return replaceByID(ctx, c.Collection, vehicle.ID, vehicle)
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := findByID(ctx, c.Collection, id, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindVehicles returns every stored vehicle.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := findAll(ctx, c.Collection, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// MongoRouteCollection stores routes keyed by id.
type MongoRouteCollection struct {
	Collection *mongo.Collection
}

// SaveRoute validates and upserts a route.
func (c *MongoRouteCollection) SaveRoute(ctx context.Context, route models.Route) error {
	if err := route.Validate(); err != nil {
		return fmt.Errorf("save route: %w", err)
	}
	return replaceByID(ctx, c.Collection, route.ID, route)
}

// FindRouteByID finds a route by its ID.
func (c *MongoRouteCollection) FindRouteByID(ctx context.Context, id string) (*models.Route, error) {
	var route models.Route
	if err := findByID(ctx, c.Collection, id, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// FindRoutes returns every stored route.
func (c *MongoRouteCollection) FindRoutes(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	if err := findAll(ctx, c.Collection, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// MongoHubCollection stores hubs keyed by id.
type MongoHubCollection struct {
	Collection *mongo.Collection
}

// SaveHub validates and upserts a hub.
func (c *MongoHubCollection) SaveHub(ctx context.Context, hub models.Hub) error {
	if err := hub.Validate(); err != nil {
		return fmt.Errorf("save hub: %w", err)
	}
	return replaceByID(ctx, c.Collection, hub.ID, hub)
}

// FindHubByID finds a hub by its ID.
func (c *MongoHubCollection) FindHubByID(ctx context.Context, id string) (*models.Hub, error) {
	var hub models.Hub
	if err := findByID(ctx, c.Collection, id, &hub); err != nil {
		return nil, err
	}
	return &hub, nil
}

// FindHubs returns every stored hub.
func (c *MongoHubCollection) FindHubs(ctx context.Context) ([]models.Hub, error) {
	var hubs []models.Hub
	if err := findAll(ctx, c.Collection, &hubs); err != nil {
		return nil, err
	}
	return hubs, nil
}
