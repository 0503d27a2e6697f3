// Package fleet composes compliance checking, route tracking and hub allocation
// into the application service. Entities reference each other by id through an
// in-memory Registry.
package fleet

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ukydev/fleet-compliance/internal/hub"
	"github.com/ukydev/fleet-compliance/internal/models"
	"github.com/ukydev/fleet-compliance/internal/route"
)

// Lookup errors.
var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrRouteNotFound   = errors.New("route not found")
	ErrHubNotFound     = errors.New("hub not found")
	ErrStopNotFound    = errors.New("stop not found")
	ErrDuplicateID     = errors.New("duplicate id")
)

type routeEntry struct {
	mu      sync.Mutex
	tracker *route.Tracker
}

// Registry indexes vehicles, routes and hubs by id. Vehicles are guarded by the
// registry lock, each route by its own lock and each hub by its Pool.
//
// Lock order: a Pool may call into the registry while holding its own lock, so
// the registry never calls a Pool while holding mu.
type Registry struct {
	mu       sync.RWMutex
	vehicles map[string]*models.Vehicle
	routes   map[string]*routeEntry
	hubs     map[string]*hub.Pool
	now      func() time.Time
}

// NewRegistry creates an empty registry stamping changes with time.Now. A
// Service replaces the clock with its own.
func NewRegistry() *Registry {
	return &Registry{
		vehicles: make(map[string]*models.Vehicle),
		routes:   make(map[string]*routeEntry),
		hubs:     make(map[string]*hub.Pool),
		now:      time.Now,
	}
}

// AddVehicle takes ownership of v.
func (r *Registry) AddVehicle(v *models.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[v.ID]; ok {
		return ErrDuplicateID
	}
	r.vehicles[v.ID] = v
	return nil
}

// Vehicle returns a copy of the vehicle. It implements hub.VehicleStore.
func (r *Registry) Vehicle(id string) (*models.Vehicle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

// Vehicles returns copies of every vehicle ordered by id.
func (r *Registry) Vehicles() []*models.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, v.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CompareAndSetStatus implements hub.VehicleStore.
func (r *Registry) CompareAndSetStatus(id string, from, to models.VehicleStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok || v.Status != from {
		return false
	}
	v.Status = to
	v.LastUpdated = r.now().UTC()
	return true
}

// UpdateVehicle applies fn to the stored vehicle under the registry lock and
// returns a copy of the result. If fn fails the vehicle is left unchanged.
func (r *Registry) UpdateVehicle(id string, fn func(*models.Vehicle) error) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	draft := v.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	r.vehicles[id] = draft
	return draft.Clone(), nil
}

// AddRoute takes ownership of the tracker.
func (r *Registry) AddRoute(t *route.Tracker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := t.Route().ID
	if _, ok := r.routes[id]; ok {
		return ErrDuplicateID
	}
	r.routes[id] = &routeEntry{tracker: t}
	return nil
}

func (r *Registry) routeEntry(id string) (*routeEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.routes[id]
	return e, ok
}

// WithRoute runs fn with exclusive access to the route's tracker.
func (r *Registry) WithRoute(id string, fn func(*route.Tracker) error) error {
	e, ok := r.routeEntry(id)
	if !ok {
		return ErrRouteNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.tracker)
}

// RouteIDs returns every route id in order.
func (r *Registry) RouteIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.routes))
	for id := range r.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddHub registers a hub handle.
func (r *Registry) AddHub(p *hub.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hubs[p.ID()]; ok {
		return ErrDuplicateID
	}
	r.hubs[p.ID()] = p
	return nil
}

// Hub returns the handle of a hub.
func (r *Registry) Hub(id string) (*hub.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.hubs[id]
	return p, ok
}

// Hubs returns every hub handle ordered by id.
func (r *Registry) Hubs() []*hub.Pool {
	r.mu.RLock()
	pools := make([]*hub.Pool, 0, len(r.hubs))
	for _, p := range r.hubs {
		pools = append(pools, p)
	}
	r.mu.RUnlock()
	sort.Slice(pools, func(i, j int) bool { return pools[i].ID() < pools[j].ID() })
	return pools
}
