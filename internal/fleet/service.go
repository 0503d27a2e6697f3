package fleet

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/compliance"
	"github.com/ukydev/fleet-compliance/internal/db"
	"github.com/ukydev/fleet-compliance/internal/hub"
	"github.com/ukydev/fleet-compliance/internal/models"
	"github.com/ukydev/fleet-compliance/internal/notify"
	"github.com/ukydev/fleet-compliance/internal/route"
)

// Service is the application layer over the registry. The registry is
// authoritative. Persistence is write-through: a failed write is logged and
// returned after the in-memory change has been made.
type Service struct {
	registry   *Registry
	checker    *compliance.Checker
	cache      *compliance.Cache
	cacheTTL   time.Duration
	store      *db.Store
	publisher  notify.Publisher
	topics     notify.Topics
	heuristics route.Heuristics
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStore enables write-through persistence.
func WithStore(store *db.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithPublisher sets the event publisher. The default drops events.
func WithPublisher(p notify.Publisher, topics notify.Topics) Option {
	return func(s *Service) {
		s.publisher = p
		s.topics = topics
	}
}

// WithHeuristics sets the coefficients used by every route tracker.
func WithHeuristics(h route.Heuristics) Option {
	return func(s *Service) {
		s.heuristics = h
	}
}

// WithCacheTTL sets how long compliance results stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// WithClock replaces time.Now everywhere in the service.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a service with an empty registry.
func NewService(opts ...Option) *Service {
	s := &Service{
		registry:   NewRegistry(),
		publisher:  notify.NopPublisher{},
		heuristics: route.DefaultHeuristics(),
		cacheTTL:   compliance.DefaultCacheTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry.now = s.now
	s.checker = compliance.NewChecker(compliance.WithClock(s.now))
	s.cache = compliance.NewCache(s.cacheTTL, s.now)
	return s
}

// Registry exposes the underlying entity index.
func (s *Service) Registry() *Registry {
	return s.registry
}

func (s *Service) newTracker(r *models.Route) *route.Tracker {
	return route.NewTracker(r, route.WithClock(s.now), route.WithHeuristics(s.heuristics))
}

func (s *Service) newPool(h *models.Hub) *hub.Pool {
	return hub.NewPool(h, s.registry, hub.WithClock(s.now))
}

// Restore loads every persisted entity into the registry.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	vehicles, err := s.store.Vehicles.FindVehicles(ctx)
	if err != nil {
		return err
	}
	for i := range vehicles {
		if err := s.registry.AddVehicle(&vehicles[i]); err != nil {
			return err
		}
	}
	routes, err := s.store.Routes.FindRoutes(ctx)
	if err != nil {
		return err
	}
	for i := range routes {
		if err := s.registry.AddRoute(s.newTracker(&routes[i])); err != nil {
			return err
		}
	}
	hubs, err := s.store.Hubs.FindHubs(ctx)
	if err != nil {
		return err
	}
	for i := range hubs {
		if err := s.registry.AddHub(s.newPool(&hubs[i])); err != nil {
			return err
		}
	}
	log.WithFields(log.Fields{
		"vehicles": len(vehicles),
		"routes":   len(routes),
		"hubs":     len(hubs),
	}).Info("Restored fleet state from store")
	return nil
}

func (s *Service) saveVehicle(ctx context.Context, v *models.Vehicle) error {
	if s.store == nil || v == nil {
		return nil
	}
	if err := s.store.Vehicles.SaveVehicle(ctx, *v); err != nil {
		log.WithFields(log.Fields{"vehicle_id": v.ID}).WithError(err).Warn("Failed to persist vehicle")
		return err
	}
	return nil
}

func (s *Service) saveRoute(ctx context.Context, r *models.Route) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Routes.SaveRoute(ctx, *r); err != nil {
		log.WithFields(log.Fields{"route_id": r.ID}).WithError(err).Warn("Failed to persist route")
		return err
	}
	return nil
}

func (s *Service) saveHub(ctx context.Context, p *hub.Pool) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Hubs.SaveHub(ctx, *p.Snapshot()); err != nil {
		log.WithFields(log.Fields{"hub_id": p.ID()}).WithError(err).Warn("Failed to persist hub")
		return err
	}
	return nil
}

// publish delivers an event. Delivery failures are logged and never fail the
// command that produced the event.
func (s *Service) publish(ctx context.Context, topic, eventType, subject string, payload interface{}) {
	event := notify.NewEvent(eventType, subject, s.now().UTC(), payload)
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		log.WithFields(log.Fields{"topic": topic, "event_type": eventType}).WithError(err).Warn("Failed to publish event")
	}
}
