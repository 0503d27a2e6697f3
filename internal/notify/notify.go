// Package notify publishes fleet events (allocations, compliance results,
// route transitions, breakdowns) to downstream consumers.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventAllocation  = "allocation"
	EventCompliance  = "compliance"
	EventRouteStatus = "route_status"
	EventBreakdown   = "breakdown"
)

// Event is the envelope published for every notification.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// NewEvent stamps a fresh event id.
func NewEvent(eventType, subject string, at time.Time, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Subject:    subject,
		OccurredAt: at,
		Payload:    payload,
	}
}

// Publisher delivers events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close()
}

// Topics builds topic names under a common prefix.
type Topics struct {
	Prefix string
}

func (t Topics) join(parts ...string) string {
	prefix := strings.Trim(t.Prefix, "/")
	if prefix == "" {
		prefix = "fleet"
	}
	return prefix + "/" + strings.Join(parts, "/")
}

// HubAllocations is where allocation outcomes of a hub are published.
func (t Topics) HubAllocations(hubID string) string {
	return t.join("hubs", hubID, "allocations")
}

// VehicleCompliance is where composite compliance results of a vehicle are published.
func (t Topics) VehicleCompliance(vehicleID string) string {
	return t.join("vehicles", vehicleID, "compliance")
}

// VehicleBreakdown is where breakdown handling of a vehicle is published.
func (t Topics) VehicleBreakdown(vehicleID string) string {
	return t.join("vehicles", vehicleID, "breakdown")
}

// RouteStatus is where lifecycle transitions of a route are published.
func (t Topics) RouteStatus(routeID string) string {
	return t.join("routes", routeID, "status")
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() {}

// PublishError wraps a delivery failure with its topic.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
