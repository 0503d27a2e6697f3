package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error, completed bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if completed {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mqtt.Client
	token        *fakeToken
	sent         []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestTopics(t *testing.T) {
	topics := Topics{Prefix: "/delhi/"}
	assert.Equal(t, "delhi/hubs/H1/allocations", topics.HubAllocations("H1"))
	assert.Equal(t, "delhi/vehicles/V1/compliance", topics.VehicleCompliance("V1"))
	assert.Equal(t, "delhi/vehicles/V1/breakdown", topics.VehicleBreakdown("V1"))
	assert.Equal(t, "delhi/routes/R1/status", topics.RouteStatus("R1"))
	assert.Equal(t, "fleet/routes/R1/status", Topics{}.RouteStatus("R1"))
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
	a := NewEvent(EventAllocation, "H1", at, map[string]string{"vehicleId": "B2"})
	b := NewEvent(EventAllocation, "H1", at, nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, at, a.OccurredAt)
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{token: newToken(nil, true)}
	p := newMQTTPublisher(client, 1)
	event := NewEvent(EventRouteStatus, "R1", time.Now().UTC(), map[string]string{"status": "active"})

	require.NoError(t, p.Publish(context.Background(), "fleet/routes/R1/status", event))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "fleet/routes/R1/status", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)
	assert.False(t, client.sent[0].retained)

	var decoded Event
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, EventRouteStatus, decoded.Type)

	p.Close()
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_BrokerError(t *testing.T) {
	boom := errors.New("not authorized")
	p := newMQTTPublisher(&fakeClient{token: newToken(boom, true)}, 0)

	err := p.Publish(context.Background(), "fleet/x", Event{})
	var perr *PublishError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "fleet/x", perr.Topic)
	assert.ErrorIs(t, err, boom)
}

func TestMQTTPublisher_ContextCancelled(t *testing.T) {
	p := newMQTTPublisher(&fakeClient{token: newToken(nil, false)}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, "fleet/x", Event{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMQTTPublisher_EmptyBroker(t *testing.T) {
	_, err := NewMQTTPublisher(MQTTConfig{})
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "any", Event{}))
	p.Close()
}
