package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// MQTTConfig configures the MQTT publisher.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
}

// MQTTPublisher publishes events as JSON over MQTT.
type MQTTPublisher struct {
	client mqtt.Client
	qos    byte
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is empty")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID + "-publisher").
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetKeepAlive(60 * time.Second).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			log.WithField("broker", cfg.Broker).Info("MQTT connected")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return newMQTTPublisher(client, cfg.QoS), nil
}

func newMQTTPublisher(client mqtt.Client, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, qos: qos}
}

// Publish marshals the event and waits for the broker to accept it or ctx to end.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return &PublishError{Topic: topic, Err: err}
	}

	token := p.client.Publish(topic, p.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return &PublishError{Topic: topic, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &PublishError{Topic: topic, Err: ctx.Err()}
	}
}

// Close disconnects from the broker, allowing in-flight work a short grace period.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
