package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/nats-io/nats.go"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "FLEET_POSITIONS",
			Subjects:  []string{"fleet.position.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "FLEET_GEOFENCE",
			Subjects:  []string{"fleet.geofence.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishPosition(ctx context.Context, vp *domain.VehiclePosition) error {
	data, err := json.Marshal(vp)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("fleet.position."+vp.VehicleID, data)
	return err
}

func (p *Publisher) PublishGeofenceAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("fleet.geofence."+string(alert.Event), data)
	return err
}

func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish("fleet.updates.broadcast", data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
