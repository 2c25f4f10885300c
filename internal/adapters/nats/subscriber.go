package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/nats-io/nats.go"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribePositions(ctx context.Context, handler func(ctx context.Context, vp *domain.VehiclePosition) error) error {
	sub, err := s.js.Subscribe("fleet.position.>", func(msg *nats.Msg) {
		var vp domain.VehiclePosition
		if err := json.Unmarshal(msg.Data, &vp); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &vp); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("position-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeGeofenceAlerts(ctx context.Context, handler func(ctx context.Context, alert *domain.GeofenceAlert) error) error {
	sub, err := s.js.Subscribe("fleet.geofence.>", func(msg *nats.Msg) {
		var alert domain.GeofenceAlert
		if err := json.Unmarshal(msg.Data, &alert); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &alert); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("geofence-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains the connection.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
