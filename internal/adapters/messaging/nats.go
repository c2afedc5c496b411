package messaging

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// Publisher emits domain events as JSON messages on NATS subjects.
type Publisher struct{ nc *nats.Conn }

func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("stayhub"))
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

func (p *Publisher) Publish(_ context.Context, subject string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.nc.Publish(subject, b)
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}

// Nop replaces the publisher when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
