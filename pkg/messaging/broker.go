package messaging

import (
	"context"
)

// Broker defines the interface for message brokers. Lifecycle events
// (treatment created/cancelled, dose administered/notified) are published
// best-effort; a publish failure never blocks a state transition.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// NoopBroker satisfies Broker when no redis URL is configured.
type NoopBroker struct{}

func NewNoopBroker() *NoopBroker { return &NoopBroker{} }

func (*NoopBroker) Publish(context.Context, string, interface{}) error { return nil }

func (*NoopBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (*NoopBroker) Close() error { return nil }
