package interfaces

import "context"

// EventPublisher emits domain events to the message bus. Publishing is best
// effort and must never influence the outcome of the operation that emitted
// the event.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, eventType string, subject string, payload interface{}) error
	Close() error
}
