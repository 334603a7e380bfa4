package kafka

import (
	"context"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/interfaces"
)

// NopPublisher discards all events. Used when Kafka is disabled.
type NopPublisher struct{}

var _ interfaces.EventPublisher = (*NopPublisher)(nil)

func (NopPublisher) Publish(ctx context.Context, topic string, eventType string, subject string, payload interface{}) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
