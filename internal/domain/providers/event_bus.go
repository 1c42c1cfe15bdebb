package providers

import (
	"context"

	"github.com/mydscvr/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to event store changes
type EventBus interface {
	// Publish publishes a change to all subscribers
	Publish(ctx context.Context, channel string, change *entities.EventChange) error

	// Subscribe subscribes to changes on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.EventChange, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelUpdates carries every change made by ingestion
const EventChannelUpdates = "events:updates"
