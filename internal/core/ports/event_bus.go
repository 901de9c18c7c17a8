package ports

import (
	"StickyBus/internal/core/domain"
	"context"
)

// EventHandler is a function that handles one event value.
type EventHandler func(ctx context.Context, event any) error

// Subscription binds a handler to exactly one event type.
type Subscription struct {
	Type    domain.EventType
	Handler EventHandler
}

// On builds a Subscription for events of type T.
func On[T any](handler func(ctx context.Context, event T) error) Subscription {
	return Subscription{
		Type: domain.TypeOf[T](),
		Handler: func(ctx context.Context, event any) error {
			return handler(ctx, event.(T))
		},
	}
}

// EventBus defines the interface for our in-process pub/sub system.
// Delivery is synchronous and matches the event's dynamic type exactly.
type EventBus interface {
	// Subscribe registers the owner's subscriptions.
	Subscribe(owner domain.Handle, subs []Subscription)

	// Unsubscribe drops every subscription of the owner.
	Unsubscribe(owner domain.Handle)

	// Publish sends an event to all subscribers of its type.
	Publish(ctx context.Context, event any) error

	// PublishTo sends an event only to the owner's handlers for its type.
	PublishTo(ctx context.Context, owner domain.Handle, event any) error
}
