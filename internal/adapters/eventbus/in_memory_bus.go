package eventbus

import (
	"StickyBus/internal/core/domain"
	"StickyBus/internal/core/ports"
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// subscriber is one handler registered by one owner.
type subscriber struct {
	owner   domain.Handle
	handler ports.EventHandler
}

// inMemoryEventBus implements the ports.EventBus interface
type inMemoryEventBus struct {
	log         zerolog.Logger
	subscribers map[domain.EventType][]subscriber
	mu          sync.RWMutex
}

var _ ports.EventBus = (*inMemoryEventBus)(nil)

// NewInMemoryEventBus creates a new, empty event bus
func NewInMemoryEventBus(baseLogger *zerolog.Logger) ports.EventBus {
	return &inMemoryEventBus{
		log:         baseLogger.With().Str("component", "in_memory_bus").Logger(),
		subscribers: make(map[domain.EventType][]subscriber),
	}
}

// Subscribe registers the owner's handlers, keeping registration order.
func (b *inMemoryEventBus) Subscribe(owner domain.Handle, subs []ports.Subscription) {
	if len(subs) == 0 {
		return
	}

	b.mu.Lock() // Lock for writing to the map
	defer b.mu.Unlock()

	for _, sub := range subs {
		if sub.Type.IsZero() || sub.Handler == nil {
			b.log.Warn().Str("owner", owner.String()).Msg("Ignoring incomplete subscription")
			continue
		}
		b.subscribers[sub.Type] = append(b.subscribers[sub.Type], subscriber{owner: owner, handler: sub.Handler})
		b.log.Debug().Str("type", sub.Type.String()).Str("owner", owner.String()).Msg("New handler subscribed to type")
	}
}

// Unsubscribe removes every handler of the owner.
func (b *inMemoryEventBus) Unsubscribe(owner domain.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for typ, subs := range b.subscribers {
		kept := subs[:0:0]
		for _, s := range subs {
			if s.owner != owner {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(b.subscribers, typ)
		} else {
			b.subscribers[typ] = kept
		}
	}
}

// Publish sends an event to all subscribers of its type
func (b *inMemoryEventBus) Publish(ctx context.Context, event any) error {
	return b.dispatch(ctx, event, nil)
}

// PublishTo sends an event to the owner's subscribers of its type only
func (b *inMemoryEventBus) PublishTo(ctx context.Context, owner domain.Handle, event any) error {
	return b.dispatch(ctx, event, &owner)
}

func (b *inMemoryEventBus) dispatch(ctx context.Context, event any, only *domain.Handle) error {
	if event == nil {
		return domain.ErrNilEvent
	}
	typ := domain.TypeOfValue(event)

	// Snapshot under the read lock; handlers run outside it so they may
	// subscribe or publish themselves.
	b.mu.RLock()
	subs := make([]subscriber, 0, len(b.subscribers[typ]))
	for _, s := range b.subscribers[typ] {
		if only == nil || s.owner == *only {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	if len(subs) == 0 {
		// No subscribers for this type, which is fine
		b.log.Debug().Str("type", typ.String()).Msg("Published event with no subscribers")
		return nil
	}

	for _, s := range subs {
		if err := b.safeCall(ctx, s.handler, event); err != nil {
			b.log.Error().Err(err).Str("type", typ.String()).Str("owner", s.owner.String()).Msg("Event handler failed")
		}
	}

	b.log.Trace().Str("type", typ.String()).Int("handlers", len(subs)).Msg("Event published")
	return nil
}

// safeCall invokes a handler and turns a panic into an error so one
// misbehaving handler cannot stop delivery to the others.
func (b *inMemoryEventBus) safeCall(ctx context.Context, h ports.EventHandler, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v\n%s", domain.ErrHandlerFailed, r, debug.Stack())
		}
	}()
	if err := h(ctx, event); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrHandlerFailed, err)
	}
	return nil
}
