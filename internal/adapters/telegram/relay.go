package telegram

import (
	"StickyBus/internal/core/domain"
	"StickyBus/internal/core/ports"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Relay forwards state events to a Telegram chat. It is a bus participant:
// registered with a dispatcher it receives the current value of every watched
// type straight away, then each change as it is posted.
type Relay struct {
	client ports.BotClientPort
	chatID int64
	silent bool
	log    zerolog.Logger

	mu   sync.Mutex
	subs []ports.Subscription
}

var _ ports.Subscriber = (*Relay)(nil)

// NewRelay creates a relay that sends to chatID. Nothing is forwarded until
// types are added with Watch.
func NewRelay(client ports.BotClientPort, chatID int64, silent bool, baseLogger *zerolog.Logger) *Relay {
	return &Relay{
		client: client,
		chatID: chatID,
		silent: silent,
		log:    baseLogger.With().Str("component", "tg_relay").Int64("chat_id", chatID).Logger(),
	}
}

// Watch makes r forward values of type T, rendered by format. A nil format
// prints the value with %+v. Watch must be called before r is registered.
func Watch[T any](r *Relay, format func(T) string) {
	if format == nil {
		format = func(v T) string { return fmt.Sprintf("%+v", v) }
	}
	title := domain.TypeOf[T]().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, ports.On(func(ctx context.Context, v T) error {
		return r.forward(ctx, title, format(v))
	}))
	r.log.Debug().Str("event_type", title).Msg("Watching event type")
}

// Subscriptions implements ports.Subscriber.
func (r *Relay) Subscriptions() []ports.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}

func (r *Relay) forward(ctx context.Context, title, body string) error {
	params := NewBuilder(r.chatID).WithMarkdown(title, body).Silent(r.silent).Build()
	if err := r.client.SendMessage(ctx, params); err != nil {
		r.log.Warn().Err(err).Str("event_type", title).Msg("Failed to relay state")
		return err
	}
	r.log.Debug().Str("event_type", title).Msg("State relayed")
	return nil
}
