package eventbus

import (
	"StickyBus/internal/core/domain"
	"StickyBus/internal/core/ports"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doorbell struct {
	Room string
}

// recorder collects every value a handler receives.
type recorder struct {
	mu  sync.Mutex
	got []any
}

func (r *recorder) handle(_ context.Context, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, event)
	return nil
}

func (r *recorder) values() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.got...)
}

func newTestBus() ports.EventBus {
	nopLogger := zerolog.Nop()
	return NewInMemoryEventBus(&nopLogger)
}

func TestInMemoryBus_PublishMatchesExactType(t *testing.T) {
	ctx := context.Background()
	bus := newTestBus()

	strings, bells := &recorder{}, &recorder{}
	bus.Subscribe(domain.NewHandle(), []ports.Subscription{
		{Type: domain.TypeOf[string](), Handler: strings.handle},
	})
	bus.Subscribe(domain.NewHandle(), []ports.Subscription{
		{Type: domain.TypeOf[doorbell](), Handler: bells.handle},
	})

	require.NoError(t, bus.Publish(ctx, "black pete"))
	require.NoError(t, bus.Publish(ctx, doorbell{Room: "hall"}))
	// Pointer type is a different event type.
	require.NoError(t, bus.Publish(ctx, &doorbell{Room: "attic"}))

	assert.Equal(t, []any{"black pete"}, strings.values())
	assert.Equal(t, []any{doorbell{Room: "hall"}}, bells.values())
}

func TestInMemoryBus_DeliveryOrder(t *testing.T) {
	ctx := context.Background()
	bus := newTestBus()

	var order []int
	for i := 1; i <= 3; i++ {
		n := i
		bus.Subscribe(domain.NewHandle(), []ports.Subscription{
			ports.On(func(_ context.Context, _ string) error {
				order = append(order, n)
				return nil
			}),
		})
	}

	require.NoError(t, bus.Publish(ctx, "oliebollen"))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestInMemoryBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := newTestBus()

	owner := domain.NewHandle()
	rec := &recorder{}
	bus.Subscribe(owner, []ports.Subscription{
		{Type: domain.TypeOf[string](), Handler: rec.handle},
		{Type: domain.TypeOf[doorbell](), Handler: rec.handle},
	})

	require.NoError(t, bus.Publish(ctx, "first"))
	bus.Unsubscribe(owner)
	require.NoError(t, bus.Publish(ctx, "second"))
	require.NoError(t, bus.Publish(ctx, doorbell{}))

	assert.Equal(t, []any{"first"}, rec.values())
}

func TestInMemoryBus_PublishTo(t *testing.T) {
	ctx := context.Background()
	bus := newTestBus()

	target, other := domain.NewHandle(), domain.NewHandle()
	targetRec, otherRec := &recorder{}, &recorder{}
	bus.Subscribe(target, []ports.Subscription{{Type: domain.TypeOf[string](), Handler: targetRec.handle}})
	bus.Subscribe(other, []ports.Subscription{{Type: domain.TypeOf[string](), Handler: otherRec.handle}})

	require.NoError(t, bus.PublishTo(ctx, target, "hoi"))

	assert.Equal(t, []any{"hoi"}, targetRec.values())
	assert.Empty(t, otherRec.values())
}

func TestInMemoryBus_NilEvent(t *testing.T) {
	bus := newTestBus()
	err := bus.Publish(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNilEvent)
}

func TestInMemoryBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	ctx := context.Background()
	bus := newTestBus()

	rec := &recorder{}
	bus.Subscribe(domain.NewHandle(), []ports.Subscription{
		ports.On(func(context.Context, string) error { panic("boom") }),
		ports.On(func(context.Context, string) error { return errors.New("nope") }),
		{Type: domain.TypeOf[string](), Handler: rec.handle},
	})

	require.NoError(t, bus.Publish(ctx, "pepernoten"))
	assert.Equal(t, []any{"pepernoten"}, rec.values())
}

func TestInMemoryBus_HandlerMayPublish(t *testing.T) {
	ctx := context.Background()
	bus := newTestBus()

	rec := &recorder{}
	bus.Subscribe(domain.NewHandle(), []ports.Subscription{
		ports.On(func(ctx context.Context, d doorbell) error {
			return bus.Publish(ctx, "ding "+d.Room)
		}),
		{Type: domain.TypeOf[string](), Handler: rec.handle},
	})

	require.NoError(t, bus.Publish(ctx, doorbell{Room: "hall"}))
	assert.Equal(t, []any{"ding hall"}, rec.values())
}

func TestInMemoryBus_IgnoresIncompleteSubscriptions(t *testing.T) {
	ctx := context.Background()
	bus := newTestBus()

	bus.Subscribe(domain.NewHandle(), []ports.Subscription{
		{Type: domain.TypeOf[string]()},
		{Handler: func(context.Context, any) error { return nil }},
	})

	assert.NoError(t, bus.Publish(ctx, "nobody listens"))
}
