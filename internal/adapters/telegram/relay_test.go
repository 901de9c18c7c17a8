package telegram

import (
	"StickyBus/internal/adapters/eventbus"
	"StickyBus/internal/core/ports"
	"StickyBus/internal/sticky"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockBotClient struct {
	mock.Mock
}

var _ ports.BotClientPort = (*MockBotClient)(nil)

func (m *MockBotClient) SendMessage(ctx context.Context, params ports.SendMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// --- Fixtures ---

type alarmState struct {
	Armed bool
}

type thermostat struct {
	celsius float64
}

type thermostatReading float64

func (t *thermostat) Provisions() []ports.Provision {
	return []ports.Provision{ports.Provide(func() (thermostatReading, error) { return thermostatReading(t.celsius), nil })}
}

func newTestDispatcher() *sticky.Dispatcher {
	nopLogger := zerolog.Nop()
	return sticky.NewDispatcher("home", eventbus.NewInMemoryEventBus(&nopLogger), sticky.Options{}, &nopLogger)
}

// --- Tests ---

func TestRelay_ForwardsCurrentStateOnRegister(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	d := newTestDispatcher()
	d.Register(ctx, &thermostat{celsius: 19.5})

	client := new(MockBotClient)
	want := NewBuilder(42).WithMarkdown("telegram.thermostatReading", "19.5 °C").Build()
	client.On("SendMessage", mock.Anything, want).Return(nil).Once()

	relay := NewRelay(client, 42, false, &nopLogger)
	Watch(relay, func(r thermostatReading) string { return fmt.Sprintf("%.1f °C", float64(r)) })
	d.Register(ctx, relay)

	client.AssertExpectations(t)
}

func TestRelay_ForwardsPostedEvents(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	d := newTestDispatcher()

	client := new(MockBotClient)
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return p.ChatID == 7 && p.DisableNotification && p.ParseMode == "MarkdownV2"
	})).Return(nil).Twice()

	relay := NewRelay(client, 7, true, &nopLogger)
	Watch[alarmState](relay, nil)
	d.Register(ctx, relay)

	require.NoError(t, d.Post(ctx, alarmState{Armed: true}))
	require.NoError(t, d.Post(ctx, alarmState{Armed: false}))
	require.NoError(t, d.Post(ctx, "not watched"))

	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "SendMessage", 2)
}

func TestRelay_SendFailureDoesNotStopDelivery(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	d := newTestDispatcher()

	client := new(MockBotClient)
	client.On("SendMessage", mock.Anything, mock.Anything).Return(errors.New("telegram down")).Once()

	relay := NewRelay(client, 7, false, &nopLogger)
	Watch[alarmState](relay, nil)
	d.Register(ctx, relay)

	var seen []alarmState
	other := subscriberFunc(func(_ context.Context, s alarmState) error {
		seen = append(seen, s)
		return nil
	})
	d.Register(ctx, &other)

	require.NoError(t, d.Post(ctx, alarmState{Armed: true}))
	assert.Equal(t, []alarmState{{Armed: true}}, seen)
	client.AssertExpectations(t)
}

func TestRelay_SubscriptionsIsACopy(t *testing.T) {
	nopLogger := zerolog.Nop()
	relay := NewRelay(new(MockBotClient), 1, false, &nopLogger)
	Watch[alarmState](relay, nil)

	subs := relay.Subscriptions()
	require.Len(t, subs, 1)
	subs[0] = ports.Subscription{}
	assert.False(t, relay.Subscriptions()[0].Type.IsZero())
}

type subscriberFunc func(context.Context, alarmState) error

func (f *subscriberFunc) Subscriptions() []ports.Subscription {
	return []ports.Subscription{ports.On(func(ctx context.Context, s alarmState) error { return (*f)(ctx, s) })}
}
