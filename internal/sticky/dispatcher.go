package sticky

import (
	"StickyBus/internal/core/domain"
	"StickyBus/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// Dispatcher is an event bus front that replays current state on registration.
//
// For every event type at most one registered participant provides the
// current value (see ports.StateProvider). When a participant registers it
// receives the current value of every type it subscribes to, and every type it
// provides is announced to all existing subscribers.
//
// Handlers running synchronously inside Register must not call Register or
// Unregister on the same Dispatcher; they may call Post.
type Dispatcher struct {
	name string
	bus  ports.EventBus
	opts Options
	log  zerolog.Logger

	// mu covers the whole register/unregister sequence, not only the map
	// updates, so catch-up delivery never interleaves with binding changes.
	mu       sync.Mutex
	registry *ProviderRegistry
}

// NewDispatcher wraps bus with sticky state handling.
func NewDispatcher(name string, bus ports.EventBus, opts Options, baseLogger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		name:     name,
		bus:      bus,
		opts:     opts.withDefaults(),
		log:      baseLogger.With().Str("component", "sticky_dispatcher").Str("bus", name).Logger(),
		registry: NewProviderRegistry(),
	}
}

// Name returns the name the dispatcher was created with.
func (d *Dispatcher) Name() string {
	return d.name
}

// Register subscribes participant to the bus and performs catch-up delivery
// in both directions. It returns the participant's handle, or the zero handle
// when participant is nil or cannot be tracked. Registering a participant that
// is already registered returns its existing handle and does nothing else.
// Failures inside providers are logged and never abort registration.
func (d *Dispatcher) Register(ctx context.Context, participant any) domain.Handle {
	if isNil(participant) {
		return domain.Handle{}
	}
	log := d.log.With().Str("participant", fmt.Sprintf("%T", participant)).Logger()

	if !Trackable(participant) {
		log.Warn().Err(domain.ErrNotComparable).Msg("Refusing to register participant")
		return domain.Handle{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if h, ok := d.registry.HandleOf(participant); ok {
		log.Warn().Str("handle", h.String()).Msg("Participant already registered, ignoring")
		return h
	}

	h := domain.NewHandle()
	log = log.With().Str("handle", h.String()).Logger()
	log.Trace().Msg("Registering participant")

	subs, provs := d.discover(participant, &log)

	// Subscribing inside the guard means a concurrent provider either
	// announces to us or is caught up by us, never both.
	d.bus.Subscribe(h, subs)

	provided := d.bindProvisions(h, provs, &log)
	d.catchUpNewcomer(ctx, h, subs, provided, &log)
	d.announce(ctx, provided, &log)

	d.registry.Track(h, participant)
	d.opts.Metrics.ParticipantRegistered(d.name)
	d.opts.Metrics.BindingsChanged(d.name, d.registry.Len())

	log.Debug().
		Int("subscriptions", len(subs)).
		Int("provisions", len(provided)).
		Msg("Participant registered")
	return h
}

// Unregister removes participant and every provider binding it owns.
// Subscribers are not notified; they simply stop getting catch-up for those
// types until another provider registers.
func (d *Dispatcher) Unregister(ctx context.Context, participant any) {
	if isNil(participant) {
		return
	}

	d.mu.Lock()
	h, ok := d.registry.HandleOf(participant)
	if ok {
		d.unregisterLocked(h)
	}
	d.mu.Unlock()

	if !ok {
		d.log.Debug().Str("participant", fmt.Sprintf("%T", participant)).Msg("Unregister of unknown participant ignored")
		return
	}
	d.bus.Unsubscribe(h)
}

// UnregisterHandle is Unregister by handle.
func (d *Dispatcher) UnregisterHandle(ctx context.Context, h domain.Handle) {
	if h.IsZero() {
		return
	}

	d.mu.Lock()
	_, ok := d.registry.Participant(h)
	if ok {
		d.unregisterLocked(h)
	}
	d.mu.Unlock()

	if ok {
		d.bus.Unsubscribe(h)
	}
}

func (d *Dispatcher) unregisterLocked(h domain.Handle) {
	d.registry.Untrack(h)
	removed := d.registry.UnbindAllOwnedBy(h)

	d.opts.Metrics.ParticipantUnregistered(d.name)
	d.opts.Metrics.BindingsChanged(d.name, d.registry.Len())

	unbound := make([]string, 0, len(removed))
	for _, typ := range removed {
		unbound = append(unbound, typ.String())
	}
	d.log.Debug().Str("handle", h.String()).Strs("unbound", unbound).Msg("Participant unregistered")
}

// Post publishes event to every subscriber of its type.
func (d *Dispatcher) Post(ctx context.Context, event any) error {
	if event == nil {
		return domain.ErrNilEvent
	}
	typ := domain.TypeOfValue(event)
	d.log.Trace().Str("type", typ.String()).Interface("event", event).Msg("Post")

	if err := d.bus.Publish(ctx, event); err != nil {
		return err
	}
	d.opts.Metrics.EventPublished(d.name, typ)
	return nil
}

// Providers lists the event types that currently have a provider.
func (d *Dispatcher) Providers() []domain.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Types()
}

// ProviderOf returns the handle of the participant providing typ.
func (d *Dispatcher) ProviderOf(typ domain.EventType) (domain.Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.registry.Lookup(typ)
	return b.Owner, ok
}

// Registered returns the number of registered participants.
func (d *Dispatcher) Registered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Registered()
}

// discover reads the participant's declared capabilities.
func (d *Dispatcher) discover(participant any, log *zerolog.Logger) (subs []ports.Subscription, provs []ports.Provision) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Capability discovery panicked, registering without capabilities")
			subs, provs = nil, nil
		}
	}()

	if s, ok := participant.(ports.Subscriber); ok {
		subs = s.Subscriptions()
	}
	if p, ok := participant.(ports.StateProvider); ok {
		provs = p.Provisions()
	}
	return subs, provs
}

// bindProvisions installs bindings for the newcomer and returns the
// provisions that are now bound to it, in declaration order.
func (d *Dispatcher) bindProvisions(h domain.Handle, provs []ports.Provision, log *zerolog.Logger) []ports.Provision {
	var bound []ports.Provision
	seen := make(map[domain.EventType]bool, len(provs))

	for _, p := range provs {
		if p.Type.IsZero() || p.Accessor == nil {
			log.Warn().Msg("Ignoring incomplete provision")
			continue
		}
		if seen[p.Type] {
			log.Warn().Str("type", p.Type.String()).Msg("Participant declares the same provision twice, keeping the first")
			continue
		}
		seen[p.Type] = true

		if prev, ok := d.registry.Lookup(p.Type); ok && d.opts.Duplicates == PolicyReject {
			log.Warn().
				Err(domain.ErrDuplicateProvider).
				Str("type", p.Type.String()).
				Str("current_owner", prev.Owner.String()).
				Msg("Only one current state provider per type can be registered, keeping the existing one")
			d.opts.Metrics.ProviderRejected(d.name, p.Type)
			continue
		}

		if prev, replaced := d.registry.Bind(p.Type, h, p.Accessor); replaced {
			log.Warn().
				Err(domain.ErrDuplicateProvider).
				Str("type", p.Type.String()).
				Str("previous_owner", prev.Owner.String()).
				Msg("Only one current state provider per type can be registered, replacing the previous one")
			d.opts.Metrics.ProviderReplaced(d.name, p.Type)
		}
		log.Debug().Str("type", p.Type.String()).Msg("Participant provides current state")
		bound = append(bound, p)
	}
	return bound
}

// catchUpNewcomer delivers the current value of every subscribed type that
// some other participant provides, to the newcomer only.
func (d *Dispatcher) catchUpNewcomer(ctx context.Context, h domain.Handle, subs []ports.Subscription, provided []ports.Provision, log *zerolog.Logger) {
	own := make(map[domain.EventType]bool, len(provided))
	for _, p := range provided {
		own[p.Type] = true
	}

	done := make(map[domain.EventType]bool, len(subs))
	for _, sub := range subs {
		if sub.Type.IsZero() || done[sub.Type] {
			continue
		}
		done[sub.Type] = true

		// announce covers types the newcomer provides itself
		if own[sub.Type] {
			continue
		}
		b, ok := d.registry.Lookup(sub.Type)
		if !ok {
			continue
		}

		value, ok := d.invoke(b.Type, b.Accessor, log)
		if !ok {
			continue
		}
		if err := d.bus.PublishTo(ctx, h, value); err != nil {
			log.Warn().Err(err).Str("type", b.Type.String()).Msg("Could not deliver current state to newly registered participant, ignoring")
			continue
		}
		d.opts.Metrics.CatchUpDelivered(d.name, b.Type, ports.DirectionToNewcomer)
	}
}

// announce publishes the newcomer's own current values to every subscriber.
func (d *Dispatcher) announce(ctx context.Context, provided []ports.Provision, log *zerolog.Logger) {
	for _, p := range provided {
		value, ok := d.invoke(p.Type, p.Accessor, log)
		if !ok {
			continue
		}
		if err := d.bus.Publish(ctx, value); err != nil {
			log.Warn().Err(err).Str("type", p.Type.String()).Msg("Could not provide current state from newly registered participant, ignoring")
			continue
		}
		d.opts.Metrics.CatchUpDelivered(d.name, p.Type, ports.DirectionAnnounce)
	}
}

// invoke calls an accessor. ok is false when there is nothing to publish,
// either because there is no state or because the accessor failed.
func (d *Dispatcher) invoke(typ domain.EventType, accessor ports.Accessor, log *zerolog.Logger) (value any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", domain.ErrAccessorFailed, r)
			log.Warn().Err(err).Str("type", typ.String()).Msg("Current state accessor panicked, ignoring")
			d.opts.Metrics.AccessorFailed(d.name, typ)
			value, ok = nil, false
		}
	}()

	value, err := accessor()
	switch {
	case errors.Is(err, domain.ErrNoState):
		log.Debug().Str("type", typ.String()).Msg("No current state available")
		return nil, false
	case err != nil:
		log.Warn().Err(fmt.Errorf("%w: %w", domain.ErrAccessorFailed, err)).Str("type", typ.String()).Msg("Could not get current state, ignoring")
		d.opts.Metrics.AccessorFailed(d.name, typ)
		return nil, false
	case isNil(value):
		log.Debug().Str("type", typ.String()).Msg("Current state accessor returned nil")
		return nil, false
	}

	if got := domain.TypeOfValue(value); got != typ {
		log.Warn().
			Err(domain.ErrAccessorFailed).
			Str("type", typ.String()).
			Str("returned", got.String()).
			Msg("Current state accessor returned a value of another type, ignoring")
		d.opts.Metrics.AccessorFailed(d.name, typ)
		return nil, false
	}
	return value, true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
