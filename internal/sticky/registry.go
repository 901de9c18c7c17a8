package sticky

import (
	"StickyBus/internal/core/domain"
	"StickyBus/internal/core/ports"
	"reflect"
	"sort"
)

// Binding ties an event type to the participant currently providing its state.
type Binding struct {
	Type     domain.EventType
	Owner    domain.Handle
	Accessor ports.Accessor
}

// ProviderRegistry holds at most one Binding per event type plus the set of
// registered participants. It has no lock of its own: the owning Dispatcher
// serializes every call under its guard.
type ProviderRegistry struct {
	bindings     map[domain.EventType]Binding
	participants map[domain.Handle]any
	handles      map[any]domain.Handle
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		bindings:     make(map[domain.EventType]Binding),
		participants: make(map[domain.Handle]any),
		handles:      make(map[any]domain.Handle),
	}
}

// Bind installs a binding and returns the one it replaced, if any.
func (r *ProviderRegistry) Bind(typ domain.EventType, owner domain.Handle, accessor ports.Accessor) (Binding, bool) {
	prev, ok := r.bindings[typ]
	r.bindings[typ] = Binding{Type: typ, Owner: owner, Accessor: accessor}
	return prev, ok
}

// Lookup returns the current binding for typ.
func (r *ProviderRegistry) Lookup(typ domain.EventType) (Binding, bool) {
	b, ok := r.bindings[typ]
	return b, ok
}

// UnbindAllOwnedBy removes every binding owned by owner and returns the
// removed types sorted by name.
func (r *ProviderRegistry) UnbindAllOwnedBy(owner domain.Handle) []domain.EventType {
	var removed []domain.EventType
	for typ, b := range r.bindings {
		if b.Owner == owner {
			delete(r.bindings, typ)
			removed = append(removed, typ)
		}
	}
	sortTypes(removed)
	return removed
}

// Types lists the bound event types sorted by name.
func (r *ProviderRegistry) Types() []domain.EventType {
	types := make([]domain.EventType, 0, len(r.bindings))
	for typ := range r.bindings {
		types = append(types, typ)
	}
	sortTypes(types)
	return types
}

// Len returns the number of bindings.
func (r *ProviderRegistry) Len() int {
	return len(r.bindings)
}

// Track records a registered participant under its handle.
// The participant must be comparable (see Trackable).
func (r *ProviderRegistry) Track(h domain.Handle, participant any) {
	r.participants[h] = participant
	r.handles[participant] = h
}

// HandleOf returns the handle of a tracked participant.
func (r *ProviderRegistry) HandleOf(participant any) (domain.Handle, bool) {
	if !Trackable(participant) {
		return domain.Handle{}, false
	}
	h, ok := r.handles[participant]
	return h, ok
}

// Participant returns the participant registered under h.
func (r *ProviderRegistry) Participant(h domain.Handle) (any, bool) {
	p, ok := r.participants[h]
	return p, ok
}

// Untrack forgets the participant registered under h.
func (r *ProviderRegistry) Untrack(h domain.Handle) (any, bool) {
	p, ok := r.participants[h]
	if !ok {
		return nil, false
	}
	delete(r.participants, h)
	delete(r.handles, p)
	return p, true
}

// Registered returns the number of tracked participants.
func (r *ProviderRegistry) Registered() int {
	return len(r.participants)
}

// Trackable reports whether participant can be used as an identity key.
// Pointers compare by address; non-comparable dynamic types would panic as
// map keys and are refused.
func Trackable(participant any) bool {
	return participant != nil && reflect.ValueOf(participant).Comparable()
}

func sortTypes(types []domain.EventType) {
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
}
