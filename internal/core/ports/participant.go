package ports

import "StickyBus/internal/core/domain"

// Subscriber is implemented by participants that want events delivered.
type Subscriber interface {
	// Subscriptions lists the handlers in the order catch-up should run.
	Subscriptions() []Subscription
}

// Accessor returns the current value of a sticky event type.
// It returns domain.ErrNoState when there is no value yet.
type Accessor func() (any, error)

// Provision declares that a participant supplies the current state of one type.
type Provision struct {
	Type     domain.EventType
	Accessor Accessor
}

// Provide builds a Provision for T from a typed getter.
func Provide[T any](get func() (T, error)) Provision {
	return Provision{
		Type: domain.TypeOf[T](),
		Accessor: func() (any, error) {
			v, err := get()
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// StateProvider is implemented by participants that are the authoritative
// source of current state for one or more event types.
type StateProvider interface {
	Provisions() []Provision
}
