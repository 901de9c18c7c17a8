package domain

import "reflect"

// EventType identifies a class of events by Go type identity.
// It is comparable and safe to use as a map key.
type EventType struct {
	t reflect.Type
}

// TypeOf returns the EventType for T.
func TypeOf[T any]() EventType {
	return EventType{t: reflect.TypeFor[T]()}
}

// TypeOfValue returns the EventType of v's dynamic type.
// A nil interface yields the zero EventType.
func TypeOfValue(v any) EventType {
	return EventType{t: reflect.TypeOf(v)}
}

// IsZero reports whether the type is unset.
func (e EventType) IsZero() bool {
	return e.t == nil
}

// String returns the Go type name, e.g. "string" or "*sensors.Reading".
func (e EventType) String() string {
	if e.t == nil {
		return "<nil>"
	}
	return e.t.String()
}
