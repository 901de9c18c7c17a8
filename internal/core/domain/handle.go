package domain

import "github.com/google/uuid"

// Handle is the opaque identity a dispatcher assigns to a participant when it
// registers. Ownership of provider bindings is always tracked by Handle.
type Handle uuid.UUID

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

// IsZero reports whether h is the zero handle (returned for no-op registrations).
func (h Handle) IsZero() bool {
	return uuid.UUID(h) == uuid.Nil
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}
