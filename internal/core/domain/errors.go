package domain

import "errors"

var (
	// ErrNoState is returned by a state accessor that currently has no value.
	// Nothing is published for it.
	ErrNoState = errors.New("no current state")

	// ErrDuplicateProvider marks a second provider registering for a type that
	// is already bound. It is logged, never returned to callers.
	ErrDuplicateProvider = errors.New("duplicate current state provider")

	// ErrAccessorFailed wraps an error or panic raised by a state accessor.
	ErrAccessorFailed = errors.New("current state accessor failed")

	// ErrHandlerFailed wraps an error or panic raised by an event handler.
	ErrHandlerFailed = errors.New("event handler failed")

	// ErrNilEvent is returned when publishing a nil event.
	ErrNilEvent = errors.New("cannot publish nil event")

	// ErrNotComparable is logged when a participant cannot be tracked by identity.
	ErrNotComparable = errors.New("participant type is not comparable")
)
