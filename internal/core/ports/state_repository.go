package ports

import (
	"context"
	"time"
)

// StateSnapshot is the last known value stored under a key.
// There is one snapshot per key; saving overwrites it.
type StateSnapshot struct {
	Key       string
	Payload   []byte // JSON
	UpdatedAt time.Time
}

// StateRepository persists the latest value of sticky state holders.
type StateRepository interface {
	// Save upserts the snapshot for its key.
	Save(ctx context.Context, snapshot StateSnapshot) error

	// Get returns the snapshot for key, or nil if none is stored.
	Get(ctx context.Context, key string) (*StateSnapshot, error)

	Delete(ctx context.Context, key string) error
}
