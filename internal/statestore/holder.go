package statestore

import (
	"StickyBus/internal/core/domain"
	"StickyBus/internal/core/ports"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Holder remembers the last T seen on the bus and provides it as the current
// state of T. With a repository it also survives restarts: Load restores the
// stored value and every new value is saved.
type Holder[T any] struct {
	key  string
	repo ports.StateRepository
	log  zerolog.Logger

	mu    sync.RWMutex
	value T
	has   bool
}

var (
	_ ports.StateProvider = (*Holder[string])(nil)
	_ ports.Subscriber    = (*Holder[string])(nil)
)

// NewHolder creates a holder for T. key names the stored snapshot and
// defaults to the Go type name. repo may be nil.
func NewHolder[T any](key string, repo ports.StateRepository, baseLogger *zerolog.Logger) *Holder[T] {
	if key == "" {
		key = domain.TypeOf[T]().String()
	}
	return &Holder[T]{
		key:  key,
		repo: repo,
		log:  baseLogger.With().Str("component", "state_holder").Str("key", key).Logger(),
	}
}

// Key returns the snapshot key.
func (h *Holder[T]) Key() string {
	return h.key
}

// Load restores the last stored value. A missing snapshot is not an error.
func (h *Holder[T]) Load(ctx context.Context) error {
	if h.repo == nil {
		return nil
	}

	snap, err := h.repo.Get(ctx, h.key)
	if err != nil {
		return fmt.Errorf("could not load state %q: %w", h.key, err)
	}
	if snap == nil {
		h.log.Debug().Msg("No stored state")
		return nil
	}

	var v T
	if err := json.Unmarshal(snap.Payload, &v); err != nil {
		return fmt.Errorf("could not decode state %q: %w", h.key, err)
	}

	h.mu.Lock()
	h.value, h.has = v, true
	h.mu.Unlock()

	h.log.Info().Time("updated_at", snap.UpdatedAt).Msg("Restored stored state")
	return nil
}

// Current returns the held value and whether there is one.
func (h *Holder[T]) Current() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value, h.has
}

// Forget drops the held value and its stored snapshot.
func (h *Holder[T]) Forget(ctx context.Context) error {
	h.mu.Lock()
	var zero T
	h.value, h.has = zero, false
	h.mu.Unlock()

	if h.repo == nil {
		return nil
	}
	if err := h.repo.Delete(ctx, h.key); err != nil {
		return fmt.Errorf("could not delete state %q: %w", h.key, err)
	}
	return nil
}

// Provisions implements ports.StateProvider.
func (h *Holder[T]) Provisions() []ports.Provision {
	return []ports.Provision{ports.Provide(h.current)}
}

// Subscriptions implements ports.Subscriber.
func (h *Holder[T]) Subscriptions() []ports.Subscription {
	return []ports.Subscription{ports.On(h.receive)}
}

func (h *Holder[T]) current() (T, error) {
	v, ok := h.Current()
	if !ok {
		return v, domain.ErrNoState
	}
	return v, nil
}

func (h *Holder[T]) receive(ctx context.Context, v T) error {
	h.mu.Lock()
	unchanged := h.has && reflect.DeepEqual(h.value, v)
	h.value, h.has = v, true
	h.mu.Unlock()

	if unchanged || h.repo == nil {
		return nil
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not encode state %q: %w", h.key, err)
	}
	snap := ports.StateSnapshot{Key: h.key, Payload: payload, UpdatedAt: time.Now().UTC()}
	if err := h.repo.Save(ctx, snap); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist state")
		return fmt.Errorf("could not save state %q: %w", h.key, err)
	}
	return nil
}
