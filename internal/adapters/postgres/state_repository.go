package postgres

import (
	"StickyBus/internal/core/ports"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type stateRepository struct {
	db     *DB
	secSvc ports.SecurityPort // Optional; encrypts payloads at rest
	log    zerolog.Logger
}

var _ ports.StateRepository = (*stateRepository)(nil) // Ensure compliance

// NewStateRepository creates a repository for state snapshots.
// secSvc may be nil, in which case payloads are stored as plain JSON.
func NewStateRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.StateRepository {
	return &stateRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "state_repo").Logger(),
	}
}

// Save upserts the snapshot, encrypting the payload when configured.
func (r *stateRepository) Save(ctx context.Context, snapshot ports.StateSnapshot) error {
	payload := snapshot.Payload
	if r.secSvc != nil {
		enc, err := r.secSvc.Encrypt(payload)
		if err != nil {
			r.log.Error().Err(err).Str("key", snapshot.Key).Msg("Failed to encrypt state payload")
			return err
		}
		payload = enc
	}

	query := `
		INSERT INTO sticky_state (state_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (state_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.pool.Exec(ctx, query, snapshot.Key, payload, snapshot.UpdatedAt)
	if err != nil {
		r.log.Error().Err(err).Str("key", snapshot.Key).Msg("Failed to upsert state")
		return fmt.Errorf("could not save state: %w", err)
	}
	return nil
}

// Get finds and decrypts the snapshot for key.
func (r *stateRepository) Get(ctx context.Context, key string) (*ports.StateSnapshot, error) {
	query := `SELECT state_key, payload, updated_at FROM sticky_state WHERE state_key = $1`

	var snap ports.StateSnapshot
	err := r.db.pool.QueryRow(ctx, query, key).Scan(&snap.Key, &snap.Payload, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Debug().Str("key", key).Msg("State not found")
			return nil, nil // Return nil, nil for "not found"
		}
		r.log.Error().Err(err).Str("key", key).Msg("Failed to query state")
		return nil, fmt.Errorf("could not get state: %w", err)
	}

	if r.secSvc != nil {
		dec, err := r.secSvc.Decrypt(snap.Payload)
		if err != nil {
			r.log.Error().Err(err).Str("key", key).Msg("Failed to decrypt state payload (tampered?)")
			return nil, err
		}
		snap.Payload = dec
	}
	return &snap, nil
}

// Delete removes the snapshot for key. Deleting a missing key is not an error.
func (r *stateRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM sticky_state WHERE state_key = $1`, key)
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("Failed to delete state")
		return fmt.Errorf("could not delete state: %w", err)
	}
	return nil
}
