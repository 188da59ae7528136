// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/treasury/internal/models"
)

// Sentinel errors for storage facts. Implementations return these (optionally
// wrapped) so the ledger can translate them into domain errors.
var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means a write raced another writer or violated a uniqueness
	// constraint (event sequence or settlement run ID).
	ErrConflict = errors.New("conflict")
)

// Store defines the interface for treasury storage operations.
// This abstraction allows swapping storage backends (SQLite, in-memory, etc.)
// without changing the ledger.
type Store interface {
	// CreateTreasury persists a new treasury together with its genesis event.
	// Returns ErrConflict if the ID is already taken.
	CreateTreasury(ctx context.Context, t *models.Treasury, genesis models.Event) error

	// GetTreasury retrieves a treasury by its ID.
	// Returns ErrNotFound if the treasury does not exist.
	GetTreasury(ctx context.Context, id string) (*models.Treasury, error)

	// ListTreasuries returns every treasury ordered by creation time.
	ListTreasuries(ctx context.Context) ([]*models.Treasury, error)

	// Commit atomically saves the new state of t and appends events.
	// events must continue the stored chain: the first event's Seq must be
	// the stored Seq + 1, and t.Seq must equal the last event's Seq.
	// Settled events also record their run ID; a repeated run ID for the same
	// treasury fails with ErrConflict. Nothing is written on error.
	Commit(ctx context.Context, t *models.Treasury, events ...models.Event) error

	// HasRun reports whether a settlement with runID was committed for the treasury.
	HasRun(ctx context.Context, treasuryID string, runID models.RunID) (bool, error)

	// ListEvents returns up to limit events with Seq > afterSeq, in order.
	// A limit <= 0 returns all remaining events.
	ListEvents(ctx context.Context, treasuryID string, afterSeq uint64, limit int) ([]models.Event, error)

	// Close releases any resources held by the store.
	Close() error
}

// CheckChain validates that events continue a chain currently at storedSeq
// and that t reflects the last of them. Shared by implementations.
func CheckChain(storedSeq uint64, t *models.Treasury, events []models.Event) error {
	if len(events) == 0 {
		return errors.New("commit without events")
	}
	for i, e := range events {
		if e.TreasuryID != t.ID {
			return errors.New("event belongs to another treasury")
		}
		if e.Seq != storedSeq+uint64(i)+1 {
			return ErrConflict
		}
	}
	if last := events[len(events)-1]; t.Seq != last.Seq || t.Head != last.Hash {
		return errors.New("treasury head does not match last event")
	}
	return nil
}
