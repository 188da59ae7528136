// Package memory provides an in-process implementation of storage.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps treasuries and their event logs in memory. Everything handed in
// or out is deep-copied so callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	treasuries map[string]*models.Treasury
	events     map[string][]models.Event
	runs       map[string]map[models.RunID]struct{}
}

func New() *Store {
	return &Store{
		treasuries: make(map[string]*models.Treasury),
		events:     make(map[string][]models.Event),
		runs:       make(map[string]map[models.RunID]struct{}),
	}
}

func (s *Store) CreateTreasury(_ context.Context, t *models.Treasury, genesis models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.treasuries[t.ID]; exists {
		return fmt.Errorf("treasury %s: %w", t.ID, storage.ErrConflict)
	}
	if err := storage.CheckChain(0, t, []models.Event{genesis}); err != nil {
		return fmt.Errorf("failed to create treasury: %w", err)
	}

	s.treasuries[t.ID] = t.Clone()
	s.events[t.ID] = []models.Event{copyEvent(genesis)}
	s.runs[t.ID] = make(map[models.RunID]struct{})
	return nil
}

func (s *Store) GetTreasury(_ context.Context, id string) (*models.Treasury, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.treasuries[id]
	if !ok {
		return nil, fmt.Errorf("treasury %s: %w", id, storage.ErrNotFound)
	}
	return t.Clone(), nil
}

func (s *Store) ListTreasuries(_ context.Context) ([]*models.Treasury, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Treasury, 0, len(s.treasuries))
	for _, t := range s.treasuries {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Commit(_ context.Context, t *models.Treasury, events ...models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.treasuries[t.ID]
	if !ok {
		return fmt.Errorf("treasury %s: %w", t.ID, storage.ErrNotFound)
	}
	if err := storage.CheckChain(stored.Seq, t, events); err != nil {
		return fmt.Errorf("failed to commit treasury %s: %w", t.ID, err)
	}

	// Validate run IDs before touching anything.
	seen := make(map[models.RunID]struct{})
	for _, e := range events {
		if e.Kind != models.EventSettled || e.Data.RunID == nil {
			continue
		}
		if _, dup := s.runs[t.ID][*e.Data.RunID]; dup {
			return fmt.Errorf("run %s: %w", e.Data.RunID, storage.ErrConflict)
		}
		if _, dup := seen[*e.Data.RunID]; dup {
			return fmt.Errorf("run %s: %w", e.Data.RunID, storage.ErrConflict)
		}
		seen[*e.Data.RunID] = struct{}{}
	}

	for runID := range seen {
		s.runs[t.ID][runID] = struct{}{}
	}
	for _, e := range events {
		s.events[t.ID] = append(s.events[t.ID], copyEvent(e))
	}
	s.treasuries[t.ID] = t.Clone()
	return nil
}

func (s *Store) HasRun(_ context.Context, treasuryID string, runID models.RunID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.runs[treasuryID][runID]
	return ok, nil
}

func (s *Store) ListEvents(_ context.Context, treasuryID string, afterSeq uint64, limit int) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.treasuries[treasuryID]; !ok {
		return nil, fmt.Errorf("treasury %s: %w", treasuryID, storage.ErrNotFound)
	}

	log := s.events[treasuryID]
	if afterSeq >= uint64(len(log)) {
		return []models.Event{}, nil
	}
	log = log[afterSeq:]
	if limit > 0 && len(log) > limit {
		log = log[:limit]
	}

	out := make([]models.Event, len(log))
	for i, e := range log {
		out[i] = copyEvent(e)
	}
	return out, nil
}

func (s *Store) Close() error {
	return nil
}

func copyEvent(e models.Event) models.Event {
	c := e
	if e.Data.Amount != nil {
		c.Data.Amount = models.CopyAmount(e.Data.Amount)
	}
	copyAddr := func(a *models.Address) *models.Address {
		if a == nil {
			return nil
		}
		v := *a
		return &v
	}
	c.Data.Admin = copyAddr(e.Data.Admin)
	c.Data.Depositor = copyAddr(e.Data.Depositor)
	c.Data.Recipient = copyAddr(e.Data.Recipient)
	c.Data.Previous = copyAddr(e.Data.Previous)
	c.Data.Next = copyAddr(e.Data.Next)
	if e.Data.RunID != nil {
		r := *e.Data.RunID
		c.Data.RunID = &r
	}
	return c
}
