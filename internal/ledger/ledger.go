// Package ledger implements the treasury ledger: pooled custody of each
// organization's funds and the batched settlement engine that pays them out.
//
// Every mutating operation runs under its treasury's lock, validates fully
// before moving any funds, and commits the new state together with its event
// through storage.Store in one transaction. If anything fails after funds
// have moved, the moves are reversed before the error is returned, so a
// failed call has no observable effect.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/treasury/internal/metrics"
	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/storage"
)

// Ledger manages any number of independent treasuries.
type Ledger struct {
	store   storage.Store
	assets  map[string]Asset
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// locks holds one *sync.Mutex per treasury ID.
	locks sync.Map
}

// Receipt is the result of a committed mutation: the event appended and the
// treasury balance immediately after it.
type Receipt struct {
	models.Event
	Balance *big.Int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithAsset registers the asset implementation for an asset reference.
func WithAsset(ref string, a Asset) Option {
	return func(l *Ledger) {
		l.assets[ref] = a
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a Ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		assets: make(map[string]Asset),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// lock serializes mutations of one treasury. Different treasuries never
// contend.
func (l *Ledger) lock(id string) func() {
	mu, _ := l.locks.LoadOrStore(id, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (l *Ledger) asset(ref string) (Asset, error) {
	a, ok := l.assets[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, ref)
	}
	return a, nil
}

func (l *Ledger) load(ctx context.Context, id string) (*models.Treasury, error) {
	t, err := l.store.GetTreasury(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load treasury %s: %w", id, err)
	}
	return t, nil
}

// Create opens a new treasury with balance zero, custodying asset, controlled
// by admin.
func (l *Ledger) Create(ctx context.Context, admin models.Address, assetRef string) (t *models.Treasury, err error) {
	defer func() { l.metrics.IncrementOperation("create", Kind(err)) }()

	if admin.IsZero() {
		return nil, fmt.Errorf("%w: admin", ErrZeroAddress)
	}
	if _, err := l.asset(assetRef); err != nil {
		return nil, err
	}

	id := uuid.New()
	now := l.now()
	t = &models.Treasury{
		ID:        id.String(),
		Account:   models.DeriveAddress(id[:]),
		Asset:     assetRef,
		Admin:     admin,
		Balance:   new(big.Int),
		Status:    models.TreasuryStatusActive,
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
	}

	genesis := models.Event{
		TreasuryID: t.ID,
		Kind:       models.EventCreated,
		At:         now,
		Data:       models.EventData{Admin: models.AddrPtr(admin), Asset: assetRef},
	}
	if err := genesis.Seal(0, models.GenesisHash); err != nil {
		return nil, err
	}
	t.Seq, t.Head = genesis.Seq, genesis.Hash

	if err := l.store.CreateTreasury(ctx, t, genesis); err != nil {
		return nil, fmt.Errorf("failed to create treasury: %w", err)
	}

	l.logger.Info("Treasury created",
		"treasury_id", t.ID,
		"account", t.Account.Hex(),
		"admin", admin.Hex(),
		"asset", assetRef,
	)
	return t.Clone(), nil
}

// Treasury returns a snapshot of the treasury. Reads require no authorization.
func (l *Ledger) Treasury(ctx context.Context, id string) (*models.Treasury, error) {
	return l.load(ctx, id)
}

// Balance returns the treasury's current balance.
func (l *Ledger) Balance(ctx context.Context, id string) (*big.Int, error) {
	t, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Balance, nil
}

// Admin returns the treasury's current admin.
func (l *Ledger) Admin(ctx context.Context, id string) (models.Address, error) {
	t, err := l.load(ctx, id)
	if err != nil {
		return models.ZeroAddress, err
	}
	return t.Admin, nil
}

// Treasuries lists every treasury.
func (l *Ledger) Treasuries(ctx context.Context) ([]*models.Treasury, error) {
	return l.store.ListTreasuries(ctx)
}

// Events pages through a treasury's event log.
func (l *Ledger) Events(ctx context.Context, id string, afterSeq uint64, limit int) ([]models.Event, error) {
	events, err := l.store.ListEvents(ctx, id, afterSeq, limit)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return events, err
}

func receipt(e models.Event, next *models.Treasury) Receipt {
	return Receipt{Event: e, Balance: models.CopyAmount(next.Balance)}
}

// commit seals e after prev, applies it to next, checks invariants, and
// persists both atomically.
func (l *Ledger) commit(ctx context.Context, prev, next *models.Treasury, e models.Event) (models.Event, error) {
	e.TreasuryID = prev.ID
	if err := e.Seal(prev.Seq, prev.Head); err != nil {
		return e, err
	}
	next.Seq, next.Head = e.Seq, e.Hash
	next.Touch(e.At)

	if err := checkInvariants(prev, next); err != nil {
		return e, err
	}

	if err := l.store.Commit(ctx, next, e); err != nil {
		if errors.Is(err, storage.ErrConflict) && e.Kind == models.EventSettled {
			if used, _ := l.store.HasRun(ctx, prev.ID, *e.Data.RunID); used {
				return e, fmt.Errorf("%w: %s", ErrDuplicateRun, e.Data.RunID)
			}
		}
		return e, fmt.Errorf("failed to commit %s: %w", e.Kind, err)
	}
	return e, nil
}

// checkInvariants holds after every mutation: the balance is never negative,
// the admin is never zero, and identity fields never change.
func checkInvariants(prev, next *models.Treasury) error {
	switch {
	case next.Balance == nil || next.Balance.Sign() < 0:
		return fmt.Errorf("%w: negative balance %s", ErrInvariant, models.FormatAmount(next.Balance))
	case next.Admin.IsZero():
		return fmt.Errorf("%w: zero admin", ErrInvariant)
	case next.ID != prev.ID || next.Account != prev.Account || next.Asset != prev.Asset:
		return fmt.Errorf("%w: identity changed", ErrInvariant)
	case next.Status != models.TreasuryStatusActive:
		return fmt.Errorf("%w: status %q", ErrInvariant, next.Status)
	}
	return nil
}
