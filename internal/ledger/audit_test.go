package ledger_test

import (
	"context"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/treasury/internal/asset"
	"github.com/mmynk/treasury/internal/ledger"
	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/storage"
	"github.com/mmynk/treasury/internal/storage/memory"
)

// tamperingStore rewrites events on the way out, as if the log had been
// edited underneath the ledger.
type tamperingStore struct {
	storage.Store
	tamper func(*models.Event)
}

func (s *tamperingStore) ListEvents(ctx context.Context, id string, after uint64, limit int) ([]models.Event, error) {
	events, err := s.Store.ListEvents(ctx, id, after, limit)
	if err != nil || s.tamper == nil {
		return events, err
	}
	for i := range events {
		s.tamper(&events[i])
	}
	return events, nil
}

func TestAudit(t *testing.T) {
	ctx := context.Background()
	book := asset.NewBook("USDC")
	store := &tamperingStore{Store: memory.New()}
	l := ledger.New(store,
		ledger.WithAsset("USDC", book),
		ledger.WithLogger(slog.New(slog.DiscardHandler)),
	)

	tr, err := l.Create(ctx, admin, "USDC")
	require.NoError(t, err)
	book.Mint(funder, big.NewInt(900))
	book.Approve(funder, tr.Account, big.NewInt(900))
	_, err = l.Deposit(ctx, tr.ID, funder, big.NewInt(900))
	require.NoError(t, err)
	_, err = l.Settle(ctx, tr.ID, admin, models.Batch{
		RunID:   runID(1),
		Payouts: []models.Payout{{Recipient: alice, Amount: big.NewInt(500)}},
	})
	require.NoError(t, err)
	_, err = l.SetAdmin(ctx, tr.ID, admin, bob)
	require.NoError(t, err)

	report, err := l.Audit(ctx, tr.ID)
	require.NoError(t, err)
	require.True(t, report.OK(), "problems: %v", report.Problems)
	assert.Equal(t, "400", report.Conservation.Balance.String())
	assert.Equal(t, bob, report.Conservation.Admin)
	assert.Equal(t, 1, report.Conservation.Settlements)
	assert.Equal(t, 4, report.Conservation.Events)

	t.Run("edited amount", func(t *testing.T) {
		store.tamper = func(e *models.Event) {
			if e.Kind == models.EventDeposited {
				e.Data.Amount = big.NewInt(1900)
			}
		}
		defer func() { store.tamper = nil }()

		report, err := l.Audit(ctx, tr.ID)
		require.NoError(t, err)
		assert.False(t, report.OK())
		assert.Contains(t, report.Problems, "event 2: hash mismatch")
	})

	t.Run("dropped event", func(t *testing.T) {
		store.tamper = func(e *models.Event) {
			if e.Seq == 3 {
				e.PrevHash = models.GenesisHash
			}
		}
		defer func() { store.tamper = nil }()

		report, err := l.Audit(ctx, tr.ID)
		require.NoError(t, err)
		assert.False(t, report.OK())
	})

	_, err = l.Audit(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
