package ledger_test

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/treasury/internal/asset"
	"github.com/mmynk/treasury/internal/ledger"
	"github.com/mmynk/treasury/internal/metrics"
	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/storage"
	"github.com/mmynk/treasury/internal/storage/memory"
)

var errReverted = errors.New("execution reverted")

// sequentialAsset moves funds one transfer at a time through a Book. It
// fails the failOn-th Transfer (1-based) and, with failReversals, every
// Transfer after it.
type sequentialAsset struct {
	book          *asset.Book
	failOn        int
	failReversals bool
	transfers     int
}

func (a *sequentialAsset) Transfer(ctx context.Context, from, to models.Address, amount *big.Int) error {
	a.transfers++
	if a.failOn > 0 && (a.transfers == a.failOn || (a.failReversals && a.transfers > a.failOn)) {
		return errReverted
	}
	return a.book.Transfer(ctx, from, to, amount)
}

func (a *sequentialAsset) TransferFrom(ctx context.Context, spender, owner, to models.Address, amount *big.Int) error {
	return a.book.TransferFrom(ctx, spender, owner, to, amount)
}

// checkingAsset adds a receiver pre-check to sequentialAsset.
type checkingAsset struct {
	*sequentialAsset
}

func (a checkingAsset) CanReceive(ctx context.Context, to models.Address) error {
	return a.book.CanReceive(ctx, to)
}

// failingStore fails Commit while failCommit is set.
type failingStore struct {
	storage.Store
	failCommit bool
}

func (s *failingStore) Commit(ctx context.Context, t *models.Treasury, events ...models.Event) error {
	if s.failCommit {
		return errors.New("disk I/O error")
	}
	return s.Store.Commit(ctx, t, events...)
}

type fixture struct {
	ctx      context.Context
	book     *asset.Book
	store    *failingStore
	metrics  *metrics.Metrics
	ledger   *ledger.Ledger
	treasury *models.Treasury
}

// newFixture builds a ledger over a, with a treasury holding 1000 units.
func newFixture(t *testing.T, book *asset.Book, a ledger.Asset) *fixture {
	t.Helper()

	f := &fixture{
		ctx:     context.Background(),
		book:    book,
		store:   &failingStore{Store: memory.New()},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.ledger = ledger.New(f.store,
		ledger.WithAsset("USDC", a),
		ledger.WithMetrics(f.metrics),
		ledger.WithLogger(slog.New(slog.DiscardHandler)),
	)

	tr, err := f.ledger.Create(f.ctx, admin, "USDC")
	require.NoError(t, err)
	f.treasury = tr

	book.Mint(funder, big.NewInt(1000))
	book.Approve(funder, tr.Account, big.NewInt(1000))
	_, err = f.ledger.Deposit(f.ctx, tr.ID, funder, big.NewInt(1000))
	require.NoError(t, err)
	return f
}

func (f *fixture) batch(t *testing.T) models.Batch {
	t.Helper()
	b, err := ledger.NewBatch(runID(9), []models.Address{alice, bob, carol}, amounts(100, 200, 300))
	require.NoError(t, err)
	return b
}

// assertUntouched checks that no value moved and nothing was recorded.
func (f *fixture) assertUntouched(t *testing.T) {
	t.Helper()

	bal, err := f.ledger.Balance(f.ctx, f.treasury.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", bal.String())
	assert.Equal(t, "1000", f.book.BalanceOf(f.treasury.Account).String())
	for _, r := range []models.Address{alice, bob, carol} {
		assert.Equal(t, "0", f.book.BalanceOf(r).String(), "recipient %s", r)
	}

	events, err := f.ledger.Events(f.ctx, f.treasury.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2, "only Created and Deposited are logged")
}

func TestSettleFailsMidBatch(t *testing.T) {
	for failOn := 1; failOn <= 3; failOn++ {
		book := asset.NewBook("USDC")
		a := &sequentialAsset{book: book, failOn: failOn}
		f := newFixture(t, book, a)

		_, err := f.ledger.Settle(f.ctx, f.treasury.ID, admin, f.batch(t))
		require.ErrorIs(t, err, ledger.ErrTransferFailed)
		assert.NotErrorIs(t, err, ledger.ErrRollbackFailed)
		assert.Equal(t, "transfer_failed", ledger.Kind(err))

		f.assertUntouched(t)
		assert.Equal(t, float64(failOn-1), testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("ok")))

		// The same run ID can be retried once the cause is fixed.
		a.failOn = 0
		_, err = f.ledger.Settle(f.ctx, f.treasury.ID, admin, f.batch(t))
		require.NoError(t, err)
		assert.Equal(t, "300", f.book.BalanceOf(carol).String())
	}
}

func TestSettlePreCheckStopsBeforeTransfers(t *testing.T) {
	book := asset.NewBook("USDC")
	a := &sequentialAsset{book: book}
	f := newFixture(t, book, checkingAsset{a})
	book.Block(carol)

	_, err := f.ledger.Settle(f.ctx, f.treasury.ID, admin, f.batch(t))
	require.ErrorIs(t, err, ledger.ErrTransferFailed)
	assert.Zero(t, a.transfers, "no transfer may start when a recipient is refused")
	f.assertUntouched(t)
}

func TestSettleNativeBatchRefused(t *testing.T) {
	book := asset.NewBook("USDC")
	f := newFixture(t, book, book)
	book.Block(bob)

	_, err := f.ledger.Settle(f.ctx, f.treasury.ID, admin, f.batch(t))
	require.ErrorIs(t, err, ledger.ErrTransferFailed)
	require.ErrorContains(t, err, "payout 1")
	f.assertUntouched(t)
}

func TestSettleCommitFailureCompensates(t *testing.T) {
	tests := []struct {
		name  string
		asset func(*asset.Book) ledger.Asset
	}{
		{name: "native batch", asset: func(b *asset.Book) ledger.Asset { return b }},
		{name: "sequential", asset: func(b *asset.Book) ledger.Asset { return &sequentialAsset{book: b} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := asset.NewBook("USDC")
			f := newFixture(t, book, tt.asset(book))
			f.store.failCommit = true

			_, err := f.ledger.Settle(f.ctx, f.treasury.ID, admin, f.batch(t))
			require.ErrorContains(t, err, "disk I/O error")
			f.assertUntouched(t)
			assert.Equal(t, float64(3), testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("ok")))
		})
	}
}

func TestDepositCommitFailureReturnsFunds(t *testing.T) {
	book := asset.NewBook("USDC")
	f := newFixture(t, book, book)
	f.store.failCommit = true

	depositor := models.DeriveAddress([]byte("depositor"))
	book.Mint(depositor, big.NewInt(50))
	book.Approve(depositor, f.treasury.Account, big.NewInt(50))
	_, err := f.ledger.Deposit(f.ctx, f.treasury.ID, depositor, big.NewInt(50))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ledger.ErrRollbackFailed)

	assert.Equal(t, "50", book.BalanceOf(depositor).String())
	assert.Equal(t, "50", book.Allowance(depositor, f.treasury.Account).String(), "allowance is re-granted")
	f.assertUntouched(t)

	// The depositor can retry with the same approval once the store recovers.
	f.store.failCommit = false
	_, err = f.ledger.Deposit(f.ctx, f.treasury.ID, depositor, big.NewInt(50))
	require.NoError(t, err)
	assert.Zero(t, book.BalanceOf(depositor).Sign())
}

// stuckAllowanceBook refuses to restore allowances.
type stuckAllowanceBook struct {
	*asset.Book
}

func (stuckAllowanceBook) RestoreAllowance(context.Context, models.Address, models.Address, *big.Int) error {
	return errReverted
}

func TestDepositAllowanceRestoreFailure(t *testing.T) {
	book := asset.NewBook("USDC")
	f := newFixture(t, book, stuckAllowanceBook{Book: book})
	f.store.failCommit = true

	depositor := models.DeriveAddress([]byte("depositor"))
	book.Mint(depositor, big.NewInt(50))
	book.Approve(depositor, f.treasury.Account, big.NewInt(50))
	_, err := f.ledger.Deposit(f.ctx, f.treasury.ID, depositor, big.NewInt(50))
	require.ErrorIs(t, err, ledger.ErrRollbackFailed)
	assert.Equal(t, "rollback_failed", ledger.Kind(err))

	// Funds came back; only the approval is lost.
	assert.Equal(t, "50", book.BalanceOf(depositor).String())
	assert.Zero(t, book.Allowance(depositor, f.treasury.Account).Sign())
	f.assertUntouched(t)
}

func TestWithdrawCommitFailureReturnsFunds(t *testing.T) {
	book := asset.NewBook("USDC")
	f := newFixture(t, book, book)
	f.store.failCommit = true

	_, err := f.ledger.Withdraw(f.ctx, f.treasury.ID, admin, big.NewInt(400), alice)
	require.Error(t, err)
	f.assertUntouched(t)
}

func TestSettleRollbackFailure(t *testing.T) {
	book := asset.NewBook("USDC")
	a := &sequentialAsset{book: book, failOn: 3, failReversals: true}
	f := newFixture(t, book, a)

	_, err := f.ledger.Settle(f.ctx, f.treasury.ID, admin, f.batch(t))
	require.ErrorIs(t, err, ledger.ErrTransferFailed)
	require.ErrorIs(t, err, ledger.ErrRollbackFailed)
	assert.Equal(t, "rollback_failed", ledger.Kind(err))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("failed")))

	// Nothing was committed even though funds are stranded at the recipients.
	bal, err := f.ledger.Balance(f.ctx, f.treasury.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", bal.String())
	assert.Equal(t, "100", book.BalanceOf(alice).String())
}

func TestSettleCancelledContextStillCompensates(t *testing.T) {
	book := asset.NewBook("USDC")
	a := &sequentialAsset{book: book}
	f := newFixture(t, book, a)

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()
	cancelling := &cancelOnTransfer{sequentialAsset: a, cancel: cancel}
	l := ledger.New(f.store, ledger.WithAsset("USDC", cancelling), ledger.WithLogger(slog.New(slog.DiscardHandler)))

	_, err := l.Settle(ctx, f.treasury.ID, admin, f.batch(t))
	require.ErrorIs(t, err, ledger.ErrTransferFailed)
	f.assertUntouched(t)
}

// cancelOnTransfer cancels the caller's context on the first transfer and
// refuses any transfer made under a cancelled context.
type cancelOnTransfer struct {
	*sequentialAsset
	cancel context.CancelFunc
}

func (a *cancelOnTransfer) Transfer(ctx context.Context, from, to models.Address, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := a.sequentialAsset.Transfer(ctx, from, to, amount)
	a.cancel()
	return err
}
