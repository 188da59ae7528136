package ledger_test

import (
	"context"
	"log/slog"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/treasury/internal/asset"
	"github.com/mmynk/treasury/internal/ledger"
	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/storage/memory"
)

// TestConservation drives random deposits, settlements, withdrawals and
// failures through a treasury and checks after every step that the stored
// balance equals deposits minus payouts minus withdrawals, and matches the
// funds actually held in custody.
func TestConservation(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 1337} {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		ctx := context.Background()

		book := asset.NewBook("USDC")
		l := ledger.New(memory.New(),
			ledger.WithAsset("USDC", book),
			ledger.WithLogger(slog.New(slog.DiscardHandler)),
		)
		tr, err := l.Create(ctx, admin, "USDC")
		require.NoError(t, err)

		pool := addresses(8)
		book.Block(pool[7])

		deposited, paid := new(big.Int), new(big.Int)
		minted := new(big.Int)
		var run uint64

		for step := range 300 {
			switch op := rng.IntN(10); {
			case op < 4:
				amt := big.NewInt(rng.Int64N(1000) + 1)
				from := pool[rng.IntN(len(pool))]
				book.Mint(from, amt)
				minted.Add(minted, amt)
				book.Approve(from, tr.Account, amt)
				_, err := l.Deposit(ctx, tr.ID, from, amt)
				require.NoError(t, err, "seed %d step %d", seed, step)
				deposited.Add(deposited, amt)

			case op < 8:
				n := rng.IntN(5) + 1
				recipients := make([]models.Address, n)
				vs := make([]*big.Int, n)
				total := new(big.Int)
				blocked := false
				for i := range n {
					recipients[i] = pool[rng.IntN(len(pool))]
					blocked = blocked || recipients[i] == pool[7]
					vs[i] = big.NewInt(rng.Int64N(400) + 1)
					total.Add(total, vs[i])
				}
				run++
				batch, err := ledger.NewBatch(runID(run), recipients, vs)
				require.NoError(t, err)

				balance := new(big.Int).Sub(deposited, paid)
				_, err = l.Settle(ctx, tr.ID, admin, batch)
				switch {
				case total.Cmp(balance) > 0:
					require.ErrorIs(t, err, ledger.ErrInsufficientBalance, "seed %d step %d", seed, step)
				case blocked:
					require.ErrorIs(t, err, ledger.ErrTransferFailed, "seed %d step %d", seed, step)
				default:
					require.NoError(t, err, "seed %d step %d", seed, step)
					paid.Add(paid, total)
				}

			default:
				amt := big.NewInt(rng.Int64N(300) + 1)
				balance := new(big.Int).Sub(deposited, paid)
				_, err := l.Withdraw(ctx, tr.ID, admin, amt, pool[rng.IntN(7)])
				if amt.Cmp(balance) > 0 {
					require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
				} else {
					require.NoError(t, err)
					paid.Add(paid, amt)
				}
			}

			want := new(big.Int).Sub(deposited, paid)
			got, err := l.Balance(ctx, tr.ID)
			require.NoError(t, err)
			require.Equal(t, want.String(), got.String(), "seed %d step %d", seed, step)
			require.Equal(t, want.String(), book.BalanceOf(tr.Account).String(), "custody drifted at seed %d step %d", seed, step)
			require.GreaterOrEqual(t, got.Sign(), 0)
		}

		assert.Equal(t, minted.String(), book.Supply().String(), "asset supply must never change")

		report, err := l.Audit(ctx, tr.ID)
		require.NoError(t, err)
		assert.True(t, report.OK(), "audit problems: %v", report.Problems)
		assert.Equal(t, deposited.String(), report.Conservation.Deposited.String())
	}
}
