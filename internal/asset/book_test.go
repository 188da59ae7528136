package asset

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/treasury/internal/models"
)

var (
	alice = models.DeriveAddress([]byte("alice"))
	bob   = models.DeriveAddress([]byte("bob"))
	carol = models.DeriveAddress([]byte("carol"))
)

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(b *Book)
		amount  int64
		wantErr error
	}{
		{
			name:   "moves funds",
			setup:  func(b *Book) { b.Mint(alice, big.NewInt(100)) },
			amount: 40,
		},
		{
			name:    "insufficient funds",
			setup:   func(b *Book) { b.Mint(alice, big.NewInt(10)) },
			amount:  40,
			wantErr: ErrInsufficientFunds,
		},
		{
			name:    "zero amount",
			setup:   func(b *Book) { b.Mint(alice, big.NewInt(10)) },
			amount:  0,
			wantErr: ErrInvalidAmount,
		},
		{
			name: "blocked recipient",
			setup: func(b *Book) {
				b.Mint(alice, big.NewInt(100))
				b.Block(bob)
			},
			amount:  40,
			wantErr: ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBook("USDC")
			tt.setup(b)
			before := b.Supply()

			err := b.Transfer(ctx, alice, bob, big.NewInt(tt.amount))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, b.BalanceOf(bob).Sign())
			} else {
				require.NoError(t, err)
				assert.Equal(t, "40", b.BalanceOf(bob).String())
				assert.Equal(t, "60", b.BalanceOf(alice).String())
			}
			assert.Equal(t, before.String(), b.Supply().String(), "transfers conserve supply")
		})
	}
}

func TestSelfTransferRefused(t *testing.T) {
	ctx := context.Background()
	b := NewBook("USDC")
	b.Mint(alice, big.NewInt(100))
	b.Approve(alice, bob, big.NewInt(100))

	require.ErrorIs(t, b.Transfer(ctx, alice, alice, big.NewInt(10)), ErrSelfTransfer)
	require.ErrorIs(t, b.TransferFrom(ctx, bob, alice, alice, big.NewInt(10)), ErrSelfTransfer)
	err := b.TransferBatch(ctx, alice, []models.Payout{
		{Recipient: bob, Amount: big.NewInt(10)},
		{Recipient: alice, Amount: big.NewInt(10)},
	})
	require.ErrorIs(t, err, ErrSelfTransfer)

	assert.Equal(t, "100", b.BalanceOf(alice).String())
	assert.Equal(t, "100", b.Allowance(alice, bob).String())
	assert.Zero(t, b.BalanceOf(bob).Sign())
}

func TestRestoreAllowance(t *testing.T) {
	ctx := context.Background()
	b := NewBook("USDC")
	b.Mint(alice, big.NewInt(100))
	b.Approve(alice, bob, big.NewInt(30))

	require.NoError(t, b.TransferFrom(ctx, bob, alice, bob, big.NewInt(30)))
	assert.Zero(t, b.Allowance(alice, bob).Sign())

	require.NoError(t, b.Transfer(ctx, bob, alice, big.NewInt(30)))
	require.NoError(t, b.RestoreAllowance(ctx, alice, bob, big.NewInt(30)))
	assert.Equal(t, "30", b.Allowance(alice, bob).String())
	require.NoError(t, b.TransferFrom(ctx, bob, alice, bob, big.NewInt(30)))

	require.NoError(t, b.RestoreAllowance(ctx, carol, bob, big.NewInt(5)))
	assert.Equal(t, "5", b.Allowance(carol, bob).String())
	require.ErrorIs(t, b.RestoreAllowance(ctx, alice, bob, big.NewInt(0)), ErrInvalidAmount)

	b.ApproveAll(carol)
	require.NoError(t, b.RestoreAllowance(ctx, carol, bob, big.NewInt(5)))
	assert.Equal(t, "5", b.Allowance(carol, bob).String())
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	ctx := context.Background()
	b := NewBook("USDC")
	b.Mint(alice, big.NewInt(100))

	err := b.TransferFrom(ctx, bob, alice, carol, big.NewInt(10))
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	b.Approve(alice, bob, big.NewInt(30))
	require.NoError(t, b.TransferFrom(ctx, bob, alice, carol, big.NewInt(25)))
	assert.Equal(t, "5", b.Allowance(alice, bob).String())
	assert.Equal(t, "25", b.BalanceOf(carol).String())

	err = b.TransferFrom(ctx, bob, alice, carol, big.NewInt(6))
	require.ErrorIs(t, err, ErrInsufficientAllowance)
	assert.Equal(t, "75", b.BalanceOf(alice).String())
}

func TestApproveAll(t *testing.T) {
	ctx := context.Background()
	b := NewBook("USDC")
	b.Mint(alice, big.NewInt(100))
	b.ApproveAll(alice)

	require.NoError(t, b.TransferFrom(ctx, bob, alice, bob, big.NewInt(60)))
	require.NoError(t, b.TransferFrom(ctx, carol, alice, carol, big.NewInt(40)))
	assert.Zero(t, b.BalanceOf(alice).Sign())

	err := b.TransferFrom(ctx, bob, alice, bob, big.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTransferBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	b := NewBook("USDC")
	b.Mint(alice, big.NewInt(100))
	b.Block(carol)

	payouts := []models.Payout{
		{Recipient: bob, Amount: big.NewInt(30)},
		{Recipient: carol, Amount: big.NewInt(30)},
	}
	err := b.TransferBatch(ctx, alice, payouts)
	require.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "100", b.BalanceOf(alice).String())
	assert.Zero(t, b.BalanceOf(bob).Sign())

	b.Unblock(carol)
	require.NoError(t, b.TransferBatch(ctx, alice, payouts))
	assert.Equal(t, "40", b.BalanceOf(alice).String())
	assert.Equal(t, "30", b.BalanceOf(carol).String())

	payouts[0].Amount = big.NewInt(30)
	payouts[1].Amount = big.NewInt(11)
	err = b.TransferBatch(ctx, alice, payouts)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "40", b.BalanceOf(alice).String())
}

func TestCanReceive(t *testing.T) {
	ctx := context.Background()
	b := NewBook("USDC")
	b.Block(bob)

	assert.NoError(t, b.CanReceive(ctx, alice))
	assert.ErrorIs(t, b.CanReceive(ctx, bob), ErrRejected)
	assert.ErrorIs(t, b.CanReceive(ctx, models.ZeroAddress), ErrRejected)
}
