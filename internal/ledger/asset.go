package ledger

import (
	"context"
	"math/big"

	"github.com/mmynk/treasury/internal/models"
)

// Asset is the external fungible value store a treasury custodies. The ledger
// never owns balances on the asset; it only moves them through these calls.
type Asset interface {
	// Transfer moves amount from one account to another. from must hold the
	// funds; the asset rejects the call otherwise.
	Transfer(ctx context.Context, from, to models.Address, amount *big.Int) error

	// TransferFrom pulls amount from owner to to, spending the allowance owner
	// granted spender.
	TransferFrom(ctx context.Context, spender, owner, to models.Address, amount *big.Int) error
}

// BatchTransferer is implemented by assets with native all-or-nothing
// multi-recipient transfers. Settlements use it when available.
type BatchTransferer interface {
	TransferBatch(ctx context.Context, from models.Address, payouts []models.Payout) error
}

// ReceiverChecker is implemented by assets that can tell ahead of time whether
// an account accepts transfers. Settlements pre-check every recipient with it
// before moving any funds.
type ReceiverChecker interface {
	CanReceive(ctx context.Context, to models.Address) error
}

// AllowanceRestorer is implemented by assets that can re-grant allowance a
// reversed TransferFrom consumed. Without it a rolled-back deposit leaves the
// depositor's approval spent.
type AllowanceRestorer interface {
	RestoreAllowance(ctx context.Context, owner, spender models.Address, amount *big.Int) error
}
