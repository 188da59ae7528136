package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/mmynk/treasury/internal/models"
)

// Withdraw is the admin's emergency drain: it sends amount from the treasury
// to recipient.
func (l *Ledger) Withdraw(ctx context.Context, id string, caller models.Address, amount *big.Int, recipient models.Address) (r Receipt, err error) {
	defer func() { l.metrics.IncrementOperation("withdraw", Kind(err)) }()

	unlock := l.lock(id)
	defer unlock()

	t, err := l.load(ctx, id)
	if err != nil {
		return r, err
	}
	if caller != t.Admin {
		return r, fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	if amount == nil || amount.Sign() <= 0 {
		return r, fmt.Errorf("%w: %s", ErrInvalidAmount, models.FormatAmount(amount))
	}
	if recipient.IsZero() {
		return r, fmt.Errorf("%w: recipient", ErrZeroAddress)
	}
	if recipient == t.Account {
		return r, fmt.Errorf("%w: %s", ErrCustodyRecipient, recipient)
	}
	if amount.Cmp(t.Balance) > 0 {
		return r, fmt.Errorf("%w: requested %s, balance %s", ErrInsufficientBalance, amount, t.Balance)
	}

	asset, err := l.asset(t.Asset)
	if err != nil {
		return r, err
	}
	if err := asset.Transfer(ctx, t.Account, recipient, amount); err != nil {
		return r, fmt.Errorf("%w: send %s to %s: %v", ErrTransferFailed, amount, recipient, err)
	}

	next := t.Clone()
	next.Balance.Sub(next.Balance, amount)

	e, err := l.commit(ctx, t, next, models.Event{
		Kind: models.EventWithdrawn,
		At:   l.now(),
		Data: models.EventData{
			Admin:     models.AddrPtr(caller),
			Recipient: models.AddrPtr(recipient),
			Amount:    models.CopyAmount(amount),
		},
	})
	if err != nil {
		return r, l.compensate(ctx, asset, []move{{from: t.Account, to: recipient, amount: amount}}, err)
	}

	l.logger.Warn("Emergency withdrawal committed",
		"treasury_id", id,
		"admin", caller.Hex(),
		"recipient", recipient.Hex(),
		"amount", amount.String(),
		"seq", e.Seq,
	)
	return receipt(e, next), nil
}
