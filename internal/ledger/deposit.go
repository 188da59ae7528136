package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/mmynk/treasury/internal/models"
)

// Deposit pulls amount from caller into the treasury. Anyone may deposit; the
// caller must have approved the treasury's account to spend amount.
func (l *Ledger) Deposit(ctx context.Context, id string, caller models.Address, amount *big.Int) (r Receipt, err error) {
	defer func() { l.metrics.IncrementOperation("deposit", Kind(err)) }()

	if amount == nil || amount.Sign() <= 0 {
		return r, fmt.Errorf("%w: %s", ErrInvalidAmount, models.FormatAmount(amount))
	}

	unlock := l.lock(id)
	defer unlock()

	t, err := l.load(ctx, id)
	if err != nil {
		return r, err
	}
	asset, err := l.asset(t.Asset)
	if err != nil {
		return r, err
	}

	if err := asset.TransferFrom(ctx, t.Account, caller, t.Account, amount); err != nil {
		return r, fmt.Errorf("%w: pull %s from %s: %v", ErrTransferFailed, amount, caller, err)
	}

	next := t.Clone()
	next.Balance.Add(next.Balance, amount)

	e, err := l.commit(ctx, t, next, models.Event{
		Kind: models.EventDeposited,
		At:   l.now(),
		Data: models.EventData{Depositor: models.AddrPtr(caller), Amount: models.CopyAmount(amount)},
	})
	if err != nil {
		err = l.compensate(ctx, asset, []move{{from: caller, to: t.Account, amount: amount}}, err)
		return r, l.restoreAllowance(ctx, asset, caller, t.Account, amount, err)
	}

	l.logger.Debug("Deposit committed", "treasury_id", id, "depositor", caller.Hex(), "amount", amount.String(), "seq", e.Seq)
	return receipt(e, next), nil
}

// restoreAllowance re-grants what a reversed deposit spent, when the asset
// supports it, and returns cause joined with any failure.
func (l *Ledger) restoreAllowance(ctx context.Context, asset Asset, owner, spender models.Address, amount *big.Int, cause error) error {
	ar, ok := asset.(AllowanceRestorer)
	if !ok || errors.Is(cause, ErrRollbackFailed) {
		return cause
	}
	if err := ar.RestoreAllowance(context.WithoutCancel(ctx), owner, spender, amount); err != nil {
		l.logger.Error("Restoring allowance failed", "owner", owner.Hex(), "spender", spender.Hex(), "amount", amount.String(), "error", err)
		return errors.Join(cause, fmt.Errorf("%w: restore allowance of %s: %v", ErrRollbackFailed, owner, err))
	}
	return cause
}
