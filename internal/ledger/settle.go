package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/mmynk/treasury/internal/calculator"
	"github.com/mmynk/treasury/internal/models"
)

// NewBatch pairs parallel recipient and amount lists into a Batch.
// Mismatched lengths fail with ErrInvalidBatch.
func NewBatch(runID models.RunID, recipients []models.Address, amounts []*big.Int) (models.Batch, error) {
	if len(recipients) != len(amounts) {
		return models.Batch{}, fmt.Errorf("%w: %d recipients but %d amounts", ErrInvalidBatch, len(recipients), len(amounts))
	}
	b := models.Batch{RunID: runID, Payouts: make([]models.Payout, len(recipients))}
	for i := range recipients {
		b.Payouts[i] = models.Payout{Recipient: recipients[i], Amount: amounts[i]}
	}
	return b, nil
}

// Settle pays every payout in batch from the treasury, all or nothing. Only
// the admin may settle.
//
// Validation runs in order, each failure distinct: authorization, batch size,
// positive amounts, non-zero recipients, run ID not yet used, and total
// within balance. Then every transfer is executed; if any fails, those
// already applied are reversed and ErrTransferFailed is returned. Only after
// every transfer succeeds are the balance decrement and the Settled event
// committed.
func (l *Ledger) Settle(ctx context.Context, id string, caller models.Address, batch models.Batch) (r Receipt, err error) {
	started := time.Now()
	defer func() { l.metrics.IncrementOperation("settle", Kind(err)) }()

	unlock := l.lock(id)
	defer unlock()

	t, err := l.load(ctx, id)
	if err != nil {
		return r, err
	}
	if caller != t.Admin {
		return r, fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	if err := validateBatch(batch); err != nil {
		return r, err
	}
	for i, p := range batch.Payouts {
		if p.Recipient == t.Account {
			return r, fmt.Errorf("%w: payout %d: %w", ErrInvalidBatch, i, ErrCustodyRecipient)
		}
	}

	used, err := l.store.HasRun(ctx, id, batch.RunID)
	if err != nil {
		return r, fmt.Errorf("failed to check run %s: %w", batch.RunID, err)
	}
	if used {
		return r, fmt.Errorf("%w: %s", ErrDuplicateRun, batch.RunID)
	}

	total := calculator.BatchTotal(batch.Payouts)
	if total.Cmp(t.Balance) > 0 {
		return r, fmt.Errorf("%w: batch total %s, balance %s", ErrInsufficientBalance, total, t.Balance)
	}

	asset, err := l.asset(t.Asset)
	if err != nil {
		return r, err
	}

	applied, err := l.disburse(ctx, asset, t.Account, batch.Payouts)
	if err != nil {
		l.logger.Warn("Settlement rolled back",
			"treasury_id", id,
			"run_id", batch.RunID.Hex(),
			"recipients", len(batch.Payouts),
			"error", err,
		)
		return r, err
	}

	next := t.Clone()
	next.Balance.Sub(next.Balance, total)

	e, err := l.commit(ctx, t, next, models.Event{
		Kind: models.EventSettled,
		At:   l.now(),
		Data: models.EventData{
			RunID:          &batch.RunID,
			Amount:         total,
			RecipientCount: len(batch.Payouts),
		},
	})
	if err != nil {
		return r, l.compensate(ctx, asset, applied, err)
	}

	l.metrics.ObserveSettlement(len(batch.Payouts), time.Since(started))
	l.logger.Info("Settlement committed",
		"treasury_id", id,
		"run_id", batch.RunID.Hex(),
		"total", total.String(),
		"recipients", len(batch.Payouts),
		"seq", e.Seq,
	)
	return receipt(e, next), nil
}

func validateBatch(batch models.Batch) error {
	n := len(batch.Payouts)
	if n == 0 || n > models.MaxRecipients {
		return fmt.Errorf("%w: %d recipients, want 1 to %d", ErrInvalidBatch, n, models.MaxRecipients)
	}
	if i := calculator.FirstNonPositive(batch.Payouts); i >= 0 {
		return fmt.Errorf("%w: payout %d amount %s is not positive", ErrInvalidBatch, i, models.FormatAmount(batch.Payouts[i].Amount))
	}
	for i, p := range batch.Payouts {
		if p.Recipient.IsZero() {
			return fmt.Errorf("%w: payout %d recipient", ErrZeroAddress, i)
		}
	}
	return nil
}

// move is one applied transfer, kept so it can be reversed.
type move struct {
	from, to models.Address
	amount   *big.Int
}

// disburse executes payouts from custody in submission order and returns the
// moves applied. On failure nothing remains applied.
func (l *Ledger) disburse(ctx context.Context, asset Asset, custody models.Address, payouts []models.Payout) ([]move, error) {
	all := make([]move, len(payouts))
	for i, p := range payouts {
		all[i] = move{from: custody, to: p.Recipient, amount: p.Amount}
	}

	if bt, ok := asset.(BatchTransferer); ok {
		if err := bt.TransferBatch(ctx, custody, payouts); err != nil {
			return nil, fmt.Errorf("%w: batch of %d: %v", ErrTransferFailed, len(payouts), err)
		}
		return all, nil
	}

	// Stage: refuse the whole batch up front if any recipient can't receive.
	if rc, ok := asset.(ReceiverChecker); ok {
		for i, p := range payouts {
			if err := rc.CanReceive(ctx, p.Recipient); err != nil {
				return nil, fmt.Errorf("%w: payout %d to %s: %v", ErrTransferFailed, i, p.Recipient, err)
			}
		}
	}

	for i, m := range all {
		if err := asset.Transfer(ctx, m.from, m.to, m.amount); err != nil {
			cause := fmt.Errorf("%w: payout %d to %s: %v", ErrTransferFailed, i, m.to, err)
			return nil, l.compensate(ctx, asset, all[:i], cause)
		}
	}
	return all, nil
}

// compensate reverses applied moves, newest first, and returns cause joined
// with any reversal failures. Reversal ignores ctx cancellation: a cancelled
// caller must not leave funds half-moved.
func (l *Ledger) compensate(ctx context.Context, asset Asset, applied []move, cause error) error {
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		m := applied[i]
		err := asset.Transfer(ctx, m.to, m.from, m.amount)
		l.metrics.IncrementCompensation(err == nil)
		if err != nil {
			l.logger.Error("Compensating transfer failed",
				"from", m.to.Hex(),
				"to", m.from.Hex(),
				"amount", m.amount.String(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%w: return %s from %s: %v", ErrRollbackFailed, m.amount, m.to, err))
		}
	}
	if len(errs) == 0 {
		return cause
	}
	return errors.Join(append([]error{cause}, errs...)...)
}
