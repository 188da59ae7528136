package ledger

import (
	"errors"
)

// Sentinel errors returned by ledger operations. Every validation failure is
// detected before any state changes; callers match with errors.Is.
var (
	ErrUnauthorized        = errors.New("ledger: caller is not the admin")
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInvalidBatch        = errors.New("ledger: invalid settlement batch")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrZeroAddress         = errors.New("ledger: zero address")
	ErrTransferFailed      = errors.New("ledger: asset transfer failed")

	ErrNotFound     = errors.New("ledger: treasury not found")
	ErrUnknownAsset = errors.New("ledger: unknown asset")
	ErrDuplicateRun = errors.New("ledger: settlement run already executed")

	// ErrCustodyRecipient means funds were directed at the treasury's own
	// custody account, which would debit the balance without moving value.
	ErrCustodyRecipient = errors.New("ledger: recipient is the treasury's custody account")

	// ErrRollbackFailed is joined with ErrTransferFailed when undoing a
	// partially applied operation itself fails. Operators must reconcile.
	ErrRollbackFailed = errors.New("ledger: rollback failed")

	// ErrInvariant means a staged state broke a treasury invariant. The
	// operation is undone; seeing this indicates a bug.
	ErrInvariant = errors.New("ledger: invariant violated")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrRollbackFailed, "rollback_failed"},
	{ErrUnauthorized, "unauthorized"},
	{ErrCustodyRecipient, "custody_recipient"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInvalidBatch, "invalid_batch"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrZeroAddress, "zero_address"},
	{ErrTransferFailed, "transfer_failed"},
	{ErrNotFound, "not_found"},
	{ErrUnknownAsset, "unknown_asset"},
	{ErrDuplicateRun, "duplicate_run"},
	{ErrInvariant, "invariant"},
}

// Kind returns a stable short name for err, "ok" for nil, and "internal"
// for errors outside the ledger's set.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// IsRejection reports whether err is a validation or authorization failure,
// as opposed to a transfer or infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidBatch) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrZeroAddress) ||
		errors.Is(err, ErrCustodyRecipient) ||
		errors.Is(err, ErrDuplicateRun) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownAsset)
}
