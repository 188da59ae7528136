package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/treasury/internal/models"
)

// SetAdmin transfers authority over the treasury to next. Authority is a
// single identity; there is no recovery path if it is lost.
func (l *Ledger) SetAdmin(ctx context.Context, id string, caller, next models.Address) (r Receipt, err error) {
	defer func() { l.metrics.IncrementOperation("set_admin", Kind(err)) }()

	unlock := l.lock(id)
	defer unlock()

	t, err := l.load(ctx, id)
	if err != nil {
		return r, err
	}
	if caller != t.Admin {
		return r, fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	if next.IsZero() {
		return r, fmt.Errorf("%w: new admin", ErrZeroAddress)
	}

	staged := t.Clone()
	staged.Admin = next

	e, err := l.commit(ctx, t, staged, models.Event{
		Kind: models.EventAdminChanged,
		At:   l.now(),
		Data: models.EventData{Previous: models.AddrPtr(t.Admin), Next: models.AddrPtr(next)},
	})
	if err != nil {
		return r, err
	}

	l.logger.Info("Admin changed", "treasury_id", id, "previous", t.Admin.Hex(), "next", next.Hex(), "seq", e.Seq)
	return receipt(e, staged), nil
}
