package calculator

import (
	"fmt"
	"math/big"

	"github.com/mmynk/treasury/internal/models"
)

// Conservation is the result of replaying a treasury's event log.
type Conservation struct {
	Deposited *big.Int // sum of all deposits
	Settled   *big.Int // sum of all settlement totals
	Withdrawn *big.Int // sum of all emergency withdrawals

	// Balance is Deposited - Settled - Withdrawn.
	Balance *big.Int

	// Admin is the admin after the last AdminChanged (or Created) event.
	Admin models.Address

	Settlements int
	Payouts     int // recipients paid across all settlements
	Events      int
}

// Replay folds a treasury's events, in sequence order, into the totals that
// must match the treasury's stored state.
//
// Algorithm:
//   - created: sets the admin; must be the first event
//   - deposited: balance += amount
//   - settled / withdrawn: balance -= amount
//   - admin_changed: previous must equal the current admin
//
// Replay fails if the balance would go negative at any point, if sequence
// numbers are not contiguous from 1, or if a payload is missing its amount.
func Replay(events []models.Event) (*Conservation, error) {
	c := &Conservation{
		Deposited: new(big.Int),
		Settled:   new(big.Int),
		Withdrawn: new(big.Int),
		Balance:   new(big.Int),
	}

	for i, e := range events {
		if e.Seq != uint64(i+1) {
			return nil, fmt.Errorf("event %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
		if (i == 0) != (e.Kind == models.EventCreated) {
			return nil, fmt.Errorf("event %d: created must be the first and only genesis event", e.Seq)
		}

		switch e.Kind {
		case models.EventCreated:
			if e.Data.Admin == nil {
				return nil, fmt.Errorf("event %d: created without admin", e.Seq)
			}
			c.Admin = *e.Data.Admin

		case models.EventDeposited:
			amount, err := positiveAmount(e)
			if err != nil {
				return nil, err
			}
			c.Deposited.Add(c.Deposited, amount)
			c.Balance.Add(c.Balance, amount)

		case models.EventSettled:
			amount, err := positiveAmount(e)
			if err != nil {
				return nil, err
			}
			c.Settled.Add(c.Settled, amount)
			c.Balance.Sub(c.Balance, amount)
			c.Settlements++
			c.Payouts += e.Data.RecipientCount

		case models.EventWithdrawn:
			amount, err := positiveAmount(e)
			if err != nil {
				return nil, err
			}
			c.Withdrawn.Add(c.Withdrawn, amount)
			c.Balance.Sub(c.Balance, amount)

		case models.EventAdminChanged:
			if e.Data.Previous == nil || e.Data.Next == nil {
				return nil, fmt.Errorf("event %d: admin change without previous/next", e.Seq)
			}
			if *e.Data.Previous != c.Admin {
				return nil, fmt.Errorf("event %d: admin change from %s, but admin is %s", e.Seq, e.Data.Previous, c.Admin)
			}
			c.Admin = *e.Data.Next

		default:
			return nil, fmt.Errorf("event %d: unknown kind %q", e.Seq, e.Kind)
		}

		if c.Balance.Sign() < 0 {
			return nil, fmt.Errorf("event %d: balance went negative (%s)", e.Seq, c.Balance)
		}
		c.Events++
	}

	return c, nil
}

func positiveAmount(e models.Event) (*big.Int, error) {
	if e.Data.Amount == nil || e.Data.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("event %d: %s without a positive amount", e.Seq, e.Kind)
	}
	return e.Data.Amount, nil
}
