package calculator

import (
	"math/big"

	"github.com/mmynk/treasury/internal/models"
)

// BatchTotal sums the payout amounts of a batch. Nil amounts count as zero;
// positivity is the caller's concern.
func BatchTotal(payouts []models.Payout) *big.Int {
	total := new(big.Int)
	for _, p := range payouts {
		if p.Amount != nil {
			total.Add(total, p.Amount)
		}
	}
	return total
}

// FirstNonPositive returns the index of the first payout whose amount is nil,
// zero, or negative, or -1 if every amount is strictly positive.
func FirstNonPositive(payouts []models.Payout) int {
	for i, p := range payouts {
		if p.Amount == nil || p.Amount.Sign() <= 0 {
			return i
		}
	}
	return -1
}
