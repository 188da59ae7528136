package models

import "math/big"

// MaxRecipients bounds the number of payouts in one settlement batch.
const MaxRecipients = 100

// Payout is one (recipient, amount) pair of a settlement batch.
type Payout struct {
	Recipient Address
	Amount    *big.Int
}

// Batch is a settlement request. It is never persisted; only its Settled
// event is.
type Batch struct {
	// RunID correlates the settlement with an off-chain payroll-run record.
	RunID RunID

	// Payouts are executed in submission order.
	Payouts []Payout
}
