package models

import (
	"math/big"
	"time"
)

// TreasuryStatus is the lifecycle state of a treasury. A treasury enters
// Active at creation and never leaves it.
type TreasuryStatus string

const TreasuryStatusActive TreasuryStatus = "active"

// Treasury holds pooled custody of one organization's funds.
type Treasury struct {
	// ID is the unique identifier for the treasury (UUID format).
	ID string

	// Account is the treasury's custody address on the asset.
	// Derived from ID at creation; funds held for the treasury sit here.
	Account Address

	// Asset is the reference of the external value store this treasury
	// custodies. Set once at creation, never changed.
	Asset string

	// Admin is the sole identity allowed to settle, withdraw, and transfer
	// authority. Never the zero address.
	Admin Address

	// Balance is the custodied amount in the asset's smallest unit. Never negative.
	Balance *big.Int

	// Seq is the sequence number of the last event appended for this treasury.
	Seq uint64

	// Head is the hash of the last event appended for this treasury.
	Head string

	Status TreasuryStatus

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Clone returns a deep copy so mutations can be staged without touching t.
func (t *Treasury) Clone() *Treasury {
	c := *t
	c.Balance = new(big.Int)
	if t.Balance != nil {
		c.Balance.Set(t.Balance)
	}
	return &c
}

// Touch sets UpdatedAt.
func (t *Treasury) Touch(now time.Time) {
	t.UpdatedAt = now.Unix()
}
