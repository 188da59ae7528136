// Package asset provides an in-process fungible asset that treasuries can
// custody. It backs the development server and the ledger's tests.
package asset

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/mmynk/treasury/internal/models"
)

var (
	ErrInsufficientFunds     = errors.New("asset: insufficient funds")
	ErrInsufficientAllowance = errors.New("asset: insufficient allowance")
	ErrRejected              = errors.New("asset: recipient does not accept transfers")
	ErrInvalidAmount         = errors.New("asset: invalid amount")
	ErrSelfTransfer          = errors.New("asset: sender and recipient are the same account")
)

// Book is an in-memory token ledger with ERC-20 style balances and
// allowances. Accounts can be blocked to simulate recipients that refuse the
// asset.
type Book struct {
	mu sync.Mutex

	symbol     string
	balances   map[models.Address]*big.Int
	allowances map[models.Address]map[models.Address]*big.Int
	unlimited  map[models.Address]bool
	blocked    map[models.Address]bool
}

// NewBook creates an empty book for the asset named symbol.
func NewBook(symbol string) *Book {
	return &Book{
		symbol:     symbol,
		balances:   make(map[models.Address]*big.Int),
		allowances: make(map[models.Address]map[models.Address]*big.Int),
		unlimited:  make(map[models.Address]bool),
		blocked:    make(map[models.Address]bool),
	}
}

// Symbol returns the asset's name.
func (b *Book) Symbol() string {
	return b.symbol
}

// Mint credits amount to an account out of thin air.
func (b *Book) Mint(to models.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(to, amount)
}

// Approve sets how much spender may pull from owner.
func (b *Book) Approve(owner, spender models.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.allowances[owner] == nil {
		b.allowances[owner] = make(map[models.Address]*big.Int)
	}
	b.allowances[owner][spender] = models.CopyAmount(amount)
}

// ApproveAll lets any spender pull any amount from owner, the equivalent of
// an ERC-20 max-uint approval to every spender.
func (b *Book) ApproveAll(owner models.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unlimited[owner] = true
}

// Block makes an account refuse incoming transfers.
func (b *Book) Block(account models.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocked[account] = true
}

// Unblock reverses Block.
func (b *Book) Unblock(account models.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blocked, account)
}

// BalanceOf returns a copy of an account's balance.
func (b *Book) BalanceOf(account models.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.CopyAmount(b.balances[account])
}

// Allowance returns how much spender may still pull from owner.
func (b *Book) Allowance(owner, spender models.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.CopyAmount(b.allowances[owner][spender])
}

// Supply returns the sum of every balance.
func (b *Book) Supply() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := new(big.Int)
	for _, v := range b.balances {
		total.Add(total, v)
	}
	return total
}

// CanReceive implements ledger.ReceiverChecker.
func (b *Book) CanReceive(_ context.Context, to models.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.blocked[to] || to.IsZero() {
		return fmt.Errorf("%w: %s", ErrRejected, to)
	}
	return nil
}

// Transfer implements ledger.Asset.
func (b *Book) Transfer(_ context.Context, from, to models.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(from, to, amount); err != nil {
		return err
	}
	b.move(from, to, amount)
	return nil
}

// TransferFrom implements ledger.Asset.
func (b *Book) TransferFrom(_ context.Context, spender, owner, to models.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unlimited[owner] {
		if err := b.check(owner, to, amount); err != nil {
			return err
		}
		b.move(owner, to, amount)
		return nil
	}

	allowed := b.allowances[owner][spender]
	if amount != nil && (allowed == nil || allowed.Cmp(amount) < 0) {
		return fmt.Errorf("%w: %s may spend %s of %s, wants %s",
			ErrInsufficientAllowance, spender, models.FormatAmount(allowed), owner, amount)
	}
	if err := b.check(owner, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	b.move(owner, to, amount)
	return nil
}

// RestoreAllowance implements ledger.AllowanceRestorer. Owners approved
// without limit have nothing to restore.
func (b *Book) RestoreAllowance(_ context.Context, owner, spender models.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, models.FormatAmount(amount))
	}
	if b.unlimited[owner] {
		return nil
	}
	if b.allowances[owner] == nil {
		b.allowances[owner] = make(map[models.Address]*big.Int)
	}
	if b.allowances[owner][spender] == nil {
		b.allowances[owner][spender] = new(big.Int)
	}
	b.allowances[owner][spender].Add(b.allowances[owner][spender], amount)
	return nil
}

// TransferBatch implements ledger.BatchTransferer: either every payout is
// applied or none is.
func (b *Book) TransferBatch(_ context.Context, from models.Address, payouts []models.Payout) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := new(big.Int)
	for i, p := range payouts {
		if err := b.check(from, p.Recipient, p.Amount); err != nil {
			return fmt.Errorf("payout %d: %w", i, err)
		}
		total.Add(total, p.Amount)
	}
	if b.balanceOf(from).Cmp(total) < 0 {
		return fmt.Errorf("%w: %s holds %s, batch needs %s", ErrInsufficientFunds, from, b.balanceOf(from), total)
	}
	for _, p := range payouts {
		b.move(from, p.Recipient, p.Amount)
	}
	return nil
}

// check validates a single move. Caller holds mu.
func (b *Book) check(from, to models.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, models.FormatAmount(amount))
	}
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfTransfer, from)
	}
	if b.blocked[to] || to.IsZero() {
		return fmt.Errorf("%w: %s", ErrRejected, to)
	}
	if b.balanceOf(from).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, wants %s", ErrInsufficientFunds, from, b.balanceOf(from), amount)
	}
	return nil
}

func (b *Book) move(from, to models.Address, amount *big.Int) {
	b.balances[from].Sub(b.balances[from], amount)
	b.credit(to, amount)
}

func (b *Book) credit(to models.Address, amount *big.Int) {
	if b.balances[to] == nil {
		b.balances[to] = new(big.Int)
	}
	b.balances[to].Add(b.balances[to], amount)
}

func (b *Book) balanceOf(account models.Address) *big.Int {
	if v := b.balances[account]; v != nil {
		return v
	}
	return new(big.Int)
}
