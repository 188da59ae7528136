package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// EventKind names a state transition recorded in the event log.
type EventKind string

const (
	EventCreated      EventKind = "created"
	EventDeposited    EventKind = "deposited"
	EventSettled      EventKind = "settled"
	EventWithdrawn    EventKind = "withdrawn"
	EventAdminChanged EventKind = "admin_changed"
)

// GenesisHash is the PrevHash of the first event of every treasury.
var GenesisHash = strings.Repeat("0", 64)

// Event is an immutable entry in a treasury's event log. It is the only
// channel through which reconciliation learns about ledger activity.
type Event struct {
	TreasuryID string

	// Seq is 1-based and contiguous per treasury.
	Seq  uint64
	Kind EventKind

	// At is when the event was committed.
	At time.Time

	Data EventData

	// PrevHash is the Hash of the previous event, or GenesisHash.
	PrevHash string
	Hash     string
}

// EventData holds the payload of an event. Only the fields relevant to the
// event's Kind are set:
//
//	created:       Admin, Asset
//	deposited:     Depositor, Amount
//	settled:       RunID, Amount (total), RecipientCount
//	withdrawn:     Admin, Recipient, Amount
//	admin_changed: Previous, Next
type EventData struct {
	Admin          *Address `json:"admin,omitempty"`
	Asset          string   `json:"asset,omitempty"`
	Depositor      *Address `json:"depositor,omitempty"`
	Recipient      *Address `json:"recipient,omitempty"`
	Previous       *Address `json:"previous,omitempty"`
	Next           *Address `json:"next,omitempty"`
	Amount         *big.Int `json:"amount,omitempty"`
	RunID          *RunID   `json:"run_id,omitempty"`
	RecipientCount int      `json:"recipient_count,omitempty"`
}

// Digest computes the chain hash of e from its content and PrevHash.
func (e *Event) Digest() (string, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return "", fmt.Errorf("failed to encode event data: %w", err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%d|%s|", e.TreasuryID, e.Seq, e.Kind, e.At.UnixNano(), e.PrevHash)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Seal links e after the event with sequence prevSeq and hash prevHash.
func (e *Event) Seal(prevSeq uint64, prevHash string) error {
	e.Seq = prevSeq + 1
	e.PrevHash = prevHash
	hash, err := e.Digest()
	if err != nil {
		return err
	}
	e.Hash = hash
	return nil
}

// AddrPtr returns a pointer to a copy of a, for populating EventData.
func AddrPtr(a Address) *Address {
	return &a
}
