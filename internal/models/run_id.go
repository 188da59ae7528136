package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// RunID is the opaque 32-byte correlation token an off-chain caller attaches
// to a settlement. It links the Settled event to a payroll-run record.
type RunID [32]byte

// ParseRunID parses a 64-character hex string, with or without 0x prefix.
// Shorter inputs are left-padded with zeros, so "0x01" is a valid run ID.
func ParseRunID(s string) (RunID, error) {
	var id RunID
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if raw == "" || len(raw) > len(id)*2 {
		return id, fmt.Errorf("invalid run id %q: want 1 to %d hex characters", s, len(id)*2)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return id, fmt.Errorf("invalid run id %q: %w", s, err)
	}
	copy(id[len(id)-len(b):], b)
	return id, nil
}

// MustParseRunID is ParseRunID for constants and tests.
func MustParseRunID(s string) RunID {
	id, err := ParseRunID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Hex returns the 0x-prefixed, zero-padded hex form.
func (r RunID) Hex() string {
	return "0x" + hex.EncodeToString(r[:])
}

func (r RunID) String() string {
	return r.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (r RunID) MarshalText() ([]byte, error) {
	return []byte(r.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RunID) UnmarshalText(text []byte) error {
	parsed, err := ParseRunID(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
