package models

import (
	"fmt"
	"math/big"
)

// ParseAmount parses a base-10 integer amount in the asset's smallest unit.
// Sign is preserved; callers decide whether non-positive values are valid.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// FormatAmount renders an amount as a base-10 string. Nil renders as "0".
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// CopyAmount returns a fresh copy of v. Nil copies to zero.
func CopyAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
