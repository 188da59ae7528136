// Package models defines the core domain models for the treasury ledger.
//
// # Models
//
//   - Treasury: pooled custody of one organization's funds (balance, admin, asset)
//   - Batch / Payout: one settlement request, paid out atomically
//   - Event: an immutable, hash-chained entry in a treasury's event log
//   - Address / RunID: fixed-size identities used on the wire and in storage
//
// Amounts are arbitrary-precision integers denominated in the asset's
// smallest unit. Floating point is never used for value.
//
// # Design Principles
//
//  1. **Integer value only**: *big.Int everywhere a balance or amount is held
//  2. **Copy on read**: accessors return copies so callers cannot mutate ledger state
//  3. **IDs over pointers**: treasuries are referenced by ID string across packages
package models
