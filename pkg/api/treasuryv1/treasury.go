// Package treasuryv1 holds the wire messages of the treasury.v1 API.
//
// Amounts are base-10 strings in the asset's smallest unit so that values
// beyond 2^53 survive JSON clients. Addresses are 0x-prefixed hex, and run
// IDs are hex of up to 32 bytes.
package treasuryv1

type Treasury struct {
	Id        string `json:"id"`
	Account   string `json:"account"`
	Asset     string `json:"asset"`
	Admin     string `json:"admin"`
	Balance   string `json:"balance"`
	Seq       uint64 `json:"seq"`
	Head      string `json:"head"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Event is one entry of a treasury's hash-chained log. Only the fields that
// belong to Kind are set.
type Event struct {
	TreasuryId     string `json:"treasuryId"`
	Seq            uint64 `json:"seq"`
	Kind           string `json:"kind"`
	At             string `json:"at"` // RFC 3339, nanosecond precision
	Admin          string `json:"admin,omitempty"`
	Asset          string `json:"asset,omitempty"`
	Depositor      string `json:"depositor,omitempty"`
	Recipient      string `json:"recipient,omitempty"`
	Previous       string `json:"previous,omitempty"`
	Next           string `json:"next,omitempty"`
	Amount         string `json:"amount,omitempty"`
	RunId          string `json:"runId,omitempty"`
	RecipientCount int    `json:"recipientCount,omitempty"`
	PrevHash       string `json:"prevHash"`
	Hash           string `json:"hash"`
}

type CreateTreasuryRequest struct {
	Asset string `json:"asset"`
	// Admin defaults to the caller.
	Admin string `json:"admin,omitempty"`
}

type CreateTreasuryResponse struct {
	Treasury *Treasury `json:"treasury"`
}

type GetTreasuryRequest struct {
	TreasuryId string `json:"treasuryId"`
}

type GetTreasuryResponse struct {
	Treasury *Treasury `json:"treasury"`
}

type ListTreasuriesRequest struct{}

type ListTreasuriesResponse struct {
	Treasuries []*Treasury `json:"treasuries"`
}

type DepositRequest struct {
	TreasuryId string `json:"treasuryId"`
	Amount     string `json:"amount"`
}

type DepositResponse struct {
	Event   *Event `json:"event"`
	Balance string `json:"balance"`
}

type GetBalanceRequest struct {
	TreasuryId string `json:"treasuryId"`
}

type GetBalanceResponse struct {
	Balance string `json:"balance"`
	Asset   string `json:"asset"`
}

type GetAdminRequest struct {
	TreasuryId string `json:"treasuryId"`
}

type GetAdminResponse struct {
	Admin string `json:"admin"`
}

// SettleRequest pays Amounts[i] to Recipients[i] for every i, all or nothing.
type SettleRequest struct {
	TreasuryId string   `json:"treasuryId"`
	Recipients []string `json:"recipients"`
	Amounts    []string `json:"amounts"`
	RunId      string   `json:"runId"`
}

type SettleResponse struct {
	Event   *Event `json:"event"`
	Balance string `json:"balance"`
}

type WithdrawRequest struct {
	TreasuryId string `json:"treasuryId"`
	Amount     string `json:"amount"`
	Recipient  string `json:"recipient"`
}

type WithdrawResponse struct {
	Event   *Event `json:"event"`
	Balance string `json:"balance"`
}

type SetAdminRequest struct {
	TreasuryId string `json:"treasuryId"`
	NewAdmin   string `json:"newAdmin"`
}

type SetAdminResponse struct {
	Event *Event `json:"event"`
}

type ListEventsRequest struct {
	TreasuryId string `json:"treasuryId"`
	AfterSeq   uint64 `json:"afterSeq"`
	// Limit caps the page size; 0 selects the server default.
	Limit int32 `json:"limit"`
}

type ListEventsResponse struct {
	Events []*Event `json:"events"`
	// NextAfterSeq is the AfterSeq for the following page.
	NextAfterSeq uint64 `json:"nextAfterSeq"`
}

type VerifyTreasuryRequest struct {
	TreasuryId string `json:"treasuryId"`
}

type VerifyTreasuryResponse struct {
	Ok          bool     `json:"ok"`
	Problems    []string `json:"problems,omitempty"`
	Deposited   string   `json:"deposited"`
	Settled     string   `json:"settled"`
	Withdrawn   string   `json:"withdrawn"`
	Balance     string   `json:"balance"`
	Settlements int      `json:"settlements"`
	Events      int      `json:"events"`
}
