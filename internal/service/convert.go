package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/treasury/internal/ledger"
	"github.com/mmynk/treasury/internal/middleware"
	"github.com/mmynk/treasury/internal/models"
	v1 "github.com/mmynk/treasury/pkg/api/treasuryv1"
)

// codes maps ledger errors onto Connect codes. Order matters: a failed
// rollback is reported as internal even though it also wraps ErrTransferFailed.
var codes = []struct {
	err  error
	code connect.Code
}{
	{ledger.ErrRollbackFailed, connect.CodeInternal},
	{ledger.ErrUnauthorized, connect.CodePermissionDenied},
	{ledger.ErrInvalidAmount, connect.CodeInvalidArgument},
	{ledger.ErrInvalidBatch, connect.CodeInvalidArgument},
	{ledger.ErrCustodyRecipient, connect.CodeInvalidArgument},
	{ledger.ErrZeroAddress, connect.CodeInvalidArgument},
	{ledger.ErrInsufficientBalance, connect.CodeFailedPrecondition},
	{ledger.ErrTransferFailed, connect.CodeAborted},
	{ledger.ErrNotFound, connect.CodeNotFound},
	{ledger.ErrUnknownAsset, connect.CodeNotFound},
	{ledger.ErrDuplicateRun, connect.CodeAlreadyExists},
}

// toConnectError converts a ledger error to a Connect error.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return connect.NewError(c.code, err)
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}

// requireCaller returns the authenticated wallet or an Unauthenticated error.
func requireCaller(ctx context.Context) (models.Address, error) {
	caller, ok := middleware.GetCaller(ctx)
	if !ok {
		return caller, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	return caller, nil
}

func invalidArgument(field string, err error) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s: %w", field, err))
}

func parseAddress(field, s string) (models.Address, error) {
	a, err := models.ParseAddress(s)
	if err != nil {
		return a, invalidArgument(field, err)
	}
	return a, nil
}

func parseAmount(field, s string) (*big.Int, error) {
	v, err := models.ParseAmount(s)
	if err != nil {
		return nil, invalidArgument(field, err)
	}
	return v, nil
}

func toTreasury(t *models.Treasury) *v1.Treasury {
	return &v1.Treasury{
		Id:        t.ID,
		Account:   t.Account.Hex(),
		Asset:     t.Asset,
		Admin:     t.Admin.Hex(),
		Balance:   models.FormatAmount(t.Balance),
		Seq:       t.Seq,
		Head:      t.Head,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toEvent(e models.Event) *v1.Event {
	hex := func(a *models.Address) string {
		if a == nil {
			return ""
		}
		return a.Hex()
	}

	out := &v1.Event{
		TreasuryId:     e.TreasuryID,
		Seq:            e.Seq,
		Kind:           string(e.Kind),
		At:             e.At.UTC().Format(time.RFC3339Nano),
		Admin:          hex(e.Data.Admin),
		Asset:          e.Data.Asset,
		Depositor:      hex(e.Data.Depositor),
		Recipient:      hex(e.Data.Recipient),
		Previous:       hex(e.Data.Previous),
		Next:           hex(e.Data.Next),
		RecipientCount: e.Data.RecipientCount,
		PrevHash:       e.PrevHash,
		Hash:           e.Hash,
	}
	if e.Data.Amount != nil {
		out.Amount = e.Data.Amount.String()
	}
	if e.Data.RunID != nil {
		out.RunId = e.Data.RunID.Hex()
	}
	return out
}
