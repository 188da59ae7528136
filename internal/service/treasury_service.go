package service

import (
	"context"
	"log/slog"
	"math/big"

	"connectrpc.com/connect"

	"github.com/mmynk/treasury/internal/ledger"
	"github.com/mmynk/treasury/internal/models"
	v1 "github.com/mmynk/treasury/pkg/api/treasuryv1"
	"github.com/mmynk/treasury/pkg/api/treasuryv1/treasuryv1connect"
)

const (
	defaultEventPage = 100
	maxEventPage     = 1000
)

// RestrictedProcedures are the RPCs that act on behalf of a caller and so
// require a valid token.
var RestrictedProcedures = []string{
	treasuryv1connect.TreasuryServiceCreateTreasuryProcedure,
	treasuryv1connect.TreasuryServiceDepositProcedure,
	treasuryv1connect.TreasuryServiceSettleProcedure,
	treasuryv1connect.TreasuryServiceWithdrawProcedure,
	treasuryv1connect.TreasuryServiceSetAdminProcedure,
}

// TreasuryService implements the Connect TreasuryService
type TreasuryService struct {
	treasuryv1connect.UnimplementedTreasuryServiceHandler
	ledger *ledger.Ledger
}

// NewTreasuryService creates a new TreasuryService over the given ledger.
func NewTreasuryService(l *ledger.Ledger) *TreasuryService {
	return &TreasuryService{ledger: l}
}

// fail logs a failed operation and converts err for the wire. Rejections are
// expected traffic and logged at debug; everything else is an error.
func fail(op string, err error, attrs ...any) error {
	attrs = append(attrs, "error", err, "kind", ledger.Kind(err))
	if ledger.IsRejection(err) {
		slog.Debug(op+" rejected", attrs...)
	} else {
		slog.Error(op+" failed", attrs...)
	}
	return toConnectError(err)
}

// CreateTreasury opens a treasury. The admin defaults to the caller.
func (s *TreasuryService) CreateTreasury(ctx context.Context, req *connect.Request[v1.CreateTreasuryRequest]) (*connect.Response[v1.CreateTreasuryResponse], error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	admin := caller
	if req.Msg.Admin != "" {
		if admin, err = parseAddress("admin", req.Msg.Admin); err != nil {
			return nil, err
		}
	}

	t, err := s.ledger.Create(ctx, admin, req.Msg.Asset)
	if err != nil {
		return nil, fail("CreateTreasury", err, "caller", caller.Hex(), "asset", req.Msg.Asset)
	}

	return connect.NewResponse(&v1.CreateTreasuryResponse{Treasury: toTreasury(t)}), nil
}

// GetTreasury returns a treasury snapshot.
func (s *TreasuryService) GetTreasury(ctx context.Context, req *connect.Request[v1.GetTreasuryRequest]) (*connect.Response[v1.GetTreasuryResponse], error) {
	t, err := s.ledger.Treasury(ctx, req.Msg.TreasuryId)
	if err != nil {
		return nil, fail("GetTreasury", err, "treasury_id", req.Msg.TreasuryId)
	}
	return connect.NewResponse(&v1.GetTreasuryResponse{Treasury: toTreasury(t)}), nil
}

// ListTreasuries returns every treasury.
func (s *TreasuryService) ListTreasuries(ctx context.Context, req *connect.Request[v1.ListTreasuriesRequest]) (*connect.Response[v1.ListTreasuriesResponse], error) {
	treasuries, err := s.ledger.Treasuries(ctx)
	if err != nil {
		return nil, fail("ListTreasuries", err)
	}

	out := make([]*v1.Treasury, len(treasuries))
	for i, t := range treasuries {
		out[i] = toTreasury(t)
	}
	return connect.NewResponse(&v1.ListTreasuriesResponse{Treasuries: out}), nil
}

// Deposit pulls funds from the caller into the treasury.
func (s *TreasuryService) Deposit(ctx context.Context, req *connect.Request[v1.DepositRequest]) (*connect.Response[v1.DepositResponse], error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}

	r, err := s.ledger.Deposit(ctx, req.Msg.TreasuryId, caller, amount)
	if err != nil {
		return nil, fail("Deposit", err, "treasury_id", req.Msg.TreasuryId, "caller", caller.Hex(), "amount", req.Msg.Amount)
	}

	return connect.NewResponse(&v1.DepositResponse{
		Event:   toEvent(r.Event),
		Balance: r.Balance.String(),
	}), nil
}

// GetBalance returns the treasury's balance.
func (s *TreasuryService) GetBalance(ctx context.Context, req *connect.Request[v1.GetBalanceRequest]) (*connect.Response[v1.GetBalanceResponse], error) {
	t, err := s.ledger.Treasury(ctx, req.Msg.TreasuryId)
	if err != nil {
		return nil, fail("GetBalance", err, "treasury_id", req.Msg.TreasuryId)
	}
	return connect.NewResponse(&v1.GetBalanceResponse{
		Balance: models.FormatAmount(t.Balance),
		Asset:   t.Asset,
	}), nil
}

// GetAdmin returns the treasury's admin.
func (s *TreasuryService) GetAdmin(ctx context.Context, req *connect.Request[v1.GetAdminRequest]) (*connect.Response[v1.GetAdminResponse], error) {
	admin, err := s.ledger.Admin(ctx, req.Msg.TreasuryId)
	if err != nil {
		return nil, fail("GetAdmin", err, "treasury_id", req.Msg.TreasuryId)
	}
	return connect.NewResponse(&v1.GetAdminResponse{Admin: admin.Hex()}), nil
}

// Settle executes a settlement batch, all or nothing.
func (s *TreasuryService) Settle(ctx context.Context, req *connect.Request[v1.SettleRequest]) (*connect.Response[v1.SettleResponse], error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	runID, err := models.ParseRunID(req.Msg.RunId)
	if err != nil {
		return nil, invalidArgument("run_id", err)
	}
	recipients := make([]models.Address, len(req.Msg.Recipients))
	for i, r := range req.Msg.Recipients {
		if recipients[i], err = models.ParseAddress(r); err != nil {
			return nil, invalidArgument("recipients", err)
		}
	}
	amounts := make([]*big.Int, len(req.Msg.Amounts))
	for i, a := range req.Msg.Amounts {
		if amounts[i], err = models.ParseAmount(a); err != nil {
			return nil, invalidArgument("amounts", err)
		}
	}

	slog.Debug("Settlement requested",
		"treasury_id", req.Msg.TreasuryId,
		"caller", caller.Hex(),
		"run_id", runID.Hex(),
		"recipients", len(recipients),
	)

	batch, err := ledger.NewBatch(runID, recipients, amounts)
	if err != nil {
		return nil, fail("Settle", err, "treasury_id", req.Msg.TreasuryId, "run_id", runID.Hex())
	}

	r, err := s.ledger.Settle(ctx, req.Msg.TreasuryId, caller, batch)
	if err != nil {
		return nil, fail("Settle", err, "treasury_id", req.Msg.TreasuryId, "caller", caller.Hex(), "run_id", runID.Hex())
	}

	return connect.NewResponse(&v1.SettleResponse{
		Event:   toEvent(r.Event),
		Balance: r.Balance.String(),
	}), nil
}

// Withdraw is the admin's emergency drain.
func (s *TreasuryService) Withdraw(ctx context.Context, req *connect.Request[v1.WithdrawRequest]) (*connect.Response[v1.WithdrawResponse], error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddress("recipient", req.Msg.Recipient)
	if err != nil {
		return nil, err
	}

	r, err := s.ledger.Withdraw(ctx, req.Msg.TreasuryId, caller, amount, recipient)
	if err != nil {
		return nil, fail("Withdraw", err, "treasury_id", req.Msg.TreasuryId, "caller", caller.Hex(), "amount", req.Msg.Amount)
	}

	return connect.NewResponse(&v1.WithdrawResponse{
		Event:   toEvent(r.Event),
		Balance: r.Balance.String(),
	}), nil
}

// SetAdmin hands the treasury to a new admin.
func (s *TreasuryService) SetAdmin(ctx context.Context, req *connect.Request[v1.SetAdminRequest]) (*connect.Response[v1.SetAdminResponse], error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	next, err := parseAddress("new_admin", req.Msg.NewAdmin)
	if err != nil {
		return nil, err
	}

	r, err := s.ledger.SetAdmin(ctx, req.Msg.TreasuryId, caller, next)
	if err != nil {
		return nil, fail("SetAdmin", err, "treasury_id", req.Msg.TreasuryId, "caller", caller.Hex())
	}
	return connect.NewResponse(&v1.SetAdminResponse{Event: toEvent(r.Event)}), nil
}

// ListEvents pages through a treasury's event log for reconciliation.
func (s *TreasuryService) ListEvents(ctx context.Context, req *connect.Request[v1.ListEventsRequest]) (*connect.Response[v1.ListEventsResponse], error) {
	limit := int(req.Msg.Limit)
	switch {
	case limit <= 0:
		limit = defaultEventPage
	case limit > maxEventPage:
		limit = maxEventPage
	}

	events, err := s.ledger.Events(ctx, req.Msg.TreasuryId, req.Msg.AfterSeq, limit)
	if err != nil {
		return nil, fail("ListEvents", err, "treasury_id", req.Msg.TreasuryId)
	}

	resp := &v1.ListEventsResponse{
		Events:       make([]*v1.Event, len(events)),
		NextAfterSeq: req.Msg.AfterSeq,
	}
	for i, e := range events {
		resp.Events[i] = toEvent(e)
		resp.NextAfterSeq = e.Seq
	}
	return connect.NewResponse(resp), nil
}

// VerifyTreasury audits a treasury against its event log.
func (s *TreasuryService) VerifyTreasury(ctx context.Context, req *connect.Request[v1.VerifyTreasuryRequest]) (*connect.Response[v1.VerifyTreasuryResponse], error) {
	report, err := s.ledger.Audit(ctx, req.Msg.TreasuryId)
	if err != nil {
		return nil, fail("VerifyTreasury", err, "treasury_id", req.Msg.TreasuryId)
	}

	resp := &v1.VerifyTreasuryResponse{Ok: report.OK(), Problems: report.Problems}
	if c := report.Conservation; c != nil {
		resp.Deposited = c.Deposited.String()
		resp.Settled = c.Settled.String()
		resp.Withdrawn = c.Withdrawn.String()
		resp.Balance = c.Balance.String()
		resp.Settlements = c.Settlements
		resp.Events = c.Events
	}
	return connect.NewResponse(resp), nil
}
