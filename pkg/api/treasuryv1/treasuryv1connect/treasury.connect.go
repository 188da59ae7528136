// Package treasuryv1connect wires the treasury.v1 API onto Connect.
//
// Messages are plain Go structs carried by a JSON codec, so any Connect or
// HTTP/JSON client can call the service with POST /treasury.v1.TreasuryService/<Method>.
package treasuryv1connect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	v1 "github.com/mmynk/treasury/pkg/api/treasuryv1"
)

// TreasuryServiceName is the fully-qualified name of the TreasuryService service.
const TreasuryServiceName = "treasury.v1.TreasuryService"

// Procedure paths of the TreasuryService RPCs.
const (
	TreasuryServiceCreateTreasuryProcedure = "/treasury.v1.TreasuryService/CreateTreasury"
	TreasuryServiceGetTreasuryProcedure    = "/treasury.v1.TreasuryService/GetTreasury"
	TreasuryServiceListTreasuriesProcedure = "/treasury.v1.TreasuryService/ListTreasuries"
	TreasuryServiceDepositProcedure        = "/treasury.v1.TreasuryService/Deposit"
	TreasuryServiceGetBalanceProcedure     = "/treasury.v1.TreasuryService/GetBalance"
	TreasuryServiceGetAdminProcedure       = "/treasury.v1.TreasuryService/GetAdmin"
	TreasuryServiceSettleProcedure         = "/treasury.v1.TreasuryService/Settle"
	TreasuryServiceWithdrawProcedure       = "/treasury.v1.TreasuryService/Withdraw"
	TreasuryServiceSetAdminProcedure       = "/treasury.v1.TreasuryService/SetAdmin"
	TreasuryServiceListEventsProcedure     = "/treasury.v1.TreasuryService/ListEvents"
	TreasuryServiceVerifyTreasuryProcedure = "/treasury.v1.TreasuryService/VerifyTreasury"
)

// Codec is the JSON codec both ends of the service use. It replaces
// Connect's default "json" codec, which only accepts protobuf messages.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// TreasuryServiceClient is a client for the treasury.v1.TreasuryService service.
type TreasuryServiceClient interface {
	CreateTreasury(context.Context, *connect.Request[v1.CreateTreasuryRequest]) (*connect.Response[v1.CreateTreasuryResponse], error)
	GetTreasury(context.Context, *connect.Request[v1.GetTreasuryRequest]) (*connect.Response[v1.GetTreasuryResponse], error)
	ListTreasuries(context.Context, *connect.Request[v1.ListTreasuriesRequest]) (*connect.Response[v1.ListTreasuriesResponse], error)
	Deposit(context.Context, *connect.Request[v1.DepositRequest]) (*connect.Response[v1.DepositResponse], error)
	GetBalance(context.Context, *connect.Request[v1.GetBalanceRequest]) (*connect.Response[v1.GetBalanceResponse], error)
	GetAdmin(context.Context, *connect.Request[v1.GetAdminRequest]) (*connect.Response[v1.GetAdminResponse], error)
	Settle(context.Context, *connect.Request[v1.SettleRequest]) (*connect.Response[v1.SettleResponse], error)
	Withdraw(context.Context, *connect.Request[v1.WithdrawRequest]) (*connect.Response[v1.WithdrawResponse], error)
	SetAdmin(context.Context, *connect.Request[v1.SetAdminRequest]) (*connect.Response[v1.SetAdminResponse], error)
	ListEvents(context.Context, *connect.Request[v1.ListEventsRequest]) (*connect.Response[v1.ListEventsResponse], error)
	VerifyTreasury(context.Context, *connect.Request[v1.VerifyTreasuryRequest]) (*connect.Response[v1.VerifyTreasuryResponse], error)
}

// NewTreasuryServiceClient constructs a client for the treasury.v1.TreasuryService
// service. baseURL is the server root, e.g. http://localhost:8080.
func NewTreasuryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TreasuryServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &treasuryServiceClient{
		createTreasury: connect.NewClient[v1.CreateTreasuryRequest, v1.CreateTreasuryResponse](httpClient, baseURL+TreasuryServiceCreateTreasuryProcedure, opts...),
		getTreasury:    connect.NewClient[v1.GetTreasuryRequest, v1.GetTreasuryResponse](httpClient, baseURL+TreasuryServiceGetTreasuryProcedure, opts...),
		listTreasuries: connect.NewClient[v1.ListTreasuriesRequest, v1.ListTreasuriesResponse](httpClient, baseURL+TreasuryServiceListTreasuriesProcedure, opts...),
		deposit:        connect.NewClient[v1.DepositRequest, v1.DepositResponse](httpClient, baseURL+TreasuryServiceDepositProcedure, opts...),
		getBalance:     connect.NewClient[v1.GetBalanceRequest, v1.GetBalanceResponse](httpClient, baseURL+TreasuryServiceGetBalanceProcedure, opts...),
		getAdmin:       connect.NewClient[v1.GetAdminRequest, v1.GetAdminResponse](httpClient, baseURL+TreasuryServiceGetAdminProcedure, opts...),
		settle:         connect.NewClient[v1.SettleRequest, v1.SettleResponse](httpClient, baseURL+TreasuryServiceSettleProcedure, opts...),
		withdraw:       connect.NewClient[v1.WithdrawRequest, v1.WithdrawResponse](httpClient, baseURL+TreasuryServiceWithdrawProcedure, opts...),
		setAdmin:       connect.NewClient[v1.SetAdminRequest, v1.SetAdminResponse](httpClient, baseURL+TreasuryServiceSetAdminProcedure, opts...),
		listEvents:     connect.NewClient[v1.ListEventsRequest, v1.ListEventsResponse](httpClient, baseURL+TreasuryServiceListEventsProcedure, opts...),
		verifyTreasury: connect.NewClient[v1.VerifyTreasuryRequest, v1.VerifyTreasuryResponse](httpClient, baseURL+TreasuryServiceVerifyTreasuryProcedure, opts...),
	}
}

type treasuryServiceClient struct {
	createTreasury *connect.Client[v1.CreateTreasuryRequest, v1.CreateTreasuryResponse]
	getTreasury    *connect.Client[v1.GetTreasuryRequest, v1.GetTreasuryResponse]
	listTreasuries *connect.Client[v1.ListTreasuriesRequest, v1.ListTreasuriesResponse]
	deposit        *connect.Client[v1.DepositRequest, v1.DepositResponse]
	getBalance     *connect.Client[v1.GetBalanceRequest, v1.GetBalanceResponse]
	getAdmin       *connect.Client[v1.GetAdminRequest, v1.GetAdminResponse]
	settle         *connect.Client[v1.SettleRequest, v1.SettleResponse]
	withdraw       *connect.Client[v1.WithdrawRequest, v1.WithdrawResponse]
	setAdmin       *connect.Client[v1.SetAdminRequest, v1.SetAdminResponse]
	listEvents     *connect.Client[v1.ListEventsRequest, v1.ListEventsResponse]
	verifyTreasury *connect.Client[v1.VerifyTreasuryRequest, v1.VerifyTreasuryResponse]
}

func (c *treasuryServiceClient) CreateTreasury(ctx context.Context, req *connect.Request[v1.CreateTreasuryRequest]) (*connect.Response[v1.CreateTreasuryResponse], error) {
	return c.createTreasury.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) GetTreasury(ctx context.Context, req *connect.Request[v1.GetTreasuryRequest]) (*connect.Response[v1.GetTreasuryResponse], error) {
	return c.getTreasury.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) ListTreasuries(ctx context.Context, req *connect.Request[v1.ListTreasuriesRequest]) (*connect.Response[v1.ListTreasuriesResponse], error) {
	return c.listTreasuries.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) Deposit(ctx context.Context, req *connect.Request[v1.DepositRequest]) (*connect.Response[v1.DepositResponse], error) {
	return c.deposit.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) GetBalance(ctx context.Context, req *connect.Request[v1.GetBalanceRequest]) (*connect.Response[v1.GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) GetAdmin(ctx context.Context, req *connect.Request[v1.GetAdminRequest]) (*connect.Response[v1.GetAdminResponse], error) {
	return c.getAdmin.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) Settle(ctx context.Context, req *connect.Request[v1.SettleRequest]) (*connect.Response[v1.SettleResponse], error) {
	return c.settle.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) Withdraw(ctx context.Context, req *connect.Request[v1.WithdrawRequest]) (*connect.Response[v1.WithdrawResponse], error) {
	return c.withdraw.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) SetAdmin(ctx context.Context, req *connect.Request[v1.SetAdminRequest]) (*connect.Response[v1.SetAdminResponse], error) {
	return c.setAdmin.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) ListEvents(ctx context.Context, req *connect.Request[v1.ListEventsRequest]) (*connect.Response[v1.ListEventsResponse], error) {
	return c.listEvents.CallUnary(ctx, req)
}

func (c *treasuryServiceClient) VerifyTreasury(ctx context.Context, req *connect.Request[v1.VerifyTreasuryRequest]) (*connect.Response[v1.VerifyTreasuryResponse], error) {
	return c.verifyTreasury.CallUnary(ctx, req)
}

// TreasuryServiceHandler is implemented by servers of the treasury.v1.TreasuryService service.
type TreasuryServiceHandler interface {
	CreateTreasury(context.Context, *connect.Request[v1.CreateTreasuryRequest]) (*connect.Response[v1.CreateTreasuryResponse], error)
	GetTreasury(context.Context, *connect.Request[v1.GetTreasuryRequest]) (*connect.Response[v1.GetTreasuryResponse], error)
	ListTreasuries(context.Context, *connect.Request[v1.ListTreasuriesRequest]) (*connect.Response[v1.ListTreasuriesResponse], error)
	Deposit(context.Context, *connect.Request[v1.DepositRequest]) (*connect.Response[v1.DepositResponse], error)
	GetBalance(context.Context, *connect.Request[v1.GetBalanceRequest]) (*connect.Response[v1.GetBalanceResponse], error)
	GetAdmin(context.Context, *connect.Request[v1.GetAdminRequest]) (*connect.Response[v1.GetAdminResponse], error)
	Settle(context.Context, *connect.Request[v1.SettleRequest]) (*connect.Response[v1.SettleResponse], error)
	Withdraw(context.Context, *connect.Request[v1.WithdrawRequest]) (*connect.Response[v1.WithdrawResponse], error)
	SetAdmin(context.Context, *connect.Request[v1.SetAdminRequest]) (*connect.Response[v1.SetAdminResponse], error)
	ListEvents(context.Context, *connect.Request[v1.ListEventsRequest]) (*connect.Response[v1.ListEventsResponse], error)
	VerifyTreasury(context.Context, *connect.Request[v1.VerifyTreasuryRequest]) (*connect.Response[v1.VerifyTreasuryResponse], error)
}

// NewTreasuryServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewTreasuryServiceHandler(svc TreasuryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(TreasuryServiceCreateTreasuryProcedure, connect.NewUnaryHandler(TreasuryServiceCreateTreasuryProcedure, svc.CreateTreasury, opts...))
	mux.Handle(TreasuryServiceGetTreasuryProcedure, connect.NewUnaryHandler(TreasuryServiceGetTreasuryProcedure, svc.GetTreasury, opts...))
	mux.Handle(TreasuryServiceListTreasuriesProcedure, connect.NewUnaryHandler(TreasuryServiceListTreasuriesProcedure, svc.ListTreasuries, opts...))
	mux.Handle(TreasuryServiceDepositProcedure, connect.NewUnaryHandler(TreasuryServiceDepositProcedure, svc.Deposit, opts...))
	mux.Handle(TreasuryServiceGetBalanceProcedure, connect.NewUnaryHandler(TreasuryServiceGetBalanceProcedure, svc.GetBalance, opts...))
	mux.Handle(TreasuryServiceGetAdminProcedure, connect.NewUnaryHandler(TreasuryServiceGetAdminProcedure, svc.GetAdmin, opts...))
	mux.Handle(TreasuryServiceSettleProcedure, connect.NewUnaryHandler(TreasuryServiceSettleProcedure, svc.Settle, opts...))
	mux.Handle(TreasuryServiceWithdrawProcedure, connect.NewUnaryHandler(TreasuryServiceWithdrawProcedure, svc.Withdraw, opts...))
	mux.Handle(TreasuryServiceSetAdminProcedure, connect.NewUnaryHandler(TreasuryServiceSetAdminProcedure, svc.SetAdmin, opts...))
	mux.Handle(TreasuryServiceListEventsProcedure, connect.NewUnaryHandler(TreasuryServiceListEventsProcedure, svc.ListEvents, opts...))
	mux.Handle(TreasuryServiceVerifyTreasuryProcedure, connect.NewUnaryHandler(TreasuryServiceVerifyTreasuryProcedure, svc.VerifyTreasury, opts...))
	return "/" + TreasuryServiceName + "/", mux
}

// UnimplementedTreasuryServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedTreasuryServiceHandler struct{}

func (UnimplementedTreasuryServiceHandler) CreateTreasury(context.Context, *connect.Request[v1.CreateTreasuryRequest]) (*connect.Response[v1.CreateTreasuryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.CreateTreasury is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) GetTreasury(context.Context, *connect.Request[v1.GetTreasuryRequest]) (*connect.Response[v1.GetTreasuryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.GetTreasury is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) ListTreasuries(context.Context, *connect.Request[v1.ListTreasuriesRequest]) (*connect.Response[v1.ListTreasuriesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.ListTreasuries is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) Deposit(context.Context, *connect.Request[v1.DepositRequest]) (*connect.Response[v1.DepositResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.Deposit is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) GetBalance(context.Context, *connect.Request[v1.GetBalanceRequest]) (*connect.Response[v1.GetBalanceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.GetBalance is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) GetAdmin(context.Context, *connect.Request[v1.GetAdminRequest]) (*connect.Response[v1.GetAdminResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.GetAdmin is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) Settle(context.Context, *connect.Request[v1.SettleRequest]) (*connect.Response[v1.SettleResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.Settle is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) Withdraw(context.Context, *connect.Request[v1.WithdrawRequest]) (*connect.Response[v1.WithdrawResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.Withdraw is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) SetAdmin(context.Context, *connect.Request[v1.SetAdminRequest]) (*connect.Response[v1.SetAdminResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.SetAdmin is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) ListEvents(context.Context, *connect.Request[v1.ListEventsRequest]) (*connect.Response[v1.ListEventsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.ListEvents is not implemented"))
}

func (UnimplementedTreasuryServiceHandler) VerifyTreasury(context.Context, *connect.Request[v1.VerifyTreasuryRequest]) (*connect.Response[v1.VerifyTreasuryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("treasury.v1.TreasuryService.VerifyTreasury is not implemented"))
}
