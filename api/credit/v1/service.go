package creditv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "pixelcredits.credit.v1.CreditAdmin"

	methodGetAccount       = "GetAccount"
	methodCreateAccount    = "CreateAccount"
	methodGrantCredits     = "GrantCredits"
	methodSetCredits       = "SetCredits"
	methodDeleteAccount    = "DeleteAccount"
	methodListRequests     = "ListRequests"
	methodSetRequestStatus = "SetRequestStatus"
	methodListPlans        = "ListPlans"
	methodCreatePlan       = "CreatePlan"
)

// CreditAdminServer is the server API for the CreditAdmin service.
type CreditAdminServer interface {
	GetAccount(context.Context, *GetAccountRequest) (*AccountResponse, error)
	CreateAccount(context.Context, *CreateAccountRequest) (*AccountResponse, error)
	GrantCredits(context.Context, *GrantCreditsRequest) (*AccountResponse, error)
	SetCredits(context.Context, *SetCreditsRequest) (*AccountResponse, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*Empty, error)
	ListRequests(context.Context, *ListRequestsRequest) (*ListRequestsResponse, error)
	SetRequestStatus(context.Context, *SetRequestStatusRequest) (*PurchaseRequestResponse, error)
	ListPlans(context.Context, *ListPlansRequest) (*ListPlansResponse, error)
	CreatePlan(context.Context, *CreatePlanRequest) (*PlanResponse, error)
}

// UnimplementedCreditAdminServer can be embedded to keep servers forward compatible.
type UnimplementedCreditAdminServer struct{}

func (UnimplementedCreditAdminServer) GetAccount(context.Context, *GetAccountRequest) (*AccountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAccount not implemented")
}

func (UnimplementedCreditAdminServer) CreateAccount(context.Context, *CreateAccountRequest) (*AccountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateAccount not implemented")
}

func (UnimplementedCreditAdminServer) GrantCredits(context.Context, *GrantCreditsRequest) (*AccountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GrantCredits not implemented")
}

func (UnimplementedCreditAdminServer) SetCredits(context.Context, *SetCreditsRequest) (*AccountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetCredits not implemented")
}

func (UnimplementedCreditAdminServer) DeleteAccount(context.Context, *DeleteAccountRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteAccount not implemented")
}

func (UnimplementedCreditAdminServer) ListRequests(context.Context, *ListRequestsRequest) (*ListRequestsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRequests not implemented")
}

func (UnimplementedCreditAdminServer) SetRequestStatus(context.Context, *SetRequestStatusRequest) (*PurchaseRequestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetRequestStatus not implemented")
}

func (UnimplementedCreditAdminServer) ListPlans(context.Context, *ListPlansRequest) (*ListPlansResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPlans not implemented")
}

func (UnimplementedCreditAdminServer) CreatePlan(context.Context, *CreatePlanRequest) (*PlanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreatePlan not implemented")
}

// RegisterCreditAdminServer attaches server to registrar.
func RegisterCreditAdminServer(registrar grpc.ServiceRegistrar, server CreditAdminServer) {
	registrar.RegisterService(&CreditAdminServiceDesc, server)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Request any, Response any](method string, call func(CreditAdminServer, context.Context, *Request) (*Response, error)) func(server any, ctx context.Context, decode func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(server any, ctx context.Context, decode func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		request := new(Request)
		if err := decode(request); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(server.(CreditAdminServer), ctx, request)
		}
		info := &grpc.UnaryServerInfo{Server: server, FullMethod: "/" + ServiceName + "/" + method}
		handler := func(ctx context.Context, request any) (any, error) {
			return call(server.(CreditAdminServer), ctx, request.(*Request))
		}
		return interceptor(ctx, request, info, handler)
	}
}

// CreditAdminServiceDesc describes the CreditAdmin service for grpc.Server.
var CreditAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CreditAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodGetAccount, Handler: unaryHandler(methodGetAccount, CreditAdminServer.GetAccount)},
		{MethodName: methodCreateAccount, Handler: unaryHandler(methodCreateAccount, CreditAdminServer.CreateAccount)},
		{MethodName: methodGrantCredits, Handler: unaryHandler(methodGrantCredits, CreditAdminServer.GrantCredits)},
		{MethodName: methodSetCredits, Handler: unaryHandler(methodSetCredits, CreditAdminServer.SetCredits)},
		{MethodName: methodDeleteAccount, Handler: unaryHandler(methodDeleteAccount, CreditAdminServer.DeleteAccount)},
		{MethodName: methodListRequests, Handler: unaryHandler(methodListRequests, CreditAdminServer.ListRequests)},
		{MethodName: methodSetRequestStatus, Handler: unaryHandler(methodSetRequestStatus, CreditAdminServer.SetRequestStatus)},
		{MethodName: methodListPlans, Handler: unaryHandler(methodListPlans, CreditAdminServer.ListPlans)},
		{MethodName: methodCreatePlan, Handler: unaryHandler(methodCreatePlan, CreditAdminServer.CreatePlan)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "credit.proto",
}

// CreditAdminClient is the client API for the CreditAdmin service.
type CreditAdminClient interface {
	GetAccount(ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	GrantCredits(ctx context.Context, in *GrantCreditsRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	SetCredits(ctx context.Context, in *SetCreditsRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*Empty, error)
	ListRequests(ctx context.Context, in *ListRequestsRequest, opts ...grpc.CallOption) (*ListRequestsResponse, error)
	SetRequestStatus(ctx context.Context, in *SetRequestStatusRequest, opts ...grpc.CallOption) (*PurchaseRequestResponse, error)
	ListPlans(ctx context.Context, in *ListPlansRequest, opts ...grpc.CallOption) (*ListPlansResponse, error)
	CreatePlan(ctx context.Context, in *CreatePlanRequest, opts ...grpc.CallOption) (*PlanResponse, error)
}

type creditAdminClient struct {
	conn grpc.ClientConnInterface
}

// NewCreditAdminClient returns a client that always selects the JSON codec.
func NewCreditAdminClient(conn grpc.ClientConnInterface) CreditAdminClient {
	return &creditAdminClient{conn: conn}
}

func invoke[Response any](ctx context.Context, conn grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Response, error) {
	out := new(Response)
	callOptions := append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, callOptions...); err != nil {
		return nil, err
	}
	return out, nil
}

func (client *creditAdminClient) GetAccount(ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, client.conn, methodGetAccount, in, opts)
}

func (client *creditAdminClient) CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, client.conn, methodCreateAccount, in, opts)
}

func (client *creditAdminClient) GrantCredits(ctx context.Context, in *GrantCreditsRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, client.conn, methodGrantCredits, in, opts)
}

func (client *creditAdminClient) SetCredits(ctx context.Context, in *SetCreditsRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, client.conn, methodSetCredits, in, opts)
}

func (client *creditAdminClient) DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, client.conn, methodDeleteAccount, in, opts)
}

func (client *creditAdminClient) ListRequests(ctx context.Context, in *ListRequestsRequest, opts ...grpc.CallOption) (*ListRequestsResponse, error) {
	return invoke[ListRequestsResponse](ctx, client.conn, methodListRequests, in, opts)
}

func (client *creditAdminClient) SetRequestStatus(ctx context.Context, in *SetRequestStatusRequest, opts ...grpc.CallOption) (*PurchaseRequestResponse, error) {
	return invoke[PurchaseRequestResponse](ctx, client.conn, methodSetRequestStatus, in, opts)
}

func (client *creditAdminClient) ListPlans(ctx context.Context, in *ListPlansRequest, opts ...grpc.CallOption) (*ListPlansResponse, error) {
	return invoke[ListPlansResponse](ctx, client.conn, methodListPlans, in, opts)
}

func (client *creditAdminClient) CreatePlan(ctx context.Context, in *CreatePlanRequest, opts ...grpc.CallOption) (*PlanResponse, error) {
	return invoke[PlanResponse](ctx, client.conn, methodCreatePlan, in, opts)
}
