package grpcserver

import (
	"context"
	"errors"

	"github.com/MarkoPoloResearchLab/pixelcredits/api/credit/v1"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	errorInsufficientCredits     = "insufficient_credits"
	errorDuplicateEmail          = "duplicate_email"
	errorDuplicateIdempotencyKey = "duplicate_idempotency_key"
	errorAccountNotFound         = "account_not_found"
	errorPlanNotFound            = "plan_not_found"
	errorRequestNotFound         = "request_not_found"
	errorPaymentMethodNotFound   = "payment_method_not_found"
	errorRequestClosed           = "request_closed"
	errorAwardSkipped            = "award_skipped"
	errorGenerationFailed        = "generation_failed"
	errorValidation              = "validation_error"
	errorInternal                = "internal_error"
)

// CreditAdminServer exposes administrative credit operations over gRPC.
type CreditAdminServer struct {
	creditv1.UnimplementedCreditAdminServer
	creditService *credits.Service
	logger        *zap.Logger
}

// NewCreditAdminServer constructs a gRPC server for the credits service.
func NewCreditAdminServer(creditService *credits.Service, logger *zap.Logger) *CreditAdminServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditAdminServer{creditService: creditService, logger: logger}
}

func (server *CreditAdminServer) GetAccount(ctx context.Context, request *creditv1.GetAccountRequest) (*creditv1.AccountResponse, error) {
	var (
		account credits.Account
		err     error
	)
	if request.AccountId != "" {
		accountID, parseErr := credits.NewAccountID(request.AccountId)
		if parseErr != nil {
			return nil, server.mapToGRPCError(parseErr)
		}
		account, err = server.creditService.GetAccount(ctx, accountID)
	} else {
		email, parseErr := credits.NewEmail(request.Email)
		if parseErr != nil {
			return nil, server.mapToGRPCError(parseErr)
		}
		account, err = server.creditService.FindAccountByEmail(ctx, email)
	}
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	return &creditv1.AccountResponse{Account: accountMessage(account)}, nil
}

func (server *CreditAdminServer) CreateAccount(ctx context.Context, request *creditv1.CreateAccountRequest) (*creditv1.AccountResponse, error) {
	email, err := credits.NewEmail(request.Email)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	var account credits.Account
	if request.Role == "" {
		account, err = server.creditService.Register(ctx, email)
	} else {
		role, parseErr := credits.ParseRole(request.Role)
		if parseErr != nil {
			return nil, server.mapToGRPCError(parseErr)
		}
		initialCredits, parseErr := credits.NewCredits(request.InitialCredits)
		if parseErr != nil {
			return nil, server.mapToGRPCError(parseErr)
		}
		account, err = server.creditService.CreateAccount(ctx, email, initialCredits, role)
	}
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	return &creditv1.AccountResponse{Account: accountMessage(account)}, nil
}

func (server *CreditAdminServer) GrantCredits(ctx context.Context, request *creditv1.GrantCreditsRequest) (*creditv1.AccountResponse, error) {
	accountID, err := credits.NewAccountID(request.AccountId)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	amount, err := credits.NewPositiveCredits(request.Amount)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	account, err := server.creditService.GrantCredits(ctx, accountID, amount)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	return &creditv1.AccountResponse{Account: accountMessage(account)}, nil
}

func (server *CreditAdminServer) SetCredits(ctx context.Context, request *creditv1.SetCreditsRequest) (*creditv1.AccountResponse, error) {
	accountID, err := credits.NewAccountID(request.AccountId)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	amount, err := credits.NewCredits(request.Amount)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	account, err := server.creditService.SetCredits(ctx, accountID, amount)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	return &creditv1.AccountResponse{Account: accountMessage(account)}, nil
}

func (server *CreditAdminServer) DeleteAccount(ctx context.Context, request *creditv1.DeleteAccountRequest) (*creditv1.Empty, error) {
	accountID, err := credits.NewAccountID(request.AccountId)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	if err := server.creditService.DeleteAccount(ctx, accountID); err != nil {
		return nil, server.mapToGRPCError(err)
	}
	return &creditv1.Empty{}, nil
}

func (server *CreditAdminServer) ListRequests(ctx context.Context, request *creditv1.ListRequestsRequest) (*creditv1.ListRequestsResponse, error) {
	var filter credits.RequestFilter
	if request.AccountId != "" {
		accountID, err := credits.NewAccountID(request.AccountId)
		if err != nil {
			return nil, server.mapToGRPCError(err)
		}
		filter.AccountID = accountID
	}
	if request.Status != "" {
		requestStatus, err := credits.ParseRequestStatus(request.Status)
		if err != nil {
			return nil, server.mapToGRPCError(err)
		}
		filter.Status = requestStatus
	}
	requests, err := server.creditService.ListRequests(ctx, filter)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	response := &creditv1.ListRequestsResponse{Requests: make([]*creditv1.PurchaseRequest, 0, len(requests))}
	for _, purchaseRequest := range requests {
		response.Requests = append(response.Requests, requestMessage(purchaseRequest))
	}
	return response, nil
}

func (server *CreditAdminServer) SetRequestStatus(ctx context.Context, request *creditv1.SetRequestStatusRequest) (*creditv1.PurchaseRequestResponse, error) {
	requestID, err := credits.NewRequestID(request.RequestId)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	target, err := credits.ParseRequestStatus(request.Status)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	updated, err := server.creditService.SetRequestStatus(ctx, requestID, target)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	return &creditv1.PurchaseRequestResponse{Request: requestMessage(updated)}, nil
}

func (server *CreditAdminServer) ListPlans(ctx context.Context, _ *creditv1.ListPlansRequest) (*creditv1.ListPlansResponse, error) {
	plans, err := server.creditService.ListPlans(ctx)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	response := &creditv1.ListPlansResponse{Plans: make([]*creditv1.Plan, 0, len(plans))}
	for _, plan := range plans {
		response.Plans = append(response.Plans, planMessage(plan))
	}
	return response, nil
}

func (server *CreditAdminServer) CreatePlan(ctx context.Context, request *creditv1.CreatePlanRequest) (*creditv1.PlanResponse, error) {
	planType, err := credits.ParsePlanType(request.Type)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	terms, err := credits.NewPlanTerms(planType, int(request.DurationDays), request.DailyCreditAmount)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	price, err := credits.NewPrice(request.Price)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	planCredits, err := credits.NewCredits(request.Credits)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	plan, err := server.creditService.CreatePlan(ctx, request.Name, request.Description, price, planCredits, terms)
	if err != nil {
		return nil, server.mapToGRPCError(err)
	}
	return &creditv1.PlanResponse{Plan: planMessage(plan)}, nil
}

func accountMessage(account credits.Account) *creditv1.Account {
	message := &creditv1.Account{
		AccountId:      account.ID().String(),
		Email:          account.Email().String(),
		Credits:        account.Credits().Int64(),
		Role:           account.Role().String(),
		CreatedUnixUtc: account.CreatedUnixUTC(),
	}
	if lastGrant, ok := account.LastCreditGrantDate(); ok {
		message.LastCreditGrantDate = lastGrant.String()
	}
	return message
}

func requestMessage(request credits.PurchaseRequest) *creditv1.PurchaseRequest {
	return &creditv1.PurchaseRequest{
		RequestId:      request.ID().String(),
		AccountId:      request.AccountID().String(),
		Email:          request.Email().String(),
		PlanId:         request.PlanID().String(),
		PlanName:       request.PlanName(),
		CreditsToAward: request.CreditsToAward().Int64(),
		TransactionId:  request.TransactionID().String(),
		Note:           request.Note(),
		Date:           request.Date().String(),
		Status:         request.Status().String(),
	}
}

func planMessage(plan credits.Plan) *creditv1.Plan {
	message := &creditv1.Plan{
		PlanId:      plan.ID().String(),
		Name:        plan.Name(),
		Description: plan.Description(),
		Type:        plan.Type().String(),
		Price:       plan.Price().Int64(),
		Credits:     plan.Credits().Int64(),
	}
	if days, ok := plan.Terms().DurationDays(); ok {
		message.DurationDays = int32(days)
	}
	if amount, ok := plan.Terms().DailyCreditAmount(); ok {
		message.DailyCreditAmount = amount.Int64()
	}
	return message
}

func (server *CreditAdminServer) mapToGRPCError(source error) error {
	switch {
	case errors.Is(source, credits.ErrValidation):
		return status.Error(codes.InvalidArgument, errorValidation+": "+source.Error())
	case errors.Is(source, credits.ErrInsufficientCredits):
		return status.Error(codes.FailedPrecondition, errorInsufficientCredits)
	case errors.Is(source, credits.ErrAwardSkipped):
		return status.Error(codes.FailedPrecondition, errorAwardSkipped)
	case errors.Is(source, credits.ErrRequestClosed):
		return status.Error(codes.FailedPrecondition, errorRequestClosed)
	case errors.Is(source, credits.ErrGenerationFailed):
		return status.Error(codes.Unavailable, errorGenerationFailed)
	case errors.Is(source, credits.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, errorDuplicateEmail)
	case errors.Is(source, credits.ErrDuplicateIdempotencyKey):
		return status.Error(codes.AlreadyExists, errorDuplicateIdempotencyKey)
	case errors.Is(source, credits.ErrAccountNotFound):
		return status.Error(codes.NotFound, errorAccountNotFound)
	case errors.Is(source, credits.ErrPlanNotFound):
		return status.Error(codes.NotFound, errorPlanNotFound)
	case errors.Is(source, credits.ErrRequestNotFound):
		return status.Error(codes.NotFound, errorRequestNotFound)
	case errors.Is(source, credits.ErrPaymentMethodNotFound):
		return status.Error(codes.NotFound, errorPaymentMethodNotFound)
	}
	server.logger.Error("credit admin rpc failed", zap.Error(source))
	return status.Error(codes.Internal, errorInternal)
}
