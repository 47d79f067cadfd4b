package grpcserver

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/api/credit/v1"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const bufferSize = 1 << 20

var testNow = time.Date(2026, time.July, 3, 10, 0, 0, 0, time.UTC)

func newTestClient(test *testing.T) (creditv1.CreditAdminClient, *credits.Service) {
	test.Helper()
	db, cleanup, _, err := gormstore.Open(context.Background(), filepath.Join(test.TempDir(), "grpc.db"), nil)
	if err != nil {
		test.Fatalf("open: %v", err)
	}
	test.Cleanup(func() { _ = cleanup() })
	if err := gormstore.Migrate(db); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	adminEmail, err := credits.NewEmail("root@example.com")
	if err != nil {
		test.Fatalf("NewEmail: %v", err)
	}
	service, err := credits.NewService(gormstore.New(db), func() time.Time { return testNow }, credits.WithAdminAccount(adminEmail, 9999))
	if err != nil {
		test.Fatalf("NewService: %v", err)
	}

	listener := bufconn.Listen(bufferSize)
	server := grpc.NewServer()
	creditv1.RegisterCreditAdminServer(server, NewCreditAdminServer(service, zap.NewNop()))
	go func() { _ = server.Serve(listener) }()
	test.Cleanup(server.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		test.Fatalf("dial: %v", err)
	}
	test.Cleanup(func() { _ = conn.Close() })
	return creditv1.NewCreditAdminClient(conn), service
}

func requireCode(test *testing.T, err error, want codes.Code, message string) {
	test.Helper()
	statusInfo, ok := status.FromError(err)
	if !ok {
		test.Fatalf("expected grpc status, got %v", err)
	}
	if statusInfo.Code() != want {
		test.Fatalf("code = %s, want %s (%s)", statusInfo.Code(), want, statusInfo.Message())
	}
	if message != "" && statusInfo.Message() != message {
		test.Fatalf("message = %q, want %q", statusInfo.Message(), message)
	}
}

func TestAccountLifecycleOverGRPC(test *testing.T) {
	test.Parallel()
	client, _ := newTestClient(test)
	ctx := context.Background()

	created, err := client.CreateAccount(ctx, &creditv1.CreateAccountRequest{Email: "Root@Example.com"})
	if err != nil {
		test.Fatalf("CreateAccount: %v", err)
	}
	if created.Account.Role != credits.RoleAdmin.String() || created.Account.Credits != 9999 {
		test.Fatalf("admin email must register as admin, got %+v", created.Account)
	}

	user, err := client.CreateAccount(ctx, &creditv1.CreateAccountRequest{Email: "user@example.com", Role: "user", InitialCredits: 3})
	if err != nil {
		test.Fatalf("CreateAccount user: %v", err)
	}
	accountID := user.Account.AccountId

	granted, err := client.GrantCredits(ctx, &creditv1.GrantCreditsRequest{AccountId: accountID, Amount: 7})
	if err != nil || granted.Account.Credits != 10 {
		test.Fatalf("GrantCredits: %+v, %v", granted, err)
	}
	set, err := client.SetCredits(ctx, &creditv1.SetCreditsRequest{AccountId: accountID, Amount: 2})
	if err != nil || set.Account.Credits != 2 {
		test.Fatalf("SetCredits: %+v, %v", set, err)
	}
	byEmail, err := client.GetAccount(ctx, &creditv1.GetAccountRequest{Email: "USER@example.com"})
	if err != nil || byEmail.Account.AccountId != accountID {
		test.Fatalf("GetAccount by email: %+v, %v", byEmail, err)
	}

	if _, err := client.DeleteAccount(ctx, &creditv1.DeleteAccountRequest{AccountId: accountID}); err != nil {
		test.Fatalf("DeleteAccount: %v", err)
	}
	_, err = client.GetAccount(ctx, &creditv1.GetAccountRequest{AccountId: accountID})
	requireCode(test, err, codes.NotFound, errorAccountNotFound)
}

func TestErrorMapping(test *testing.T) {
	test.Parallel()
	client, _ := newTestClient(test)
	ctx := context.Background()

	if _, err := client.CreateAccount(ctx, &creditv1.CreateAccountRequest{Email: "dup@example.com"}); err != nil {
		test.Fatalf("CreateAccount: %v", err)
	}
	_, err := client.CreateAccount(ctx, &creditv1.CreateAccountRequest{Email: "dup@example.com"})
	requireCode(test, err, codes.AlreadyExists, errorDuplicateEmail)

	_, err = client.CreateAccount(ctx, &creditv1.CreateAccountRequest{Email: "not-an-email"})
	requireCode(test, err, codes.InvalidArgument, "")

	_, err = client.GrantCredits(ctx, &creditv1.GrantCreditsRequest{AccountId: "missing", Amount: 1})
	requireCode(test, err, codes.NotFound, errorAccountNotFound)

	_, err = client.SetRequestStatus(ctx, &creditv1.SetRequestStatusRequest{RequestId: "missing", Status: "approved"})
	requireCode(test, err, codes.NotFound, errorRequestNotFound)

	_, err = client.SetRequestStatus(ctx, &creditv1.SetRequestStatusRequest{RequestId: "missing", Status: "pending"})
	requireCode(test, err, codes.InvalidArgument, "")
}

func TestPlansAndApprovalOverGRPC(test *testing.T) {
	test.Parallel()
	client, service := newTestClient(test)
	ctx := context.Background()

	planResponse, err := client.CreatePlan(ctx, &creditv1.CreatePlanRequest{Name: "Daily Creator", Type: "daily", Price: 300, Credits: 50, DurationDays: 30, DailyCreditAmount: 25})
	if err != nil {
		test.Fatalf("CreatePlan: %v", err)
	}
	_, err = client.CreatePlan(ctx, &creditv1.CreatePlanRequest{Name: "Broken", Type: "daily", Price: 1, Credits: 1})
	requireCode(test, err, codes.InvalidArgument, "")

	plans, err := client.ListPlans(ctx, &creditv1.ListPlansRequest{})
	if err != nil || len(plans.Plans) != 1 || plans.Plans[0].DailyCreditAmount != 25 {
		test.Fatalf("ListPlans: %+v, %v", plans, err)
	}

	user, err := client.CreateAccount(ctx, &creditv1.CreateAccountRequest{Email: "buyer@example.com", Role: "user"})
	if err != nil {
		test.Fatalf("CreateAccount: %v", err)
	}
	accountID, _ := credits.NewAccountID(user.Account.AccountId)
	planID, _ := credits.NewPlanID(planResponse.Plan.PlanId)
	transactionID, _ := credits.NewTransactionID("tx-1")
	method, err := service.AddPaymentMethod(ctx, "Bank", "IBAN 1", "")
	if err != nil {
		test.Fatalf("AddPaymentMethod: %v", err)
	}
	submitted, err := service.SubmitPurchaseRequest(ctx, accountID, planID, transactionID, method.ID(), "thanks")
	if err != nil {
		test.Fatalf("SubmitPurchaseRequest: %v", err)
	}

	pending, err := client.ListRequests(ctx, &creditv1.ListRequestsRequest{Status: "pending"})
	if err != nil || len(pending.Requests) != 1 || pending.Requests[0].Note != "Paid via Bank. thanks" {
		test.Fatalf("ListRequests: %+v, %v", pending, err)
	}

	approved, err := client.SetRequestStatus(ctx, &creditv1.SetRequestStatusRequest{RequestId: submitted.ID().String(), Status: "Approved"})
	if err != nil || approved.Request.Status != credits.RequestStatusApproved.String() {
		test.Fatalf("SetRequestStatus: %+v, %v", approved, err)
	}
	account, err := client.GetAccount(ctx, &creditv1.GetAccountRequest{AccountId: accountID.String()})
	if err != nil {
		test.Fatalf("GetAccount: %v", err)
	}
	if account.Account.Credits != 50 || account.Account.LastCreditGrantDate != "2026-07-03" {
		test.Fatalf("unexpected account after approval %+v", account.Account)
	}

	if _, err := client.DeleteAccount(ctx, &creditv1.DeleteAccountRequest{AccountId: accountID.String()}); err != nil {
		test.Fatalf("DeleteAccount: %v", err)
	}
	_, err = client.SetRequestStatus(ctx, &creditv1.SetRequestStatusRequest{RequestId: submitted.ID().String(), Status: "rejected"})
	if err != nil {
		test.Fatalf("terminal to terminal change must succeed, got %v", err)
	}
}

func TestMapToGRPCErrorHidesInternalDetails(test *testing.T) {
	test.Parallel()
	server := NewCreditAdminServer(nil, nil)
	err := server.mapToGRPCError(errors.New("disk on fire"))
	requireCode(test, err, codes.Internal, errorInternal)
	err = server.mapToGRPCError(credits.WrapError("approval", "award", "account_missing", errors.Join(credits.ErrAwardSkipped, credits.ErrAccountNotFound)))
	requireCode(test, err, codes.FailedPrecondition, errorAwardSkipped)
}
