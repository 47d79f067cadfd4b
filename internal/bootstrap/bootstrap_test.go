package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
)

func newTestService(test *testing.T, adminEmail credits.Email) *credits.Service {
	test.Helper()
	db, cleanup, _, err := gormstore.Open(context.Background(), filepath.Join(test.TempDir(), "seed.db"), nil)
	if err != nil {
		test.Fatalf("open: %v", err)
	}
	test.Cleanup(func() { _ = cleanup() })
	if err := gormstore.Migrate(db); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	now := func() time.Time { return time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) }
	service, err := credits.NewService(gormstore.New(db), now, credits.WithAdminAccount(adminEmail, 9999))
	if err != nil {
		test.Fatalf("NewService: %v", err)
	}
	return service
}

func TestSeedIsIdempotent(test *testing.T) {
	test.Parallel()
	adminEmail, err := credits.NewEmail("owner@example.com")
	if err != nil {
		test.Fatalf("NewEmail: %v", err)
	}
	service := newTestService(test, adminEmail)
	seeder := NewSeeder(service, nil)
	ctx := context.Background()

	for attempt := 0; attempt < 2; attempt++ {
		if err := seeder.Seed(ctx, adminEmail); err != nil {
			test.Fatalf("Seed attempt %d: %v", attempt, err)
		}
	}

	plans, err := service.ListPlans(ctx)
	if err != nil {
		test.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != len(DefaultPlans) {
		test.Fatalf("expected %d plans, got %d", len(DefaultPlans), len(plans))
	}
	var daily credits.Plan
	for _, plan := range plans {
		if plan.Type() == credits.PlanTypeDaily {
			daily = plan
		}
	}
	amount, ok := daily.Terms().DailyCreditAmount()
	if !ok || amount.Int64() != 25 || daily.Price().Int64() != 300 {
		test.Fatalf("unexpected daily plan %+v", daily)
	}

	methods, err := service.ListPaymentMethods(ctx)
	if err != nil || len(methods) != len(DefaultPaymentMethods) {
		test.Fatalf("payment methods = %d, err = %v", len(methods), err)
	}

	admin, err := service.FindAccountByEmail(ctx, adminEmail)
	if err != nil {
		test.Fatalf("FindAccountByEmail: %v", err)
	}
	if !admin.IsAdmin() || admin.Credits().Int64() != 9999 {
		test.Fatalf("unexpected admin %+v", admin)
	}
	accounts, err := service.ListAccounts(ctx)
	if err != nil || len(accounts) != 1 {
		test.Fatalf("accounts = %d, err = %v", len(accounts), err)
	}
}

func TestSeedWithoutAdminEmail(test *testing.T) {
	test.Parallel()
	service := newTestService(test, credits.Email{})
	if err := NewSeeder(service, nil).Seed(context.Background(), credits.Email{}); err != nil {
		test.Fatalf("Seed: %v", err)
	}
	accounts, err := service.ListAccounts(context.Background())
	if err != nil || len(accounts) != 0 {
		test.Fatalf("accounts = %d, err = %v", len(accounts), err)
	}
}
