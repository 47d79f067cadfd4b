// Package bootstrap seeds an empty installation with the default catalog and the administrator.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"go.uber.org/zap"
)

// PlanSeed describes one default plan.
type PlanSeed struct {
	Name              string
	Description       string
	Type              credits.PlanType
	Price             int64
	Credits           int64
	DurationDays      int
	DailyCreditAmount int64
}

// PaymentMethodSeed describes one default payment method.
type PaymentMethodSeed struct {
	Name    string
	Details string
	Hint    string
}

// DefaultPlans is the catalog installed when no plan exists yet.
var DefaultPlans = []PlanSeed{
	{Name: "Free", Description: "Try the studio", Type: credits.PlanTypeFree, Price: 0, Credits: 25},
	{Name: "Starter", Description: "A one-time pack of credits", Type: credits.PlanTypeNormal, Price: 150, Credits: 100, DurationDays: 30},
	{Name: "Pro", Description: "A large pack for heavy users", Type: credits.PlanTypePro, Price: 500, Credits: 500, DurationDays: 90},
	{Name: "Daily Creator", Description: "Credits up front plus a daily top-up", Type: credits.PlanTypeDaily, Price: 300, Credits: 50, DurationDays: 30, DailyCreditAmount: 25},
}

// DefaultPaymentMethods is installed when no payment method exists yet.
var DefaultPaymentMethods = []PaymentMethodSeed{
	{Name: "Bank transfer", Details: "Contact the administrator for account details", Hint: "Use your email as the transfer reference"},
}

// Seeder installs defaults through the credits service.
type Seeder struct {
	service *credits.Service
	logger  *zap.Logger
}

// NewSeeder returns a Seeder. A nil logger discards output.
func NewSeeder(service *credits.Service, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{service: service, logger: logger}
}

// Seed installs plans and payment methods when their tables are empty and registers
// adminEmail when it is set and not yet registered. Running it twice changes nothing.
func (seeder *Seeder) Seed(ctx context.Context, adminEmail credits.Email) error {
	if err := seeder.seedPlans(ctx); err != nil {
		return err
	}
	if err := seeder.seedPaymentMethods(ctx); err != nil {
		return err
	}
	if adminEmail.IsZero() {
		return nil
	}
	return seeder.seedAdmin(ctx, adminEmail)
}

func (seeder *Seeder) seedPlans(ctx context.Context) error {
	existing, err := seeder.service.ListPlans(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: list plans: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, seed := range DefaultPlans {
		terms, err := credits.NewPlanTerms(seed.Type, seed.DurationDays, seed.DailyCreditAmount)
		if err != nil {
			return fmt.Errorf("bootstrap: plan %s: %w", seed.Name, err)
		}
		price, err := credits.NewPrice(seed.Price)
		if err != nil {
			return fmt.Errorf("bootstrap: plan %s: %w", seed.Name, err)
		}
		planCredits, err := credits.NewCredits(seed.Credits)
		if err != nil {
			return fmt.Errorf("bootstrap: plan %s: %w", seed.Name, err)
		}
		plan, err := seeder.service.CreatePlan(ctx, seed.Name, seed.Description, price, planCredits, terms)
		if err != nil {
			return fmt.Errorf("bootstrap: plan %s: %w", seed.Name, err)
		}
		seeder.logger.Info("seeded plan", zap.String("plan_id", plan.ID().String()), zap.String("name", plan.Name()))
	}
	return nil
}

func (seeder *Seeder) seedPaymentMethods(ctx context.Context) error {
	existing, err := seeder.service.ListPaymentMethods(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: list payment methods: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, seed := range DefaultPaymentMethods {
		method, err := seeder.service.AddPaymentMethod(ctx, seed.Name, seed.Details, seed.Hint)
		if err != nil {
			return fmt.Errorf("bootstrap: payment method %s: %w", seed.Name, err)
		}
		seeder.logger.Info("seeded payment method", zap.String("payment_method_id", method.ID().String()))
	}
	return nil
}

func (seeder *Seeder) seedAdmin(ctx context.Context, adminEmail credits.Email) error {
	_, err := seeder.service.FindAccountByEmail(ctx, adminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, credits.ErrAccountNotFound) {
		return fmt.Errorf("bootstrap: find admin: %w", err)
	}
	account, err := seeder.service.Register(ctx, adminEmail)
	if errors.Is(err, credits.ErrDuplicateEmail) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap: register admin: %w", err)
	}
	seeder.logger.Info("seeded administrator", zap.String("account_id", account.ID().String()), zap.String("role", account.Role().String()))
	return nil
}
