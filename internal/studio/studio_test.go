package studio

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/internal/gateway"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
)

type stubGenerator struct {
	images      []gateway.Image
	err         error
	lastPrompt  string
	lastCount   int
	generations int
	edits       int
}

func (generator *stubGenerator) GenerateImages(_ context.Context, prompt string, count int) ([]gateway.Image, error) {
	generator.generations++
	generator.lastPrompt = prompt
	generator.lastCount = count
	if generator.err != nil {
		return nil, generator.err
	}
	return generator.images, nil
}

func (generator *stubGenerator) EditImage(_ context.Context, prompt string, _ gateway.Image) (gateway.Image, error) {
	generator.edits++
	generator.lastPrompt = prompt
	if generator.err != nil {
		return gateway.Image{}, generator.err
	}
	return generator.images[0], nil
}

func newBilledStudio(test *testing.T, generator gateway.Generator, creditsPerImage int64, startingBalance int64) (*Studio, *credits.Service, credits.AccountID) {
	test.Helper()
	db, cleanup, _, err := gormstore.Open(context.Background(), filepath.Join(test.TempDir(), "studio.db"), nil)
	if err != nil {
		test.Fatalf("open: %v", err)
	}
	test.Cleanup(func() { _ = cleanup() })
	if err := gormstore.Migrate(db); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	now := func() time.Time { return time.Date(2026, time.May, 2, 12, 0, 0, 0, time.UTC) }
	service, err := credits.NewService(gormstore.New(db), now)
	if err != nil {
		test.Fatalf("NewService: %v", err)
	}
	email, err := credits.NewEmail("artist@example.com")
	if err != nil {
		test.Fatalf("NewEmail: %v", err)
	}
	balance, err := credits.NewCredits(startingBalance)
	if err != nil {
		test.Fatalf("NewCredits: %v", err)
	}
	account, err := service.CreateAccount(context.Background(), email, balance, credits.RoleUser)
	if err != nil {
		test.Fatalf("CreateAccount: %v", err)
	}
	studio, err := New(service, generator, creditsPerImage)
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	return studio, service, account.ID()
}

func TestComposePrompt(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name     string
		prompt   string
		negative string
		want     string
		wantErr  error
	}{
		{name: "plain", prompt: " a castle ", want: "a castle"},
		{name: "negative appended", prompt: "a castle", negative: " fog ", want: "a castle. Avoid: fog"},
		{name: "blank prompt", prompt: "   ", negative: "fog", wantErr: ErrInvalidPrompt},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			got, err := ComposePrompt(testCase.prompt, testCase.negative)
			if !errors.Is(err, testCase.wantErr) {
				test.Fatalf("err = %v, want %v", err, testCase.wantErr)
			}
			if got != testCase.want {
				test.Fatalf("prompt = %q, want %q", got, testCase.want)
			}
		})
	}
}

func TestGenerationCostScalesWithCount(test *testing.T) {
	test.Parallel()
	studio, err := New(&fakeBiller{}, &stubGenerator{}, 3)
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	cost, err := studio.GenerationCost(4)
	if err != nil || cost.Int64() != 12 {
		test.Fatalf("cost = %d, err = %v", cost.Int64(), err)
	}
	for _, count := range []int{0, 5} {
		if _, err := studio.GenerationCost(count); !errors.Is(err, ErrInvalidCount) || !errors.Is(err, credits.ErrValidation) {
			test.Fatalf("count %d: expected validation error, got %v", count, err)
		}
	}
	if studio.EditCost().Int64() != 3 {
		test.Fatalf("edit cost = %d", studio.EditCost().Int64())
	}
}

type fakeBiller struct {
	calls int
}

func (biller *fakeBiller) RunGenerationWithBilling(ctx context.Context, _ credits.AccountID, _ credits.PositiveCredits, operation func(ctx context.Context) error) (credits.Account, error) {
	biller.calls++
	return credits.Account{}, operation(ctx)
}

func TestValidationFailuresNeverBill(test *testing.T) {
	test.Parallel()
	biller := &fakeBiller{}
	studio, err := New(biller, &stubGenerator{}, 1)
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	accountID, _ := credits.NewAccountID("acct-1")
	if _, err := studio.Generate(context.Background(), accountID, GenerateRequest{Prompt: "", Count: 1}); !errors.Is(err, ErrInvalidPrompt) {
		test.Fatalf("expected ErrInvalidPrompt, got %v", err)
	}
	if _, err := studio.Generate(context.Background(), accountID, GenerateRequest{Prompt: "x", Count: 7}); !errors.Is(err, ErrInvalidCount) {
		test.Fatalf("expected ErrInvalidCount, got %v", err)
	}
	if _, err := studio.Edit(context.Background(), accountID, EditRequest{Prompt: "x", Image: gateway.Image{Base64: "aGk=", MimeType: "application/pdf"}}); !errors.Is(err, ErrInvalidImage) {
		test.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if _, err := studio.Edit(context.Background(), accountID, EditRequest{Prompt: "x", Image: gateway.Image{Base64: "not base64!", MimeType: "image/png"}}); !errors.Is(err, ErrInvalidImage) {
		test.Fatalf("expected ErrInvalidImage for bad encoding, got %v", err)
	}
	if biller.calls != 0 {
		test.Fatalf("validation failures must not reach billing, got %d calls", biller.calls)
	}
}

func TestNewRejectsMissingCollaborators(test *testing.T) {
	test.Parallel()
	if _, err := New(nil, &stubGenerator{}, 1); !errors.Is(err, ErrInvalidConfig) {
		test.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestGenerateDebitsPerImage(test *testing.T) {
	test.Parallel()
	generator := &stubGenerator{images: []gateway.Image{{Base64: "A"}, {Base64: "B"}}}
	studio, _, accountID := newBilledStudio(test, generator, 2, 10)

	result, err := studio.Generate(context.Background(), accountID, GenerateRequest{Prompt: "owl", NegativePrompt: "blur", Count: 2})
	if err != nil {
		test.Fatalf("Generate: %v", err)
	}
	if result.Account.Credits().Int64() != 6 || result.Cost.Int64() != 4 {
		test.Fatalf("balance = %d, cost = %d", result.Account.Credits().Int64(), result.Cost.Int64())
	}
	if len(result.Images) != 2 || generator.lastPrompt != "owl. Avoid: blur" || generator.lastCount != 2 {
		test.Fatalf("unexpected gateway call %+v", generator)
	}
}

func TestGenerateRefundsOnGatewayFailure(test *testing.T) {
	test.Parallel()
	generator := &stubGenerator{err: gateway.ErrUpstreamFailure}
	studio, service, accountID := newBilledStudio(test, generator, 1, 5)

	result, err := studio.Generate(context.Background(), accountID, GenerateRequest{Prompt: "owl", Count: 3})
	if !errors.Is(err, credits.ErrGenerationFailed) || !errors.Is(err, gateway.ErrUpstreamFailure) {
		test.Fatalf("expected generation failure wrapping gateway error, got %v", err)
	}
	if result.Account.Credits().Int64() != 5 {
		test.Fatalf("balance after refund = %d, want 5", result.Account.Credits().Int64())
	}
	entries, err := service.ListEntries(context.Background(), accountID, 10)
	if err != nil {
		test.Fatalf("ListEntries: %v", err)
	}
	var debits, refunds int
	for _, entry := range entries {
		switch entry.Type() {
		case credits.EntryDebit:
			debits++
		case credits.EntryRefund:
			refunds++
		}
	}
	if debits != 1 || refunds != 1 {
		test.Fatalf("expected one debit and one refund, got %d and %d", debits, refunds)
	}
}

func TestGenerateWithInsufficientCreditsSkipsGateway(test *testing.T) {
	test.Parallel()
	generator := &stubGenerator{images: []gateway.Image{{Base64: "A"}}}
	studio, _, accountID := newBilledStudio(test, generator, 1, 1)

	if _, err := studio.Generate(context.Background(), accountID, GenerateRequest{Prompt: "owl", Count: 2}); !errors.Is(err, credits.ErrInsufficientCredits) {
		test.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if generator.generations != 0 {
		test.Fatalf("gateway must not be called without funds")
	}
}

func TestEditChargesSingleImage(test *testing.T) {
	test.Parallel()
	generator := &stubGenerator{images: []gateway.Image{{Base64: "EDITED", MimeType: "image/png"}}}
	studio, _, accountID := newBilledStudio(test, generator, 1, 3)

	result, err := studio.Edit(context.Background(), accountID, EditRequest{Prompt: " add a hat ", Image: gateway.Image{Base64: "aGVsbG8=", MimeType: "image/png"}})
	if err != nil {
		test.Fatalf("Edit: %v", err)
	}
	if result.Account.Credits().Int64() != 2 || result.Images[0].Base64 != "EDITED" || generator.lastPrompt != "add a hat" {
		test.Fatalf("unexpected result %+v", result)
	}
}
