package credits

import (
	"errors"
	"testing"
	"time"
)

func TestNewEmail(test *testing.T) {
	test.Parallel()
	cases := []struct {
		name    string
		input   string
		wantErr error
		wantVal string
	}{
		{name: "normalizes case and space", input: "  User@Example.COM ", wantVal: "user@example.com"},
		{name: "empty", input: "   ", wantErr: ErrInvalidEmail},
		{name: "missing at", input: "user.example.com", wantErr: ErrInvalidEmail},
		{name: "two ats", input: "a@b@c", wantErr: ErrInvalidEmail},
		{name: "empty local part", input: "@example.com", wantErr: ErrInvalidEmail},
		{name: "empty domain", input: "user@", wantErr: ErrInvalidEmail},
		{name: "inner space", input: "us er@example.com", wantErr: ErrInvalidEmail},
	}
	for _, tc := range cases {
		tc := tc
		test.Run(tc.name, func(test *testing.T) {
			test.Parallel()
			result, err := NewEmail(tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					test.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				test.Fatalf("unexpected error: %v", err)
			}
			if result.String() != tc.wantVal {
				test.Fatalf("expected %q, got %q", tc.wantVal, result.String())
			}
		})
	}
}

func TestNewPlanTerms(test *testing.T) {
	test.Parallel()
	cases := []struct {
		name         string
		planType     PlanType
		durationDays int
		dailyAmount  int64
		wantErr      error
		wantDuration bool
		wantDaily    bool
	}{
		{name: "free", planType: PlanTypeFree},
		{name: "free with duration", planType: PlanTypeFree, durationDays: 3, wantErr: ErrInvalidPlanTerms},
		{name: "perpetual normal", planType: PlanTypeNormal},
		{name: "normal with window", planType: PlanTypeNormal, durationDays: 30, wantDuration: true},
		{name: "pro with daily amount", planType: PlanTypePro, durationDays: 30, dailyAmount: 5, wantErr: ErrInvalidPlanTerms},
		{name: "daily", planType: PlanTypeDaily, durationDays: 30, dailyAmount: 25, wantDuration: true, wantDaily: true},
		{name: "daily without amount", planType: PlanTypeDaily, durationDays: 30, wantErr: ErrInvalidPlanTerms},
		{name: "daily without duration", planType: PlanTypeDaily, dailyAmount: 25, wantErr: ErrInvalidPlanTerms},
		{name: "negative duration", planType: PlanTypeNormal, durationDays: -1, wantErr: ErrInvalidPlanTerms},
		{name: "unknown type", planType: PlanType("Gold"), wantErr: ErrInvalidPlanType},
	}
	for _, tc := range cases {
		tc := tc
		test.Run(tc.name, func(test *testing.T) {
			test.Parallel()
			terms, err := NewPlanTerms(tc.planType, tc.durationDays, tc.dailyAmount)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					test.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				test.Fatalf("unexpected error: %v", err)
			}
			if terms.Type() != tc.planType {
				test.Fatalf("expected type %s, got %s", tc.planType, terms.Type())
			}
			if _, ok := terms.DurationDays(); ok != tc.wantDuration {
				test.Fatalf("expected duration presence %t, got %t", tc.wantDuration, ok)
			}
			if amount, ok := terms.DailyCreditAmount(); ok != tc.wantDaily || (ok && amount.Int64() != tc.dailyAmount) {
				test.Fatalf("unexpected daily amount %d (%t)", amount, ok)
			}
		})
	}
}

func TestParsePlanType(test *testing.T) {
	test.Parallel()
	planType, err := ParsePlanType(" daily ")
	if err != nil || planType != PlanTypeDaily {
		test.Fatalf("expected Daily, got %q (%v)", planType, err)
	}
	if _, err := ParsePlanType("gold"); !errors.Is(err, ErrInvalidPlanType) {
		test.Fatalf("expected ErrInvalidPlanType, got %v", err)
	}
}

func TestParseRequestStatus(test *testing.T) {
	test.Parallel()
	status, err := ParseRequestStatus("APPROVED")
	if err != nil || status != RequestStatusApproved {
		test.Fatalf("expected Approved, got %q (%v)", status, err)
	}
	if RequestStatusPending.IsTerminal() || !RequestStatusRejected.IsTerminal() {
		test.Fatalf("unexpected terminal classification")
	}
	if _, err := ParseRequestStatus("done"); !errors.Is(err, ErrInvalidRequestStatus) {
		test.Fatalf("expected ErrInvalidRequestStatus, got %v", err)
	}
}

func TestDateArithmetic(test *testing.T) {
	test.Parallel()
	late := time.Date(2026, time.January, 31, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*60*60))
	day := DateOf(late)
	if day.String() != "2026-02-01" {
		test.Fatalf("expected the UTC day 2026-02-01, got %s", day)
	}
	parsed, err := ParseDate("2026-02-01")
	if err != nil {
		test.Fatalf("ParseDate: %v", err)
	}
	if !parsed.Equal(day) {
		test.Fatalf("expected %s to equal %s", parsed, day)
	}
	if day.AddDays(30).String() != "2026-03-03" {
		test.Fatalf("unexpected AddDays result %s", day.AddDays(30))
	}
	if (Date{}).String() != "" || !(Date{}).IsZero() {
		test.Fatalf("expected zero date to be empty")
	}
	if _, err := ParseDate("02/01/2026"); !errors.Is(err, ErrInvalidDate) {
		test.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestNewMetadataJSON(test *testing.T) {
	test.Parallel()
	metadata, err := NewMetadataJSON("")
	if err != nil || metadata.String() != "{}" {
		test.Fatalf("expected default metadata, got %q (%v)", metadata, err)
	}
	if _, err := NewMetadataJSON("{"); !errors.Is(err, ErrInvalidMetadataJSON) {
		test.Fatalf("expected ErrInvalidMetadataJSON, got %v", err)
	}
}

func TestCreditConstructors(test *testing.T) {
	test.Parallel()
	if _, err := NewCredits(-1); !errors.Is(err, ErrInvalidCredits) {
		test.Fatalf("expected ErrInvalidCredits, got %v", err)
	}
	if _, err := NewPositiveCredits(0); !errors.Is(err, ErrInvalidCredits) {
		test.Fatalf("expected ErrInvalidCredits, got %v", err)
	}
	if _, err := NewEntryAmount(0); !errors.Is(err, ErrInvalidEntryAmount) {
		test.Fatalf("expected ErrInvalidEntryAmount, got %v", err)
	}
	if _, err := NewPrice(-5); !errors.Is(err, ErrInvalidPrice) {
		test.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := NewTransactionID("  "); !errors.Is(err, ErrInvalidTransactionID) {
		test.Fatalf("expected ErrInvalidTransactionID, got %v", err)
	}
}

func TestNewPurchaseRequestRequiresFields(test *testing.T) {
	test.Parallel()
	_, err := NewPurchaseRequest(
		RequestID{value: "req-1"},
		AccountID{value: "acct-1"},
		mustEmail(test, userEmailValue),
		PlanID{value: "plan-1"},
		"Starter",
		100,
		TransactionID{},
		"",
		DateOf(startOfTest),
		RequestStatusPending,
	)
	if !errors.Is(err, ErrInvalidTransactionID) {
		test.Fatalf("expected ErrInvalidTransactionID, got %v", err)
	}
}

func TestParseRole(test *testing.T) {
	test.Parallel()
	role, err := ParseRole("Admin")
	if err != nil || role != RoleAdmin {
		test.Fatalf("expected admin, got %q (%v)", role, err)
	}
	if _, err := ParseRole("root"); !errors.Is(err, ErrInvalidRole) {
		test.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
