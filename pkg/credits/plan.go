package credits

import (
	"fmt"
	"strings"
)

// PlanType enumerates plan kinds.
type PlanType string

const (
	PlanTypeFree   PlanType = "Free"
	PlanTypeNormal PlanType = "Normal"
	PlanTypePro    PlanType = "Pro"
	PlanTypeDaily  PlanType = "Daily"
)

// ParsePlanType validates a plan type string (case-insensitive).
func ParsePlanType(raw string) (PlanType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "free":
		return PlanTypeFree, nil
	case "normal":
		return PlanTypeNormal, nil
	case "pro":
		return PlanTypePro, nil
	case "daily":
		return PlanTypeDaily, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPlanType, raw)
	}
}

// String returns the plan type value.
func (planType PlanType) String() string {
	return string(planType)
}

// PlanTerms holds the fields whose meaning depends on the plan type.
// Implementations are FreeTerms, NormalTerms, ProTerms and DailyTerms.
type PlanTerms interface {
	Type() PlanType
	// DurationDays returns the validity window; ok is false for perpetual plans.
	DurationDays() (days int, ok bool)
	// DailyCreditAmount returns the per-day grant; ok is false for non-Daily plans.
	DailyCreditAmount() (amount Credits, ok bool)
	sealed()
}

// FreeTerms describe a plan that never expires and never grants daily.
type FreeTerms struct{}

// NormalTerms describe a one-time purchase with an optional validity window.
type NormalTerms struct {
	Days int
}

// ProTerms describe a one-time purchase with an optional validity window.
type ProTerms struct {
	Days int
}

// DailyTerms describe a plan that grants Amount credits per calendar day for Days days.
type DailyTerms struct {
	Days   int
	Amount PositiveCredits
}

// Type returns PlanTypeFree.
func (FreeTerms) Type() PlanType { return PlanTypeFree }

// DurationDays reports a perpetual window.
func (FreeTerms) DurationDays() (int, bool) { return 0, false }

// DailyCreditAmount reports no daily grant.
func (FreeTerms) DailyCreditAmount() (Credits, bool) { return 0, false }

func (FreeTerms) sealed() {}

// Type returns PlanTypeNormal.
func (NormalTerms) Type() PlanType { return PlanTypeNormal }

// DurationDays returns the window; zero days means perpetual.
func (terms NormalTerms) DurationDays() (int, bool) { return terms.Days, terms.Days > 0 }

// DailyCreditAmount reports no daily grant.
func (NormalTerms) DailyCreditAmount() (Credits, bool) { return 0, false }

func (NormalTerms) sealed() {}

// Type returns PlanTypePro.
func (ProTerms) Type() PlanType { return PlanTypePro }

// DurationDays returns the window; zero days means perpetual.
func (terms ProTerms) DurationDays() (int, bool) { return terms.Days, terms.Days > 0 }

// DailyCreditAmount reports no daily grant.
func (ProTerms) DailyCreditAmount() (Credits, bool) { return 0, false }

func (ProTerms) sealed() {}

// Type returns PlanTypeDaily.
func (DailyTerms) Type() PlanType { return PlanTypeDaily }

// DurationDays returns the grant window.
func (terms DailyTerms) DurationDays() (int, bool) { return terms.Days, true }

// DailyCreditAmount returns the per-day grant.
func (terms DailyTerms) DailyCreditAmount() (Credits, bool) { return terms.Amount.ToCredits(), true }

func (DailyTerms) sealed() {}

// NewPlanTerms builds the variant for planType. dailyAmount must be positive for Daily plans and
// zero for every other type; durationDays of zero means perpetual and is not allowed for Daily plans.
func NewPlanTerms(planType PlanType, durationDays int, dailyAmount int64) (PlanTerms, error) {
	if durationDays < 0 {
		return nil, fmt.Errorf("%w: duration must be zero or greater", ErrInvalidPlanTerms)
	}
	if planType != PlanTypeDaily && dailyAmount != 0 {
		return nil, fmt.Errorf("%w: daily credit amount is only allowed for Daily plans", ErrInvalidPlanTerms)
	}
	switch planType {
	case PlanTypeFree:
		if durationDays != 0 {
			return nil, fmt.Errorf("%w: free plans have no duration", ErrInvalidPlanTerms)
		}
		return FreeTerms{}, nil
	case PlanTypeNormal:
		return NormalTerms{Days: durationDays}, nil
	case PlanTypePro:
		return ProTerms{Days: durationDays}, nil
	case PlanTypeDaily:
		amount, err := NewPositiveCredits(dailyAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: daily credit amount must be greater than zero", ErrInvalidPlanTerms)
		}
		if durationDays == 0 {
			return nil, fmt.Errorf("%w: daily plans require a duration", ErrInvalidPlanTerms)
		}
		return DailyTerms{Days: durationDays, Amount: amount}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlanType, planType)
	}
}

// Plan is a purchasable offer.
type Plan struct {
	id          PlanID
	name        string
	description string
	price       Price
	credits     Credits
	terms       PlanTerms
}

// NewPlan validates and constructs a plan.
func NewPlan(id PlanID, name string, description string, price Price, credits Credits, terms PlanTerms) (Plan, error) {
	if id.String() == "" {
		return Plan{}, fmt.Errorf("%w: empty value", ErrInvalidPlanID)
	}
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return Plan{}, fmt.Errorf("%w: empty value", ErrInvalidPlanName)
	}
	if _, err := NewPrice(price.Int64()); err != nil {
		return Plan{}, err
	}
	if _, err := NewCredits(credits.Int64()); err != nil {
		return Plan{}, err
	}
	if terms == nil {
		return Plan{}, fmt.Errorf("%w: terms are required", ErrInvalidPlanTerms)
	}
	return Plan{
		id:          id,
		name:        trimmedName,
		description: strings.TrimSpace(description),
		price:       price,
		credits:     credits,
		terms:       terms,
	}, nil
}

// ID returns the identifier.
func (plan Plan) ID() PlanID {
	return plan.id
}

// Name returns the display name.
func (plan Plan) Name() string {
	return plan.name
}

// Description returns the marketing copy.
func (plan Plan) Description() string {
	return plan.description
}

// Price returns the price.
func (plan Plan) Price() Price {
	return plan.price
}

// Credits returns the credits awarded on approval.
func (plan Plan) Credits() Credits {
	return plan.credits
}

// Terms returns the type-specific fields.
func (plan Plan) Terms() PlanTerms {
	return plan.terms
}

// Type returns the plan type.
func (plan Plan) Type() PlanType {
	return plan.terms.Type()
}
