package credits

import (
	"context"
	"errors"
	"fmt"
)

// MaybeApplyDailyGrant applies today's Daily-plan grant to the account at most once per UTC day.
//
// The most recent approved request whose plan is a Daily plan decides the grant. It applies while
// now is before the request date plus the plan duration. The returned account is the current state
// whether or not a grant was applied.
func (service *Service) MaybeApplyDailyGrant(ctx context.Context, accountID AccountID) (Account, error) {
	account, _, err := service.maybeApplyDailyGrant(ctx, accountID)
	return account, err
}

// ApplyDailyGrants runs MaybeApplyDailyGrant for every account and returns how many were credited.
// Accounts removed concurrently are skipped.
func (service *Service) ApplyDailyGrants(ctx context.Context) (int, error) {
	accounts, err := service.store.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	granted := 0
	var failures []error
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return granted, err
		}
		_, applied, err := service.maybeApplyDailyGrant(ctx, account.ID())
		if errors.Is(err, ErrAccountNotFound) {
			continue
		}
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", account.ID(), err))
			continue
		}
		if applied {
			granted++
		}
	}
	return granted, errors.Join(failures...)
}

func (service *Service) maybeApplyDailyGrant(ctx context.Context, accountID AccountID) (Account, bool, error) {
	unlock := service.locks.lock(accountID)
	defer unlock()
	now := service.nowFn()
	today := DateOf(now)
	var (
		account Account
		granted Credits
	)
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		var err error
		account, err = transactionStore.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if lastGrant, ok := account.LastCreditGrantDate(); ok && lastGrant.Equal(today) {
			return nil
		}
		request, terms, found, err := latestDailyRequest(ctx, transactionStore, accountID)
		if err != nil || !found {
			return err
		}
		days, _ := terms.DurationDays()
		expiry := request.Date().AddDays(days)
		if !now.Before(expiry.Time()) {
			return nil
		}
		stamped, err := transactionStore.StampGrantDate(ctx, accountID, today)
		if err != nil || !stamped {
			return err
		}
		amount, _ := terms.DailyCreditAmount()
		entryAmount, err := NewEntryAmount(amount.Int64())
		if err != nil {
			return err
		}
		idempotencyKey, err := NewIdempotencyKey(idempotencyPrefixDaily + idempotencyKeyDelimiter + today.String())
		if err != nil {
			return err
		}
		metadata, err := NewMetadataJSON(fmt.Sprintf(`{%q:%q}`, metadataKeyRequestID, request.ID().String()))
		if err != nil {
			return err
		}
		account, err = service.applyDelta(ctx, transactionStore, accountID, EntryDailyGrant, entryAmount, idempotencyKey, metadata)
		if err != nil {
			return err
		}
		granted = amount
		return nil
	})
	if operationError != nil || granted > 0 {
		service.logOperation(ctx, OperationLog{
			Operation: operationDailyGrant,
			AccountID: accountID,
			Amount:    granted.Int64(),
			Error:     operationError,
		})
	}
	if operationError != nil {
		return Account{}, false, operationError
	}
	return account, granted > 0, nil
}

// latestDailyRequest finds the newest approved request of the account whose plan is a Daily plan.
// Requests whose plan no longer exists are ignored.
func latestDailyRequest(ctx context.Context, store Store, accountID AccountID) (PurchaseRequest, PlanTerms, bool, error) {
	requests, err := store.ListRequests(ctx, RequestFilter{AccountID: accountID, Status: RequestStatusApproved})
	if err != nil {
		return PurchaseRequest{}, nil, false, err
	}
	for _, request := range requests {
		plan, err := store.GetPlan(ctx, request.PlanID())
		if errors.Is(err, ErrPlanNotFound) {
			continue
		}
		if err != nil {
			return PurchaseRequest{}, nil, false, err
		}
		if plan.Type() == PlanTypeDaily {
			return request, plan.Terms(), true, nil
		}
	}
	return PurchaseRequest{}, nil, false, nil
}
