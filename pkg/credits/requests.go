package credits

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SubmitPurchaseRequest records a Pending purchase of planID paid through methodID.
// The plan credits and name are frozen into the request; no balance changes.
func (service *Service) SubmitPurchaseRequest(ctx context.Context, accountID AccountID, planID PlanID, transactionID TransactionID, methodID PaymentMethodID, note string) (PurchaseRequest, error) {
	var request PurchaseRequest
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if transactionID.String() == "" {
			return fmt.Errorf("%w: empty value", ErrInvalidTransactionID)
		}
		if methodID.String() == "" {
			return fmt.Errorf("%w: payment method is required", ErrInvalidPaymentMethodID)
		}
		account, err := transactionStore.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		plan, err := transactionStore.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		method, err := transactionStore.GetPaymentMethod(ctx, methodID)
		if errors.Is(err, ErrPaymentMethodNotFound) {
			return fmt.Errorf("%w: %w", ErrInvalidPaymentMethodID, err)
		}
		if err != nil {
			return err
		}
		requestID, err := NewRequestID(service.newID())
		if err != nil {
			return err
		}
		request, err = NewPurchaseRequest(
			requestID,
			account.ID(),
			account.Email(),
			plan.ID(),
			plan.Name(),
			plan.Credits(),
			transactionID,
			strings.TrimSpace(fmt.Sprintf(paymentNoteFormat, method.Name(), strings.TrimSpace(note))),
			service.today(),
			RequestStatusPending,
		)
		if err != nil {
			return err
		}
		return transactionStore.InsertRequest(ctx, request)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationSubmit,
		AccountID: accountID,
		RequestID: request.ID(),
		Amount:    request.CreditsToAward().Int64(),
		Error:     operationError,
	})
	if operationError != nil {
		return PurchaseRequest{}, operationError
	}
	return request, nil
}

// ApproveRequest approves a request, crediting the account once if it was Pending.
func (service *Service) ApproveRequest(ctx context.Context, requestID RequestID) (PurchaseRequest, error) {
	return service.SetRequestStatus(ctx, requestID, RequestStatusApproved)
}

// RejectRequest rejects a request. It never changes any balance.
func (service *Service) RejectRequest(ctx context.Context, requestID RequestID) (PurchaseRequest, error) {
	return service.SetRequestStatus(ctx, requestID, RequestStatusRejected)
}

// SetRequestStatus moves a request to Approved or Rejected.
//
// Credits are awarded only on Pending to Approved, in the same transaction as the status write.
// Any other transition changes the status alone. When the requesting account no longer exists the
// status still changes and the returned error wraps ErrAwardSkipped and ErrAccountNotFound.
func (service *Service) SetRequestStatus(ctx context.Context, requestID RequestID, target RequestStatus) (PurchaseRequest, error) {
	if !target.IsTerminal() {
		return PurchaseRequest{}, fmt.Errorf("%w: target must be Approved or Rejected", ErrInvalidRequestStatus)
	}
	stored, err := service.store.GetRequest(ctx, requestID)
	if err != nil {
		return PurchaseRequest{}, err
	}
	unlock := service.locks.lock(stored.AccountID())
	defer unlock()

	var (
		request  PurchaseRequest
		previous RequestStatus
		awarded  Credits
		awardErr error
	)
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		previous = current.Status()
		request = current
		if previous == target {
			return nil
		}
		if err := transactionStore.UpdateRequestStatus(ctx, requestID, previous, target); err != nil {
			return err
		}
		request = current.WithStatus(target)
		if previous != RequestStatusPending || target != RequestStatusApproved {
			return nil
		}
		awarded, err = service.awardPurchase(ctx, transactionStore, request)
		if errors.Is(err, ErrAwardSkipped) {
			awardErr = err
			return nil
		}
		return err
	})

	operation := operationStatusOverride
	if previous == RequestStatusPending && target == RequestStatusApproved {
		operation = operationApprove
	} else if previous == RequestStatusPending {
		operation = operationReject
	}
	logError := operationError
	if logError == nil {
		logError = awardErr
	}
	service.logOperation(ctx, OperationLog{
		Operation: operation,
		AccountID: stored.AccountID(),
		RequestID: requestID,
		Amount:    awarded.Int64(),
		Error:     logError,
	})
	if operationError != nil {
		return PurchaseRequest{}, operationError
	}
	return request, awardErr
}

// awardPurchase credits an approved request. A missing account yields ErrAwardSkipped before any write.
func (service *Service) awardPurchase(ctx context.Context, transactionStore Store, request PurchaseRequest) (Credits, error) {
	accountID := request.AccountID()
	if _, err := transactionStore.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, WrapError("approval", "award", "account_missing", fmt.Errorf("%w: %w", ErrAwardSkipped, err))
		}
		return 0, err
	}
	plan, err := transactionStore.GetPlan(ctx, request.PlanID())
	if err != nil && !errors.Is(err, ErrPlanNotFound) {
		return 0, err
	}
	if err == nil && plan.Type() == PlanTypeDaily {
		if _, err := transactionStore.StampGrantDate(ctx, accountID, service.today()); err != nil {
			return 0, err
		}
	}
	amount := request.CreditsToAward()
	if amount == 0 {
		return 0, nil
	}
	entryAmount, err := NewEntryAmount(amount.Int64())
	if err != nil {
		return 0, err
	}
	idempotencyKey, err := NewIdempotencyKey(idempotencyPrefixBuy + idempotencyKeyDelimiter + request.ID().String())
	if err != nil {
		return 0, err
	}
	metadata, err := NewMetadataJSON(fmt.Sprintf(`{%q:%q,%q:%q}`, metadataKeyRequestID, request.ID().String(), metadataKeyPlanID, request.PlanID().String()))
	if err != nil {
		return 0, err
	}
	if _, err := service.applyDelta(ctx, transactionStore, accountID, EntryPurchase, entryAmount, idempotencyKey, metadata); err != nil {
		return 0, err
	}
	return amount, nil
}

// GetRequest returns the request or ErrRequestNotFound.
func (service *Service) GetRequest(ctx context.Context, requestID RequestID) (PurchaseRequest, error) {
	return service.store.GetRequest(ctx, requestID)
}

// ListRequests returns requests matching filter, newest first.
func (service *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]PurchaseRequest, error) {
	return service.store.ListRequests(ctx, filter)
}
