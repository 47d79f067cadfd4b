package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultSignupCredits Credits = 10
	defaultAdminCredits  Credits = 9999
)

// Service contains the credit lifecycle, plan catalog, request ledger and approval workflow over a Store.
type Service struct {
	store             Store
	nowFn             func() time.Time
	logger            OperationLogger
	locks             *accountLocks
	newID             func() string
	signupCredits     Credits
	adminEmail        Email
	adminCredits      Credits
	generationTimeout time.Duration
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{
		store:         store,
		nowFn:         now,
		locks:         newAccountLocks(),
		newID:         uuid.NewString,
		signupCredits: defaultSignupCredits,
		adminCredits:  defaultAdminCredits,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	if service.generationTimeout < 0 {
		return nil, fmt.Errorf("%w: generation timeout must not be negative", ErrInvalidServiceConfig)
	}
	return service, nil
}

// Debit removes amount from the account balance. The balance check and the write are one
// conditional update; on ErrInsufficientCredits nothing is written.
func (service *Service) Debit(ctx context.Context, accountID AccountID, amount PositiveCredits, idempotencyKey IdempotencyKey, metadata MetadataJSON) (Account, error) {
	unlock := service.locks.lock(accountID)
	defer unlock()
	var account Account
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		var err error
		account, err = service.applyDelta(ctx, transactionStore, accountID, EntryDebit, amount.ToEntryAmount().Negated(), idempotencyKey, metadata)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationDebit,
		AccountID:      accountID,
		Amount:         -amount.Int64(),
		IdempotencyKey: idempotencyKey,
		Error:          operationError,
	})
	if operationError != nil {
		return Account{}, operationError
	}
	return account, nil
}

// Credit adds amount to the account balance and journals it as entryType.
func (service *Service) Credit(ctx context.Context, accountID AccountID, amount PositiveCredits, entryType EntryType, idempotencyKey IdempotencyKey, metadata MetadataJSON) (Account, error) {
	if entryType == EntryDebit || entryType == EntryAdminSet {
		return Account{}, fmt.Errorf("%w: %s is not a credit entry", ErrInvalidEntryType, entryType)
	}
	unlock := service.locks.lock(accountID)
	defer unlock()
	var account Account
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		var err error
		account, err = service.applyDelta(ctx, transactionStore, accountID, entryType, amount.ToEntryAmount(), idempotencyKey, metadata)
		return err
	})
	operation := operationCredit
	if entryType == EntryRefund {
		operation = operationRefund
	}
	service.logOperation(ctx, OperationLog{
		Operation:      operation,
		AccountID:      accountID,
		Amount:         amount.Int64(),
		IdempotencyKey: idempotencyKey,
		Error:          operationError,
	})
	if operationError != nil {
		return Account{}, operationError
	}
	return account, nil
}

// RunGenerationWithBilling debits cost, runs operation and refunds the full cost when operation fails or panics.
//
// operation is never invoked when the debit fails. The refund is issued on a context detached from
// ctx cancellation so that an abandoned caller still gets its credits back. The returned account is
// the balance after the debit (success) or after the refund (failure).
func (service *Service) RunGenerationWithBilling(ctx context.Context, accountID AccountID, cost PositiveCredits, operation func(ctx context.Context) error) (Account, error) {
	if operation == nil {
		return Account{}, fmt.Errorf("%w: operation is nil", ErrInvalidServiceConfig)
	}
	debitKey, err := service.newKey(idempotencyPrefixGen)
	if err != nil {
		return Account{}, err
	}
	metadata, err := NewMetadataJSON(fmt.Sprintf(`{%q:%d}`, metadataKeyCost, cost.Int64()))
	if err != nil {
		return Account{}, err
	}
	debited, err := service.Debit(ctx, accountID, cost, debitKey, metadata)
	if err != nil {
		return Account{}, err
	}

	operationContext := ctx
	if service.generationTimeout > 0 {
		var cancel context.CancelFunc
		operationContext, cancel = context.WithTimeout(ctx, service.generationTimeout)
		defer cancel()
	}
	operationError := runOperation(operationContext, operation)
	if operationError == nil {
		return debited, nil
	}

	failure := fmt.Errorf("%w: %w", ErrGenerationFailed, operationError)
	refundKey, err := deriveIdempotencyKey(debitKey, idempotencySuffixRefund)
	if err != nil {
		return debited, errors.Join(failure, err)
	}
	refunded, refundError := service.Credit(context.WithoutCancel(ctx), accountID, cost, EntryRefund, refundKey, metadata)
	if refundError != nil {
		return debited, errors.Join(failure, WrapError("service", "refund", "failed", refundError))
	}
	return refunded, failure
}

// runOperation converts a panic in operation into an error so the caller refunds it.
func runOperation(ctx context.Context, operation func(ctx context.Context) error) (operationError error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			operationError = fmt.Errorf("operation panicked: %v", recovered)
		}
	}()
	return operation(ctx)
}

// applyDelta adjusts the balance and writes the matching journal entry in transactionStore.
func (service *Service) applyDelta(ctx context.Context, transactionStore Store, accountID AccountID, entryType EntryType, amount EntryAmount, idempotencyKey IdempotencyKey, metadata MetadataJSON) (Account, error) {
	account, err := transactionStore.AdjustCredits(ctx, accountID, amount.Int64())
	if err != nil {
		return Account{}, err
	}
	entryInput, err := NewEntryInput(accountID, entryType, amount, idempotencyKey, metadata, service.nowFn().Unix())
	if err != nil {
		return Account{}, err
	}
	if err := transactionStore.InsertEntry(ctx, entryInput); err != nil {
		return Account{}, err
	}
	return account, nil
}

// ListEntries returns the newest journal entries of an account.
func (service *Service) ListEntries(ctx context.Context, accountID AccountID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListEntriesLimit
	}
	if limit > maxListEntriesLimit {
		limit = maxListEntriesLimit
	}
	if _, err := service.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return service.store.ListEntries(ctx, accountID, limit)
}

func (service *Service) today() Date {
	return DateOf(service.nowFn())
}

func (service *Service) newKey(prefix string) (IdempotencyKey, error) {
	return NewIdempotencyKey(prefix + idempotencyKeyDelimiter + service.newID())
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func deriveIdempotencyKey(baseKey IdempotencyKey, suffix string) (IdempotencyKey, error) {
	combined := baseKey.String() + idempotencyKeyDelimiter + suffix
	return NewIdempotencyKey(combined)
}
