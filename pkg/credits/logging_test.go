package credits

import (
	"context"
	"sync"
	"testing"
)

type recorderLogger struct {
	mutex   sync.Mutex
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.entries = append(logger.entries, entry)
}

func (logger *recorderLogger) last() OperationLog {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	if len(logger.entries) == 0 {
		return OperationLog{}
	}
	return logger.entries[len(logger.entries)-1]
}

func TestServiceLogsDebitOperation(test *testing.T) {
	test.Parallel()
	logger := &recorderLogger{}
	service := mustNewService(test, newMemoryStore(test), newTestClock(startOfTest), WithOperationLogger(logger))
	account := mustAccount(test, service, userEmailValue, 10)
	idempotencyKey := mustIdempotencyKey(test, "debit-1")

	if _, err := service.Debit(context.Background(), account.ID(), mustPositiveCredits(test, 4), idempotencyKey, MetadataJSON{}); err != nil {
		test.Fatalf("Debit: %v", err)
	}
	entry := logger.last()
	if entry.Operation != operationDebit || entry.AccountID != account.ID() || entry.Amount != -4 || entry.IdempotencyKey != idempotencyKey {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.Error != nil || entry.Status != operationStatusOK {
		test.Fatalf("expected successful log entry, got %+v", entry)
	}
}

func TestServiceLogsErrorStatus(test *testing.T) {
	test.Parallel()
	store := newMemoryStore(test)
	logger := &recorderLogger{}
	service := mustNewService(test, store, newTestClock(startOfTest), WithOperationLogger(logger))
	account := mustAccount(test, service, userEmailValue, 10)
	store.fail(storeCallAdjustCredits, errStoreFailure)

	if _, err := service.GrantCredits(context.Background(), account.ID(), mustPositiveCredits(test, 4)); err == nil {
		test.Fatalf("expected error")
	}
	entry := logger.last()
	if entry.Operation != operationCredit || entry.Status != operationStatusError || entry.Error == nil {
		test.Fatalf("expected error log entry, got %+v", entry)
	}
}

func TestRefundIsLoggedSeparately(test *testing.T) {
	test.Parallel()
	logger := &recorderLogger{}
	service := mustNewService(test, newMemoryStore(test), newTestClock(startOfTest), WithOperationLogger(logger))
	account := mustAccount(test, service, userEmailValue, 10)

	_, _ = service.RunGenerationWithBilling(context.Background(), account.ID(), mustPositiveCredits(test, 2), func(context.Context) error {
		return errGatewayFailure
	})
	entry := logger.last()
	if entry.Operation != operationRefund || entry.Amount != 2 || entry.Status != operationStatusOK {
		test.Fatalf("expected refund log entry, got %+v", entry)
	}
}
