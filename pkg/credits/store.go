package credits

import "context"

// Store is the persistence contract behind Service.
//
// Every method must be durable before it returns. AdjustCredits is the only
// balance mutation used on the hot path and must be a single conditional
// update so that concurrent writers never lose an update.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	// CreateAccount fails with ErrDuplicateEmail when the email is taken.
	CreateAccount(ctx context.Context, account Account) error
	// GetAccount fails with ErrAccountNotFound.
	GetAccount(ctx context.Context, accountID AccountID) (Account, error)
	// FindAccountByEmail fails with ErrAccountNotFound.
	FindAccountByEmail(ctx context.Context, email Email) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	// SaveAccount replaces the full record. It fails with ErrAccountNotFound or ErrDuplicateEmail.
	SaveAccount(ctx context.Context, account Account) error
	DeleteAccount(ctx context.Context, accountID AccountID) error
	// AdjustCredits applies delta atomically and returns the updated account.
	// It fails with ErrInsufficientCredits, leaving the balance unchanged, when the result would be negative.
	AdjustCredits(ctx context.Context, accountID AccountID, delta int64) (Account, error)
	// StampGrantDate sets lastCreditGrantDate to day unless it already equals day.
	// It reports whether the stamp changed.
	StampGrantDate(ctx context.Context, accountID AccountID, day Date) (bool, error)

	// InsertEntry fails with ErrDuplicateIdempotencyKey when the key already exists for the account.
	InsertEntry(ctx context.Context, entry EntryInput) error
	// ListEntries returns the newest entries first.
	ListEntries(ctx context.Context, accountID AccountID, limit int) ([]Entry, error)

	CreatePlan(ctx context.Context, plan Plan) error
	// GetPlan fails with ErrPlanNotFound.
	GetPlan(ctx context.Context, planID PlanID) (Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)

	InsertRequest(ctx context.Context, request PurchaseRequest) error
	// GetRequest fails with ErrRequestNotFound.
	GetRequest(ctx context.Context, requestID RequestID) (PurchaseRequest, error)
	// ListRequests orders by submission date then id, both descending.
	ListRequests(ctx context.Context, filter RequestFilter) ([]PurchaseRequest, error)
	// UpdateRequestStatus moves a request from one status to another.
	// It fails with ErrRequestClosed when the stored status is no longer from.
	UpdateRequestStatus(ctx context.Context, requestID RequestID, from RequestStatus, to RequestStatus) error

	CreatePaymentMethod(ctx context.Context, method PaymentMethod) error
	// GetPaymentMethod fails with ErrPaymentMethodNotFound.
	GetPaymentMethod(ctx context.Context, methodID PaymentMethodID) (PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, methodID PaymentMethodID) error
}
