package credits

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

const (
	storeCallAdjustCredits  = "AdjustCredits"
	storeCallInsertEntry    = "InsertEntry"
	storeCallGetAccount     = "GetAccount"
	storeCallUpdateStatus   = "UpdateRequestStatus"
	storeCallListRequests   = "ListRequests"
	storeCallListAccounts   = "ListAccounts"
	storeCallStampGrantDate = "StampGrantDate"
)

type memoryState struct {
	accounts    map[AccountID]Account
	entries     []Entry
	plans       []Plan
	requests    map[RequestID]PurchaseRequest
	methods     []PaymentMethod
	nextEntryID int
}

func (state *memoryState) clone() *memoryState {
	cloned := &memoryState{
		accounts:    make(map[AccountID]Account, len(state.accounts)),
		entries:     append([]Entry(nil), state.entries...),
		plans:       append([]Plan(nil), state.plans...),
		requests:    make(map[RequestID]PurchaseRequest, len(state.requests)),
		methods:     append([]PaymentMethod(nil), state.methods...),
		nextEntryID: state.nextEntryID,
	}
	for id, account := range state.accounts {
		cloned.accounts[id] = account
	}
	for id, request := range state.requests {
		cloned.requests[id] = request
	}
	return cloned
}

type memoryFailures struct {
	mutex  sync.Mutex
	errors map[string]error
}

func (failures *memoryFailures) get(call string) error {
	failures.mutex.Lock()
	defer failures.mutex.Unlock()
	return failures.errors[call]
}

// memoryStore is a transactional in-memory Store. WithTx works on a copy and publishes it on success.
type memoryStore struct {
	mutex    *sync.Mutex
	state    *memoryState
	inTx     bool
	failures *memoryFailures
}

func newMemoryStore(test *testing.T) *memoryStore {
	test.Helper()
	return &memoryStore{
		mutex: &sync.Mutex{},
		state: &memoryState{
			accounts: make(map[AccountID]Account),
			requests: make(map[RequestID]PurchaseRequest),
		},
		failures: &memoryFailures{errors: make(map[string]error)},
	}
}

func (store *memoryStore) fail(call string, err error) {
	store.failures.mutex.Lock()
	defer store.failures.mutex.Unlock()
	store.failures.errors[call] = err
}

func (store *memoryStore) guard() func() {
	if store.inTx {
		return func() {}
	}
	store.mutex.Lock()
	return store.mutex.Unlock
}

func (store *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	if store.inTx {
		return fn(ctx, store)
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	txStore := &memoryStore{mutex: store.mutex, state: store.state.clone(), inTx: true, failures: store.failures}
	if err := fn(ctx, txStore); err != nil {
		return err
	}
	store.state = txStore.state
	return nil
}

func (store *memoryStore) CreateAccount(ctx context.Context, account Account) error {
	defer store.guard()()
	for _, existing := range store.state.accounts {
		if existing.Email() == account.Email() {
			return ErrDuplicateEmail
		}
	}
	store.state.accounts[account.ID()] = account
	return nil
}

func (store *memoryStore) GetAccount(ctx context.Context, accountID AccountID) (Account, error) {
	defer store.guard()()
	if err := store.failures.get(storeCallGetAccount); err != nil {
		return Account{}, err
	}
	account, ok := store.state.accounts[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (store *memoryStore) FindAccountByEmail(ctx context.Context, email Email) (Account, error) {
	defer store.guard()()
	for _, account := range store.state.accounts {
		if account.Email() == email {
			return account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (store *memoryStore) ListAccounts(ctx context.Context) ([]Account, error) {
	defer store.guard()()
	if err := store.failures.get(storeCallListAccounts); err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(store.state.accounts))
	for _, account := range store.state.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(left, right int) bool {
		return accounts[left].ID().String() < accounts[right].ID().String()
	})
	return accounts, nil
}

func (store *memoryStore) SaveAccount(ctx context.Context, account Account) error {
	defer store.guard()()
	if _, ok := store.state.accounts[account.ID()]; !ok {
		return ErrAccountNotFound
	}
	for _, existing := range store.state.accounts {
		if existing.ID() != account.ID() && existing.Email() == account.Email() {
			return ErrDuplicateEmail
		}
	}
	store.state.accounts[account.ID()] = account
	return nil
}

func (store *memoryStore) DeleteAccount(ctx context.Context, accountID AccountID) error {
	defer store.guard()()
	delete(store.state.accounts, accountID)
	return nil
}

func (store *memoryStore) AdjustCredits(ctx context.Context, accountID AccountID, delta int64) (Account, error) {
	defer store.guard()()
	if err := store.failures.get(storeCallAdjustCredits); err != nil {
		return Account{}, err
	}
	account, ok := store.state.accounts[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	updated := account.Credits().Int64() + delta
	if updated < 0 {
		return Account{}, ErrInsufficientCredits
	}
	account.credits = Credits(updated)
	store.state.accounts[accountID] = account
	return account, nil
}

func (store *memoryStore) StampGrantDate(ctx context.Context, accountID AccountID, day Date) (bool, error) {
	defer store.guard()()
	if err := store.failures.get(storeCallStampGrantDate); err != nil {
		return false, err
	}
	account, ok := store.state.accounts[accountID]
	if !ok {
		return false, ErrAccountNotFound
	}
	if account.lastCreditGrantDate.Equal(day) {
		return false, nil
	}
	account.lastCreditGrantDate = day
	store.state.accounts[accountID] = account
	return true, nil
}

func (store *memoryStore) InsertEntry(ctx context.Context, entryInput EntryInput) error {
	defer store.guard()()
	if err := store.failures.get(storeCallInsertEntry); err != nil {
		return err
	}
	for _, existing := range store.state.entries {
		if existing.AccountID() == entryInput.AccountID() && existing.IdempotencyKey() == entryInput.IdempotencyKey() {
			return ErrDuplicateIdempotencyKey
		}
	}
	store.state.nextEntryID++
	entry := Entry{EntryInput: entryInput, entryID: EntryID{value: fmt.Sprintf("entry-%d", store.state.nextEntryID)}}
	store.state.entries = append(store.state.entries, entry)
	return nil
}

func (store *memoryStore) ListEntries(ctx context.Context, accountID AccountID, limit int) ([]Entry, error) {
	defer store.guard()()
	var entries []Entry
	for index := len(store.state.entries) - 1; index >= 0 && len(entries) < limit; index-- {
		if store.state.entries[index].AccountID() == accountID {
			entries = append(entries, store.state.entries[index])
		}
	}
	return entries, nil
}

func (store *memoryStore) CreatePlan(ctx context.Context, plan Plan) error {
	defer store.guard()()
	store.state.plans = append(store.state.plans, plan)
	return nil
}

func (store *memoryStore) GetPlan(ctx context.Context, planID PlanID) (Plan, error) {
	defer store.guard()()
	for _, plan := range store.state.plans {
		if plan.ID() == planID {
			return plan, nil
		}
	}
	return Plan{}, ErrPlanNotFound
}

func (store *memoryStore) ListPlans(ctx context.Context) ([]Plan, error) {
	defer store.guard()()
	return append([]Plan(nil), store.state.plans...), nil
}

func (store *memoryStore) InsertRequest(ctx context.Context, request PurchaseRequest) error {
	defer store.guard()()
	store.state.requests[request.ID()] = request
	return nil
}

func (store *memoryStore) GetRequest(ctx context.Context, requestID RequestID) (PurchaseRequest, error) {
	defer store.guard()()
	request, ok := store.state.requests[requestID]
	if !ok {
		return PurchaseRequest{}, ErrRequestNotFound
	}
	return request, nil
}

func (store *memoryStore) ListRequests(ctx context.Context, filter RequestFilter) ([]PurchaseRequest, error) {
	defer store.guard()()
	if err := store.failures.get(storeCallListRequests); err != nil {
		return nil, err
	}
	var requests []PurchaseRequest
	for _, request := range store.state.requests {
		if !filter.AccountID.IsZero() && request.AccountID() != filter.AccountID {
			continue
		}
		if filter.Status != "" && request.Status() != filter.Status {
			continue
		}
		requests = append(requests, request)
	}
	sort.Slice(requests, func(left, right int) bool {
		if !requests[left].Date().Equal(requests[right].Date()) {
			return requests[left].Date().Time().After(requests[right].Date().Time())
		}
		return requests[left].ID().String() > requests[right].ID().String()
	})
	return requests, nil
}

func (store *memoryStore) UpdateRequestStatus(ctx context.Context, requestID RequestID, from RequestStatus, to RequestStatus) error {
	defer store.guard()()
	if err := store.failures.get(storeCallUpdateStatus); err != nil {
		return err
	}
	request, ok := store.state.requests[requestID]
	if !ok {
		return ErrRequestNotFound
	}
	if request.Status() != from {
		return ErrRequestClosed
	}
	store.state.requests[requestID] = request.WithStatus(to)
	return nil
}

func (store *memoryStore) CreatePaymentMethod(ctx context.Context, method PaymentMethod) error {
	defer store.guard()()
	store.state.methods = append(store.state.methods, method)
	return nil
}

func (store *memoryStore) GetPaymentMethod(ctx context.Context, methodID PaymentMethodID) (PaymentMethod, error) {
	defer store.guard()()
	for _, method := range store.state.methods {
		if method.ID() == methodID {
			return method, nil
		}
	}
	return PaymentMethod{}, ErrPaymentMethodNotFound
}

func (store *memoryStore) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	defer store.guard()()
	return append([]PaymentMethod(nil), store.state.methods...), nil
}

func (store *memoryStore) DeletePaymentMethod(ctx context.Context, methodID PaymentMethodID) error {
	defer store.guard()()
	kept := store.state.methods[:0:0]
	for _, method := range store.state.methods {
		if method.ID() != methodID {
			kept = append(kept, method)
		}
	}
	store.state.methods = kept
	return nil
}

// testClock is a mutable clock shared between a test and the service under test.
type testClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (clock *testClock) Now() time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return clock.now
}

func (clock *testClock) Set(now time.Time) {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	clock.now = now
}

func (clock *testClock) AddDays(days int) {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	clock.now = clock.now.AddDate(0, 0, days)
}

func sequentialIDs(prefix string) func() string {
	var (
		mutex   sync.Mutex
		counter int
	)
	return func() string {
		mutex.Lock()
		defer mutex.Unlock()
		counter++
		return fmt.Sprintf("%s-%03d", prefix, counter)
	}
}

func mustNewService(test *testing.T, store Store, clock *testClock, options ...ServiceOption) *Service {
	test.Helper()
	options = append([]ServiceOption{WithIDGenerator(sequentialIDs("id"))}, options...)
	service, err := NewService(store, clock.Now, options...)
	if err != nil {
		test.Fatalf("NewService: %v", err)
	}
	return service
}

func mustEmail(test *testing.T, raw string) Email {
	test.Helper()
	email, err := NewEmail(raw)
	if err != nil {
		test.Fatalf("NewEmail(%q): %v", raw, err)
	}
	return email
}

func mustPositiveCredits(test *testing.T, raw int64) PositiveCredits {
	test.Helper()
	amount, err := NewPositiveCredits(raw)
	if err != nil {
		test.Fatalf("NewPositiveCredits(%d): %v", raw, err)
	}
	return amount
}

func mustCredits(test *testing.T, raw int64) Credits {
	test.Helper()
	amount, err := NewCredits(raw)
	if err != nil {
		test.Fatalf("NewCredits(%d): %v", raw, err)
	}
	return amount
}

func mustTransactionID(test *testing.T, raw string) TransactionID {
	test.Helper()
	transactionID, err := NewTransactionID(raw)
	if err != nil {
		test.Fatalf("NewTransactionID(%q): %v", raw, err)
	}
	return transactionID
}

func mustIdempotencyKey(test *testing.T, raw string) IdempotencyKey {
	test.Helper()
	key, err := NewIdempotencyKey(raw)
	if err != nil {
		test.Fatalf("NewIdempotencyKey(%q): %v", raw, err)
	}
	return key
}

func mustTerms(test *testing.T, planType PlanType, durationDays int, dailyAmount int64) PlanTerms {
	test.Helper()
	terms, err := NewPlanTerms(planType, durationDays, dailyAmount)
	if err != nil {
		test.Fatalf("NewPlanTerms: %v", err)
	}
	return terms
}

func mustAccount(test *testing.T, service *Service, email string, credits int64) Account {
	test.Helper()
	account, err := service.CreateAccount(context.Background(), mustEmail(test, email), mustCredits(test, credits), RoleUser)
	if err != nil {
		test.Fatalf("CreateAccount: %v", err)
	}
	return account
}

func mustPlan(test *testing.T, service *Service, name string, credits int64, terms PlanTerms) Plan {
	test.Helper()
	plan, err := service.CreatePlan(context.Background(), name, "", Price(100), mustCredits(test, credits), terms)
	if err != nil {
		test.Fatalf("CreatePlan: %v", err)
	}
	return plan
}

func mustPaymentMethod(test *testing.T, service *Service) PaymentMethod {
	test.Helper()
	method, err := service.AddPaymentMethod(context.Background(), "Bank transfer", "IBAN DE00 0000", "Use your email as reference")
	if err != nil {
		test.Fatalf("AddPaymentMethod: %v", err)
	}
	return method
}

func mustSubmit(test *testing.T, service *Service, account Account, plan Plan, method PaymentMethod) PurchaseRequest {
	test.Helper()
	request, err := service.SubmitPurchaseRequest(context.Background(), account.ID(), plan.ID(), mustTransactionID(test, "tx-"+plan.ID().String()), method.ID(), "")
	if err != nil {
		test.Fatalf("SubmitPurchaseRequest: %v", err)
	}
	return request
}

func mustBalance(test *testing.T, service *Service, accountID AccountID) int64 {
	test.Helper()
	account, err := service.GetAccount(context.Background(), accountID)
	if err != nil {
		test.Fatalf("GetAccount: %v", err)
	}
	return account.Credits().Int64()
}
