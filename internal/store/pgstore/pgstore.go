package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

const (
	constraintAccountEmail     = "uniq_accounts_email"
	constraintEntryIdempotency = "uniq_credit_entries_account_key"
	pgUniqueViolationCode      = "23505"
	errorOperationStore        = "store"
	errorSubjectAccount        = "account"
	errorSubjectEntry          = "entry"
	errorSubjectPlan           = "plan"
	errorSubjectRequest        = "request"
	errorSubjectPaymentMethod  = "payment_method"
	errorSubjectSchema         = "schema"
	errorSubjectTransaction    = "transaction"
	errorCodeAdjust            = "adjust"
	errorCodeApply             = "apply"
	errorCodeBegin             = "begin"
	errorCodeCommit            = "commit"
	errorCodeCreate            = "create"
	errorCodeDelete            = "delete"
	errorCodeDuplicate         = "duplicate"
	errorCodeGet               = "get"
	errorCodeInsert            = "insert"
	errorCodeInvalid           = "invalid"
	errorCodeList              = "list"
	errorCodeSave              = "save"
	errorCodeStamp             = "stamp"
	errorCodeUpdateStatus      = "update_status"

	accountColumns = `account_id, email, credits, role, last_credit_grant_date, extract(epoch from created_at)::bigint`

	sqlInsertAccount = `
		insert into accounts(account_id, email, credits, role, last_credit_grant_date, created_at)
		values ($1, $2, $3, $4, $5, to_timestamp($6))
	`

	sqlSelectAccountByID = `select ` + accountColumns + ` from accounts where account_id = $1 for update`

	sqlSelectAccountByEmail = `select ` + accountColumns + ` from accounts where email = $1 for update`

	sqlListAccounts = `select ` + accountColumns + ` from accounts order by created_at, account_id`

	sqlSaveAccount = `
		update accounts set email = $2, credits = $3, role = $4, last_credit_grant_date = $5
		where account_id = $1
	`

	sqlDeleteAccount = `delete from accounts where account_id = $1`

	sqlAdjustCredits = `
		update accounts set credits = credits + $2
		where account_id = $1 and credits + $2 >= 0
		returning ` + accountColumns

	sqlStampGrantDate = `
		update accounts set last_credit_grant_date = $2
		where account_id = $1 and (last_credit_grant_date is null or last_credit_grant_date < $2)
	`

	sqlInsertEntry = `
		insert into credit_entries(entry_id, account_id, type, amount, idempotency_key, metadata, created_at)
		values ($1, $2, $3, $4, $5, coalesce(nullif($6,''),'{}')::jsonb, to_timestamp($7))
	`

	sqlListEntries = `
		select entry_id, account_id, type, amount, idempotency_key, metadata::text, extract(epoch from created_at)::bigint
		from credit_entries
		where account_id = $1
		order by created_at desc, entry_id desc
		limit $2
	`

	planColumns = `plan_id, name, description, type, price, credits, duration_days, daily_credit_amount`

	sqlInsertPlan = `
		insert into plans(` + planColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	sqlSelectPlan = `select ` + planColumns + ` from plans where plan_id = $1`

	sqlListPlans = `select ` + planColumns + ` from plans order by created_at, plan_id`

	requestColumns = `request_id, account_id, email, plan_id, plan_name, credits_to_award, transaction_id, note, date, status`

	sqlInsertRequest = `
		insert into purchase_requests(` + requestColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	sqlSelectRequest = `select ` + requestColumns + ` from purchase_requests where request_id = $1 for update`

	sqlListRequests = `
		select ` + requestColumns + ` from purchase_requests
		where ($1 = '' or account_id = $1) and ($2 = '' or status = $2)
		order by date desc, request_id desc
	`

	sqlUpdateRequestStatus = `
		update purchase_requests set status = $3, updated_at = now()
		where request_id = $1 and status = $2
	`

	methodColumns = `method_id, name, details, hint`

	sqlInsertPaymentMethod = `insert into payment_methods(` + methodColumns + `) values ($1, $2, $3, $4)`

	sqlSelectPaymentMethod = `select ` + methodColumns + ` from payment_methods where method_id = $1`

	sqlListPaymentMethods = `select ` + methodColumns + ` from payment_methods order by created_at, method_id`

	sqlDeletePaymentMethod = `delete from payment_methods where method_id = $1`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

// Store implements credits.Store using a pgx connection pool. Outside WithTx every call autocommits.
type Store struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// Migrate applies the embedded schema. It is safe to run on every start.
func (store *Store) Migrate(ctx context.Context) error {
	if _, err := store.db.Exec(ctx, schemaSQL); err != nil {
		return wrapStoreError(errorSubjectSchema, errorCodeApply, err)
	}
	return nil
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore credits.Store) error) error {
	if store.inTx {
		return fn(ctx, store)
	}
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	transactionStore := &Store{pool: store.pool, db: tx, inTx: true}
	if err := fn(ctx, transactionStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

func (store *Store) CreateAccount(ctx context.Context, account credits.Account) error {
	_, err := store.db.Exec(ctx, sqlInsertAccount,
		account.ID().String(),
		account.Email().String(),
		account.Credits().Int64(),
		account.Role().String(),
		grantDateArgument(account),
		account.CreatedUnixUTC(),
	)
	if isUniqueViolation(err, constraintAccountEmail) {
		return wrapStoreError(errorSubjectAccount, errorCodeDuplicate, credits.ErrDuplicateEmail)
	}
	if err != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetAccount(ctx context.Context, accountID credits.AccountID) (credits.Account, error) {
	return store.selectAccount(ctx, sqlSelectAccountByID, accountID.String())
}

func (store *Store) FindAccountByEmail(ctx context.Context, email credits.Email) (credits.Account, error) {
	return store.selectAccount(ctx, sqlSelectAccountByEmail, email.String())
}

func (store *Store) selectAccount(ctx context.Context, query string, argument string) (credits.Account, error) {
	account, err := scanAccount(store.db.QueryRow(ctx, query, argument))
	if errors.Is(err, pgx.ErrNoRows) {
		return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, credits.ErrAccountNotFound)
	}
	if err != nil {
		return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, err)
	}
	return account, nil
}

func (store *Store) ListAccounts(ctx context.Context) ([]credits.Account, error) {
	rows, err := store.db.Query(ctx, sqlListAccounts)
	if err != nil {
		return nil, wrapStoreError(errorSubjectAccount, errorCodeList, err)
	}
	defer rows.Close()
	var accounts []credits.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectAccount, errorCodeInvalid, err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectAccount, errorCodeList, err)
	}
	return accounts, nil
}

func (store *Store) SaveAccount(ctx context.Context, account credits.Account) error {
	tag, err := store.db.Exec(ctx, sqlSaveAccount,
		account.ID().String(),
		account.Email().String(),
		account.Credits().Int64(),
		account.Role().String(),
		grantDateArgument(account),
	)
	if isUniqueViolation(err, constraintAccountEmail) {
		return wrapStoreError(errorSubjectAccount, errorCodeDuplicate, credits.ErrDuplicateEmail)
	}
	if err != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeSave, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectAccount, errorCodeSave, credits.ErrAccountNotFound)
	}
	return nil
}

func (store *Store) DeleteAccount(ctx context.Context, accountID credits.AccountID) error {
	tag, err := store.db.Exec(ctx, sqlDeleteAccount, accountID.String())
	if err != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeDelete, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectAccount, errorCodeDelete, credits.ErrAccountNotFound)
	}
	return nil
}

func (store *Store) AdjustCredits(ctx context.Context, accountID credits.AccountID, delta int64) (credits.Account, error) {
	account, err := scanAccount(store.db.QueryRow(ctx, sqlAdjustCredits, accountID.String(), delta))
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeAdjust, err)
	}
	if _, err := store.GetAccount(ctx, accountID); err != nil {
		return credits.Account{}, err
	}
	return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeAdjust, credits.ErrInsufficientCredits)
}

func (store *Store) StampGrantDate(ctx context.Context, accountID credits.AccountID, day credits.Date) (bool, error) {
	tag, err := store.db.Exec(ctx, sqlStampGrantDate, accountID.String(), day.Time())
	if err != nil {
		return false, wrapStoreError(errorSubjectAccount, errorCodeStamp, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	if _, err := store.GetAccount(ctx, accountID); err != nil {
		return false, err
	}
	return false, nil
}

func (store *Store) InsertEntry(ctx context.Context, entryInput credits.EntryInput) error {
	createdUnixUTC := entryInput.CreatedUnixUTC()
	if createdUnixUTC == 0 {
		createdUnixUTC = time.Now().UTC().Unix()
	}
	_, err := store.db.Exec(ctx, sqlInsertEntry,
		uuid.NewString(),
		entryInput.AccountID().String(),
		entryInput.Type().String(),
		entryInput.Amount().Int64(),
		entryInput.IdempotencyKey().String(),
		entryInput.Metadata().String(),
		createdUnixUTC,
	)
	if isUniqueViolation(err, constraintEntryIdempotency) {
		return wrapStoreError(errorSubjectEntry, errorCodeDuplicate, credits.ErrDuplicateIdempotencyKey)
	}
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) ListEntries(ctx context.Context, accountID credits.AccountID, limit int) ([]credits.Entry, error) {
	rows, err := store.db.Query(ctx, sqlListEntries, accountID.String(), limit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	defer rows.Close()
	var entries []credits.Entry
	for rows.Next() {
		var (
			entryID, accountIDValue, entryType, idempotencyKey, metadata string
			amount, createdUnixUTC                                       int64
		)
		if err := rows.Scan(&entryID, &accountIDValue, &entryType, &amount, &idempotencyKey, &metadata, &createdUnixUTC); err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
		}
		entry, err := buildEntry(entryID, accountIDValue, entryType, amount, idempotencyKey, metadata, createdUnixUTC)
		if err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	return entries, nil
}

func (store *Store) CreatePlan(ctx context.Context, plan credits.Plan) error {
	var (
		durationDays *int64
		dailyAmount  *int64
	)
	if days, ok := plan.Terms().DurationDays(); ok {
		value := int64(days)
		durationDays = &value
	}
	if amount, ok := plan.Terms().DailyCreditAmount(); ok {
		value := amount.Int64()
		dailyAmount = &value
	}
	_, err := store.db.Exec(ctx, sqlInsertPlan,
		plan.ID().String(),
		plan.Name(),
		plan.Description(),
		plan.Type().String(),
		plan.Price().Int64(),
		plan.Credits().Int64(),
		durationDays,
		dailyAmount,
	)
	if err != nil {
		return wrapStoreError(errorSubjectPlan, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetPlan(ctx context.Context, planID credits.PlanID) (credits.Plan, error) {
	plan, err := scanPlan(store.db.QueryRow(ctx, sqlSelectPlan, planID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return credits.Plan{}, wrapStoreError(errorSubjectPlan, errorCodeGet, credits.ErrPlanNotFound)
	}
	if err != nil {
		return credits.Plan{}, wrapStoreError(errorSubjectPlan, errorCodeGet, err)
	}
	return plan, nil
}

func (store *Store) ListPlans(ctx context.Context) ([]credits.Plan, error) {
	rows, err := store.db.Query(ctx, sqlListPlans)
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlan, errorCodeList, err)
	}
	defer rows.Close()
	var plans []credits.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectPlan, errorCodeInvalid, err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectPlan, errorCodeList, err)
	}
	return plans, nil
}

func (store *Store) InsertRequest(ctx context.Context, request credits.PurchaseRequest) error {
	_, err := store.db.Exec(ctx, sqlInsertRequest,
		request.ID().String(),
		request.AccountID().String(),
		request.Email().String(),
		request.PlanID().String(),
		request.PlanName(),
		request.CreditsToAward().Int64(),
		request.TransactionID().String(),
		request.Note(),
		request.Date().Time(),
		request.Status().String(),
	)
	if err != nil {
		return wrapStoreError(errorSubjectRequest, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetRequest(ctx context.Context, requestID credits.RequestID) (credits.PurchaseRequest, error) {
	request, err := scanRequest(store.db.QueryRow(ctx, sqlSelectRequest, requestID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return credits.PurchaseRequest{}, wrapStoreError(errorSubjectRequest, errorCodeGet, credits.ErrRequestNotFound)
	}
	if err != nil {
		return credits.PurchaseRequest{}, wrapStoreError(errorSubjectRequest, errorCodeGet, err)
	}
	return request, nil
}

func (store *Store) ListRequests(ctx context.Context, filter credits.RequestFilter) ([]credits.PurchaseRequest, error) {
	rows, err := store.db.Query(ctx, sqlListRequests, filter.AccountID.String(), filter.Status.String())
	if err != nil {
		return nil, wrapStoreError(errorSubjectRequest, errorCodeList, err)
	}
	defer rows.Close()
	var requests []credits.PurchaseRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectRequest, errorCodeInvalid, err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectRequest, errorCodeList, err)
	}
	return requests, nil
}

func (store *Store) UpdateRequestStatus(ctx context.Context, requestID credits.RequestID, from credits.RequestStatus, to credits.RequestStatus) error {
	tag, err := store.db.Exec(ctx, sqlUpdateRequestStatus, requestID.String(), from.String(), to.String())
	if err != nil {
		return wrapStoreError(errorSubjectRequest, errorCodeUpdateStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectRequest, errorCodeUpdateStatus, credits.ErrRequestClosed)
	}
	return nil
}

func (store *Store) CreatePaymentMethod(ctx context.Context, method credits.PaymentMethod) error {
	_, err := store.db.Exec(ctx, sqlInsertPaymentMethod, method.ID().String(), method.Name(), method.Details(), method.Hint())
	if err != nil {
		return wrapStoreError(errorSubjectPaymentMethod, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetPaymentMethod(ctx context.Context, methodID credits.PaymentMethodID) (credits.PaymentMethod, error) {
	method, err := scanPaymentMethod(store.db.QueryRow(ctx, sqlSelectPaymentMethod, methodID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return credits.PaymentMethod{}, wrapStoreError(errorSubjectPaymentMethod, errorCodeGet, credits.ErrPaymentMethodNotFound)
	}
	if err != nil {
		return credits.PaymentMethod{}, wrapStoreError(errorSubjectPaymentMethod, errorCodeGet, err)
	}
	return method, nil
}

func (store *Store) ListPaymentMethods(ctx context.Context) ([]credits.PaymentMethod, error) {
	rows, err := store.db.Query(ctx, sqlListPaymentMethods)
	if err != nil {
		return nil, wrapStoreError(errorSubjectPaymentMethod, errorCodeList, err)
	}
	defer rows.Close()
	var methods []credits.PaymentMethod
	for rows.Next() {
		method, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectPaymentMethod, errorCodeInvalid, err)
		}
		methods = append(methods, method)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectPaymentMethod, errorCodeList, err)
	}
	return methods, nil
}

func (store *Store) DeletePaymentMethod(ctx context.Context, methodID credits.PaymentMethodID) error {
	tag, err := store.db.Exec(ctx, sqlDeletePaymentMethod, methodID.String())
	if err != nil {
		return wrapStoreError(errorSubjectPaymentMethod, errorCodeDelete, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectPaymentMethod, errorCodeDelete, credits.ErrPaymentMethodNotFound)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return credits.WrapError(errorOperationStore, subject, code, err)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint
	}
	return false
}
