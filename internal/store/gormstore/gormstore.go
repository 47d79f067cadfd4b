package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintAccountEmail     = "uniq_accounts_email"
	constraintEntryIdempotency = "uniq_credit_entries_account_key"
	defaultMetadataJSON        = "{}"
	pgUniqueViolationCode      = "23505"
	sqliteConstraintCode       = 19
	errorOperationStore        = "store"
	errorSubjectAccount        = "account"
	errorSubjectEntry          = "entry"
	errorSubjectPlan           = "plan"
	errorSubjectRequest        = "request"
	errorSubjectPaymentMethod  = "payment_method"
	errorCodeAdjust            = "adjust"
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
	columnCredits              = "credits"
	columnLastCreditGrantDate  = "last_credit_grant_date"
	columnStatus               = "status"
	lockingStrengthUpdate      = "UPDATE"
)

// Store implements credits.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore credits.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) CreateAccount(ctx context.Context, account credits.Account) error {
	model := accountModel(account)
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintAccountEmail) {
		return wrapStoreError(errorSubjectAccount, errorCodeDuplicate, credits.ErrDuplicateEmail)
	}
	if err != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetAccount(ctx context.Context, accountID credits.AccountID) (credits.Account, error) {
	return store.takeAccount(ctx, "account_id = ?", accountID.String())
}

func (store *Store) FindAccountByEmail(ctx context.Context, email credits.Email) (credits.Account, error) {
	return store.takeAccount(ctx, "email = ?", email.String())
}

func (store *Store) takeAccount(ctx context.Context, query string, argument string) (credits.Account, error) {
	var model Account
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: lockingStrengthUpdate}).
		Where(query, argument).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, credits.ErrAccountNotFound)
		}
		return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeGet, err)
	}
	account, err := mapAccount(model)
	if err != nil {
		return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeInvalid, err)
	}
	return account, nil
}

func (store *Store) ListAccounts(ctx context.Context) ([]credits.Account, error) {
	var rows []Account
	if err := store.db.WithContext(ctx).Order("created_at ASC, account_id ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectAccount, errorCodeList, err)
	}
	accounts := make([]credits.Account, 0, len(rows))
	for _, row := range rows {
		account, err := mapAccount(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectAccount, errorCodeInvalid, err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (store *Store) SaveAccount(ctx context.Context, account credits.Account) error {
	model := accountModel(account)
	result := store.db.WithContext(ctx).
		Model(&Account{}).
		Where("account_id = ?", model.AccountID).
		Select("email", columnCredits, "role", columnLastCreditGrantDate).
		Updates(&model)
	if isUniqueViolation(result.Error, constraintAccountEmail) {
		return wrapStoreError(errorSubjectAccount, errorCodeDuplicate, credits.ErrDuplicateEmail)
	}
	if result.Error != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeSave, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectAccount, errorCodeSave, credits.ErrAccountNotFound)
	}
	return nil
}

func (store *Store) DeleteAccount(ctx context.Context, accountID credits.AccountID) error {
	result := store.db.WithContext(ctx).Where("account_id = ?", accountID.String()).Delete(&Account{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectAccount, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectAccount, errorCodeDelete, credits.ErrAccountNotFound)
	}
	return nil
}

// AdjustCredits applies delta with a single conditional update so the balance never goes negative.
func (store *Store) AdjustCredits(ctx context.Context, accountID credits.AccountID, delta int64) (credits.Account, error) {
	result := store.db.WithContext(ctx).
		Model(&Account{}).
		Where("account_id = ? AND credits + ? >= 0", accountID.String(), delta).
		Update(columnCredits, gorm.Expr("credits + ?", delta))
	if result.Error != nil {
		return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeAdjust, result.Error)
	}
	account, err := store.GetAccount(ctx, accountID)
	if err != nil {
		return credits.Account{}, err
	}
	if result.RowsAffected == 0 {
		return credits.Account{}, wrapStoreError(errorSubjectAccount, errorCodeAdjust, credits.ErrInsufficientCredits)
	}
	return account, nil
}

// StampGrantDate only moves the stamp forward; a second call for the same day reports false.
func (store *Store) StampGrantDate(ctx context.Context, accountID credits.AccountID, day credits.Date) (bool, error) {
	stamp := datatypes.Date(day.Time())
	result := store.db.WithContext(ctx).
		Model(&Account{}).
		Where("account_id = ?", accountID.String()).
		Where("last_credit_grant_date IS NULL OR last_credit_grant_date < ?", stamp).
		Update(columnLastCreditGrantDate, stamp)
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectAccount, errorCodeStamp, result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	if _, err := store.GetAccount(ctx, accountID); err != nil {
		return false, err
	}
	return false, nil
}

func (store *Store) InsertEntry(ctx context.Context, entryInput credits.EntryInput) error {
	entry := CreditEntry{
		AccountID:      entryInput.AccountID().String(),
		Type:           entryInput.Type().String(),
		Amount:         entryInput.Amount().Int64(),
		IdempotencyKey: entryInput.IdempotencyKey().String(),
		Metadata:       datatypesJSON(entryInput.Metadata().String()),
		CreatedAt:      time.Unix(entryInput.CreatedUnixUTC(), 0).UTC(),
	}
	if entryInput.CreatedUnixUTC() == 0 {
		entry.CreatedAt = time.Now().UTC()
	}
	err := store.db.WithContext(ctx).Create(&entry).Error
	if isUniqueViolation(err, constraintEntryIdempotency) {
		return wrapStoreError(errorSubjectEntry, errorCodeDuplicate, credits.ErrDuplicateIdempotencyKey)
	}
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) ListEntries(ctx context.Context, accountID credits.AccountID, limit int) ([]credits.Entry, error) {
	var rows []CreditEntry
	err := store.db.WithContext(ctx).
		Where("account_id = ?", accountID.String()).
		Order("created_at DESC, entry_id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	entries := make([]credits.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := mapEntry(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (store *Store) CreatePlan(ctx context.Context, plan credits.Plan) error {
	model := planModel(plan)
	model.CreatedAt = time.Now().UTC()
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectPlan, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetPlan(ctx context.Context, planID credits.PlanID) (credits.Plan, error) {
	var model Plan
	err := store.db.WithContext(ctx).Where("plan_id = ?", planID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return credits.Plan{}, wrapStoreError(errorSubjectPlan, errorCodeGet, credits.ErrPlanNotFound)
		}
		return credits.Plan{}, wrapStoreError(errorSubjectPlan, errorCodeGet, err)
	}
	plan, err := mapPlan(model)
	if err != nil {
		return credits.Plan{}, wrapStoreError(errorSubjectPlan, errorCodeInvalid, err)
	}
	return plan, nil
}

func (store *Store) ListPlans(ctx context.Context) ([]credits.Plan, error) {
	var rows []Plan
	if err := store.db.WithContext(ctx).Order("created_at ASC, plan_id ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectPlan, errorCodeList, err)
	}
	plans := make([]credits.Plan, 0, len(rows))
	for _, row := range rows {
		plan, err := mapPlan(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectPlan, errorCodeInvalid, err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (store *Store) InsertRequest(ctx context.Context, request credits.PurchaseRequest) error {
	model := requestModel(request)
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectRequest, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetRequest(ctx context.Context, requestID credits.RequestID) (credits.PurchaseRequest, error) {
	var model PurchaseRequest
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: lockingStrengthUpdate}).
		Where("request_id = ?", requestID.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return credits.PurchaseRequest{}, wrapStoreError(errorSubjectRequest, errorCodeGet, credits.ErrRequestNotFound)
		}
		return credits.PurchaseRequest{}, wrapStoreError(errorSubjectRequest, errorCodeGet, err)
	}
	request, err := mapRequest(model)
	if err != nil {
		return credits.PurchaseRequest{}, wrapStoreError(errorSubjectRequest, errorCodeInvalid, err)
	}
	return request, nil
}

func (store *Store) ListRequests(ctx context.Context, filter credits.RequestFilter) ([]credits.PurchaseRequest, error) {
	query := store.db.WithContext(ctx).Model(&PurchaseRequest{})
	if !filter.AccountID.IsZero() {
		query = query.Where("account_id = ?", filter.AccountID.String())
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status.String())
	}
	var rows []PurchaseRequest
	if err := query.Order("date DESC, request_id DESC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectRequest, errorCodeList, err)
	}
	requests := make([]credits.PurchaseRequest, 0, len(rows))
	for _, row := range rows {
		request, err := mapRequest(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectRequest, errorCodeInvalid, err)
		}
		requests = append(requests, request)
	}
	return requests, nil
}

func (store *Store) UpdateRequestStatus(ctx context.Context, requestID credits.RequestID, from credits.RequestStatus, to credits.RequestStatus) error {
	result := store.db.WithContext(ctx).
		Model(&PurchaseRequest{}).
		Where("request_id = ? AND status = ?", requestID.String(), from.String()).
		Update(columnStatus, to.String())
	if result.Error != nil {
		return wrapStoreError(errorSubjectRequest, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectRequest, errorCodeUpdateStatus, credits.ErrRequestClosed)
	}
	return nil
}

func (store *Store) CreatePaymentMethod(ctx context.Context, method credits.PaymentMethod) error {
	model := PaymentMethod{
		MethodID:  method.ID().String(),
		Name:      method.Name(),
		Details:   method.Details(),
		Hint:      method.Hint(),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectPaymentMethod, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetPaymentMethod(ctx context.Context, methodID credits.PaymentMethodID) (credits.PaymentMethod, error) {
	var model PaymentMethod
	err := store.db.WithContext(ctx).Where("method_id = ?", methodID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return credits.PaymentMethod{}, wrapStoreError(errorSubjectPaymentMethod, errorCodeGet, credits.ErrPaymentMethodNotFound)
		}
		return credits.PaymentMethod{}, wrapStoreError(errorSubjectPaymentMethod, errorCodeGet, err)
	}
	method, err := mapPaymentMethod(model)
	if err != nil {
		return credits.PaymentMethod{}, wrapStoreError(errorSubjectPaymentMethod, errorCodeInvalid, err)
	}
	return method, nil
}

func (store *Store) ListPaymentMethods(ctx context.Context) ([]credits.PaymentMethod, error) {
	var rows []PaymentMethod
	if err := store.db.WithContext(ctx).Order("created_at ASC, method_id ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectPaymentMethod, errorCodeList, err)
	}
	methods := make([]credits.PaymentMethod, 0, len(rows))
	for _, row := range rows {
		method, err := mapPaymentMethod(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectPaymentMethod, errorCodeInvalid, err)
		}
		methods = append(methods, method)
	}
	return methods, nil
}

func (store *Store) DeletePaymentMethod(ctx context.Context, methodID credits.PaymentMethodID) error {
	result := store.db.WithContext(ctx).Where("method_id = ?", methodID.String()).Delete(&PaymentMethod{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectPaymentMethod, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectPaymentMethod, errorCodeDelete, credits.ErrPaymentMethodNotFound)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return credits.WrapError(errorOperationStore, subject, code, err)
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultMetadataJSON))
	}
	return datatypes.JSON([]byte(raw))
}

func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
