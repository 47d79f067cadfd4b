package credits

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AccountID identifies an account. It is assigned at creation and never changes.
type AccountID struct {
	value string
}

// PlanID identifies a pricing plan.
type PlanID struct {
	value string
}

// RequestID identifies a purchase request.
type RequestID struct {
	value string
}

// PaymentMethodID identifies an administrator-configured payment method.
type PaymentMethodID struct {
	value string
}

// EntryID identifies a journal entry.
type EntryID struct {
	value string
}

// IdempotencyKey scopes duplicate detection of journal entries per account.
type IdempotencyKey struct {
	value string
}

// MetadataJSON stores arbitrary entry metadata.
type MetadataJSON struct {
	value string
}

// Email is a normalized (trimmed, lower-cased) email address.
type Email struct {
	value string
}

// TransactionID is the external payment reference of a purchase request.
type TransactionID struct {
	value string
}

// Credits is a non-negative credit balance or amount.
type Credits int64

// PositiveCredits is a strictly positive credit amount.
type PositiveCredits int64

// EntryAmount is a signed, non-zero journal delta.
type EntryAmount int64

// Price is a non-negative plan price in whole currency units.
type Price int64

// NewAccountID validates and normalizes an account id.
func NewAccountID(raw string) (AccountID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return AccountID{}, fmt.Errorf("%w: empty value", ErrInvalidAccountID)
	}
	return AccountID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id AccountID) String() string {
	return id.value
}

// IsZero reports whether the id is unset.
func (id AccountID) IsZero() bool {
	return id.value == ""
}

// NewPlanID validates and normalizes a plan id.
func NewPlanID(raw string) (PlanID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PlanID{}, fmt.Errorf("%w: empty value", ErrInvalidPlanID)
	}
	return PlanID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id PlanID) String() string {
	return id.value
}

// NewRequestID validates and normalizes a purchase request id.
func NewRequestID(raw string) (RequestID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return RequestID{}, fmt.Errorf("%w: empty value", ErrInvalidRequestID)
	}
	return RequestID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id RequestID) String() string {
	return id.value
}

// NewPaymentMethodID validates and normalizes a payment method id.
func NewPaymentMethodID(raw string) (PaymentMethodID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PaymentMethodID{}, fmt.Errorf("%w: empty value", ErrInvalidPaymentMethodID)
	}
	return PaymentMethodID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id PaymentMethodID) String() string {
	return id.value
}

// NewEntryID validates and normalizes an entry id.
func NewEntryID(raw string) (EntryID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EntryID{}, fmt.Errorf("%w: empty value", ErrInvalidEntryID)
	}
	return EntryID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id EntryID) String() string {
	return id.value
}

// NewIdempotencyKey validates and normalizes an idempotency key.
func NewIdempotencyKey(raw string) (IdempotencyKey, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return IdempotencyKey{}, fmt.Errorf("%w: empty value", ErrInvalidIdempotencyKey)
	}
	return IdempotencyKey{value: trimmed}, nil
}

// String returns the normalized key.
func (key IdempotencyKey) String() string {
	return key.value
}

// NewMetadataJSON validates metadata string (defaulting to "{}" for empty inputs).
func NewMetadataJSON(raw string) (MetadataJSON, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		normalized = "{}"
	}
	if !json.Valid([]byte(normalized)) {
		return MetadataJSON{}, fmt.Errorf("%w: must be valid json", ErrInvalidMetadataJSON)
	}
	return MetadataJSON{value: normalized}, nil
}

// String returns the normalized JSON blob.
func (metadata MetadataJSON) String() string {
	if metadata.value == "" {
		return "{}"
	}
	return metadata.value
}

// NewEmail validates an address and normalizes it for case-insensitive comparison.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return Email{}, fmt.Errorf("%w: empty value", ErrInvalidEmail)
	}
	if strings.Count(normalized, emailSeparator) != 1 || strings.ContainsAny(normalized, " \t\r\n") {
		return Email{}, fmt.Errorf("%w: malformed address %q", ErrInvalidEmail, normalized)
	}
	local, domain, _ := strings.Cut(normalized, emailSeparator)
	if local == "" || domain == "" {
		return Email{}, fmt.Errorf("%w: malformed address %q", ErrInvalidEmail, normalized)
	}
	return Email{value: normalized}, nil
}

// String returns the normalized address.
func (email Email) String() string {
	return email.value
}

// IsZero reports whether the email is unset.
func (email Email) IsZero() bool {
	return email.value == ""
}

// NewTransactionID validates a payment reference.
func NewTransactionID(raw string) (TransactionID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TransactionID{}, fmt.Errorf("%w: empty value", ErrInvalidTransactionID)
	}
	return TransactionID{value: trimmed}, nil
}

// String returns the normalized reference.
func (id TransactionID) String() string {
	return id.value
}

// NewCredits validates a non-negative credit value.
func NewCredits(raw int64) (Credits, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must be zero or greater", ErrInvalidCredits)
	}
	return Credits(raw), nil
}

// Int64 returns the raw value.
func (amount Credits) Int64() int64 {
	return int64(amount)
}

// NewPositiveCredits validates an amount and ensures it is strictly positive.
func NewPositiveCredits(raw int64) (PositiveCredits, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidCredits)
	}
	return PositiveCredits(raw), nil
}

// Int64 returns the raw value.
func (amount PositiveCredits) Int64() int64 {
	return int64(amount)
}

// ToCredits widens the amount to Credits.
func (amount PositiveCredits) ToCredits() Credits {
	return Credits(amount)
}

// ToEntryAmount converts the amount into a positive journal delta.
func (amount PositiveCredits) ToEntryAmount() EntryAmount {
	return EntryAmount(amount)
}

// NewEntryAmount validates a signed, non-zero journal delta.
func NewEntryAmount(raw int64) (EntryAmount, error) {
	if raw == 0 {
		return 0, fmt.Errorf("%w: must be non-zero", ErrInvalidEntryAmount)
	}
	return EntryAmount(raw), nil
}

// Int64 returns the raw value.
func (amount EntryAmount) Int64() int64 {
	return int64(amount)
}

// Negated flips the sign of the delta.
func (amount EntryAmount) Negated() EntryAmount {
	return -amount
}

// NewPrice validates a plan price.
func NewPrice(raw int64) (Price, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must be zero or greater", ErrInvalidPrice)
	}
	return Price(raw), nil
}

// Int64 returns the raw value.
func (price Price) Int64() int64 {
	return int64(price)
}

// Role is the account privilege level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleUser, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// String returns the role value.
func (role Role) String() string {
	return string(role)
}

// Date is a UTC calendar day.
type Date struct {
	value time.Time
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(instant time.Time) Date {
	year, month, day := instant.UTC().Date()
	return Date{value: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return DateOf(parsed), nil
}

// String formats the day as YYYY-MM-DD; the zero Date formats as "".
func (date Date) String() string {
	if date.IsZero() {
		return ""
	}
	return date.value.Format(dateLayout)
}

// IsZero reports whether the date is absent.
func (date Date) IsZero() bool {
	return date.value.IsZero()
}

// Equal reports whether both values name the same day.
func (date Date) Equal(other Date) bool {
	return date.value.Equal(other.value)
}

// AddDays moves the day forward (or backward for negative n).
func (date Date) AddDays(days int) Date {
	return Date{value: date.value.AddDate(0, 0, days)}
}

// Time returns midnight UTC of the day.
func (date Date) Time() time.Time {
	return date.value
}

// Account is the single source of truth for a user's balance.
type Account struct {
	id                  AccountID
	email               Email
	credits             Credits
	role                Role
	lastCreditGrantDate Date
	createdUnixUTC      int64
}

// NewAccount validates and constructs an account record. A zero lastCreditGrantDate means no grant yet.
func NewAccount(id AccountID, email Email, credits Credits, role Role, lastCreditGrantDate Date, createdUnixUTC int64) (Account, error) {
	if id.IsZero() {
		return Account{}, fmt.Errorf("%w: empty value", ErrInvalidAccountID)
	}
	if email.IsZero() {
		return Account{}, fmt.Errorf("%w: empty value", ErrInvalidEmail)
	}
	if _, err := NewCredits(credits.Int64()); err != nil {
		return Account{}, err
	}
	if _, err := ParseRole(role.String()); err != nil {
		return Account{}, err
	}
	return Account{
		id:                  id,
		email:               email,
		credits:             credits,
		role:                role,
		lastCreditGrantDate: lastCreditGrantDate,
		createdUnixUTC:      createdUnixUTC,
	}, nil
}

// ID returns the stable identifier.
func (account Account) ID() AccountID {
	return account.id
}

// Email returns the lookup email.
func (account Account) Email() Email {
	return account.email
}

// Credits returns the balance.
func (account Account) Credits() Credits {
	return account.credits
}

// Role returns the privilege level.
func (account Account) Role() Role {
	return account.role
}

// IsAdmin reports whether the account holds the admin role.
func (account Account) IsAdmin() bool {
	return account.role == RoleAdmin
}

// LastCreditGrantDate returns the last daily grant day, if any.
func (account Account) LastCreditGrantDate() (Date, bool) {
	return account.lastCreditGrantDate, !account.lastCreditGrantDate.IsZero()
}

// CreatedUnixUTC returns the creation timestamp.
func (account Account) CreatedUnixUTC() int64 {
	return account.createdUnixUTC
}

// WithEmail returns a copy with a different email.
func (account Account) WithEmail(email Email) Account {
	account.email = email
	return account
}

// WithRole returns a copy with a different role.
func (account Account) WithRole(role Role) Account {
	account.role = role
	return account
}

// WithCredits returns a copy with a different balance.
func (account Account) WithCredits(credits Credits) Account {
	account.credits = credits
	return account
}

// RequestStatus defines the purchase request lifecycle.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusApproved RequestStatus = "Approved"
	RequestStatusRejected RequestStatus = "Rejected"
)

// ParseRequestStatus validates a status string (case-insensitive).
func ParseRequestStatus(raw string) (RequestStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return RequestStatusPending, nil
	case "approved":
		return RequestStatusApproved, nil
	case "rejected":
		return RequestStatusRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRequestStatus, raw)
	}
}

// String returns the status value.
func (status RequestStatus) String() string {
	return string(status)
}

// IsTerminal reports whether the status accepts no further credit effects.
func (status RequestStatus) IsTerminal() bool {
	return status == RequestStatusApproved || status == RequestStatusRejected
}

// PurchaseRequest is a user-submitted, admin-approved credit purchase.
type PurchaseRequest struct {
	id             RequestID
	accountID      AccountID
	email          Email
	planID         PlanID
	planName       string
	creditsToAward Credits
	transactionID  TransactionID
	note           string
	date           Date
	status         RequestStatus
}

// NewPurchaseRequest validates and constructs a purchase request record.
func NewPurchaseRequest(
	id RequestID,
	accountID AccountID,
	email Email,
	planID PlanID,
	planName string,
	creditsToAward Credits,
	transactionID TransactionID,
	note string,
	date Date,
	status RequestStatus,
) (PurchaseRequest, error) {
	if id.String() == "" {
		return PurchaseRequest{}, fmt.Errorf("%w: empty value", ErrInvalidRequestID)
	}
	if accountID.IsZero() {
		return PurchaseRequest{}, fmt.Errorf("%w: empty value", ErrInvalidAccountID)
	}
	if email.IsZero() {
		return PurchaseRequest{}, fmt.Errorf("%w: empty value", ErrInvalidEmail)
	}
	if planID.String() == "" {
		return PurchaseRequest{}, fmt.Errorf("%w: empty value", ErrInvalidPlanID)
	}
	if _, err := NewCredits(creditsToAward.Int64()); err != nil {
		return PurchaseRequest{}, err
	}
	if transactionID.String() == "" {
		return PurchaseRequest{}, fmt.Errorf("%w: empty value", ErrInvalidTransactionID)
	}
	if date.IsZero() {
		return PurchaseRequest{}, fmt.Errorf("%w: submission date is required", ErrInvalidDate)
	}
	if _, err := ParseRequestStatus(status.String()); err != nil {
		return PurchaseRequest{}, err
	}
	return PurchaseRequest{
		id:             id,
		accountID:      accountID,
		email:          email,
		planID:         planID,
		planName:       strings.TrimSpace(planName),
		creditsToAward: creditsToAward,
		transactionID:  transactionID,
		note:           strings.TrimSpace(note),
		date:           date,
		status:         status,
	}, nil
}

// ID returns the identifier.
func (request PurchaseRequest) ID() RequestID {
	return request.id
}

// AccountID returns the requesting account.
func (request PurchaseRequest) AccountID() AccountID {
	return request.accountID
}

// Email returns the email snapshot taken at submission.
func (request PurchaseRequest) Email() Email {
	return request.email
}

// PlanID returns the purchased plan.
func (request PurchaseRequest) PlanID() PlanID {
	return request.planID
}

// PlanName returns the plan name snapshot.
func (request PurchaseRequest) PlanName() string {
	return request.planName
}

// CreditsToAward returns the frozen award amount.
func (request PurchaseRequest) CreditsToAward() Credits {
	return request.creditsToAward
}

// TransactionID returns the payment reference.
func (request PurchaseRequest) TransactionID() TransactionID {
	return request.transactionID
}

// Note returns the optional note.
func (request PurchaseRequest) Note() string {
	return request.note
}

// Date returns the submission day.
func (request PurchaseRequest) Date() Date {
	return request.date
}

// Status returns the lifecycle status.
func (request PurchaseRequest) Status() RequestStatus {
	return request.status
}

// WithStatus returns a copy carrying a different status.
func (request PurchaseRequest) WithStatus(status RequestStatus) PurchaseRequest {
	request.status = status
	return request
}

// RequestFilter narrows ListRequests. Zero fields match everything.
type RequestFilter struct {
	AccountID AccountID
	Status    RequestStatus
}

// PaymentMethod is an administrator-configured way to pay for a plan.
type PaymentMethod struct {
	id      PaymentMethodID
	name    string
	details string
	hint    string
}

// NewPaymentMethod validates and constructs a payment method.
func NewPaymentMethod(id PaymentMethodID, name string, details string, hint string) (PaymentMethod, error) {
	if id.String() == "" {
		return PaymentMethod{}, fmt.Errorf("%w: empty value", ErrInvalidPaymentMethodID)
	}
	trimmedName := strings.TrimSpace(name)
	trimmedDetails := strings.TrimSpace(details)
	if trimmedName == "" || trimmedDetails == "" {
		return PaymentMethod{}, fmt.Errorf("%w: name and details are required", ErrInvalidPaymentMethod)
	}
	return PaymentMethod{id: id, name: trimmedName, details: trimmedDetails, hint: strings.TrimSpace(hint)}, nil
}

// ID returns the identifier.
func (method PaymentMethod) ID() PaymentMethodID {
	return method.id
}

// Name returns the display name.
func (method PaymentMethod) Name() string {
	return method.name
}

// Details returns the payment destination.
func (method PaymentMethod) Details() string {
	return method.details
}

// Hint returns instructions shown next to the method.
func (method PaymentMethod) Hint() string {
	return method.hint
}

// EntryType enumerates journal entry kinds.
type EntryType string

const (
	EntrySignup     EntryType = "signup"
	EntryDebit      EntryType = "debit"
	EntryRefund     EntryType = "refund"
	EntryPurchase   EntryType = "purchase"
	EntryDailyGrant EntryType = "daily_grant"
	EntryAdminGrant EntryType = "admin_grant"
	EntryAdminSet   EntryType = "admin_set"
)

// ParseEntryType validates an entry type string.
func ParseEntryType(raw string) (EntryType, error) {
	entryType := EntryType(strings.TrimSpace(raw))
	switch entryType {
	case EntrySignup, EntryDebit, EntryRefund, EntryPurchase, EntryDailyGrant, EntryAdminGrant, EntryAdminSet:
		return entryType, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryType, raw)
	}
}

// String returns the entry type value.
func (entryType EntryType) String() string {
	return string(entryType)
}

// EntryInput is a journal line waiting to be stored.
type EntryInput struct {
	accountID      AccountID
	entryType      EntryType
	amount         EntryAmount
	idempotencyKey IdempotencyKey
	metadata       MetadataJSON
	createdUnixUTC int64
}

// NewEntryInput validates a journal line.
func NewEntryInput(accountID AccountID, entryType EntryType, amount EntryAmount, idempotencyKey IdempotencyKey, metadata MetadataJSON, createdUnixUTC int64) (EntryInput, error) {
	if accountID.IsZero() {
		return EntryInput{}, fmt.Errorf("%w: empty value", ErrInvalidAccountID)
	}
	if _, err := ParseEntryType(entryType.String()); err != nil {
		return EntryInput{}, err
	}
	if _, err := NewEntryAmount(amount.Int64()); err != nil {
		return EntryInput{}, err
	}
	if idempotencyKey.String() == "" {
		return EntryInput{}, fmt.Errorf("%w: empty value", ErrInvalidIdempotencyKey)
	}
	return EntryInput{
		accountID:      accountID,
		entryType:      entryType,
		amount:         amount,
		idempotencyKey: idempotencyKey,
		metadata:       metadata,
		createdUnixUTC: createdUnixUTC,
	}, nil
}

// AccountID returns the owning account.
func (input EntryInput) AccountID() AccountID {
	return input.accountID
}

// Type returns the entry type.
func (input EntryInput) Type() EntryType {
	return input.entryType
}

// Amount returns the signed delta.
func (input EntryInput) Amount() EntryAmount {
	return input.amount
}

// IdempotencyKey returns the per-account dedupe key.
func (input EntryInput) IdempotencyKey() IdempotencyKey {
	return input.idempotencyKey
}

// Metadata returns the metadata blob.
func (input EntryInput) Metadata() MetadataJSON {
	return input.metadata
}

// CreatedUnixUTC returns the creation time.
func (input EntryInput) CreatedUnixUTC() int64 {
	return input.createdUnixUTC
}

// Entry is a single immutable line in the credit journal.
type Entry struct {
	EntryInput
	entryID EntryID
}

// NewEntry constructs a stored journal line.
func NewEntry(entryID EntryID, input EntryInput) (Entry, error) {
	if entryID.String() == "" {
		return Entry{}, fmt.Errorf("%w: empty value", ErrInvalidEntryID)
	}
	return Entry{EntryInput: input, entryID: entryID}, nil
}

// EntryID returns the identifier.
func (entry Entry) EntryID() EntryID {
	return entry.entryID
}

// Stats summarizes the ledger for the admin dashboard.
type Stats struct {
	TotalAccounts   int
	PendingRequests int
	PlanCount       int
	TotalCredits    int64
}
