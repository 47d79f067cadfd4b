package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account represents the accounts table.
type Account struct {
	AccountID           string          `gorm:"primaryKey"`
	Email               string          `gorm:"not null;uniqueIndex:uniq_accounts_email"`
	Credits             int64           `gorm:"not null;check:chk_accounts_credits,credits >= 0"`
	Role                string          `gorm:"not null"`
	LastCreditGrantDate *datatypes.Date `gorm:""`
	CreatedAt           time.Time       `gorm:"not null"`
}

func (Account) TableName() string { return "accounts" }

func (account *Account) BeforeCreate(tx *gorm.DB) error {
	if account.AccountID == "" {
		account.AccountID = uuid.NewString()
	}
	return nil
}

// CreditEntry mirrors the credit_entries journal table. Rows outlive their account.
type CreditEntry struct {
	EntryID        string         `gorm:"primaryKey"`
	AccountID      string         `gorm:"not null;index:idx_credit_entries_account_created,priority:1;uniqueIndex:uniq_credit_entries_account_key,priority:1"`
	Type           string         `gorm:"not null"`
	Amount         int64          `gorm:"not null"`
	IdempotencyKey string         `gorm:"not null;uniqueIndex:uniq_credit_entries_account_key,priority:2"`
	Metadata       datatypes.JSON `gorm:"not null"`
	CreatedAt      time.Time      `gorm:"not null;index:idx_credit_entries_account_created,priority:2"`
}

func (CreditEntry) TableName() string { return "credit_entries" }

func (entry *CreditEntry) BeforeCreate(tx *gorm.DB) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	return nil
}

// Plan mirrors the plans table. DurationDays and DailyCreditAmount are null when the plan type has no such term.
type Plan struct {
	PlanID            string    `gorm:"primaryKey"`
	Name              string    `gorm:"not null"`
	Description       string    `gorm:"not null;default:''"`
	Type              string    `gorm:"not null"`
	Price             int64     `gorm:"not null"`
	Credits           int64     `gorm:"not null"`
	DurationDays      *int      `gorm:""`
	DailyCreditAmount *int64    `gorm:""`
	CreatedAt         time.Time `gorm:"not null"`
}

func (Plan) TableName() string { return "plans" }

// PurchaseRequest mirrors the purchase_requests table.
type PurchaseRequest struct {
	RequestID      string         `gorm:"primaryKey"`
	AccountID      string         `gorm:"not null;index:idx_purchase_requests_account"`
	Email          string         `gorm:"not null"`
	PlanID         string         `gorm:"not null"`
	PlanName       string         `gorm:"not null"`
	CreditsToAward int64          `gorm:"not null"`
	TransactionID  string         `gorm:"not null"`
	Note           string         `gorm:"not null;default:''"`
	Date           datatypes.Date `gorm:"not null;index:idx_purchase_requests_date"`
	Status         string         `gorm:"not null;index:idx_purchase_requests_status"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

func (PurchaseRequest) TableName() string { return "purchase_requests" }

// PaymentMethod mirrors the payment_methods table.
type PaymentMethod struct {
	MethodID  string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Details   string    `gorm:"not null"`
	Hint      string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{&Account{}, &CreditEntry{}, &Plan{}, &PurchaseRequest{}, &PaymentMethod{}}
}
