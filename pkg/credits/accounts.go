package credits

import (
	"context"
	"fmt"
)

// Register creates an account for email with the configured signup balance.
// The configured administrator email receives the admin role and the admin balance instead.
func (service *Service) Register(ctx context.Context, email Email) (Account, error) {
	role := RoleUser
	initialCredits := service.signupCredits
	if !service.adminEmail.IsZero() && service.adminEmail == email {
		role = RoleAdmin
		initialCredits = service.adminCredits
	}
	return service.CreateAccount(ctx, email, initialCredits, role)
}

// CreateAccount stores a new account. It fails with ErrDuplicateEmail when the email is taken.
func (service *Service) CreateAccount(ctx context.Context, email Email, initialCredits Credits, role Role) (Account, error) {
	var account Account
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		accountID, err := NewAccountID(service.newID())
		if err != nil {
			return err
		}
		account, err = NewAccount(accountID, email, 0, role, Date{}, service.nowFn().Unix())
		if err != nil {
			return err
		}
		if err := transactionStore.CreateAccount(ctx, account); err != nil {
			return err
		}
		if initialCredits == 0 {
			return nil
		}
		signupKey, err := NewIdempotencyKey(idempotencyKeySignup)
		if err != nil {
			return err
		}
		amount, err := NewEntryAmount(initialCredits.Int64())
		if err != nil {
			return err
		}
		account, err = service.applyDelta(ctx, transactionStore, accountID, EntrySignup, amount, signupKey, MetadataJSON{})
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationRegister,
		AccountID: account.ID(),
		Amount:    initialCredits.Int64(),
		Error:     operationError,
	})
	if operationError != nil {
		return Account{}, operationError
	}
	return account, nil
}

// GetAccount returns the account or ErrAccountNotFound.
func (service *Service) GetAccount(ctx context.Context, accountID AccountID) (Account, error) {
	return service.store.GetAccount(ctx, accountID)
}

// FindAccountByEmail returns the account or ErrAccountNotFound.
func (service *Service) FindAccountByEmail(ctx context.Context, email Email) (Account, error) {
	return service.store.FindAccountByEmail(ctx, email)
}

// ListAccounts returns every account.
func (service *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return service.store.ListAccounts(ctx)
}

// Activate resolves a signed-in identity and applies any pending daily grant.
func (service *Service) Activate(ctx context.Context, email Email) (Account, error) {
	account, err := service.store.FindAccountByEmail(ctx, email)
	if err != nil {
		return Account{}, err
	}
	return service.MaybeApplyDailyGrant(ctx, account.ID())
}

// SaveAccount replaces the stored record. A balance change is journaled as an admin_set entry.
func (service *Service) SaveAccount(ctx context.Context, account Account) error {
	unlock := service.locks.lock(account.ID())
	defer unlock()
	var delta int64
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetAccount(ctx, account.ID())
		if err != nil {
			return err
		}
		delta = account.Credits().Int64() - current.Credits().Int64()
		if err := transactionStore.SaveAccount(ctx, account); err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		return service.journalOverride(ctx, transactionStore, account.ID(), delta, current.Credits())
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationSaveAccount,
		AccountID: account.ID(),
		Amount:    delta,
		Error:     operationError,
	})
	return operationError
}

// DeleteAccount removes the account. Purchase requests and journal entries are kept for audit.
func (service *Service) DeleteAccount(ctx context.Context, accountID AccountID) error {
	unlock := service.locks.lock(accountID)
	defer unlock()
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetAccount(ctx, accountID); err != nil {
			return err
		}
		return transactionStore.DeleteAccount(ctx, accountID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeleteAccount,
		AccountID: accountID,
		Error:     operationError,
	})
	return operationError
}

// GrantCredits adds an administrative grant.
func (service *Service) GrantCredits(ctx context.Context, accountID AccountID, amount PositiveCredits) (Account, error) {
	idempotencyKey, err := service.newKey(idempotencyPrefixAdmin)
	if err != nil {
		return Account{}, err
	}
	return service.Credit(ctx, accountID, amount, EntryAdminGrant, idempotencyKey, MetadataJSON{})
}

// SetCredits overrides the balance. The difference is journaled as an admin_set entry.
func (service *Service) SetCredits(ctx context.Context, accountID AccountID, amount Credits) (Account, error) {
	unlock := service.locks.lock(accountID)
	defer unlock()
	var (
		account Account
		delta   int64
	)
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		delta = amount.Int64() - current.Credits().Int64()
		if delta == 0 {
			account = current
			return nil
		}
		account, err = transactionStore.AdjustCredits(ctx, accountID, delta)
		if err != nil {
			return err
		}
		return service.journalOverride(ctx, transactionStore, accountID, delta, current.Credits())
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationSetCredits,
		AccountID: accountID,
		Amount:    delta,
		Error:     operationError,
	})
	if operationError != nil {
		return Account{}, operationError
	}
	return account, nil
}

func (service *Service) journalOverride(ctx context.Context, transactionStore Store, accountID AccountID, delta int64, previous Credits) error {
	amount, err := NewEntryAmount(delta)
	if err != nil {
		return err
	}
	idempotencyKey, err := service.newKey(idempotencyPrefixAdmin)
	if err != nil {
		return err
	}
	metadata, err := NewMetadataJSON(fmt.Sprintf(`{%q:%d}`, metadataKeyPreviousValue, previous.Int64()))
	if err != nil {
		return err
	}
	entryInput, err := NewEntryInput(accountID, EntryAdminSet, amount, idempotencyKey, metadata, service.nowFn().Unix())
	if err != nil {
		return err
	}
	return transactionStore.InsertEntry(ctx, entryInput)
}
