package pgstore

import (
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func grantDateArgument(account credits.Account) *time.Time {
	lastGrant, ok := account.LastCreditGrantDate()
	if !ok {
		return nil
	}
	stamp := lastGrant.Time()
	return &stamp
}

func scanAccount(row rowScanner) (credits.Account, error) {
	var (
		accountIDValue, emailValue, roleValue string
		balanceValue, createdUnixUTC          int64
		lastGrantValue                        *time.Time
	)
	if err := row.Scan(&accountIDValue, &emailValue, &balanceValue, &roleValue, &lastGrantValue, &createdUnixUTC); err != nil {
		return credits.Account{}, err
	}
	return buildAccount(accountIDValue, emailValue, balanceValue, roleValue, lastGrantValue, createdUnixUTC)
}

func buildAccount(accountIDValue string, emailValue string, balanceValue int64, roleValue string, lastGrantValue *time.Time, createdUnixUTC int64) (credits.Account, error) {
	accountID, err := credits.NewAccountID(accountIDValue)
	if err != nil {
		return credits.Account{}, err
	}
	email, err := credits.NewEmail(emailValue)
	if err != nil {
		return credits.Account{}, err
	}
	balance, err := credits.NewCredits(balanceValue)
	if err != nil {
		return credits.Account{}, err
	}
	role, err := credits.ParseRole(roleValue)
	if err != nil {
		return credits.Account{}, err
	}
	var lastGrant credits.Date
	if lastGrantValue != nil {
		lastGrant = credits.DateOf(*lastGrantValue)
	}
	return credits.NewAccount(accountID, email, balance, role, lastGrant, createdUnixUTC)
}

func buildEntry(entryIDValue string, accountIDValue string, entryTypeValue string, amountValue int64, keyValue string, metadataValue string, createdUnixUTC int64) (credits.Entry, error) {
	entryID, err := credits.NewEntryID(entryIDValue)
	if err != nil {
		return credits.Entry{}, err
	}
	accountID, err := credits.NewAccountID(accountIDValue)
	if err != nil {
		return credits.Entry{}, err
	}
	entryType, err := credits.ParseEntryType(entryTypeValue)
	if err != nil {
		return credits.Entry{}, err
	}
	amount, err := credits.NewEntryAmount(amountValue)
	if err != nil {
		return credits.Entry{}, err
	}
	idempotencyKey, err := credits.NewIdempotencyKey(keyValue)
	if err != nil {
		return credits.Entry{}, err
	}
	metadata, err := credits.NewMetadataJSON(metadataValue)
	if err != nil {
		return credits.Entry{}, err
	}
	entryInput, err := credits.NewEntryInput(accountID, entryType, amount, idempotencyKey, metadata, createdUnixUTC)
	if err != nil {
		return credits.Entry{}, err
	}
	return credits.NewEntry(entryID, entryInput)
}

func scanPlan(row rowScanner) (credits.Plan, error) {
	var (
		planIDValue, name, description, planTypeValue string
		priceValue, creditsValue                      int64
		durationDays, dailyAmount                     *int64
	)
	if err := row.Scan(&planIDValue, &name, &description, &planTypeValue, &priceValue, &creditsValue, &durationDays, &dailyAmount); err != nil {
		return credits.Plan{}, err
	}
	return buildPlan(planIDValue, name, description, planTypeValue, priceValue, creditsValue, durationDays, dailyAmount)
}

func buildPlan(planIDValue string, name string, description string, planTypeValue string, priceValue int64, creditsValue int64, durationDays *int64, dailyAmount *int64) (credits.Plan, error) {
	planID, err := credits.NewPlanID(planIDValue)
	if err != nil {
		return credits.Plan{}, err
	}
	planType, err := credits.ParsePlanType(planTypeValue)
	if err != nil {
		return credits.Plan{}, err
	}
	price, err := credits.NewPrice(priceValue)
	if err != nil {
		return credits.Plan{}, err
	}
	planCredits, err := credits.NewCredits(creditsValue)
	if err != nil {
		return credits.Plan{}, err
	}
	var (
		days   int
		amount int64
	)
	if durationDays != nil {
		days = int(*durationDays)
	}
	if dailyAmount != nil {
		amount = *dailyAmount
	}
	terms, err := credits.NewPlanTerms(planType, days, amount)
	if err != nil {
		return credits.Plan{}, err
	}
	return credits.NewPlan(planID, name, description, price, planCredits, terms)
}

func scanRequest(row rowScanner) (credits.PurchaseRequest, error) {
	var (
		requestIDValue, accountIDValue, emailValue, planIDValue, planName string
		transactionIDValue, note, statusValue                             string
		creditsToAward                                                    int64
		dateValue                                                         time.Time
	)
	if err := row.Scan(&requestIDValue, &accountIDValue, &emailValue, &planIDValue, &planName, &creditsToAward, &transactionIDValue, &note, &dateValue, &statusValue); err != nil {
		return credits.PurchaseRequest{}, err
	}
	requestID, err := credits.NewRequestID(requestIDValue)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	accountID, err := credits.NewAccountID(accountIDValue)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	email, err := credits.NewEmail(emailValue)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	planID, err := credits.NewPlanID(planIDValue)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	award, err := credits.NewCredits(creditsToAward)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	transactionID, err := credits.NewTransactionID(transactionIDValue)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	status, err := credits.ParseRequestStatus(statusValue)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	return credits.NewPurchaseRequest(requestID, accountID, email, planID, planName, award, transactionID, note, credits.DateOf(dateValue), status)
}

func scanPaymentMethod(row rowScanner) (credits.PaymentMethod, error) {
	var methodIDValue, name, details, hint string
	if err := row.Scan(&methodIDValue, &name, &details, &hint); err != nil {
		return credits.PaymentMethod{}, err
	}
	methodID, err := credits.NewPaymentMethodID(methodIDValue)
	if err != nil {
		return credits.PaymentMethod{}, err
	}
	return credits.NewPaymentMethod(methodID, name, details, hint)
}
