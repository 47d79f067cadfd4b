package gormstore

import (
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"gorm.io/datatypes"
)

func accountModel(account credits.Account) Account {
	model := Account{
		AccountID: account.ID().String(),
		Email:     account.Email().String(),
		Credits:   account.Credits().Int64(),
		Role:      account.Role().String(),
		CreatedAt: time.Unix(account.CreatedUnixUTC(), 0).UTC(),
	}
	if lastGrant, ok := account.LastCreditGrantDate(); ok {
		stamp := datatypes.Date(lastGrant.Time())
		model.LastCreditGrantDate = &stamp
	}
	return model
}

func mapAccount(model Account) (credits.Account, error) {
	accountID, err := credits.NewAccountID(model.AccountID)
	if err != nil {
		return credits.Account{}, err
	}
	email, err := credits.NewEmail(model.Email)
	if err != nil {
		return credits.Account{}, err
	}
	balance, err := credits.NewCredits(model.Credits)
	if err != nil {
		return credits.Account{}, err
	}
	role, err := credits.ParseRole(model.Role)
	if err != nil {
		return credits.Account{}, err
	}
	var lastGrant credits.Date
	if model.LastCreditGrantDate != nil {
		lastGrant = credits.DateOf(time.Time(*model.LastCreditGrantDate))
	}
	return credits.NewAccount(accountID, email, balance, role, lastGrant, model.CreatedAt.Unix())
}

func mapEntry(row CreditEntry) (credits.Entry, error) {
	entryID, err := credits.NewEntryID(row.EntryID)
	if err != nil {
		return credits.Entry{}, err
	}
	accountID, err := credits.NewAccountID(row.AccountID)
	if err != nil {
		return credits.Entry{}, err
	}
	entryType, err := credits.ParseEntryType(row.Type)
	if err != nil {
		return credits.Entry{}, err
	}
	amount, err := credits.NewEntryAmount(row.Amount)
	if err != nil {
		return credits.Entry{}, err
	}
	idempotencyKey, err := credits.NewIdempotencyKey(row.IdempotencyKey)
	if err != nil {
		return credits.Entry{}, err
	}
	metadata, err := credits.NewMetadataJSON(string(row.Metadata))
	if err != nil {
		return credits.Entry{}, err
	}
	entryInput, err := credits.NewEntryInput(accountID, entryType, amount, idempotencyKey, metadata, row.CreatedAt.Unix())
	if err != nil {
		return credits.Entry{}, err
	}
	return credits.NewEntry(entryID, entryInput)
}

func planModel(plan credits.Plan) Plan {
	model := Plan{
		PlanID:      plan.ID().String(),
		Name:        plan.Name(),
		Description: plan.Description(),
		Type:        plan.Type().String(),
		Price:       plan.Price().Int64(),
		Credits:     plan.Credits().Int64(),
	}
	if days, ok := plan.Terms().DurationDays(); ok {
		model.DurationDays = &days
	}
	if amount, ok := plan.Terms().DailyCreditAmount(); ok {
		raw := amount.Int64()
		model.DailyCreditAmount = &raw
	}
	return model
}

func mapPlan(model Plan) (credits.Plan, error) {
	planID, err := credits.NewPlanID(model.PlanID)
	if err != nil {
		return credits.Plan{}, err
	}
	planType, err := credits.ParsePlanType(model.Type)
	if err != nil {
		return credits.Plan{}, err
	}
	var (
		durationDays int
		dailyAmount  int64
	)
	if model.DurationDays != nil {
		durationDays = *model.DurationDays
	}
	if model.DailyCreditAmount != nil {
		dailyAmount = *model.DailyCreditAmount
	}
	terms, err := credits.NewPlanTerms(planType, durationDays, dailyAmount)
	if err != nil {
		return credits.Plan{}, err
	}
	price, err := credits.NewPrice(model.Price)
	if err != nil {
		return credits.Plan{}, err
	}
	amount, err := credits.NewCredits(model.Credits)
	if err != nil {
		return credits.Plan{}, err
	}
	return credits.NewPlan(planID, model.Name, model.Description, price, amount, terms)
}

func requestModel(request credits.PurchaseRequest) PurchaseRequest {
	return PurchaseRequest{
		RequestID:      request.ID().String(),
		AccountID:      request.AccountID().String(),
		Email:          request.Email().String(),
		PlanID:         request.PlanID().String(),
		PlanName:       request.PlanName(),
		CreditsToAward: request.CreditsToAward().Int64(),
		TransactionID:  request.TransactionID().String(),
		Note:           request.Note(),
		Date:           datatypes.Date(request.Date().Time()),
		Status:         request.Status().String(),
	}
}

func mapRequest(model PurchaseRequest) (credits.PurchaseRequest, error) {
	requestID, err := credits.NewRequestID(model.RequestID)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	accountID, err := credits.NewAccountID(model.AccountID)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	email, err := credits.NewEmail(model.Email)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	planID, err := credits.NewPlanID(model.PlanID)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	amount, err := credits.NewCredits(model.CreditsToAward)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	transactionID, err := credits.NewTransactionID(model.TransactionID)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	status, err := credits.ParseRequestStatus(model.Status)
	if err != nil {
		return credits.PurchaseRequest{}, err
	}
	return credits.NewPurchaseRequest(
		requestID,
		accountID,
		email,
		planID,
		model.PlanName,
		amount,
		transactionID,
		model.Note,
		credits.DateOf(time.Time(model.Date)),
		status,
	)
}

func mapPaymentMethod(model PaymentMethod) (credits.PaymentMethod, error) {
	methodID, err := credits.NewPaymentMethodID(model.MethodID)
	if err != nil {
		return credits.PaymentMethod{}, err
	}
	return credits.NewPaymentMethod(methodID, model.Name, model.Details, model.Hint)
}
