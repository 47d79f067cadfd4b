package httpapi

import (
	"encoding/json"

	"github.com/MarkoPoloResearchLab/pixelcredits/internal/gateway"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
)

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Count          *int   `json:"count"`
}

type editRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

type purchaseSubmission struct {
	PlanID          string `json:"plan_id"`
	TransactionID   string `json:"transaction_id"`
	PaymentMethodID string `json:"payment_method_id"`
	Note            string `json:"note"`
}

type amountRequest struct {
	Amount *int64 `json:"amount" binding:"required"`
}

type accountUpdate struct {
	Email   string `json:"email" binding:"required"`
	Role    string `json:"role" binding:"required"`
	Credits *int64 `json:"credits" binding:"required"`
}

type planCreation struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Type              string `json:"type"`
	Price             int64  `json:"price"`
	Credits           int64  `json:"credits"`
	DurationDays      int    `json:"duration_days"`
	DailyCreditAmount int64  `json:"daily_credit_amount"`
}

type paymentMethodCreation struct {
	Name    string `json:"name"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

type accountPayload struct {
	AccountID           string `json:"account_id"`
	Email               string `json:"email"`
	Credits             int64  `json:"credits"`
	Role                string `json:"role"`
	LastCreditGrantDate string `json:"last_credit_grant_date,omitempty"`
	CreatedUnixUTC      int64  `json:"created_unix_utc"`
}

type sessionPayload struct {
	Account        accountPayload `json:"account"`
	Token          string         `json:"token"`
	ExpiresUnixUTC int64          `json:"expires_unix_utc"`
}

type entryPayload struct {
	EntryID        string          `json:"entry_id"`
	Type           string          `json:"type"`
	Amount         int64           `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedUnixUTC int64           `json:"created_unix_utc"`
}

type planPayload struct {
	PlanID            string `json:"plan_id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Type              string `json:"type"`
	Price             int64  `json:"price"`
	Credits           int64  `json:"credits"`
	DurationDays      *int   `json:"duration_days,omitempty"`
	DailyCreditAmount *int64 `json:"daily_credit_amount,omitempty"`
}

type paymentMethodPayload struct {
	PaymentMethodID string `json:"payment_method_id"`
	Name            string `json:"name"`
	Details         string `json:"details"`
	Hint            string `json:"hint,omitempty"`
}

type purchaseRequestPayload struct {
	RequestID      string `json:"request_id"`
	AccountID      string `json:"account_id"`
	Email          string `json:"email"`
	PlanID         string `json:"plan_id"`
	PlanName       string `json:"plan_name"`
	CreditsToAward int64  `json:"credits_to_award"`
	TransactionID  string `json:"transaction_id"`
	Note           string `json:"note"`
	Date           string `json:"date"`
	Status         string `json:"status"`
}

type imagePayload struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

type generationPayload struct {
	Images  []imagePayload `json:"images"`
	Cost    int64          `json:"cost"`
	Account accountPayload `json:"account"`
}

type statsPayload struct {
	TotalAccounts   int   `json:"total_accounts"`
	PendingRequests int   `json:"pending_requests"`
	PlanCount       int   `json:"plan_count"`
	TotalCredits    int64 `json:"total_credits"`
}

func newAccountPayload(account credits.Account) accountPayload {
	payload := accountPayload{
		AccountID:      account.ID().String(),
		Email:          account.Email().String(),
		Credits:        account.Credits().Int64(),
		Role:           account.Role().String(),
		CreatedUnixUTC: account.CreatedUnixUTC(),
	}
	if lastGrant, ok := account.LastCreditGrantDate(); ok {
		payload.LastCreditGrantDate = lastGrant.String()
	}
	return payload
}

func newEntryPayload(entry credits.Entry) entryPayload {
	return entryPayload{
		EntryID:        entry.EntryID().String(),
		Type:           entry.Type().String(),
		Amount:         entry.Amount().Int64(),
		IdempotencyKey: entry.IdempotencyKey().String(),
		Metadata:       json.RawMessage(entry.Metadata().String()),
		CreatedUnixUTC: entry.CreatedUnixUTC(),
	}
}

func newPlanPayload(plan credits.Plan) planPayload {
	payload := planPayload{
		PlanID:      plan.ID().String(),
		Name:        plan.Name(),
		Description: plan.Description(),
		Type:        plan.Type().String(),
		Price:       plan.Price().Int64(),
		Credits:     plan.Credits().Int64(),
	}
	if days, ok := plan.Terms().DurationDays(); ok {
		payload.DurationDays = &days
	}
	if amount, ok := plan.Terms().DailyCreditAmount(); ok {
		value := amount.Int64()
		payload.DailyCreditAmount = &value
	}
	return payload
}

func newPaymentMethodPayload(method credits.PaymentMethod) paymentMethodPayload {
	return paymentMethodPayload{
		PaymentMethodID: method.ID().String(),
		Name:            method.Name(),
		Details:         method.Details(),
		Hint:            method.Hint(),
	}
}

func newPurchaseRequestPayload(request credits.PurchaseRequest) purchaseRequestPayload {
	return purchaseRequestPayload{
		RequestID:      request.ID().String(),
		AccountID:      request.AccountID().String(),
		Email:          request.Email().String(),
		PlanID:         request.PlanID().String(),
		PlanName:       request.PlanName(),
		CreditsToAward: request.CreditsToAward().Int64(),
		TransactionID:  request.TransactionID().String(),
		Note:           request.Note(),
		Date:           request.Date().String(),
		Status:         request.Status().String(),
	}
}

func newImagePayloads(images []gateway.Image) []imagePayload {
	payloads := make([]imagePayload, 0, len(images))
	for _, image := range images {
		payloads = append(payloads, imagePayload{Data: image.Base64, MimeType: image.MimeType})
	}
	return payloads
}
