package creditv1

type Empty struct{}

type Account struct {
	AccountId           string `json:"account_id"`
	Email               string `json:"email"`
	Credits             int64  `json:"credits"`
	Role                string `json:"role"`
	LastCreditGrantDate string `json:"last_credit_grant_date,omitempty"`
	CreatedUnixUtc      int64  `json:"created_unix_utc"`
}

// GetAccountRequest looks an account up by id, or by email when the id is empty.
type GetAccountRequest struct {
	AccountId string `json:"account_id,omitempty"`
	Email     string `json:"email,omitempty"`
}

// CreateAccountRequest registers with configured defaults when Role is empty.
type CreateAccountRequest struct {
	Email          string `json:"email"`
	Role           string `json:"role,omitempty"`
	InitialCredits int64  `json:"initial_credits,omitempty"`
}

type AccountResponse struct {
	Account *Account `json:"account"`
}

type GrantCreditsRequest struct {
	AccountId string `json:"account_id"`
	Amount    int64  `json:"amount"`
}

type SetCreditsRequest struct {
	AccountId string `json:"account_id"`
	Amount    int64  `json:"amount"`
}

type DeleteAccountRequest struct {
	AccountId string `json:"account_id"`
}

type PurchaseRequest struct {
	RequestId      string `json:"request_id"`
	AccountId      string `json:"account_id"`
	Email          string `json:"email"`
	PlanId         string `json:"plan_id"`
	PlanName       string `json:"plan_name"`
	CreditsToAward int64  `json:"credits_to_award"`
	TransactionId  string `json:"transaction_id"`
	Note           string `json:"note"`
	Date           string `json:"date"`
	Status         string `json:"status"`
}

type ListRequestsRequest struct {
	AccountId string `json:"account_id,omitempty"`
	Status    string `json:"status,omitempty"`
}

type ListRequestsResponse struct {
	Requests []*PurchaseRequest `json:"requests"`
}

type SetRequestStatusRequest struct {
	RequestId string `json:"request_id"`
	Status    string `json:"status"`
}

type PurchaseRequestResponse struct {
	Request *PurchaseRequest `json:"request"`
}

type Plan struct {
	PlanId            string `json:"plan_id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Type              string `json:"type"`
	Price             int64  `json:"price"`
	Credits           int64  `json:"credits"`
	DurationDays      int32  `json:"duration_days,omitempty"`
	DailyCreditAmount int64  `json:"daily_credit_amount,omitempty"`
}

type ListPlansRequest struct{}

type ListPlansResponse struct {
	Plans []*Plan `json:"plans"`
}

type CreatePlanRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Type              string `json:"type"`
	Price             int64  `json:"price"`
	Credits           int64  `json:"credits"`
	DurationDays      int32  `json:"duration_days,omitempty"`
	DailyCreditAmount int64  `json:"daily_credit_amount,omitempty"`
}

type PlanResponse struct {
	Plan *Plan `json:"plan"`
}
