package credits

const (
	operationRegister       = "register"
	operationSaveAccount    = "save_account"
	operationDeleteAccount  = "delete_account"
	operationDebit          = "debit"
	operationCredit         = "credit"
	operationRefund         = "refund"
	operationGrant          = "grant"
	operationSetCredits     = "set_credits"
	operationDailyGrant     = "daily_grant"
	operationSubmit         = "submit_request"
	operationApprove        = "approve_request"
	operationReject         = "reject_request"
	operationStatusOverride = "override_request_status"
	operationCreatePlan     = "create_plan"
	operationAddMethod      = "add_payment_method"
	operationRemoveMethod   = "remove_payment_method"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	idempotencyKeyDelimiter  = ":"
	idempotencyPrefixGen     = "generation"
	idempotencyPrefixBuy     = "purchase"
	idempotencyPrefixDaily   = "daily"
	idempotencyPrefixAdmin   = "admin"
	idempotencyKeySignup     = "signup"
	idempotencySuffixRefund  = "refund"
	paymentNoteFormat        = "Paid via %s. %s"
	defaultListEntriesLimit  = 50
	maxListEntriesLimit      = 200
	dateLayout               = "2006-01-02"
	emailSeparator           = "@"
	metadataKeyRequestID     = "request_id"
	metadataKeyPlanID        = "plan_id"
	metadataKeyCost          = "cost"
	metadataKeyPreviousValue = "previous_credits"
)
