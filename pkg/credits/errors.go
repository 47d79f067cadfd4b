package credits

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every input validation failure.
var ErrValidation = errors.New("validation error")

// Domain-level error values returned by the credits service.
var (
	ErrInsufficientCredits     = errors.New("insufficient credits")
	ErrDuplicateEmail          = errors.New("duplicate email")
	ErrAccountNotFound         = errors.New("account not found")
	ErrPlanNotFound            = errors.New("plan not found")
	ErrRequestNotFound         = errors.New("purchase request not found")
	ErrPaymentMethodNotFound   = errors.New("payment method not found")
	ErrRequestClosed           = errors.New("purchase request closed")
	ErrGenerationFailed        = errors.New("generation failed")
	ErrAwardSkipped            = errors.New("credit award skipped")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	ErrInvalidServiceConfig    = errors.New("invalid service config")
)

// Validation failures. Each one matches ErrValidation with errors.Is.
var (
	ErrInvalidAccountID       = validationError("invalid account id")
	ErrInvalidEmail           = validationError("invalid email")
	ErrInvalidCredits         = validationError("invalid credits")
	ErrInvalidRole            = validationError("invalid role")
	ErrInvalidDate            = validationError("invalid date")
	ErrInvalidPlanID          = validationError("invalid plan id")
	ErrInvalidPlanName        = validationError("invalid plan name")
	ErrInvalidPlanType        = validationError("invalid plan type")
	ErrInvalidPlanTerms       = validationError("invalid plan terms")
	ErrInvalidPrice           = validationError("invalid price")
	ErrInvalidRequestID       = validationError("invalid request id")
	ErrInvalidRequestStatus   = validationError("invalid request status")
	ErrInvalidTransactionID   = validationError("invalid transaction id")
	ErrInvalidPaymentMethod   = validationError("invalid payment method")
	ErrInvalidPaymentMethodID = validationError("invalid payment method id")
	ErrInvalidEntryID         = validationError("invalid entry id")
	ErrInvalidEntryType       = validationError("invalid entry type")
	ErrInvalidEntryAmount     = validationError("invalid entry amount")
	ErrInvalidIdempotencyKey  = validationError("invalid idempotency key")
	ErrInvalidMetadataJSON    = validationError("invalid metadata json")
)

type validationFailure struct {
	message string
}

func validationError(message string) error {
	return validationFailure{message: message}
}

func (failure validationFailure) Error() string {
	return failure.message
}

func (failure validationFailure) Unwrap() error {
	return ErrValidation
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
