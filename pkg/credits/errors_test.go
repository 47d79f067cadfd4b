package credits

import (
	"errors"
	"fmt"
	"testing"
)

const (
	operationName    = "store"
	subjectName      = "account"
	codeName         = "update"
	baseErrorMessage = "base error"
)

func TestOperationErrorFormatting(test *testing.T) {
	test.Parallel()
	baseError := errors.New(baseErrorMessage)
	wrappedError := WrapError(operationName, subjectName, codeName, baseError)
	if wrappedError == nil {
		test.Fatalf("expected wrapped error")
	}
	expected := operationName + "." + subjectName + "." + codeName + ": " + baseErrorMessage
	if wrappedError.Error() != expected {
		test.Fatalf("expected %q, got %q", expected, wrappedError.Error())
	}
	var operationError OperationError
	if !errors.As(wrappedError, &operationError) || operationError.Code() != codeName {
		test.Fatalf("expected OperationError with code %q, got %v", codeName, wrappedError)
	}
}

func TestWrapErrorNil(test *testing.T) {
	test.Parallel()
	if WrapError(operationName, subjectName, codeName, nil) != nil {
		test.Fatalf("expected nil wrapped error")
	}
}

func TestValidationErrorsShareParent(test *testing.T) {
	test.Parallel()
	for _, sentinel := range []error{ErrInvalidEmail, ErrInvalidTransactionID, ErrInvalidPlanTerms, ErrInvalidRequestStatus} {
		wrapped := fmt.Errorf("%w: detail", sentinel)
		if !errors.Is(wrapped, ErrValidation) {
			test.Fatalf("expected %v to match ErrValidation", sentinel)
		}
		if !errors.Is(wrapped, sentinel) {
			test.Fatalf("expected %v to match itself", sentinel)
		}
	}
	if errors.Is(ErrInsufficientCredits, ErrValidation) {
		test.Fatalf("insufficient credits is not a validation error")
	}
}
