package credits

import (
	"context"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing credits operation.
type OperationLog struct {
	Operation      string
	AccountID      AccountID
	RequestID      RequestID
	Amount         int64
	IdempotencyKey IdempotencyKey
	Status         string
	Error          error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithSignupCredits sets the balance given to newly registered accounts.
func WithSignupCredits(amount Credits) ServiceOption {
	return func(service *Service) {
		service.signupCredits = amount
	}
}

// WithAdminAccount makes registrations for email receive the admin role and amount credits.
func WithAdminAccount(email Email, amount Credits) ServiceOption {
	return func(service *Service) {
		service.adminEmail = email
		service.adminCredits = amount
	}
}

// WithGenerationTimeout bounds every billed generation call. Zero disables the bound.
func WithGenerationTimeout(timeout time.Duration) ServiceOption {
	return func(service *Service) {
		service.generationTimeout = timeout
	}
}

// WithIDGenerator replaces the identifier source (uuid by default).
func WithIDGenerator(generate func() string) ServiceOption {
	return func(service *Service) {
		if generate != nil {
			service.newID = generate
		}
	}
}
