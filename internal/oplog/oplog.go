// Package oplog turns credits operation records into structured logs and metrics.
package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"go.uber.org/zap"
)

const (
	fieldOperation      = "operation"
	fieldAccountID      = "account_id"
	fieldRequestID      = "request_id"
	fieldAmount         = "amount"
	fieldIdempotencyKey = "idempotency_key"
	fieldStatus         = "status"
	messageOperation    = "credits operation"
)

// ZapLogger writes operation records through zap.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps logger. A nil logger falls back to zap.NewNop.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

// LogOperation implements credits.OperationLogger.
func (zapLogger *ZapLogger) LogOperation(_ context.Context, entry credits.OperationLog) {
	fields := []zap.Field{
		zap.String(fieldOperation, entry.Operation),
		zap.String(fieldStatus, entry.Status),
	}
	if !entry.AccountID.IsZero() {
		fields = append(fields, zap.String(fieldAccountID, entry.AccountID.String()))
	}
	if entry.RequestID.String() != "" {
		fields = append(fields, zap.String(fieldRequestID, entry.RequestID.String()))
	}
	if entry.Amount != 0 {
		fields = append(fields, zap.Int64(fieldAmount, entry.Amount))
	}
	if entry.IdempotencyKey.String() != "" {
		fields = append(fields, zap.String(fieldIdempotencyKey, entry.IdempotencyKey.String()))
	}
	if entry.Error != nil {
		zapLogger.logger.Error(messageOperation, append(fields, zap.Error(entry.Error))...)
		return
	}
	zapLogger.logger.Info(messageOperation, fields...)
}

// Multi fans a record out to every non-nil logger in order.
type Multi []credits.OperationLogger

// LogOperation implements credits.OperationLogger.
func (loggers Multi) LogOperation(ctx context.Context, entry credits.OperationLog) {
	for _, logger := range loggers {
		if logger != nil {
			logger.LogOperation(ctx, entry)
		}
	}
}
