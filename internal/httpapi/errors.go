package httpapi

import (
	"errors"
	"net/http"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	errorCodeUnauthorized          = "unauthorized"
	errorCodeForbidden             = "forbidden"
	errorCodeInvalidPayload        = "invalid_payload"
	errorCodeValidation            = "validation_error"
	errorCodeInsufficientCredits   = "insufficient_credits"
	errorCodeDuplicateEmail        = "duplicate_email"
	errorCodeDuplicateKey          = "duplicate_idempotency_key"
	errorCodeAccountNotFound       = "account_not_found"
	errorCodePlanNotFound          = "plan_not_found"
	errorCodeRequestNotFound       = "request_not_found"
	errorCodePaymentMethodNotFound = "payment_method_not_found"
	errorCodeRequestClosed         = "request_closed"
	errorCodeAwardSkipped          = "award_skipped"
	errorCodeGenerationFailed      = "generation_failed"
	errorCodeGenerationDisabled    = "generation_unavailable"
	errorCodeInternal              = "internal_error"
)

type errorMapping struct {
	sentinel error
	status   int
	code     string
}

// Order matters: ErrAwardSkipped wraps ErrAccountNotFound.
var errorMappings = []errorMapping{
	{sentinel: credits.ErrValidation, status: http.StatusBadRequest, code: errorCodeValidation},
	{sentinel: credits.ErrInsufficientCredits, status: http.StatusPaymentRequired, code: errorCodeInsufficientCredits},
	{sentinel: credits.ErrAwardSkipped, status: http.StatusConflict, code: errorCodeAwardSkipped},
	{sentinel: credits.ErrDuplicateEmail, status: http.StatusConflict, code: errorCodeDuplicateEmail},
	{sentinel: credits.ErrDuplicateIdempotencyKey, status: http.StatusConflict, code: errorCodeDuplicateKey},
	{sentinel: credits.ErrRequestClosed, status: http.StatusConflict, code: errorCodeRequestClosed},
	{sentinel: credits.ErrGenerationFailed, status: http.StatusBadGateway, code: errorCodeGenerationFailed},
	{sentinel: credits.ErrAccountNotFound, status: http.StatusNotFound, code: errorCodeAccountNotFound},
	{sentinel: credits.ErrPlanNotFound, status: http.StatusNotFound, code: errorCodePlanNotFound},
	{sentinel: credits.ErrRequestNotFound, status: http.StatusNotFound, code: errorCodeRequestNotFound},
	{sentinel: credits.ErrPaymentMethodNotFound, status: http.StatusNotFound, code: errorCodePaymentMethodNotFound},
}

func (handler *httpHandler) abortWithError(ctx *gin.Context, err error) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.sentinel) {
			if mapping.status >= http.StatusInternalServerError || mapping.sentinel == credits.ErrAwardSkipped {
				handler.logger.Error("request failed", zap.String("route", ctx.FullPath()), zap.Error(err))
			}
			ctx.AbortWithStatusJSON(mapping.status, errorResponse(mapping.code, err.Error()))
			return
		}
	}
	handler.logger.Error("request failed", zap.String("route", ctx.FullPath()), zap.Error(err))
	ctx.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse(errorCodeInternal, "internal error"))
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
