package httpapi

import (
	"context"
	"net/http"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"github.com/gin-gonic/gin"
)

func (handler *httpHandler) handleStats(ctx *gin.Context) {
	stats, err := handler.service.Stats(ctx.Request.Context())
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, statsPayload{
		TotalAccounts:   stats.TotalAccounts,
		PendingRequests: stats.PendingRequests,
		PlanCount:       stats.PlanCount,
		TotalCredits:    stats.TotalCredits,
	})
}

func (handler *httpHandler) handleListAccounts(ctx *gin.Context) {
	accounts, err := handler.service.ListAccounts(ctx.Request.Context())
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	payloads := make([]accountPayload, 0, len(accounts))
	for _, account := range accounts {
		payloads = append(payloads, newAccountPayload(account))
	}
	ctx.JSON(http.StatusOK, gin.H{"accounts": payloads})
}

func (handler *httpHandler) handleUpdateAccount(ctx *gin.Context) {
	accountID, err := credits.NewAccountID(ctx.Param("id"))
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	var request accountUpdate
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected email, role and credits"))
		return
	}
	email, err := credits.NewEmail(request.Email)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	role, err := credits.ParseRole(request.Role)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	balance, err := credits.NewCredits(*request.Credits)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	requestCtx := ctx.Request.Context()
	stored, err := handler.service.GetAccount(requestCtx, accountID)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	if err := handler.service.SaveAccount(requestCtx, stored.WithEmail(email).WithRole(role).WithCredits(balance)); err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	handler.respondWithAccount(ctx, accountID)
}

func (handler *httpHandler) handleDeleteAccount(ctx *gin.Context) {
	accountID, err := credits.NewAccountID(ctx.Param("id"))
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	if err := handler.service.DeleteAccount(ctx.Request.Context(), accountID); err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleGrantCredits(ctx *gin.Context) {
	accountID, amount, ok := handler.bindAmount(ctx)
	if !ok {
		return
	}
	positive, err := credits.NewPositiveCredits(amount)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	account, err := handler.service.GrantCredits(ctx.Request.Context(), accountID, positive)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"account": newAccountPayload(account)})
}

func (handler *httpHandler) handleSetCredits(ctx *gin.Context) {
	accountID, amount, ok := handler.bindAmount(ctx)
	if !ok {
		return
	}
	balance, err := credits.NewCredits(amount)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	account, err := handler.service.SetCredits(ctx.Request.Context(), accountID, balance)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"account": newAccountPayload(account)})
}

func (handler *httpHandler) bindAmount(ctx *gin.Context) (credits.AccountID, int64, bool) {
	accountID, err := credits.NewAccountID(ctx.Param("id"))
	if err != nil {
		handler.abortWithError(ctx, err)
		return credits.AccountID{}, 0, false
	}
	var request amountRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body with amount"))
		return credits.AccountID{}, 0, false
	}
	return accountID, *request.Amount, true
}

func (handler *httpHandler) respondWithAccount(ctx *gin.Context, accountID credits.AccountID) {
	account, err := handler.service.GetAccount(ctx.Request.Context(), accountID)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"account": newAccountPayload(account)})
}

func (handler *httpHandler) handleListRequests(ctx *gin.Context) {
	var filter credits.RequestFilter
	if raw := ctx.Query("status"); raw != "" {
		requestStatus, err := credits.ParseRequestStatus(raw)
		if err != nil {
			handler.abortWithError(ctx, err)
			return
		}
		filter.Status = requestStatus
	}
	handler.respondWithRequests(ctx, filter)
}

func (handler *httpHandler) handleApproveRequest(ctx *gin.Context) {
	handler.decideRequest(ctx, handler.service.ApproveRequest)
}

func (handler *httpHandler) handleRejectRequest(ctx *gin.Context) {
	handler.decideRequest(ctx, handler.service.RejectRequest)
}

func (handler *httpHandler) decideRequest(ctx *gin.Context, decide func(ctx context.Context, requestID credits.RequestID) (credits.PurchaseRequest, error)) {
	requestID, err := credits.NewRequestID(ctx.Param("id"))
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	decided, err := decide(ctx.Request.Context(), requestID)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"request": newPurchaseRequestPayload(decided)})
}

func (handler *httpHandler) handleCreatePlan(ctx *gin.Context) {
	var request planCreation
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	planType, err := credits.ParsePlanType(request.Type)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	terms, err := credits.NewPlanTerms(planType, request.DurationDays, request.DailyCreditAmount)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	price, err := credits.NewPrice(request.Price)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	planCredits, err := credits.NewCredits(request.Credits)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	plan, err := handler.service.CreatePlan(ctx.Request.Context(), request.Name, request.Description, price, planCredits, terms)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"plan": newPlanPayload(plan)})
}

func (handler *httpHandler) handleAddPaymentMethod(ctx *gin.Context) {
	var request paymentMethodCreation
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	method, err := handler.service.AddPaymentMethod(ctx.Request.Context(), request.Name, request.Details, request.Hint)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"payment_method": newPaymentMethodPayload(method)})
}

func (handler *httpHandler) handleRemovePaymentMethod(ctx *gin.Context) {
	methodID, err := credits.NewPaymentMethodID(ctx.Param("id"))
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	if err := handler.service.RemovePaymentMethod(ctx.Request.Context(), methodID); err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
