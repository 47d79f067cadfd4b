package httpapi

import (
	"net/http"
	"strconv"

	"github.com/MarkoPoloResearchLab/pixelcredits/internal/gateway"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/studio"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"github.com/gin-gonic/gin"
)

func (handler *httpHandler) handleRegister(ctx *gin.Context) {
	var request emailRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body with email"))
		return
	}
	email, err := credits.NewEmail(request.Email)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	account, err := handler.service.Register(ctx.Request.Context(), email)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	handler.respondWithSession(ctx, http.StatusCreated, account)
}

func (handler *httpHandler) handleLogin(ctx *gin.Context) {
	var request emailRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body with email"))
		return
	}
	email, err := credits.NewEmail(request.Email)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	account, err := handler.service.Activate(ctx.Request.Context(), email)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	handler.respondWithSession(ctx, http.StatusOK, account)
}

func (handler *httpHandler) respondWithSession(ctx *gin.Context, status int, account credits.Account) {
	token, expiresAt, err := handler.sessions.Issue(account)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(sessionCookieName, token, int(handler.sessions.TTL().Seconds()), "/", "", false, true)
	ctx.JSON(status, sessionPayload{
		Account:        newAccountPayload(account),
		Token:          token,
		ExpiresUnixUTC: expiresAt.Unix(),
	})
}

func (handler *httpHandler) handleSession(ctx *gin.Context) {
	account, _ := currentAccount(ctx)
	activated, err := handler.service.Activate(ctx.Request.Context(), account.Email())
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"account": newAccountPayload(activated)})
}

func (handler *httpHandler) handleEntries(ctx *gin.Context) {
	account, _ := currentAccount(ctx)
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	entries, err := handler.service.ListEntries(ctx.Request.Context(), account.ID(), limit)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	payloads := make([]entryPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, newEntryPayload(entry))
	}
	ctx.JSON(http.StatusOK, gin.H{"entries": payloads})
}

func (handler *httpHandler) handlePlans(ctx *gin.Context) {
	plans, err := handler.service.ListPlans(ctx.Request.Context())
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	payloads := make([]planPayload, 0, len(plans))
	for _, plan := range plans {
		payloads = append(payloads, newPlanPayload(plan))
	}
	ctx.JSON(http.StatusOK, gin.H{"plans": payloads})
}

func (handler *httpHandler) handlePaymentMethods(ctx *gin.Context) {
	methods, err := handler.service.ListPaymentMethods(ctx.Request.Context())
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	payloads := make([]paymentMethodPayload, 0, len(methods))
	for _, method := range methods {
		payloads = append(payloads, newPaymentMethodPayload(method))
	}
	ctx.JSON(http.StatusOK, gin.H{"payment_methods": payloads})
}

func (handler *httpHandler) handleGenerate(ctx *gin.Context) {
	if handler.studio == nil {
		ctx.JSON(http.StatusServiceUnavailable, errorResponse(errorCodeGenerationDisabled, "image generation is not configured"))
		return
	}
	account, _ := currentAccount(ctx)
	var request generateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	count := 1
	if request.Count != nil {
		count = *request.Count
	}
	result, err := handler.studio.Generate(ctx.Request.Context(), account.ID(), studio.GenerateRequest{
		Prompt:         request.Prompt,
		NegativePrompt: request.NegativePrompt,
		Count:          count,
	})
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, generationPayload{
		Images:  newImagePayloads(result.Images),
		Cost:    result.Cost.Int64(),
		Account: newAccountPayload(result.Account),
	})
}

func (handler *httpHandler) handleEdit(ctx *gin.Context) {
	if handler.studio == nil {
		ctx.JSON(http.StatusServiceUnavailable, errorResponse(errorCodeGenerationDisabled, "image generation is not configured"))
		return
	}
	account, _ := currentAccount(ctx)
	var request editRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	result, err := handler.studio.Edit(ctx.Request.Context(), account.ID(), studio.EditRequest{
		Prompt: request.Prompt,
		Image:  gateway.Image{Base64: request.ImageBase64, MimeType: request.MimeType},
	})
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, generationPayload{
		Images:  newImagePayloads(result.Images),
		Cost:    result.Cost.Int64(),
		Account: newAccountPayload(result.Account),
	})
}

func (handler *httpHandler) handleSubmitPurchase(ctx *gin.Context) {
	account, _ := currentAccount(ctx)
	var request purchaseSubmission
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	planID, err := credits.NewPlanID(request.PlanID)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	transactionID, err := credits.NewTransactionID(request.TransactionID)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	methodID, err := credits.NewPaymentMethodID(request.PaymentMethodID)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	submitted, err := handler.service.SubmitPurchaseRequest(ctx.Request.Context(), account.ID(), planID, transactionID, methodID, request.Note)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"request": newPurchaseRequestPayload(submitted)})
}

func (handler *httpHandler) handleOwnPurchases(ctx *gin.Context) {
	account, _ := currentAccount(ctx)
	handler.respondWithRequests(ctx, credits.RequestFilter{AccountID: account.ID()})
}

func (handler *httpHandler) respondWithRequests(ctx *gin.Context, filter credits.RequestFilter) {
	requests, err := handler.service.ListRequests(ctx.Request.Context(), filter)
	if err != nil {
		handler.abortWithError(ctx, err)
		return
	}
	payloads := make([]purchaseRequestPayload, 0, len(requests))
	for _, request := range requests {
		payloads = append(payloads, newPurchaseRequestPayload(request))
	}
	ctx.JSON(http.StatusOK, gin.H{"requests": payloads})
}
