// Package httpapi exposes the user and administrator HTTP surface.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/internal/oplog"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/session"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/studio"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	contextKeyAccount   = "pixelcredits_account"
	sessionCookieName   = "pixelcredits_session"
	bearerPrefix        = "Bearer "
	headerAuthorization = "Authorization"
	shutdownTimeout     = 5 * time.Second
	readHeaderTimeout   = 10 * time.Second
)

// ImageStudio runs billed generations for an account.
type ImageStudio interface {
	Generate(ctx context.Context, accountID credits.AccountID, request studio.GenerateRequest) (studio.Result, error)
	Edit(ctx context.Context, accountID credits.AccountID, request studio.EditRequest) (studio.Result, error)
}

// Dependencies are the collaborators the handlers need. Studio and Metrics may be nil.
type Dependencies struct {
	Service        *credits.Service
	Studio         ImageStudio
	Sessions       *session.Manager
	Metrics        *oplog.Metrics
	Logger         *zap.Logger
	AllowedOrigins []string
}

type httpHandler struct {
	service  *credits.Service
	studio   ImageStudio
	sessions *session.Manager
	logger   *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(dependencies Dependencies) (*gin.Engine, error) {
	if dependencies.Service == nil || dependencies.Sessions == nil {
		return nil, errors.New("httpapi: service and session manager are required")
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := &httpHandler{
		service:  dependencies.Service,
		studio:   dependencies.Studio,
		sessions: dependencies.Sessions,
		logger:   logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if dependencies.Metrics != nil {
		router.Use(metricsMiddleware(dependencies.Metrics))
	}
	if len(dependencies.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     dependencies.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Content-Type", "Origin", "Accept", headerAuthorization},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if dependencies.Metrics != nil {
		router.GET("/metrics", gin.WrapH(dependencies.Metrics.Handler()))
	}

	api := router.Group("/api")
	api.POST("/register", handler.handleRegister)
	api.POST("/login", handler.handleLogin)

	authenticated := api.Group("")
	authenticated.Use(handler.requireAccount)
	authenticated.GET("/session", handler.handleSession)
	authenticated.GET("/entries", handler.handleEntries)
	authenticated.GET("/plans", handler.handlePlans)
	authenticated.GET("/payment-methods", handler.handlePaymentMethods)
	authenticated.POST("/generations", handler.handleGenerate)
	authenticated.POST("/edits", handler.handleEdit)
	authenticated.POST("/purchase-requests", handler.handleSubmitPurchase)
	authenticated.GET("/purchase-requests", handler.handleOwnPurchases)

	admin := authenticated.Group("/admin")
	admin.Use(requireAdmin)
	admin.GET("/stats", handler.handleStats)
	admin.GET("/accounts", handler.handleListAccounts)
	admin.PUT("/accounts/:id", handler.handleUpdateAccount)
	admin.DELETE("/accounts/:id", handler.handleDeleteAccount)
	admin.POST("/accounts/:id/grant", handler.handleGrantCredits)
	admin.POST("/accounts/:id/credits", handler.handleSetCredits)
	admin.GET("/requests", handler.handleListRequests)
	admin.POST("/requests/:id/approve", handler.handleApproveRequest)
	admin.POST("/requests/:id/reject", handler.handleRejectRequest)
	admin.POST("/plans", handler.handleCreatePlan)
	admin.POST("/payment-methods", handler.handleAddPaymentMethod)
	admin.DELETE("/payment-methods/:id", handler.handleRemovePaymentMethod)

	return router, nil
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func metricsMiddleware(metrics *oplog.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		started := time.Now()
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(ctx.Request.Method, route, ctx.Writer.Status(), time.Since(started))
	}
}

// requireAccount resolves the session token to the current stored account with the same id.
func (handler *httpHandler) requireAccount(ctx *gin.Context) {
	token := sessionToken(ctx)
	if token == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	identity, err := handler.sessions.Parse(token)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "invalid session"))
		return
	}
	account, err := handler.service.FindAccountByEmail(ctx.Request.Context(), identity.Email)
	if err != nil {
		if errors.Is(err, credits.ErrAccountNotFound) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "account no longer exists"))
			return
		}
		handler.abortWithError(ctx, err)
		return
	}
	if account.ID() != identity.AccountID {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "session belongs to another account"))
		return
	}
	ctx.Set(contextKeyAccount, account)
	ctx.Next()
}

func requireAdmin(ctx *gin.Context) {
	account, ok := currentAccount(ctx)
	if !ok || !account.IsAdmin() {
		ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse(errorCodeForbidden, "administrator role required"))
		return
	}
	ctx.Next()
}

func currentAccount(ctx *gin.Context) (credits.Account, bool) {
	value, ok := ctx.Get(contextKeyAccount)
	if !ok {
		return credits.Account{}, false
	}
	account, ok := value.(credits.Account)
	return account, ok
}

func sessionToken(ctx *gin.Context) string {
	header := ctx.GetHeader(headerAuthorization)
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	cookie, err := ctx.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie
}
