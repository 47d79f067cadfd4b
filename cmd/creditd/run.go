package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	creditv1 "github.com/MarkoPoloResearchLab/pixelcredits/api/credit/v1"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/bootstrap"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/config"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/gateway"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/grpcserver"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/httpapi"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/oplog"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/scheduler"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/session"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/store/pgstore"
	"github.com/MarkoPoloResearchLab/pixelcredits/internal/studio"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func run(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := cleanup(); closeErr != nil {
			logger.Warn("store close failed", zap.Error(closeErr))
		}
	}()

	adminEmail, err := parseAdminEmail(cfg.AdminEmail)
	if err != nil {
		return err
	}
	signupCredits, err := credits.NewCredits(cfg.InitialCredits)
	if err != nil {
		return fmt.Errorf("initial credits: %w", err)
	}
	adminCredits, err := credits.NewCredits(cfg.AdminInitialCredits)
	if err != nil {
		return fmt.Errorf("admin initial credits: %w", err)
	}

	metrics := oplog.NewMetrics()
	clock := func() time.Time { return time.Now().UTC() }
	creditService, err := credits.NewService(store, clock,
		credits.WithOperationLogger(oplog.Multi{oplog.NewZapLogger(logger), metrics}),
		credits.WithSignupCredits(signupCredits),
		credits.WithAdminAccount(adminEmail, adminCredits),
		credits.WithGenerationTimeout(cfg.GatewayTimeout),
	)
	if err != nil {
		return fmt.Errorf("credit service init: %w", err)
	}

	if cfg.SeedDefaults {
		if err := bootstrap.NewSeeder(creditService, logger).Seed(ctx, adminEmail); err != nil {
			return err
		}
	}

	sessions, err := session.NewManager(cfg.SessionSigningKey, cfg.SessionIssuer, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("session manager init: %w", err)
	}

	dependencies := httpapi.Dependencies{
		Service:        creditService,
		Sessions:       sessions,
		Metrics:        metrics,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.GenerationEnabled() {
		imageStudio, err := newStudio(cfg, creditService)
		if err != nil {
			return err
		}
		dependencies.Studio = imageStudio
	} else {
		logger.Warn("image generation disabled: no gateway api key configured")
	}
	router, err := httpapi.NewRouter(dependencies)
	if err != nil {
		return fmt.Errorf("router init: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return httpapi.Serve(groupCtx, cfg.ListenAddr, router, logger)
	})
	if cfg.DailyGrantSchedule != "" {
		sweeps, err := scheduler.New(cfg.DailyGrantSchedule, creditService, logger)
		if err != nil {
			return err
		}
		group.Go(func() error {
			return sweeps.Run(groupCtx)
		})
	}
	group.Go(func() error {
		return serveGRPC(groupCtx, cfg.GRPCListenAddr, creditService, logger)
	})
	return group.Wait()
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func parseAdminEmail(raw string) (credits.Email, error) {
	if raw == "" {
		return credits.Email{}, nil
	}
	email, err := credits.NewEmail(raw)
	if err != nil {
		return credits.Email{}, fmt.Errorf("admin email: %w", err)
	}
	return email, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (credits.Store, func() error, error) {
	if cfg.StoreDriver == config.StoreDriverPGX {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database open: %w", err)
		}
		store := pgstore.New(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("store ready", zap.String("driver", config.StoreDriverPGX))
		return store, func() error { pool.Close(); return nil }, nil
	}

	db, cleanup, driver, err := gormstore.Open(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("database open: %w", err)
	}
	if err := gormstore.Migrate(db); err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	logger.Info("store ready", zap.String("driver", config.StoreDriverGorm), zap.String("database", driver))
	return gormstore.New(db), cleanup, nil
}

func newStudio(cfg config.Config, biller studio.Biller) (*studio.Studio, error) {
	client, err := gateway.NewClient(gateway.Config{
		APIKey:        cfg.GatewayAPIKey,
		BaseURL:       cfg.GatewayBaseURL,
		GenerateModel: cfg.GenerateModel,
		EditModel:     cfg.EditModel,
		HTTPClient:    &http.Client{Timeout: cfg.GatewayTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("gateway init: %w", err)
	}
	imageStudio, err := studio.New(biller, client, cfg.CreditsPerImage)
	if err != nil {
		return nil, fmt.Errorf("studio init: %w", err)
	}
	return imageStudio, nil
}

func serveGRPC(ctx context.Context, addr string, creditService *credits.Service, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	grpcServer := grpc.NewServer()
	creditv1.RegisterCreditAdminServer(grpcServer, grpcserver.NewCreditAdminServer(creditService, logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server starting", zap.String("listen_addr", addr))
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
		grpcServer.GracefulStop()
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return serveErr
		}
		return nil
	case serveErr := <-errCh:
		if errors.Is(serveErr, grpc.ErrServerStopped) {
			return nil
		}
		return serveErr
	}
}
