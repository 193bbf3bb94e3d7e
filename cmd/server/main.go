package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creatorkit/backend/internal/config"
	"github.com/creatorkit/backend/internal/repository"
	"github.com/creatorkit/backend/internal/repository/memory"
	"github.com/creatorkit/backend/internal/server"
	"github.com/creatorkit/backend/internal/service"
	"github.com/creatorkit/backend/pkg/crypto"
	"github.com/creatorkit/backend/pkg/generation"
	"github.com/creatorkit/backend/pkg/payment"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// store is what the services need from either driver.
type store interface {
	service.EntitlementStore
	service.CreditStore
	service.PaymentStore
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store error", zap.Error(err))
	}
	defer closeStore()

	gateway, err := newGateway(cfg, logger)
	if err != nil {
		logger.Fatal("payment gateway error", zap.Error(err))
	}

	generator := generation.NewClient(cfg.Generation.URL, cfg.Generation.APIKey, cfg.Generation.Timeout)
	if cfg.Generation.URL == "" {
		logger.Warn("GENERATION_URL not set, metered features will serve templates")
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	provisioner := service.NewProvisioner(st, cfg.DefaultCredits, logger.Named("provisioner"))
	meter := service.NewCreditMeter(cfg.FeatureCosts, st, st, logger.Named("meter"))
	verifier := service.NewPaymentVerifier(gateway, st, provisioner, logger.Named("payment"))
	usageSvc := service.NewUsageService(provisioner, meter, generator, logger.Named("usage"))
	entitlementSvc := service.NewEntitlementService(provisioner, st, st, logger.Named("entitlement"))

	r := server.NewRouter(ctx, server.Deps{
		Logger:       logger.Named("http"),
		CORSOrigins:  cfg.CORSOrigins,
		Auth:         authSvc,
		Verifier:     verifier,
		Usage:        usageSvc,
		Entitlements: entitlementSvc,
		Store:        st,
		Features:     cfg.FeatureCosts,
	})

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// generation calls may take up to the configured timeout
		WriteTimeout: cfg.Generation.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening",
		zap.String("addr", addr),
		zap.String("store", cfg.StoreDriver),
		zap.String("env", cfg.Env),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Development() {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("database connected and migrated")
	return repository.NewStore(db), db.Close, nil
}

// newGateway uses the HTTP client when a base URL is configured. Without one, development
// runs get a mock that signs with the configured secret; production refuses to start.
func newGateway(cfg *config.Config, logger *zap.Logger) (payment.Gateway, error) {
	if cfg.Gateway.BaseURL != "" {
		return payment.NewClient(payment.ClientConfig{
			BaseURL:    cfg.Gateway.BaseURL,
			KeyID:      cfg.Gateway.KeyID,
			KeySecret:  cfg.Gateway.KeySecret,
			Timeout:    cfg.Gateway.Timeout,
			MaxRetries: cfg.Gateway.MaxRetries,
		})
	}
	if !cfg.Development() {
		return nil, errors.New("GATEWAY_BASE_URL is required in production")
	}
	signer, err := crypto.NewSigner(cfg.Gateway.KeySecret)
	if err != nil {
		return nil, err
	}
	logger.Warn("GATEWAY_BASE_URL not set, using mock payment gateway")
	return payment.NewMockGateway(signer), nil
}
