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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gaugyan/storefront/internal/api"
	"github.com/gaugyan/storefront/internal/backend"
	"github.com/gaugyan/storefront/internal/cart"
	"github.com/gaugyan/storefront/internal/config"
	"github.com/gaugyan/storefront/internal/coupon"
	"github.com/gaugyan/storefront/internal/service"
	"github.com/gaugyan/storefront/internal/session"
	"github.com/gaugyan/storefront/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	repos, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open cart store", zap.String("store", string(cfg.Cart.Store)), zap.Error(err))
	}
	defer closeStore()
	logger.Info("Cart store ready", zap.String("store", string(cfg.Cart.Store)))

	catalog := coupon.DefaultCatalog()
	pricing := cart.Pricing{
		TaxRate:               cfg.Cart.TaxRate,
		ShippingFee:           cfg.Cart.ShippingFee,
		FreeShippingThreshold: cfg.Cart.FreeShippingThreshold,
	}
	sessions := session.NewManager(repos.CartBlobs, cfg.Cart.StorageKey, catalog, pricing, logger)
	if cfg.Session.IdleTTL > 0 {
		sessions.StartSweeper(cfg.Session.IdleTTL)
	}

	if cfg.Backend.BaseURL == "" {
		logger.Warn("BACKEND_BASE_URL is not set, checkout is disabled")
	}
	checkout := service.NewCheckoutService(backend.NewClient(cfg.Backend, logger), logger)

	router := api.NewRouter(cfg, repos, sessions, catalog, checkout, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("Storefront cart service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down storefront cart service...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	// flush every cart before the store connection goes away
	sessions.Close()
	logger.Info("Storefront cart service stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
