// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creator-ai-entitlement/internal/config"
	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/domain/ports/repository"
	pg "creator-ai-entitlement/internal/infra/db/postgres"
	httpapi "creator-ai-entitlement/internal/infra/http"
	"creator-ai-entitlement/internal/infra/logging"
	"creator-ai-entitlement/internal/infra/metrics"
	"creator-ai-entitlement/internal/infra/payment"
	red "creator-ai-entitlement/internal/infra/redis"
	"creator-ai-entitlement/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	// ---- Redis (entitlement store) ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	store := red.NewEntitlementStore(redisClient)

	// ---- Optional backend mirror ----
	var mirror repository.SubscriptionMirror
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
		if err != nil {
			// The mirror is optional; keep serving without it.
			logger.Warn().Err(err).Msg("mirror database unavailable, continuing without it")
		} else {
			defer pool.Close()
			mirror = pg.NewSubscriptionMirror(pool, logger)
		}
	}

	// ---- Plan catalog + use cases ----
	catalog := model.DefaultCatalog()
	lifecycle := usecase.NewSubscriptionLifecycle(store, catalog, mirror, logger)
	quota := usecase.NewQuotaEnforcer(lifecycle, logger)
	gate := usecase.NewFeatureGate(catalog)

	gateway := payment.NewRazorpayGateway(cfg.Payment.Razorpay.KeyID, cfg.Payment.Razorpay.KeySecret)
	checkout := usecase.NewCheckoutUseCase(lifecycle, catalog, gateway, logger)

	// ---- Metrics + HTTP ----
	metrics.MustRegister()
	server := httpapi.NewServer(cfg, lifecycle, quota, gate, checkout, gateway, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
