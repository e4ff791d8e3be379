package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/tidewatch/redtide/internal/adapter/http"
	"github.com/tidewatch/redtide/internal/config"
	"github.com/tidewatch/redtide/internal/domain"
	"github.com/tidewatch/redtide/internal/observability"
	"github.com/tidewatch/redtide/internal/service"
	"github.com/tidewatch/redtide/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	rules := domain.DefaultRules()
	if cfg.RiskRulesFile != "" {
		rules, err = domain.LoadRules(cfg.RiskRulesFile)
		if err != nil {
			logger.Error("failed to load risk rules", "path", cfg.RiskRulesFile, "error", err)
			os.Exit(1)
		}
		logger.Info("risk rules loaded from file", "path", cfg.RiskRulesFile)
	}

	st := store.New(cfg.DataPaths, cfg.EnvDataFile, cfg.OccurrenceDataFile, logger, metrics)
	svc := service.New(st, rules, logger, metrics, cfg.ScatterSampleLimit)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the dataset cache so /readyz flips without waiting for traffic.
	// A failed load keeps the server up but not ready.
	go func() {
		if err := svc.WarmUp(); err != nil {
			logger.Error("dataset warm-up failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
