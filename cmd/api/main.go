package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/logging-api/internal/adapter/api"
	"github.com/user/logging-api/internal/adapter/api/handler"
	"github.com/user/logging-api/internal/adapter/api/middleware"
	"github.com/user/logging-api/internal/adapter/metrics"
	"github.com/user/logging-api/internal/adapter/repository/postgres"
	"github.com/user/logging-api/internal/pkg/config"
	"github.com/user/logging-api/internal/pkg/logger"
	"github.com/user/logging-api/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewIngestMetrics()

	// --- Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Document Store ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := postgres.NewLogRepository(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure store schema", "error", err)
		os.Exit(1)
	}

	// --- Pipeline, Query Engine and Handlers ---
	validator := usecase.NewEntryValidator(cfg.StrictValidation)
	pipeline := usecase.NewIngestPipeline(store, validator, cfg.JWTSecret, logger, m)
	queries := usecase.NewQueryEngine(store, cfg.DefaultSearchSize, logger)

	logsHandler := handler.NewLogsHandler(pipeline, queries, logger, cfg.ServerName, cfg.MaxBodySize, m)
	authHandler := handler.NewAuthHandler(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry, logger, m)
	tokenLimiter := middleware.NewIPRateLimiter(cfg.TokenRateRPS, cfg.TokenRateBurst)

	router := api.NewRouter(logger, cfg.JWTSecret, logsHandler, authHandler, tokenLimiter)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting logging api server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
