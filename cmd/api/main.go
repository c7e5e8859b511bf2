// Package main is the entry point for the Homebooks API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/homebooks/internal/api"
	"github.com/onnwee/homebooks/internal/audit"
	"github.com/onnwee/homebooks/internal/auth"
	"github.com/onnwee/homebooks/internal/budget"
	"github.com/onnwee/homebooks/internal/config"
	"github.com/onnwee/homebooks/internal/db"
	"github.com/onnwee/homebooks/internal/expense"
	"github.com/onnwee/homebooks/internal/health"
	"github.com/onnwee/homebooks/internal/household"
	"github.com/onnwee/homebooks/internal/idempotency"
	"github.com/onnwee/homebooks/internal/income"
	"github.com/onnwee/homebooks/internal/jobs"
	"github.com/onnwee/homebooks/internal/middleware"
	"github.com/onnwee/homebooks/internal/user"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Homebooks API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}
	auditMetrics := audit.NewMetrics()
	if err := auditMetrics.Register(registry); err != nil {
		logger.Error("failed to register audit metrics", "error", err)
		os.Exit(1)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}

	jobsStop := make(chan struct{})

	// Rate limiting backend: Redis when configured, in-memory otherwise.
	var (
		rateStore   middleware.RateLimitStore
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		rateStore = middleware.NewRedisRateLimitStore(redisClient)
		logger.Info("rate limiting via redis")
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		go jobs.RunPeriodic(jobs.JobTypeRateLimitCleanup, time.Minute, jobMetrics, jobsStop, func() error {
			memStore.Cleanup()
			return nil
		})
		rateStore = memStore
		logger.Info("rate limiting in memory")
	}

	engine := audit.NewEngineWithMetrics(audit.NewPostgresStore(), audit.DefaultPolicy(), logger, auditMetrics)
	ledger := audit.NewLedger(database)

	households := household.NewRepository()
	users := user.NewRepository()
	budgets := budget.NewRepository()
	expenses := expense.NewRepository()
	incomes := income.NewRepository()

	tokens := auth.NewJWTService(cfg.JWTSecret)

	authHandlers := api.NewAuthHandlers(database, users, tokens, logger)
	householdHandlers := api.NewHouseholdHandlers(database, households, users, engine, cfg.BcryptCost, logger)
	budgetHandlers := api.NewBudgetHandlers(database, budgets, engine, logger)
	expenseHandlers := api.NewExpenseHandlers(database, expenses, engine, logger)
	incomeHandlers := api.NewIncomeHandlers(database, incomes, engine, logger)

	healthConfig := api.HealthHandlersConfig{DBChecker: health.NewDBChecker(database)}
	if redisClient != nil {
		healthConfig.RedisChecker = health.NewRedisChecker(redisClient)
	}
	healthHandlers := api.NewHealthHandlers(healthConfig)

	// Cached responses for retried POSTs carrying an Idempotency-Key header.
	idempotencyRepo := idempotency.NewInMemoryRepository()
	go jobs.RunPeriodic(jobs.JobTypeIdempotencyCleanup, time.Hour, jobMetrics, jobsStop, func() error {
		_, err := idempotency.CleanupOldKeys(idempotencyRepo, idempotency.DefaultExpiry)
		return err
	})

	// Middleware chains. Every request that can reach a business handler
	// goes through the api-call ledger; probes and metrics stay outside it.
	requireAuth := middleware.RequireAuth(tokens)
	recordCall := middleware.APICall(ledger, logger)
	idempotent := middleware.Idempotency(idempotencyRepo)
	authLimit := middleware.RateLimiter(rateStore, middleware.DefaultAuthLimit(), middleware.IPKeyFunc())
	globalLimit := middleware.RateLimiter(rateStore, globalRateLimit(cfg), middleware.IPKeyFunc())

	protected := func(h http.HandlerFunc) http.Handler {
		return globalLimit(requireAuth(idempotent(recordCall(h))))
	}
	public := func(h http.HandlerFunc) http.Handler {
		return authLimit(recordCall(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.Handle("/auth/login", public(authHandlers.Login))
	mux.Handle("/auth/refresh", public(authHandlers.Refresh))

	mux.Handle("/households", public(householdHandlers.Collection))
	mux.Handle("/households/", protected(householdHandlers.Item))
	mux.Handle("/budgets", protected(budgetHandlers.Collection))
	mux.Handle("/budgets/", protected(budgetHandlers.Item))
	mux.Handle("/expenses", protected(expenseHandlers.Collection))
	mux.Handle("/expenses/", protected(expenseHandlers.Item))
	mux.Handle("/incomes", protected(incomeHandlers.Collection))
	mux.Handle("/incomes/", protected(incomeHandlers.Item))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			api.WriteError(w, r.Context(), http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"homebooks-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Outer middleware: RequestID -> Logging -> HTTPMetrics
	handler := middleware.RequestID(middleware.Logging(logger)(middleware.HTTPMetrics(httpMetrics)(mux)))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	close(jobsStop)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}

	logger.Info("server stopped")
}

// globalRateLimit builds the per-IP limit for business routes.
func globalRateLimit(cfg *config.Config) middleware.RateLimitConfig {
	limit := middleware.DefaultGlobalLimit()
	if cfg.RateLimitPerMinute > 0 {
		limit.RequestsPerWindow = cfg.RateLimitPerMinute
	}
	return limit
}
