package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashflow/internal/amqp"
	"cashflow/internal/auth"
	"cashflow/internal/config"
	"cashflow/internal/core"
	apphttp "cashflow/internal/http"
	applog "cashflow/internal/log"
	"cashflow/internal/services"
	"cashflow/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var repo storage.Repository
	switch cfg.DataBackend {
	case "sqlite":
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		repo = sqliteRepo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		repo = storage.NewMemoryRepository()
		logger.Info("Initialized memory backend")
	}
	defer repo.Close()

	// Ledger events are best-effort: the API stays up without a broker.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(repo, publisher)

	if cfg.SeedDemoUser {
		if err := seedDemoUser(context.Background(), repo); err != nil {
			logger.Warn("Failed to seed demo user", "error", err)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, cfg.JWTSecret, cfg.TokenTTL)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting cashflow server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// seedDemoUser creates a throwaway account for local development. Existing
// accounts are left alone.
func seedDemoUser(ctx context.Context, repo storage.Repository) error {
	const email = "demo@cashflow.local"

	if _, err := repo.GetUser(ctx, email); err == nil {
		return nil
	}

	hash, err := auth.HashPIN("1234")
	if err != nil {
		return err
	}

	return repo.CreateUser(ctx, core.User{
		Email:   email,
		Name:    "Demo",
		PINHash: hash,
		Settings: core.Settings{
			SavingsGoal:         core.Money{Cents: 500000},
			DailySpendingLimit:  core.Money{Cents: 100000},
			WeeklySpendingLimit: core.Money{Cents: 500000},
			DailyReminder:       true,
			WeeklyReport:        true,
		},
	})
}
