package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"lifedash/internal/amqp"
	"lifedash/internal/config"
	apphttp "lifedash/internal/http"
	"lifedash/internal/services"
	"lifedash/internal/stats"
	"lifedash/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without it transactions are still written, only
	// the audit events are skipped.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without audit events", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - transaction events will not be published")
	}

	transactionService := services.NewTransactionService(repo, publisher)
	engine := services.NewRecurringEngine(repo, transactionService)

	registry := stats.NewRegistry()
	registry.Register(stats.PositionsProvider{Source: repo})
	registry.Register(stats.HabitsProvider{Source: repo})
	registry.Register(stats.WorkoutsProvider{Source: repo})
	registry.Register(stats.GoalsProvider{Source: repo})
	registry.Register(stats.EventsProvider{Source: repo})
	registry.Register(stats.BooksProvider{Source: repo})
	registry.Register(stats.InventoryProvider{Source: repo})
	registry.Register(stats.ContactsProvider{Source: repo})
	registry.Register(stats.VaultProvider{Source: repo})

	dashboardService := services.NewDashboardService(repo, registry, cfg.StatsTimeout)

	// Catch up on recurring occurrences before serving traffic.
	if count, err := engine.ProcessDue(context.Background(), time.Now()); err != nil {
		logger.Error("Startup recurring sweep failed", "error", err)
	} else if count > 0 {
		logger.Info("Startup recurring sweep complete", "generated", count)
	}

	srv := apphttp.NewServer(":"+cfg.Port, dashboardService, transactionService, repo, repo, engine, repo, cfg.CacheTTL)

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

	logger.Info("Starting lifedash server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
