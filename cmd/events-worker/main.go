package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"lifedash/internal/amqp"
	"lifedash/internal/config"
	"lifedash/internal/core"
	"lifedash/internal/storage"
)

// events-worker consumes created-transaction events and writes the audit
// trail. Undeliverable transactions (already deleted) are acknowledged and
// skipped.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting events-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for events-worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(msg *amqp.TransactionEventMessage) error {
		t, err := repo.GetTransaction(ctx, msg.ID)
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction for event no longer exists", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", msg.ID, err)
		}

		slog.InfoContext(ctx, "Transaction recorded",
			"id", t.ID,
			"type", t.Type,
			"amount_cents", t.Amount.Cents,
			"date", core.DateKey(t.Date),
			"description", t.Description,
			"source", msg.Source,
			"published_at", msg.Timestamp)
		return nil
	}

	go func() {
		if err := amqpClient.ConsumeTransactionEvents(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Events-worker shutdown complete")
}
