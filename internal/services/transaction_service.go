package services

import (
	"context"
	"fmt"
	"log/slog"

	"lifedash/internal/core"
)

// TransactionStore persists transaction records.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
}

// EventPublisher announces created transactions for the audit trail.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, id int64, source string) error
}

// TransactionService writes transactions and publishes an audit event
// for each one. Publishing is best effort: the write is the source of
// truth and a broker outage must not fail it.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
}

func NewTransactionService(store TransactionStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// CreateTransaction validates and persists a transaction, then publishes
// the audit event.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if t.Source == "" {
		t.Source = core.SourceManual
	}
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(ctx, id, t.Source); err != nil {
			slog.WarnContext(ctx, "Failed to publish transaction event",
				"id", id,
				"source", t.Source,
				"error", err)
		}
	}

	return id, nil
}
