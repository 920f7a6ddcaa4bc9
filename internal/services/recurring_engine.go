// Package services provides the business logic orchestrating storage,
// messaging and the pure core computations.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lifedash/internal/core"
)

// ErrSweepInProgress is returned when a sweep is triggered while another
// one is still running.
var ErrSweepInProgress = errors.New("recurring sweep already in progress")

// RecurringStore is the persistence the engine needs: the active
// definitions and the ability to advance their generation marker.
type RecurringStore interface {
	ListActiveRecurring(ctx context.Context) ([]core.RecurringDefinition, error)
	UpdateLastGenerated(ctx context.Context, id int64, when time.Time) error
}

// TransactionCreator materializes a transaction record.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
}

// RecurringEngine materializes transactions from recurring definitions.
// The sweep is guarded against overlapping triggers: callers racing an
// in-flight sweep get ErrSweepInProgress instead of duplicate work.
type RecurringEngine struct {
	store        RecurringStore
	transactions TransactionCreator

	mu sync.Mutex
}

func NewRecurringEngine(store RecurringStore, transactions TransactionCreator) *RecurringEngine {
	return &RecurringEngine{
		store:        store,
		transactions: transactions,
	}
}

// ProcessDue generates one transaction per due occurrence of every active
// definition, advancing LastGenerated as it goes. Failures are isolated
// per definition: a broken or failing definition is logged and skipped,
// the rest of the sweep proceeds. Returns the number of transactions
// generated across all definitions.
func (e *RecurringEngine) ProcessDue(ctx context.Context, today time.Time) (int, error) {
	if !e.mu.TryLock() {
		return 0, ErrSweepInProgress
	}
	defer e.mu.Unlock()

	defs, err := e.store.ListActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring definitions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring definitions",
		"total_active", len(defs),
		"reference_date", core.DateKey(today))

	generated := 0
	for _, def := range defs {
		n, err := e.processDefinition(ctx, def, today)
		generated += n
		if err != nil {
			slog.ErrorContext(ctx, "Recurring definition sweep failed",
				"definition_id", def.ID,
				"description", def.Description,
				"generated_before_failure", n,
				"error", err)
			continue
		}
		if n > 0 {
			slog.InfoContext(ctx, "Generated transactions from definition",
				"definition_id", def.ID,
				"description", def.Description,
				"count", n,
				"frequency", def.Frequency)
		}
	}

	slog.InfoContext(ctx, "Recurring sweep complete",
		"generated", generated,
		"definitions_checked", len(defs))

	return generated, nil
}

// processDefinition walks the due occurrences of one definition. The
// marker is persisted per occurrence so a mid-walk failure never loses
// or duplicates an occurrence on retry: generation stops at the first
// failed step and resumes from the persisted marker on the next sweep.
func (e *RecurringEngine) processDefinition(ctx context.Context, def core.RecurringDefinition, today time.Time) (int, error) {
	if err := def.Validate(); err != nil {
		return 0, fmt.Errorf("invalid definition: %w", err)
	}

	nextDue, err := def.NextDue()
	if err != nil {
		return 0, fmt.Errorf("compute next due date: %w", err)
	}

	count := 0
	for !nextDue.After(today) && (def.EndDate.IsZero() || !nextDue.After(def.EndDate)) {
		t := core.Transaction{
			Type:        def.Type,
			Amount:      def.Amount,
			Date:        nextDue,
			CategoryID:  def.CategoryID,
			Description: def.Description,
			Notes:       fmt.Sprintf("generated from recurring definition #%d", def.ID),
			Source:      core.SourceRecurring,
		}
		if _, err := e.transactions.CreateTransaction(ctx, t); err != nil {
			return count, fmt.Errorf("create occurrence %s: %w", core.DateKey(nextDue), err)
		}
		count++

		if err := e.store.UpdateLastGenerated(ctx, def.ID, nextDue); err != nil {
			// Without a persisted marker the next occurrence could be
			// generated twice on retry; stop here.
			return count, fmt.Errorf("persist last generated %s: %w", core.DateKey(nextDue), err)
		}
		def.LastGenerated = nextDue

		nextDue, err = core.Step(nextDue, def.Frequency, def.StartDate.Day())
		if err != nil {
			return count, fmt.Errorf("advance due date: %w", err)
		}
	}

	return count, nil
}
