package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"lifedash/internal/core"
	"lifedash/internal/stats"
)

// DashboardStore provides the month collections the summary derives from.
type DashboardStore interface {
	ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error)
	ListBudgetsByMonth(ctx context.Context, year, month int) ([]core.Budget, error)
	ListGoals(ctx context.Context) ([]core.Goal, error)
}

// DashboardService computes the month summary and the module overview
// grid. Summary inputs are fetched concurrently; the overview delegates
// to the fail-soft stats collector.
type DashboardService struct {
	store        DashboardStore
	registry     *stats.Registry
	statsTimeout time.Duration
}

func NewDashboardService(store DashboardStore, registry *stats.Registry, statsTimeout time.Duration) *DashboardService {
	return &DashboardService{
		store:        store,
		registry:     registry,
		statsTimeout: statsTimeout,
	}
}

// MonthSummary loads the transaction, budget and goal collections for
// the given month and derives the summary scalars. Unlike the overview,
// a failing fetch here is a real error: the summary is the centerpiece
// of the dashboard and partial numbers would be misleading.
func (s *DashboardService) MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	var (
		transactions []core.Transaction
		budgets      []core.Budget
		goals        []core.Goal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.store.ListTransactionsByMonth(gctx, year, month)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgetsByMonth(gctx, year, month)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goals, err = s.store.ListGoals(gctx)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.MonthSummary{}, fmt.Errorf("month summary (year=%d, month=%d): %w", year, month, err)
	}

	return core.ComputeMonthSummary(year, month, transactions, budgets, goals), nil
}

// Overview collects the per-module stats cards grouped by category.
func (s *DashboardService) Overview(ctx context.Context) []stats.CategoryGroup {
	return stats.Collect(ctx, s.registry.Providers(), s.statsTimeout)
}
