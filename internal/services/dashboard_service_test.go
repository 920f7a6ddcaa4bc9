package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifedash/internal/core"
	"lifedash/internal/stats"
)

type fakeDashboardStore struct {
	transactions []core.Transaction
	budgets      []core.Budget
	goals        []core.Goal
	txErr        error
}

func (f *fakeDashboardStore) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	return f.transactions, f.txErr
}

func (f *fakeDashboardStore) ListBudgetsByMonth(ctx context.Context, year, month int) ([]core.Budget, error) {
	return f.budgets, nil
}

func (f *fakeDashboardStore) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return f.goals, nil
}

func TestDashboardService_MonthSummary(t *testing.T) {
	store := &fakeDashboardStore{
		transactions: []core.Transaction{
			{Type: core.Income, Amount: core.Money{Cents: 100000}},
			{Type: core.Expense, Amount: core.Money{Cents: 40000}},
		},
		budgets: []core.Budget{{Amount: core.Money{Cents: 50000}}},
		goals:   []core.Goal{{Title: "save"}},
	}
	svc := NewDashboardService(store, stats.NewRegistry(), time.Second)

	s, err := svc.MonthSummary(context.Background(), 2024, 4)
	if err != nil {
		t.Fatalf("MonthSummary() error = %v", err)
	}
	if s.Balance.Cents != 60000 {
		t.Errorf("Balance = %d, want 60000", s.Balance.Cents)
	}
	if s.BudgetPct == nil || *s.BudgetPct != 80 {
		t.Errorf("BudgetPct = %v, want 80", s.BudgetPct)
	}
	if s.ActiveGoals != 1 {
		t.Errorf("ActiveGoals = %d, want 1", s.ActiveGoals)
	}
}

func TestDashboardService_MonthSummary_StoreError(t *testing.T) {
	store := &fakeDashboardStore{txErr: errors.New("db down")}
	svc := NewDashboardService(store, stats.NewRegistry(), time.Second)

	if _, err := svc.MonthSummary(context.Background(), 2024, 4); err == nil {
		t.Error("MonthSummary() = nil error, want wrapped store error")
	}
}

type staticProvider struct {
	category stats.Category
	card     *stats.ModuleStats
	err      error
}

func (p staticProvider) Name() string             { return "static" }
func (p staticProvider) Category() stats.Category { return p.category }
func (p staticProvider) Stats(ctx context.Context) (*stats.ModuleStats, error) {
	return p.card, p.err
}

func TestDashboardService_Overview(t *testing.T) {
	registry := stats.NewRegistry()
	registry.Register(staticProvider{
		category: stats.Wellness,
		card:     &stats.ModuleStats{Label: "Habits", NavTarget: "habits"},
	})
	registry.Register(staticProvider{category: stats.Media, err: errors.New("down")})
	svc := NewDashboardService(&fakeDashboardStore{}, registry, time.Second)

	groups := svc.Overview(context.Background())
	if len(groups) != 1 || groups[0].Category != stats.Wellness {
		t.Errorf("Overview() = %+v, want single Wellness group", groups)
	}
}
