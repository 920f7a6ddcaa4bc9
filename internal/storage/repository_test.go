package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lifedash/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "lifedash.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionRoundtrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	catID := int64(7)
	id, err := repo.CreateTransaction(ctx, core.Transaction{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 1250},
		Date:        date(2024, time.March, 15),
		CategoryID:  &catID,
		Description: "groceries",
		Source:      core.SourceManual,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}
	// A transaction in another month must not leak into the listing.
	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		Type:        core.Income,
		Amount:      core.Money{Cents: 5000},
		Date:        date(2024, time.April, 1),
		Description: "salary",
		Source:      core.SourceManual,
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	got, err := repo.ListTransactionsByMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("ListTransactionsByMonth: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got))
	}
	tx := got[0]
	if tx.Description != "groceries" || tx.Amount.Cents != 1250 || tx.Type != core.Expense {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	if tx.CategoryID == nil || *tx.CategoryID != 7 {
		t.Errorf("expected category id 7, got %v", tx.CategoryID)
	}
	if !tx.Date.Equal(date(2024, time.March, 15)) {
		t.Errorf("expected date 2024-03-15, got %s", tx.Date)
	}
}

func TestRecurringRoundtrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateRecurring(ctx, core.RecurringDefinition{
		Type:        core.Expense,
		Description: "rent",
		Amount:      core.Money{Cents: 90000},
		Frequency:   core.Monthly,
		StartDate:   date(2024, time.January, 31),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}
	if _, err := repo.CreateRecurring(ctx, core.RecurringDefinition{
		Type:        core.Income,
		Description: "old contract",
		Amount:      core.Money{Cents: 100},
		Frequency:   core.Weekly,
		StartDate:   date(2023, time.January, 1),
		EndDate:     date(2023, time.June, 1),
		Active:      false,
	}); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	active, err := repo.ListActiveRecurring(ctx)
	if err != nil {
		t.Fatalf("ListActiveRecurring: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active definition, got %d", len(active))
	}
	def := active[0]
	if def.ID != id || def.Description != "rent" || def.Frequency != core.Monthly {
		t.Errorf("unexpected definition: %+v", def)
	}
	if !def.LastGenerated.IsZero() {
		t.Errorf("expected zero last generated, got %s", def.LastGenerated)
	}
	if !def.EndDate.IsZero() {
		t.Errorf("expected zero end date, got %s", def.EndDate)
	}

	all, err := repo.ListRecurring(ctx)
	if err != nil {
		t.Fatalf("ListRecurring: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(all))
	}
	if all[1].EndDate.IsZero() || !all[1].EndDate.Equal(date(2023, time.June, 1)) {
		t.Errorf("expected end date 2023-06-01, got %s", all[1].EndDate)
	}

	if err := repo.UpdateLastGenerated(ctx, id, date(2024, time.February, 29)); err != nil {
		t.Fatalf("UpdateLastGenerated: %v", err)
	}
	active, err = repo.ListActiveRecurring(ctx)
	if err != nil {
		t.Fatalf("ListActiveRecurring: %v", err)
	}
	if !active[0].LastGenerated.Equal(date(2024, time.February, 29)) {
		t.Errorf("expected last generated 2024-02-29, got %s", active[0].LastGenerated)
	}

	if err := repo.SetRecurringActive(ctx, id, false); err != nil {
		t.Fatalf("SetRecurringActive: %v", err)
	}
	active, err = repo.ListActiveRecurring(ctx)
	if err != nil {
		t.Fatalf("ListActiveRecurring: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active definitions, got %d", len(active))
	}

	if err := repo.DeleteRecurring(ctx, id); err != nil {
		t.Fatalf("DeleteRecurring: %v", err)
	}
	if err := repo.DeleteRecurring(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestBudgetsAndGoals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateBudget(ctx, core.Budget{Amount: core.Money{Cents: 50000}, Year: 2024, Month: 3}); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if _, err := repo.CreateBudget(ctx, core.Budget{Amount: core.Money{Cents: 20000}, Year: 2024, Month: 4}); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	budgets, err := repo.ListBudgetsByMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("ListBudgetsByMonth: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Amount.Cents != 50000 {
		t.Errorf("unexpected budgets: %+v", budgets)
	}

	goalID, err := repo.CreateGoal(ctx, "run a marathon")
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if err := repo.SetGoalAchieved(ctx, goalID, true); err != nil {
		t.Fatalf("SetGoalAchieved: %v", err)
	}
	goals, err := repo.ListGoals(ctx)
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(goals) != 1 || !goals[0].Achieved || goals[0].Archived {
		t.Errorf("unexpected goals: %+v", goals)
	}
}

func TestHabitCompletions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateHabit(ctx, "meditate")
	if err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}
	if err := repo.AddHabitCompletion(ctx, id, "2024-04-19"); err != nil {
		t.Fatalf("AddHabitCompletion: %v", err)
	}
	if err := repo.AddHabitCompletion(ctx, id, "2024-04-20"); err != nil {
		t.Fatalf("AddHabitCompletion: %v", err)
	}
	if err := repo.AddHabitCompletion(ctx, 999, "2024-04-20"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown habit, got %v", err)
	}

	habits, err := repo.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(habits))
	}
	if got := habits[0].Completions; len(got) != 2 || got[0] != "2024-04-19" || got[1] != "2024-04-20" {
		t.Errorf("unexpected completions: %v", got)
	}
}

func TestEventsFrom(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, e := range []struct{ title, date string }{
		{"past", "2024-04-10"},
		{"today", "2024-04-20"},
		{"later", "2024-05-01"},
	} {
		if _, err := repo.CreateEvent(ctx, e.title, e.date); err != nil {
			t.Fatalf("CreateEvent(%s): %v", e.title, err)
		}
	}

	events, err := repo.ListEventsFrom(ctx, "2024-04-20")
	if err != nil {
		t.Fatalf("ListEventsFrom: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "today" || events[1].Title != "later" {
		t.Errorf("unexpected order: %+v", events)
	}
}

func TestModuleTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.AddBook(ctx, "Dune", "reading"); err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	if err := repo.AddBook(ctx, "Hyperion", "finished"); err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	reading, finished, err := repo.BookTotals(ctx)
	if err != nil {
		t.Fatalf("BookTotals: %v", err)
	}
	if reading != 1 || finished != 1 {
		t.Errorf("BookTotals = (%d, %d), want (1, 1)", reading, finished)
	}

	if err := repo.AddWorkout(ctx, "run", "2024-04-15"); err != nil {
		t.Fatalf("AddWorkout: %v", err)
	}
	if err := repo.AddWorkout(ctx, "swim", "2024-04-01"); err != nil {
		t.Fatalf("AddWorkout: %v", err)
	}
	week, total, err := repo.WorkoutTotals(ctx, "2024-04-15")
	if err != nil {
		t.Fatalf("WorkoutTotals: %v", err)
	}
	if week != 1 || total != 2 {
		t.Errorf("WorkoutTotals = (%d, %d), want (1, 2)", week, total)
	}

	if err := repo.AddInventoryItem(ctx, "desk", core.Money{Cents: 25000}); err != nil {
		t.Fatalf("AddInventoryItem: %v", err)
	}
	items, value, err := repo.InventoryTotals(ctx)
	if err != nil {
		t.Fatalf("InventoryTotals: %v", err)
	}
	if items != 1 || value.Cents != 25000 {
		t.Errorf("InventoryTotals = (%d, %d), want (1, 25000)", items, value.Cents)
	}

	if err := repo.AddContact(ctx, "Ada", ""); err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	count, err := repo.ContactCount(ctx)
	if err != nil {
		t.Fatalf("ContactCount: %v", err)
	}
	if count != 1 {
		t.Errorf("ContactCount = %d, want 1", count)
	}

	if err := repo.AddPosition(ctx, "VWCE", "open", core.Money{Cents: 1500}); err != nil {
		t.Fatalf("AddPosition: %v", err)
	}
	if err := repo.AddPosition(ctx, "TSLA", "closed", core.Money{Cents: -9000}); err != nil {
		t.Fatalf("AddPosition: %v", err)
	}
	open, unrealized, err := repo.PositionTotals(ctx)
	if err != nil {
		t.Fatalf("PositionTotals: %v", err)
	}
	if open != 1 || unrealized.Cents != 1500 {
		t.Errorf("PositionTotals = (%d, %d), want (1, 1500)", open, unrealized.Cents)
	}

	if err := repo.AddVaultEntry(ctx, "email", "weak"); err != nil {
		t.Fatalf("AddVaultEntry: %v", err)
	}
	if err := repo.AddVaultEntry(ctx, "bank", "strong"); err != nil {
		t.Fatalf("AddVaultEntry: %v", err)
	}
	entries, weak, err := repo.VaultTotals(ctx)
	if err != nil {
		t.Fatalf("VaultTotals: %v", err)
	}
	if entries != 2 || weak != 1 {
		t.Errorf("VaultTotals = (%d, %d), want (2, 1)", entries, weak)
	}
}
