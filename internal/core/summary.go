package core

import "sort"

// MonthSummary holds the derived scalar indicators for one month. It is
// recomputed on every request and never persisted.
type MonthSummary struct {
	Year        int
	Month       int
	Income      Money
	Expense     Money
	Balance     Money
	TotalBudget Money
	// BudgetPct is nil when no budget is set for the month; renderers
	// must show a placeholder in that case, not 0%.
	BudgetPct   *int
	ActiveGoals int
}

// ComputeMonthSummary derives the dashboard scalars from the raw month
// collections. Year and month are explicit parameters so the function is
// pure and independent of any view state.
func ComputeMonthSummary(year, month int, transactions []Transaction, budgets []Budget, goals []Goal) MonthSummary {
	s := MonthSummary{Year: year, Month: month}
	for _, t := range transactions {
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	for _, b := range budgets {
		s.TotalBudget = s.TotalBudget.Add(b.Amount)
	}
	if s.TotalBudget.Cents > 0 {
		pct := roundPct(s.Expense.Cents, s.TotalBudget.Cents)
		s.BudgetPct = &pct
	}
	for _, g := range goals {
		if !g.Achieved && !g.Archived {
			s.ActiveGoals++
		}
	}
	return s
}

// HabitCompletionRate returns the rounded percentage of habits completed
// on the given day. An empty habit list yields 0, not a division error.
func HabitCompletionRate(habits []Habit, todayKey string) int {
	if len(habits) == 0 {
		return 0
	}
	completed := 0
	for _, h := range habits {
		for _, key := range h.Completions {
			if key == todayKey {
				completed++
				break
			}
		}
	}
	return roundPct(int64(completed), int64(len(habits)))
}

// UpcomingEvents selects the next events on or after today, soonest
// first. Dates are YYYY-MM-DD strings so the lexical comparison is the
// chronological one.
func UpcomingEvents(events []Event, todayKey string, limit int) []Event {
	var upcoming []Event
	for _, e := range events {
		if e.Date >= todayKey {
			upcoming = append(upcoming, e)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].Date < upcoming[j].Date })
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// roundPct computes round(num/den*100) in integer arithmetic.
func roundPct(num, den int64) int {
	if den == 0 {
		return 0
	}
	return int((num*100 + den/2) / den)
}
