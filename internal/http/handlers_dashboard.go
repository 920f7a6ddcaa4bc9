package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"lifedash/internal/core"
)

type monthSummaryView struct {
	Year             int   `json:"year"`
	Month            int   `json:"month"`
	IncomeCents      int64 `json:"income_cents"`
	ExpenseCents     int64 `json:"expense_cents"`
	BalanceCents     int64 `json:"balance_cents"`
	TotalBudgetCents int64 `json:"total_budget_cents"`
	BudgetPct        *int  `json:"budget_pct"`
	ActiveGoals      int   `json:"active_goals"`
}

func summaryView(s core.MonthSummary) monthSummaryView {
	return monthSummaryView{
		Year:             s.Year,
		Month:            s.Month,
		IncomeCents:      s.Income.Cents,
		ExpenseCents:     s.Expense.Cents,
		BalanceCents:     s.Balance.Cents,
		TotalBudgetCents: s.TotalBudget.Cents,
		BudgetPct:        s.BudgetPct,
		ActiveGoals:      s.ActiveGoals,
	}
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	now := s.now()
	year, month := parseYearMonth(r, now.Year(), int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %d", month))
		return
	}

	cacheKey := fmt.Sprintf("summary:%04d-%02d", year, month)
	if cached, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, summaryView(cached))
		return
	}

	summary, err := s.dashboard.MonthSummary(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month summary failed", "year", year, "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute month summary")
		return
	}

	s.summaryCache.Set(cacheKey, summary)
	writeJSON(w, http.StatusOK, summaryView(summary))
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cached, ok := s.overviewCache.Get("overview"); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	groups := s.dashboard.Overview(r.Context())
	s.overviewCache.Set("overview", groups)
	writeJSON(w, http.StatusOK, groups)
}

const upcomingEventsLimit = 5

type eventView struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// handleUpcomingEvents returns the next few events, soonest first.
func (s *Server) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	todayKey := core.DateKey(s.now())
	events, err := s.events.ListEventsFrom(r.Context(), todayKey)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	upcoming := core.UpcomingEvents(events, todayKey, upcomingEventsLimit)
	views := make([]eventView, 0, len(upcoming))
	for _, e := range upcoming {
		views = append(views, eventView{ID: e.ID, Title: e.Title, Date: e.Date})
	}
	writeJSON(w, http.StatusOK, views)
}
