package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"lifedash/internal/core"
)

type createTransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	CategoryID  *int64 `json:"category_id"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

type transactionView struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date"`
	CategoryID  *int64 `json:"category_id,omitempty"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
	Source      string `json:"source"`
}

func toTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Date:        core.DateKey(t.Date),
		CategoryID:  t.CategoryID,
		Description: t.Description,
		Notes:       t.Notes,
		Source:      t.Source,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	transactions, err := s.txReader.ListRecentTransactions(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	views := make([]transactionView, 0, len(transactions))
	for _, t := range transactions {
		views = append(views, toTransactionView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+req.Amount)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+req.Date)
		return
	}

	t := core.Transaction{
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		CategoryID:  req.CategoryID,
		Description: sanitizeInput(req.Description),
		Notes:       sanitizeInput(req.Notes),
	}

	id, err := s.txWriter.CreateTransaction(r.Context(), t)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	s.flushCaches()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidFrequency) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrMissingStartDate) ||
		errors.Is(err, core.ErrEndBeforeStart)
}
