package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lifedash/internal/core"
	"lifedash/internal/services"
)

type createRecurringRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	CategoryID  *int64 `json:"category_id"`
	Description string `json:"description"`
}

type recurringView struct {
	ID            int64  `json:"id"`
	Type          string `json:"type"`
	AmountCents   int64  `json:"amount_cents"`
	Frequency     string `json:"frequency"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	LastGenerated string `json:"last_generated,omitempty"`
	CategoryID    *int64 `json:"category_id,omitempty"`
	Description   string `json:"description"`
	Active        bool   `json:"active"`
}

func toRecurringView(d core.RecurringDefinition) recurringView {
	v := recurringView{
		ID:          d.ID,
		Type:        string(d.Type),
		AmountCents: d.Amount.Cents,
		Frequency:   string(d.Frequency),
		StartDate:   core.DateKey(d.StartDate),
		CategoryID:  d.CategoryID,
		Description: d.Description,
		Active:      d.Active,
	}
	if !d.EndDate.IsZero() {
		v.EndDate = core.DateKey(d.EndDate)
	}
	if !d.LastGenerated.IsZero() {
		v.LastGenerated = core.DateKey(d.LastGenerated)
	}
	return v
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRecurring(w, r)
	case http.MethodPost:
		s.handleCreateRecurring(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	definitions, err := s.recurring.ListRecurring(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list recurring definitions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recurring definitions")
		return
	}

	views := make([]recurringView, 0, len(definitions))
	for _, d := range definitions {
		views = append(views, toRecurringView(d))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+req.Amount)
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date: "+req.StartDate)
		return
	}
	var endDate time.Time
	if req.EndDate != "" {
		if endDate, err = parseDate(req.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date: "+req.EndDate)
			return
		}
	}

	def := core.RecurringDefinition{
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: cents},
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   startDate,
		EndDate:     endDate,
		CategoryID:  req.CategoryID,
		Description: sanitizeInput(req.Description),
		Active:      true,
	}
	if err := def.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.recurring.CreateRecurring(r.Context(), def)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create recurring definition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create recurring definition")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// handleRecurringItem routes /api/recurring/{id} and /api/recurring/{id}/active.
func (s *Server) handleRecurringItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/recurring/")
	parts := strings.Split(rest, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recurring id: "+parts[0])
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.recurring.DeleteRecurring(r.Context(), id); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				writeError(w, http.StatusNotFound, "recurring definition not found")
				return
			}
			slog.ErrorContext(r.Context(), "Failed to delete recurring definition", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete recurring definition")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 2 && parts[1] == "active" && r.Method == http.MethodPost:
		var req struct {
			Active bool `json:"active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.recurring.SetRecurringActive(r.Context(), id, req.Active); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				writeError(w, http.StatusNotFound, "recurring definition not found")
				return
			}
			slog.ErrorContext(r.Context(), "Failed to update recurring definition", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update recurring definition")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	generated, err := s.sweeper.ProcessDue(r.Context(), s.now())
	if err != nil {
		if errors.Is(err, services.ErrSweepInProgress) {
			writeError(w, http.StatusConflict, "a sweep is already running")
			return
		}
		slog.ErrorContext(r.Context(), "Recurring sweep failed", "error", err)
		writeError(w, http.StatusInternalServerError, "recurring sweep failed")
		return
	}

	if generated > 0 {
		s.flushCaches()
	}
	writeJSON(w, http.StatusOK, map[string]int{"generated": generated})
}
