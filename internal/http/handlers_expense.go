package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

type createExpenseRequest struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type createExpenseResponse struct {
	ID          int64  `json:"id"`
	FromExpense string `json:"from_expense"`
	FromSavings string `json:"from_savings"`
}

type expenseResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	FromSavings string `json:"from_savings"`
}

func toExpenseResponse(rec core.ExpenseRecord) expenseResponse {
	return expenseResponse{
		ID:          rec.ID,
		Date:        rec.Date.String(),
		Category:    rec.Category,
		Amount:      rec.Amount.String(),
		Description: rec.Description,
		FromSavings: rec.FromSavings.String(),
	}
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListExpenses(w, r)
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	default:
		methodNotAllowed(w, "GET", "POST")
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	categories := r.URL.Query()["category"]
	key := listCacheKey(categories)

	if items, found := s.listCache.Get(key); found {
		slog.DebugContext(r.Context(), "Expense list cache hit", "key", key, "count", len(items))
		writeExpenseList(w, items)
		return
	}

	items, err := s.journal.ListExpenses(r.Context(), categories)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses error", "error", err)
		domainError(w, err)
		return
	}

	s.listCache.Set(key, items)
	writeExpenseList(w, items)
}

func writeExpenseList(w http.ResponseWriter, items []core.ExpenseRecord) {
	out := make([]expenseResponse, 0, len(items))
	for _, rec := range items {
		out = append(out, toExpenseResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": out})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	category := sanitizeInput(req.Category)
	description := sanitizeInput(req.Description)

	id, split, err := s.journal.AddExpense(r.Context(), date, category, core.Money{Cents: cents}, description)
	if err != nil {
		slog.WarnContext(r.Context(), "Expense rejected", "error", err, "category", category, "amount_cents", cents)
		domainError(w, err)
		return
	}

	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, createExpenseResponse{
		ID:          id,
		FromExpense: split.FromExpense.String(),
		FromSavings: split.FromSavings.String(),
	})
}

// handleExpenseByID serves /expenses/{id} for GET and DELETE.
func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/expenses/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		errorJSON(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.journal.Expense(r.Context(), id)
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toExpenseResponse(rec))
	case http.MethodDelete:
		if err := s.journal.DeleteExpense(r.Context(), id); err != nil {
			domainError(w, err)
			return
		}
		s.invalidateCaches()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "GET", "DELETE")
	}
}
