package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"bilancio/internal/core"
)

type allocationRequest struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type configureBudgetRequest struct {
	MonthlySalary string            `json:"monthly_salary"`
	Expense       allocationRequest `json:"expense_allocation"`
	Savings       allocationRequest `json:"savings_allocation"`
}

type allocationResponse struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type budgetResponse struct {
	MonthlySalary  string             `json:"monthly_salary"`
	Expense        allocationResponse `json:"expense_allocation"`
	Savings        allocationResponse `json:"savings_allocation"`
	ExpenseBudget  string             `json:"expense_budget"`
	SavingsBudget  string             `json:"savings_budget"`
	ExpenseBalance string             `json:"expense_balance"`
	SavingsBalance string             `json:"savings_balance"`
	TotalSpent     string             `json:"total_spent"`
	SavingsUsed    string             `json:"savings_used"`
	LastUpdated    string             `json:"last_updated"`
}

func toBudgetResponse(cfg core.BudgetConfig) budgetResponse {
	return budgetResponse{
		MonthlySalary:  cfg.MonthlySalary.String(),
		Expense:        allocationResponse{Type: string(cfg.ExpenseAllocation.Kind), Value: cfg.ExpenseAllocation.Value},
		Savings:        allocationResponse{Type: string(cfg.SavingsAllocation.Kind), Value: cfg.SavingsAllocation.Value},
		ExpenseBudget:  cfg.ExpenseBudget.String(),
		SavingsBudget:  cfg.SavingsBudget.String(),
		ExpenseBalance: cfg.ExpenseBalance.String(),
		SavingsBalance: cfg.SavingsBalance.String(),
		TotalSpent:     cfg.TotalSpent.String(),
		SavingsUsed:    cfg.SavingsUsed.String(),
		LastUpdated:    cfg.LastUpdated.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetBudget(w, r)
	case http.MethodPost, http.MethodPut:
		s.handleConfigureBudget(w, r)
	default:
		methodNotAllowed(w, "GET", "POST", "PUT")
	}
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	if cfg, found := s.budgetCache.Get(budgetCacheKey); found {
		writeJSON(w, http.StatusOK, toBudgetResponse(cfg))
		return
	}

	cfg, err := s.journal.Budget(r.Context())
	if err != nil {
		domainError(w, err)
		return
	}

	s.budgetCache.Set(budgetCacheKey, cfg)
	writeJSON(w, http.StatusOK, toBudgetResponse(cfg))
}

func (s *Server) handleConfigureBudget(w http.ResponseWriter, r *http.Request) {
	var req configureBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	salaryCents, err := core.ParseDecimalToCents(req.MonthlySalary)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid monthly salary")
		return
	}

	cfg, err := s.journal.Configure(r.Context(),
		core.Money{Cents: salaryCents},
		core.Allocation{Kind: core.AllocationKind(req.Expense.Type), Value: req.Expense.Value},
		core.Allocation{Kind: core.AllocationKind(req.Savings.Type), Value: req.Savings.Value})
	if err != nil {
		slog.WarnContext(r.Context(), "Budget configuration rejected", "error", err)
		domainError(w, err)
		return
	}

	s.invalidateCaches()
	writeJSON(w, http.StatusOK, toBudgetResponse(cfg))
}

func (s *Server) handleResetBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	cfg, err := s.journal.ResetBudget(r.Context())
	if err != nil {
		domainError(w, err)
		return
	}

	s.invalidateCaches()
	writeJSON(w, http.StatusOK, toBudgetResponse(cfg))
}
