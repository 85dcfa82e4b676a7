// Package journal orchestrates the expense journal on top of the ledger: each
// mutation loads the budget row, applies the pure ledger transition, persists
// budget and journal atomically through the repository, then announces the
// change on the event bus.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/storage"
)

type Service struct {
	repo   storage.Repository
	events *amqp.Client
}

// NewService creates the journal service. events may be nil, in which case no
// messages are published.
func NewService(repo storage.Repository, events *amqp.Client) *Service {
	return &Service{repo: repo, events: events}
}

// Configure overwrites the budget with fresh buckets derived from the salary
// and the two allocations. Existing journal entries are kept but no longer
// reconciled against the new buckets.
func (s *Service) Configure(ctx context.Context, salary core.Money, expense, savings core.Allocation) (core.BudgetConfig, error) {
	cfg, err := ledger.NewConfig(salary, expense, savings)
	if err != nil {
		return core.BudgetConfig{}, err
	}
	if err := s.repo.SaveBudget(ctx, cfg); err != nil {
		return core.BudgetConfig{}, fmt.Errorf("persist budget: %w", err)
	}
	return cfg, nil
}

// Budget returns the current budget row, or core.ErrNotConfigured.
func (s *Service) Budget(ctx context.Context) (core.BudgetConfig, error) {
	cfg, err := s.repo.LoadBudget(ctx)
	if err != nil {
		return core.BudgetConfig{}, fmt.Errorf("load budget: %w", err)
	}
	if cfg == nil {
		return core.BudgetConfig{}, core.ErrNotConfigured
	}
	return *cfg, nil
}

// AddExpense charges the buckets and appends a journal entry in one
// transaction. It returns the new entry id and the funding split.
func (s *Service) AddExpense(ctx context.Context, date core.Date, category string, amount core.Money, description string) (int64, core.Split, error) {
	rec := core.ExpenseRecord{
		Date:        date,
		Category:    strings.TrimSpace(category),
		Amount:      amount,
		Description: strings.TrimSpace(description),
	}
	if err := rec.Validate(); err != nil {
		return 0, core.Split{}, err
	}

	cfg, err := s.repo.LoadBudget(ctx)
	if err != nil {
		return 0, core.Split{}, fmt.Errorf("load budget: %w", err)
	}

	split, err := ledger.Charge(cfg, amount)
	if err != nil {
		return 0, core.Split{}, err
	}
	rec.FromSavings = split.FromSavings

	id, err := s.repo.RecordCharge(ctx, *cfg, rec)
	if err != nil {
		return 0, core.Split{}, fmt.Errorf("record expense: %w", err)
	}

	// Publishing is best effort. The expense is already committed.
	if s.events != nil {
		if err := s.events.PublishExpenseRecorded(ctx, id, split.FromSavings.Cents); err != nil {
			slog.WarnContext(ctx, "Failed to publish expense recorded event",
				"id", id, "error", err)
		}
	}
	return id, split, nil
}

// DeleteExpense removes a journal entry and refunds its amount to the buckets.
// The refund is split per the entry's from_savings portion; entries older than
// that column refund entirely to the expense bucket. When no budget is
// configured the entry is deleted without a refund.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	rec, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	cfg, err := s.repo.LoadBudget(ctx)
	if err != nil {
		return fmt.Errorf("load budget: %w", err)
	}
	if cfg != nil {
		if err := ledger.Refund(cfg, rec.Amount, rec.FromSavings); err != nil {
			return err
		}
	}

	if err := s.repo.RecordRefund(ctx, cfg, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishExpenseDeleted(ctx, id); err != nil {
			slog.WarnContext(ctx, "Failed to publish expense deleted event",
				"id", id, "error", err)
		}
	}
	return nil
}

// ResetBudget restores both balances to their budgets and zeroes the spending
// counters, keeping the configured allocations.
func (s *Service) ResetBudget(ctx context.Context) (core.BudgetConfig, error) {
	cfg, err := s.repo.LoadBudget(ctx)
	if err != nil {
		return core.BudgetConfig{}, fmt.Errorf("load budget: %w", err)
	}
	if cfg == nil {
		return core.BudgetConfig{}, core.ErrNotConfigured
	}
	if err := ledger.Reset(cfg); err != nil {
		return core.BudgetConfig{}, err
	}
	if err := s.repo.SaveBudget(ctx, *cfg); err != nil {
		return core.BudgetConfig{}, fmt.Errorf("persist budget: %w", err)
	}
	return *cfg, nil
}

// Expense returns a single journal entry by id.
func (s *Service) Expense(ctx context.Context, id int64) (core.ExpenseRecord, error) {
	return s.repo.GetExpense(ctx, id)
}

// ListExpenses returns journal entries in insertion order, optionally
// restricted to a set of categories.
func (s *Service) ListExpenses(ctx context.Context, categories []string) ([]core.ExpenseRecord, error) {
	cleaned := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return s.repo.ListExpenses(ctx, cleaned)
}

func (s *Service) Close() error {
	if s.events != nil {
		return s.events.Close()
	}
	return nil
}
