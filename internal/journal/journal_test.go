package journal

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage/memory"
)

func newTestService() *Service {
	return NewService(memory.New(), nil)
}

func configure(t *testing.T, svc *Service, salaryCents int64) core.BudgetConfig {
	t.Helper()
	cfg, err := svc.Configure(context.Background(),
		core.Money{Cents: salaryCents},
		core.Allocation{Kind: core.Percentage, Value: 70},
		core.Allocation{Kind: core.Percentage, Value: 30})
	if err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	return cfg
}

func TestConfigureRejectsBadAllocation(t *testing.T) {
	svc := newTestService()
	_, err := svc.Configure(context.Background(),
		core.Money{Cents: 100000},
		core.Allocation{Kind: core.Percentage, Value: 70},
		core.Allocation{Kind: core.Percentage, Value: 20})
	var allocErr *core.AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("expected AllocationError, got %v", err)
	}
}

func TestBudgetNotConfigured(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Budget(context.Background()); !errors.Is(err, core.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestAddExpensePersistsChargeAtomically(t *testing.T) {
	svc := newTestService()
	configure(t, svc, 100000)
	ctx := context.Background()

	id, split, err := svc.AddExpense(ctx, core.NewDate(2026, 1, 15), "Food", core.Money{Cents: 65000}, "rent share")
	if err != nil {
		t.Fatalf("add expense failed: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected a record id")
	}
	if split.FromExpense.Cents != 65000 || split.FromSavings.Cents != 0 {
		t.Fatalf("unexpected split %+v", split)
	}

	cfg, err := svc.Budget(ctx)
	if err != nil {
		t.Fatalf("budget failed: %v", err)
	}
	if cfg.ExpenseBalance.Cents != 5000 || cfg.TotalSpent.Cents != 65000 {
		t.Fatalf("charge not persisted: %+v", cfg)
	}

	rec, err := svc.Expense(ctx, id)
	if err != nil {
		t.Fatalf("get expense failed: %v", err)
	}
	if rec.Category != "Food" || rec.Amount.Cents != 65000 || rec.FromSavings.Cents != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestAddExpenseRecordsSavingsPortion(t *testing.T) {
	svc := newTestService()
	configure(t, svc, 100000)
	ctx := context.Background()

	if _, _, err := svc.AddExpense(ctx, core.NewDate(2026, 1, 1), "Bills", core.Money{Cents: 65000}, ""); err != nil {
		t.Fatalf("first expense failed: %v", err)
	}
	id, split, err := svc.AddExpense(ctx, core.NewDate(2026, 1, 2), "Shopping", core.Money{Cents: 10000}, "")
	if err != nil {
		t.Fatalf("second expense failed: %v", err)
	}
	if split.FromSavings.Cents != 5000 {
		t.Fatalf("expected 5000 from savings, got %d", split.FromSavings.Cents)
	}

	rec, err := svc.Expense(ctx, id)
	if err != nil {
		t.Fatalf("get expense failed: %v", err)
	}
	if rec.FromSavings.Cents != 5000 {
		t.Fatalf("savings portion not journaled: %+v", rec)
	}
}

func TestAddExpenseInsufficientFundsLeavesJournalEmpty(t *testing.T) {
	svc := newTestService()
	configure(t, svc, 100000)
	ctx := context.Background()

	_, _, err := svc.AddExpense(ctx, core.NewDate(2026, 1, 1), "Other", core.Money{Cents: 200000}, "")
	var fundsErr *core.InsufficientFundsError
	if !errors.As(err, &fundsErr) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}

	items, err := svc.ListExpenses(ctx, nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("rejected expense was journaled: %+v", items)
	}
	cfg, _ := svc.Budget(ctx)
	if cfg.TotalSpent.Cents != 0 {
		t.Fatalf("rejected expense mutated budget: %+v", cfg)
	}
}

func TestAddExpenseWithoutBudget(t *testing.T) {
	svc := newTestService()
	_, _, err := svc.AddExpense(context.Background(), core.NewDate(2026, 1, 1), "Food", core.Money{Cents: 100}, "")
	if !errors.Is(err, core.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDeleteExpenseRefunds(t *testing.T) {
	svc := newTestService()
	before := configure(t, svc, 100000)
	ctx := context.Background()

	if _, _, err := svc.AddExpense(ctx, core.NewDate(2026, 1, 1), "Bills", core.Money{Cents: 65000}, ""); err != nil {
		t.Fatalf("first expense failed: %v", err)
	}
	id, _, err := svc.AddExpense(ctx, core.NewDate(2026, 1, 2), "Shopping", core.Money{Cents: 10000}, "")
	if err != nil {
		t.Fatalf("second expense failed: %v", err)
	}

	if err := svc.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	cfg, err := svc.Budget(ctx)
	if err != nil {
		t.Fatalf("budget failed: %v", err)
	}
	// Back to the state after only the first expense.
	if cfg.ExpenseBalance.Cents != 5000 || cfg.SavingsBalance.Cents != before.SavingsBudget.Cents {
		t.Fatalf("refund incorrect: %+v", cfg)
	}
	if cfg.TotalSpent.Cents != 65000 || cfg.SavingsUsed.Cents != 0 {
		t.Fatalf("counters incorrect: %+v", cfg)
	}

	if _, err := svc.Expense(ctx, id); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("record still present after delete: %v", err)
	}
}

func TestDeleteExpenseNotFound(t *testing.T) {
	svc := newTestService()
	configure(t, svc, 100000)
	if err := svc.DeleteExpense(context.Background(), 999); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestListExpensesFiltersByCategory(t *testing.T) {
	svc := newTestService()
	configure(t, svc, 100000)
	ctx := context.Background()

	entries := []struct {
		category string
		cents    int64
	}{
		{"Food", 1000},
		{"Transportation", 2000},
		{"Food", 3000},
		{"Health", 4000},
	}
	for _, e := range entries {
		if _, _, err := svc.AddExpense(ctx, core.NewDate(2026, 2, 1), e.category, core.Money{Cents: e.cents}, ""); err != nil {
			t.Fatalf("add %s failed: %v", e.category, err)
		}
	}

	all, err := svc.ListExpenses(ctx, nil)
	if err != nil || len(all) != 4 {
		t.Fatalf("expected 4 records, got %d (err=%v)", len(all), err)
	}
	// Insertion order preserved
	if all[0].Category != "Food" || all[3].Category != "Health" {
		t.Fatalf("unexpected order: %+v", all)
	}

	food, err := svc.ListExpenses(ctx, []string{"Food"})
	if err != nil || len(food) != 2 {
		t.Fatalf("expected 2 Food records, got %d (err=%v)", len(food), err)
	}

	some, err := svc.ListExpenses(ctx, []string{"Food", "Health"})
	if err != nil || len(some) != 3 {
		t.Fatalf("expected 3 records, got %d (err=%v)", len(some), err)
	}

	none, err := svc.ListExpenses(ctx, []string{"Entertainment"})
	if err != nil || len(none) != 0 {
		t.Fatalf("expected 0 records, got %d (err=%v)", len(none), err)
	}
}

func TestResetBudgetKeepsJournal(t *testing.T) {
	svc := newTestService()
	configure(t, svc, 100000)
	ctx := context.Background()

	if _, _, err := svc.AddExpense(ctx, core.NewDate(2026, 3, 1), "Food", core.Money{Cents: 5000}, ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cfg, err := svc.ResetBudget(ctx)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if cfg.ExpenseBalance != cfg.ExpenseBudget || cfg.TotalSpent.Cents != 0 {
		t.Fatalf("reset incomplete: %+v", cfg)
	}

	items, err := svc.ListExpenses(ctx, nil)
	if err != nil || len(items) != 1 {
		t.Fatalf("journal entries must survive a reset, got %d (err=%v)", len(items), err)
	}
}

func TestReconfigureOverwrites(t *testing.T) {
	svc := newTestService()
	configure(t, svc, 100000)
	ctx := context.Background()

	if _, _, err := svc.AddExpense(ctx, core.NewDate(2026, 4, 1), "Food", core.Money{Cents: 5000}, ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cfg, err := svc.Configure(ctx,
		core.Money{Cents: 200000},
		core.Allocation{Kind: core.Fixed, Value: 1500},
		core.Allocation{Kind: core.Fixed, Value: 500})
	if err != nil {
		t.Fatalf("reconfigure failed: %v", err)
	}
	if cfg.ExpenseBudget.Cents != 150000 || cfg.SavingsBudget.Cents != 50000 {
		t.Fatalf("unexpected budgets: %+v", cfg)
	}
	if cfg.TotalSpent.Cents != 0 {
		t.Fatalf("reconfigure must not carry over spending: %+v", cfg)
	}
}
