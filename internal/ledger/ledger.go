// Package ledger implements the budget state machine: two buckets sized from
// a monthly salary, charges that drain the expense bucket before overflowing
// into savings, and the inverse refund applied when a journal entry is
// deleted. All functions are pure over a BudgetConfig; persistence is the
// caller's concern.
package ledger

import (
	"time"

	"bilancio/internal/core"
)

// allocationEpsilonCents is the tolerance when checking that the two bucket
// sizes sum to the salary. One cent, matching the 0.01-unit epsilon of the
// stored decimal format.
const allocationEpsilonCents = 1

// ComputeBudgets resolves both allocations against the salary and validates
// that they sum to it. Returns an AllocationError when they do not.
func ComputeBudgets(salary core.Money, expense, savings core.Allocation) (core.Money, core.Money, error) {
	if err := expense.Validate(); err != nil {
		return core.Money{}, core.Money{}, err
	}
	if err := savings.Validate(); err != nil {
		return core.Money{}, core.Money{}, err
	}
	if salary.Cents < 0 {
		return core.Money{}, core.Money{}, core.ErrInvalidAmount
	}

	expenseBudget := expense.Amount(salary)
	savingsBudget := savings.Amount(salary)
	total := expenseBudget.Add(savingsBudget)

	diff := total.Cents - salary.Cents
	if diff < 0 {
		diff = -diff
	}
	if diff > allocationEpsilonCents {
		return core.Money{}, core.Money{}, &core.AllocationError{Total: total, Salary: salary}
	}
	return expenseBudget, savingsBudget, nil
}

// NewConfig builds a fresh BudgetConfig from validated allocations. Both
// balances start at their budgets and the cumulative counters at zero: a
// configure is a full overwrite, never a merge.
func NewConfig(salary core.Money, expense, savings core.Allocation) (core.BudgetConfig, error) {
	expenseBudget, savingsBudget, err := ComputeBudgets(salary, expense, savings)
	if err != nil {
		return core.BudgetConfig{}, err
	}
	return core.BudgetConfig{
		MonthlySalary:     salary,
		ExpenseAllocation: expense,
		SavingsAllocation: savings,
		ExpenseBudget:     expenseBudget,
		SavingsBudget:     savingsBudget,
		ExpenseBalance:    expenseBudget,
		SavingsBalance:    savingsBudget,
		LastUpdated:       time.Now(),
	}, nil
}

// Charge funds amount from the expense bucket first, overflowing into the
// savings bucket, and mutates cfg accordingly. When the two balances combined
// cannot cover the amount it returns an InsufficientFundsError and leaves cfg
// untouched. A nil cfg reports ErrNotConfigured.
func Charge(cfg *core.BudgetConfig, amount core.Money) (core.Split, error) {
	if cfg == nil {
		return core.Split{}, core.ErrNotConfigured
	}
	if err := amount.Validate(); err != nil {
		return core.Split{}, err
	}

	available := cfg.TotalAvailable()
	if amount.Cents > available.Cents {
		return core.Split{}, &core.InsufficientFundsError{Available: available, Requested: amount}
	}

	var split core.Split
	if amount.Cents <= cfg.ExpenseBalance.Cents {
		split.FromExpense = amount
		cfg.ExpenseBalance = cfg.ExpenseBalance.Sub(amount)
	} else {
		split.FromExpense = cfg.ExpenseBalance
		split.FromSavings = amount.Sub(cfg.ExpenseBalance)
		cfg.ExpenseBalance = core.Money{}
		cfg.SavingsBalance = cfg.SavingsBalance.Sub(split.FromSavings)
		cfg.SavingsUsed = cfg.SavingsUsed.Add(split.FromSavings)
	}

	cfg.TotalSpent = cfg.TotalSpent.Add(amount)
	cfg.LastUpdated = time.Now()
	return split, nil
}

// Refund reverses a charge with a known split. Balances are clamped to their
// budget ceilings and counters floored at zero, so a double-processed refund
// cannot drive the ledger negative or over-full.
func Refund(cfg *core.BudgetConfig, amount, fromSavings core.Money) error {
	if cfg == nil {
		return core.ErrNotConfigured
	}
	fromExpense := amount.Sub(fromSavings)

	cfg.ExpenseBalance = cfg.ExpenseBalance.Add(fromExpense).Min(cfg.ExpenseBudget)
	cfg.SavingsBalance = cfg.SavingsBalance.Add(fromSavings).Min(cfg.SavingsBudget)
	cfg.TotalSpent = cfg.TotalSpent.Sub(amount).Max(core.Money{})
	cfg.SavingsUsed = cfg.SavingsUsed.Sub(fromSavings).Max(core.Money{})
	cfg.LastUpdated = time.Now()
	return nil
}

// Reset starts a new period with the same allocations: balances back to their
// budgets, counters zeroed. Journal entries are left in place.
func Reset(cfg *core.BudgetConfig) error {
	if cfg == nil {
		return core.ErrNotConfigured
	}
	cfg.ExpenseBalance = cfg.ExpenseBudget
	cfg.SavingsBalance = cfg.SavingsBudget
	cfg.TotalSpent = core.Money{}
	cfg.SavingsUsed = core.Money{}
	cfg.LastUpdated = time.Now()
	return nil
}
