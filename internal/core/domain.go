package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Percentage AllocationKind = "percentage"
	Fixed      AllocationKind = "fixed"
)

type (
	// AllocationKind says whether a bucket size is a percentage of the
	// salary or a fixed currency amount.
	AllocationKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Allocation describes how one bucket is sized. Value is the raw user
	// input: percent points for Percentage, currency units for Fixed.
	Allocation struct {
		Kind  AllocationKind
		Value float64
	}

	// BudgetConfig is the single budget row: salary, the two allocations,
	// the derived bucket sizes and the running balances.
	BudgetConfig struct {
		MonthlySalary     Money
		ExpenseAllocation Allocation
		SavingsAllocation Allocation
		ExpenseBudget     Money
		SavingsBudget     Money
		ExpenseBalance    Money
		SavingsBalance    Money
		TotalSpent        Money
		SavingsUsed       Money
		LastUpdated       time.Time
	}

	// ExpenseRecord is one journal entry. FromSavings is the portion of
	// this transaction that was funded by the savings bucket.
	ExpenseRecord struct {
		ID          int64
		Date        Date
		Category    string
		Amount      Money
		Description string
		FromSavings Money
	}

	// Split reports how a charge was funded.
	Split struct {
		FromExpense Money
		FromSavings Money
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrNotConfigured    = errors.New("no budget configured")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrInvalidAllocType = errors.New("invalid allocation type")
)

// AllocationError reports a budget that does not sum to the salary.
type AllocationError struct {
	Total  Money
	Salary Money
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("expense + savings must equal salary: allocated %s vs salary %s",
		e.Total, e.Salary)
}

// InsufficientFundsError reports a charge that exceeds both buckets combined.
type InsufficientFundsError struct {
	Available Money
	Requested Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, needed %s",
		e.Available, e.Requested)
}

func (k AllocationKind) Validate() error {
	switch k {
	case Percentage, Fixed:
		return nil
	default:
		return ErrInvalidAllocType
	}
}

// Amount resolves the allocation against a salary, rounding half-up to cents.
func (a Allocation) Amount(salary Money) Money {
	switch a.Kind {
	case Percentage:
		return Money{Cents: int64(float64(salary.Cents)*a.Value/100.0 + 0.5)}
	default:
		return Money{Cents: int64(a.Value*100.0 + 0.5)}
	}
}

func (a Allocation) Validate() error {
	if err := a.Kind.Validate(); err != nil {
		return err
	}
	if a.Value < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + n.
func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }

// Sub returns m - n.
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }

// Min returns the smaller of m and n.
func (m Money) Min(n Money) Money {
	if n.Cents < m.Cents {
		return n
	}
	return m
}

// Max returns the larger of m and n.
func (m Money) Max(n Money) Money {
	if n.Cents > m.Cents {
		return n
	}
	return m
}

func (e ExpenseRecord) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if e.FromSavings.Cents < 0 || e.FromSavings.Cents > e.Amount.Cents {
		return errors.New("from_savings must be between zero and the amount")
	}
	return nil
}

// TotalAvailable is the sum of both bucket balances.
func (c *BudgetConfig) TotalAvailable() Money {
	return c.ExpenseBalance.Add(c.SavingsBalance)
}
