package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the persistence port for the ledger and the journal. The
// charge and refund methods persist the updated budget row and the journal
// mutation as one transaction, so a crash can never leave the two tables
// disagreeing.
type Repository interface {
	// LoadBudget returns the budget row, or nil when none has been saved yet.
	LoadBudget(ctx context.Context) (*core.BudgetConfig, error)

	// SaveBudget overwrites the budget row.
	SaveBudget(ctx context.Context, cfg core.BudgetConfig) error

	// GetExpense returns a single record, or core.ErrExpenseNotFound.
	GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error)

	// ListExpenses returns records in insertion order. A non-empty categories
	// set restricts the result to those categories.
	ListExpenses(ctx context.Context, categories []string) ([]core.ExpenseRecord, error)

	// RecordCharge writes the post-charge budget row and appends the record
	// atomically, returning the new record id.
	RecordCharge(ctx context.Context, cfg core.BudgetConfig, rec core.ExpenseRecord) (int64, error)

	// RecordRefund writes the post-refund budget row (skipped when cfg is
	// nil) and deletes the record atomically.
	RecordRefund(ctx context.Context, cfg *core.BudgetConfig, id int64) error

	Close() error
}

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const budgetColumns = `monthly_salary_cents, expense_allocation_kind, expense_allocation_value,
	savings_allocation_kind, savings_allocation_value,
	expense_budget_cents, savings_budget_cents,
	expense_balance_cents, savings_balance_cents,
	total_spent_cents, savings_used_cents, last_updated`

func (r *SQLiteRepository) LoadBudget(ctx context.Context) (*core.BudgetConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budget_config WHERE id = 1`)
	cfg, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load budget: %w", err)
	}
	return cfg, nil
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, cfg core.BudgetConfig) error {
	if err := upsertBudget(ctx, r.db, cfg); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget configuration saved",
		"salary_cents", cfg.MonthlySalary.Cents,
		"expense_budget_cents", cfg.ExpenseBudget.Cents,
		"savings_budget_cents", cfg.SavingsBudget.Cents)
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, category, amount_cents, description, from_savings_cents
		FROM expenses WHERE id = ?`, id)
	rec, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseRecord{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, categories []string) ([]core.ExpenseRecord, error) {
	query := `SELECT id, date, category, amount_cents, description, from_savings_cents FROM expenses`
	args := make([]any, 0, len(categories))
	if len(categories) > 0 {
		query += ` WHERE category IN (?` + repeat(",?", len(categories)-1) + `)`
		for _, c := range categories {
			args = append(args, c)
		}
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseRecord
	for rows.Next() {
		rec, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) RecordCharge(ctx context.Context, cfg core.BudgetConfig, rec core.ExpenseRecord) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin charge tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertBudget(ctx, tx, cfg); err != nil {
		return 0, fmt.Errorf("update budget balances: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (date, category, amount_cents, description, from_savings_cents)
		VALUES (?, ?, ?, ?, ?)`,
		rec.Date.String(), rec.Category, rec.Amount.Cents, rec.Description, rec.FromSavings.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit charge tx: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", id,
		"category", rec.Category,
		"amount_cents", rec.Amount.Cents,
		"from_savings_cents", rec.FromSavings.Cents)
	return id, nil
}

func (r *SQLiteRepository) RecordRefund(ctx context.Context, cfg *core.BudgetConfig, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refund tx: %w", err)
	}
	defer tx.Rollback()

	if cfg != nil {
		if err := upsertBudget(ctx, tx, *cfg); err != nil {
			return fmt.Errorf("restore budget balances: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrExpenseNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refund tx: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "refunded", cfg != nil)
	return nil
}

// PendingExportExpense is the minimal data the export worker needs to queue
// a row.
type PendingExportExpense struct {
	ID        int64
	CreatedAt time.Time
}

// GetPendingExportExpenses returns expenses not yet appended to the
// spreadsheet, oldest first.
func (r *SQLiteRepository) GetPendingExportExpenses(ctx context.Context, limit int) ([]PendingExportExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM expenses
		WHERE exported = 0 AND export_error = 0
		ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export expenses: %w", err)
	}
	defer rows.Close()

	var out []PendingExportExpense
	for rows.Next() {
		var p PendingExportExpense
		var createdAt string
		if err := rows.Scan(&p.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			p.CreatedAt = t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkExported marks an expense as appended to the spreadsheet.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE expenses SET exported = 1, export_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense exported: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as exported", "id", id)
	return nil
}

// MarkExportError flags an expense whose export failed so the periodic scan
// stops retrying it.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE expenses SET export_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense export error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with export error", "id", id)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertBudget(ctx context.Context, db execer, cfg core.BudgetConfig) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO budget_config (id, `+budgetColumns+`)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			monthly_salary_cents = excluded.monthly_salary_cents,
			expense_allocation_kind = excluded.expense_allocation_kind,
			expense_allocation_value = excluded.expense_allocation_value,
			savings_allocation_kind = excluded.savings_allocation_kind,
			savings_allocation_value = excluded.savings_allocation_value,
			expense_budget_cents = excluded.expense_budget_cents,
			savings_budget_cents = excluded.savings_budget_cents,
			expense_balance_cents = excluded.expense_balance_cents,
			savings_balance_cents = excluded.savings_balance_cents,
			total_spent_cents = excluded.total_spent_cents,
			savings_used_cents = excluded.savings_used_cents,
			last_updated = excluded.last_updated`,
		cfg.MonthlySalary.Cents,
		string(cfg.ExpenseAllocation.Kind), cfg.ExpenseAllocation.Value,
		string(cfg.SavingsAllocation.Kind), cfg.SavingsAllocation.Value,
		cfg.ExpenseBudget.Cents, cfg.SavingsBudget.Cents,
		cfg.ExpenseBalance.Cents, cfg.SavingsBalance.Cents,
		cfg.TotalSpent.Cents, cfg.SavingsUsed.Cents,
		cfg.LastUpdated.UTC().Format(time.RFC3339))
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(row scanner) (*core.BudgetConfig, error) {
	var cfg core.BudgetConfig
	var expKind, savKind, lastUpdated string
	err := row.Scan(
		&cfg.MonthlySalary.Cents,
		&expKind, &cfg.ExpenseAllocation.Value,
		&savKind, &cfg.SavingsAllocation.Value,
		&cfg.ExpenseBudget.Cents, &cfg.SavingsBudget.Cents,
		&cfg.ExpenseBalance.Cents, &cfg.SavingsBalance.Cents,
		&cfg.TotalSpent.Cents, &cfg.SavingsUsed.Cents,
		&lastUpdated)
	if err != nil {
		return nil, err
	}
	cfg.ExpenseAllocation.Kind = core.AllocationKind(expKind)
	cfg.SavingsAllocation.Kind = core.AllocationKind(savKind)
	if t, err := time.Parse(time.RFC3339, lastUpdated); err == nil {
		cfg.LastUpdated = t
	}
	return &cfg, nil
}

func scanExpense(row scanner) (core.ExpenseRecord, error) {
	var rec core.ExpenseRecord
	var date string
	err := row.Scan(&rec.ID, &date, &rec.Category, &rec.Amount.Cents,
		&rec.Description, &rec.FromSavings.Cents)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	rec.Date = d
	return rec, nil
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
