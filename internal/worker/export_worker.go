// Package worker moves committed journal entries into the export target. It
// is driven by journal events and backed by a periodic scan of the pending
// rows, so a lost message never leaves an entry behind.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/export"
	"bilancio/internal/storage"
)

type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  export.RecordAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, appender export.RecordAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleRecordedMessage exports the expense named by a recorded event.
func (w *ExportWorker) HandleRecordedMessage(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	slog.InfoContext(ctx, "Processing recorded event", "id", msg.ID)

	rec, err := w.storage.GetExpense(ctx, msg.ID)
	if errors.Is(err, core.ErrExpenseNotFound) {
		// Deleted before the worker got to it. Nothing to export.
		slog.WarnContext(ctx, "Expense gone before export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.exportRecord(ctx, rec); err != nil {
		return fmt.Errorf("export expense: %w", err)
	}
	return nil
}

// HandleDeletedMessage acknowledges a deleted event. Rows already appended to
// the spreadsheet are kept as history; the event only stops pending exports.
func (w *ExportWorker) HandleDeletedMessage(ctx context.Context, msg *amqp.ExpenseDeletedMessage) error {
	slog.InfoContext(ctx, "Processing deleted event", "id", msg.ID)
	return nil
}

// ProcessPendingExports exports entries that have no exported flag yet. This
// is the backup path for lost messages.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		rec, err := w.storage.GetExpense(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense", "id", p.ID, "error", err)
			if err := w.storage.MarkExportError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark export error", "id", p.ID, "error", err)
			}
			continue
		}
		if err := w.exportRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense", "id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupExportCheck drains pending entries accumulated while the worker was
// down, using a larger batch than the periodic scan.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportExpenses(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		rec, err := w.storage.GetExpense(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense for startup export",
				"id", p.ID, "error", err)
			if err := w.storage.MarkExportError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark export error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}
		if err := w.exportRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)
	return nil
}

func (w *ExportWorker) exportRecord(ctx context.Context, rec core.ExpenseRecord) error {
	ref, err := w.appender.Append(ctx, rec)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, rec.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", rec.ID, "error", markErr)
		}
		return fmt.Errorf("append to export target: %w", err)
	}

	if err := w.storage.MarkExported(ctx, rec.ID); err != nil {
		// The row is already appended; only the flag is stale.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", rec.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully exported expense",
		"id", rec.ID,
		"export_ref", ref,
		"category", rec.Category,
		"amount_cents", rec.Amount.Cents)
	return nil
}
