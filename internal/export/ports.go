package export

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordAppender appends a journal entry to the export target.
	RecordAppender interface {
		Append(ctx context.Context, rec core.ExpenseRecord) (rowRef string, err error)
	}
)
