// Package export defines the outbound ports the export worker writes
// through. The ledger never depends on these; they observe it.
package export

import (
	"context"
	"time"

	"envelope/internal/core"
)

// TransactionWriter appends one recorded transaction to an external
// destination and returns a destination-specific row reference.
type TransactionWriter interface {
	AppendTransaction(ctx context.Context, t core.Transaction) (string, error)
}

// SummaryWriter appends a snapshot of the per-envelope summary view.
type SummaryWriter interface {
	AppendSummaries(ctx context.Context, asOf time.Time, summaries []core.CategorySummary) error
}
