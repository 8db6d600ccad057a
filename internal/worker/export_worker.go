// Package worker runs the export pipeline: it consumes ledger events
// and mirrors recorded transactions (and budget snapshots) to an
// external destination. It only reads the ledger; the export_log table
// is its bookkeeping.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"envelope/internal/events"
	"envelope/internal/export"
	"envelope/internal/storage"
)

type ExportWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.TransactionWriter
	summaries export.SummaryWriter
	batchSize int64
}

func NewExportWorker(storage *storage.SQLiteRepository, writer export.TransactionWriter, summaries export.SummaryWriter, batchSize int64) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		writer:    writer,
		summaries: summaries,
		batchSize: batchSize,
	}
}

// HandleEvent processes one ledger event from the queue.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *events.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"event_id", event.EventID, "kind", event.Kind)

	switch event.Kind {
	case events.KindTransactionRecorded:
		return w.exportTransaction(ctx, event.TransactionID)
	case events.KindTransferRecorded:
		if err := w.exportTransaction(ctx, event.TransactionID); err != nil {
			return err
		}
		return w.exportTransaction(ctx, event.PairTransactionID)
	case events.KindCategoryFunded:
		return w.exportSummarySnapshot(ctx)
	default:
		slog.WarnContext(ctx, "Unknown event kind, dropping",
			"event_id", event.EventID, "kind", event.Kind)
		return nil
	}
}

// ProcessPendingTransactions exports rows the event pipeline missed.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.storage.ListUnexportedTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing unexported transactions", "count", len(pending))

	for _, t := range pending {
		if err := w.exportTransaction(ctx, t.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", t.ID, "error", err)
		}
	}
	return nil
}

// Run consumes events and scans for missed rows until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, client *events.Client, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.Consume(ctx, w.HandleEvent)
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPendingTransactions(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic export scan failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id int64) error {
	t, err := w.storage.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction for export: %w", err)
	}

	ref, err := w.writer.AppendTransaction(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append transaction: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		// The export itself worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction exported", "id", id, "ref", ref)
	return nil
}

func (w *ExportWorker) exportSummarySnapshot(ctx context.Context) error {
	if w.summaries == nil {
		return nil
	}

	summaries, err := w.storage.ListCategorySummaries(ctx)
	if err != nil {
		return fmt.Errorf("load summaries for export: %w", err)
	}

	if err := w.summaries.AppendSummaries(ctx, time.Now(), summaries); err != nil {
		return fmt.Errorf("append summaries: %w", err)
	}

	slog.InfoContext(ctx, "Budget snapshot exported", "categories", len(summaries))
	return nil
}
