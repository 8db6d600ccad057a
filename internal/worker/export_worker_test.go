package worker

import (
	"context"
	"path/filepath"
	"testing"

	"envelope/internal/core"
	"envelope/internal/events"
	"envelope/internal/export/memory"
	"envelope/internal/storage"
)

func newTestWorker(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	memStore := memory.New()
	return NewExportWorker(repo, memStore, memStore, 10), repo, memStore
}

func TestProcessPendingTransactions(t *testing.T) {
	w, repo, memStore := newTestWorker(t)
	ctx := context.Background()

	// The two seed rows are pending on a fresh database.
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		t.Fatalf("ProcessPendingTransactions() error = %v", err)
	}
	if got := len(memStore.Transactions()); got != 2 {
		t.Fatalf("exported %d transactions, want 2", got)
	}

	pending, err := repo.ListUnexportedTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnexportedTransactions() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after scan = %d, want 0", len(pending))
	}

	// A second scan must not re-export anything.
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		t.Fatalf("ProcessPendingTransactions() second error = %v", err)
	}
	if got := len(memStore.Transactions()); got != 2 {
		t.Errorf("exported %d transactions after rescan, want 2", got)
	}
}

func TestProcessPendingTransactions_AppendFailure(t *testing.T) {
	w, repo, memStore := newTestWorker(t)
	ctx := context.Background()

	memStore.FailAppends(true)

	// Failures are logged per row; the scan itself succeeds and the rows
	// stay pending for the next pass.
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		t.Fatalf("ProcessPendingTransactions() error = %v", err)
	}
	if got := len(memStore.Transactions()); got != 0 {
		t.Fatalf("exported %d transactions, want 0 while appends fail", got)
	}

	pending, err := repo.ListUnexportedTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnexportedTransactions() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2 after failed appends", len(pending))
	}

	memStore.FailAppends(false)
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		t.Fatalf("ProcessPendingTransactions() retry error = %v", err)
	}
	if got := len(memStore.Transactions()); got != 2 {
		t.Errorf("exported %d transactions after retry, want 2", got)
	}
}

func TestHandleEvent_TransactionRecorded(t *testing.T) {
	w, repo, memStore := newTestWorker(t)
	ctx := context.Background()

	id, err := repo.AppendTransaction(ctx, core.Transaction{
		Amount:    core.Money{Cents: -700},
		Date:      core.NewDate(2024, 5, 1),
		Type:      core.Debit,
		AccountID: 1,
		Merchant:  "Bakery",
	})
	if err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}

	if err := w.HandleEvent(ctx, events.NewTransactionRecorded(id)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	exported := memStore.Transactions()
	if len(exported) != 1 {
		t.Fatalf("exported %d transactions, want 1", len(exported))
	}
	if exported[0].ID != id || exported[0].Merchant != "Bakery" {
		t.Errorf("exported row = %+v, want id %d merchant Bakery", exported[0], id)
	}
}

func TestHandleEvent_TransferRecorded(t *testing.T) {
	w, repo, memStore := newTestWorker(t)
	ctx := context.Background()

	out := core.Transaction{
		Amount: core.Money{Cents: -1200}, Date: core.NewDate(2024, 5, 1),
		Type: core.Transfer, AccountID: 1, TransferAccountID: 2,
	}
	in := out
	in.Amount = core.Money{Cents: 1200}
	in.AccountID = 2
	in.TransferAccountID = 1

	outID, inID, err := repo.AppendTransferPair(ctx, out, in)
	if err != nil {
		t.Fatalf("AppendTransferPair() error = %v", err)
	}

	if err := w.HandleEvent(ctx, events.NewTransferRecorded(outID, inID)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	if got := len(memStore.Transactions()); got != 2 {
		t.Errorf("exported %d transactions, want both transfer rows", got)
	}
}

func TestHandleEvent_CategoryFunded(t *testing.T) {
	w, repo, memStore := newTestWorker(t)
	ctx := context.Background()

	catID, err := repo.CreateBudgetCategory(ctx, "Groceries")
	if err != nil {
		t.Fatalf("CreateBudgetCategory() error = %v", err)
	}
	entryID, err := repo.CreateFundingEntry(ctx, core.FundingEntry{
		BudgetCategoryID: catID,
		Amount:           core.Money{Cents: 25000},
		Date:             core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("CreateFundingEntry() error = %v", err)
	}

	if err := w.HandleEvent(ctx, events.NewCategoryFunded(entryID, catID)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	snapshots := memStore.Snapshots()
	if len(snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snapshots))
	}
	var found bool
	for _, s := range snapshots[0].Summaries {
		if s.BudgetCategoryID == catID && s.Funded.Cents == 25000 {
			found = true
		}
	}
	if !found {
		t.Errorf("snapshot missing funded envelope: %+v", snapshots[0].Summaries)
	}
}

func TestHandleEvent_CategoryFunded_NoSummaryWriter(t *testing.T) {
	_, repo, memStore := newTestWorker(t)
	w := NewExportWorker(repo, memStore, nil, 10)

	if err := w.HandleEvent(context.Background(), events.NewCategoryFunded(1, 1)); err != nil {
		t.Errorf("HandleEvent() error = %v, want nil when no summary writer is configured", err)
	}
}

func TestHandleEvent_UnknownKind(t *testing.T) {
	w, _, memStore := newTestWorker(t)

	event := &events.LedgerEvent{EventID: "test", Kind: "something.else"}
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Errorf("HandleEvent(unknown kind) error = %v, want nil", err)
	}
	if got := len(memStore.Transactions()); got != 0 {
		t.Errorf("exported %d transactions for unknown kind, want 0", got)
	}
}
