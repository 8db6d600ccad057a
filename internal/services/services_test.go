package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"envelope/internal/cache"
	"envelope/internal/core"
	"envelope/internal/storage"
)

// Seeded account ids and balances from the initial migration.
const (
	seedCheckingID      = int64(1)
	seedSavingsID       = int64(2)
	seedCheckingBalance = int64(10000)
	seedSavingsBalance  = int64(50000)
)

type testEnv struct {
	store    *storage.SQLiteRepository
	ledger   *LedgerService
	budget   *BudgetService
	transfer *TransferService
	category *CategoryService
	cache    *cache.LRUCache[[]core.CategorySummary]
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	summaryCache := cache.NewLRUCache[[]core.CategorySummary](4, time.Minute)
	return &testEnv{
		store:    store,
		ledger:   NewLedgerService(store, nil, summaryCache),
		budget:   NewBudgetService(store, nil, summaryCache),
		transfer: NewTransferService(store, nil, summaryCache),
		category: NewCategoryService(store),
		cache:    summaryCache,
	}
}

func TestAddTransaction_DebitReducesBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.ledger.AddTransaction(ctx, AddTransactionRequest{
		AccountID:   seedCheckingID,
		AmountCents: 2000,
		Date:        core.NewDate(2024, 5, 10),
		Type:        core.Debit,
		Merchant:    "Coffee Shop",
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if id == 0 {
		t.Fatal("AddTransaction() returned id 0")
	}

	balance, err := env.ledger.AccountBalance(ctx, seedCheckingID)
	if err != nil {
		t.Fatalf("AccountBalance() error = %v", err)
	}
	if balance != seedCheckingBalance-2000 {
		t.Errorf("balance = %d, want %d", balance, seedCheckingBalance-2000)
	}

	transactions, err := env.ledger.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(transactions) != 3 {
		t.Fatalf("ListTransactions() returned %d rows, want 3 (2 seeds + 1)", len(transactions))
	}

	// The debit was stored negative even though the caller passed a
	// positive magnitude.
	got, err := env.store.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Amount.Cents != -2000 {
		t.Errorf("stored amount = %d, want -2000", got.Amount.Cents)
	}
}

func TestAddTransaction_CreditStoredPositive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.ledger.AddTransaction(ctx, AddTransactionRequest{
		AccountID:   seedCheckingID,
		AmountCents: -500, // sign is normalized by type
		Date:        core.NewDate(2024, 5, 10),
		Type:        core.Credit,
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	got, err := env.store.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Amount.Cents != 500 {
		t.Errorf("stored amount = %d, want 500", got.Amount.Cents)
	}
}

func TestAddTransaction_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	valid := AddTransactionRequest{
		AccountID:   seedCheckingID,
		AmountCents: 1000,
		Date:        core.NewDate(2024, 5, 10),
		Type:        core.Debit,
	}

	tests := []struct {
		name    string
		mutate  func(*AddTransactionRequest)
		wantErr error
	}{
		{
			name:    "invalid type",
			mutate:  func(r *AddTransactionRequest) { r.Type = "Withdrawal" },
			wantErr: core.ErrInvalidTransactionType,
		},
		{
			name:    "zero amount",
			mutate:  func(r *AddTransactionRequest) { r.AmountCents = 0 },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "zero date",
			mutate:  func(r *AddTransactionRequest) { r.Date = core.Date{} },
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "unknown account",
			mutate:  func(r *AddTransactionRequest) { r.AccountID = 999 },
			wantErr: core.ErrUnknownAccount,
		},
		{
			name:    "unknown budget category",
			mutate:  func(r *AddTransactionRequest) { r.BudgetCategoryID = 999 },
			wantErr: core.ErrUnknownBudgetCategory,
		},
		{
			name:    "unknown spending category",
			mutate:  func(r *AddTransactionRequest) { r.SpendingCategoryID = 999 },
			wantErr: core.ErrUnknownSpendingCategory,
		},
		{
			name: "spending category under wrong envelope",
			mutate: func(r *AddTransactionRequest) {
				// Seeded: spending category 1 belongs to budget category 1.
				r.BudgetCategoryID = 2
				r.SpendingCategoryID = 1
			},
			wantErr: core.ErrInvalidCategoryLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			before, err := env.ledger.ListTransactions(ctx, 0)
			if err != nil {
				t.Fatalf("ListTransactions() error = %v", err)
			}

			if _, err := env.ledger.AddTransaction(ctx, req); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddTransaction() error = %v, want %v", err, tt.wantErr)
			}

			after, err := env.ledger.ListTransactions(ctx, 0)
			if err != nil {
				t.Fatalf("ListTransactions() error = %v", err)
			}
			if len(after) != len(before) {
				t.Errorf("rejected write changed the log: %d -> %d rows", len(before), len(after))
			}
		})
	}
}

func TestListTransactions_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.ledger.ListTransactions(context.Background(), 999); !errors.Is(err, core.ErrUnknownAccount) {
		t.Errorf("ListTransactions(999) error = %v, want ErrUnknownAccount", err)
	}
}

func TestAddAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.ledger.AddAccount(ctx, "Wallet", core.Cash)
	if err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}

	balance, err := env.ledger.AccountBalance(ctx, id)
	if err != nil {
		t.Fatalf("AccountBalance() error = %v", err)
	}
	if balance != 0 {
		t.Errorf("new account balance = %d, want 0", balance)
	}

	if _, err := env.ledger.AddAccount(ctx, "", core.Cash); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("AddAccount(empty name) error = %v, want ErrEmptyName", err)
	}
	if _, err := env.ledger.AddAccount(ctx, "Broker", "Brokerage"); !errors.Is(err, core.ErrInvalidAccountType) {
		t.Errorf("AddAccount(bad type) error = %v, want ErrInvalidAccountType", err)
	}
}

func TestAddTransfer_ConservesTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	outID, inID, err := env.transfer.AddTransfer(ctx, AddTransferRequest{
		FromAccountID: seedCheckingID,
		ToAccountID:   seedSavingsID,
		AmountCents:   1500,
		Date:          core.NewDate(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("AddTransfer() error = %v", err)
	}

	from, err := env.ledger.AccountBalance(ctx, seedCheckingID)
	if err != nil {
		t.Fatalf("AccountBalance(from) error = %v", err)
	}
	to, err := env.ledger.AccountBalance(ctx, seedSavingsID)
	if err != nil {
		t.Fatalf("AccountBalance(to) error = %v", err)
	}

	if from != seedCheckingBalance-1500 {
		t.Errorf("source balance = %d, want %d", from, seedCheckingBalance-1500)
	}
	if to != seedSavingsBalance+1500 {
		t.Errorf("destination balance = %d, want %d", to, seedSavingsBalance+1500)
	}
	if from+to != seedCheckingBalance+seedSavingsBalance {
		t.Errorf("total across accounts = %d, want %d", from+to, seedCheckingBalance+seedSavingsBalance)
	}

	// Both rows are Transfer-typed and point at each other's account.
	outRow, err := env.store.GetTransaction(ctx, outID)
	if err != nil {
		t.Fatalf("GetTransaction(out) error = %v", err)
	}
	inRow, err := env.store.GetTransaction(ctx, inID)
	if err != nil {
		t.Fatalf("GetTransaction(in) error = %v", err)
	}
	if outRow.Type != core.Transfer || inRow.Type != core.Transfer {
		t.Errorf("pair types = %s/%s, want Transfer/Transfer", outRow.Type, inRow.Type)
	}
	if outRow.Amount.Cents != -1500 || inRow.Amount.Cents != 1500 {
		t.Errorf("pair amounts = %d/%d, want -1500/1500", outRow.Amount.Cents, inRow.Amount.Cents)
	}
	if outRow.TransferAccountID != seedSavingsID || inRow.TransferAccountID != seedCheckingID {
		t.Errorf("pair transfer accounts = %d/%d", outRow.TransferAccountID, inRow.TransferAccountID)
	}
	if !outRow.Date.Equal(inRow.Date.Time) {
		t.Errorf("pair dates differ: %v vs %v", outRow.Date, inRow.Date)
	}
}

func TestAddTransfer_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     AddTransferRequest
		wantErr error
	}{
		{
			name: "same account",
			req: AddTransferRequest{
				FromAccountID: seedCheckingID, ToAccountID: seedCheckingID,
				AmountCents: 1000, Date: core.NewDate(2024, 6, 1),
			},
			wantErr: core.ErrSameAccountTransfer,
		},
		{
			name: "non-positive amount",
			req: AddTransferRequest{
				FromAccountID: seedCheckingID, ToAccountID: seedSavingsID,
				AmountCents: -1000, Date: core.NewDate(2024, 6, 1),
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "unknown source account",
			req: AddTransferRequest{
				FromAccountID: 999, ToAccountID: seedSavingsID,
				AmountCents: 1000, Date: core.NewDate(2024, 6, 1),
			},
			wantErr: core.ErrUnknownAccount,
		},
		{
			name: "unknown destination account",
			req: AddTransferRequest{
				FromAccountID: seedCheckingID, ToAccountID: 999,
				AmountCents: 1000, Date: core.NewDate(2024, 6, 1),
			},
			wantErr: core.ErrUnknownAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := env.transfer.AddTransfer(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddTransfer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFundCategory_And_Remaining(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	catID, err := env.category.AddBudgetCategory(ctx, "Groceries")
	if err != nil {
		t.Fatalf("AddBudgetCategory() error = %v", err)
	}

	if _, err := env.budget.FundCategory(ctx, catID, core.Money{Cents: 30000}, core.NewDate(2024, 5, 1), "may budget"); err != nil {
		t.Fatalf("FundCategory() error = %v", err)
	}

	if _, err := env.ledger.AddTransaction(ctx, AddTransactionRequest{
		AccountID:        seedCheckingID,
		AmountCents:      4500,
		Date:             core.NewDate(2024, 5, 2),
		Type:             core.Debit,
		BudgetCategoryID: catID,
	}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	remaining, err := env.budget.RemainingForCategory(ctx, catID)
	if err != nil {
		t.Fatalf("RemainingForCategory() error = %v", err)
	}
	if remaining != 25500 {
		t.Errorf("remaining = %d, want 25500", remaining)
	}

	// Second funding entry accumulates.
	if _, err := env.budget.FundCategory(ctx, catID, core.Money{Cents: 10000}, core.NewDate(2024, 6, 1), ""); err != nil {
		t.Fatalf("FundCategory() second error = %v", err)
	}
	remaining, err = env.budget.RemainingForCategory(ctx, catID)
	if err != nil {
		t.Fatalf("RemainingForCategory() error = %v", err)
	}
	if remaining != 35500 {
		t.Errorf("remaining after second funding = %d, want 35500", remaining)
	}
}

func TestFundCategory_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.budget.FundCategory(ctx, 1, core.Money{Cents: 0}, core.NewDate(2024, 5, 1), ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("FundCategory(zero) error = %v, want ErrInvalidAmount", err)
	}
	if _, err := env.budget.FundCategory(ctx, 1, core.Money{Cents: -100}, core.NewDate(2024, 5, 1), ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("FundCategory(negative) error = %v, want ErrInvalidAmount", err)
	}
	if _, err := env.budget.FundCategory(ctx, 999, core.Money{Cents: 100}, core.NewDate(2024, 5, 1), ""); !errors.Is(err, core.ErrUnknownBudgetCategory) {
		t.Errorf("FundCategory(unknown) error = %v, want ErrUnknownBudgetCategory", err)
	}
}

func TestRemainingForCategory_NeverFunded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	catID, err := env.category.AddBudgetCategory(ctx, "Vacation")
	if err != nil {
		t.Fatalf("AddBudgetCategory() error = %v", err)
	}

	remaining, err := env.budget.RemainingForCategory(ctx, catID)
	if err != nil {
		t.Fatalf("RemainingForCategory() error = %v", err)
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0 for untouched envelope", remaining)
	}
}

func TestListCategorySummaries_InvalidatedOnWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	catID, err := env.category.AddBudgetCategory(ctx, "Groceries")
	if err != nil {
		t.Fatalf("AddBudgetCategory() error = %v", err)
	}
	if _, err := env.budget.FundCategory(ctx, catID, core.Money{Cents: 20000}, core.NewDate(2024, 5, 1), ""); err != nil {
		t.Fatalf("FundCategory() error = %v", err)
	}

	summaries, err := env.budget.ListCategorySummaries(ctx)
	if err != nil {
		t.Fatalf("ListCategorySummaries() error = %v", err)
	}

	var groceries *core.CategorySummary
	for i := range summaries {
		if summaries[i].BudgetCategoryID == catID {
			groceries = &summaries[i]
		}
	}
	if groceries == nil {
		t.Fatal("Groceries missing from summaries")
	}
	if groceries.Funded.Cents != 20000 || groceries.Spent.Cents != 0 || groceries.Remaining.Cents != 20000 {
		t.Errorf("summary = %+v, want funded 20000, spent 0, remaining 20000", *groceries)
	}

	// A new transaction must be visible in the next summary read even
	// though the previous result was cached.
	if _, err := env.ledger.AddTransaction(ctx, AddTransactionRequest{
		AccountID:        seedCheckingID,
		AmountCents:      2500,
		Date:             core.NewDate(2024, 5, 2),
		Type:             core.Debit,
		BudgetCategoryID: catID,
	}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	summaries, err = env.budget.ListCategorySummaries(ctx)
	if err != nil {
		t.Fatalf("ListCategorySummaries() after write error = %v", err)
	}
	for _, s := range summaries {
		if s.BudgetCategoryID == catID {
			if s.Spent.Cents != 2500 || s.Remaining.Cents != 17500 {
				t.Errorf("summary after write = %+v, want spent 2500, remaining 17500", s)
			}
			return
		}
	}
	t.Fatal("Groceries missing from summaries after write")
}

func TestCategoryHierarchy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	budgetID, err := env.category.AddBudgetCategory(ctx, "Household")
	if err != nil {
		t.Fatalf("AddBudgetCategory() error = %v", err)
	}

	cleaningID, err := env.category.AddSpendingCategory(ctx, "Cleaning", budgetID)
	if err != nil {
		t.Fatalf("AddSpendingCategory() error = %v", err)
	}
	if _, err := env.category.AddSpendingCategory(ctx, "Repairs", budgetID); err != nil {
		t.Fatalf("AddSpendingCategory() error = %v", err)
	}

	spending, err := env.category.ListSpendingCategoriesFor(ctx, budgetID)
	if err != nil {
		t.Fatalf("ListSpendingCategoriesFor() error = %v", err)
	}
	if len(spending) != 2 {
		t.Fatalf("ListSpendingCategoriesFor() returned %d, want 2", len(spending))
	}
	// Ordered by name.
	if spending[0].Name != "Cleaning" || spending[1].Name != "Repairs" {
		t.Errorf("spending order = %s, %s, want Cleaning, Repairs", spending[0].Name, spending[1].Name)
	}
	if spending[0].ID != cleaningID || spending[0].ParentCategoryID != budgetID {
		t.Errorf("spending[0] = %+v", spending[0])
	}

	// A transaction may use the new pair.
	if _, err := env.ledger.AddTransaction(ctx, AddTransactionRequest{
		AccountID:          seedCheckingID,
		AmountCents:        800,
		Date:               core.NewDate(2024, 5, 3),
		Type:               core.Debit,
		BudgetCategoryID:   budgetID,
		SpendingCategoryID: cleaningID,
	}); err != nil {
		t.Fatalf("AddTransaction() with category pair error = %v", err)
	}
}

func TestAddSpendingCategory_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.category.AddSpendingCategory(ctx, "Orphan", 999); !errors.Is(err, core.ErrUnknownParentCategory) {
		t.Errorf("AddSpendingCategory(unknown parent) error = %v, want ErrUnknownParentCategory", err)
	}
	if _, err := env.category.AddSpendingCategory(ctx, "  ", 1); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("AddSpendingCategory(blank name) error = %v, want ErrEmptyName", err)
	}
	if _, err := env.category.AddBudgetCategory(ctx, ""); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("AddBudgetCategory(empty name) error = %v, want ErrEmptyName", err)
	}
}
