package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"envelope/internal/core"

	_ "modernc.org/sqlite"
)

// Export statuses recorded in export_log. Transaction rows themselves
// are never updated; export bookkeeping lives in its own table.
const (
	ExportStatusExported = "exported"
	ExportStatusError    = "error"
)

// SQLiteRepository is the single durable store for the ledger. The
// connection is opened once at startup and held for the life of the
// process.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens (or creates) the database at dbPath, runs
// migrations and returns a ready repository. First use seeds the
// default accounts, categories and starting-balance transactions;
// subsequent opens are no-ops. Failures are classified as
// core.ErrStoreUnavailable and must abort startup.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: create db directory: %v", core.ErrStoreUnavailable, err)
	}

	// The pragma goes in the DSN so every pooled connection enforces
	// foreign keys, not just the first one.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %v", core.ErrStoreUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", core.ErrStoreUnavailable, err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: run migrations: %v", core.ErrStoreUnavailable, err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, name string, accountType core.AccountType) (int64, error) {
	id, err := r.queries.CreateAccount(ctx, name, accountType)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", id, "name", name, "account_type", accountType)
	return id, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := r.queries.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrUnknownAccount)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	accounts, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *SQLiteRepository) CreateBudgetCategory(ctx context.Context, name string) (int64, error) {
	id, err := r.queries.CreateBudgetCategory(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create budget category: %w", err)
	}

	slog.InfoContext(ctx, "Budget category created", "id", id, "name", name)
	return id, nil
}

func (r *SQLiteRepository) GetBudgetCategory(ctx context.Context, id int64) (core.BudgetCategory, error) {
	c, err := r.queries.GetBudgetCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetCategory{}, fmt.Errorf("budget category %d: %w", id, core.ErrUnknownBudgetCategory)
	}
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("get budget category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListBudgetCategories(ctx context.Context) ([]core.BudgetCategory, error) {
	categories, err := r.queries.ListBudgetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budget categories: %w", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) CreateSpendingCategory(ctx context.Context, name string, parentCategoryID int64) (int64, error) {
	id, err := r.queries.CreateSpendingCategory(ctx, name, parentCategoryID)
	if err != nil {
		return 0, fmt.Errorf("create spending category: %w", err)
	}

	slog.InfoContext(ctx, "Spending category created",
		"id", id, "name", name, "parent_category_id", parentCategoryID)
	return id, nil
}

func (r *SQLiteRepository) GetSpendingCategory(ctx context.Context, id int64) (core.SpendingCategory, error) {
	c, err := r.queries.GetSpendingCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SpendingCategory{}, fmt.Errorf("spending category %d: %w", id, core.ErrUnknownSpendingCategory)
	}
	if err != nil {
		return core.SpendingCategory{}, fmt.Errorf("get spending category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListSpendingCategoriesByParent(ctx context.Context, parentCategoryID int64) ([]core.SpendingCategory, error) {
	categories, err := r.queries.ListSpendingCategoriesByParent(ctx, parentCategoryID)
	if err != nil {
		return nil, fmt.Errorf("list spending categories: %w", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) CreateFundingEntry(ctx context.Context, e core.FundingEntry) (int64, error) {
	id, err := r.queries.CreateFundingEntry(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("create funding entry: %w", err)
	}

	slog.InfoContext(ctx, "Funding entry created",
		"id", id, "budget_category_id", e.BudgetCategoryID, "amount_cents", e.Amount.Cents)
	return id, nil
}

// AppendTransaction writes one ledger row. The amount is expected to be
// signed already.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := r.queries.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"account_id", t.AccountID,
		"amount_cents", t.Amount.Cents,
		"transaction_type", t.Type)
	return id, nil
}

// AppendTransferPair writes both rows of a transfer inside a single SQL
// transaction: either both rows exist afterwards or neither does.
func (r *SQLiteRepository) AppendTransferPair(ctx context.Context, out, in core.Transaction) (int64, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	outID, err := qtx.CreateTransaction(ctx, out)
	if err != nil {
		return 0, 0, fmt.Errorf("create outgoing transfer row: %w", err)
	}

	inID, err := qtx.CreateTransaction(ctx, in)
	if err != nil {
		return 0, 0, fmt.Errorf("create incoming transfer row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer pair saved",
		"out_id", outID, "in_id", inID,
		"from_account_id", out.AccountID, "to_account_id", in.AccountID,
		"amount_cents", in.Amount.Cents)
	return outID, inID, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns rows ordered ascending by date, then by id
// for same-day ties. accountID 0 means all accounts.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	var (
		transactions []core.Transaction
		err          error
	)
	if accountID == 0 {
		transactions, err = r.queries.ListTransactions(ctx)
	} else {
		transactions, err = r.queries.ListTransactionsByAccount(ctx, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

// SumAccountTransactions folds the signed amounts of every row
// referencing the account; order-independent by construction.
func (r *SQLiteRepository) SumAccountTransactions(ctx context.Context, accountID int64) (int64, error) {
	sum, err := r.queries.SumAccountTransactions(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("sum account transactions: %w", err)
	}
	return sum, nil
}

func (r *SQLiteRepository) CategoryTotals(ctx context.Context, budgetCategoryID int64) (funded, spent int64, err error) {
	funded, spent, err = r.queries.CategoryTotals(ctx, budgetCategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("budget category %d: %w", budgetCategoryID, core.ErrUnknownBudgetCategory)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("category totals: %w", err)
	}
	return funded, spent, nil
}

func (r *SQLiteRepository) ListCategorySummaries(ctx context.Context) ([]core.CategorySummary, error) {
	summaries, err := r.queries.ListCategorySummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list category summaries: %w", err)
	}
	return summaries, nil
}

// ListUnexportedTransactions returns rows not yet marked exported, for
// the worker's backup scan.
func (r *SQLiteRepository) ListUnexportedTransactions(ctx context.Context, limit int64) ([]core.Transaction, error) {
	transactions, err := r.queries.ListUnexportedTransactions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported transactions: %w", err)
	}
	return transactions, nil
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, transactionID int64) error {
	if err := r.queries.SetExportStatus(ctx, transactionID, ExportStatusExported); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, transactionID int64) error {
	if err := r.queries.SetExportStatus(ctx, transactionID, ExportStatusError); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", transactionID)
	return nil
}
