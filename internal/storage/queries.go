package storage

import (
	"context"
	"database/sql"

	"envelope/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same query set
// runs standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createAccount = `
INSERT INTO accounts (name, account_type) VALUES (?, ?)
`

func (q *Queries) CreateAccount(ctx context.Context, name string, accountType core.AccountType) (int64, error) {
	res, err := q.db.ExecContext(ctx, createAccount, name, string(accountType))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getAccount = `
SELECT id, name, account_type FROM accounts WHERE id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var (
		a    core.Account
		name sql.NullString
	)
	err := q.db.QueryRowContext(ctx, getAccount, id).Scan(&a.ID, &name, &a.Type)
	a.Name = name.String
	return a, err
}

const listAccounts = `
SELECT id, name, account_type FROM accounts ORDER BY name
`

func (q *Queries) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var (
			a    core.Account
			name sql.NullString
		)
		if err := rows.Scan(&a.ID, &name, &a.Type); err != nil {
			return nil, err
		}
		a.Name = name.String
		out = append(out, a)
	}
	return out, rows.Err()
}

const createBudgetCategory = `
INSERT INTO budget_categories (name) VALUES (?)
`

func (q *Queries) CreateBudgetCategory(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, createBudgetCategory, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getBudgetCategory = `
SELECT id, name FROM budget_categories WHERE id = ?
`

func (q *Queries) GetBudgetCategory(ctx context.Context, id int64) (core.BudgetCategory, error) {
	var (
		c    core.BudgetCategory
		name sql.NullString
	)
	err := q.db.QueryRowContext(ctx, getBudgetCategory, id).Scan(&c.ID, &name)
	c.Name = name.String
	return c, err
}

const listBudgetCategories = `
SELECT id, name FROM budget_categories ORDER BY name
`

func (q *Queries) ListBudgetCategories(ctx context.Context) ([]core.BudgetCategory, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.BudgetCategory
	for rows.Next() {
		var (
			c    core.BudgetCategory
			name sql.NullString
		)
		if err := rows.Scan(&c.ID, &name); err != nil {
			return nil, err
		}
		c.Name = name.String
		out = append(out, c)
	}
	return out, rows.Err()
}

const createSpendingCategory = `
INSERT INTO spending_categories (name, parent_category_id) VALUES (?, ?)
`

func (q *Queries) CreateSpendingCategory(ctx context.Context, name string, parentCategoryID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, createSpendingCategory, name, parentCategoryID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getSpendingCategory = `
SELECT id, parent_category_id, name FROM spending_categories WHERE id = ?
`

func (q *Queries) GetSpendingCategory(ctx context.Context, id int64) (core.SpendingCategory, error) {
	var (
		c    core.SpendingCategory
		name sql.NullString
	)
	err := q.db.QueryRowContext(ctx, getSpendingCategory, id).Scan(&c.ID, &c.ParentCategoryID, &name)
	c.Name = name.String
	return c, err
}

const listSpendingCategoriesByParent = `
SELECT id, parent_category_id, name FROM spending_categories WHERE parent_category_id = ? ORDER BY name
`

func (q *Queries) ListSpendingCategoriesByParent(ctx context.Context, parentCategoryID int64) ([]core.SpendingCategory, error) {
	rows, err := q.db.QueryContext(ctx, listSpendingCategoriesByParent, parentCategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.SpendingCategory
	for rows.Next() {
		var (
			c    core.SpendingCategory
			name sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.ParentCategoryID, &name); err != nil {
			return nil, err
		}
		c.Name = name.String
		out = append(out, c)
	}
	return out, rows.Err()
}

const createFundingEntry = `
INSERT INTO funding_entries (budget_category_id, amount, date, notes) VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateFundingEntry(ctx context.Context, e core.FundingEntry) (int64, error) {
	res, err := q.db.ExecContext(ctx, createFundingEntry,
		e.BudgetCategoryID, e.Amount.Cents, e.Date.Unix(), nullString(e.Notes))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const createTransaction = `
INSERT INTO transactions (amount, date, transaction_type, account_id, merchant, description, notes, budget_category_id, spending_category_id, transfer_account_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		t.Amount.Cents, t.Date.Unix(), string(t.Type), t.AccountID,
		nullString(t.Merchant), nullString(t.Description), nullString(t.Notes),
		nullID(t.BudgetCategoryID), nullID(t.SpendingCategoryID), nullID(t.TransferAccountID))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const transactionColumns = `id, amount, date, transaction_type, account_id, merchant, description, notes, budget_category_id, spending_category_id, transfer_account_id`

const getTransaction = `
SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

// Date-ascending with id as the tiebreaker, so same-day rows keep
// insertion order.
const listTransactions = `
SELECT ` + transactionColumns + ` FROM transactions ORDER BY date, id
`

const listTransactionsByAccount = `
SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = ? ORDER BY date, id
`

func (q *Queries) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const sumAccountTransactions = `
SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = ?
`

func (q *Queries) SumAccountTransactions(ctx context.Context, accountID int64) (int64, error) {
	var sum int64
	err := q.db.QueryRowContext(ctx, sumAccountTransactions, accountID).Scan(&sum)
	return sum, err
}

// Transfers move funds between accounts and never consume envelope
// budget, so spent excludes Transfer-typed rows.
const categoryTotals = `
SELECT
    COALESCE((SELECT SUM(f.amount) FROM funding_entries f WHERE f.budget_category_id = b.id), 0) AS funded,
    COALESCE((SELECT SUM(ABS(t.amount)) FROM transactions t WHERE t.budget_category_id = b.id AND t.transaction_type != 'Transfer'), 0) AS spent
FROM budget_categories b WHERE b.id = ?
`

func (q *Queries) CategoryTotals(ctx context.Context, budgetCategoryID int64) (funded, spent int64, err error) {
	err = q.db.QueryRowContext(ctx, categoryTotals, budgetCategoryID).Scan(&funded, &spent)
	return funded, spent, err
}

const listCategorySummaries = `
SELECT b.id, b.name,
    COALESCE((SELECT SUM(f.amount) FROM funding_entries f WHERE f.budget_category_id = b.id), 0) AS funded,
    COALESCE((SELECT SUM(ABS(t.amount)) FROM transactions t WHERE t.budget_category_id = b.id AND t.transaction_type != 'Transfer'), 0) AS spent
FROM budget_categories b
ORDER BY b.name
`

func (q *Queries) ListCategorySummaries(ctx context.Context) ([]core.CategorySummary, error) {
	rows, err := q.db.QueryContext(ctx, listCategorySummaries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.CategorySummary
	for rows.Next() {
		var (
			s    core.CategorySummary
			name sql.NullString
		)
		if err := rows.Scan(&s.BudgetCategoryID, &name, &s.Funded.Cents, &s.Spent.Cents); err != nil {
			return nil, err
		}
		s.Name = name.String
		s.Remaining = core.Money{Cents: s.Funded.Cents - s.Spent.Cents}
		out = append(out, s)
	}
	return out, rows.Err()
}

const listUnexportedTransactions = `
SELECT ` + transactionColumns + ` FROM transactions
WHERE id NOT IN (SELECT transaction_id FROM export_log WHERE status = 'exported')
ORDER BY id
LIMIT ?
`

func (q *Queries) ListUnexportedTransactions(ctx context.Context, limit int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listUnexportedTransactions, limit)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const upsertExportStatus = `
INSERT INTO export_log (transaction_id, status, updated_at)
VALUES (?, ?, strftime('%s', 'now'))
ON CONFLICT (transaction_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
`

func (q *Queries) SetExportStatus(ctx context.Context, transactionID int64, status string) error {
	_, err := q.db.ExecContext(ctx, upsertExportStatus, transactionID, status)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                                core.Transaction
		date                             int64
		merchant, description, notes     sql.NullString
		budgetID, spendingID, transferID sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Amount.Cents, &date, &t.Type, &t.AccountID,
		&merchant, &description, &notes, &budgetID, &spendingID, &transferID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = core.DateFromUnix(date)
	t.Merchant = merchant.String
	t.Description = description.String
	t.Notes = notes.String
	t.BudgetCategoryID = budgetID.Int64
	t.SpendingCategoryID = spendingID.Int64
	t.TransferAccountID = transferID.Int64
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
