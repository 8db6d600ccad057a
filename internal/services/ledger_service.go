package services

import (
	"context"
	"fmt"

	"envelope/internal/core"
	"envelope/internal/events"
	"envelope/internal/storage"
)

// LedgerService records transactions and derives account balances from
// the append-only log.
type LedgerService struct {
	storage *storage.SQLiteRepository
	events  *events.Client
	cache   SummaryCache
}

func NewLedgerService(storage *storage.SQLiteRepository, events *events.Client, cache SummaryCache) *LedgerService {
	return &LedgerService{
		storage: storage,
		events:  events,
		cache:   cache,
	}
}

type AddTransactionRequest struct {
	AccountID          int64
	AmountCents        int64
	Date               core.Date
	Type               core.TransactionType
	Merchant           string
	Description        string
	Notes              string
	BudgetCategoryID   int64
	SpendingCategoryID int64
}

// AddTransaction validates the request and appends one ledger row. The
// amount is signed by convention before persisting: Credit positive,
// Debit negative, Transfer as provided. Nothing is written when
// validation fails.
func (s *LedgerService) AddTransaction(ctx context.Context, req AddTransactionRequest) (int64, error) {
	if !req.Type.Valid() {
		return 0, fmt.Errorf("transaction type %q: %w", req.Type, core.ErrInvalidTransactionType)
	}
	if req.AmountCents == 0 {
		return 0, core.ErrInvalidAmount
	}
	if err := req.Date.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.storage.GetAccount(ctx, req.AccountID); err != nil {
		return 0, err
	}
	if err := validateCategoryLink(ctx, s.storage, req.BudgetCategoryID, req.SpendingCategoryID); err != nil {
		return 0, err
	}

	id, err := s.storage.AppendTransaction(ctx, core.Transaction{
		Amount:             core.Money{Cents: core.Sign(req.Type, req.AmountCents)},
		Date:               req.Date,
		Type:               req.Type,
		AccountID:          req.AccountID,
		Merchant:           req.Merchant,
		Description:        req.Description,
		Notes:              req.Notes,
		BudgetCategoryID:   req.BudgetCategoryID,
		SpendingCategoryID: req.SpendingCategoryID,
	})
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}

	invalidateSummaries(s.cache)
	publishEvent(ctx, s.events, events.NewTransactionRecorded(id))
	return id, nil
}

// ListTransactions returns the log ordered ascending by date, stable by
// insertion order for same-day rows. accountID 0 lists all accounts.
func (s *LedgerService) ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	if accountID != 0 {
		if _, err := s.storage.GetAccount(ctx, accountID); err != nil {
			return nil, err
		}
	}
	return s.storage.ListTransactions(ctx, accountID)
}

// AccountBalance is the signed sum of every transaction referencing the
// account; insertion order never matters.
func (s *LedgerService) AccountBalance(ctx context.Context, accountID int64) (int64, error) {
	if _, err := s.storage.GetAccount(ctx, accountID); err != nil {
		return 0, err
	}
	return s.storage.SumAccountTransactions(ctx, accountID)
}

func (s *LedgerService) AddAccount(ctx context.Context, name string, accountType core.AccountType) (int64, error) {
	a := core.Account{Name: name, Type: accountType}
	if err := a.Validate(); err != nil {
		return 0, err
	}
	return s.storage.CreateAccount(ctx, name, accountType)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx)
}
