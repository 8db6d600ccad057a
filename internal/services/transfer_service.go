package services

import (
	"context"
	"fmt"

	"envelope/internal/core"
	"envelope/internal/events"
	"envelope/internal/storage"
)

// TransferService moves value between two accounts as a matched pair of
// Transfer-typed rows: equal magnitude, opposite sign, same date, each
// row pointing at the other's account. Transfers never consume envelope
// budget.
type TransferService struct {
	storage *storage.SQLiteRepository
	events  *events.Client
	cache   SummaryCache
}

func NewTransferService(storage *storage.SQLiteRepository, events *events.Client, cache SummaryCache) *TransferService {
	return &TransferService{
		storage: storage,
		events:  events,
		cache:   cache,
	}
}

type AddTransferRequest struct {
	FromAccountID      int64
	ToAccountID        int64
	AmountCents        int64
	Date               core.Date
	Merchant           string
	Description        string
	Notes              string
	BudgetCategoryID   int64
	SpendingCategoryID int64
}

// AddTransfer creates both rows of the pair inside a single store
// transaction: either both exist afterwards or neither does.
func (s *TransferService) AddTransfer(ctx context.Context, req AddTransferRequest) (int64, int64, error) {
	if req.FromAccountID == req.ToAccountID {
		return 0, 0, core.ErrSameAccountTransfer
	}
	if req.AmountCents <= 0 {
		return 0, 0, core.ErrInvalidAmount
	}
	if err := req.Date.Validate(); err != nil {
		return 0, 0, err
	}
	if _, err := s.storage.GetAccount(ctx, req.FromAccountID); err != nil {
		return 0, 0, err
	}
	if _, err := s.storage.GetAccount(ctx, req.ToAccountID); err != nil {
		return 0, 0, err
	}
	if err := validateCategoryLink(ctx, s.storage, req.BudgetCategoryID, req.SpendingCategoryID); err != nil {
		return 0, 0, err
	}

	out := core.Transaction{
		Amount:             core.Money{Cents: -req.AmountCents},
		Date:               req.Date,
		Type:               core.Transfer,
		AccountID:          req.FromAccountID,
		Merchant:           req.Merchant,
		Description:        req.Description,
		Notes:              req.Notes,
		BudgetCategoryID:   req.BudgetCategoryID,
		SpendingCategoryID: req.SpendingCategoryID,
		TransferAccountID:  req.ToAccountID,
	}
	in := out
	in.Amount = core.Money{Cents: req.AmountCents}
	in.AccountID = req.ToAccountID
	in.TransferAccountID = req.FromAccountID

	outID, inID, err := s.storage.AppendTransferPair(ctx, out, in)
	if err != nil {
		return 0, 0, fmt.Errorf("add transfer: %w", err)
	}

	invalidateSummaries(s.cache)
	publishEvent(ctx, s.events, events.NewTransferRecorded(outID, inID))
	return outID, inID, nil
}
