package services

import (
	"context"
	"fmt"

	"envelope/internal/core"
	"envelope/internal/events"
	"envelope/internal/storage"
)

// BudgetService assigns money into envelopes and computes the
// funded-vs-spent view per envelope.
type BudgetService struct {
	storage *storage.SQLiteRepository
	events  *events.Client
	cache   SummaryCache
}

func NewBudgetService(storage *storage.SQLiteRepository, events *events.Client, cache SummaryCache) *BudgetService {
	return &BudgetService{
		storage: storage,
		events:  events,
		cache:   cache,
	}
}

// FundCategory appends a funding entry resolved to one envelope. The
// amount must be positive.
func (s *BudgetService) FundCategory(ctx context.Context, budgetCategoryID int64, amount core.Money, date core.Date, notes string) (int64, error) {
	if err := amount.Validate(); err != nil {
		return 0, err
	}
	if err := date.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.storage.GetBudgetCategory(ctx, budgetCategoryID); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateFundingEntry(ctx, core.FundingEntry{
		BudgetCategoryID: budgetCategoryID,
		Amount:           amount,
		Date:             date,
		Notes:            notes,
	})
	if err != nil {
		return 0, fmt.Errorf("fund category: %w", err)
	}

	invalidateSummaries(s.cache)
	publishEvent(ctx, s.events, events.NewCategoryFunded(id, budgetCategoryID))
	return id, nil
}

// RemainingForCategory returns funded minus spent for the envelope,
// with Transfer-typed rows excluded from spent. An envelope that was
// never funded or spent against yields 0, not an error.
func (s *BudgetService) RemainingForCategory(ctx context.Context, budgetCategoryID int64) (int64, error) {
	funded, spent, err := s.storage.CategoryTotals(ctx, budgetCategoryID)
	if err != nil {
		return 0, err
	}
	return funded - spent, nil
}

// ListCategorySummaries returns the per-envelope aggregate view ordered
// by name. Results are cached until the next ledger write.
func (s *BudgetService) ListCategorySummaries(ctx context.Context) ([]core.CategorySummary, error) {
	if s.cache != nil {
		if summaries, ok := s.cache.Get(summariesCacheKey); ok {
			return summaries, nil
		}
	}

	summaries, err := s.storage.ListCategorySummaries(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(summariesCacheKey, summaries)
	}
	return summaries, nil
}
