package services

import (
	"context"
	"strings"

	"envelope/internal/core"
	"envelope/internal/storage"
)

// CategoryService manages the two-level hierarchy: budget envelopes and
// the spending categories beneath them. Rows are created once and never
// mutated.
type CategoryService struct {
	storage *storage.SQLiteRepository
}

func NewCategoryService(storage *storage.SQLiteRepository) *CategoryService {
	return &CategoryService{storage: storage}
}

func (s *CategoryService) AddBudgetCategory(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, core.ErrEmptyName
	}
	return s.storage.CreateBudgetCategory(ctx, name)
}

func (s *CategoryService) AddSpendingCategory(ctx context.Context, name string, parentCategoryID int64) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, core.ErrEmptyName
	}
	if _, err := s.storage.GetBudgetCategory(ctx, parentCategoryID); err != nil {
		return 0, mapParentError(err, parentCategoryID)
	}
	return s.storage.CreateSpendingCategory(ctx, name, parentCategoryID)
}

func (s *CategoryService) ListBudgetCategories(ctx context.Context) ([]core.BudgetCategory, error) {
	return s.storage.ListBudgetCategories(ctx)
}

// ListSpendingCategoriesFor returns the valid leaf choices for a
// transaction tagged with the given envelope, ordered by name. A caller
// presenting a transaction form must not offer spending categories
// outside this set.
func (s *CategoryService) ListSpendingCategoriesFor(ctx context.Context, budgetCategoryID int64) ([]core.SpendingCategory, error) {
	if _, err := s.storage.GetBudgetCategory(ctx, budgetCategoryID); err != nil {
		return nil, mapParentError(err, budgetCategoryID)
	}
	return s.storage.ListSpendingCategoriesByParent(ctx, budgetCategoryID)
}
