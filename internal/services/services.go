// Package services implements the ledger's command surface: append-only
// transaction recording, the category hierarchy, envelope budgeting and
// atomic transfers. A presentation layer calls these handlers with
// validated primitives and gets back results or typed core errors; it
// never issues raw queries.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"envelope/internal/cache"
	"envelope/internal/core"
	"envelope/internal/events"
	"envelope/internal/storage"
)

const summariesCacheKey = "category_summaries"

// SummaryCache memoizes the category summary view between writes.
type SummaryCache = cache.Cache[[]core.CategorySummary]

// validateCategoryLink enforces the hierarchy invariant: when both tags
// are present the spending category's parent must equal the budget
// category.
func validateCategoryLink(ctx context.Context, st *storage.SQLiteRepository, budgetCategoryID, spendingCategoryID int64) error {
	if budgetCategoryID != 0 {
		if _, err := st.GetBudgetCategory(ctx, budgetCategoryID); err != nil {
			return err
		}
	}
	if spendingCategoryID != 0 {
		sc, err := st.GetSpendingCategory(ctx, spendingCategoryID)
		if err != nil {
			return err
		}
		if budgetCategoryID != 0 && sc.ParentCategoryID != budgetCategoryID {
			return fmt.Errorf("spending category %d has parent %d, not %d: %w",
				spendingCategoryID, sc.ParentCategoryID, budgetCategoryID, core.ErrInvalidCategoryLink)
		}
	}
	return nil
}

// publishEvent is fire-and-forget: the write already succeeded, so a
// publish failure is logged and never surfaced to the caller.
func publishEvent(ctx context.Context, client *events.Client, event *events.LedgerEvent) {
	if client == nil {
		return
	}
	if err := client.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", event.Kind, "event_id", event.EventID, "error", err)
	}
}

func invalidateSummaries(c SummaryCache) {
	if c != nil {
		c.Delete(summariesCacheKey)
	}
}

// mapParentError translates a missing budget category into the
// parent-specific error the category operations report.
func mapParentError(err error, parentCategoryID int64) error {
	if errors.Is(err, core.ErrUnknownBudgetCategory) {
		return fmt.Errorf("parent category %d: %w", parentCategoryID, core.ErrUnknownParentCategory)
	}
	return err
}
