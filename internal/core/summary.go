package core

// CategorySummary is the per-envelope aggregate a presentation layer
// renders as a category table: funded minus spent, transfers excluded
// from spent.
type CategorySummary struct {
	BudgetCategoryID int64
	Name             string
	Funded           Money
	Spent            Money
	Remaining        Money
}
