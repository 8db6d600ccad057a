package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Cash       AccountType = "Cash"
	Checking   AccountType = "Checking"
	Savings    AccountType = "Savings"
	CreditCard AccountType = "CreditCard"
)

const (
	Debit    TransactionType = "Debit"
	Credit   TransactionType = "Credit"
	Transfer TransactionType = "Transfer"
)

type (
	AccountType     string
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID   int64
		Name string
		Type AccountType
	}

	// BudgetCategory is an envelope: a top-level bucket that receives
	// funding and is spent against.
	BudgetCategory struct {
		ID   int64
		Name string
	}

	// SpendingCategory is a leaf classification under exactly one envelope.
	SpendingCategory struct {
		ID               int64
		ParentCategoryID int64
		Name             string
	}

	// FundingEntry records money assigned into one envelope for a period.
	FundingEntry struct {
		ID               int64
		BudgetCategoryID int64
		Amount           Money
		Date             Date
		Notes            string
	}

	// Transaction is one row of the append-only ledger. Amount is signed
	// minor units; category and transfer fields are 0 when unset.
	Transaction struct {
		ID                 int64
		Amount             Money
		Date               Date
		Type               TransactionType
		AccountID          int64
		Merchant           string
		Description        string
		Notes              string
		BudgetCategoryID   int64
		SpendingCategoryID int64
		TransferAccountID  int64
	}
)

var (
	ErrStoreUnavailable        = errors.New("store unavailable")
	ErrUnknownAccount          = errors.New("unknown account")
	ErrUnknownBudgetCategory   = errors.New("unknown budget category")
	ErrUnknownParentCategory   = errors.New("unknown parent budget category")
	ErrUnknownSpendingCategory = errors.New("unknown spending category")
	ErrInvalidCategoryLink     = errors.New("spending category does not belong to budget category")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidTransactionType  = errors.New("invalid transaction type")
	ErrSameAccountTransfer     = errors.New("transfer accounts must differ")
	ErrInvalidAccountType      = errors.New("invalid account type")
	ErrEmptyName               = errors.New("empty name")
)

func (a AccountType) Valid() bool {
	switch a {
	case Cash, Checking, Savings, CreditCard:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Debit, Credit, Transfer:
		return true
	}
	return false
}

// Sign applies the write-time sign convention: Credit is stored
// positive, Debit negative, Transfer amounts as provided by the caller.
func Sign(t TransactionType, cents int64) int64 {
	switch t {
	case Credit:
		if cents < 0 {
			return -cents
		}
		return cents
	case Debit:
		if cents > 0 {
			return -cents
		}
		return cents
	default:
		return cents
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateFromUnix restores a Date persisted as epoch seconds.
func DateFromUnix(sec int64) Date {
	return Date{Time: time.Unix(sec, 0).UTC()}
}

var dateLayouts = []string{"2006-01-02", "01/02/2006"}

// ParseDate accepts ISO dates (2024-05-01) and the legacy form input
// format (05/01/2024).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, ErrInvalidDate
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.AccountID == 0 {
		return ErrUnknownAccount
	}
	return nil
}
