package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event kinds published by the ledger services.
const (
	KindTransactionRecorded = "transaction.recorded"
	KindTransferRecorded    = "transfer.recorded"
	KindCategoryFunded      = "category.funded"
)

// LedgerEvent is a lightweight notification; consumers fetch full rows
// from the store by id.
type LedgerEvent struct {
	EventID           string    `json:"event_id"`
	Kind              string    `json:"kind"`
	TransactionID     int64     `json:"transaction_id,omitempty"`
	PairTransactionID int64     `json:"pair_transaction_id,omitempty"`
	FundingEntryID    int64     `json:"funding_entry_id,omitempty"`
	BudgetCategoryID  int64     `json:"budget_category_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

func NewTransactionRecorded(transactionID int64) *LedgerEvent {
	return &LedgerEvent{
		EventID:       uuid.NewString(),
		Kind:          KindTransactionRecorded,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func NewTransferRecorded(outID, inID int64) *LedgerEvent {
	return &LedgerEvent{
		EventID:           uuid.NewString(),
		Kind:              KindTransferRecorded,
		TransactionID:     outID,
		PairTransactionID: inID,
		Timestamp:         time.Now(),
	}
}

func NewCategoryFunded(fundingEntryID, budgetCategoryID int64) *LedgerEvent {
	return &LedgerEvent{
		EventID:          uuid.NewString(),
		Kind:             KindCategoryFunded,
		FundingEntryID:   fundingEntryID,
		BudgetCategoryID: budgetCategoryID,
		Timestamp:        time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON creates an event from JSON bytes
func FromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
