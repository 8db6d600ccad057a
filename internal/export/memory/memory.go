// Package memory is the in-memory export destination used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"envelope/internal/core"
	"envelope/internal/export"
)

type Snapshot struct {
	AsOf      time.Time
	Summaries []core.CategorySummary
}

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	snapshots    []Snapshot
	failAppends  bool
}

// Ensure interface conformance
var (
	_ export.TransactionWriter = (*Store)(nil)
	_ export.SummaryWriter     = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// FailAppends makes every AppendTransaction return an error, for
// exercising the worker's error path.
func (s *Store) FailAppends(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAppends = fail
}

// AppendTransaction stores the transaction and returns a synthetic row
// reference.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppends {
		return "", fmt.Errorf("append disabled")
	}
	s.transactions = append(s.transactions, t)
	return fmt.Sprintf("mem:%d", len(s.transactions)), nil
}

func (s *Store) AppendSummaries(_ context.Context, asOf time.Time, summaries []core.CategorySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, Snapshot{
		AsOf:      asOf,
		Summaries: append([]core.CategorySummary(nil), summaries...),
	})
	return nil
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) Snapshots() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot(nil), s.snapshots...)
}
