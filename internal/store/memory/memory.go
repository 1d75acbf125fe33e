package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"myfinance/internal/core"
	"myfinance/internal/store"
)

// Ensure interface conformance
var (
	_ store.RecordStore  = (*Store)(nil)
	_ store.ProfileStore = (*Store)(nil)
)

// Store keeps transactions and profiles in process memory.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	items    []core.Transaction
	profiles map[int64]string
	now      func() time.Time
}

func New() *Store {
	return &Store{profiles: map[int64]string{}, now: time.Now}
}

// Save stores the transaction and assigns the next id.
func (s *Store) Save(_ context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("invalid transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	tx.ID = s.nextID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now()
	}
	s.items = append(s.items, clone(tx))
	return tx.ID, nil
}

func (s *Store) QueryByDay(_ context.Context, userID int64, day core.Date) ([]core.Transaction, error) {
	want := day.String()
	return s.filter(func(tx core.Transaction) bool {
		return tx.UserID == userID && tx.Date.String() == want
	}, false), nil
}

func (s *Store) QueryByMonth(_ context.Context, userID int64, year, month int) ([]core.Transaction, error) {
	return s.filter(func(tx core.Transaction) bool {
		return tx.UserID == userID && tx.Date.Year() == year && tx.Date.Month() == month
	}, true), nil
}

func (s *Store) QueryAll(_ context.Context, userID int64) ([]core.Transaction, error) {
	return s.filter(func(tx core.Transaction) bool {
		return tx.UserID == userID
	}, true), nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.items {
		if tx.ID == id {
			return clone(tx), nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
}

func (s *Store) DefaultCurrency(_ context.Context, userID int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.profiles[userID]
	return c, ok, nil
}

func (s *Store) SetDefaultCurrency(_ context.Context, userID int64, currency string) error {
	currency = strings.TrimSpace(currency)
	s.mu.Lock()
	defer s.mu.Unlock()
	if currency == "" {
		delete(s.profiles, userID)
		return nil
	}
	s.profiles[userID] = currency
	return nil
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// filter returns matching copies in insertion order, optionally stable-sorted by date.
func (s *Store) filter(keep func(core.Transaction) bool, byDate bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0)
	for _, tx := range s.items {
		if keep(tx) {
			out = append(out, clone(tx))
		}
	}
	if byDate {
		slices.SortStableFunc(out, func(a, b core.Transaction) int {
			return cmp.Compare(a.Date.String(), b.Date.String())
		})
	}
	return out
}

func clone(tx core.Transaction) core.Transaction {
	if tx.Subcategory != nil {
		sub := *tx.Subcategory
		tx.Subcategory = &sub
	}
	if tx.Comment != nil {
		c := *tx.Comment
		tx.Comment = &c
	}
	return tx
}
