// Package stats aggregates a user's transactions over a day, month or year.
package stats

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/store"
)

// Result is built fresh for every query.
//
// Amounts are summed nominally: transactions in different currencies under the
// same type or category are added together without conversion.
type Result struct {
	Window    Window
	LineItems []core.Transaction
	// TotalsByType always holds all three types, zero when unseen.
	TotalsByType map[core.Type]decimal.Decimal
	// TotalsByCategory covers expense transactions only.
	TotalsByCategory map[string]decimal.Decimal
}

// Empty reports whether the window had no transactions.
func (r Result) Empty() bool {
	return len(r.LineItems) == 0
}

func (r Result) Total(t core.Type) decimal.Decimal {
	if v, ok := r.TotalsByType[t]; ok {
		return v
	}
	return decimal.Zero
}

// Categories returns the expense breakdown ordered by amount, largest first,
// then by name.
func (r Result) Categories() []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(r.TotalsByCategory))
	for name, amount := range r.TotalsByCategory {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

type Aggregator struct {
	reader store.TransactionReader
	logger *log.Logger
}

func NewAggregator(reader store.TransactionReader, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Discard()
	}
	return &Aggregator{reader: reader, logger: logger.WithComponent(log.ComponentStats)}
}

// Aggregate queries the user's transactions in w and sums them. An empty
// window is a valid result, not an error.
func (a *Aggregator) Aggregate(ctx context.Context, userID int64, w Window) (Result, error) {
	if err := w.Validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()

	items, err := a.fetch(ctx, userID, w)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to query transactions",
			log.FieldUserID, userID,
			log.FieldWindow, w.String(),
			log.FieldError, err)
		return Result{}, fmt.Errorf("aggregate %s: %w", w, err)
	}

	res := Summarize(w, items)
	a.logger.DebugContext(ctx, "Aggregated transactions",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpAggregate,
		log.FieldWindow, w.String(),
		log.FieldLineItems, len(res.LineItems),
		log.FieldDuration, time.Since(start).Milliseconds())
	return res, nil
}

func (a *Aggregator) fetch(ctx context.Context, userID int64, w Window) ([]core.Transaction, error) {
	switch w.Kind {
	case KindDay:
		return a.reader.QueryByDay(ctx, userID, w.Date())
	case KindMonth:
		return a.reader.QueryByMonth(ctx, userID, w.Year, w.Month)
	default:
		all, err := a.reader.QueryAll(ctx, userID)
		if err != nil {
			return nil, err
		}
		out := make([]core.Transaction, 0, len(all))
		for _, tx := range all {
			if w.Contains(tx.Date) {
				out = append(out, tx)
			}
		}
		return out, nil
	}
}

// Summarize builds a Result from items in one pass, keeping their order.
func Summarize(w Window, items []core.Transaction) Result {
	res := Result{
		Window:           w,
		LineItems:        make([]core.Transaction, 0, len(items)),
		TotalsByType:     make(map[core.Type]decimal.Decimal, 3),
		TotalsByCategory: make(map[string]decimal.Decimal),
	}
	for _, t := range core.Types() {
		res.TotalsByType[t] = decimal.Zero
	}

	for _, tx := range items {
		res.LineItems = append(res.LineItems, tx)
		res.TotalsByType[tx.Type] = res.TotalsByType[tx.Type].Add(tx.Amount)
		if tx.Type == core.TypeExpense {
			res.TotalsByCategory[tx.Category] = res.TotalsByCategory[tx.Category].Add(tx.Amount)
		}
	}
	return res
}
