// Package store declares the persistence ports the wizard, the aggregator and
// the sync worker depend on. Implementations live in store/memory and storage.
package store

import (
	"context"

	"myfinance/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter persists a committed transaction and returns its id.
	// Storage failures are reported as *core.PersistenceError.
	TransactionWriter interface {
		Save(ctx context.Context, tx core.Transaction) (id int64, err error)
	}

	// TransactionReader answers windowed queries for one user.
	TransactionReader interface {
		// QueryByDay returns the user's transactions on day in insertion order.
		QueryByDay(ctx context.Context, userID int64, day core.Date) ([]core.Transaction, error)
		// QueryByMonth returns the user's transactions in year/month ordered by
		// date, then insertion.
		QueryByMonth(ctx context.Context, userID int64, year, month int) ([]core.Transaction, error)
		// QueryAll returns every transaction of the user ordered by date, then insertion.
		QueryAll(ctx context.Context, userID int64) ([]core.Transaction, error)
	}

	// TransactionGetter loads one transaction by id.
	TransactionGetter interface {
		Get(ctx context.Context, id int64) (core.Transaction, error)
	}

	// RecordStore is the full transaction store.
	RecordStore interface {
		TransactionWriter
		TransactionReader
		TransactionGetter
	}

	// ProfileStore keeps per-user preferences.
	ProfileStore interface {
		// DefaultCurrency returns the user's default currency; ok is false when none is set.
		DefaultCurrency(ctx context.Context, userID int64) (currency string, ok bool, err error)
		SetDefaultCurrency(ctx context.Context, userID int64, currency string) error
	}
)
