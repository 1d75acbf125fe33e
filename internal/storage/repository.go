package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"myfinance/internal/core"
	"myfinance/internal/store"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ store.RecordStore  = (*SQLiteRepository)(nil)
	_ store.ProfileStore = (*SQLiteRepository)(nil)
)

var transactionColumns = []string{
	"id", "user_id", "type", "category", "subcategory",
	"amount", "currency", "comment", "date", "created_at",
}

type SQLiteRepository struct {
	db  *sql.DB
	qb  sq.StatementBuilderType
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps writes serialized and the pragmas below in effect.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:  db,
		qb:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now: time.Now,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save implements store.TransactionWriter
func (r *SQLiteRepository) Save(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("invalid transaction: %w", err)
	}
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	query, args, err := r.qb.Insert("transactions").
		Columns(transactionColumns[1:]...).
		Values(
			tx.UserID,
			string(tx.Type),
			tx.Category,
			nullString(tx.Subcategory),
			tx.Amount.String(),
			tx.Currency,
			nullString(tx.Comment),
			tx.Date.String(),
			createdAt.UTC().Format(time.RFC3339Nano),
		).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, core.NewPersistenceError("save transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.NewPersistenceError("read inserted id", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"user_id", tx.UserID,
		"type", tx.Type,
		"category", tx.Category,
		"amount", tx.Amount.String(),
		"currency", tx.Currency,
		"date", tx.Date.String())

	return id, nil
}

// QueryByDay implements store.TransactionReader
func (r *SQLiteRepository) QueryByDay(ctx context.Context, userID int64, day core.Date) ([]core.Transaction, error) {
	b := r.selectTransactions().
		Where(sq.Eq{"user_id": userID, "date": day.String()}).
		OrderBy("id")
	return r.query(ctx, "query by day", b)
}

// QueryByMonth implements store.TransactionReader
func (r *SQLiteRepository) QueryByMonth(ctx context.Context, userID int64, year, month int) ([]core.Transaction, error) {
	start := core.NewDate(year, month, 1)
	end := core.Date{Time: start.AddDate(0, 1, 0)}
	b := r.selectTransactions().
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"date": start.String()}).
		Where(sq.Lt{"date": end.String()}).
		OrderBy("date", "id")
	return r.query(ctx, "query by month", b)
}

// QueryAll implements store.TransactionReader
func (r *SQLiteRepository) QueryAll(ctx context.Context, userID int64) ([]core.Transaction, error) {
	b := r.selectTransactions().
		Where(sq.Eq{"user_id": userID}).
		OrderBy("date", "id")
	return r.query(ctx, "query all", b)
}

// Get implements store.TransactionGetter
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	query, args, err := r.selectTransactions().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("build select: %w", err)
	}
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, core.NewPersistenceError("get transaction", err)
	}
	return tx, nil
}

// DefaultCurrency implements store.ProfileStore
func (r *SQLiteRepository) DefaultCurrency(ctx context.Context, userID int64) (string, bool, error) {
	query, args, err := r.qb.Select("default_currency").
		From("user_profiles").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build select: %w", err)
	}

	var currency string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&currency)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, core.NewPersistenceError("get default currency", err)
	}
	return currency, true, nil
}

// SetDefaultCurrency implements store.ProfileStore. An empty currency clears it.
func (r *SQLiteRepository) SetDefaultCurrency(ctx context.Context, userID int64, currency string) error {
	currency = strings.TrimSpace(currency)

	var (
		query string
		args  []any
		err   error
	)
	if currency == "" {
		query, args, err = r.qb.Delete("user_profiles").Where(sq.Eq{"user_id": userID}).ToSql()
	} else {
		query, args, err = r.qb.Insert("user_profiles").
			Columns("user_id", "default_currency", "updated_at").
			Values(userID, currency, r.now().UTC().Format(time.RFC3339Nano)).
			Suffix("ON CONFLICT(user_id) DO UPDATE SET default_currency = excluded.default_currency, updated_at = excluded.updated_at").
			ToSql()
	}
	if err != nil {
		return fmt.Errorf("build profile statement: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return core.NewPersistenceError("set default currency", err)
	}
	slog.InfoContext(ctx, "Default currency updated", "user_id", userID, "currency", currency)
	return nil
}

func (r *SQLiteRepository) selectTransactions() sq.SelectBuilder {
	return r.qb.Select(transactionColumns...).From("transactions")
}

func (r *SQLiteRepository) query(ctx context.Context, op string, b sq.SelectBuilder) ([]core.Transaction, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewPersistenceError(op, err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, core.NewPersistenceError(op, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewPersistenceError(op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		typ, amount          string
		date, createdAt      string
		subcategory, comment sql.NullString
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &typ, &tx.Category, &subcategory,
		&amount, &tx.Currency, &comment, &date, &createdAt); err != nil {
		return core.Transaction{}, err
	}

	tx.Type = core.Type(typ)
	if subcategory.Valid {
		tx.Subcategory = &subcategory.String
	}
	if comment.Valid {
		tx.Comment = &comment.String
	}

	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d amount %q: %w", tx.ID, amount, err)
	}
	if tx.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", tx.ID, err)
	}
	if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d created_at %q: %w", tx.ID, createdAt, err)
	}
	return tx, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
