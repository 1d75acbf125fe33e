package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeExpense    Type = "expense"
	TypeIncome     Type = "income"
	TypeInvestment Type = "investment"
)

const dateLayout = "2006-01-02"

type (
	// Type is the top-level kind of a transaction.
	Type string

	// Date is a calendar day. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Transaction is a committed record. Subcategory and Comment are nil when absent.
	Transaction struct {
		ID          int64
		UserID      int64
		Type        Type
		Category    string
		Subcategory *string
		Amount      decimal.Decimal
		Currency    string
		Comment     *string
		Date        Date
		CreatedAt   time.Time
	}
)

// Types returns the known transaction types in display order.
func Types() []Type {
	return []Type{TypeExpense, TypeIncome, TypeInvestment}
}

func (t Type) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeInvestment:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	return string(t)
}

// ParseType maps a type name to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Validate checks the fields every store relies on. The amount sign is not
// checked: zero and negative amounts are accepted as entered.
func (t Transaction) Validate() error {
	if t.UserID == 0 {
		return errors.New("empty user id")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, t.Type)
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Subcategory != nil && strings.TrimSpace(*t.Subcategory) == "" {
		return errors.New("subcategory must be nil or non-empty")
	}
	if strings.TrimSpace(t.Currency) == "" {
		return ErrEmptyCurrency
	}
	return t.Date.Validate()
}

// Label renders "Category/Subcategory", or just the category when terminal.
func (t Transaction) Label() string {
	if t.Subcategory == nil {
		return t.Category
	}
	return t.Category + "/" + *t.Subcategory
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
