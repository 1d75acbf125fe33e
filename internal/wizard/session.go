package wizard

import (
	"github.com/shopspring/decimal"

	"myfinance/internal/core"
)

// Draft is the transaction being assembled. Fields are filled strictly in
// state order.
type Draft struct {
	Type        core.Type
	Category    string
	Subcategory *string
	Amount      decimal.NullDecimal
	Currency    string
	Comment     *string
}

func (d Draft) clone() Draft {
	if d.Subcategory != nil {
		sub := *d.Subcategory
		d.Subcategory = &sub
	}
	if d.Comment != nil {
		c := *d.Comment
		d.Comment = &c
	}
	return d
}

// Session is one user's in-progress conversation. It is not safe for
// concurrent use; the host serializes calls per user.
type Session struct {
	userID          int64
	state           State
	draft           Draft
	defaultCurrency string
	// currencyAuto is set when the currency step was skipped with the default.
	currencyAuto bool
}

// NewSession creates a session at the main menu. An empty defaultCurrency
// means the user is always asked for a currency.
func NewSession(userID int64, defaultCurrency string) *Session {
	return &Session{userID: userID, state: AwaitingType, defaultCurrency: defaultCurrency}
}

func (s *Session) UserID() int64 { return s.userID }

func (s *Session) State() State { return s.state }

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft { return s.draft.clone() }

func (s *Session) DefaultCurrency() string { return s.defaultCurrency }

// SetDefaultCurrency changes the currency used to skip the currency step. It
// takes effect from the next amount entered.
func (s *Session) SetDefaultCurrency(currency string) { s.defaultCurrency = currency }

func (s *Session) reset() {
	s.state = AwaitingType
	s.draft = Draft{}
	s.currencyAuto = false
}
