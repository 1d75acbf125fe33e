// Package wizard drives the guided entry of a transaction: type, category,
// optional subcategory, amount, currency and comment, then commit.
//
// A Machine is stateless and shared by every user; per-user progress lives in
// a Session owned by the host.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/taxonomy"
)

const (
	// NoSubcategory skips the subcategory step.
	NoSubcategory = taxonomy.NoSubcategory
	// NoComment commits without a comment. An empty comment does the same.
	NoComment = "-"
)

// Recorder persists a committed transaction and returns its id.
type Recorder interface {
	Save(ctx context.Context, tx core.Transaction) (int64, error)
}

// Config holds the Machine's collaborators.
type Config struct {
	Tree       *taxonomy.Tree
	Currencies []string
	Recorder   Recorder
	Logger     *log.Logger
	// Location decides the calendar day of a commit. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

type Machine struct {
	tree       *taxonomy.Tree
	currencies []string
	recorder   Recorder
	logger     *log.Logger
	loc        *time.Location
	now        func() time.Time
}

func New(cfg Config) (*Machine, error) {
	if cfg.Tree == nil {
		return nil, errors.New("wizard: category tree is required")
	}
	if cfg.Recorder == nil {
		return nil, errors.New("wizard: recorder is required")
	}
	if len(cfg.Currencies) == 0 {
		return nil, errors.New("wizard: at least one currency is required")
	}
	currencies := make([]string, 0, len(cfg.Currencies))
	for _, c := range cfg.Currencies {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("wizard: %w", core.ErrEmptyCurrency)
		}
		if slices.Contains(currencies, c) {
			return nil, fmt.Errorf("wizard: duplicate currency %q", c)
		}
		currencies = append(currencies, c)
	}

	m := &Machine{
		tree:       cfg.Tree,
		currencies: currencies,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		loc:        cfg.Location,
		now:        cfg.Now,
	}
	if m.logger == nil {
		m.logger = log.Discard()
	}
	m.logger = m.logger.WithComponent(log.ComponentWizard)
	if m.loc == nil {
		m.loc = time.UTC
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Currencies returns the configured currency labels in order.
func (m *Machine) Currencies() []string {
	return slices.Clone(m.currencies)
}

// HasCurrency reports whether label is a configured currency.
func (m *Machine) HasCurrency(label string) bool {
	return slices.Contains(m.currencies, label)
}

// SelectType starts a new draft for the given type.
func (m *Machine) SelectType(s *Session, name string) error {
	if err := m.expect(s, AwaitingType, name); err != nil {
		return err
	}
	typ, err := core.ParseType(name)
	if err != nil || !m.tree.HasType(typ) {
		return m.reject(s, core.ErrInvalidSelection, name)
	}

	s.draft = Draft{Type: typ}
	s.currencyAuto = false
	m.move(s, AwaitingCategory)
	return nil
}

func (m *Machine) SelectCategory(s *Session, name string) error {
	if err := m.expect(s, AwaitingCategory, name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	subs, err := m.tree.Subcategories(s.draft.Type, name)
	if errors.Is(err, core.ErrUnknownType) {
		return m.integrationError(s, err)
	}
	if err != nil {
		return m.reject(s, core.ErrInvalidSelection, name)
	}

	s.draft.Category = name
	s.draft.Subcategory = nil
	if len(subs) == 0 {
		m.move(s, AwaitingAmount)
		return nil
	}
	m.move(s, AwaitingSubcategory)
	return nil
}

// SelectSubcategory accepts one of the category's subcategories or NoSubcategory.
func (m *Machine) SelectSubcategory(s *Session, name string) error {
	if err := m.expect(s, AwaitingSubcategory, name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	switch {
	case strings.EqualFold(name, NoSubcategory):
		s.draft.Subcategory = nil
	case m.tree.HasSubcategory(s.draft.Type, s.draft.Category, name):
		s.draft.Subcategory = &name
	default:
		return m.reject(s, core.ErrInvalidSelection, name)
	}
	m.move(s, AwaitingAmount)
	return nil
}

// EnterAmount parses text with either a comma or a period as the decimal
// separator. When the session has a configured default currency the currency
// step is skipped.
func (m *Machine) EnterAmount(s *Session, text string) error {
	if err := m.expect(s, AwaitingAmount, text); err != nil {
		return err
	}
	amount, err := core.ParseAmount(text)
	if err != nil {
		return m.reject(s, core.ErrInvalidAmount, text)
	}
	s.draft.Amount = decimal.NewNullDecimal(amount)

	if def := s.defaultCurrency; def != "" {
		if m.HasCurrency(def) {
			s.draft.Currency = def
			s.currencyAuto = true
			m.move(s, AwaitingComment)
			return nil
		}
		m.logger.Warn("Default currency is not configured, asking instead",
			log.FieldUserID, s.userID,
			log.FieldCurrency, def)
	}
	m.move(s, AwaitingCurrency)
	return nil
}

func (m *Machine) SelectCurrency(s *Session, label string) error {
	if err := m.expect(s, AwaitingCurrency, label); err != nil {
		return err
	}
	label = strings.TrimSpace(label)
	if !m.HasCurrency(label) {
		return m.reject(s, core.ErrInvalidSelection, label)
	}
	s.draft.Currency = label
	s.currencyAuto = false
	m.move(s, AwaitingComment)
	return nil
}

// EnterComment records the comment and commits the draft. On a save failure
// the session stays at AwaitingComment with the draft intact, so the call can
// be repeated.
func (m *Machine) EnterComment(ctx context.Context, s *Session, text string) (core.Transaction, error) {
	if err := m.expect(s, AwaitingComment, text); err != nil {
		return core.Transaction{}, err
	}

	text = strings.TrimSpace(text)
	var comment *string
	if text != "" && text != NoComment {
		comment = &text
	}

	now := m.now()
	tx := core.Transaction{
		UserID:      s.userID,
		Type:        s.draft.Type,
		Category:    s.draft.Category,
		Subcategory: s.draft.Subcategory,
		Amount:      s.draft.Amount.Decimal,
		Currency:    s.draft.Currency,
		Comment:     comment,
		Date:        core.DateOf(now.In(m.loc)),
		CreatedAt:   now,
	}
	tx = cloneTransaction(tx)

	s.draft.Comment = comment
	m.move(s, Committed)

	id, err := m.recorder.Save(ctx, tx)
	if err != nil {
		s.draft.Comment = nil
		m.move(s, AwaitingComment)
		if !errors.Is(err, core.ErrPersistence) {
			err = core.NewPersistenceError("save transaction", err)
		}
		m.logger.ErrorContext(ctx, "Commit failed, draft kept for retry",
			log.NewFields().
				WithUser(s.userID).
				WithOperation(log.OpCommit).
				WithError(err).
				ToSlice()...)
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}
	tx.ID = id

	m.logger.InfoContext(ctx, "Transaction committed",
		log.NewFields().WithOperation(log.OpCommit).WithTransaction(tx).ToSlice()...)

	s.reset()
	return tx, nil
}

// Back returns to the previous step, clearing the field that step collects.
// At AwaitingType it does nothing. The returned prompt is the one for the
// resulting state.
func (m *Machine) Back(s *Session) Prompt {
	switch s.state {
	case AwaitingCategory:
		s.draft = Draft{}
		m.move(s, AwaitingType)
	case AwaitingSubcategory:
		s.draft.Category = ""
		s.draft.Subcategory = nil
		m.move(s, AwaitingCategory)
	case AwaitingAmount:
		s.draft.Subcategory = nil
		if m.hasSubcategories(s.draft.Type, s.draft.Category) {
			m.move(s, AwaitingSubcategory)
			break
		}
		s.draft.Category = ""
		m.move(s, AwaitingCategory)
	case AwaitingCurrency:
		s.draft.Amount = decimal.NullDecimal{}
		m.move(s, AwaitingAmount)
	case AwaitingComment:
		s.draft.Currency = ""
		if s.currencyAuto {
			s.currencyAuto = false
			s.draft.Amount = decimal.NullDecimal{}
			m.move(s, AwaitingAmount)
			break
		}
		m.move(s, AwaitingCurrency)
	}
	return m.Prompt(s)
}

// Cancel discards the draft and returns to the main menu without saving.
func (m *Machine) Cancel(s *Session) Prompt {
	if s.state != AwaitingType || s.draft != (Draft{}) {
		m.logger.Debug("Draft cancelled",
			log.FieldUserID, s.userID,
			log.FieldState, s.state.String())
	}
	s.reset()
	return m.Prompt(s)
}

func (m *Machine) hasSubcategories(typ core.Type, category string) bool {
	subs, err := m.tree.Subcategories(typ, category)
	return err == nil && len(subs) > 0
}

// expect rejects calls made in the wrong state. This is a host bug, not a
// user mistake, so it is logged at error level.
func (m *Machine) expect(s *Session, want State, input string) error {
	if s.state == want {
		return nil
	}
	err := newInputError(core.ErrInvalidState, s.state, input, m.Prompt(s).Options)
	m.logger.Error("Transition attempted out of order",
		log.FieldUserID, s.userID,
		log.FieldState, s.state.String(),
		"expected_state", want.String(),
		log.FieldErrorType, log.ErrorTypeIntegration)
	return err
}

func (m *Machine) reject(s *Session, kind error, input string) error {
	m.logger.Debug("Input rejected",
		log.FieldUserID, s.userID,
		log.FieldState, s.state.String(),
		log.FieldInput, input,
		log.FieldError, kind)
	return newInputError(kind, s.state, input, m.Prompt(s).Options)
}

// integrationError reports a draft that no longer matches the taxonomy.
func (m *Machine) integrationError(s *Session, err error) error {
	m.logger.Error("Draft does not match the category tree",
		log.FieldUserID, s.userID,
		log.FieldState, s.state.String(),
		log.FieldError, err,
		log.FieldErrorType, log.ErrorTypeIntegration)
	return err
}

func (m *Machine) move(s *Session, next State) {
	if !s.state.CanTransition(next) {
		// Unreachable unless the transition table and the methods disagree.
		panic(fmt.Sprintf("wizard: illegal transition %s -> %s", s.state, next))
	}
	m.logger.Debug("State changed",
		log.FieldUserID, s.userID,
		"from", s.state.String(),
		"to", next.String())
	s.state = next
}

func cloneTransaction(tx core.Transaction) core.Transaction {
	if tx.Subcategory != nil {
		sub := *tx.Subcategory
		tx.Subcategory = &sub
	}
	return tx
}
