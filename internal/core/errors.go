package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrPersistence      = errors.New("persistence error")
	ErrUnknownType      = errors.New("unknown type")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrNotFound         = errors.New("not found")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyCurrency    = errors.New("empty currency")
)

// PersistenceError reports a failed store operation. It matches ErrPersistence
// and the underlying cause with errors.Is.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// NewPersistenceError wraps err, or returns nil when err is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
