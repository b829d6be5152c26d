package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the targeted record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrUniqueViolation is returned when a write would duplicate a unique key
	ErrUniqueViolation = errors.New("unique constraint violated")
	// ErrForeignKeyViolation is returned when a write references a missing record
	ErrForeignKeyViolation = errors.New("foreign key constraint violated")
	// ErrInvalidInput is returned for values the database rejects outright
	ErrInvalidInput = errors.New("invalid input")
)

// Error describes a failed store operation
type Error struct {
	Op         string // create, update, delete, find
	Entity     string
	Constraint string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
	if e.Constraint != "" {
		msg += " (" + e.Constraint + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps a sentinel error with operation context
func NewError(op, entity string, err error) *Error {
	return &Error{Op: op, Entity: entity, Err: err}
}

// IsNotFound reports whether err is, or wraps, ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
