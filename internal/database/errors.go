package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	ErrCodeNotNullViolation    = "23502"
	ErrCodeForeignKeyViolation = "23503"
	ErrCodeUniqueViolation     = "23505"
	ErrCodeCheckViolation      = "23514"
	ErrCodeInvalidTextRep      = "22P02"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation checks if an error is a unique constraint violation
func IsUniqueViolation(err error) bool {
	return pgErrorCode(err) == ErrCodeUniqueViolation
}

// IsForeignKeyViolation checks if an error is a foreign key violation
func IsForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == ErrCodeForeignKeyViolation
}

// IsNotNullViolation checks if an error is a NOT NULL constraint violation
func IsNotNullViolation(err error) bool {
	return pgErrorCode(err) == ErrCodeNotNullViolation
}

// IsCheckViolation checks if an error is a check constraint violation
func IsCheckViolation(err error) bool {
	return pgErrorCode(err) == ErrCodeCheckViolation
}

// IsInvalidInput reports malformed input values, such as a bad enum or uuid literal
func IsInvalidInput(err error) bool {
	return pgErrorCode(err) == ErrCodeInvalidTextRep
}

// GetConstraintName returns the constraint name from a PostgreSQL error
func GetConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
