package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorCodeConstants(t *testing.T) {
	assert.Equal(t, "23502", ErrCodeNotNullViolation)
	assert.Equal(t, "23503", ErrCodeForeignKeyViolation)
	assert.Equal(t, "23505", ErrCodeUniqueViolation)
	assert.Equal(t, "23514", ErrCodeCheckViolation)
}

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		classify func(error) bool
		expected bool
	}{
		{"unique violation", &pgconn.PgError{Code: ErrCodeUniqueViolation}, IsUniqueViolation, true},
		{"unique wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: ErrCodeUniqueViolation}), IsUniqueViolation, true},
		{"unique mismatch", &pgconn.PgError{Code: ErrCodeForeignKeyViolation}, IsUniqueViolation, false},
		{"foreign key violation", &pgconn.PgError{Code: ErrCodeForeignKeyViolation}, IsForeignKeyViolation, true},
		{"not null violation", &pgconn.PgError{Code: ErrCodeNotNullViolation}, IsNotNullViolation, true},
		{"check violation", &pgconn.PgError{Code: ErrCodeCheckViolation}, IsCheckViolation, true},
		{"invalid input", &pgconn.PgError{Code: ErrCodeInvalidTextRep}, IsInvalidInput, true},
		{"generic error", errors.New("generic error"), IsUniqueViolation, false},
		{"nil error", nil, IsForeignKeyViolation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.classify(tt.err))
		})
	}
}

func TestGetConstraintName(t *testing.T) {
	t.Run("returns constraint name for pg error", func(t *testing.T) {
		err := &pgconn.PgError{Code: ErrCodeUniqueViolation, ConstraintName: "profiles_user_id_key"}
		assert.Equal(t, "profiles_user_id_key", GetConstraintName(err))
	})

	t.Run("returns empty for non-pg error", func(t *testing.T) {
		assert.Empty(t, GetConstraintName(errors.New("boom")))
	})
}
