// Package pgstore implements the store repositories on PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/fluxbase-eu/socialgraph/internal/database"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// New returns a store client whose repositories run against db
func New(db database.Executor) *store.Client {
	return &store.Client{
		Users:         &userRepo{db: db},
		Posts:         &postRepo{db: db},
		Profiles:      &profileRepo{db: db},
		MemberTypes:   &memberTypeRepo{db: db},
		Subscriptions: &subscriptionRepo{db: db},
	}
}

var defaultOrder = []OrderBy{{Column: "id"}}

// queryOne runs a statement expected to produce exactly one row.
// No rows maps to store.ErrNotFound.
func queryOne[T any](ctx context.Context, db database.Executor, op, entity, sql string, args []interface{}, scan pgx.RowToFunc[T]) (*T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(op, entity, err)
	}
	v, err := pgx.CollectOneRow(rows, scan)
	if err != nil {
		return nil, mapError(op, entity, err)
	}
	return &v, nil
}

func queryMany[T any](ctx context.Context, db database.Executor, entity, sql string, args []interface{}, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("find", entity, err)
	}
	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, mapError("find", entity, err)
	}
	return items, nil
}

// mapError translates driver errors into store sentinels
func mapError(op, entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return store.NewError(op, entity, store.ErrNotFound)
	case database.IsUniqueViolation(err):
		return &store.Error{Op: op, Entity: entity, Constraint: database.GetConstraintName(err), Err: store.ErrUniqueViolation}
	case database.IsForeignKeyViolation(err):
		return &store.Error{Op: op, Entity: entity, Constraint: database.GetConstraintName(err), Err: store.ErrForeignKeyViolation}
	case database.IsNotNullViolation(err), database.IsCheckViolation(err), database.IsInvalidInput(err):
		return &store.Error{Op: op, Entity: entity, Constraint: database.GetConstraintName(err), Err: store.ErrInvalidInput}
	default:
		return fmt.Errorf("%s %s: %w", op, entity, err)
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func eq(column string, value interface{}) Filter {
	return Filter{Column: column, Operator: OpEqual, Value: value}
}

func anyOf(column string, values interface{}) Filter {
	return Filter{Column: column, Operator: OpIn, Value: values}
}
