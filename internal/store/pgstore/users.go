package pgstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/database"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const usersTable = "users"

var userColumns = []string{"id", "name", "balance"}

type userRepo struct {
	db database.Executor
}

func scanUser(row pgx.CollectableRow) (store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Name, &u.Balance)
	return u, err
}

func userFilters(w store.UserWhere) []Filter {
	var filters []Filter
	if w.ID != nil {
		filters = append(filters, eq("id", *w.ID))
	}
	if w.IDIn != nil {
		filters = append(filters, anyOf("id", uuidStrings(w.IDIn)))
	}
	return filters
}

func (r *userRepo) Create(ctx context.Context, in store.UserCreate) (*store.User, error) {
	sql, args := NewQueryBuilder(usersTable).
		WithReturning(userColumns).
		BuildInsert(map[string]interface{}{
			"id":      uuid.New(),
			"name":    in.Name,
			"balance": in.Balance,
		})
	return queryOne(ctx, r.db, "create", "user", sql, args, scanUser)
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, patch store.UserPatch) (*store.User, error) {
	if patch.IsEmpty() {
		return r.FindFirst(ctx, store.UserWhere{ID: &id})
	}

	data := map[string]interface{}{}
	if v, ok := patch.Name.Get(); ok {
		data["name"] = v
	}
	if v, ok := patch.Balance.Get(); ok {
		data["balance"] = v
	}

	sql, args := NewQueryBuilder(usersTable).
		WithFilters([]Filter{eq("id", id)}).
		WithReturning(userColumns).
		BuildUpdate(data)
	return queryOne(ctx, r.db, "update", "user", sql, args, scanUser)
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) (*store.User, error) {
	sql, args := NewQueryBuilder(usersTable).
		WithFilters([]Filter{eq("id", id)}).
		WithReturning(userColumns).
		BuildDelete()
	return queryOne(ctx, r.db, "delete", "user", sql, args, scanUser)
}

func (r *userRepo) FindFirst(ctx context.Context, where store.UserWhere) (*store.User, error) {
	sql, args := NewQueryBuilder(usersTable).
		WithColumns(userColumns).
		WithFilters(userFilters(where)).
		WithOrder(defaultOrder).
		WithLimit(1).
		BuildSelect()
	return queryOne(ctx, r.db, "find", "user", sql, args, scanUser)
}

func (r *userRepo) FindMany(ctx context.Context, where store.UserWhere) ([]store.User, error) {
	sql, args := NewQueryBuilder(usersTable).
		WithColumns(userColumns).
		WithFilters(userFilters(where)).
		WithOrder(defaultOrder).
		BuildSelect()
	return queryMany(ctx, r.db, "user", sql, args, scanUser)
}
