package pgstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/database"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/jackc/pgx/v5"
)

const memberTypesTable = "member_types"

var memberTypeColumns = []string{"id", "discount", "posts_limit_per_month"}

type memberTypeRepo struct {
	db database.Executor
}

func scanMemberType(row pgx.CollectableRow) (store.MemberType, error) {
	var (
		mt store.MemberType
		id string
	)
	err := row.Scan(&id, &mt.Discount, &mt.PostsLimitPerMonth)
	mt.ID = store.MemberTypeID(id)
	return mt, err
}

func memberTypeFilters(w store.MemberTypeWhere) []Filter {
	var filters []Filter
	if w.ID != nil {
		filters = append(filters, eq("id", string(*w.ID)))
	}
	if w.IDIn != nil {
		filters = append(filters, anyOf("id", memberTypeStrings(w.IDIn)))
	}
	return filters
}

func (r *memberTypeRepo) FindFirst(ctx context.Context, where store.MemberTypeWhere) (*store.MemberType, error) {
	sql, args := NewQueryBuilder(memberTypesTable).
		WithColumns(memberTypeColumns).
		WithFilters(memberTypeFilters(where)).
		WithOrder(defaultOrder).
		WithLimit(1).
		BuildSelect()
	return queryOne(ctx, r.db, "find", "member type", sql, args, scanMemberType)
}

func (r *memberTypeRepo) FindMany(ctx context.Context, where store.MemberTypeWhere) ([]store.MemberType, error) {
	sql, args := NewQueryBuilder(memberTypesTable).
		WithColumns(memberTypeColumns).
		WithFilters(memberTypeFilters(where)).
		WithOrder(defaultOrder).
		BuildSelect()
	return queryMany(ctx, r.db, "member type", sql, args, scanMemberType)
}
