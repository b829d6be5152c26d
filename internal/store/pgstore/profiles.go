package pgstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/database"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profilesTable = "profiles"

var profileColumns = []string{"id", "is_male", "year_of_birth", "user_id", "member_type_id"}

type profileRepo struct {
	db database.Executor
}

func scanProfile(row pgx.CollectableRow) (store.Profile, error) {
	var (
		p            store.Profile
		memberTypeID string
	)
	err := row.Scan(&p.ID, &p.IsMale, &p.YearOfBirth, &p.UserID, &memberTypeID)
	p.MemberTypeID = store.MemberTypeID(memberTypeID)
	return p, err
}

func memberTypeStrings(ids []store.MemberTypeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func profileFilters(w store.ProfileWhere) []Filter {
	var filters []Filter
	if w.ID != nil {
		filters = append(filters, eq("id", *w.ID))
	}
	if w.UserID != nil {
		filters = append(filters, eq("user_id", *w.UserID))
	}
	if w.UserIDIn != nil {
		filters = append(filters, anyOf("user_id", uuidStrings(w.UserIDIn)))
	}
	if w.MemberTypeID != nil {
		filters = append(filters, eq("member_type_id", string(*w.MemberTypeID)))
	}
	if w.MemberTypeIDIn != nil {
		filters = append(filters, anyOf("member_type_id", memberTypeStrings(w.MemberTypeIDIn)))
	}
	return filters
}

func (r *profileRepo) Create(ctx context.Context, in store.ProfileCreate) (*store.Profile, error) {
	sql, args := NewQueryBuilder(profilesTable).
		WithReturning(profileColumns).
		BuildInsert(map[string]interface{}{
			"id":             uuid.New(),
			"is_male":        in.IsMale,
			"year_of_birth":  in.YearOfBirth,
			"user_id":        in.UserID,
			"member_type_id": string(in.MemberTypeID),
		})
	return queryOne(ctx, r.db, "create", "profile", sql, args, scanProfile)
}

func (r *profileRepo) Update(ctx context.Context, id uuid.UUID, patch store.ProfilePatch) (*store.Profile, error) {
	if patch.IsEmpty() {
		return r.FindFirst(ctx, store.ProfileWhere{ID: &id})
	}

	data := map[string]interface{}{}
	if v, ok := patch.IsMale.Get(); ok {
		data["is_male"] = v
	}
	if v, ok := patch.YearOfBirth.Get(); ok {
		data["year_of_birth"] = v
	}
	if v, ok := patch.MemberTypeID.Get(); ok {
		data["member_type_id"] = string(v)
	}

	sql, args := NewQueryBuilder(profilesTable).
		WithFilters([]Filter{eq("id", id)}).
		WithReturning(profileColumns).
		BuildUpdate(data)
	return queryOne(ctx, r.db, "update", "profile", sql, args, scanProfile)
}

func (r *profileRepo) Delete(ctx context.Context, id uuid.UUID) (*store.Profile, error) {
	sql, args := NewQueryBuilder(profilesTable).
		WithFilters([]Filter{eq("id", id)}).
		WithReturning(profileColumns).
		BuildDelete()
	return queryOne(ctx, r.db, "delete", "profile", sql, args, scanProfile)
}

func (r *profileRepo) FindFirst(ctx context.Context, where store.ProfileWhere) (*store.Profile, error) {
	sql, args := NewQueryBuilder(profilesTable).
		WithColumns(profileColumns).
		WithFilters(profileFilters(where)).
		WithOrder(defaultOrder).
		WithLimit(1).
		BuildSelect()
	return queryOne(ctx, r.db, "find", "profile", sql, args, scanProfile)
}

func (r *profileRepo) FindMany(ctx context.Context, where store.ProfileWhere) ([]store.Profile, error) {
	sql, args := NewQueryBuilder(profilesTable).
		WithColumns(profileColumns).
		WithFilters(profileFilters(where)).
		WithOrder(defaultOrder).
		BuildSelect()
	return queryMany(ctx, r.db, "profile", sql, args, scanProfile)
}
