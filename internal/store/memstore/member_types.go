package memstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/store"
)

type memberTypeRepo struct{ s *Store }

func (r *memberTypeRepo) FindFirst(ctx context.Context, where store.MemberTypeWhere) (*store.MemberType, error) {
	types, err := r.FindMany(ctx, where)
	if err != nil {
		return nil, err
	}
	return first(types, "find", "member type")
}

func (r *memberTypeRepo) FindMany(ctx context.Context, where store.MemberTypeWhere) ([]store.MemberType, error) {
	r.s.touch()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	types := []store.MemberType{}
	for _, mt := range r.s.memberTypes {
		if where.ID != nil && mt.ID != *where.ID {
			continue
		}
		if where.IDIn != nil && !containsID(where.IDIn, mt.ID) {
			continue
		}
		types = append(types, mt)
	}
	return sortByID(types, func(mt store.MemberType) string { return string(mt.ID) }), nil
}
