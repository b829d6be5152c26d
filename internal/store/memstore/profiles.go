package memstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
)

type profileRepo struct{ s *Store }

func matchProfile(p store.Profile, w store.ProfileWhere) bool {
	if w.ID != nil && p.ID != *w.ID {
		return false
	}
	if w.UserID != nil && p.UserID != *w.UserID {
		return false
	}
	if w.UserIDIn != nil && !containsID(w.UserIDIn, p.UserID) {
		return false
	}
	if w.MemberTypeID != nil && p.MemberTypeID != *w.MemberTypeID {
		return false
	}
	if w.MemberTypeIDIn != nil && !containsID(w.MemberTypeIDIn, p.MemberTypeID) {
		return false
	}
	return true
}

func (r *profileRepo) Create(_ context.Context, in store.ProfileCreate) (*store.Profile, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[in.UserID]; !ok {
		return nil, &store.Error{Op: "create", Entity: "profile", Constraint: "profiles_user_id_fkey", Err: store.ErrForeignKeyViolation}
	}
	if _, ok := r.s.memberTypes[in.MemberTypeID]; !ok {
		return nil, &store.Error{Op: "create", Entity: "profile", Constraint: "profiles_member_type_id_fkey", Err: store.ErrForeignKeyViolation}
	}
	for _, existing := range r.s.profiles {
		if existing.UserID == in.UserID {
			return nil, &store.Error{Op: "create", Entity: "profile", Constraint: "profiles_user_id_key", Err: store.ErrUniqueViolation}
		}
	}

	p := store.Profile{
		ID:           uuid.New(),
		IsMale:       in.IsMale,
		YearOfBirth:  in.YearOfBirth,
		UserID:       in.UserID,
		MemberTypeID: in.MemberTypeID,
	}
	r.s.profiles[p.ID] = p
	return &p, nil
}

func (r *profileRepo) Update(_ context.Context, id uuid.UUID, patch store.ProfilePatch) (*store.Profile, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, store.NewError("update", "profile", store.ErrNotFound)
	}
	if mt, set := patch.MemberTypeID.Get(); set {
		if _, exists := r.s.memberTypes[mt]; !exists {
			return nil, &store.Error{Op: "update", Entity: "profile", Constraint: "profiles_member_type_id_fkey", Err: store.ErrForeignKeyViolation}
		}
		p.MemberTypeID = mt
	}
	p.IsMale = patch.IsMale.OrElse(p.IsMale)
	p.YearOfBirth = patch.YearOfBirth.OrElse(p.YearOfBirth)
	r.s.profiles[id] = p
	return &p, nil
}

func (r *profileRepo) Delete(_ context.Context, id uuid.UUID) (*store.Profile, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, store.NewError("delete", "profile", store.ErrNotFound)
	}
	delete(r.s.profiles, id)
	return &p, nil
}

func (r *profileRepo) FindFirst(ctx context.Context, where store.ProfileWhere) (*store.Profile, error) {
	profiles, err := r.FindMany(ctx, where)
	if err != nil {
		return nil, err
	}
	return first(profiles, "find", "profile")
}

func (r *profileRepo) FindMany(ctx context.Context, where store.ProfileWhere) ([]store.Profile, error) {
	r.s.touch()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	profiles := []store.Profile{}
	for _, p := range r.s.profiles {
		if matchProfile(p, where) {
			profiles = append(profiles, p)
		}
	}
	return sortByID(profiles, func(p store.Profile) string { return p.ID.String() }), nil
}
