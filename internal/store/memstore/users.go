package memstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
)

type userRepo struct{ s *Store }

func matchUser(u store.User, w store.UserWhere) bool {
	if w.ID != nil && u.ID != *w.ID {
		return false
	}
	if w.IDIn != nil && !containsID(w.IDIn, u.ID) {
		return false
	}
	return true
}

func (r *userRepo) Create(_ context.Context, in store.UserCreate) (*store.User, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := store.User{ID: uuid.New(), Name: in.Name, Balance: in.Balance}
	r.s.users[u.ID] = u
	return &u, nil
}

func (r *userRepo) Update(_ context.Context, id uuid.UUID, patch store.UserPatch) (*store.User, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, store.NewError("update", "user", store.ErrNotFound)
	}
	u.Name = patch.Name.OrElse(u.Name)
	u.Balance = patch.Balance.OrElse(u.Balance)
	r.s.users[id] = u
	return &u, nil
}

// Delete cascades to the user's posts, profile and subscription edges
func (r *userRepo) Delete(_ context.Context, id uuid.UUID) (*store.User, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, store.NewError("delete", "user", store.ErrNotFound)
	}
	delete(r.s.users, id)

	for pid, p := range r.s.posts {
		if p.AuthorID == id {
			delete(r.s.posts, pid)
		}
	}
	for pid, p := range r.s.profiles {
		if p.UserID == id {
			delete(r.s.profiles, pid)
		}
	}
	for edge := range r.s.edges {
		if edge.SubscriberID == id || edge.AuthorID == id {
			delete(r.s.edges, edge)
		}
	}
	return &u, nil
}

func (r *userRepo) FindFirst(ctx context.Context, where store.UserWhere) (*store.User, error) {
	users, err := r.FindMany(ctx, where)
	if err != nil {
		return nil, err
	}
	return first(users, "find", "user")
}

func (r *userRepo) FindMany(ctx context.Context, where store.UserWhere) ([]store.User, error) {
	r.s.touch()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := []store.User{}
	for _, u := range r.s.users {
		if matchUser(u, where) {
			users = append(users, u)
		}
	}
	return sortByID(users, func(u store.User) string { return u.ID.String() }), nil
}
