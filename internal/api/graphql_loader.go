package api

import (
	"context"
	"sync"

	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
)

// Loader memoizes by-id lookups made by relation fields during one request.
// Listing a hundred profiles reads each member type once instead of a
// hundred times. Only hits are cached; a missing row is looked up again.
type Loader struct {
	client *store.Client

	mu          sync.Mutex
	users       map[uuid.UUID]*store.User
	memberTypes map[store.MemberTypeID]*store.MemberType
}

// NewLoader returns an empty loader over client
func NewLoader(client *store.Client) *Loader {
	return &Loader{
		client:      client,
		users:       make(map[uuid.UUID]*store.User),
		memberTypes: make(map[store.MemberTypeID]*store.MemberType),
	}
}

// User returns the user with the given id, or store.ErrNotFound
func (l *Loader) User(ctx context.Context, id uuid.UUID) (*store.User, error) {
	l.mu.Lock()
	cached, ok := l.users[id]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	user, err := l.client.Users.FindFirst(ctx, store.UserWhere{ID: &id})
	if err != nil {
		return nil, err
	}
	l.PrimeUsers(*user)
	return user, nil
}

// PrimeUsers adds already fetched users to the cache
func (l *Loader) PrimeUsers(users ...store.User) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range users {
		u := users[i]
		l.users[u.ID] = &u
	}
}

// ForgetUser drops a cached user after it was changed or deleted
func (l *Loader) ForgetUser(id uuid.UUID) {
	l.mu.Lock()
	delete(l.users, id)
	l.mu.Unlock()
}

// MemberType returns the member type with the given id, or store.ErrNotFound
func (l *Loader) MemberType(ctx context.Context, id store.MemberTypeID) (*store.MemberType, error) {
	l.mu.Lock()
	cached, ok := l.memberTypes[id]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	mt, err := l.client.MemberTypes.FindFirst(ctx, store.MemberTypeWhere{ID: &id})
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.memberTypes[id] = mt
	l.mu.Unlock()
	return mt, nil
}
