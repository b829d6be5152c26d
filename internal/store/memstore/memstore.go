// Package memstore is an in-memory implementation of the store repositories.
// It enforces the same keys and references as the SQL schema, which makes it
// a drop-in backend for handler tests and local experiments.
package memstore

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
)

// Store holds all tables behind one lock
type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]store.User
	posts       map[uuid.UUID]store.Post
	profiles    map[uuid.UUID]store.Profile
	memberTypes map[store.MemberTypeID]store.MemberType
	edges       map[store.Subscription]struct{}

	calls atomic.Int64
}

// New returns an empty store seeded with the default member types
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]store.User),
		posts:    make(map[uuid.UUID]store.Post),
		profiles: make(map[uuid.UUID]store.Profile),
		memberTypes: map[store.MemberTypeID]store.MemberType{
			store.MemberTypeBasic:    {ID: store.MemberTypeBasic, Discount: 2.3, PostsLimitPerMonth: 20},
			store.MemberTypeBusiness: {ID: store.MemberTypeBusiness, Discount: 7.7, PostsLimitPerMonth: 100},
		},
		edges: make(map[store.Subscription]struct{}),
	}
}

// Client exposes the store through the repository interfaces
func (s *Store) Client() *store.Client {
	return &store.Client{
		Users:         &userRepo{s},
		Posts:         &postRepo{s},
		Profiles:      &profileRepo{s},
		MemberTypes:   &memberTypeRepo{s},
		Subscriptions: &subscriptionRepo{s},
	}
}

// Calls returns how many repository methods have been invoked
func (s *Store) Calls() int64 {
	return s.calls.Load()
}

func (s *Store) touch() {
	s.calls.Add(1)
}

func containsID[T comparable](ids []T, id T) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func sortByID[T any](items []T, key func(T) string) []T {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
	return items
}

func first[T any](items []T, op, entity string) (*T, error) {
	if len(items) == 0 {
		return nil, store.NewError(op, entity, store.ErrNotFound)
	}
	return &items[0], nil
}
