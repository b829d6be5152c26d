// Package store is the data-access layer behind the GraphQL resolvers.
// Each entity has a repository; Client groups them. pgstore backs the
// repositories with PostgreSQL and memstore keeps everything in memory.
package store

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository reads and writes users
type UserRepository interface {
	Create(ctx context.Context, in UserCreate) (*User, error)
	Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error)
	// Delete removes the user and returns the removed row. Posts, the profile
	// and subscription edges go with it.
	Delete(ctx context.Context, id uuid.UUID) (*User, error)
	FindFirst(ctx context.Context, where UserWhere) (*User, error)
	FindMany(ctx context.Context, where UserWhere) ([]User, error)
}

// PostRepository reads and writes posts
type PostRepository interface {
	Create(ctx context.Context, in PostCreate) (*Post, error)
	Update(ctx context.Context, id uuid.UUID, patch PostPatch) (*Post, error)
	Delete(ctx context.Context, id uuid.UUID) (*Post, error)
	FindFirst(ctx context.Context, where PostWhere) (*Post, error)
	FindMany(ctx context.Context, where PostWhere) ([]Post, error)
}

// ProfileRepository reads and writes profiles. A user has at most one.
type ProfileRepository interface {
	Create(ctx context.Context, in ProfileCreate) (*Profile, error)
	Update(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Profile, error)
	Delete(ctx context.Context, id uuid.UUID) (*Profile, error)
	FindFirst(ctx context.Context, where ProfileWhere) (*Profile, error)
	FindMany(ctx context.Context, where ProfileWhere) ([]Profile, error)
}

// MemberTypeRepository reads the seeded member types
type MemberTypeRepository interface {
	FindFirst(ctx context.Context, where MemberTypeWhere) (*MemberType, error)
	FindMany(ctx context.Context, where MemberTypeWhere) ([]MemberType, error)
}

// SubscriptionRepository manages "subscriber follows author" edges
type SubscriptionRepository interface {
	// Create fails with ErrUniqueViolation when the edge already exists
	Create(ctx context.Context, edge Subscription) (*Subscription, error)
	// DeleteMany returns how many edges were removed; zero is not an error
	DeleteMany(ctx context.Context, where SubscriptionWhere) (int64, error)
	FindMany(ctx context.Context, where SubscriptionWhere) ([]Subscription, error)
}

// Client groups the repositories handed to every GraphQL request
type Client struct {
	Users         UserRepository
	Posts         PostRepository
	Profiles      ProfileRepository
	MemberTypes   MemberTypeRepository
	Subscriptions SubscriptionRepository
}
