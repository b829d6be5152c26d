package store

import "github.com/google/uuid"

// MemberTypeID identifies a membership tier
type MemberTypeID string

const (
	MemberTypeBasic    MemberTypeID = "BASIC"
	MemberTypeBusiness MemberTypeID = "BUSINESS"
)

// MemberType is a membership tier. Rows are seeded by migrations and read-only.
type MemberType struct {
	ID                 MemberTypeID `json:"id"`
	Discount           float64      `json:"discount"`
	PostsLimitPerMonth int          `json:"postsLimitPerMonth"`
}

type User struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Balance float64   `json:"balance"`
}

type Post struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	AuthorID uuid.UUID `json:"authorId"`
}

type Profile struct {
	ID           uuid.UUID    `json:"id"`
	IsMale       bool         `json:"isMale"`
	YearOfBirth  int          `json:"yearOfBirth"`
	UserID       uuid.UUID    `json:"userId"`
	MemberTypeID MemberTypeID `json:"memberTypeId"`
}

// Subscription is a "subscriber follows author" edge
type Subscription struct {
	SubscriberID uuid.UUID `json:"subscriberId"`
	AuthorID     uuid.UUID `json:"authorId"`
}

type UserCreate struct {
	Name    string
	Balance float64
}

type UserPatch struct {
	Name    Optional[string]
	Balance Optional[float64]
}

// IsEmpty reports whether the patch changes nothing
func (p UserPatch) IsEmpty() bool {
	return !p.Name.IsSet() && !p.Balance.IsSet()
}

type PostCreate struct {
	Title    string
	Content  string
	AuthorID uuid.UUID
}

type PostPatch struct {
	Title    Optional[string]
	Content  Optional[string]
	AuthorID Optional[uuid.UUID]
}

// IsEmpty reports whether the patch changes nothing
func (p PostPatch) IsEmpty() bool {
	return !p.Title.IsSet() && !p.Content.IsSet() && !p.AuthorID.IsSet()
}

type ProfileCreate struct {
	IsMale       bool
	YearOfBirth  int
	UserID       uuid.UUID
	MemberTypeID MemberTypeID
}

type ProfilePatch struct {
	IsMale       Optional[bool]
	YearOfBirth  Optional[int]
	MemberTypeID Optional[MemberTypeID]
}

// IsEmpty reports whether the patch changes nothing
func (p ProfilePatch) IsEmpty() bool {
	return !p.IsMale.IsSet() && !p.YearOfBirth.IsSet() && !p.MemberTypeID.IsSet()
}

// Where filters. A nil field does not filter. A non-nil empty *In slice
// matches nothing.

type UserWhere struct {
	ID   *uuid.UUID
	IDIn []uuid.UUID
}

type PostWhere struct {
	ID         *uuid.UUID
	AuthorID   *uuid.UUID
	AuthorIDIn []uuid.UUID
}

type ProfileWhere struct {
	ID             *uuid.UUID
	UserID         *uuid.UUID
	UserIDIn       []uuid.UUID
	MemberTypeID   *MemberTypeID
	MemberTypeIDIn []MemberTypeID
}

type MemberTypeWhere struct {
	ID   *MemberTypeID
	IDIn []MemberTypeID
}

type SubscriptionWhere struct {
	SubscriberID *uuid.UUID
	AuthorID     *uuid.UUID
}
