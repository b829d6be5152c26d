package pgstore

import (
	"errors"
	"testing"

	"github.com/fluxbase-eu/socialgraph/internal/database"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		sentinel   error
		constraint string
	}{
		{"no rows", pgx.ErrNoRows, store.ErrNotFound, ""},
		{"unique", &pgconn.PgError{Code: database.ErrCodeUniqueViolation, ConstraintName: "subscribers_on_authors_pkey"}, store.ErrUniqueViolation, "subscribers_on_authors_pkey"},
		{"foreign key", &pgconn.PgError{Code: database.ErrCodeForeignKeyViolation, ConstraintName: "posts_author_id_fkey"}, store.ErrForeignKeyViolation, "posts_author_id_fkey"},
		{"not null", &pgconn.PgError{Code: database.ErrCodeNotNullViolation}, store.ErrInvalidInput, ""},
		{"invalid text", &pgconn.PgError{Code: database.ErrCodeInvalidTextRep}, store.ErrInvalidInput, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError("create", "post", tt.err)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))

			var storeErr *store.Error
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, "create", storeErr.Op)
			assert.Equal(t, "post", storeErr.Entity)
			assert.Equal(t, tt.constraint, storeErr.Constraint)
		})
	}

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, mapError("find", "user", nil))
	})

	t.Run("unknown errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := mapError("find", "user", cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "find user: connection reset", err.Error())
	})
}

func TestFilters(t *testing.T) {
	id := uuid.New()

	t.Run("empty where has no filters", func(t *testing.T) {
		assert.Empty(t, userFilters(store.UserWhere{}))
		assert.Empty(t, postFilters(store.PostWhere{}))
		assert.Empty(t, profileFilters(store.ProfileWhere{}))
		assert.Empty(t, memberTypeFilters(store.MemberTypeWhere{}))
		assert.Empty(t, subscriptionFilters(store.SubscriptionWhere{}))
	})

	t.Run("empty IN slice still filters", func(t *testing.T) {
		filters := userFilters(store.UserWhere{IDIn: []uuid.UUID{}})
		require.Len(t, filters, 1)
		assert.Equal(t, OpIn, filters[0].Operator)
		assert.Equal(t, []string{}, filters[0].Value)
	})

	t.Run("profile filters", func(t *testing.T) {
		basic := store.MemberTypeBasic
		filters := profileFilters(store.ProfileWhere{UserID: &id, MemberTypeID: &basic})
		require.Len(t, filters, 2)
		assert.Equal(t, Filter{Column: "user_id", Operator: OpEqual, Value: id}, filters[0])
		assert.Equal(t, Filter{Column: "member_type_id", Operator: OpEqual, Value: "BASIC"}, filters[1])
	})

	t.Run("subscription filters", func(t *testing.T) {
		author := uuid.New()
		sql, args := NewQueryBuilder(subscriptionsTable).
			WithFilters(subscriptionFilters(store.SubscriptionWhere{SubscriberID: &id, AuthorID: &author})).
			BuildDelete()
		assert.Equal(t, `DELETE FROM "subscribers_on_authors" WHERE "subscriber_id" = $1 AND "author_id" = $2`, sql)
		assert.Equal(t, []interface{}{id, author}, args)
	})
}

func TestNew(t *testing.T) {
	client := New(nil)
	assert.NotNil(t, client.Users)
	assert.NotNil(t, client.Posts)
	assert.NotNil(t, client.Profiles)
	assert.NotNil(t, client.MemberTypes)
	assert.NotNil(t, client.Subscriptions)
}
