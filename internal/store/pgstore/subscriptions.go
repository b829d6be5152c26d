package pgstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/database"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/jackc/pgx/v5"
)

const subscriptionsTable = "subscribers_on_authors"

var subscriptionColumns = []string{"subscriber_id", "author_id"}

type subscriptionRepo struct {
	db database.Executor
}

func scanSubscription(row pgx.CollectableRow) (store.Subscription, error) {
	var s store.Subscription
	err := row.Scan(&s.SubscriberID, &s.AuthorID)
	return s, err
}

func subscriptionFilters(w store.SubscriptionWhere) []Filter {
	var filters []Filter
	if w.SubscriberID != nil {
		filters = append(filters, eq("subscriber_id", *w.SubscriberID))
	}
	if w.AuthorID != nil {
		filters = append(filters, eq("author_id", *w.AuthorID))
	}
	return filters
}

func (r *subscriptionRepo) Create(ctx context.Context, edge store.Subscription) (*store.Subscription, error) {
	sql, args := NewQueryBuilder(subscriptionsTable).
		WithReturning(subscriptionColumns).
		BuildInsert(map[string]interface{}{
			"subscriber_id": edge.SubscriberID,
			"author_id":     edge.AuthorID,
		})
	return queryOne(ctx, r.db, "create", "subscription", sql, args, scanSubscription)
}

func (r *subscriptionRepo) DeleteMany(ctx context.Context, where store.SubscriptionWhere) (int64, error) {
	sql, args := NewQueryBuilder(subscriptionsTable).
		WithFilters(subscriptionFilters(where)).
		BuildDelete()

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapError("delete", "subscription", err)
	}
	return tag.RowsAffected(), nil
}

func (r *subscriptionRepo) FindMany(ctx context.Context, where store.SubscriptionWhere) ([]store.Subscription, error) {
	sql, args := NewQueryBuilder(subscriptionsTable).
		WithColumns(subscriptionColumns).
		WithFilters(subscriptionFilters(where)).
		WithOrder([]OrderBy{{Column: "subscriber_id"}, {Column: "author_id"}}).
		BuildSelect()
	return queryMany(ctx, r.db, "subscription", sql, args, scanSubscription)
}
