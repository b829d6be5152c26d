package memstore

import (
	"context"

	"github.com/fluxbase-eu/socialgraph/internal/store"
)

type subscriptionRepo struct{ s *Store }

func matchEdge(e store.Subscription, w store.SubscriptionWhere) bool {
	if w.SubscriberID != nil && e.SubscriberID != *w.SubscriberID {
		return false
	}
	if w.AuthorID != nil && e.AuthorID != *w.AuthorID {
		return false
	}
	return true
}

func (r *subscriptionRepo) Create(_ context.Context, edge store.Subscription) (*store.Subscription, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[edge.SubscriberID]; !ok {
		return nil, &store.Error{Op: "create", Entity: "subscription", Constraint: "subscribers_on_authors_subscriber_id_fkey", Err: store.ErrForeignKeyViolation}
	}
	if _, ok := r.s.users[edge.AuthorID]; !ok {
		return nil, &store.Error{Op: "create", Entity: "subscription", Constraint: "subscribers_on_authors_author_id_fkey", Err: store.ErrForeignKeyViolation}
	}
	if _, exists := r.s.edges[edge]; exists {
		return nil, &store.Error{Op: "create", Entity: "subscription", Constraint: "subscribers_on_authors_pkey", Err: store.ErrUniqueViolation}
	}

	r.s.edges[edge] = struct{}{}
	return &edge, nil
}

func (r *subscriptionRepo) DeleteMany(_ context.Context, where store.SubscriptionWhere) (int64, error) {
	r.s.touch()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int64
	for edge := range r.s.edges {
		if matchEdge(edge, where) {
			delete(r.s.edges, edge)
			removed++
		}
	}
	return removed, nil
}

func (r *subscriptionRepo) FindMany(ctx context.Context, where store.SubscriptionWhere) ([]store.Subscription, error) {
	r.s.touch()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	edges := []store.Subscription{}
	for edge := range r.s.edges {
		if matchEdge(edge, where) {
			edges = append(edges, edge)
		}
	}
	return sortByID(edges, func(e store.Subscription) string {
		return e.SubscriberID.String() + e.AuthorID.String()
	}), nil
}
