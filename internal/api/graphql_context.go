package api

import (
	"context"
	"errors"

	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/fluxbase-eu/socialgraph/internal/store"
)

// GraphQL context keys
type graphqlContextKey string

const (
	// GraphQLRequestContextKey stores the *RequestContext of one execution
	GraphQLRequestContextKey graphqlContextKey = "graphql_request_context"
)

var errNoRequestContext = errors.New("graphql request context is missing")

// RequestContext carries what resolvers need for a single GraphQL execution.
// A new one is built for every request and dropped with the response.
type RequestContext struct {
	Store   *store.Client
	Loader  *Loader
	metrics *observability.Metrics

	// variables as sent by the client, before coercion drops nulls
	variables map[string]interface{}
}

// NewRequestContext creates a request context around the store client.
// metrics may be nil.
func NewRequestContext(client *store.Client, metrics *observability.Metrics) *RequestContext {
	return &RequestContext{
		Store:   client,
		Loader:  NewLoader(client),
		metrics: metrics,
	}
}

func withRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, GraphQLRequestContextKey, rc)
}

func requestContextFrom(ctx context.Context) (*RequestContext, error) {
	if ctx == nil {
		return nil, errNoRequestContext
	}
	rc, ok := ctx.Value(GraphQLRequestContextKey).(*RequestContext)
	if !ok || rc == nil {
		return nil, errNoRequestContext
	}
	return rc, nil
}
