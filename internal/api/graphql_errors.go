package api

import (
	"context"
	"errors"

	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/rs/zerolog/log"
)

// Error codes reported in the extensions of resolver errors
const (
	CodeNotFound            = "NOT_FOUND"
	CodeUniqueViolation     = "UNIQUE_VIOLATION"
	CodeForeignKeyViolation = "FOREIGN_KEY_VIOLATION"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInternal            = "INTERNAL"
)

// resolverError is returned from resolvers. graphql-go copies Extensions
// into the formatted error.
type resolverError struct {
	code    string
	message string
	err     error
}

func (e *resolverError) Error() string {
	return e.message
}

func (e *resolverError) Unwrap() error {
	return e.err
}

func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

// errorCode maps a store error to its extension code
func errorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, store.ErrUniqueViolation):
		return CodeUniqueViolation
	case errors.Is(err, store.ErrForeignKeyViolation):
		return CodeForeignKeyViolation
	case errors.Is(err, store.ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}

// resolveError wraps err for the GraphQL response and counts it
func (rc *RequestContext) resolveError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var re *resolverError
	if errors.As(err, &re) {
		return re
	}

	code := errorCode(err)
	if rc.metrics != nil {
		rc.metrics.RecordResolverError(code)
	}
	observability.RecordError(ctx, err)

	// Internal failures are logged in full and reported without details
	if code == CodeInternal {
		event := log.Error().Err(err)
		if traceID := observability.ExtractTraceID(ctx); traceID != "" {
			event = event.Str("trace_id", traceID)
		}
		event.Msg("GraphQL resolver failed")
		return &resolverError{code: code, message: "internal server error", err: err}
	}
	log.Debug().Err(err).Str("code", code).Msg("GraphQL resolver returned a data error")
	return &resolverError{code: code, message: err.Error(), err: err}
}
