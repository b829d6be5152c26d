package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// captureLog redirects the global logger into a buffer for one test
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })
	return &buf
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", store.NewError("delete", "post", store.ErrNotFound), CodeNotFound},
		{"unique", store.NewError("create", "subscription", store.ErrUniqueViolation), CodeUniqueViolation},
		{"foreign key", fmt.Errorf("create post: %w", store.ErrForeignKeyViolation), CodeForeignKeyViolation},
		{"invalid input", store.ErrInvalidInput, CodeInvalidInput},
		{"anything else", errors.New("connection reset"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestResolveError_DataErrorKeepsMessage(t *testing.T) {
	rc := NewRequestContext(nil, nil)

	err := rc.resolveError(context.Background(), store.NewError("delete", "post", store.ErrNotFound))
	var re *resolverError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "delete post: record not found", re.Error())
	assert.Equal(t, map[string]interface{}{"code": CodeNotFound}, re.Extensions())
	assert.True(t, errors.Is(err, store.ErrNotFound))

	// Already wrapped errors pass through unchanged
	assert.Same(t, re, rc.resolveError(context.Background(), re))
	assert.NoError(t, rc.resolveError(context.Background(), nil))
}

func TestResolveError_InternalIsMaskedAndLoggedWithTraceID(t *testing.T) {
	buf := captureLog(t)

	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	ctx, span := provider.Tracer("test").Start(context.Background(), "graphql")
	defer span.End()

	rc := NewRequestContext(nil, nil)
	err := rc.resolveError(ctx, errors.New("pool exhausted"))

	var re *resolverError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "internal server error", re.Error())
	assert.Equal(t, CodeInternal, re.Extensions()["code"])

	out := buf.String()
	assert.Contains(t, out, "pool exhausted")
	assert.Contains(t, out, `"trace_id":"`+span.SpanContext().TraceID().String()+`"`)
}

func TestResolveError_InternalWithoutSpan(t *testing.T) {
	buf := captureLog(t)

	rc := NewRequestContext(nil, nil)
	_ = rc.resolveError(context.Background(), errors.New("boom"))

	assert.Contains(t, buf.String(), "boom")
	assert.NotContains(t, buf.String(), "trace_id")
}
