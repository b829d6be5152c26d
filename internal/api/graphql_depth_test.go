package api

import (
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, query string) *ast.Document {
	t.Helper()
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(query), Name: "test"}),
	})
	require.NoError(t, err)
	return doc
}

// validateQuery runs the standard rules plus extra against the schema
func validateQuery(t *testing.T, query string, extra ...graphql.ValidationRuleFn) []gqlerrors.FormattedError {
	t.Helper()
	doc := mustParse(t, query)

	rules := append([]graphql.ValidationRuleFn{}, graphql.SpecifiedRules...)
	rules = append(rules, extra...)
	return graphql.ValidateDocument(&graphqlSchema, doc, rules).Errors
}

// =============================================================================
// Depth limit
// =============================================================================

func TestDepthLimitRule(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr string
	}{
		{
			name:  "top level scalar fields",
			query: `{ memberTypes { id discount } }`,
		},
		{
			name:  "exactly five levels",
			query: `query Five { users { posts { author { profile { memberType { id } } } } } }`,
		},
		{
			name:    "six levels",
			query:   `query Deep { users { posts { author { profile { memberType { profiles { id } } } } } } }`,
			wantErr: "'Deep' exceeds maximum operation depth of 5",
		},
		{
			name:    "anonymous operation",
			query:   `{ users { userSubscribedTo { userSubscribedTo { userSubscribedTo { userSubscribedTo { userSubscribedTo { id } } } } } } }`,
			wantErr: "'' exceeds maximum operation depth of 5",
		},
		{
			name: "fragment spreads add no depth of their own",
			query: `
				query Frag { users { ...Follows } }
				fragment Follows on User { posts { author { profile { memberType { id } } } } }
			`,
		},
		{
			name: "depth inside fragments counts",
			query: `
				query Frag { users { ...Follows } }
				fragment Follows on User { posts { author { profile { memberType { profiles { id } } } } } }
			`,
			wantErr: "'Frag' exceeds maximum operation depth of 5",
		},
		{
			name:    "inline fragments count their fields",
			query:   `query Inline { users { ... on User { posts { author { profile { memberType { profiles { id } } } } } } } }`,
			wantErr: "'Inline' exceeds maximum operation depth of 5",
		},
		{
			name:  "introspection fields are ignored",
			query: `{ __schema { types { fields { type { ofType { ofType { ofType { name } } } } } } } }`,
		},
		{
			name:    "mutations are limited too",
			query:   `mutation M { createUser(dto: {name: "a", balance: 1}) { posts { author { posts { author { posts { id } } } } } } }`,
			wantErr: "'M' exceeds maximum operation depth of 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateQuery(t, tt.query, depthLimitRule)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantErr, errs[0].Message)
		})
	}
}

func TestDepthLimitRule_OneErrorPerOperation(t *testing.T) {
	query := `
		query A { users { posts { author { profile { memberType { profiles { id } } } } } } }
		query B { users { id } }
	`
	errs := validateQuery(t, query, depthLimitRule)
	require.Len(t, errs, 1)
	assert.Equal(t, "'A' exceeds maximum operation depth of 5", errs[0].Message)
}

func TestDepthLimitRule_LocatesFirstFieldPastLimit(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLine   int
		wantColumn int
	}{
		{
			name: "field in the operation",
			query: "query Deep {\n" +
				"  users { posts { author { profile { memberType {\n" +
				"    profiles {\n" +
				"      id\n" +
				"    }\n" +
				"  } } } } }\n" +
				"}",
			wantLine:   4,
			wantColumn: 7,
		},
		{
			name: "field in a fragment",
			query: "query Frag { users { ...Deep } }\n" +
				"fragment Deep on User {\n" +
				"  posts { author { profile { memberType { profiles { id } } } } }\n" +
				"}",
			wantLine:   3,
			wantColumn: 54,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateQuery(t, tt.query, depthLimitRule)
			require.Len(t, errs, 1)
			require.Len(t, errs[0].Locations, 1)
			assert.Equal(t, tt.wantLine, errs[0].Locations[0].Line)
			assert.Equal(t, tt.wantColumn, errs[0].Locations[0].Column)
		})
	}
}

func TestDepthLimitRule_IntrospectionPastLimitIsFree(t *testing.T) {
	query := `{ users { posts { author { profile { memberType { profiles { __typename } } } } } } }`
	assert.Empty(t, validateQuery(t, query, depthLimitRule))
}

func TestMaxQueryDepth(t *testing.T) {
	assert.Equal(t, 5, MaxQueryDepth)
}
