package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxbase-eu/socialgraph/cli/client"
	cliconfig "github.com/fluxbase-eu/socialgraph/cli/config"
	"github.com/fluxbase-eu/socialgraph/cli/output"
)

// =============================================================================
// Variables and documents
// =============================================================================

func TestParseVariables(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    map[string]interface{}
		wantErr bool
	}{
		{name: "none", input: nil, want: nil},
		{name: "plain string", input: []string{"id=abc-123"}, want: map[string]interface{}{"id": "abc-123"}},
		{name: "number", input: []string{"balance=10.5"}, want: map[string]interface{}{"balance": 10.5}},
		{name: "boolean", input: []string{"flag=true"}, want: map[string]interface{}{"flag": true}},
		{name: "null", input: []string{"name=null"}, want: map[string]interface{}{"name": nil}},
		{
			name:  "object",
			input: []string{`dto={"name":"ann","balance":1}`},
			want:  map[string]interface{}{"dto": map[string]interface{}{"name": "ann", "balance": float64(1)}},
		},
		{name: "value with equals", input: []string{"q=a=b"}, want: map[string]interface{}{"q": "a=b"}},
		{name: "trims spaces", input: []string{" id = BASIC "}, want: map[string]interface{}{"id": "BASIC"}},
		{name: "missing equals", input: []string{"id"}, wantErr: true},
		{name: "empty name", input: []string{"=1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVariables(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.graphql")
	require.NoError(t, os.WriteFile(path, []byte("{ users { id } }"), 0600))

	doc, err := readDocument(path, []string{"ignored"}, "query")
	require.NoError(t, err)
	assert.Equal(t, "{ users { id } }", doc)

	doc, err = readDocument("", []string{"{ posts { id } }"}, "query")
	require.NoError(t, err)
	assert.Equal(t, "{ posts { id } }", doc)

	_, err = readDocument("", nil, "mutation")
	assert.EqualError(t, err, "either provide a mutation as an argument or use --file")

	_, err = readDocument(filepath.Join(t.TempDir(), "missing.graphql"), nil, "query")
	assert.Error(t, err)
}

// =============================================================================
// Errors
// =============================================================================

func TestFormatGraphQLErrors(t *testing.T) {
	err := formatGraphQLErrors([]client.GraphQLError{
		{
			Message:   "'Deep' exceeds maximum operation depth of 5",
			Locations: []client.GraphQLErrorLocation{{Line: 1, Column: 1}},
		},
		{
			Message:    "user not found",
			Path:       []interface{}{"changeUser"},
			Extensions: map[string]interface{}{"code": "NOT_FOUND"},
		},
		{
			Message: "boom",
			Path:    []interface{}{"users", float64(2), "posts"},
		},
	})

	want := "GraphQL errors:\n" +
		"  1. 'Deep' exceeds maximum operation depth of 5 (line 1, column 1)\n" +
		"  2. user not found [NOT_FOUND] at path: changeUser\n" +
		"  3. boom at path: users.2.posts\n"
	assert.EqualError(t, err, want)
}

// =============================================================================
// Introspection
// =============================================================================

func TestSchemaTypesTable(t *testing.T) {
	var data interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"__schema":{"types":[
		{"name":"User","kind":"OBJECT","fields":[{},{},{}]},
		{"name":"__Type","kind":"OBJECT","fields":[{}]},
		{"name":"MemberTypeId","kind":"ENUM","fields":null,"enumValues":[{},{}]},
		{"name":"CreateUserInput","kind":"INPUT_OBJECT","fields":null,"inputFields":[{},{}]}
	]}}`), &data))

	table, err := schemaTypesTable(data)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"CreateUserInput", "INPUT_OBJECT", "2"},
		{"MemberTypeId", "ENUM", "2"},
		{"User", "OBJECT", "3"},
	}, table.Rows)

	_, err = schemaTypesTable(map[string]interface{}{})
	assert.Error(t, err)
}

// =============================================================================
// Commands against a server
// =============================================================================

func newTestCommand() *cobra.Command {
	c := &cobra.Command{}
	c.SetContext(context.Background())
	return c
}

// useTestServer points the shared client at handler and captures output
func useTestServer(t *testing.T, format output.Format, handler http.HandlerFunc) *bytes.Buffer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	prevClient, prevFormatter := apiClient, formatter
	t.Cleanup(func() { apiClient, formatter = prevClient, prevFormatter })

	var buf bytes.Buffer
	apiClient = client.NewClient(srv.URL)
	formatter = output.NewFormatter(format, false, false)
	formatter.Writer = &buf
	return &buf
}

func TestRunMemberTypesList(t *testing.T) {
	var got client.GraphQLRequest
	buf := useTestServer(t, output.FormatTable, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, client.GraphQLPath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"memberTypes":[
			{"id":"BASIC","discount":2.3,"postsLimitPerMonth":20},
			{"id":"BUSINESS","discount":7.7,"postsLimitPerMonth":100}
		]}}`))
	})

	require.NoError(t, runMemberTypesList(newTestCommand(), nil))
	assert.Contains(t, got.Query, "memberTypes")

	out := buf.String()
	assert.Contains(t, out, "BUSINESS")
	assert.Contains(t, out, "7.7")
	assert.Contains(t, out, "100")
}

func TestRunUsersList(t *testing.T) {
	buf := useTestServer(t, output.FormatTable, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"users":[
			{"id":"u1","name":"ann","balance":10,"profile":{"memberType":{"id":"BASIC"}},
			 "subscribedToUser":[{"id":"u2"}],"posts":[]},
			{"id":"u2","name":"bob","balance":0.5,"profile":null,"subscribedToUser":[],"posts":[{"id":"p1"}]}
		]}}`))
	})

	require.NoError(t, runUsersList(newTestCommand(), nil))

	users := []map[string]interface{}{
		{"id": "u1", "name": "ann", "balance": float64(10), "profile": map[string]interface{}{"memberType": map[string]interface{}{"id": "BASIC"}},
			"subscribedToUser": []interface{}{map[string]interface{}{"id": "u2"}}, "posts": []interface{}{}},
	}
	assert.Equal(t, [][]string{{"u1", "ann", "10", "BASIC", "1", "0"}}, usersTable(users).Rows)
	assert.Contains(t, buf.String(), "bob")
}

func TestExecuteGraphQL_ReportsErrors(t *testing.T) {
	buf := useTestServer(t, output.FormatJSON, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"user":null},"errors":[{"message":"boom","path":["user"]}]}`))
	})

	prevFile, prevVars := graphqlFile, graphqlVariables
	t.Cleanup(func() { graphqlFile, graphqlVariables = prevFile, prevVars })
	graphqlFile, graphqlVariables = "", []string{"id=x"}

	err := executeGraphQL(newTestCommand(), []string{`query($id: UUID!) { user(id: $id) { id } }`}, "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom at path: user")
	assert.JSONEq(t, `{"user":null}`, buf.String())
}

func TestRunGraphQLIntrospect_Forbidden(t *testing.T) {
	useTestServer(t, output.FormatJSON, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Introspection is disabled"}]}`))
	})

	err := runGraphQLIntrospect(newTestCommand(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Introspection is disabled")
}

// =============================================================================
// Profiles
// =============================================================================

func TestResolveProfile(t *testing.T) {
	c := cliconfig.New()
	c.SetProfile(&cliconfig.Profile{Name: "dev", Server: "http://dev:8080", Token: "dev-token"})

	t.Run("current profile", func(t *testing.T) {
		p, err := resolveProfile(c, "")
		require.NoError(t, err)
		assert.Equal(t, "http://dev:8080", p.Server)
		assert.Equal(t, "dev-token", p.Token)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SOCIALGRAPH_SERVER", "http://env:9090")
		t.Setenv("SOCIALGRAPH_TOKEN", "env-token")

		p, err := resolveProfile(c, "dev")
		require.NoError(t, err)
		assert.Equal(t, "http://env:9090", p.Server)
		assert.Equal(t, "env-token", p.Token)
		// The stored profile is untouched
		assert.Equal(t, "http://dev:8080", c.Profiles["dev"].Server)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := resolveProfile(c, "prod")
		assert.ErrorIs(t, err, cliconfig.ErrProfileNotFound)
	})

	t.Run("no config falls back to default server", func(t *testing.T) {
		p, err := resolveProfile(cliconfig.New(), "")
		require.NoError(t, err)
		assert.Equal(t, cliconfig.DefaultServer, p.Server)
	})
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", maskToken(""))
	assert.Equal(t, "****", maskToken("short"))
	assert.Equal(t, "abcd****wxyz", maskToken("abcdefghijklmnopqrstuvwxyz"))
}
