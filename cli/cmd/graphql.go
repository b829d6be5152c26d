package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/socialgraph/cli/client"
	"github.com/fluxbase-eu/socialgraph/cli/output"
)

var graphqlCmd = &cobra.Command{
	Use:     "graphql",
	Aliases: []string{"gql"},
	Short:   "Execute GraphQL queries and mutations",
	Long: `Execute GraphQL queries and mutations against the SocialGraph API.

Operations nested deeper than five levels are rejected by the server.

Examples:
  # Execute a simple query
  sgctl graphql query '{ users { id name balance } }'

  # Execute a query from a file
  sgctl graphql query --file ./query.graphql

  # Execute a query with variables
  sgctl graphql query 'query($id: UUID!) { user(id: $id) { name } }' --var 'id=9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d'

  # Execute a mutation
  sgctl graphql mutation 'mutation { createUser(dto: {name: "ann", balance: 10}) { id } }'

  # Introspect the schema
  sgctl graphql introspect --types`,
}

var (
	graphqlFile      string
	graphqlVariables []string
	graphqlOperation string
)

var graphqlQueryCmd = &cobra.Command{
	Use:   "query [query]",
	Short: "Execute a GraphQL query",
	Long: `Execute a GraphQL query against the SocialGraph API.

The query can be provided as an argument or from a file using --file.
Variables can be passed using --var flags in the format 'name=value'.
Values that parse as JSON are sent as JSON, anything else as a string.

Examples:
  sgctl graphql query '{ memberTypes { id discount postsLimitPerMonth } }'
  sgctl graphql query --file ./feed.graphql --operation Feed
  sgctl graphql query 'query($id: MemberTypeId!) { memberType(id: $id) { discount } }' --var 'id=BUSINESS'`,
	PreRunE: initializeClient,
	RunE:    runGraphQLQuery,
}

var graphqlMutationCmd = &cobra.Command{
	Use:   "mutation [mutation]",
	Short: "Execute a GraphQL mutation",
	Long: `Execute a GraphQL mutation against the SocialGraph API.

Examples:
  sgctl graphql mutation 'mutation($dto: CreateUserInput!) { createUser(dto: $dto) { id } }' \
    --var 'dto={"name":"ann","balance":10}'

  sgctl graphql mutation 'mutation { deleteUser(id: "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d") }'`,
	PreRunE: initializeClient,
	RunE:    runGraphQLMutation,
}

var graphqlIntrospectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Introspect the GraphQL schema",
	Long: `Fetch and display the GraphQL schema via introspection.

Introspection must be enabled on the server.

Examples:
  # Full introspection result
  sgctl graphql introspect -o json

  # List only type names
  sgctl graphql introspect --types`,
	PreRunE: initializeClient,
	RunE:    runGraphQLIntrospect,
}

var introspectTypesOnly bool

func init() {
	for _, c := range []*cobra.Command{graphqlQueryCmd, graphqlMutationCmd} {
		c.Flags().StringVarP(&graphqlFile, "file", "f", "", "File containing the GraphQL document")
		c.Flags().StringArrayVar(&graphqlVariables, "var", nil, "Variables in format 'name=value' (can be repeated)")
		c.Flags().StringVar(&graphqlOperation, "operation", "", "Operation to run when the document has several")
	}

	graphqlIntrospectCmd.Flags().BoolVar(&introspectTypesOnly, "types", false, "List only type names")

	graphqlCmd.AddCommand(graphqlQueryCmd)
	graphqlCmd.AddCommand(graphqlMutationCmd)
	graphqlCmd.AddCommand(graphqlIntrospectCmd)
}

func runGraphQLQuery(cmd *cobra.Command, args []string) error {
	return executeGraphQL(cmd, args, "query")
}

func runGraphQLMutation(cmd *cobra.Command, args []string) error {
	return executeGraphQL(cmd, args, "mutation")
}

func executeGraphQL(cmd *cobra.Command, args []string, operationType string) error {
	query, err := readDocument(graphqlFile, args, operationType)
	if err != nil {
		return err
	}

	variables, err := parseVariables(graphqlVariables)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	response, err := apiClient.GraphQL(ctx, client.GraphQLRequest{
		Query:         query,
		Variables:     variables,
		OperationName: graphqlOperation,
	})
	if err != nil {
		return err
	}

	return printGraphQLResponse(response)
}

func readDocument(file string, args []string, operationType string) (string, error) {
	if file != "" {
		content, err := os.ReadFile(file) //nolint:gosec // CLI tool reads user-provided file path
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(content), nil
	}
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return "", fmt.Errorf("either provide a %s as an argument or use --file", operationType)
}

func parseVariables(vars []string) (map[string]interface{}, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	result := make(map[string]interface{})
	for _, v := range vars {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid variable format: %q (expected 'name=value')", v)
		}
		name := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Try JSON first (objects, arrays, numbers, booleans, null)
		var parsed interface{}
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			result[name] = parsed
		} else {
			result[name] = value
		}
	}

	return result, nil
}

// printGraphQLResponse prints data and turns errors into a command error.
// Partial data is still printed before the errors are reported.
func printGraphQLResponse(response *client.GraphQLResponse) error {
	f := GetFormatter()

	if response.Data != nil {
		if f.Format == output.FormatTable {
			data, err := json.MarshalIndent(response.Data, "", "  ")
			if err != nil {
				return err
			}
			if !f.Quiet {
				_, _ = fmt.Fprintln(f.Writer, string(data))
			}
		} else if err := f.Print(response.Data); err != nil {
			return err
		}
	}

	if len(response.Errors) > 0 {
		return formatGraphQLErrors(response.Errors)
	}
	return nil
}

func formatGraphQLErrors(errs []client.GraphQLError) error {
	var sb strings.Builder
	sb.WriteString("GraphQL errors:\n")

	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("  %d. %s", i+1, e.Message))

		if code := e.Code(); code != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", code))
		}

		if len(e.Locations) > 0 {
			loc := e.Locations[0]
			sb.WriteString(fmt.Sprintf(" (line %d, column %d)", loc.Line, loc.Column))
		}

		if len(e.Path) > 0 {
			pathParts := make([]string, len(e.Path))
			for j, p := range e.Path {
				pathParts[j] = pathSegment(p)
			}
			sb.WriteString(fmt.Sprintf(" at path: %s", strings.Join(pathParts, ".")))
		}

		sb.WriteString("\n")
	}

	return errors.New(sb.String())
}

// pathSegment renders list indexes decoded as float64 without a fraction
func pathSegment(p interface{}) string {
	if n, ok := p.(float64); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", p)
}

func runGraphQLIntrospect(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	response, err := apiClient.Introspect(ctx)
	if err != nil {
		return err
	}
	if len(response.Errors) > 0 {
		return formatGraphQLErrors(response.Errors)
	}

	if introspectTypesOnly {
		table, err := schemaTypesTable(response.Data)
		if err != nil {
			return err
		}
		GetFormatter().PrintTable(table)
		return nil
	}

	return printGraphQLResponse(response)
}

// schemaTypesTable lists the non-introspection types of an introspection result
func schemaTypesTable(data interface{}) (output.TableData, error) {
	table := output.TableData{Headers: []string{"NAME", "KIND", "FIELDS"}}

	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return table, fmt.Errorf("unexpected response format")
	}
	schema, ok := dataMap["__schema"].(map[string]interface{})
	if !ok {
		return table, fmt.Errorf("unexpected schema format")
	}
	types, ok := schema["types"].([]interface{})
	if !ok {
		return table, fmt.Errorf("unexpected types format")
	}

	for _, t := range types {
		typeMap, ok := t.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := typeMap["name"].(string)
		if strings.HasPrefix(name, "__") {
			continue
		}
		kind, _ := typeMap["kind"].(string)

		count := 0
		if fields, ok := typeMap["fields"].([]interface{}); ok {
			count = len(fields)
		} else if inputs, ok := typeMap["inputFields"].([]interface{}); ok {
			count = len(inputs)
		} else if values, ok := typeMap["enumValues"].([]interface{}); ok {
			count = len(values)
		}

		table.Rows = append(table.Rows, []string{name, kind, strconv.Itoa(count)})
	}

	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i][0] < table.Rows[j][0] })
	return table, nil
}
