package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/socialgraph/cli/client"
	"github.com/fluxbase-eu/socialgraph/cli/output"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Inspect users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with their follower counts",
	Long: `List all users.

Examples:
  sgctl users list
  sgctl users list -o json`,
	PreRunE: initializeClient,
	RunE:    runUsersList,
}

var memberTypesCmd = &cobra.Command{
	Use:     "member-types",
	Aliases: []string{"mt"},
	Short:   "List member types",
	Long: `List the member types with their discount and monthly post limit.

Examples:
  sgctl member-types`,
	PreRunE: initializeClient,
	RunE:    runMemberTypesList,
}

func init() {
	usersCmd.AddCommand(usersListCmd)
}

const usersListQuery = `query ListUsers {
  users {
    id
    name
    balance
    profile { memberType { id } }
    subscribedToUser { id }
    posts { id }
  }
}`

const memberTypesQuery = `query ListMemberTypes {
  memberTypes { id discount postsLimitPerMonth }
}`

// queryRows runs a query and returns the list stored under field
func queryRows(cmd *cobra.Command, query, field string) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	response, err := apiClient.GraphQL(ctx, client.GraphQLRequest{Query: query})
	if err != nil {
		return nil, err
	}
	if len(response.Errors) > 0 {
		return nil, formatGraphQLErrors(response.Errors)
	}

	data, ok := response.Data.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected response format")
	}
	list, ok := data[field].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected %s format", field)
	}

	rows := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			rows = append(rows, m)
		}
	}
	return rows, nil
}

func runUsersList(cmd *cobra.Command, args []string) error {
	users, err := queryRows(cmd, usersListQuery, "users")
	if err != nil {
		return err
	}

	f := GetFormatter()
	if f.Format != output.FormatTable {
		return f.Print(users)
	}

	if len(users) == 0 {
		f.PrintSuccess("No users found.")
		return nil
	}

	f.PrintTable(usersTable(users))
	return nil
}

func usersTable(users []map[string]interface{}) output.TableData {
	table := output.TableData{Headers: []string{"ID", "NAME", "BALANCE", "MEMBER TYPE", "FOLLOWERS", "POSTS"}}
	for _, u := range users {
		memberType := "-"
		if profile, ok := u["profile"].(map[string]interface{}); ok {
			if mt, ok := profile["memberType"].(map[string]interface{}); ok {
				memberType = fmt.Sprintf("%v", mt["id"])
			}
		}
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%v", u["id"]),
			fmt.Sprintf("%v", u["name"]),
			formatNumber(u["balance"]),
			memberType,
			strconv.Itoa(listLen(u["subscribedToUser"])),
			strconv.Itoa(listLen(u["posts"])),
		})
	}
	return table
}

func runMemberTypesList(cmd *cobra.Command, args []string) error {
	memberTypes, err := queryRows(cmd, memberTypesQuery, "memberTypes")
	if err != nil {
		return err
	}

	table := output.TableData{Headers: []string{"ID", "DISCOUNT", "POSTS PER MONTH"}}
	for _, mt := range memberTypes {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%v", mt["id"]),
			formatNumber(mt["discount"]),
			formatNumber(mt["postsLimitPerMonth"]),
		})
	}

	GetFormatter().PrintTable(table)
	return nil
}

func formatNumber(v interface{}) string {
	if n, ok := v.(float64); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

func listLen(v interface{}) int {
	list, _ := v.([]interface{})
	return len(list)
}
