package api

import (
	"fmt"

	"github.com/graphql-go/graphql"
)

// graphqlSchema is built once when the package is initialised and only read
// afterwards, so requests share it without locking.
var graphqlSchema = mustBuildSchema()

// BuildSchema assembles the query and mutation roots over the object types
func BuildSchema() (graphql.Schema, error) {
	types := newObjectTypes()
	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    newQueryType(types),
		Mutation: newMutationType(types),
	})
}

func mustBuildSchema() graphql.Schema {
	schema, err := BuildSchema()
	if err != nil {
		panic(fmt.Sprintf("failed to build GraphQL schema: %v", err))
	}
	return schema
}
