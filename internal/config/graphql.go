package config

import "fmt"

// GraphQLConfig contains GraphQL API settings.
// The depth limit is not configurable; it is fixed by the api package.
type GraphQLConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxComplexity int  `mapstructure:"max_complexity"` // 0 disables the complexity check
	Introspection bool `mapstructure:"introspection"`
}

// Validate validates GraphQL configuration
func (gc *GraphQLConfig) Validate() error {
	if !gc.Enabled {
		return nil
	}

	if gc.MaxComplexity < 0 {
		return fmt.Errorf("graphql max_complexity cannot be negative, got: %d", gc.MaxComplexity)
	}

	return nil
}
